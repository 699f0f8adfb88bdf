package cli

import (
	"fmt"

	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/analogdevicesinc/automl-embedded/pkg/validator"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [scenario-file]",
		Short: "Validate a scenario and the toolchain environment",
		Long: `Check that a scenario file is well formed and that the toolchains a
run needs are installed. Without an argument the base scenario from the
settings is checked. The simulate and optimizer flags default to the stored
form.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.GetLogger()

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			failed := false

			if len(args) == 1 {
				log.Info("Validating scenario", "file", args[0])
				if _, err := scenario.Load(args[0]); err != nil {
					color.Red("✗ %v", err)
					failed = true
				} else {
					fmt.Printf("✓ Scenario is valid: %s\n", args[0])
				}
			} else if _, err := ws.baseScenario(); err != nil {
				color.Red("✗ Base scenario: %v", err)
				failed = true
			} else {
				fmt.Println("✓ Base scenario is valid")
			}

			form := formFromFlags(cmd, ws.store)
			env := ws.settings.Apply(ws.env)
			result := validator.CheckEnvironment(ws.settings, env, validator.CheckRequest{
				Simulate:  form.Simulate,
				Optimizer: form.Optimizer,
			})
			if result.Passed {
				fmt.Println("✓ Environment is ready")
			} else {
				failed = true
				color.Red("✗ Found configuration errors:")
				for _, msg := range result.Messages() {
					fmt.Printf("  - %s\n", msg)
				}
			}

			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	validateCmd.Flags().BoolVar(&formSimulate, "simulate", false, "Check the simulation toolchain")
	validateCmd.Flags().StringVarP(&formOptimizer, "optimizer", "o", "", "Check the toolchain of this optimizer")

	return validateCmd
}
