package cli

import (
	"fmt"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/runner"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	populateDiff bool
)

// NewPopulateCmd creates the populate command
func NewPopulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Print the scenario a run would use",
		Long: `Populate the base scenario with the workspace configuration and print
it without creating a run directory or starting Kenning. Flags override the
stored form for this invocation only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			base, err := ws.baseScenario()
			if err != nil {
				return err
			}

			form := formFromFlags(cmd, ws.store)
			if err := form.Validate(); err != nil {
				return err
			}

			dir := runner.NewRunDir(ws.root, time.Now())
			populated, err := scenario.Populate(base, ws.settings.RunSettings(), form.Request(dir.Rel))
			if err != nil {
				return err
			}
			data, err := scenario.MarshalIndent(populated)
			if err != nil {
				return err
			}

			if !populateDiff {
				fmt.Println(string(data))
				return nil
			}

			baseData, err := scenario.MarshalIndent(base)
			if err != nil {
				return err
			}
			diff, err := validator.DiffScenarios(baseData, data, "base", dir.ScenarioPath())
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Println("Populated scenario is identical to the base scenario")
				return nil
			}
			fmt.Print(diff)
			return nil
		},
	}

	addFormFlags(cmd)
	cmd.Flags().BoolVar(&populateDiff, "diff", false, "Show a unified diff against the base scenario")

	return cmd
}
