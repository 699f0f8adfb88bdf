package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PlatformInfo describes a platform together with what can be run on it
type PlatformInfo struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Optimizers  []string `json:"optimizers" yaml:"optimizers"`
	Simulation  bool     `json:"simulation" yaml:"simulation"`
}

// NewPlatformsCmd creates the platforms command
func NewPlatformsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List platforms supported by Kenning",
		Long: `Ask Kenning for the available platforms and list the Zephyr ones with
their compatible optimizers and whether they can be simulated.`,
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

			if _, err := ws.catalog.ListPlatforms(cmd.Context(), true); err != nil {
				return err
			}
			entries := ws.catalog.Platforms(cmd.Context(), false, base)

			platforms := make([]PlatformInfo, 0, len(entries))
			for _, e := range entries {
				optimizers := ws.catalog.CompatibleOptimizers(e.ID)
				if optimizers == nil {
					optimizers = []string{}
				}
				platforms = append(platforms, PlatformInfo{
					ID:          e.ID,
					DisplayName: e.DisplayName,
					Optimizers:  optimizers,
					Simulation:  ws.catalog.IsSimulationAvailable(e.ID),
				})
			}

			if printed, err := printResults(platforms); printed {
				return err
			}

			if len(platforms) == 0 {
				fmt.Println("No platforms found")
				return nil
			}
			for _, p := range platforms {
				fmt.Printf("%s (%s)\n", p.DisplayName, p.ID)
				fmt.Printf("  optimizers: %v\n", p.Optimizers)
				if p.Simulation {
					fmt.Println("  simulation: available")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFormat, "output", "text", "Output format (text, json, yaml)")

	return cmd
}
