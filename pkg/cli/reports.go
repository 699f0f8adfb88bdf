package cli

import (
	"fmt"
	"os"

	"github.com/analogdevicesinc/automl-embedded/pkg/reports"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	chooseTarget string
	htmlOutput   string
)

// NewReportsCmd creates the reports command with subcommands
func NewReportsCmd() *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect Kenning reports and export models",
	}

	reportsCmd.AddCommand(newReportsListCmd())
	reportsCmd.AddCommand(newReportsModelsCmd())
	reportsCmd.AddCommand(newReportsChooseCmd())
	reportsCmd.AddCommand(newReportsHTMLCmd())

	return reportsCmd
}

func newReportsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports found in the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			found := ws.reports.Reports()

			if printed, err := printResults(found); printed {
				return err
			}
			if len(found) == 0 {
				fmt.Println("No reports found")
				return nil
			}
			for _, r := range found {
				extra := ""
				if r.HasSummary {
					extra += " [summary]"
				}
				if r.HasHTML {
					extra += " [html]"
				}
				fmt.Printf("%s%s\n", r.Name, extra)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputFormat, "output", "text", "Output format (text, json, yaml)")
	return cmd
}

func newReportsModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models <run>",
		Short: "List the models compared in a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, models, err := loadModels(args[0])
			if err != nil {
				return err
			}
			for i := range models {
				models[i].Metrics = models[i].ClassificationMetrics()
			}

			if printed, err := printResults(models); printed {
				return err
			}
			for _, m := range models {
				fmt.Println(m.ModelName)
				for _, metric := range m.Metrics {
					fmt.Printf("  %s: %v\n", metric.Name, metric.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputFormat, "output", "text", "Output format (text, json, yaml)")
	return cmd
}

func newReportsChooseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "choose <run> <model>",
		Short: "Copy a model of a report to the target model path",
		Long: `Copy the model produced by the given scenario, and its .json metadata,
to --target. Without --target the stored target model path is used; a given
target is stored for the following exports.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, models, err := loadModels(args[0])
			if err != nil {
				return err
			}

			var model *reports.ModelSummary
			for i := range models {
				if models[i].ModelName == args[1] {
					model = &models[i]
				}
			}
			if model == nil {
				return fmt.Errorf("model %s not found in report %s", args[1], args[0])
			}

			target := chooseTarget
			if target == "" {
				target = state.Get(ws.store, state.TargetModelPath, "")
			} else if err := ws.store.Update(state.TargetModelPath, target); err != nil {
				return err
			}

			saved, err := reports.ChooseModel(ws.root, *model, target)
			if err != nil {
				return err
			}
			color.Green("✓ Model is saved to %s", saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&chooseTarget, "target", "", "Destination of the model")
	return cmd
}

func newReportsHTMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html <run>",
		Short: "Render the HTML report with resolvable static assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			r, ok := ws.reports.Lookup(args[0])
			if !ok {
				return fmt.Errorf("report %s not found", args[0])
			}
			html, err := reports.RenderHTML(r)
			if err != nil {
				return err
			}
			if htmlOutput == "" {
				fmt.Print(html)
				return nil
			}
			if err := os.WriteFile(htmlOutput, []byte(html), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", htmlOutput, err)
			}
			fmt.Printf("✓ Report written to %s\n", htmlOutput)
			return nil
		},
	}
	cmd.Flags().StringVarP(&htmlOutput, "output-file", "f", "", "Write the HTML to a file instead of stdout")
	return cmd
}

func loadModels(run string) (*workspace, []reports.ModelSummary, error) {
	ws, err := openWorkspace()
	if err != nil {
		return nil, nil, err
	}
	r, ok := ws.reports.Lookup(run)
	if !ok {
		return nil, nil, fmt.Errorf("report %s not found", run)
	}
	models, err := reports.LoadSummary(r)
	if err != nil {
		return nil, nil, err
	}
	return ws, models, nil
}
