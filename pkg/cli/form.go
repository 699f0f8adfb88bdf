package cli

import (
	"context"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/spf13/cobra"
)

var (
	formDataset   string
	formPlatform  string
	formOptimizer string
	formTimeLimit string
	formAppSize   string
	formSimulate  bool
)

// addFormFlags registers the run form fields on cmd
func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&formDataset, "dataset", "d", "", "Path to the dataset CSV")
	cmd.Flags().StringVarP(&formPlatform, "platform", "p", "", "Target platform id")
	cmd.Flags().StringVarP(&formOptimizer, "optimizer", "o", "", "Optimizer id")
	cmd.Flags().StringVarP(&formTimeLimit, "time-limit", "t", "", "AutoML time limit in minutes")
	cmd.Flags().StringVar(&formAppSize, "app-size", "", "Application size in KB, empty to leave it unset")
	cmd.Flags().BoolVar(&formSimulate, "simulate", false, "Evaluate models in a Renode simulation")
}

type formField struct {
	flag  string
	key   state.Key
	value func() any
}

var formFields = []formField{
	{"dataset", state.DatasetPath, func() any { return formDataset }},
	{"platform", state.Platform, func() any { return formPlatform }},
	{"optimizer", state.Optimizer, func() any { return formOptimizer }},
	{"time-limit", state.TimeLimit, func() any { return formTimeLimit }},
	{"app-size", state.AppSize, func() any { return formAppSize }},
	{"simulate", state.Simulate, func() any { return formSimulate }},
}

// applyFormFlags stores the fields set on the command line through the
// controller, so a platform change also refreshes the stored optimizers
func applyFormFlags(ctx context.Context, cmd *cobra.Command, ctrl *controller.Controller) error {
	for _, f := range formFields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		if err := ctrl.UpdateField(ctx, f.key, f.value()); err != nil {
			return err
		}
	}
	return nil
}

// formFromFlags overlays the flags set on the command line on the stored form
// without storing them
func formFromFlags(cmd *cobra.Command, store *state.Store) controller.RunAutoMLState {
	form := storedForm(store)
	flags := cmd.Flags()
	if flags.Changed("dataset") {
		form.DatasetPath = formDataset
	}
	if flags.Changed("platform") {
		form.Platform = formPlatform
	}
	if flags.Changed("optimizer") {
		form.Optimizer = formOptimizer
	}
	if flags.Changed("time-limit") {
		form.TimeLimit = formTimeLimit
	}
	if flags.Changed("app-size") {
		appSize := formAppSize
		form.AppSize = &appSize
	}
	if flags.Changed("simulate") {
		form.Simulate = formSimulate
	}
	return form
}
