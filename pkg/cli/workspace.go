package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/analogdevicesinc/automl-embedded/pkg/catalog"
	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/reports"
	"github.com/analogdevicesinc/automl-embedded/pkg/runner"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/analogdevicesinc/automl-embedded/pkg/watcher"
)

// workspace bundles what every command loads for a workspace
type workspace struct {
	root         string
	settingsPath string
	settings     *config.Settings
	env          config.Env
	catalog      *catalog.Catalog
	store        *state.Store
	reports      *reports.Index
}

// openWorkspace loads settings, the .env file and the stored form for the
// workspace selected by the global flags
func openWorkspace() (*workspace, error) {
	log := util.GetLogger()

	root, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}

	path := settingsFile
	if path == "" {
		path = config.SettingsPath(root)
	}

	if err := config.LoadEnvFile(filepath.Join(filepath.Dir(path), config.EnvFile)); err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(settings); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	log.V(1).Info("Loaded settings", "file", path, "kenning", settings.KenningBinary)

	store, err := state.Open(filepath.Join(root, config.KenningDir, state.FileName))
	if err != nil {
		return nil, err
	}

	env := config.ProcessEnv()
	discoverer := runner.New(settings.KenningBinary, root, settings.Apply(env))

	return &workspace{
		root:         root,
		settingsPath: path,
		settings:     settings,
		env:          env,
		catalog:      catalog.New(discoverer, log),
		store:        store,
		reports:      reports.NewIndex(root),
	}, nil
}

func (w *workspace) newController(view controller.View, dialogs controller.Dialogs, out io.Writer, watch bool) (*controller.Controller, error) {
	return controller.New(controller.Context{
		Workspace:     w.root,
		Settings:      w.settings,
		Env:           w.env,
		Catalog:       w.catalog,
		Store:         w.store,
		View:          view,
		Dialogs:       dialogs,
		Reports:       w.reports,
		Output:        out,
		Log:           util.ComponentLogger("controller"),
		WatchScenario: watch,
	})
}

// settingsApplier receives settings reloaded from disk
type settingsApplier interface {
	ApplySettings(ctx context.Context, settings *config.Settings)
}

// reloadSettings reads the settings file again and hands the result to ctrl.
// Invalid settings are rejected and the previous ones stay in effect.
func (w *workspace) reloadSettings(ctx context.Context, ctrl settingsApplier) error {
	settings, err := config.LoadSettings(w.settingsPath)
	if err != nil {
		return err
	}
	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("invalid settings in %s: %w", w.settingsPath, err)
	}
	ctrl.ApplySettings(ctx, settings)
	return nil
}

// watchSettings reloads the settings whenever the settings file changes and
// returns a function stopping the watch
func (w *workspace) watchSettings(ctx context.Context, ctrl settingsApplier) func() {
	log := util.ComponentLogger("settings").WithValues("file", w.settingsPath)
	return watcher.Start(w.settingsPath, watcher.DefaultDebounce, func() {
		if err := w.reloadSettings(ctx, ctrl); err != nil {
			log.Error(err, "Settings not reloaded")
			return
		}
		log.Info("Settings reloaded")
	})
}

// baseScenario loads the configured base scenario, or the built-in one
func (w *workspace) baseScenario() (*scenario.Scenario, error) {
	path := w.settings.KenningScenarioPath
	if path == "" {
		return scenario.DefaultBaseScenario(), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.root, path)
	}
	return scenario.Load(path)
}

// storedForm rebuilds the run form from the workspace state, with the
// defaults the view would show
func storedForm(store *state.Store) controller.RunAutoMLState {
	appSize := state.Get(store, state.AppSize, state.DefaultAppSize)
	return controller.RunAutoMLState{
		DatasetPath: state.Get(store, state.DatasetPath, ""),
		Platform:    state.Get(store, state.Platform, state.DefaultPlatform),
		Optimizer:   state.Get(store, state.Optimizer, state.DefaultOptimizer),
		TimeLimit:   state.Get(store, state.TimeLimit, state.DefaultTimeLimit),
		AppSize:     &appSize,
		Simulate:    state.Get(store, state.Simulate, false),
	}
}
