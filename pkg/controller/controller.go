package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/catalog"
	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	envcheck "github.com/analogdevicesinc/automl-embedded/pkg/validator"
	"github.com/analogdevicesinc/automl-embedded/pkg/watcher"
	"github.com/go-logr/logr"
)

// State of the run state machine
type State int

const (
	Idle State = iota
	Validating
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Validating:
		return "Validating"
	case Running:
		return "Running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CheckFunc validates the toolchain environment for a run
type CheckFunc func(*config.Settings, config.Env, envcheck.CheckRequest) *envcheck.CheckResult

// Context carries everything the controller works with. Catalog, Store,
// View and Output are required.
type Context struct {
	Workspace string
	Settings  *config.Settings
	// Env is the base environment, the settings are overlaid on it per run
	Env config.Env

	Catalog  *catalog.Catalog
	Store    *state.Store
	Launcher Launcher
	Check    CheckFunc

	View    View
	Dialogs Dialogs
	Reports ReportsRefresher
	// Output is the user facing log of the extension
	Output io.Writer

	Log logr.Logger
	Now func() time.Time

	// WatchScenario reloads the base scenario when its file changes
	WatchScenario bool
}

// Controller mediates between the view, the catalog, the store and Kenning
type Controller struct {
	workspace string
	env       config.Env
	catalog   *catalog.Catalog
	store     *state.Store
	launcher  Launcher
	check     CheckFunc
	view      View
	dialogs   Dialogs
	reports   ReportsRefresher
	output    *lockedWriter
	log       logr.Logger
	now       func() time.Time
	watch     bool

	mu        sync.Mutex
	state     State
	settings  *config.Settings
	base      *scenario.Scenario
	run       *Run
	stopWatch func()
}

// New creates a controller in the Idle state
func New(c Context) (*Controller, error) {
	switch {
	case c.Catalog == nil:
		return nil, fmt.Errorf("controller requires a catalog")
	case c.Store == nil:
		return nil, fmt.Errorf("controller requires a state store")
	case c.View == nil:
		return nil, fmt.Errorf("controller requires a view")
	case c.Output == nil:
		return nil, fmt.Errorf("controller requires an output writer")
	}

	ctrl := &Controller{
		workspace: c.Workspace,
		env:       c.Env,
		catalog:   c.Catalog,
		store:     c.Store,
		launcher:  c.Launcher,
		check:     c.Check,
		view:      c.View,
		dialogs:   c.Dialogs,
		reports:   c.Reports,
		output:    &lockedWriter{w: c.Output},
		log:       c.Log,
		now:       c.Now,
		watch:     c.WatchScenario,
		settings:  c.Settings,
		base:      scenario.DefaultBaseScenario(),
	}
	if ctrl.workspace == "" {
		ctrl.workspace = "."
	}
	if ctrl.env == nil {
		ctrl.env = config.ProcessEnv()
	}
	if ctrl.launcher == nil {
		ctrl.launcher = RunnerLauncher
	}
	if ctrl.check == nil {
		ctrl.check = envcheck.CheckEnvironment
	}
	if ctrl.dialogs == nil {
		ctrl.dialogs = NopDialogs{}
	}
	if ctrl.reports == nil {
		ctrl.reports = nopRefresher{}
	}
	if ctrl.log.GetSink() == nil {
		ctrl.log = logr.Discard()
	}
	if ctrl.now == nil {
		ctrl.now = time.Now
	}
	if ctrl.settings == nil {
		ctrl.settings = config.DefaultSettings()
	}

	return ctrl, nil
}

// State returns the current run state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.V(1).Info("State transition", "from", c.state, "to", s)
	c.state = s
}

// Settings returns the settings in effect
func (c *Controller) Settings() *config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// BaseScenario returns the template the next run starts from
func (c *Controller) BaseScenario() *scenario.Scenario {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// Attach prepares a freshly shown view: load the base scenario, publish the
// platforms and restore the stored form.
func (c *Controller) Attach(ctx context.Context) {
	c.ReloadBaseScenario()
	c.UpdatePlatforms(ctx, false)
	c.RestoreState()
	c.rewatch()
}

// Close stops watching the base scenario and cancels an active run
func (c *Controller) Close() {
	c.mu.Lock()
	stop := c.stopWatch
	c.stopWatch = nil
	run := c.run
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if run != nil {
		run.Cancel()
	}
}

// Handle dispatches a message from the view
func (c *Controller) Handle(ctx context.Context, msg Inbound) error {
	switch m := msg.(type) {
	case BrowseDataset:
		return c.BrowseDataset(ctx)
	case BrowseTargetModelPath:
		return c.BrowseTargetModelPath(ctx)
	case UpdateField:
		return c.UpdateField(ctx, m.Name, m.Value)
	case GetField:
		return c.GetField(m.ElementName, m.StorageName)
	case RunAutoML:
		_, err := c.RunAutoML(ctx, m.RunAutoMLState)
		return err
	default:
		return fmt.Errorf("unsupported message %T", msg)
	}
}

// UpdateField stores a form value. A platform change also publishes and
// stores the optimizers and simulation support of the new platform.
func (c *Controller) UpdateField(ctx context.Context, key state.Key, value any) error {
	if err := c.store.Update(key, value); err != nil {
		return err
	}
	if key != state.Platform {
		return nil
	}

	id, _ := value.(string)
	// Lookups below need a loaded catalog; a cached one is reused
	_, _ = c.catalog.ListPlatforms(ctx, false)

	optimizers := catalog.OptimizerEntries(c.catalog.CompatibleOptimizers(id))
	simulate := c.catalog.IsSimulationAvailable(id)

	c.view.Post(UpdateOptimizers{Optimizers: optimizers})
	c.view.Post(ToggleSimulate{Enable: simulate})

	if err := c.store.Update(state.OptimizerOptions, optimizers); err != nil {
		return err
	}
	return c.store.Update(state.SimulationsAvailable, simulate)
}

// GetField answers with a SetField message when a value is stored
func (c *Controller) GetField(element ElementID, key state.Key) error {
	if !stringFields[element] {
		return fmt.Errorf("%w: element %s does not accept values", ErrNotGettable, element)
	}
	if key == state.OptimizerOptions || key == state.EnableButton || !state.IsKnown(key) {
		return fmt.Errorf("%w: %s", ErrNotGettable, key)
	}

	value, ok := state.Lookup[any](c.store, key)
	if !ok || isEmpty(value) {
		return nil
	}
	c.view.Post(SetField{ElementName: element, Value: fmt.Sprint(value)})
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	return false
}

// BrowseDataset lets the user pick the dataset CSV
func (c *Controller) BrowseDataset(ctx context.Context) error {
	path, ok := c.dialogs.OpenFile(ctx, OpenOptions{
		Label:   "Select dataset",
		Filters: []FileFilter{{Name: "Dataset CSV", Extensions: []string{"csv"}}},
	})
	if !ok {
		return nil
	}
	c.view.Post(SetField{ElementName: ElementDatasetPath, Value: path})
	return c.store.Update(state.DatasetPath, path)
}

// BrowseTargetModelPath lets the user pick where the chosen model is saved.
// The parent directory is created right away.
func (c *Controller) BrowseTargetModelPath(ctx context.Context) error {
	path, ok := c.dialogs.SaveFile(ctx, SaveOptions{Title: "Save selected models as"})
	if !ok {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	c.view.Post(SetField{ElementName: ElementTargetPath, Value: path})
	return c.store.Update(state.TargetModelPath, path)
}

// RestoreState pushes the stored form into the view when it is visible
func (c *Controller) RestoreState() {
	if !c.view.Visible() {
		return
	}

	appSize := state.Get(c.store, state.AppSize, state.DefaultAppSize)
	c.view.Post(RestoreState{WebviewState{
		RunAutoMLState: RunAutoMLState{
			DatasetPath: state.Get(c.store, state.DatasetPath, ""),
			Platform:    state.Get(c.store, state.Platform, state.DefaultPlatform),
			Optimizer:   state.Get(c.store, state.Optimizer, state.DefaultOptimizer),
			TimeLimit:   state.Get(c.store, state.TimeLimit, state.DefaultTimeLimit),
			AppSize:     &appSize,
			Simulate:    state.Get(c.store, state.Simulate, false),
		},
		TargetModelPath:      state.Get(c.store, state.TargetModelPath, ""),
		EnableButton:         c.State() == Idle,
		SimulationsAvailable: state.Get(c.store, state.SimulationsAvailable, false),
		OptimizerOptions:     state.Get[[]catalog.Entry](c.store, state.OptimizerOptions, nil),
	}})
}

// ReloadBaseScenario loads the base scenario from the configured path, or
// the built-in one when no path is set. A scenario that fails to load is
// replaced by the built-in one.
func (c *Controller) ReloadBaseScenario() *scenario.Scenario {
	path := c.Settings().KenningScenarioPath
	base := scenario.DefaultBaseScenario()

	if path == "" {
		c.dialogs.ShowInfo("Loaded the default scenario.")
	} else if loaded, err := scenario.Load(c.resolve(path)); err != nil {
		c.log.Error(err, "Loading scenario failed, using the default one", "path", path)
		c.dialogs.ShowError(fmt.Sprintf("Loading scenario '%s' failed.", path))
	} else {
		base = loaded
		c.dialogs.ShowInfo(fmt.Sprintf("Loaded the scenario from %s.", path))
	}

	c.mu.Lock()
	c.base = base
	c.mu.Unlock()
	return base
}

// UpdatePlatforms publishes the platform list
func (c *Controller) UpdatePlatforms(ctx context.Context, refresh bool) []catalog.Entry {
	platforms := c.catalog.Platforms(ctx, refresh, c.BaseScenario())
	c.view.Post(UpdatePlatforms{Platforms: platforms})
	return platforms
}

// RefreshConfiguration rediscovers platforms and asks the view to reload
func (c *Controller) RefreshConfiguration(ctx context.Context) {
	c.UpdatePlatforms(ctx, true)
	c.view.Post(UpdateConfiguration{})
}

// EnableRunButton re-enables the run button of the view
func (c *Controller) EnableRunButton() {
	c.view.Post(EnableButton{})
}

// ScenarioFileChanged reloads the base scenario after its file changed
func (c *Controller) ScenarioFileChanged(ctx context.Context) {
	c.log.Info("Base scenario changed, reloading")
	c.ReloadBaseScenario()
	c.UpdatePlatforms(ctx, false)
}

// ApplySettings replaces the settings. A new base scenario path is watched
// and loaded right away.
func (c *Controller) ApplySettings(ctx context.Context, settings *config.Settings) {
	c.mu.Lock()
	previous := c.settings
	c.settings = settings
	c.mu.Unlock()

	if previous != nil && previous.KenningScenarioPath == settings.KenningScenarioPath {
		return
	}
	c.rewatch()
	c.ReloadBaseScenario()
	c.UpdatePlatforms(ctx, false)
}

func (c *Controller) rewatch() {
	if !c.watch {
		return
	}
	path := c.Settings().KenningScenarioPath

	c.mu.Lock()
	stop := c.stopWatch
	c.stopWatch = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	if path == "" {
		return
	}

	stop = watcher.Start(c.resolve(path), watcher.DefaultDebounce, func() {
		c.ScenarioFileChanged(context.Background())
	})
	c.mu.Lock()
	c.stopWatch = stop
	c.mu.Unlock()
}

// resolve makes workspace relative paths absolute
func (c *Controller) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.workspace, path)
}

func (c *Controller) println(line string) {
	if _, err := io.WriteString(c.output, line+"\n"); err != nil {
		c.log.Error(err, "Failed to write output")
	}
}

// reportConfigurationErrors lists environment problems in the output
func (c *Controller) reportConfigurationErrors(result *envcheck.CheckResult) error {
	c.dialogs.ShowError("Configuration errors. See output for more details.")
	c.println("Found configuration errors:")
	for _, msg := range result.Messages() {
		c.println("- " + msg)
	}
	return fmt.Errorf("%w: %s", ErrEnvironment, strings.Join(result.Messages(), "; "))
}

// lockedWriter serializes writes of the process and of the controller
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
