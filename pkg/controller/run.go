package controller

import (
	"context"
	"errors"

	"github.com/analogdevicesinc/automl-embedded/pkg/runner"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	envcheck "github.com/analogdevicesinc/automl-embedded/pkg/validator"
)

// Run is an AutoML run started by the controller
type Run struct {
	Dir      runner.RunDir
	Scenario *scenario.Scenario

	cancel   context.CancelFunc
	done     chan struct{}
	exitCode int
}

// Cancel terminates the Kenning process. The run directory is kept.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed after the process exited and the view was re-enabled
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// ExitCode of the Kenning process, valid after Done
func (r *Run) ExitCode() int {
	<-r.done
	return r.exitCode
}

// ActiveRun returns the run in progress, if any
func (c *Controller) ActiveRun() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

// RunAutoML validates the form and the environment, writes the populated
// scenario into a new run directory and starts Kenning. It returns once the
// process is started; every failure re-enables the run button.
func (c *Controller) RunAutoML(ctx context.Context, form RunAutoMLState) (*Run, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrRunInProgress
	}
	c.state = Validating
	c.mu.Unlock()

	run, err := c.startRun(ctx, form)
	if err != nil {
		c.log.Info("Run rejected", "reason", err.Error())
		c.setState(Idle)
		c.EnableRunButton()
		return nil, err
	}
	return run, nil
}

// maxRunDirAttempts bounds the suffixed names tried for runs started within
// the same second
const maxRunDirAttempts = 100

// prepareRunDir populates the scenario for a fresh run directory and writes
// it. Directories left by earlier runs are skipped with a numeric suffix.
func (c *Controller) prepareRunDir(base *scenario.Scenario, settings scenario.RunSettings, form RunAutoMLState) (runner.RunDir, *scenario.Scenario, error) {
	first := runner.NewRunDir(c.workspace, c.now())
	for attempt := 0; ; attempt++ {
		dir := first.Next(attempt)
		populated, err := scenario.Populate(base, settings, form.Request(dir.Rel))
		if err != nil {
			return runner.RunDir{}, nil, err
		}
		err = runner.PrepareRunDir(dir, populated)
		if err == nil {
			return dir, populated, nil
		}
		if !errors.Is(err, runner.ErrRunDirExists) || attempt+1 >= maxRunDirAttempts {
			return runner.RunDir{}, nil, err
		}
		c.log.V(1).Info("Run directory taken", "runDir", dir.Rel)
	}
}

func (c *Controller) startRun(ctx context.Context, form RunAutoMLState) (*Run, error) {
	if err := form.Validate(); err != nil {
		c.dialogs.ShowError(err.Error())
		c.reportMissingFields(err)
		return nil, err
	}

	settings := c.Settings()
	env := settings.Apply(c.env)
	result := c.check(settings, env, envcheck.CheckRequest{Simulate: form.Simulate, Optimizer: form.Optimizer})
	if !result.Passed {
		return nil, c.reportConfigurationErrors(result)
	}

	base := c.ReloadBaseScenario()
	c.UpdatePlatforms(ctx, true)

	dir, populated, err := c.prepareRunDir(base, settings.RunSettings(), form)
	if err != nil {
		c.dialogs.ShowError(err.Error())
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	proc, err := c.launcher.Launch(runCtx, LaunchRequest{
		Binary:    settings.KenningBinary,
		Args:      runner.BuildArgs(dir),
		Workspace: c.workspace,
		Env:       env,
	}, c.output)
	if err != nil {
		cancel()
		c.println(err.Error())
		c.dialogs.ShowError("Failed to start Kenning. See output for more details.")
		return nil, err
	}

	run := &Run{
		Dir:      dir,
		Scenario: populated,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	c.state = Running
	c.run = run
	c.mu.Unlock()
	c.log.Info("Run started", "runDir", dir.Rel)

	go c.finish(run, proc)

	return run, nil
}

// finish waits for Kenning and returns to Idle whatever the exit code
func (c *Controller) finish(run *Run, proc Process) {
	code, err := proc.Wait()
	if err != nil {
		c.log.Error(err, "Kenning process failed", "runDir", run.Dir.Rel)
	}
	c.println(runner.ExitMessage(code))
	c.reports.RefreshReports()

	c.mu.Lock()
	c.state = Idle
	c.run = nil
	c.mu.Unlock()
	c.EnableRunButton()

	run.exitCode = code
	run.cancel()
	close(run.done)
	c.log.Info("Run finished", "runDir", run.Dir.Rel, "exitCode", code)
}

// reportMissingFields lists the empty required fields in the output
func (c *Controller) reportMissingFields(err error) {
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		return
	}
	c.println("Missing data in configuration:")
	for _, field := range missing.Fields {
		c.println("- " + field)
	}
}
