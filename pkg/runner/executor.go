package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/go-logr/logr"
)

// waitDelay bounds how long Wait keeps reading output after the process was
// signalled, in case a child still holds the pipes open
const waitDelay = 5 * time.Second

// BuildArgs returns the Kenning arguments for an AutoML run
func BuildArgs(dir RunDir) []string {
	return []string{
		"automl", "optimize", "test", "report",
		"--report-path", dir.ReportPath(),
		"--cfg", dir.ScenarioPath(),
		"--verbosity", "INFO",
		"--to-html",
		"--save-summary",
		"--allow-failures",
		"--comparison-only",
		"--skip-general-information",
	}
}

// ExitMessage is the line appended to the output once Kenning exits
func ExitMessage(code int) string {
	return fmt.Sprintf("\nKenning process exited with code %d", code)
}

// Runner spawns Kenning inside a workspace
type Runner struct {
	Binary    string
	Workspace string
	Env       config.Env

	log logr.Logger
}

// New creates a runner. A nil env inherits the process environment.
func New(binary, workspace string, env config.Env) *Runner {
	return &Runner{
		Binary:    binary,
		Workspace: workspace,
		Env:       env,
		log:       util.ComponentLogger("runner"),
	}
}

func (r *Runner) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.Workspace
	if r.Env != nil {
		cmd.Env = r.Env.Environ()
	}
	return cmd
}

// ListPlatforms runs platform discovery and returns its raw JSON output.
// The call blocks until Kenning exits.
func (r *Runner) ListPlatforms(ctx context.Context) ([]byte, error) {
	args := []string{"available-platforms", "--json"}
	r.log.V(1).Info("Executing command", "binary", r.Binary, "args", args, "workDir", r.Workspace)

	cmd := r.command(ctx, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("failed to list platforms: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	r.log.V(1).Info("Command completed", "duration", time.Since(start))

	return stdout.Bytes(), nil
}

// Process is a running Kenning invocation
type Process struct {
	cmd  *exec.Cmd
	out  *ANSIWriter
	done chan struct{}

	started  time.Time
	duration time.Duration
	exitCode int
	err      error
}

// Launch starts Kenning with args and streams stdout and stderr, stripped of
// ANSI escape sequences, into out. Cancelling ctx sends SIGTERM. Files the
// process already wrote are left in place.
func (r *Runner) Launch(ctx context.Context, args []string, out io.Writer) (*Process, error) {
	r.log.Info("Executing command", "binary", r.Binary, "args", args, "workDir", r.Workspace)

	cmd := r.command(ctx, args)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = waitDelay

	w := StripANSI(out)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.Binary, err)
	}

	p := &Process{
		cmd:     cmd,
		out:     w,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	go p.wait(r.log)

	return p, nil
}

func (p *Process) wait(log logr.Logger) {
	defer close(p.done)

	err := p.cmd.Wait()
	p.duration = time.Since(p.started)
	if ferr := p.out.Flush(); ferr != nil {
		log.Error(ferr, "Failed to forward output")
	}

	if state := p.cmd.ProcessState; state != nil {
		p.exitCode = state.ExitCode()
	} else {
		p.exitCode = -1
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.err = err
	}

	log.Info("Command completed", "exitCode", p.exitCode, "duration", p.duration)
}

// Done is closed once the process exited and its output was drained
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits. The exit code is -1 when the process
// was terminated by a signal. err is set only for failures other than a
// non-zero exit.
func (p *Process) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.err
}

// Duration is the wall time of the process, valid after Done
func (p *Process) Duration() time.Duration {
	<-p.done
	return p.duration
}
