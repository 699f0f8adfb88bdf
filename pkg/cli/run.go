package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// OutputLogFile collects Kenning output of quiet runs inside .kenning
const OutputLogFile = "kenning-output.log"

var (
	runQuiet bool
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run Kenning AutoML with the workspace configuration",
		Long: `Validate the configuration, write the populated scenario into a new
.kenning/run_<timestamp> directory and run Kenning AutoML on it.

Form values given as flags are stored for the following runs; the others are
taken from the workspace state. Interrupting the command stops Kenning and
leaves the run directory in place (see 'clean').`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.GetLogger()

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			out := io.Writer(os.Stdout)
			if runQuiet {
				f, err := openOutputLog(ws.root)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			ctrl, err := ws.newController(consoleView{log: log}, consoleDialogs{}, out, false)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := applyFormFlags(ctx, cmd, ctrl); err != nil {
				return err
			}

			run, err := ctrl.RunAutoML(ctx, storedForm(ws.store))
			if err != nil {
				return err
			}
			fmt.Printf("Run directory: %s\n", run.Dir.Rel)

			var bar *progressbar.ProgressBar
			if runQuiet {
				bar = newSpinner("Running Kenning scenario")
			}
			cancelled := waitRun(ctx, run, bar)

			report := filepath.Join(ws.root, run.Dir.ReportPath())
			switch {
			case cancelled:
				color.Yellow("⊘ Run cancelled, %s was left in place", run.Dir.Rel)
			case fileExists(report):
				green := color.New(color.FgGreen, color.Bold)
				green.Printf("✓ Report generated")
				fmt.Printf(" - %s\n", run.Dir.ReportPath())
			default:
				color.Red("✗ Kenning exited with code %d and no report was generated", run.ExitCode())
			}
			return nil
		},
	}

	addFormFlags(runCmd)
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Write Kenning output to .kenning/"+OutputLogFile+" and show a spinner")

	return runCmd
}

func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// waitRun blocks until the run finishes. Cancelling ctx stops Kenning; the
// return value reports whether that happened.
func waitRun(ctx context.Context, run *controller.Run, bar *progressbar.ProgressBar) bool {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	cancelled := false
	interrupt := ctx.Done()
	for {
		select {
		case <-run.Done():
			if bar != nil {
				_ = bar.Finish()
			}
			return cancelled
		case <-interrupt:
			interrupt = nil
			cancelled = true
			if bar != nil {
				bar.Describe("Cancelling Kenning scenario")
			}
			run.Cancel()
		case <-ticker.C:
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}
}

func openOutputLog(root string) (*os.File, error) {
	dir := filepath.Join(root, config.KenningDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, OutputLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output log: %w", err)
	}
	return f, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
