package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
)

const (
	// RunDirPrefix starts every run directory name
	RunDirPrefix = "run_"

	runDirLayout = "2006_01_02_15_04_05"

	ReportDir  = "report"
	ReportFile = "report.md"
)

// RunDirName names the run directory for a run started at t
func RunDirName(t time.Time) string {
	return RunDirPrefix + t.Format(runDirLayout)
}

// ParseRunDirName extracts the start time from a run directory name. Names
// of runs started within the same second carry a numeric suffix, as in
// run_2025_03_04_05_06_07_1.
func ParseRunDirName(name string) (time.Time, bool) {
	if len(name) <= len(RunDirPrefix) || name[:len(RunDirPrefix)] != RunDirPrefix {
		return time.Time{}, false
	}
	stamp := name[len(RunDirPrefix):]
	if len(stamp) > len(runDirLayout) {
		seq := stamp[len(runDirLayout):]
		if len(seq) < 2 || seq[0] != '_' {
			return time.Time{}, false
		}
		if n, err := strconv.ParseUint(seq[1:], 10, 32); err != nil || n < 1 {
			return time.Time{}, false
		}
		stamp = stamp[:len(runDirLayout)]
	}
	t, err := time.ParseInLocation(runDirLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RunDir describes the files of one run. Rel paths are relative to the
// workspace, which is the working directory of the Kenning process.
type RunDir struct {
	Workspace string
	Rel       string
}

// Abs returns the absolute run directory
func (d RunDir) Abs() string {
	return filepath.Join(d.Workspace, d.Rel)
}

// ScenarioPath is the workspace relative path of scenario.json
func (d RunDir) ScenarioPath() string {
	return filepath.Join(d.Rel, scenario.ScenarioFileName)
}

// ReportPath is the workspace relative path of the Markdown report
func (d RunDir) ReportPath() string {
	return filepath.Join(d.Rel, ReportDir, ReportFile)
}

// NewRunDir reserves the run directory name for a run started at now,
// without touching the filesystem.
func NewRunDir(workspace string, now time.Time) RunDir {
	return RunDir{
		Workspace: workspace,
		Rel:       filepath.Join(config.KenningDir, RunDirName(now)),
	}
}

// Next returns the run directory reserved for the n-th retry of a run
// started within the same second as d
func (d RunDir) Next(n int) RunDir {
	base := d.Rel
	if n > 0 {
		base = fmt.Sprintf("%s_%d", d.Rel, n)
	}
	return RunDir{Workspace: d.Workspace, Rel: base}
}

// ErrRunDirExists is returned by PrepareRunDir when the run directory was
// already created by an earlier run
var ErrRunDirExists = errors.New("run directory already exists")

// PrepareRunDir creates the run directory and writes the scenario into it.
// An existing run directory is never reused.
func PrepareRunDir(dir RunDir, s *scenario.Scenario) error {
	if err := os.MkdirAll(filepath.Dir(dir.Abs()), 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := os.Mkdir(dir.Abs(), 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrRunDirExists, dir.Rel)
		}
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := scenario.MarshalIndent(s)
	if err != nil {
		return err
	}
	path := filepath.Join(dir.Workspace, dir.ScenarioPath())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario %s: %w", path, err)
	}
	return nil
}
