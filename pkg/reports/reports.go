package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
)

const (
	ReportName  = "report"
	ReportMD    = ReportName + ".md"
	ReportHTML  = ReportName + ".html"
	SummaryFile = ReportName + ".summary.json"

	// ClassificationMetric is the only metric type listed for models
	ClassificationMetric = "classification"
)

// Report is a Kenning report found in the workspace
type Report struct {
	// Name is the run directory name
	Name string `json:"name" yaml:"name"`
	// Dir is the report directory holding report.md
	Dir        string `json:"dir" yaml:"dir"`
	HasSummary bool   `json:"hasSummary" yaml:"hasSummary"`
	HasHTML    bool   `json:"hasHTML" yaml:"hasHTML"`
}

// Metric is one measurement of a model. Values are numbers for
// classification metrics but may be lists for others.
type Metric struct {
	Type  string `json:"type" yaml:"type"`
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// ModelSummary describes one model compared in a report
type ModelSummary struct {
	ModelName    string   `json:"modelName" yaml:"modelName"`
	ScenarioPath *string  `json:"scenarioPath" yaml:"scenarioPath"`
	Metrics      []Metric `json:"metrics" yaml:"metrics"`
}

// ClassificationMetrics drops performance and simulator statistics
func (m ModelSummary) ClassificationMetrics() []Metric {
	out := []Metric{}
	for _, metric := range m.Metrics {
		if metric.Type == ClassificationMetric {
			out = append(out, metric)
		}
	}
	return out
}

// HTMLPath is where Kenning renders the HTML version of the report
func (r Report) HTMLPath() string {
	return filepath.Join(r.Dir, ReportName, ReportHTML)
}

// SummaryPath is the location of report.summary.json
func (r Report) SummaryPath() string {
	return filepath.Join(r.Dir, SummaryFile)
}

// Find lists the reports of every run in the workspace, ordered by run name
func Find(workspace string) ([]Report, error) {
	pattern := filepath.Join(workspace, config.KenningDir, "*", ReportName, ReportMD)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search reports: %w", err)
	}
	sort.Strings(matches)

	reports := make([]Report, 0, len(matches))
	for _, md := range matches {
		dir := filepath.Dir(md)
		r := Report{
			Name: filepath.Base(filepath.Dir(dir)),
			Dir:  dir,
		}
		r.HasSummary = fileExists(r.SummaryPath())
		r.HasHTML = fileExists(r.HTMLPath())
		reports = append(reports, r)
	}
	return reports, nil
}

// LoadSummary reads the models compared in a report
func LoadSummary(r Report) ([]ModelSummary, error) {
	data, err := os.ReadFile(r.SummaryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read report summary: %w", err)
	}
	var models []ModelSummary
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to parse report summary %s: %w", r.SummaryPath(), err)
	}
	return models, nil
}

// Index keeps the list of workspace reports current. It is refreshed after
// every run.
type Index struct {
	workspace string

	mu      sync.RWMutex
	reports []Report
}

// NewIndex creates an index for workspace and loads it
func NewIndex(workspace string) *Index {
	idx := &Index{workspace: workspace}
	idx.RefreshReports()
	return idx
}

// RefreshReports rescans the workspace
func (idx *Index) RefreshReports() {
	found, err := Find(idx.workspace)
	if err != nil {
		util.ComponentLogger("reports").Error(err, "Failed to refresh reports")
		return
	}
	idx.mu.Lock()
	idx.reports = found
	idx.mu.Unlock()
}

// Reports returns the reports found by the last refresh
func (idx *Index) Reports() []Report {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]Report{}, idx.reports...)
}

// Lookup finds a report by run name
func (idx *Index) Lookup(name string) (Report, bool) {
	for _, r := range idx.Reports() {
		if r.Name == name {
			return r, true
		}
	}
	return Report{}, false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist) && err == nil
}
