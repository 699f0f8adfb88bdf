package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPlanClean(t *testing.T) {
	names := []string{
		"run_2025_03_24_15_53_46",
		"run_2025_03_20_10_00_00",
		"settings",
		"run_2025_12_01_08_00_00",
		"run_latest",
	}

	tests := []struct {
		name       string
		names      []string
		all        bool
		wantDelete []string
		wantKeep   []string
	}{
		{
			name:       "keep latest",
			names:      names,
			wantDelete: []string{"run_2025_03_20_10_00_00", "run_2025_03_24_15_53_46"},
			wantKeep:   []string{"run_2025_12_01_08_00_00"},
		},
		{
			name:       "all",
			names:      names,
			all:        true,
			wantDelete: []string{"run_2025_03_20_10_00_00", "run_2025_03_24_15_53_46", "run_2025_12_01_08_00_00"},
		},
		{
			name:     "single run",
			names:    []string{"run_2025_03_24_15_53_46"},
			wantKeep: []string{"run_2025_03_24_15_53_46"},
		},
		{
			name:       "same second",
			names:      []string{"run_2025_03_24_15_53_46_10", "run_2025_03_24_15_53_46", "run_2025_03_24_15_53_46_2", "run_2025_03_24_15_53_46_1"},
			wantDelete: []string{"run_2025_03_24_15_53_46", "run_2025_03_24_15_53_46_1", "run_2025_03_24_15_53_46_2"},
			wantKeep:   []string{"run_2025_03_24_15_53_46_10"},
		},
		{
			name:  "no runs",
			names: []string{"settings", "run_"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDelete, gotKeep := planClean(tt.names, tt.all)
			if !reflect.DeepEqual(gotDelete, tt.wantDelete) {
				t.Errorf("toDelete = %v, want %v", gotDelete, tt.wantDelete)
			}
			if !reflect.DeepEqual(gotKeep, tt.wantKeep) {
				t.Errorf("toKeep = %v, want %v", gotKeep, tt.wantKeep)
			}
		})
	}
}

func TestCleanRuns(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"run_2025_03_20_10_00_00", "run_2025_03_24_15_53_46"} {
		if err := os.MkdirAll(filepath.Join(base, name, "report"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	cleanDryRun = true
	if err := cleanRuns(base, []string{"run_2025_03_20_10_00_00"}, []string{"run_2025_03_24_15_53_46"}); err != nil {
		t.Fatalf("dry run error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "run_2025_03_20_10_00_00")); err != nil {
		t.Errorf("dry run deleted the run: %v", err)
	}

	cleanDryRun = false
	if err := cleanRuns(base, []string{"run_2025_03_20_10_00_00"}, []string{"run_2025_03_24_15_53_46"}); err != nil {
		t.Fatalf("cleanRuns() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "run_2025_03_20_10_00_00")); !os.IsNotExist(err) {
		t.Errorf("old run still exists: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "run_2025_03_24_15_53_46")); err != nil {
		t.Errorf("latest run removed: %v", err)
	}
}
