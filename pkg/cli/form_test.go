package cli

import (
	"testing"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/spf13/cobra"
)

func TestFormFromFlags(t *testing.T) {
	store := state.NewMemory()
	if err := store.Update(state.DatasetPath, "stored.csv"); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(state.TimeLimit, "5"); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{Use: "test"}
	addFormFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--platform", "max78002evkit/max78002/m4", "--app-size", "", "--simulate"}); err != nil {
		t.Fatal(err)
	}

	form := formFromFlags(cmd, store)
	if form.DatasetPath != "stored.csv" || form.TimeLimit != "5" {
		t.Errorf("stored values not used: %+v", form)
	}
	if form.Platform != "max78002evkit/max78002/m4" || !form.Simulate {
		t.Errorf("flags not applied: %+v", form)
	}
	if form.Optimizer != state.DefaultOptimizer {
		t.Errorf("Optimizer = %q, want default", form.Optimizer)
	}
	if form.AppSize == nil || *form.AppSize != "" {
		t.Errorf("AppSize = %v, want empty", form.AppSize)
	}
	if state.Get(store, state.Platform, "") != "" {
		t.Error("formFromFlags stored a value")
	}
}

func TestMatchesFilters(t *testing.T) {
	csv := []controller.FileFilter{{Name: "Dataset CSV", Extensions: []string{"csv"}}}
	tests := []struct {
		path    string
		filters []controller.FileFilter
		want    bool
	}{
		{"data/cats.csv", csv, true},
		{"data/CATS.CSV", csv, true},
		{"data/cats.tsv", csv, false},
		{"anything", nil, true},
	}
	for _, tt := range tests {
		if got := matchesFilters(tt.path, tt.filters); got != tt.want {
			t.Errorf("matchesFilters(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
