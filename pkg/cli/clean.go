package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/runner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cleanAll    bool
	cleanDryRun bool
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean up old run directories",
		Long: `Clean up the run_<timestamp> directories in .kenning, keeping only the
latest run. Cancelled runs leave their directory behind; this removes them.

Use --all to remove every run directory. Settings, the workspace state and
other files in .kenning are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(workspaceDir)
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
			baseDir := filepath.Join(root, config.KenningDir)

			// Check if directory exists
			if _, err := os.Stat(baseDir); os.IsNotExist(err) {
				fmt.Println("Nothing to clean - .kenning directory doesn't exist")
				return nil
			}

			entries, err := os.ReadDir(baseDir)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", baseDir, err)
			}
			var runs []string
			for _, entry := range entries {
				if entry.IsDir() {
					runs = append(runs, entry.Name())
				}
			}

			toDelete, toKeep := planClean(runs, cleanAll)
			return cleanRuns(baseDir, toDelete, toKeep)
		},
	}

	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all run directories (not just old ones)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be deleted without actually deleting")

	return cleanCmd
}

// planClean splits directory names into runs to delete and runs to keep.
// Names that are not run directories are ignored.
func planClean(names []string, all bool) (toDelete, toKeep []string) {
	type run struct {
		name    string
		started int64
	}
	var runs []run
	for _, name := range names {
		t, ok := runner.ParseRunDirName(name)
		if !ok {
			continue
		}
		runs = append(runs, run{name: name, started: t.Unix()})
	}
	if len(runs) == 0 {
		return nil, nil
	}

	// Runs started within the same second differ by their numeric suffix
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].started != runs[j].started {
			return runs[i].started < runs[j].started
		}
		if len(runs[i].name) != len(runs[j].name) {
			return len(runs[i].name) < len(runs[j].name)
		}
		return runs[i].name < runs[j].name
	})

	for _, r := range runs {
		toDelete = append(toDelete, r.name)
	}
	if all {
		return toDelete, nil
	}

	// Keep the last one (most recent), delete the rest
	return toDelete[:len(toDelete)-1], toDelete[len(toDelete)-1:]
}

func cleanRuns(baseDir string, toDelete, toKeep []string) error {
	if len(toDelete) == 0 {
		if len(toKeep) == 0 {
			fmt.Println("Nothing to clean - no run directories found")
		} else {
			fmt.Println("Nothing to clean - only the latest run exists")
		}
		return nil
	}

	// Show what will be deleted
	fmt.Printf("Found %d run(s) to clean up:\n", len(toDelete))
	for _, dir := range toDelete {
		fmt.Printf("  - %s\n", dir)
	}
	if len(toKeep) > 0 {
		fmt.Printf("\nKeeping latest run:\n")
		for _, dir := range toKeep {
			fmt.Printf("  + %s\n", dir)
		}
	}

	if cleanDryRun {
		color.Cyan("\nDry run mode - no files were deleted")
		return nil
	}

	deletedCount := 0
	for _, dir := range toDelete {
		if err := os.RemoveAll(filepath.Join(baseDir, dir)); err != nil {
			color.Red("✗ Failed to delete %s: %v", dir, err)
			continue
		}
		deletedCount++
	}

	color.Green("\n✓ Cleaned up %d run(s)", deletedCount)
	return nil
}
