package cli

import (
	"fmt"
	"os"

	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	logJSON      bool
	workspaceDir string
	settingsFile string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kenning-automl",
		Short: "Configure and run Kenning AutoML scenarios",
		Long: `kenning-automl - prepares Kenning AutoML scenarios for embedded
platforms, runs them and manages the resulting reports and models.

Settings are read from <workspace>/.kenning/settings.yaml, toolchain variables
from a .env file next to it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLoggerTo(os.Stderr, util.LogOptions{Verbose: verbose, JSON: logJSON})
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", ".", "Workspace directory")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Settings file (default: <workspace>/.kenning/settings.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewPopulateCmd())
	rootCmd.AddCommand(NewPlatformsCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewReportsCmd())
	rootCmd.AddCommand(NewCleanCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewViewCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
