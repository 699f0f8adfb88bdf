package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command with subcommands
func NewConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kenning-automl settings",
		Long:  `Show and edit the settings used to run Kenning in this workspace.`,
	}

	// Add subcommands
	configCmd.AddCommand(NewConfigShowCmd())
	configCmd.AddCommand(NewConfigEditCmd())

	return configCmd
}

// NewConfigShowCmd creates the config show command
func NewConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			format := OutputFormat(outputFormat)
			if format == OutputFormatText {
				format = OutputFormatYAML
			}
			text, err := FormatResults(ws.settings, format)
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n%s", ws.settingsPath, text)
			return nil
		},
	}
	cmd.Flags().StringVar(&outputFormat, "output", "yaml", "Output format (json, yaml)")
	return cmd
}

// NewConfigEditCmd creates the config edit command
func NewConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Interactively edit the settings",
		Long: `Prompt for every setting, showing the current value as the default.
Press Enter to keep a value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.GetLogger()

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			settings := *ws.settings

			if err := editSettings(&settings); err != nil {
				return fmt.Errorf("failed to edit settings: %w", err)
			}
			if err := config.Validate(&settings); err != nil {
				return err
			}
			if err := config.SaveSettings(ws.settingsPath, &settings); err != nil {
				return err
			}

			log.Info("Settings saved", "file", ws.settingsPath)
			fmt.Printf("\n✓ Settings saved to %s\n", ws.settingsPath)
			return nil
		},
	}
}

func editSettings(s *config.Settings) error {
	fields := []struct {
		label string
		value *string
	}{
		{"Kenning binary", &s.KenningBinary},
		{"Kenning Zephyr Runtime path", &s.KenningZephyrRuntimePath},
		{"Zephyr SDK path (optional, press Enter to use ZEPHYR_SDK_PATH)", &s.ZephyrSDKPath},
		{"AI8X training repository path (optional)", &s.Ai8xTrainingPath},
		{"AI8X synthesis repository path (optional)", &s.Ai8xSynthesisPath},
		{"Renode package or binary path (optional)", &s.PyrenodePath},
		{"OpenOCD path (optional)", &s.OpenOCDPath},
		{"UART port (optional)", &s.UARTPort},
		{"Base scenario path (optional, press Enter for the built-in one)", &s.KenningScenarioPath},
	}

	for _, f := range fields {
		value, err := promptString(f.label, *f.value)
		if err != nil {
			return err
		}
		*f.value = value
	}

	prompt := promptui.Prompt{
		Label:     "Number of output models",
		Default:   strconv.Itoa(s.NumberOfOutputModels),
		AllowEdit: true,
		Validate: func(input string) error {
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 {
				return errors.New("must be a positive integer")
			}
			return nil
		},
	}
	models, err := prompt.Run()
	if err != nil {
		return err
	}
	s.NumberOfOutputModels, _ = strconv.Atoi(models)

	cudaPrompt := promptui.Select{
		Label: "Use CUDA",
		Items: []string{"no", "yes"},
	}
	if s.UseCUDA {
		cudaPrompt.CursorPos = 1
	}
	_, cuda, err := cudaPrompt.Run()
	if err != nil {
		return err
	}
	s.UseCUDA = cuda == "yes"

	return nil
}

// promptString asks for a value, keeping current when the user presses Enter
func promptString(label, current string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return value, nil
}
