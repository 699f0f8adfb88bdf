package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/manifoldco/promptui"
)

// consoleView stands in for the configuration form in the terminal. There
// is no form to update, so messages are only logged.
type consoleView struct {
	log logr.Logger
}

func (v consoleView) Post(msg controller.Outbound) {
	v.log.V(1).Info("View message", "type", msg.Type())
}

func (consoleView) Visible() bool {
	return false
}

// consoleDialogs shows dialogs as colored lines and file dialogs as prompts
type consoleDialogs struct{}

func (consoleDialogs) ShowInfo(msg string) {
	color.Cyan("%s", msg)
}

func (consoleDialogs) ShowError(msg string) {
	color.Red("✗ %s", msg)
}

func (consoleDialogs) OpenFile(ctx context.Context, opts controller.OpenOptions) (string, bool) {
	prompt := promptui.Prompt{
		Label: opts.Label,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("path is required")
			}
			if !matchesFilters(input, opts.Filters) {
				return fmt.Errorf("unsupported file type %s", filepath.Ext(input))
			}
			if _, err := os.Stat(input); err != nil {
				return err
			}
			return nil
		},
	}
	path, err := prompt.Run()
	if err != nil {
		return "", false
	}
	return path, true
}

func (consoleDialogs) SaveFile(ctx context.Context, opts controller.SaveOptions) (string, bool) {
	prompt := promptui.Prompt{
		Label: opts.Title,
	}
	path, err := prompt.Run()
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

func matchesFilters(path string, filters []controller.FileFilter) bool {
	if len(filters) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range filters {
		for _, e := range f.Extensions {
			if e == ext {
				return true
			}
		}
	}
	return false
}
