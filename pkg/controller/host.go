package controller

import (
	"context"
	"io"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/runner"
)

// View is the UI side of the protocol
type View interface {
	Post(msg Outbound)
	// Visible reports whether the view is shown; restore is skipped otherwise
	Visible() bool
}

// FileFilter restricts an open dialog to some extensions
type FileFilter struct {
	Name       string
	Extensions []string
}

// OpenOptions configures a file open dialog
type OpenOptions struct {
	Label   string
	Filters []FileFilter
}

// SaveOptions configures a file save dialog
type SaveOptions struct {
	Title string
}

// Dialogs are the modal interactions a host offers
type Dialogs interface {
	ShowInfo(msg string)
	ShowError(msg string)
	// OpenFile returns false when the user cancelled
	OpenFile(ctx context.Context, opts OpenOptions) (string, bool)
	// SaveFile returns false when the user cancelled
	SaveFile(ctx context.Context, opts SaveOptions) (string, bool)
}

// ReportsRefresher is notified after every run
type ReportsRefresher interface {
	RefreshReports()
}

// Process is a launched Kenning run
type Process interface {
	Done() <-chan struct{}
	Wait() (int, error)
}

// LaunchRequest describes one Kenning invocation
type LaunchRequest struct {
	Binary    string
	Args      []string
	Workspace string
	Env       config.Env
}

// Launcher starts Kenning, streaming its output into out. Cancelling ctx
// terminates the process.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest, out io.Writer) (Process, error)
}

// RunnerLauncher launches Kenning as a local subprocess
var RunnerLauncher Launcher = runnerLauncher{}

type runnerLauncher struct{}

func (runnerLauncher) Launch(ctx context.Context, req LaunchRequest, out io.Writer) (Process, error) {
	p, err := runner.New(req.Binary, req.Workspace, req.Env).Launch(ctx, req.Args, out)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NopDialogs answers every dialog as cancelled and drops notifications
type NopDialogs struct{}

func (NopDialogs) ShowInfo(string)  {}
func (NopDialogs) ShowError(string) {}
func (NopDialogs) OpenFile(context.Context, OpenOptions) (string, bool) {
	return "", false
}
func (NopDialogs) SaveFile(context.Context, SaveOptions) (string, bool) {
	return "", false
}

type nopRefresher struct{}

func (nopRefresher) RefreshReports() {}
