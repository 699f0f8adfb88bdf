package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// maxLine bounds a single inbound message
const maxLine = 1024 * 1024

// NewViewCmd creates the view command
func NewViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Drive the configuration view over stdin/stdout",
		Long: `Read view messages as JSON lines from stdin and write controller
messages as JSON lines to stdout. Besides the view protocol, stdout carries
"output", "notification" and "error" events. Logs go to stderr.

The bridge exits when stdin is closed; an active run is stopped then.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := util.ComponentLogger("view")

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			out := &lineWriter{w: os.Stdout}
			ctrl, err := ws.newController(stdioView{out: out}, stdioDialogs{out: out}, stdioOutput{out: out}, true)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl.Attach(ctx)
			stopSettings := ws.watchSettings(ctx, ctrl)
			defer stopSettings()
			log.Info("View bridge ready", "workspace", ws.root)
			return serveLines(ctx, ctrl, os.Stdin, out, log)
		},
	}
}

// bridgeEvent is a stdout line outside of the view protocol
type bridgeEvent struct {
	Type    string `json:"type"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
	Request string `json:"request,omitempty"`
}

// lineWriter serializes JSON lines written from several goroutines
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

func (l *lineWriter) event(e bridgeEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = l.writeLine(data)
}

type stdioView struct {
	out *lineWriter
}

func (v stdioView) Post(msg controller.Outbound) {
	data, err := controller.Encode(msg)
	if err != nil {
		util.ComponentLogger("view").Error(err, "Dropping view message", "type", msg.Type())
		return
	}
	_ = v.out.writeLine(data)
}

func (stdioView) Visible() bool {
	return true
}

// stdioDialogs forwards notifications. File dialogs cannot be shown through
// the bridge; the view sends updateField with the chosen path instead.
type stdioDialogs struct {
	out *lineWriter
}

func (d stdioDialogs) ShowInfo(msg string) {
	d.out.event(bridgeEvent{Type: "notification", Level: "info", Message: msg})
}

func (d stdioDialogs) ShowError(msg string) {
	d.out.event(bridgeEvent{Type: "notification", Level: "error", Message: msg})
}

func (stdioDialogs) OpenFile(context.Context, controller.OpenOptions) (string, bool) {
	return "", false
}

func (stdioDialogs) SaveFile(context.Context, controller.SaveOptions) (string, bool) {
	return "", false
}

// stdioOutput wraps the output channel into events
type stdioOutput struct {
	out *lineWriter
}

func (o stdioOutput) Write(p []byte) (int, error) {
	o.out.event(bridgeEvent{Type: "output", Text: string(p)})
	return len(p), nil
}

// serveLines handles inbound messages until r is exhausted or ctx is done.
// A message that cannot be decoded or handled is answered with an error
// event; the bridge keeps going.
func serveLines(ctx context.Context, ctrl *controller.Controller, r io.Reader, out *lineWriter, log logr.Logger) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLine)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			msg, err := controller.DecodeInbound(line)
			if err != nil {
				log.Error(err, "Invalid view message")
				out.event(bridgeEvent{Type: "error", Message: err.Error()})
				continue
			}
			log.V(1).Info("View message", "type", msg.Type())
			if err := ctrl.Handle(ctx, msg); err != nil {
				out.event(bridgeEvent{Type: "error", Message: err.Error(), Request: string(msg.Type())})
			}
		}
	}
}
