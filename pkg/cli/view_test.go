package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/analogdevicesinc/automl-embedded/pkg/catalog"
	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/state"
	"github.com/go-logr/logr"
)

type staticDiscoverer struct{}

func (staticDiscoverer) ListPlatforms(ctx context.Context) ([]byte, error) {
	return []byte(`{"max32690evkit/max32690/m4": {
		"display_name": "MAX32690 Evaluation Kit",
		"default_platform": "ZephyrPlatform",
		"default_optimizer": ["TFLiteCompiler"]
	}}`), nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func newBridge(t *testing.T) (*controller.Controller, *lineWriter, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	out := &lineWriter{w: buf}
	ctrl, err := controller.New(controller.Context{
		Workspace: t.TempDir(),
		Env:       config.Env{},
		Catalog:   catalog.New(staticDiscoverer{}, logr.Discard()),
		Store:     state.NewMemory(),
		View:      stdioView{out: out},
		Dialogs:   stdioDialogs{out: out},
		Output:    stdioOutput{out: out},
	})
	if err != nil {
		t.Fatalf("controller.New() error = %v", err)
	}
	t.Cleanup(ctrl.Close)
	return ctrl, out, buf
}

func TestServeLines(t *testing.T) {
	ctrl, out, buf := newBridge(t)

	input := strings.Join([]string{
		`{"type": "updateField", "name": "timeLimit", "value": "3"}`,
		``,
		`not json`,
		`{"type": "getField", "elementName": "kenning-configuration-time-limit", "storageName": "timeLimit"}`,
		`{"type": "runAutoML", "datasetPath": "", "platform": "p", "optimizer": "o", "timeLimit": "3", "simulate": false}`,
	}, "\n")

	if err := serveLines(context.Background(), ctrl, strings.NewReader(input), out, logr.Discard()); err != nil {
		t.Fatalf("serveLines() error = %v", err)
	}

	var types []string
	for _, line := range buf.lines(t) {
		types = append(types, line["type"].(string))
	}
	want := []string{"error", "setField", "notification", "output", "output", "enableButton", "error"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("lines = %v, want %v", types, want)
	}

	lines := buf.lines(t)
	if lines[1]["value"] != "3" {
		t.Errorf("setField value = %v, want 3", lines[1]["value"])
	}
	if lines[2]["level"] != "error" || lines[2]["message"] != "Missing data in configuration (datasetPath)" {
		t.Errorf("notification = %v", lines[2])
	}
	if lines[3]["text"] != "Missing data in configuration:\n" || lines[4]["text"] != "- datasetPath\n" {
		t.Errorf("output events = %v, %v", lines[3], lines[4])
	}
	if lines[6]["request"] != "runAutoML" {
		t.Errorf("error event = %v", lines[6])
	}
}

func TestServeLinesStopsOnCancel(t *testing.T) {
	ctrl, out, _ := newBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never returns would block forever without cancellation
	r, w := io.Pipe()
	defer w.Close()
	if err := serveLines(ctx, ctrl, r, out, logr.Discard()); err != nil {
		t.Errorf("serveLines() error = %v", err)
	}
}

func TestStdioOutputWrapsText(t *testing.T) {
	buf := &syncBuffer{}
	o := stdioOutput{out: &lineWriter{w: buf}}
	if _, err := o.Write([]byte("Kenning process exited with code 0\n")); err != nil {
		t.Fatal(err)
	}
	lines := buf.lines(t)
	if len(lines) != 1 || lines[0]["type"] != "output" || lines[0]["text"] != "Kenning process exited with code 0\n" {
		t.Errorf("lines = %v", lines)
	}
}
