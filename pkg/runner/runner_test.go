package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/analogdevicesinc/automl-embedded/pkg/config"
	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
)

// fakeKenning writes an executable shell script standing in for Kenning
func fakeKenning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kenning")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// syncBuffer is a bytes.Buffer safe for the reader in the test and the
// writer goroutine in exec
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunDirName(t *testing.T) {
	now := time.Date(2025, time.March, 4, 5, 6, 7, 0, time.Local)
	name := RunDirName(now)
	if name != "run_2025_03_04_05_06_07" {
		t.Errorf("RunDirName() = %q", name)
	}

	parsed, ok := ParseRunDirName(name)
	if !ok || !parsed.Equal(now) {
		t.Errorf("ParseRunDirName(%q) = %v, %v", name, parsed, ok)
	}

	suffixed, ok := ParseRunDirName(name + "_12")
	if !ok || !suffixed.Equal(now) {
		t.Errorf("ParseRunDirName(%q) = %v, %v", name+"_12", suffixed, ok)
	}

	for _, bad := range []string{
		"run_", "report", "run_2025_13_01_00_00_00", "xrun_2025_03_04_05_06_07",
		"run_2025_03_04_05_06_07_", "run_2025_03_04_05_06_07_0", "run_2025_03_04_05_06_07x1", "run_2025_03_04_05_06_07_a", "run_2025_03_04_05_06_07_+1",
	} {
		if _, ok := ParseRunDirName(bad); ok {
			t.Errorf("ParseRunDirName(%q) should fail", bad)
		}
	}
}

func TestRunDirPaths(t *testing.T) {
	dir := NewRunDir("/ws", time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local))
	if dir.Rel != filepath.Join(".kenning", "run_2025_01_02_03_04_05") {
		t.Errorf("Rel = %q", dir.Rel)
	}
	if dir.Abs() != filepath.Join("/ws", ".kenning", "run_2025_01_02_03_04_05") {
		t.Errorf("Abs() = %q", dir.Abs())
	}
	if dir.ScenarioPath() != filepath.Join(dir.Rel, "scenario.json") {
		t.Errorf("ScenarioPath() = %q", dir.ScenarioPath())
	}
	if dir.ReportPath() != filepath.Join(dir.Rel, "report", "report.md") {
		t.Errorf("ReportPath() = %q", dir.ReportPath())
	}
}

func TestPrepareRunDir(t *testing.T) {
	dir := NewRunDir(t.TempDir(), time.Now())
	s := scenario.DefaultBaseScenario()

	if err := PrepareRunDir(dir, s); err != nil {
		t.Fatalf("PrepareRunDir() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir.Workspace, dir.ScenarioPath()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n    \"") {
		t.Errorf("scenario should be indented with four spaces:\n%s", data)
	}
	loaded, err := scenario.Parse(data)
	if err != nil {
		t.Fatalf("written scenario does not parse: %v", err)
	}
	if loaded.Platform.Type != s.Platform.Type {
		t.Errorf("platform type = %q, want %q", loaded.Platform.Type, s.Platform.Type)
	}
}

func TestPrepareRunDirNeverReuses(t *testing.T) {
	dir := NewRunDir(t.TempDir(), time.Date(2025, time.March, 24, 15, 53, 46, 0, time.Local))
	first := scenario.DefaultBaseScenario()
	if err := PrepareRunDir(dir, first); err != nil {
		t.Fatalf("PrepareRunDir() error = %v", err)
	}
	path := filepath.Join(dir.Workspace, dir.ScenarioPath())
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	second := scenario.DefaultBaseScenario()
	second.Platform.Type = "BareMetalPlatform"
	err = PrepareRunDir(dir, second)
	if !errors.Is(err, ErrRunDirExists) {
		t.Fatalf("PrepareRunDir() on an existing dir error = %v, want ErrRunDirExists", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("existing scenario.json was overwritten")
	}

	next := dir.Next(1)
	if next.Rel != dir.Rel+"_1" || dir.Next(0) != dir {
		t.Errorf("Next() = %q, %q", next.Rel, dir.Next(0).Rel)
	}
	if err := PrepareRunDir(next, second); err != nil {
		t.Fatalf("PrepareRunDir(%q) error = %v", next.Rel, err)
	}
}

func TestBuildArgs(t *testing.T) {
	dir := RunDir{Workspace: "/ws", Rel: ".kenning/run_x"}
	got := strings.Join(BuildArgs(dir), " ")
	want := "automl optimize test report --report-path .kenning/run_x/report/report.md --cfg .kenning/run_x/scenario.json --verbosity INFO --to-html --save-summary --allow-failures --comparison-only --skip-general-information"
	if got != want {
		t.Errorf("BuildArgs() =\n%s\nwant\n%s", got, want)
	}
}

func TestExitMessage(t *testing.T) {
	if got := ExitMessage(3); got != "\nKenning process exited with code 3" {
		t.Errorf("ExitMessage() = %q", got)
	}
}

func TestStripANSI(t *testing.T) {
	var buf bytes.Buffer
	w := StripANSI(&buf)
	in := "\x1b[32mINFO\x1b[0m training \x1b[1;31mdone\x1b[0m\n"
	n, err := w.Write([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if n != len(in) {
		t.Errorf("Write() = %d, want %d", n, len(in))
	}
	if buf.String() != "INFO training done\n" {
		t.Errorf("stripped = %q", buf.String())
	}
}

func TestStripANSISplitSequence(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		before string
		want   string
	}{
		{
			name:   "sequence split across writes",
			writes: []string{"\x1b[3", "2mINFO\x1b", "[0m epoch 1\n"},
			before: "INFO epoch 1\n",
			want:   "INFO epoch 1\n",
		},
		{
			name:   "unterminated last line",
			writes: []string{"done\n\x1b[1mexit", "ing\x1b[0m"},
			before: "done\n",
			want:   "done\nexiting",
		},
		{
			name:   "carriage return progress",
			writes: []string{"\x1b[2K 10%\r", "\x1b[2K 20%\r"},
			before: " 10%\r 20%\r",
			want:   " 10%\r 20%\r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := StripANSI(&buf)
			for _, chunk := range tt.writes {
				if n, err := w.Write([]byte(chunk)); err != nil || n != len(chunk) {
					t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
				}
			}
			if buf.String() != tt.before {
				t.Errorf("before Flush() = %q, want %q", buf.String(), tt.before)
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("after Flush() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestListPlatforms(t *testing.T) {
	bin := fakeKenning(t, `if [ "$1" = "available-platforms" ] && [ "$2" = "--json" ]; then
  echo '{"max32690evkit/max32690/m4": {"display_name": "MAX32690", "default_platform": "ZephyrPlatform"}}'
  exit 0
fi
exit 2`)

	r := New(bin, t.TempDir(), nil)
	out, err := r.ListPlatforms(context.Background())
	if err != nil {
		t.Fatalf("ListPlatforms() error = %v", err)
	}
	if !strings.Contains(string(out), "max32690evkit/max32690/m4") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestListPlatformsFailure(t *testing.T) {
	bin := fakeKenning(t, `echo "kenning: no such command" >&2; exit 1`)

	r := New(bin, t.TempDir(), nil)
	_, err := r.ListPlatforms(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no such command") {
		t.Errorf("error should carry stderr: %v", err)
	}
}

func TestLaunchStreamsOutput(t *testing.T) {
	bin := fakeKenning(t, `printf '\033[33mWARN\033[0m %s\n' "$PWD"
echo "error line" >&2
echo "$AUTOML_TEST_VAR"
printf '\033[1mlast\033[0m'
exit 3`)

	workspace := t.TempDir()
	r := New(bin, workspace, config.Env{"AUTOML_TEST_VAR": "from-env", "PATH": os.Getenv("PATH")})

	out := &syncBuffer{}
	p, err := r.Launch(context.Background(), nil, out)
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}

	got := out.String()
	for _, want := range []string{"WARN " + workspace, "error line", "from-env", "from-env\nlast"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b") {
		t.Errorf("output still contains escape sequences: %q", got)
	}
}

func TestLaunchCancel(t *testing.T) {
	bin := fakeKenning(t, `echo started
exec sleep 30`)

	dir := NewRunDir(t.TempDir(), time.Now())
	if err := PrepareRunDir(dir, scenario.DefaultBaseScenario()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := New(bin, dir.Workspace, nil)
	out := &syncBuffer{}
	p, err := r.Launch(ctx, BuildArgs(dir), out)
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}

	cancel()

	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process did not stop after cancellation")
	}

	code, _ := p.Wait()
	if code == 0 {
		t.Errorf("cancelled process should not report success")
	}
	if _, err := os.Stat(filepath.Join(dir.Workspace, dir.ScenarioPath())); err != nil {
		t.Errorf("scenario should be left in place after cancellation: %v", err)
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing"), t.TempDir(), nil)
	if _, err := r.Launch(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Error("expected start failure")
	}
}
