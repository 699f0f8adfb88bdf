package reports

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const summary = `[
  {"metrics": [
     {"type": "classification", "name": "Accuracy", "value": 0.96},
     {"type": "classification", "name": "F1 score", "value": 0.66},
     {"type": "performance", "name": "inferencetime_mean", "value": 0.00045},
     {"type": "renode_stats", "name": "top_10_opcodes_per_inference_pass", "value": []}
   ],
   "scenarioPath": ".kenning/run_2025_03_24_15_53_46/automl_conf_0.yml",
   "modelName": "automl_conf_0"},
  {"metrics": [], "scenarioPath": null, "modelName": "automl_conf_1"}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// newWorkspace creates two runs: one with a full report and one with only
// the Markdown report
func newWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	full := filepath.Join(ws, ".kenning", "run_2025_03_24_15_53_46", "report")
	writeFile(t, filepath.Join(full, ReportMD), "# report")
	writeFile(t, filepath.Join(full, SummaryFile), summary)
	writeFile(t, filepath.Join(full, ReportName, ReportHTML), `<link href="_static/style.css"/><script src="_static/js/bokeh.js"></script><a href="other.html">x</a>`)

	bare := filepath.Join(ws, ".kenning", "run_2025_03_20_10_00_00", "report")
	writeFile(t, filepath.Join(bare, ReportMD), "# report")

	// Not a run with a report
	writeFile(t, filepath.Join(ws, ".kenning", "run_2025_03_21_10_00_00", "scenario.json"), "{}")
	return ws
}

func TestFind(t *testing.T) {
	ws := newWorkspace(t)

	found, err := Find(ws)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Find() = %+v, want 2 reports", found)
	}
	if found[0].Name != "run_2025_03_20_10_00_00" || found[0].HasSummary || found[0].HasHTML {
		t.Errorf("bare report = %+v", found[0])
	}
	if found[1].Name != "run_2025_03_24_15_53_46" || !found[1].HasSummary || !found[1].HasHTML {
		t.Errorf("full report = %+v", found[1])
	}
}

func TestFindEmptyWorkspace(t *testing.T) {
	found, err := Find(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("Find() = %v, want none", found)
	}
}

func TestLoadSummary(t *testing.T) {
	ws := newWorkspace(t)
	found, _ := Find(ws)

	models, err := LoadSummary(found[1])
	if err != nil {
		t.Fatalf("LoadSummary() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %d, want 2", len(models))
	}
	if models[0].ModelName != "automl_conf_0" || models[0].ScenarioPath == nil {
		t.Errorf("first model = %+v", models[0])
	}
	if models[1].ScenarioPath != nil {
		t.Errorf("null scenario path should decode to nil")
	}

	metrics := models[0].ClassificationMetrics()
	if len(metrics) != 2 || metrics[0].Name != "Accuracy" || metrics[1].Name != "F1 score" {
		t.Errorf("ClassificationMetrics() = %+v", metrics)
	}
	if v, ok := metrics[0].Value.(float64); !ok || v != 0.96 {
		t.Errorf("accuracy value = %v", metrics[0].Value)
	}

	if _, err := LoadSummary(found[0]); err == nil {
		t.Error("report without summary should fail")
	}
}

func TestIndex(t *testing.T) {
	ws := newWorkspace(t)
	idx := NewIndex(ws)
	if len(idx.Reports()) != 2 {
		t.Fatalf("Reports() = %v", idx.Reports())
	}

	writeFile(t, filepath.Join(ws, ".kenning", "run_2025_04_01_00_00_00", "report", ReportMD), "# new")
	if len(idx.Reports()) != 2 {
		t.Error("index should not change before refresh")
	}
	idx.RefreshReports()
	if len(idx.Reports()) != 3 {
		t.Errorf("Reports() after refresh = %d, want 3", len(idx.Reports()))
	}
	if _, ok := idx.Lookup("run_2025_04_01_00_00_00"); !ok {
		t.Error("Lookup() should find the new report")
	}
	if _, ok := idx.Lookup("run_missing"); ok {
		t.Error("Lookup() should not find unknown reports")
	}
}

func TestRenderHTML(t *testing.T) {
	ws := newWorkspace(t)
	found, _ := Find(ws)
	r := found[1]

	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	wantCSS := `href="file://` + filepath.ToSlash(filepath.Join(r.Dir, ReportName, "_static", "style.css")) + `"`
	if !strings.Contains(html, wantCSS) {
		t.Errorf("stylesheet link not rewritten, want %s in:\n%s", wantCSS, html)
	}
	if !strings.Contains(html, `_static/js/bokeh.js"`) || strings.Contains(html, `src="_static`) {
		t.Errorf("script link not rewritten:\n%s", html)
	}
	if !strings.Contains(html, `href="other.html"`) {
		t.Error("non static links should be kept")
	}
	if !strings.Contains(html, ".md-header") {
		t.Error("style overrides should be appended")
	}

	if _, err := RenderHTML(found[0]); err == nil {
		t.Error("report without HTML should fail")
	}
}

func TestChooseModel(t *testing.T) {
	ws := t.TempDir()
	run := filepath.Join(".kenning", "run_x")
	writeFile(t, filepath.Join(ws, run, "vae.tflite"), "model")
	writeFile(t, filepath.Join(ws, run, "vae.tflite.json"), `{"input": []}`)
	writeFile(t, filepath.Join(ws, run, "automl_conf_0.yml"), `platform:
  type: ZephyrPlatform
optimizers:
  - type: kenning.optimizers.tflite.TFLiteCompiler
    parameters:
      compiled_model_path: .kenning/run_x/vae.tflite
`)
	scenarioPath := filepath.Join(run, "automl_conf_0.yml")
	model := ModelSummary{ModelName: "automl_conf_0", ScenarioPath: &scenarioPath}

	target, err := ChooseModel(ws, model, filepath.Join("models", "chosen.tflite"))
	if err != nil {
		t.Fatalf("ChooseModel() error = %v", err)
	}
	if target != filepath.Join(ws, "models", "chosen.tflite") {
		t.Errorf("target = %q", target)
	}
	for path, want := range map[string]string{target: "model", target + ".json": `{"input": []}`} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("copy missing: %v", err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestChooseModelFallsBackToModelWrapper(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "model.h5"), "weights")
	writeFile(t, filepath.Join(ws, "model.h5.json"), "{}")
	writeFile(t, filepath.Join(ws, "conf.json"), `{
    "model_wrapper": {"type": "PyTorchAnomalyDetectionVAE", "parameters": {"model_path": "model.h5"}},
    "optimizers": [{"type": "TFLiteCompiler", "parameters": {}}]
}`)
	scenarioPath := filepath.Join(ws, "conf.json")

	target := filepath.Join(ws, "out", "model.h5")
	if _, err := ChooseModel(ws, ModelSummary{ScenarioPath: &scenarioPath}, target); err != nil {
		t.Fatalf("ChooseModel() error = %v", err)
	}
	if got, _ := os.ReadFile(target); string(got) != "weights" {
		t.Errorf("copied model = %q", got)
	}
}

func TestChooseModelErrors(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "m.tflite"), "model")
	writeFile(t, filepath.Join(ws, "m.tflite.json"), "{}")
	writeFile(t, filepath.Join(ws, "ok.yml"), "optimizers:\n  - type: TFLiteCompiler\n    parameters:\n      compiled_model_path: m.tflite\n")
	writeFile(t, filepath.Join(ws, "nooptimizers.yml"), "platform:\n  type: ZephyrPlatform\n")
	writeFile(t, filepath.Join(ws, "conf.toml"), "")
	if err := os.MkdirAll(filepath.Join(ws, "dir"), 0755); err != nil {
		t.Fatal(err)
	}

	str := func(s string) *string { return &s }
	tests := []struct {
		name     string
		scenario *string
		target   string
		wantErr  error
	}{
		{name: "no scenario", scenario: nil, target: "x", wantErr: ErrScenarioNotFound},
		{name: "missing scenario", scenario: str("absent.yml"), target: "x", wantErr: ErrScenarioNotFound},
		{name: "unsupported format", scenario: str("conf.toml"), target: "x"},
		{name: "no optimizers", scenario: str("nooptimizers.yml"), target: "x", wantErr: ErrNoModelPath},
		{name: "no target", scenario: str("ok.yml"), target: "", wantErr: ErrNoTarget},
		{name: "directory target", scenario: str("ok.yml"), target: "dir", wantErr: ErrTargetIsDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChooseModel(ws, ModelSummary{ScenarioPath: tt.scenario}, tt.target)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
