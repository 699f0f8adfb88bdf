package cli

import (
	"strings"
	"testing"
)

func TestFormatResults(t *testing.T) {
	platforms := []PlatformInfo{{
		ID:          "max32690evkit/max32690/m4",
		DisplayName: "MAX32690 Evaluation Kit",
		Optimizers:  []string{"TFLiteCompiler"},
		Simulation:  true,
	}}

	tests := []struct {
		name    string
		format  OutputFormat
		want    []string
		wantErr bool
	}{
		{
			name:   "json",
			format: OutputFormatJSON,
			want:   []string{`"id": "max32690evkit/max32690/m4"`, `"simulation": true`},
		},
		{
			name:   "yaml",
			format: OutputFormatYAML,
			want:   []string{"- id: max32690evkit/max32690/m4", "displayName: MAX32690 Evaluation Kit", "simulation: true"},
		},
		{
			name:    "unsupported",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatResults(platforms, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatResults() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}
