package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.lsp.dev/uri"
)

var staticLink = regexp.MustCompile(`((href|src)=")(_static[^"]+)"`)

// styleOverrides hides the documentation chrome of the Kenning report
const styleOverrides = `
<style>
.md-header {
    visibility: hidden;
}
@media screen {
    [data-md-color-scheme=slate] {
        --md-default-bg-color: var(--vscode-editor-background);
    }
}
.bk-root {
    background: var(--vscode-editor-background);
}
.md-footer {
    visibility: hidden;
}
</style>
`

// RewriteStaticLinks points relative _static references at file URIs under
// the report's HTML directory
func RewriteStaticLinks(r Report, html string) string {
	base := filepath.Join(r.Dir, ReportName)
	return staticLink.ReplaceAllStringFunc(html, func(m string) string {
		parts := staticLink.FindStringSubmatch(m)
		target := uri.File(filepath.Join(base, filepath.FromSlash(parts[3])))
		return parts[1] + string(target) + `"`
	})
}

// RenderHTML returns the report HTML ready for an embedded viewer
func RenderHTML(r Report) (string, error) {
	data, err := os.ReadFile(r.HTMLPath())
	if err != nil {
		return "", fmt.Errorf("failed to read report HTML: %w", err)
	}
	return RewriteStaticLinks(r, string(data)) + "\n\n" + styleOverrides, nil
}
