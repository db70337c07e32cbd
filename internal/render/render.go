// Package render writes reports and reconciliations as tables, markdown,
// JSON or YAML.
package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/underwrite/internal/apperr"
)

// Format is an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatMarkdown, FormatJSON, FormatYAML}

// ParseFormat resolves a format name. "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperr.Validation("unknown format %q (want table, markdown, json or yaml)", s)
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.0f", -v)
	}
	return printer.Sprintf("$%.0f", v)
}

func acres(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func count(v int) string {
	return printer.Sprintf("%d", v)
}

func percent(v float64) string {
	return printer.Sprintf("%.1f%%", v*100)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "render: encode json")
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "render: encode yaml")
	}
	return eris.Wrap(enc.Close(), "render: close yaml")
}
