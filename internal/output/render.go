// Package output renders a model.Report in the supported formats.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/asjarre/hardeneks/internal/config"
	"github.com/asjarre/hardeneks/internal/model"
)

// Render writes r to w in format. noColor only affects the table format.
func Render(w io.Writer, format string, r *model.Report, noColor bool) error {
	switch format {
	case config.OutputTable, "":
		return WriteTable(w, r, noColor)
	case config.OutputJSON:
		return WriteJSON(w, r)
	case config.OutputYAML:
		return WriteYAML(w, r)
	case config.OutputCSV:
		return WriteCSV(w, r)
	case config.OutputMarkdown:
		return WriteMarkdown(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

var extensions = map[string]string{
	config.OutputTable:    ".txt",
	config.OutputJSON:     ".json",
	config.OutputYAML:     ".yaml",
	config.OutputCSV:      ".csv",
	config.OutputMarkdown: ".md",
}

// WriteFile renders r into path. When path is an existing directory the
// report is written to hardeneks-report.<ext> inside it. It returns the file
// written.
func WriteFile(path, format string, r *model.Report) (string, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, "hardeneks-report"+extensions[format])
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Render(f, format, r, true); err != nil {
		return "", err
	}
	return path, f.Close()
}
