package output

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/asjarre/hardeneks/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes one row per finding, then a blank row and one row per rule
// error. Output is UTF-8 with BOM for clean Excel opening on Windows.
func WriteCSV(w io.Writer, r *model.Report) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Scope", "Namespace", "Pillar", "Section", "Rule", "Status", "Resource Type", "Resources", "Message", "URL"})
	for _, res := range r.Results {
		for _, f := range res.Findings {
			_ = cw.Write([]string{
				f.Rule.Scope,
				f.Namespace,
				f.Rule.Pillar,
				f.Rule.Section,
				f.Rule.ID,
				string(f.Status),
				f.ResourceType,
				strings.Join(f.Resources, ";"),
				f.Rule.Message,
				f.Rule.URL,
			})
		}
	}

	if errs := r.Errors(); len(errs) > 0 {
		_ = cw.Write([]string{})
		_ = cw.Write([]string{"Error Kind", "Scope", "Namespace", "Pillar", "Section", "Rule", "Message"})
		for _, e := range errs {
			_ = cw.Write([]string{e.Kind, e.Scope, e.Namespace, e.Pillar, e.Section, e.RuleID, e.Message})
		}
	}
	cw.Flush()
	return cw.Error()
}
