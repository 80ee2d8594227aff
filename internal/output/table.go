package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/lensesio/tableprinter"

	"github.com/asjarre/hardeneks/internal/model"
)

type findingRow struct {
	Pillar    string `header:"pillar"`
	Section   string `header:"section"`
	Rule      string `header:"rule"`
	Status    string `header:"status"`
	Type      string `header:"resource type"`
	Resources string `header:"resources"`
}

type errorRow struct {
	Kind      string `header:"kind"`
	Namespace string `header:"namespace"`
	Rule      string `header:"rule"`
	Message   string `header:"message"`
}

type skipRow struct {
	Collector string `header:"collector"`
	Namespace string `header:"namespace"`
	RBAC      string `header:"rbac"`
	Reason    string `header:"reason"`
}

func newTablePrinter(w io.Writer, p palette) *tableprinter.Printer {
	printer := tableprinter.New(w)
	printer.BorderTop, printer.BorderBottom, printer.BorderLeft, printer.BorderRight = true, true, true, true
	printer.CenterSeparator = "│"
	printer.ColumnSeparator = "│"
	printer.RowSeparator = "─"
	printer.RowCharLimit = 300
	printer.HeaderBgColor = p.headerBg
	printer.HeaderFgColor = p.headerFg
	return printer
}

// WriteTable renders the report for a terminal: one table per scope, then a
// diagnostics block with every rule error and collector skip.
func WriteTable(w io.Writer, r *model.Report, noColor bool) error {
	p := newPalette(noColor)
	printer := newTablePrinter(w, p)
	bw := &errWriter{w: w}

	bw.printf("Cluster: %s  Region: %s  Context: %s\n", p.boldCyan.Sprint(r.Cluster), r.Region, r.Context)

	for _, res := range r.Results {
		if res.Namespace != "" {
			bw.printf("\nNamespace %s\n", p.boldCyan.Sprint(res.Namespace))
		} else {
			bw.printf("\nCluster-wide\n")
		}
		if len(res.Findings) == 0 {
			bw.printf("  no rules evaluated\n")
			continue
		}
		rows := make([]findingRow, 0, len(res.Findings))
		for _, f := range res.Findings {
			rows = append(rows, findingRow{
				Pillar:    f.Rule.Pillar,
				Section:   f.Rule.Section,
				Rule:      f.Rule.ID,
				Status:    p.status(f.Passed()),
				Type:      f.ResourceType,
				Resources: strings.Join(f.Resources, ", "),
			})
		}
		if bw.err == nil {
			printer.Print(rows)
		}
	}

	writeDiagnostics(bw, printer, p, r)

	s := r.Summary
	status := p.boldGreen.Sprint(s.Status)
	if s.Status != "PASSED" {
		status = p.boldRed.Sprint(s.Status)
	}
	bw.printf("\nPassed: %d  Failed: %d  Rule errors: %d  Collector skips: %d  Status: %s\n",
		s.Passed, s.Failed, s.Errors, s.Skips, status)
	return bw.err
}

func writeDiagnostics(bw *errWriter, printer *tableprinter.Printer, p palette, r *model.Report) {
	errs := r.Errors()
	skips := skipsOf(r)
	if len(errs) == 0 && len(skips) == 0 {
		return
	}
	bw.printf("\n%s\n", p.boldYellow.Sprint("Diagnostics"))
	if len(errs) > 0 {
		rows := make([]errorRow, 0, len(errs))
		for _, e := range errs {
			rows = append(rows, errorRow{
				Kind:      e.Kind,
				Namespace: e.Namespace,
				Rule:      fmt.Sprintf("%s/%s/%s", e.Pillar, e.Section, e.RuleID),
				Message:   e.Message,
			})
		}
		if bw.err == nil {
			printer.Print(rows)
		}
	}
	if len(skips) > 0 {
		rows := make([]skipRow, 0, len(skips))
		for _, sk := range skips {
			rbac := "no"
			if sk.RBAC {
				rbac = "yes"
			}
			rows = append(rows, skipRow{Collector: sk.Name, Namespace: sk.Namespace, RBAC: rbac, Reason: sk.Reason})
		}
		if bw.err == nil {
			printer.Print(rows)
		}
	}
}
