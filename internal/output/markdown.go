package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/asjarre/hardeneks/internal/model"
)

func WriteMarkdown(w io.Writer, r *model.Report) error {
	s := r.Summary
	bw := &errWriter{w: w}

	bw.printf("# EKS Best Practices Report\n\n")
	bw.printf("- Cluster: `%s`\n- Region: `%s`\n- Context: `%s`\n- Run: `%s`\n- Generated: %s\n\n",
		r.Cluster, r.Region, r.Context, r.RunID, r.EndedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	bw.printf("## Summary: %s\n\n", s.Status)
	bw.printf("| Pillar | Passed | Failed |\n|---|---|---|\n")
	for _, p := range s.Pillars {
		bw.printf("| %s | %d | %d |\n", p.Name, p.Passed, p.Failed)
	}
	bw.printf("| **Total** | **%d** | **%d** |\n\n", s.Passed, s.Failed)

	for _, res := range r.Results {
		if res.Namespace != "" {
			bw.printf("## Namespace `%s`\n\n", res.Namespace)
		} else {
			bw.printf("## Cluster-wide\n\n")
		}
		if len(res.Findings) == 0 {
			bw.printf("No rules evaluated.\n\n")
		}
		for _, f := range res.Findings {
			mark := "PASS"
			if !f.Passed() {
				mark = "FAIL"
			}
			bw.printf("### [%s] %s\n", mark, f.Rule.ID)
			bw.printf("- Pillar: %s / %s\n", f.Rule.Pillar, f.Rule.Section)
			bw.printf("- Issue: %s\n", mdEscape(f.Rule.Message))
			if len(f.Resources) > 0 {
				bw.printf("- %s: %s\n", f.ResourceType, "`"+strings.Join(f.Resources, "`, `")+"`")
			}
			if f.Rule.URL != "" {
				bw.printf("- Reference: %s\n", f.Rule.URL)
			}
			bw.printf("\n")
		}
	}

	if errs := r.Errors(); len(errs) > 0 {
		bw.printf("## Rule errors\n\n")
		for _, e := range errs {
			bw.printf("- %s `%s/%s/%s` %s: %s\n", e.Kind, e.Pillar, e.Section, e.RuleID, nsLabel(e.Namespace), mdEscape(e.Message))
		}
		bw.printf("\n")
	}
	if skips := skipsOf(r); len(skips) > 0 {
		bw.printf("## Collector skips\n\n")
		for _, sk := range skips {
			bw.printf("- %s %s: %s\n", sk.Name, nsLabel(sk.Namespace), mdEscape(sk.Reason))
		}
	}
	return bw.err
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func nsLabel(ns string) string {
	if ns == "" {
		return "(cluster)"
	}
	return "(" + ns + ")"
}

type scopedSkip struct {
	model.CollectorSkip
	Namespace string
}

func skipsOf(r *model.Report) []scopedSkip {
	var out []scopedSkip
	for _, res := range r.Results {
		for _, sk := range res.Skips {
			out = append(out, scopedSkip{CollectorSkip: sk, Namespace: res.Namespace})
		}
	}
	return out
}

// errWriter keeps the first write error so rendering code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
