package model

import "sort"

// PillarSummary counts findings of one pillar.
type PillarSummary struct {
	Name   string `json:"name"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
}

// Summary is the roll-up of a report.
type Summary struct {
	Pillars []PillarSummary `json:"pillars"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
	Errors  int             `json:"errors"`
	Skips   int             `json:"collectorSkips"`
	// Status is PASSED when no finding failed.
	Status string `json:"status"`
}

// Summarize computes the report summary from its results.
func Summarize(r *Report) Summary {
	byPillar := map[string]*PillarSummary{}
	s := Summary{Pillars: []PillarSummary{}}

	for _, res := range r.Results {
		s.Errors += len(res.Errors)
		s.Skips += len(res.Skips)
		for _, f := range res.Findings {
			p, ok := byPillar[f.Rule.Pillar]
			if !ok {
				p = &PillarSummary{Name: f.Rule.Pillar}
				byPillar[f.Rule.Pillar] = p
			}
			if f.Passed() {
				p.Passed++
				s.Passed++
			} else {
				p.Failed++
				s.Failed++
			}
		}
	}

	for _, p := range byPillar {
		s.Pillars = append(s.Pillars, *p)
	}
	sort.Slice(s.Pillars, func(i, j int) bool { return s.Pillars[i].Name < s.Pillars[j].Name })

	s.Status = "PASSED"
	if s.Failed > 0 {
		s.Status = "FAILED"
	}
	return s
}
