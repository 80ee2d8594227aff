package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is everything a single run produced, ready for rendering.
type Report struct {
	SchemaVersion string        `json:"schemaVersion"`
	RunID         string        `json:"runId"`
	Tool          Tool          `json:"tool"`
	Cluster       string        `json:"cluster"`
	Region        string        `json:"region,omitempty"`
	Context       string        `json:"context,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       time.Time     `json:"endedAt"`
	Results       []ScopeResult `json:"results"`
	Summary       Summary       `json:"summary"`
}

type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ScopeResult holds the outcome of one engine run: the cluster-wide pass or
// one namespace.
type ScopeResult struct {
	Scope     string          `json:"scope"`
	Namespace string          `json:"namespace,omitempty"`
	Findings  []Finding       `json:"findings"`
	Errors    []RuleError     `json:"errors,omitempty"`
	Skips     []CollectorSkip `json:"collectorSkips,omitempty"`
}

// RuleError records a rule that could not be evaluated.
type RuleError struct {
	// Kind is "resolution" or "execution".
	Kind      string `json:"kind"`
	Scope     string `json:"scope"`
	Pillar    string `json:"pillar"`
	Section   string `json:"section"`
	RuleID    string `json:"ruleId"`
	Namespace string `json:"namespace,omitempty"`
	Message   string `json:"message"`
}

// CollectorSkip records a collector that was skipped during the scan.
type CollectorSkip struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	RBAC   bool   `json:"rbac"` // true when error appears to be a permissions/forbidden error
}

// NewReport returns an empty report for cluster.
func NewReport(cluster, region, context, version string, started time.Time) Report {
	return Report{
		SchemaVersion: "1.0.0",
		RunID:         uuid.NewString(),
		Tool: Tool{
			Name:    "hardeneks",
			Version: version,
		},
		Cluster:   cluster,
		Region:    region,
		Context:   context,
		StartedAt: started,
		Results:   []ScopeResult{},
	}
}

// Findings returns every finding of the report in result order.
func (r *Report) Findings() []Finding {
	var out []Finding
	for _, res := range r.Results {
		out = append(out, res.Findings...)
	}
	return out
}

// Errors returns every rule error of the report in result order.
func (r *Report) Errors() []RuleError {
	var out []RuleError
	for _, res := range r.Results {
		out = append(out, res.Errors...)
	}
	return out
}
