package model

// Status is the outcome of one rule evaluation.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// RuleMeta is the fixed metadata of a rule.
type RuleMeta struct {
	Scope   string `json:"scope"`
	Pillar  string `json:"pillar"`
	Section string `json:"section"`
	ID      string `json:"id"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Finding is the normalized result of evaluating one rule against one snapshot.
// A FAIL carries every offending resource found; a PASS carries none.
type Finding struct {
	Rule         RuleMeta `json:"rule"`
	Status       Status   `json:"status"`
	ResourceType string   `json:"resourceType"`
	Resources    []string `json:"resources"`
	Namespace    string   `json:"namespace,omitempty"`
}

// Passed reports whether the finding is a pass.
func (f Finding) Passed() bool { return f.Status == StatusPass }

// Consistent reports whether status and offenders agree.
func (f Finding) Consistent() bool {
	switch f.Status {
	case StatusPass:
		return len(f.Resources) == 0
	case StatusFail:
		return len(f.Resources) > 0
	default:
		return false
	}
}
