package engine

import (
	"errors"
	"fmt"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
)

// Error kinds as recorded in model.RuleError.
const (
	KindResolution = "resolution"
	KindExecution  = "execution"
)

var errInconsistent = errors.New("finding status disagrees with its offending resources")

// ResolutionError reports a catalog coordinate with no registered rule.
type ResolutionError struct {
	Coordinate rules.Coordinate
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Coordinate, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ExecutionError reports a rule whose check failed or panicked.
type ExecutionError struct {
	Coordinate rules.Coordinate
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.Coordinate, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// RuleError converts an error returned in Result.Errors to its report form.
func RuleError(err error, namespace string) model.RuleError {
	var (
		res  *ResolutionError
		exec *ExecutionError
	)
	switch {
	case errors.As(err, &res):
		return ruleError(KindResolution, res.Coordinate, namespace, res.Err)
	case errors.As(err, &exec):
		return ruleError(KindExecution, exec.Coordinate, namespace, exec.Err)
	default:
		return model.RuleError{Kind: KindExecution, Namespace: namespace, Message: err.Error()}
	}
}

func ruleError(kind string, c rules.Coordinate, namespace string, err error) model.RuleError {
	return model.RuleError{
		Kind:      kind,
		Scope:     string(c.Scope),
		Pillar:    c.Pillar,
		Section:   c.Section,
		RuleID:    c.ID,
		Namespace: namespace,
		Message:   err.Error(),
	}
}
