package steps

import (
	"fmt"
	"strings"
)

// InvalidProfileError reports an unrecognized gender or age tag. It is never retried.
type InvalidProfileError struct {
	Field string
	Value string
}

func (e *InvalidProfileError) Error() string {
	if e == nil {
		return "invalid profile"
	}
	return fmt.Sprintf("invalid profile: unrecognized %s %q", e.Field, e.Value)
}

// ExtractionImpossibleError reports that fewer than PickCount eligible candidates exist.
type ExtractionImpossibleError struct {
	Eligible int
	Required int
}

func (e *ExtractionImpossibleError) Error() string {
	if e == nil {
		return "extraction impossible"
	}
	return fmt.Sprintf("extraction impossible: %d eligible candidates, need %d", e.Eligible, e.Required)
}

// CollaboratorTimeoutError wraps a collaborator call that exceeded its deadline.
// Callers recover from it locally by degrading to empty results.
type CollaboratorTimeoutError struct {
	Collaborator string
	Operation    string
	Cause        error
}

func (e *CollaboratorTimeoutError) Error() string {
	if e == nil {
		return "collaborator timeout"
	}
	msg := fmt.Sprintf("%s %s timed out", e.Collaborator, e.Operation)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CollaboratorTimeoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// RetrievalExhaustedError reports that every attempted strategy stayed below the
// minimum viable candidate count and no attempt produced picks.
type RetrievalExhaustedError struct {
	Tried   []string
	Minimum int
}

func (e *RetrievalExhaustedError) Error() string {
	if e == nil {
		return "retrieval exhausted"
	}
	return fmt.Sprintf(
		"retrieval exhausted: strategies [%s] returned fewer than %d candidates",
		strings.Join(e.Tried, ", "),
		e.Minimum,
	)
}
