package recommendation

import (
	"fmt"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

// IncompleteRunError reports a run aborted by its step or wall-clock budget.
// Partial holds the last validated attempt, when there was one.
type IncompleteRunError struct {
	RunID   string
	State   State
	Steps   int
	Reason  string
	Partial *rec.RecommendationSet
	Cause   error
}

func (e *IncompleteRunError) Error() string {
	if e == nil {
		return "incomplete run"
	}
	return fmt.Sprintf("incomplete run %s: %s after %d steps in state %s", e.RunID, e.Reason, e.Steps, e.State)
}

func (e *IncompleteRunError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
