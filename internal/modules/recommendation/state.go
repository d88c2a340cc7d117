package recommendation

import (
	"fmt"

	"github.com/google/uuid"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

type State string

const (
	StateInit         State = "init"
	StateProfileBuilt State = "profile_built"
	StateRetrieved    State = "retrieved"
	StateEnriched     State = "enriched"
	StateGenerated    State = "generated"
	StateExtracted    State = "extracted"
	StateValidated    State = "validated"
	StateRetrying     State = "retrying"
	StateAccepted     State = "accepted"
	StateForcedAccept State = "forced_accept"
	StateFailed       State = "failed"
)

// transitions lists every legal edge of the run state machine.
var transitions = map[State][]State{
	StateInit:         {StateProfileBuilt, StateFailed},
	StateProfileBuilt: {StateRetrieved, StateRetrying, StateFailed},
	StateRetrying:     {StateRetrieved, StateRetrying, StateForcedAccept, StateFailed},
	StateRetrieved:    {StateEnriched},
	StateEnriched:     {StateGenerated},
	StateGenerated:    {StateExtracted, StateFailed},
	StateExtracted:    {StateValidated},
	StateValidated:    {StateAccepted, StateRetrying, StateForcedAccept},
}

func (s State) Terminal() bool {
	return s == StateAccepted || s == StateForcedAccept || s == StateFailed
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IllegalTransitionError means the run tried an edge missing from the table.
type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// attemptResult is a validated attempt kept for forced acceptance or as a partial result.
type attemptResult struct {
	Attempt  int
	Strategy rec.Strategy
	Score    int
	Picks    []rec.Pick
}

// runState is owned by a single run and only mutated between stages.
type runState struct {
	ID       uuid.UUID
	State    State
	rawInput rec.RawInput

	Profile    rec.Profile
	Attempt    int
	Strategy   rec.Strategy
	Candidates []rec.Candidate
	Notes      rec.Notes

	Draft       string
	DraftFailed bool
	Picks       []rec.Pick

	LastScore  int
	LastPass   bool
	LastReason string
	Log        []rec.ValidationEntry

	Best          *attemptResult
	LastValidated *attemptResult
	Tried         []rec.Strategy

	Steps   int
	History []State
	Err     error
}

func newRunState(strategy rec.Strategy, in rec.RawInput) *runState {
	return &runState{
		ID:       uuid.New(),
		rawInput: in,
		State:    StateInit,
		Attempt:  1,
		Strategy: strategy,
		History:  []State{StateInit},
	}
}

func (st *runState) moveTo(next State) error {
	if !canTransition(st.State, next) {
		return &IllegalTransitionError{From: st.State, To: next}
	}
	st.State = next
	st.Steps++
	st.History = append(st.History, next)
	return nil
}

func (st *runState) markTried(s rec.Strategy) {
	for _, t := range st.Tried {
		if t == s {
			return
		}
	}
	st.Tried = append(st.Tried, s)
}

// recordVerdict appends to the validation log and tracks the best attempt. Ties
// keep the earlier attempt.
func (st *runState) recordVerdict(score int, pass bool, reason string) {
	st.LastScore, st.LastPass, st.LastReason = score, pass, reason
	st.Log = append(st.Log, rec.ValidationEntry{
		Attempt:  st.Attempt,
		Strategy: st.Strategy,
		Score:    score,
		Pass:     pass,
		Reason:   reason,
	})
	if len(st.Picks) != rec.PickCount {
		return
	}
	res := &attemptResult{
		Attempt:  st.Attempt,
		Strategy: st.Strategy,
		Score:    score,
		Picks:    append([]rec.Pick(nil), st.Picks...),
	}
	st.LastValidated = res
	if st.Best == nil || score > st.Best.Score {
		st.Best = res
	}
}

// nextAttempt advances the counter, switches strategy and clears per-attempt data.
func (st *runState) nextAttempt() {
	st.Attempt++
	st.Strategy = st.Strategy.Other()
	st.Candidates = nil
	st.Notes = rec.Notes{}
	st.Draft = ""
	st.DraftFailed = false
	st.Picks = nil
}

func (st *runState) resultFrom(a *attemptResult, outcome rec.Outcome) *rec.RecommendationSet {
	if a == nil {
		return nil
	}
	return &rec.RecommendationSet{
		RunID:         st.ID.String(),
		Outcome:       outcome,
		Attempt:       a.Attempt,
		Strategy:      a.Strategy,
		QualityScore:  a.Score,
		Picks:         append([]rec.Pick(nil), a.Picks...),
		ValidationLog: append([]rec.ValidationEntry(nil), st.Log...),
	}
}
