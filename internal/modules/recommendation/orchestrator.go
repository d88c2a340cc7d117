package recommendation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/ctxutil"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const tracerName = "github.com/yungbote/manga-recommender/internal/modules/recommendation"

// Orchestrator sequences one recommendation run through the state machine. It
// holds no per-run state and is safe for concurrent runs.
type Orchestrator struct {
	log        *logger.Logger
	policy     Policy
	retrievers map[rec.Strategy]steps.Retriever
	enricher   *steps.Enricher
	drafter    *steps.Drafter
	gate       *steps.QualityGate
	tracer     trace.Tracer
}

func (o *Orchestrator) Run(ctx context.Context, in rec.RawInput) (*rec.RecommendationSet, error) {
	st, err := o.execute(ctx, in)
	if err != nil {
		return nil, err
	}
	switch st.State {
	case StateAccepted:
		return st.resultFrom(st.LastValidated, rec.OutcomeAccepted), nil
	case StateForcedAccept:
		return st.resultFrom(st.Best, rec.OutcomeForcedAccept), nil
	default:
		return nil, st.Err
	}
}

// execute drives the run to a terminal state. The returned error is set only for
// aborted runs; Failed runs carry their cause in runState.Err.
func (o *Orchestrator) execute(ctx context.Context, in rec.RawInput) (*runState, error) {
	ctx = ctxutil.Default(ctx)
	if o.policy.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.policy.RunTimeout)
		defer cancel()
	}

	st := newRunState(o.policy.InitialStrategy, in)
	log := o.log.With("run_id", st.ID.String())
	if td := ctxutil.GetTraceData(ctx); td != nil {
		log = log.With("trace_id", td.TraceID, "request_id", td.RequestID)
	}
	ctx, runSpan := o.tracer.Start(ctx, "recommendation.run", trace.WithAttributes(attribute.String("run_id", st.ID.String())))
	defer runSpan.End()

	for !st.State.Terminal() {
		if err := ctx.Err(); err != nil {
			return st, o.abort(st, log, "wall-clock budget exhausted", err)
		}
		if st.Steps >= o.policy.MaxSteps {
			return st, o.abort(st, log, "step budget exhausted", nil)
		}

		from := st.State
		stepCtx, span := o.tracer.Start(ctx, "recommendation."+string(from), trace.WithAttributes(
			attribute.Int("attempt", st.Attempt),
			attribute.String("strategy", string(st.Strategy)),
		))
		next, err := o.step(stepCtx, log, st)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			if ctx.Err() != nil {
				return st, o.abort(st, log, "wall-clock budget exhausted", ctx.Err())
			}
			return st, err
		}
		if err := st.moveTo(next); err != nil {
			span.RecordError(err)
			span.End()
			return st, err
		}
		span.SetAttributes(attribute.String("next", string(next)))
		span.End()
		log.Debug("transition", "from", string(from), "to", string(next), "attempt", st.Attempt, "strategy", string(st.Strategy))
	}

	runSpan.SetAttributes(attribute.String("outcome", string(st.State)), attribute.Int("attempts", st.Attempt))
	if st.State == StateFailed {
		runSpan.SetStatus(codes.Error, fmt.Sprint(st.Err))
		log.Warn("run failed", "error", st.Err, "attempt", st.Attempt)
	} else {
		log.Info("run finished", "outcome", string(st.State), "attempt", st.Attempt, "score", st.LastScore)
	}
	return st, nil
}

func (o *Orchestrator) abort(st *runState, log *logger.Logger, reason string, cause error) error {
	log.Warn("run aborted", "reason", reason, "state", string(st.State), "steps", st.Steps)
	return &IncompleteRunError{
		RunID:   st.ID.String(),
		State:   st.State,
		Steps:   st.Steps,
		Reason:  reason,
		Partial: st.resultFrom(st.LastValidated, rec.OutcomeIncomplete),
		Cause:   cause,
	}
}

// step runs the component owned by the current state and returns the next state.
// A returned error aborts the run.
func (o *Orchestrator) step(ctx context.Context, log *logger.Logger, st *runState) (State, error) {
	switch st.State {
	case StateInit:
		profile, err := steps.NormalizeProfile(st.rawInput)
		if err != nil {
			st.Err = err
			return StateFailed, nil
		}
		st.Profile = profile
		return StateProfileBuilt, nil

	case StateProfileBuilt, StateRetrying:
		return o.retrieve(ctx, log, st)

	case StateRetrieved:
		st.Notes = o.enricher.Enrich(ctx, st.Profile.Favorites, st.Candidates)
		return StateEnriched, nil

	case StateEnriched:
		text, failed, err := o.drafter.Draft(ctx, st.Profile, st.Notes, o.promptCandidates(st))
		if err != nil {
			return "", err
		}
		st.Draft, st.DraftFailed = text, failed
		return StateGenerated, nil

	case StateGenerated:
		picks, err := steps.ExtractPicks(st.Draft, o.promptCandidates(st))
		if err != nil {
			st.Err = err
			return StateFailed, nil
		}
		st.Picks = picks
		return StateExtracted, nil

	case StateExtracted:
		if st.DraftFailed {
			st.recordVerdict(0, false, "draft generation failed")
		} else {
			v := o.gate.Evaluate(ctx, st.Profile, st.Picks)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			st.recordVerdict(v.Score, v.Pass, v.Reason)
		}
		return StateValidated, nil

	case StateValidated:
		if st.LastPass {
			return StateAccepted, nil
		}
		if st.Attempt < o.policy.MaxAttempts {
			st.nextAttempt()
			return StateRetrying, nil
		}
		return StateForcedAccept, nil
	}
	return "", fmt.Errorf("no step for state %s", st.State)
}

// retrieve runs the active strategy, relaxing once on shortfall. A pool that stays
// short counts as a failed attempt.
func (o *Orchestrator) retrieve(ctx context.Context, log *logger.Logger, st *runState) (State, error) {
	r, ok := o.retrievers[st.Strategy]
	if !ok {
		return "", fmt.Errorf("no retriever for strategy %s", st.Strategy)
	}
	st.markTried(st.Strategy)

	req := steps.RetrievalRequest{
		Profile:  st.Profile,
		Excluded: st.Profile.Favorites,
		TopK:     o.policy.TopK,
	}
	cands, err := r.Retrieve(ctx, req)
	if err != nil {
		return "", err
	}
	if len(cands) < o.policy.MinViable {
		log.Info("retrieval short, relaxing", "strategy", string(st.Strategy), "candidates", len(cands))
		req.Relaxed = true
		if cands, err = r.Retrieve(ctx, req); err != nil {
			return "", err
		}
	}
	if len(cands) >= o.policy.MinViable {
		st.Candidates = cands
		return StateRetrieved, nil
	}

	st.recordVerdict(0, false, fmt.Sprintf("retrieval shortfall: %d candidates, need %d", len(cands), o.policy.MinViable))
	if st.Attempt < o.policy.MaxAttempts {
		st.nextAttempt()
		return StateRetrying, nil
	}
	if st.Best != nil && st.State == StateRetrying {
		return StateForcedAccept, nil
	}
	tried := make([]string, 0, len(st.Tried))
	for _, s := range st.Tried {
		tried = append(tried, string(s))
	}
	st.Err = &steps.RetrievalExhaustedError{Tried: tried, Minimum: o.policy.MinViable}
	return StateFailed, nil
}

func (o *Orchestrator) promptCandidates(st *runState) []rec.Candidate {
	if len(st.Candidates) > o.policy.PromptCandidates {
		return st.Candidates[:o.policy.PromptCandidates]
	}
	return st.Candidates
}

func newTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
