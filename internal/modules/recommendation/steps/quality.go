package steps

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/prompts"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const DefaultPassThreshold = 75

// Verdict is the quality gate's judgement of one attempt.
type Verdict struct {
	Score  int
	Pass   bool
	Reason string
}

type QualityDeps struct {
	Log       *logger.Logger
	Generator TextGenerator
	Timeout   time.Duration
	Threshold int
}

type QualityGate struct {
	deps QualityDeps
}

func NewQualityGate(deps QualityDeps) *QualityGate {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Threshold <= 0 {
		deps.Threshold = DefaultPassThreshold
	}
	return &QualityGate{deps: deps}
}

// Evaluate scores picks against the profile. A pick list of the wrong size fails
// without an external call; a malformed or failed score call yields score 0.
func (q *QualityGate) Evaluate(ctx context.Context, profile rec.Profile, picks []rec.Pick) Verdict {
	if len(picks) != rec.PickCount {
		return Verdict{Reason: fmt.Sprintf("expected %d picks, got %d", rec.PickCount, len(picks))}
	}
	if q.deps.Generator == nil {
		return Verdict{Reason: "no scorer configured"}
	}

	system, user := prompts.Validation(profile, picks)
	callCtx, cancel := withTimeout(ctx, q.deps.Timeout)
	defer cancel()
	res, err := q.deps.Generator.Score(callCtx, system, user)
	if err = classifyCallErr(callCtx, "text_generator", "score", err); err != nil {
		q.deps.Log.Warn("quality score failed", "error", err)
		return Verdict{Reason: "malformed score response: " + err.Error()}
	}
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) || res.Score < 0 || res.Score > 100 {
		q.deps.Log.Warn("quality score out of range", "score", res.Score)
		return Verdict{Reason: fmt.Sprintf("malformed score response: %v out of range", res.Score)}
	}

	score := int(math.Round(res.Score))
	reason := strings.TrimSpace(res.Rationale)
	if reason == "" {
		reason = "no rationale given"
	}
	return Verdict{Score: score, Pass: score >= q.deps.Threshold, Reason: reason}
}
