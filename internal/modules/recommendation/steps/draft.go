package steps

import (
	"context"
	"time"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/prompts"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const draftAttempts = 2

type DraftDeps struct {
	Log       *logger.Logger
	Generator TextGenerator
	Timeout   time.Duration
}

// Drafter asks the generator for a recommendation answer over the prompt candidates.
type Drafter struct {
	deps DraftDeps
}

func NewDrafter(deps DraftDeps) *Drafter {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Drafter{deps: deps}
}

// Draft returns the generated text. A failed or timed-out call is retried once;
// failed reports that both tries failed. err is only set when ctx itself ends.
func (d *Drafter) Draft(ctx context.Context, profile rec.Profile, notes rec.Notes, candidates []rec.Candidate) (text string, failed bool, err error) {
	if d.deps.Generator == nil {
		return "", true, nil
	}
	system, user := prompts.Recommendation(profile, notes, candidates)
	for i := 1; i <= draftAttempts; i++ {
		callCtx, cancel := withTimeout(ctx, d.deps.Timeout)
		out, callErr := d.deps.Generator.Generate(callCtx, system, user)
		callErr = classifyCallErr(callCtx, "text_generator", "generate", callErr)
		cancel()
		if callErr == nil {
			return out, false, nil
		}
		if parentDone(ctx) {
			return "", true, ctx.Err()
		}
		d.deps.Log.Warn("draft generation failed", "try", i, "error", callErr)
	}
	return "", true, nil
}
