package recommendation

import (
	"fmt"
	"time"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
)

// Policy holds the caller-tunable limits of a run. Zero fields take defaults.
type Policy struct {
	MaxAttempts int
	MaxSteps    int
	RunTimeout  time.Duration

	InitialStrategy rec.Strategy
	TopK            int
	// PromptCandidates is how many ranked candidates the draft and extraction see.
	PromptCandidates int
	// MinViable is the smallest candidate pool an attempt may proceed with.
	MinViable        int
	PerFavoriteLimit int
	// GenrePenalty is subtracted from items outside the preferred genres. Negative disables it.
	GenrePenalty float64

	EnrichFavorites   int
	EnrichCandidates  int
	EnrichConcurrency int

	PassThreshold int
	Timeouts      steps.Timeouts
}

// stepsPerAttempt is the longest transition path one attempt can take:
// retrying or profile_built through validated.
const stepsPerAttempt = 6

// MinSteps is the smallest step budget that lets a run use all of its attempts
// and still reach a terminal state.
func MinSteps(attempts int) int {
	return stepsPerAttempt*attempts + 1
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       2,
		MaxSteps:          32,
		RunTimeout:        3 * time.Minute,
		InitialStrategy:   rec.StrategyCentroid,
		TopK:              30,
		PromptCandidates:  15,
		MinViable:         rec.PickCount,
		PerFavoriteLimit:  15,
		GenrePenalty:      0.05,
		EnrichFavorites:   2,
		EnrichCandidates:  8,
		EnrichConcurrency: 8,
		PassThreshold:     steps.DefaultPassThreshold,
		Timeouts:          steps.DefaultTimeouts(),
	}
}

// withDefaults fills zero fields from DefaultPolicy. MinViable never drops below
// the pick count.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = max(d.MaxSteps, MinSteps(p.MaxAttempts))
	}
	if p.InitialStrategy == "" {
		p.InitialStrategy = d.InitialStrategy
	}
	if p.TopK <= 0 {
		p.TopK = d.TopK
	}
	if p.PromptCandidates <= 0 {
		p.PromptCandidates = d.PromptCandidates
	}
	if p.MinViable < rec.PickCount {
		p.MinViable = rec.PickCount
	}
	if p.PerFavoriteLimit <= 0 {
		p.PerFavoriteLimit = d.PerFavoriteLimit
	}
	if p.GenrePenalty == 0 {
		p.GenrePenalty = d.GenrePenalty
	}
	if p.EnrichFavorites <= 0 {
		p.EnrichFavorites = d.EnrichFavorites
	}
	if p.EnrichCandidates <= 0 {
		p.EnrichCandidates = d.EnrichCandidates
	}
	if p.EnrichConcurrency <= 0 {
		p.EnrichConcurrency = d.EnrichConcurrency
	}
	if p.PassThreshold <= 0 {
		p.PassThreshold = d.PassThreshold
	}
	if p.Timeouts == (steps.Timeouts{}) {
		p.Timeouts = d.Timeouts
	}
	return p
}

func (p Policy) Validate() error {
	if p.InitialStrategy != "" && p.InitialStrategy != rec.StrategyCentroid && p.InitialStrategy != rec.StrategyIndividualMerge {
		return fmt.Errorf("policy: unknown initial strategy %q", p.InitialStrategy)
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPolicy().MaxAttempts
	}
	if p.MaxSteps > 0 && p.MaxSteps < MinSteps(attempts) {
		return fmt.Errorf("policy: max steps %d cannot finish %d attempts, need at least %d", p.MaxSteps, attempts, MinSteps(attempts))
	}
	if p.PassThreshold > 100 {
		return fmt.Errorf("policy: pass threshold %d above 100", p.PassThreshold)
	}
	if p.TopK > 0 && p.PromptCandidates > p.TopK {
		return fmt.Errorf("policy: prompt candidates %d exceed top_k %d", p.PromptCandidates, p.TopK)
	}
	if p.GenrePenalty > 1 {
		return fmt.Errorf("policy: genre penalty %v above 1", p.GenrePenalty)
	}
	return nil
}
