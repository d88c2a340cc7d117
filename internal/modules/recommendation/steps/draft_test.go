package steps

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDraftRetriesOnce(t *testing.T) {
	gen := &fakeGenerator{
		drafts:    []string{"", "「Alpha One」 fits"},
		draftErrs: []error{errors.New("boom")},
	}
	d := NewDrafter(DraftDeps{Generator: gen})

	text, failed, err := d.Draft(context.Background(), testProfile(), notesEmpty(), rankedCandidates("Alpha One", "Beta Two", "Gamma Saga"))
	if err != nil || failed {
		t.Fatalf("Draft: failed=%v err=%v", failed, err)
	}
	if text != "「Alpha One」 fits" || gen.generateN != 2 {
		t.Fatalf("Draft: text=%q calls=%d", text, gen.generateN)
	}
}

func TestDraftFailsAfterTwoErrors(t *testing.T) {
	gen := &fakeGenerator{draftErrs: []error{errors.New("a"), errors.New("b")}}
	d := NewDrafter(DraftDeps{Generator: gen})

	text, failed, err := d.Draft(context.Background(), testProfile(), notesEmpty(), rankedCandidates("Alpha One", "Beta Two", "Gamma Saga"))
	if err != nil || !failed || text != "" {
		t.Fatalf("Draft: text=%q failed=%v err=%v", text, failed, err)
	}
	if gen.generateN != 2 {
		t.Fatalf("calls: want=2 got=%d", gen.generateN)
	}
}

func TestDraftTimeoutIsClassified(t *testing.T) {
	gen := &blockingGenerator{}
	d := NewDrafter(DraftDeps{Generator: gen, Timeout: 5 * time.Millisecond})

	_, failed, err := d.Draft(context.Background(), testProfile(), notesEmpty(), rankedCandidates("Alpha One", "Beta Two", "Gamma Saga"))
	if err != nil || !failed {
		t.Fatalf("Draft: failed=%v err=%v", failed, err)
	}
	var timeout *CollaboratorTimeoutError
	if !errors.As(gen.lastErr, &timeout) && !errors.Is(gen.lastErr, context.DeadlineExceeded) {
		t.Fatalf("expected deadline on generator call, got=%v", gen.lastErr)
	}
}

type blockingGenerator struct {
	lastErr error
}

func (b *blockingGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	<-ctx.Done()
	b.lastErr = ctx.Err()
	return "", ctx.Err()
}

func (b *blockingGenerator) Score(ctx context.Context, system, user string) (ScoreResult, error) {
	return ScoreResult{}, nil
}
