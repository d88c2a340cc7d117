package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystemIsIdempotent(t *testing.T) {
	once := ApplySystem("Score the picks.", "json")
	if !strings.HasPrefix(once, marker) || !strings.HasSuffix(once, "Score the picks.") {
		t.Fatalf("ApplySystem: got=%q", once)
	}
	if twice := ApplySystem(once, "json"); twice != once {
		t.Fatalf("ApplySystem not idempotent")
	}
	if got := ApplySystem("  ", "text"); got != "" {
		t.Fatalf("blank: want empty got=%q", got)
	}
}
