package envutil

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("EU_STR", "  hi ")
	t.Setenv("EU_INT", "x")
	t.Setenv("EU_FLOAT", "0.5")
	t.Setenv("EU_BOOL", "off")
	t.Setenv("EU_DUR", "45")
	t.Setenv("EU_DUR2", "2m")

	if got := String("EU_STR", "d"); got != "hi" {
		t.Fatalf("String: want=%q got=%q", "hi", got)
	}
	if got := String("EU_MISSING", "d"); got != "d" {
		t.Fatalf("String default: got=%q", got)
	}
	if got := Int("EU_INT", 7); got != 7 {
		t.Fatalf("Int invalid: want=7 got=%d", got)
	}
	if got := Float("EU_FLOAT", 1); got != 0.5 {
		t.Fatalf("Float: want=0.5 got=%v", got)
	}
	if got := Bool("EU_BOOL", true); got {
		t.Fatalf("Bool: want=false")
	}
	if got := Duration("EU_DUR", 0); got != 45*time.Second {
		t.Fatalf("Duration seconds: got=%v", got)
	}
	if got := Duration("EU_DUR2", 0); got != 2*time.Minute {
		t.Fatalf("Duration string: got=%v", got)
	}
}
