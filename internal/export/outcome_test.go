package export

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestOutcome(t *testing.T) {
	var o Outcome

	o.Success()
	o.Success()
	if o.Partial() {
		t.Error("expected Partial false with no skips")
	}

	o.SkipEntry(zerolog.Nop(), "observation", 7, Errf(UnsupportedObservationValue, "bad value"))

	if o.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", o.Succeeded)
	}
	if !o.Partial() {
		t.Error("expected Partial true after skip")
	}
	if len(o.Skipped) != 1 {
		t.Fatalf("Skipped len = %d, want 1", len(o.Skipped))
	}
	skip := o.Skipped[0]
	if skip.EntryType != "observation" || skip.EntryRef != 7 {
		t.Errorf("unexpected skip %+v", skip)
	}
}
