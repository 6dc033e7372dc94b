package export

import "github.com/rs/zerolog"

// Skip records one entry that could not be mapped and why. Skips are
// surfaced in the export outcome and in logs; they never abort sibling
// entries.
type Skip struct {
	EntryType string
	EntryRef  int
	Reason    string
}

// Outcome accumulates per-entry results across one export call so partial
// failure is explicit instead of hidden in suppressed errors.
type Outcome struct {
	Succeeded int
	Skipped   []Skip
}

// Success counts one successfully mapped entry.
func (o *Outcome) Success() {
	o.Succeeded++
}

// SkipEntry records a skipped entry and logs it at warn level so a partial
// document is never silent.
func (o *Outcome) SkipEntry(logger zerolog.Logger, entryType string, ref int, err error) {
	o.Skipped = append(o.Skipped, Skip{EntryType: entryType, EntryRef: ref, Reason: err.Error()})
	logger.Warn().
		Str("entry_type", entryType).
		Int("entry_ref", ref).
		Err(err).
		Msg("entry skipped during export")
}

// Partial reports whether any entry was skipped.
func (o *Outcome) Partial() bool {
	return len(o.Skipped) > 0
}
