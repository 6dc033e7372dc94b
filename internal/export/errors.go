// Package export holds the pieces shared by every document pipeline: the
// mapping error taxonomy, the identifier resolver, concept mapping, UTC
// temporal formatting and per-entry outcome accounting.
package export

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a mapping failure.
type ErrorKind int

const (
	// MissingCodeSystem means a code has neither an explicit system nor a
	// usable default. Recoverable by skipping the coded field or the entry.
	MissingCodeSystem ErrorKind = iota + 1
	// UnsupportedObservationValue means an observation value has no defined
	// serialization. The single observation is dropped, export continues.
	UnsupportedObservationValue
	// UnresolvedReference means a reference was requested before its target
	// was emitted. This is an ordering bug in the mapper, not bad input.
	UnresolvedReference
	// UnknownValueSet means a placeholder code named a value set the
	// terminology registry does not know.
	UnknownValueSet
	// FatalPatientMapping means the root patient entry could not be built.
	// The whole per-patient export is aborted.
	FatalPatientMapping
)

// String returns the kind name used in logs and skip reports.
func (k ErrorKind) String() string {
	switch k {
	case MissingCodeSystem:
		return "missing_code_system"
	case UnsupportedObservationValue:
		return "unsupported_observation_value"
	case UnresolvedReference:
		return "unresolved_reference"
	case UnknownValueSet:
		return "unknown_value_set"
	case FatalPatientMapping:
		return "fatal_patient_mapping"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MappingError is a classified failure while mapping one entry or the
// patient root.
type MappingError struct {
	Kind   ErrorKind
	Detail string
}

func (e *MappingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("export: %s", e.Kind)
	}
	return fmt.Sprintf("export: %s: %s", e.Kind, e.Detail)
}

// Errf builds a MappingError with a formatted detail message.
func Errf(kind ErrorKind, format string, args ...interface{}) *MappingError {
	return &MappingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a MappingError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var me *MappingError
	return errors.As(err, &me) && me.Kind == kind
}
