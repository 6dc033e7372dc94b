package fhir

import "fmt"

// Version selects the FHIR wire version the mapper emits.
type Version int

const (
	DSTU2 Version = iota
	STU3
	R4
)

// String returns the lowercase version name used in URLs and flags.
func (v Version) String() string {
	switch v {
	case DSTU2:
		return "dstu2"
	case STU3:
		return "stu3"
	case R4:
		return "r4"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// ParseVersion parses a version name as used in URLs and flags.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "dstu2":
		return DSTU2, nil
	case "stu3":
		return STU3, nil
	case "r4", "":
		return R4, nil
	default:
		return R4, fmt.Errorf("fhir: unknown version %q", s)
	}
}

// medicationResourceType returns the prescription resource type name:
// DSTU2 still calls it MedicationOrder.
func (v Version) medicationResourceType() string {
	if v == DSTU2 {
		return "MedicationOrder"
	}
	return "MedicationRequest"
}

// usesContext reports whether clinical resources reference their encounter
// through the STU3 "context" field instead of "encounter".
func (v Version) usesContext() bool {
	return v == STU3
}
