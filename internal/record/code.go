package record

// Code is a (system, code, display) triple identifying a clinical term
// from a standard terminology.
type Code struct {
	// System is the URI of the code system (e.g. http://loinc.org) or a
	// short name recognised by the export concept mapper (e.g. "SNOMED-CT").
	System string `json:"system,omitempty"`
	// Code is the term identifier within the system.
	Code string `json:"code"`
	// Display is the human-readable description of the code.
	Display string `json:"display,omitempty"`
	// ValueSet, when set, names a value set from which a concrete code is
	// drawn at export time, seeded by the patient seed for reproducibility.
	// A code carrying a ValueSet is a placeholder until resolved.
	ValueSet string `json:"valueSet,omitempty"`
}

// Equal reports whether two codes identify the same concept.
func (c Code) Equal(other Code) bool {
	return c.System == other.System && c.Code == other.Code
}
