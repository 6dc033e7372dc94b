package record

import (
	"sort"
	"strings"
)

// EncounterType classifies a clinical visit.
type EncounterType string

const (
	Wellness   EncounterType = "wellness"
	Ambulatory EncounterType = "ambulatory"
	Outpatient EncounterType = "outpatient"
	Inpatient  EncounterType = "inpatient"
	Emergency  EncounterType = "emergency"
	UrgentCare EncounterType = "urgentcare"
)

// Class returns the HL7 ActEncounterCode class for the encounter type.
func (t EncounterType) Class() string {
	switch EncounterType(strings.ToLower(string(t))) {
	case Inpatient:
		return "IMP"
	case Emergency:
		return "EMER"
	default:
		return "AMB"
	}
}

// Encounter is a time-bounded clinical visit and the clinical facts it
// directly contains. A zero Stop means the visit is still open.
type Encounter struct {
	Entry
	EncounterType EncounterType `json:"encounterType,omitempty"`
	Reason        *Code         `json:"reason,omitempty"`
	Discharge     *Code         `json:"discharge,omitempty"`
	Provider      string        `json:"provider,omitempty"`

	Conditions     []*Condition    `json:"conditions,omitempty"`
	Allergies      []*Allergy      `json:"allergies,omitempty"`
	Observations   []*Observation  `json:"-"`
	Procedures     []*Procedure    `json:"procedures,omitempty"`
	Devices        []*Device       `json:"devices,omitempty"`
	Medications    []*Medication   `json:"medications,omitempty"`
	Immunizations  []*Immunization `json:"immunizations,omitempty"`
	Reports        []*Report       `json:"-"`
	CarePlans      []*CarePlan     `json:"carePlans,omitempty"`
	ImagingStudies []*ImagingStudy `json:"imagingStudies,omitempty"`

	// Claim is the billing record for this encounter; exactly one per
	// encounter even when nothing billable happened.
	Claim *Claim `json:"claim,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line       string `json:"line,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Patient holds the demographic identity of the simulated person. The
// export engine reads it and never writes to it; any state computed while
// exporting lives in the exporter's own structures.
type Patient struct {
	ID            string  `json:"id"`
	Seed          int64   `json:"seed"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Prefix        string  `json:"prefix,omitempty"`
	Gender        string  `json:"gender"`
	BirthTime     int64   `json:"birthTime"`
	DeathTime     int64   `json:"deathTime,omitempty"`
	SSN           string  `json:"ssn,omitempty"`
	MRN           string  `json:"mrn,omitempty"`
	DriversID     string  `json:"driversId,omitempty"`
	PassportID    string  `json:"passportId,omitempty"`
	MaritalStatus string  `json:"maritalStatus,omitempty"`
	Race          string  `json:"race,omitempty"`
	Ethnicity     string  `json:"ethnicity,omitempty"`
	Language      string  `json:"language,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Address       Address `json:"address"`
}

// Alive reports whether the patient is alive at the given time.
func (p *Patient) Alive(at int64) bool {
	return p.DeathTime == 0 || p.DeathTime > at
}

// Record is one patient's chronological clinical history. Encounters are
// kept in non-decreasing start order; SortEncounters restores the invariant
// if a producer violated it.
type Record struct {
	Patient    *Patient     `json:"patient"`
	Encounters []*Encounter `json:"encounters,omitempty"`

	nextRef int
}

// SortEncounters stable-sorts the encounter list by start time. Aggregation
// and mapping both call this defensively: both early-exit on the first
// out-of-range encounter and would silently drop data from an unsorted list.
func (r *Record) SortEncounters() {
	sort.SliceStable(r.Encounters, func(i, j int) bool {
		return r.Encounters[i].Start < r.Encounters[j].Start
	})
}

// Normalize assigns a stable Ref index to every entry that does not have
// one yet, walking the record in deterministic order, and sorts encounters
// chronologically. It is idempotent; exporters call it before mapping so
// the identifier table can key on entry indices.
func (r *Record) Normalize() {
	r.SortEncounters()
	r.walkEntries(func(e *Entry) {
		if e.Ref > r.nextRef {
			r.nextRef = e.Ref
		}
	})
	r.walkEntries(r.assign)
}

// walkEntries visits every entry in the record in deterministic order:
// encounter by encounter, fact lists in a fixed sequence, panel members
// immediately after their parent observation.
func (r *Record) walkEntries(visit func(*Entry)) {
	for _, enc := range r.Encounters {
		visit(&enc.Entry)
		for _, e := range enc.Conditions {
			visit(&e.Entry)
		}
		for _, e := range enc.Allergies {
			visit(&e.Entry)
		}
		for _, e := range enc.Observations {
			visit(&e.Entry)
			if panel, ok := e.Value.(Panel); ok {
				for _, m := range panel.Members {
					visit(&m.Entry)
				}
			}
		}
		for _, e := range enc.Procedures {
			visit(&e.Entry)
		}
		for _, e := range enc.Devices {
			visit(&e.Entry)
		}
		for _, e := range enc.Medications {
			visit(&e.Entry)
		}
		for _, e := range enc.Immunizations {
			visit(&e.Entry)
		}
		for _, e := range enc.Reports {
			visit(&e.Entry)
		}
		for _, e := range enc.CarePlans {
			visit(&e.Entry)
		}
		for _, e := range enc.ImagingStudies {
			visit(&e.Entry)
		}
	}
}

func (r *Record) assign(e *Entry) {
	if e.Ref != 0 {
		return
	}
	r.nextRef++
	e.Ref = r.nextRef
}
