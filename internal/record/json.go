package record

import (
	"encoding/json"
	"fmt"
)

// Wire representation notes: the Observation value union serialises as one
// of valueCoded / valueNumeric / valueText / members, and a Report's result
// observations serialise as indexes into the owning encounter's observation
// list so relinking on load is unambiguous.

type observationWire struct {
	Entry
	Unit         string         `json:"unit,omitempty"`
	Category     string         `json:"category,omitempty"`
	ValueCoded   *Code          `json:"valueCoded,omitempty"`
	ValueNumeric *float64       `json:"valueNumeric,omitempty"`
	ValueText    *string        `json:"valueText,omitempty"`
	Members      []*Observation `json:"members,omitempty"`
}

// MarshalJSON implements json.Marshaler for the observation value union.
func (o *Observation) MarshalJSON() ([]byte, error) {
	w := observationWire{Entry: o.Entry, Unit: o.Unit, Category: o.Category}
	switch v := o.Value.(type) {
	case nil:
	case Coded:
		code := v.Code
		w.ValueCoded = &code
	case Numeric:
		val := v.Value
		w.ValueNumeric = &val
	case Text:
		txt := v.Value
		w.ValueText = &txt
	case Panel:
		w.Members = v.Members
	default:
		return nil, fmt.Errorf("record: cannot serialize observation value %T", o.Value)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler for the observation value union.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var w observationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.Entry = w.Entry
	o.Unit = w.Unit
	o.Category = w.Category
	switch {
	case w.ValueCoded != nil:
		o.Value = Coded{Code: *w.ValueCoded}
	case w.ValueNumeric != nil:
		o.Value = Numeric{Value: *w.ValueNumeric}
	case w.ValueText != nil:
		o.Value = Text{Value: *w.ValueText}
	case len(w.Members) > 0:
		o.Value = Panel{Members: w.Members}
	default:
		o.Value = nil
	}
	return nil
}

type reportWire struct {
	Entry
	// Results holds indexes into the owning encounter's observation list.
	Results []int `json:"results,omitempty"`
}

type encounterWire struct {
	Entry
	EncounterType EncounterType `json:"encounterType,omitempty"`
	Reason        *Code         `json:"reason,omitempty"`
	Discharge     *Code         `json:"discharge,omitempty"`
	Provider      string        `json:"provider,omitempty"`

	Conditions     []*Condition    `json:"conditions,omitempty"`
	Allergies      []*Allergy      `json:"allergies,omitempty"`
	Observations   []*Observation  `json:"observations,omitempty"`
	Procedures     []*Procedure    `json:"procedures,omitempty"`
	Devices        []*Device       `json:"devices,omitempty"`
	Medications    []*Medication   `json:"medications,omitempty"`
	Immunizations  []*Immunization `json:"immunizations,omitempty"`
	Reports        []reportWire    `json:"reports,omitempty"`
	CarePlans      []*CarePlan     `json:"carePlans,omitempty"`
	ImagingStudies []*ImagingStudy `json:"imagingStudies,omitempty"`
	Claim          *Claim          `json:"claim,omitempty"`
}

// MarshalJSON implements json.Marshaler, encoding report results as
// observation indexes.
func (e *Encounter) MarshalJSON() ([]byte, error) {
	w := encounterWire{
		Entry:          e.Entry,
		EncounterType:  e.EncounterType,
		Reason:         e.Reason,
		Discharge:      e.Discharge,
		Provider:       e.Provider,
		Conditions:     e.Conditions,
		Allergies:      e.Allergies,
		Observations:   e.Observations,
		Procedures:     e.Procedures,
		Devices:        e.Devices,
		Medications:    e.Medications,
		Immunizations:  e.Immunizations,
		CarePlans:      e.CarePlans,
		ImagingStudies: e.ImagingStudies,
		Claim:          e.Claim,
	}
	for _, rep := range e.Reports {
		rw := reportWire{Entry: rep.Entry}
		for _, res := range rep.Results {
			for i, obs := range e.Observations {
				if obs == res {
					rw.Results = append(rw.Results, i)
					break
				}
			}
		}
		w.Reports = append(w.Reports, rw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler, relinking report results to
// the encounter's observations.
func (e *Encounter) UnmarshalJSON(data []byte) error {
	var w encounterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Entry = w.Entry
	e.EncounterType = w.EncounterType
	e.Reason = w.Reason
	e.Discharge = w.Discharge
	e.Provider = w.Provider
	e.Conditions = w.Conditions
	e.Allergies = w.Allergies
	e.Observations = w.Observations
	e.Procedures = w.Procedures
	e.Devices = w.Devices
	e.Medications = w.Medications
	e.Immunizations = w.Immunizations
	e.CarePlans = w.CarePlans
	e.ImagingStudies = w.ImagingStudies
	e.Claim = w.Claim

	e.Reports = nil
	for _, rw := range w.Reports {
		rep := &Report{Entry: rw.Entry}
		for _, idx := range rw.Results {
			if idx < 0 || idx >= len(e.Observations) {
				return fmt.Errorf("record: report result index %d out of range", idx)
			}
			rep.Results = append(rep.Results, e.Observations[idx])
		}
		e.Reports = append(e.Reports, rep)
	}
	return nil
}

// claimItemWire carries the item kind and cost plus the ref of the backing
// entry; relinking happens against the record after load.
type claimItemWire struct {
	Kind     ClaimItemKind `json:"kind"`
	EntryRef int           `json:"entryRef,omitempty"`
	Cost     Money         `json:"cost"`
}

// MarshalJSON implements json.Marshaler for claim items. The record must be
// normalized first so backing entries carry refs.
func (ci ClaimItem) MarshalJSON() ([]byte, error) {
	w := claimItemWire{Kind: ci.Kind, Cost: ci.Cost}
	if ci.Entry != nil {
		w.EntryRef = ci.Entry.Ref
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler for claim items. The backing
// entry pointer is restored by Record.Relink.
func (ci *ClaimItem) UnmarshalJSON(data []byte) error {
	var w claimItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ci.Kind = w.Kind
	ci.Cost = w.Cost
	if w.EntryRef != 0 {
		ci.Entry = &Entry{Ref: w.EntryRef}
	}
	return nil
}

// Relink restores claim item entry pointers from their serialized refs.
// Callers load a record with json.Unmarshal and then call Relink once.
func (r *Record) Relink() error {
	byRef := make(map[int]*Entry)
	r.walkEntries(func(e *Entry) {
		if e.Ref != 0 {
			byRef[e.Ref] = e
		}
	})
	relink := func(c *Claim) error {
		if c == nil {
			return nil
		}
		for i, item := range c.Items {
			if item.Entry == nil {
				continue
			}
			target, ok := byRef[item.Entry.Ref]
			if !ok {
				return fmt.Errorf("record: claim item references unknown entry ref %d", item.Entry.Ref)
			}
			c.Items[i].Entry = target
		}
		return nil
	}
	for _, enc := range r.Encounters {
		if err := relink(enc.Claim); err != nil {
			return err
		}
		for _, med := range enc.Medications {
			if err := relink(med.Claim); err != nil {
				return err
			}
		}
	}
	return nil
}
