package fhir

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
)

func amount(m record.Money) *Amount {
	return &Amount{Value: json.Number(m.String()), Currency: "USD"}
}

func claimType(class string) *CodeableConcept {
	code := "institutional"
	if class == "AMB" {
		code = "professional"
	}
	return &CodeableConcept{Coding: []Coding{{
		System: "http://terminology.hl7.org/CodeSystem/claim-type",
		Code:   code,
	}}}
}

// encounterClaim emits the billing resource for one encounter. Every
// encounter gets a claim, billable items or not: line item 1 always bills
// the visit itself and itemized entries follow from sequence 2. Procedure
// and diagnosis cross-reference sequences each count from 1 independently
// of the item sequence.
func (m *Mapper) encounterClaim(doc *Document, p *record.Patient, patientRef, encRef Reference, enc *record.Encounter, seed int64) {
	res := &Claim{
		ResourceType:   "Claim",
		ID:             uuid.NewString(),
		Status:         "active",
		Type:           claimType(enc.EncounterType.Class()),
		Use:            "claim",
		BillablePeriod: period(enc.Start, enc.Stop),
		Created:        export.DateTime(claimCreated(enc.Start, enc.Stop)),
		Priority: &CodeableConcept{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/processpriority",
			Code:   "normal",
		}}},
		Insurance: []ClaimInsurance{{Sequence: 1, Focal: true}},
	}
	patient := patientRef
	res.Patient = &patient
	if enc.Provider != "" {
		res.Provider = &Reference{Display: enc.Provider}
	}

	visit := ClaimLineItem{Sequence: 1, Encounter: []Reference{encRef}}
	if cc, err := m.concepts(enc.Codes, export.SNOMEDURI, seed); err == nil {
		m.setItemConcept(&visit, cc)
	}
	res.Item = append(res.Item, visit)

	itemSeq := 2
	procSeq := 1
	diagSeq := 1
	var claim *record.Claim
	if enc.Claim != nil {
		claim = enc.Claim
	} else {
		claim = &record.Claim{}
	}
	for _, item := range claim.Items {
		if item.Entry == nil {
			continue
		}
		ref, err := doc.Refs.Lookup(item.Entry.Ref)
		if err != nil {
			// The billed entry was skipped during mapping; its line item
			// goes with it so the claim never dangles.
			continue
		}
		line := ClaimLineItem{Sequence: itemSeq}
		if cc, err := m.concepts(item.Entry.Codes, export.SNOMEDURI, seed); err == nil {
			m.setItemConcept(&line, cc)
		}
		switch item.Kind {
		case record.ItemProcedure:
			res.Procedure = append(res.Procedure, ClaimProcedure{
				Sequence:           procSeq,
				ProcedureReference: Reference{Reference: "urn:uuid:" + ref},
			})
			line.ProcedureSequence = []int{procSeq}
			line.Net = amount(item.Cost)
			procSeq++
		case record.ItemDiagnosis:
			res.Diagnosis = append(res.Diagnosis, ClaimDiagnosis{
				Sequence:           diagSeq,
				DiagnosisReference: Reference{Reference: "urn:uuid:" + ref},
			})
			line.DiagnosisSequence = []int{diagSeq}
			diagSeq++
		}
		res.Item = append(res.Item, line)
		itemSeq++
	}
	res.Total = amount(claim.Total())

	doc.add("urn:uuid:"+res.ID, res)
}

// medicationClaim emits a pharmacy claim for one dispensed medication,
// referencing the prescription resource emitted earlier in the encounter.
func (m *Mapper) medicationClaim(doc *Document, p *record.Patient, patientRef, encRef Reference, med *record.Medication, seed int64) {
	medID, err := doc.Refs.Lookup(med.Ref)
	if err != nil {
		// The prescription itself was skipped; nothing to bill against.
		return
	}

	res := &Claim{
		ResourceType: "Claim",
		ID:           uuid.NewString(),
		Status:       "active",
		Type: &CodeableConcept{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/claim-type",
			Code:   "pharmacy",
		}}},
		Use:            "claim",
		BillablePeriod: period(med.Start, med.Stop),
		Created:        export.DateTime(med.Start),
		Priority: &CodeableConcept{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/processpriority",
			Code:   "normal",
		}}},
		Prescription: &Reference{Reference: "urn:uuid:" + medID},
		Insurance:    []ClaimInsurance{{Sequence: 1, Focal: true}},
	}
	patient := patientRef
	res.Patient = &patient

	line := ClaimLineItem{Sequence: 1, Encounter: []Reference{encRef}, Net: amount(med.Cost)}
	if cc, err := m.concepts(med.Codes, export.RxNormURI, seed); err == nil {
		m.setItemConcept(&line, cc)
	}
	res.Item = append(res.Item, line)

	total := med.Cost
	if med.Claim != nil {
		itemSeq := 2
		for _, item := range med.Claim.Items {
			extra := ClaimLineItem{Sequence: itemSeq, Net: amount(item.Cost)}
			if item.Entry != nil {
				if cc, err := m.concepts(item.Entry.Codes, export.SNOMEDURI, seed); err == nil {
					m.setItemConcept(&extra, cc)
				}
			}
			res.Item = append(res.Item, extra)
			total += item.Cost
			itemSeq++
		}
	}
	res.Total = amount(total)

	doc.add("urn:uuid:"+res.ID, res)
}

// setItemConcept stores the billed concept under the version's field name.
func (m *Mapper) setItemConcept(item *ClaimLineItem, cc CodeableConcept) {
	if m.Version == R4 {
		item.ProductOrService = &cc
	} else {
		item.Service = &cc
	}
}

// claimCreated picks the claim creation instant. Claims are created when
// the visit ends; an open visit bills at its start.
func claimCreated(start, stop int64) int64 {
	if stop != 0 {
		return stop
	}
	return start
}
