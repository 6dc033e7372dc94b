package fhir

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/terminology"
)

// Mapper walks a patient record and emits a cross-referenced FHIR bundle.
// A Mapper is immutable configuration and safe for concurrent use; all
// per-export state lives in the Document it returns.
type Mapper struct {
	Version     Version
	Terminology *terminology.Registry
	Logger      zerolog.Logger
}

// NewMapper returns a mapper for the given wire version. The terminology
// registry may be nil when records carry no value-set placeholders.
func NewMapper(v Version, reg *terminology.Registry, logger zerolog.Logger) *Mapper {
	return &Mapper{Version: v, Terminology: reg, Logger: logger}
}

// Document is the result of one export call: the bundle, the identifier
// table (exposed for tests and debugging) and the per-entry outcome.
type Document struct {
	Bundle  *Bundle
	Refs    *export.Resolver
	Outcome export.Outcome

	// conditionRefs lets later entries (procedures, care plans) reference
	// the condition that motivated them by its primary code.
	conditionRefs map[string]Reference
}

// add appends a resource to the bundle under the given full URL.
func (d *Document) add(fullURL string, res interface{}) {
	d.Bundle.Entry = append(d.Bundle.Entry, BundleEntry{FullURL: fullURL, Resource: res})
}

// MapPatient converts the record into a FHIR bundle containing everything
// known at stopTime. Entry-level failures are skipped and reported through
// the document outcome; only a failure building the root patient resource
// aborts the export.
func (m *Mapper) MapPatient(rec *record.Record, stopTime int64) (*Document, error) {
	rec.Normalize()

	doc := &Document{
		Bundle:        &Bundle{ResourceType: "Bundle", Type: "collection"},
		Refs:          export.NewResolver(),
		conditionRefs: make(map[string]Reference),
	}

	patientRef, err := m.patient(doc, rec.Patient, stopTime)
	if err != nil {
		return nil, export.Errf(export.FatalPatientMapping, "patient resource: %v", err)
	}

	seed := rec.Patient.Seed
	logger := m.Logger.With().Str("patient_id", rec.Patient.ID).Logger()

	for _, enc := range rec.Encounters {
		if enc.Start > stopTime {
			break
		}
		encRef := m.encounter(doc, rec.Patient, patientRef, enc, seed)

		for _, c := range enc.Conditions {
			m.mapEntry(doc, logger, "condition", &c.Entry, func() error {
				return m.condition(doc, patientRef, encRef, c, seed)
			})
		}
		for _, a := range enc.Allergies {
			m.mapEntry(doc, logger, "allergy", &a.Entry, func() error {
				return m.allergy(doc, patientRef, a, seed)
			})
		}
		for _, o := range enc.Observations {
			m.mapEntry(doc, logger, "observation", &o.Entry, func() error {
				return m.observation(doc, patientRef, encRef, o, seed)
			})
		}
		for _, p := range enc.Procedures {
			m.mapEntry(doc, logger, "procedure", &p.Entry, func() error {
				return m.procedure(doc, patientRef, encRef, p, seed)
			})
		}
		for _, dev := range enc.Devices {
			m.mapEntry(doc, logger, "device", &dev.Entry, func() error {
				return m.device(doc, patientRef, dev, seed)
			})
		}
		for _, med := range enc.Medications {
			m.mapEntry(doc, logger, "medication", &med.Entry, func() error {
				return m.medication(doc, patientRef, encRef, med, seed)
			})
		}
		for _, imm := range enc.Immunizations {
			m.mapEntry(doc, logger, "immunization", &imm.Entry, func() error {
				return m.immunization(doc, patientRef, encRef, imm, seed)
			})
		}
		for _, rep := range enc.Reports {
			m.mapEntry(doc, logger, "report", &rep.Entry, func() error {
				return m.report(doc, patientRef, encRef, rep, seed)
			})
		}
		for _, cp := range enc.CarePlans {
			m.mapEntry(doc, logger, "careplan", &cp.Entry, func() error {
				return m.carePlan(doc, patientRef, encRef, cp, seed)
			})
		}
		for _, study := range enc.ImagingStudies {
			m.mapEntry(doc, logger, "imagingstudy", &study.Entry, func() error {
				return m.imagingStudy(doc, patientRef, encRef, study)
			})
		}

		m.encounterClaim(doc, rec.Patient, patientRef, encRef, enc, seed)

		for _, med := range enc.Medications {
			if med.Dispensed {
				m.medicationClaim(doc, rec.Patient, patientRef, encRef, med, seed)
			}
		}
	}

	return doc, nil
}

// mapEntry runs one entry mapping and folds the result into the outcome.
// Mapping failures never abort sibling entries or the encounter loop.
func (m *Mapper) mapEntry(doc *Document, logger zerolog.Logger, entryType string, e *record.Entry, fn func() error) {
	if err := fn(); err != nil {
		doc.Outcome.SkipEntry(logger, entryType, e.Ref, err)
		return
	}
	doc.Outcome.Success()
}

// concept resolves a possible value-set placeholder and maps the code into
// a CodeableConcept with the given default system.
func (m *Mapper) concept(code record.Code, defaultSystem string, seed int64) (CodeableConcept, error) {
	if code.ValueSet != "" {
		if m.Terminology == nil {
			return CodeableConcept{}, export.Errf(export.UnknownValueSet, "no terminology registry for value set %q", code.ValueSet)
		}
		resolved, err := m.Terminology.ResolveCode(code, seed)
		if err != nil {
			return CodeableConcept{}, err
		}
		code = resolved
	}
	c, err := export.MapConcept(code, defaultSystem)
	if err != nil {
		return CodeableConcept{}, err
	}
	return CodeableConcept{
		Coding: []Coding{{System: c.System, Code: c.Code, Display: c.Display}},
		Text:   c.Display,
	}, nil
}

// concepts maps all codes of an entry; the first code decides the text.
func (m *Mapper) concepts(codes []record.Code, defaultSystem string, seed int64) (CodeableConcept, error) {
	if len(codes) == 0 {
		return CodeableConcept{}, export.Errf(export.MissingCodeSystem, "entry has no codes")
	}
	cc, err := m.concept(codes[0], defaultSystem, seed)
	if err != nil {
		return CodeableConcept{}, err
	}
	for _, extra := range codes[1:] {
		c, err := m.concept(extra, defaultSystem, seed)
		if err != nil {
			return CodeableConcept{}, err
		}
		cc.Coding = append(cc.Coding, c.Coding...)
	}
	return cc, nil
}

// contextRefs splits an encounter reference into the version-appropriate
// field pair: (encounter, context).
func (m *Mapper) contextRefs(r Reference) (*Reference, *Reference) {
	ref := r
	if m.Version.usesContext() {
		return nil, &ref
	}
	return &ref, nil
}

// period maps an entry's start/stop into a FHIR period. An unset stop
// yields an open period; FHIR does not require a bounded one.
func period(start, stop int64) *Period {
	p := &Period{Start: export.DateTime(start)}
	if stop != 0 {
		p.End = export.DateTime(stop)
	}
	return p
}

func gender(g string) string {
	switch g {
	case "M", "male":
		return "male"
	case "F", "female":
		return "female"
	default:
		return "unknown"
	}
}

// patient emits the root demographic resource. Any failure here is fatal
// to the whole export: without a patient identity there is no document.
func (m *Mapper) patient(doc *Document, p *record.Patient, stopTime int64) (Reference, error) {
	if p == nil {
		return Reference{}, fmt.Errorf("record has no patient")
	}
	if p.ID == "" {
		return Reference{}, fmt.Errorf("patient has no identifier")
	}

	res := &Patient{
		ResourceType: "Patient",
		ID:           p.ID,
		Gender:       gender(p.Gender),
		BirthDate:    export.DateOnly(p.BirthTime),
		Name: []HumanName{{
			Use:    "official",
			Family: p.LastName,
			Given:  []string{p.FirstName},
		}},
		Address: []Address{{
			Line:       []string{p.Address.Line},
			City:       p.Address.City,
			State:      p.Address.State,
			PostalCode: p.Address.PostalCode,
			Country:    p.Address.Country,
		}},
	}
	if p.Prefix != "" {
		res.Name[0].Prefix = []string{p.Prefix}
	}

	idType := func(code, display string) *CodeableConcept {
		return &CodeableConcept{Coding: []Coding{{
			System:  "http://terminology.hl7.org/CodeSystem/v2-0203",
			Code:    code,
			Display: display,
		}}, Text: display}
	}
	res.Identifier = append(res.Identifier, Identifier{
		System: "https://github.com/medsim/exporter",
		Value:  p.ID,
	})
	if p.MRN != "" {
		res.Identifier = append(res.Identifier, Identifier{
			Type:   idType("MR", "Medical Record Number"),
			System: "http://hospital.medsim.org",
			Value:  p.MRN,
		})
	}
	if p.SSN != "" {
		res.Identifier = append(res.Identifier, Identifier{
			Type:   idType("SS", "Social Security Number"),
			System: "http://hl7.org/fhir/sid/us-ssn",
			Value:  p.SSN,
		})
	}
	if p.DriversID != "" {
		res.Identifier = append(res.Identifier, Identifier{
			Type:   idType("DL", "Driver's License"),
			System: "urn:oid:2.16.840.1.113883.4.3.25",
			Value:  p.DriversID,
		})
	}
	if p.PassportID != "" {
		res.Identifier = append(res.Identifier, Identifier{
			Type:   idType("PPN", "Passport Number"),
			System: "http://hl7.org/fhir/sid/passport-USA",
			Value:  p.PassportID,
		})
	}

	if p.MaritalStatus != "" {
		res.MaritalStatus = &CodeableConcept{
			Coding: []Coding{{
				System: "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus",
				Code:   p.MaritalStatus,
			}},
			Text: p.MaritalStatus,
		}
	}
	if p.Language != "" {
		res.Communication = []Communication{{
			Language: CodeableConcept{Text: p.Language},
		}}
	}
	if p.DeathTime != 0 && p.DeathTime <= stopTime {
		res.DeceasedDateTime = export.DateTime(p.DeathTime)
	}

	fullURL := "urn:uuid:" + p.ID
	doc.add(fullURL, res)
	return Reference{Reference: fullURL, Display: p.FirstName + " " + p.LastName}, nil
}

func (m *Mapper) encounter(doc *Document, p *record.Patient, patientRef Reference, enc *record.Encounter, seed int64) Reference {
	id := doc.Refs.Assign(enc.Ref)
	res := &Encounter{
		ResourceType: "Encounter",
		ID:           id,
		Status:       "finished",
		Period:       period(enc.Start, enc.Stop),
	}

	class := enc.EncounterType.Class()
	if m.Version == DSTU2 {
		res.Class = class
	} else {
		res.Class = Coding{
			System: "http://terminology.hl7.org/CodeSystem/v3-ActCode",
			Code:   class,
		}
	}

	if m.Version == DSTU2 {
		ref := patientRef
		res.Patient = &ref
	} else {
		ref := patientRef
		res.Subject = &ref
	}

	if cc, err := m.concepts(enc.Codes, export.SNOMEDURI, seed); err == nil {
		res.Type = []CodeableConcept{cc}
	}
	if enc.Reason != nil {
		if cc, err := m.concept(*enc.Reason, export.SNOMEDURI, seed); err == nil {
			res.ReasonCode = []CodeableConcept{cc}
		}
	}
	if enc.Provider != "" {
		res.Provider = &Reference{Display: enc.Provider}
	}

	fullURL := "urn:uuid:" + id
	doc.add(fullURL, res)
	return Reference{Reference: fullURL}
}

func (m *Mapper) condition(doc *Document, patientRef, encRef Reference, c *record.Condition, seed int64) error {
	cc, err := m.concepts(c.Codes, export.SNOMEDURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(c.Ref)
	subject := patientRef
	res := &Condition{
		ResourceType:  "Condition",
		ID:            id,
		Code:          &cc,
		Subject:       &subject,
		OnsetDateTime: export.DateTime(c.Start),
		RecordedDate:  export.DateTime(c.Start),
		VerificationStatus: &CodeableConcept{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/condition-ver-status",
			Code:   "confirmed",
		}}},
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	status := "active"
	if c.Stop != 0 {
		status = "resolved"
		res.AbatementDateTime = export.DateTime(c.Stop)
	}
	res.ClinicalStatus = &CodeableConcept{Coding: []Coding{{
		System: "http://terminology.hl7.org/CodeSystem/condition-clinical",
		Code:   status,
	}}}

	fullURL := "urn:uuid:" + id
	doc.add(fullURL, res)
	if len(cc.Coding) > 0 {
		doc.conditionRefs[cc.Coding[0].Code] = Reference{Reference: fullURL, Display: cc.Coding[0].Display}
	}
	return nil
}

func (m *Mapper) allergy(doc *Document, patientRef Reference, a *record.Allergy, seed int64) error {
	cc, err := m.concepts(a.Codes, export.SNOMEDURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(a.Ref)
	patient := patientRef
	status := "active"
	if a.Stop != 0 {
		status = "inactive"
	}
	res := &AllergyIntolerance{
		ResourceType: "AllergyIntolerance",
		ID:           id,
		Type:         "allergy",
		Code:         &cc,
		Patient:      &patient,
		RecordedDate: export.DateTime(a.Start),
		ClinicalStatus: &CodeableConcept{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical",
			Code:   status,
		}}},
	}
	doc.add("urn:uuid:"+id, res)
	return nil
}

// observation maps one observation, dispatching on the value variant.
// A panel expands into components; panel members never nest further.
func (m *Mapper) observation(doc *Document, patientRef, encRef Reference, o *record.Observation, seed int64) error {
	cc, err := m.concepts(o.Codes, export.LOINCURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(o.Ref)
	subject := patientRef
	res := &Observation{
		ResourceType:      "Observation",
		ID:                id,
		Status:            "final",
		Code:              &cc,
		Subject:           &subject,
		EffectiveDateTime: export.DateTime(o.Start),
		Issued:            export.DateTime(o.Start),
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	if o.Category != "" {
		res.Category = []CodeableConcept{{Coding: []Coding{{
			System: "http://terminology.hl7.org/CodeSystem/observation-category",
			Code:   o.Category,
		}}}}
	}

	switch v := o.Value.(type) {
	case nil:
		// No result: the value field is omitted entirely.
	case record.Coded:
		vc, err := m.concept(v.Code, export.SNOMEDURI, seed)
		if err != nil {
			return err
		}
		res.ValueCodeableConcept = &vc
	case record.Numeric:
		res.ValueQuantity = quantity(v.Value, o.Unit)
	case record.Text:
		res.ValueString = v.Value
	case record.Panel:
		for _, member := range v.Members {
			comp, err := m.panelComponent(member, seed)
			if err != nil {
				return err
			}
			res.Component = append(res.Component, comp)
		}
	default:
		return export.Errf(export.UnsupportedObservationValue, "observation value %T has no serialization", o.Value)
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}

func (m *Mapper) panelComponent(member *record.Observation, seed int64) (ObservationComponent, error) {
	cc, err := m.concepts(member.Codes, export.LOINCURI, seed)
	if err != nil {
		return ObservationComponent{}, err
	}
	comp := ObservationComponent{Code: cc}
	switch v := member.Value.(type) {
	case nil:
	case record.Coded:
		vc, err := m.concept(v.Code, export.SNOMEDURI, seed)
		if err != nil {
			return ObservationComponent{}, err
		}
		comp.ValueCodeableConcept = &vc
	case record.Numeric:
		comp.ValueQuantity = quantity(v.Value, member.Unit)
	case record.Text:
		comp.ValueString = v.Value
	default:
		// Panels hold leaf values only; a nested panel is unsupported.
		return ObservationComponent{}, export.Errf(export.UnsupportedObservationValue, "panel member value %T has no serialization", member.Value)
	}
	return comp, nil
}

func quantity(value float64, unit string) *Quantity {
	v := value
	return &Quantity{Value: &v, Unit: unit, System: export.UCUMURI, Code: unit}
}

func (m *Mapper) procedure(doc *Document, patientRef, encRef Reference, p *record.Procedure, seed int64) error {
	cc, err := m.concepts(p.Codes, export.SNOMEDURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(p.Ref)
	subject := patientRef
	res := &Procedure{
		ResourceType: "Procedure",
		ID:           id,
		Status:       "completed",
		Code:         &cc,
		Subject:      &subject,
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	if p.Stop != 0 {
		res.PerformedPeriod = period(p.Start, p.Stop)
	} else {
		res.PerformedDateTime = export.DateTime(p.Start)
	}
	for _, reason := range p.Reasons {
		if ref, ok := doc.conditionRefs[reason.Code]; ok {
			res.ReasonReference = append(res.ReasonReference, ref)
		}
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}

func (m *Mapper) device(doc *Document, patientRef Reference, dev *record.Device, seed int64) error {
	cc, err := m.concepts(dev.Codes, export.SNOMEDURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(dev.Ref)
	patient := patientRef
	res := &Device{
		ResourceType:       "Device",
		ID:                 id,
		Status:             "active",
		DistinctIdentifier: dev.UDI,
		Manufacturer:       dev.Manufacturer,
		ModelNumber:        dev.Model,
		Type:               &cc,
		Patient:            &patient,
	}
	doc.add("urn:uuid:"+id, res)
	return nil
}

func (m *Mapper) medication(doc *Document, patientRef, encRef Reference, med *record.Medication, seed int64) error {
	cc, err := m.concepts(med.Codes, export.RxNormURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(med.Ref)
	res := &MedicationRequest{
		ResourceType:              m.Version.medicationResourceType(),
		ID:                        id,
		Intent:                    "order",
		MedicationCodeableConcept: &cc,
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	if m.Version == DSTU2 {
		ref := patientRef
		res.Patient = &ref
		res.DateWritten = export.DateTime(med.Start)
	} else {
		ref := patientRef
		res.Subject = &ref
		res.AuthoredOn = export.DateTime(med.Start)
	}

	res.Status = "active"
	if med.Stop != 0 {
		res.Status = "stopped"
	}

	for _, reason := range med.Reasons {
		if ref, ok := doc.conditionRefs[reason.Code]; ok {
			res.ReasonReference = append(res.ReasonReference, ref)
		}
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}

func (m *Mapper) immunization(doc *Document, patientRef, encRef Reference, imm *record.Immunization, seed int64) error {
	cc, err := m.concepts(imm.Codes, export.CVXURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(imm.Ref)
	patient := patientRef
	primary := true
	res := &Immunization{
		ResourceType:  "Immunization",
		ID:            id,
		Status:        "completed",
		VaccineCode:   &cc,
		Patient:       &patient,
		PrimarySource: &primary,
	}
	if enc, _ := m.contextRefs(encRef); enc != nil {
		res.Encounter = enc
	} else {
		ref := encRef
		res.Encounter = &ref
	}
	if m.Version == R4 {
		res.OccurrenceDateTime = export.DateTime(imm.Start)
	} else {
		res.Date = export.DateTime(imm.Start)
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}

// report emits a DiagnosticReport whose results reference observations
// emitted earlier in the same encounter. A result observation that was
// never emitted is an ordering bug and surfaces as UnresolvedReference.
func (m *Mapper) report(doc *Document, patientRef, encRef Reference, rep *record.Report, seed int64) error {
	cc, err := m.concepts(rep.Codes, export.LOINCURI, seed)
	if err != nil {
		return err
	}

	var results []Reference
	for _, obs := range rep.Results {
		id, err := doc.Refs.Lookup(obs.Ref)
		if err != nil {
			return err
		}
		display := ""
		if code, ok := obs.PrimaryCode(); ok {
			display = code.Display
		}
		results = append(results, Reference{Reference: "urn:uuid:" + id, Display: display})
	}

	id := doc.Refs.Assign(rep.Ref)
	subject := patientRef
	res := &DiagnosticReport{
		ResourceType:      "DiagnosticReport",
		ID:                id,
		Status:            "final",
		Code:              &cc,
		Subject:           &subject,
		EffectiveDateTime: export.DateTime(rep.Start),
		Issued:            export.DateTime(rep.Start),
		Result:            results,
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	doc.add("urn:uuid:"+id, res)
	return nil
}

func (m *Mapper) carePlan(doc *Document, patientRef, encRef Reference, cp *record.CarePlan, seed int64) error {
	cc, err := m.concepts(cp.Codes, export.SNOMEDURI, seed)
	if err != nil {
		return err
	}

	id := doc.Refs.Assign(cp.Ref)
	subject := patientRef
	status := "active"
	if cp.Stop != 0 {
		status = "completed"
	}
	res := &CarePlan{
		ResourceType: "CarePlan",
		ID:           id,
		Status:       status,
		Intent:       "order",
		Category:     []CodeableConcept{cc},
		Subject:      &subject,
		Period:       period(cp.Start, cp.Stop),
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	for _, activity := range cp.Activities {
		ac, err := m.concept(activity, export.SNOMEDURI, seed)
		if err != nil {
			return err
		}
		res.Activity = append(res.Activity, CarePlanActivity{
			Detail: &CarePlanDetail{Code: &ac, Status: detailStatus(status)},
		})
	}
	for _, reason := range cp.Reasons {
		if ref, ok := doc.conditionRefs[reason.Code]; ok {
			res.Addresses = append(res.Addresses, ref)
		}
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}

func detailStatus(planStatus string) string {
	if planStatus == "completed" {
		return "completed"
	}
	return "in-progress"
}

func (m *Mapper) imagingStudy(doc *Document, patientRef, encRef Reference, study *record.ImagingStudy) error {
	id := doc.Refs.Assign(study.Ref)
	subject := patientRef
	res := &ImagingStudy{
		ResourceType: "ImagingStudy",
		ID:           id,
		Status:       "available",
		Identifier:   []Identifier{{System: "urn:dicom:uid", Value: "urn:oid:" + study.DicomUID}},
		Subject:      &subject,
		Started:      export.DateTime(study.Start),
	}
	res.Encounter, res.Context = m.contextRefs(encRef)

	for _, series := range study.Series {
		s := ImagingStudySeries{
			UID: series.DicomUID,
			Modality: Coding{
				System:  export.DICOMURI,
				Code:    series.Modality.Code,
				Display: series.Modality.Display,
			},
		}
		if series.BodySite.Code != "" {
			s.BodySite = &Coding{
				System:  export.SNOMEDURI,
				Code:    series.BodySite.Code,
				Display: series.BodySite.Display,
			}
		}
		for _, inst := range series.Instances {
			s.Instance = append(s.Instance, ImagingStudyInstance{
				UID:      inst.DicomUID,
				Title:    inst.Title,
				SOPClass: Coding{System: "urn:ietf:rfc:3986", Code: inst.SOPClass.Code, Display: inst.SOPClass.Display},
			})
		}
		res.Series = append(res.Series, s)
	}

	doc.add("urn:uuid:"+id, res)
	return nil
}
