package ccda

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/terminology"
)

// fifteenMinutes pads an open encounter so the encounters section always
// shows a bounded interval.
const fifteenMinutes = 15 * 60 * 1000

// Generator creates C-CDA 2.1 CCD documents from patient records. It is
// safe for concurrent use because it holds only immutable configuration.
type Generator struct {
	orgName     string
	orgOID      string
	terminology *terminology.Registry
	logger      zerolog.Logger
}

// NewGenerator creates a new C-CDA generator. The terminology registry may
// be nil when records carry no value-set placeholders.
func NewGenerator(orgName, orgOID string, reg *terminology.Registry, logger zerolog.Logger) *Generator {
	return &Generator{orgName: orgName, orgOID: orgOID, terminology: reg, logger: logger}
}

// GenerateCCD produces a complete CCD XML document summarizing the record
// as of stopTime. All facts across encounters are merged into one snapshot
// before sectioning; sections with no data are omitted.
func (g *Generator) GenerateCCD(rec *record.Record, stopTime int64) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("ccda: record is nil")
	}
	if rec.Patient == nil || rec.Patient.ID == "" {
		return nil, fmt.Errorf("ccda: patient identity is required")
	}

	doc := g.buildDocument(rec, stopTime)

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ccda: failed to marshal XML: %w", err)
	}

	header := []byte(xml.Header)
	result := make([]byte, len(header)+len(output))
	copy(result, header)
	copy(result[len(header):], output)
	return result, nil
}

// buildDocument constructs the full ClinicalDocument. The document time is
// the export cutoff, not the wall clock, so repeated exports of the same
// record at the same cutoff produce the same header.
func (g *Generator) buildDocument(rec *record.Record, stopTime int64) *ClinicalDocument {
	docTime := export.HL7Timestamp(stopTime)

	doc := &ClinicalDocument{
		XSI:       XSINamespace,
		SDTC:      SDTCNamespace,
		RealmCode: &Code{Code: "US"},
		TypeID: &TypeID{
			Root:      "2.16.840.1.113883.1.3",
			Extension: "POCD_HD000040",
		},
		TemplateIDs: []TemplateID{
			{Root: OIDUSRealmHeader},
			{Root: OIDCCDDocument},
		},
		ID: &InstanceID{Root: uuid.NewString()},
		Code: &Code{
			Code:           "34133-9",
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Summarization of Episode Note",
		},
		Title:         "Continuity of Care Document",
		EffectiveTime: &TimeValue{Value: docTime},
		ConfidentialityCode: &Code{
			Code:       "N",
			CodeSystem: "2.16.840.1.113883.5.25",
		},
		LanguageCode: &Code{Code: "en-US"},
	}

	doc.RecordTarget = g.buildRecordTarget(rec.Patient, stopTime)
	doc.Author = g.buildAuthor(docTime)
	doc.Custodian = g.buildCustodian()
	doc.DocumentationOf = g.buildDocumentationOf(rec, stopTime)

	sections := g.buildSections(rec, stopTime)
	if len(sections) > 0 {
		components := make([]SectionComponent, len(sections))
		for i, s := range sections {
			sec := s
			components[i] = SectionComponent{Section: &sec}
		}
		doc.Component = &Component{
			StructuredBody: &StructuredBody{Components: components},
		}
	}

	return doc
}

// buildRecordTarget constructs the patient header.
func (g *Generator) buildRecordTarget(p *record.Patient, stopTime int64) *RecordTarget {
	role := &PatientRole{
		IDs: []InstanceID{{Root: g.orgOID, Extension: p.ID}},
	}
	if p.MRN != "" {
		role.IDs = append(role.IDs, InstanceID{Root: "2.16.840.1.113883.4.391", Extension: p.MRN})
	}

	if p.Address != (record.Address{}) {
		role.Addr = &Address{
			Use:           "HP",
			StreetAddress: p.Address.Line,
			City:          p.Address.City,
			State:         p.Address.State,
			PostalCode:    p.Address.PostalCode,
			Country:       p.Address.Country,
		}
	}
	if p.Phone != "" {
		role.Telecom = &Telecom{Use: "HP", Value: "tel:" + p.Phone}
	}

	pat := &Patient{
		Name: &Name{Prefix: p.Prefix, Given: p.FirstName, Family: p.LastName},
		AdministrativeGenderCode: &Code{
			Code:        genderCode(p.Gender),
			CodeSystem:  OIDAdminGender,
			DisplayName: p.Gender,
		},
		BirthTime: &TimeValue{Value: export.HL7Date(p.BirthTime)},
	}
	if !p.Alive(stopTime) {
		pat.DeceasedInd = &BoolValue{Value: true}
		pat.DeceasedTime = &TimeValue{Value: export.HL7Timestamp(p.DeathTime)}
	}

	role.Patient = pat
	return &RecordTarget{PatientRole: role}
}

// buildAuthor creates the document author section.
func (g *Generator) buildAuthor(docTime string) *Author {
	return &Author{
		Time: &TimeValue{Value: docTime},
		AssignedAuthor: &AssignedAuthor{
			ID: &InstanceID{Root: g.orgOID},
			AssignedAuthoringDevice: &AuthoringDevice{
				SoftwareName: "Record Export Engine",
			},
			RepresentedOrganization: &Organization{
				IDs:   []InstanceID{{Root: g.orgOID}},
				Names: []string{g.orgName},
			},
		},
	}
}

// buildCustodian creates the custodian section.
func (g *Generator) buildCustodian() *Custodian {
	return &Custodian{
		AssignedCustodian: &AssignedCustodian{
			RepresentedCustodianOrganization: &CustodianOrganization{
				IDs:   []InstanceID{{Root: g.orgOID}},
				Names: []string{g.orgName},
			},
		},
	}
}

// buildDocumentationOf records the span of care covered by the document,
// from the first encounter to the cutoff.
func (g *Generator) buildDocumentationOf(rec *record.Record, stopTime int64) *DocumentationOf {
	low := stopTime
	if len(rec.Encounters) > 0 && rec.Encounters[0].Start < low {
		low = rec.Encounters[0].Start
	}
	return &DocumentationOf{
		ServiceEvent: &ServiceEvent{
			ClassCode: "PCPR",
			EffectiveTime: &TimeRange{
				Low:  &TimeLow{Value: export.HL7Timestamp(low)},
				High: &TimeHigh{Value: export.HL7Timestamp(stopTime)},
			},
		},
	}
}

// buildSections merges the record into a snapshot and emits one section per
// populated fact type. Empty sections are omitted entirely.
func (g *Generator) buildSections(rec *record.Record, stopTime int64) []Section {
	snapshot := record.Aggregate(rec, stopTime)
	seed := rec.Patient.Seed

	// Observations split into vitals and lab results by category.
	var vitals, results []*record.Observation
	for _, o := range snapshot.Observations {
		if o.Category == "vital-signs" {
			vitals = append(vitals, o)
		} else {
			results = append(results, o)
		}
	}

	var encounters []*record.Encounter
	for _, enc := range rec.Encounters {
		if enc.Start > stopTime {
			break
		}
		encounters = append(encounters, enc)
	}

	var sections []Section
	if len(snapshot.Allergies) > 0 {
		sections = append(sections, g.allergiesSection(snapshot.Allergies, seed))
	}
	if len(snapshot.Medications) > 0 {
		sections = append(sections, g.medicationsSection(snapshot.Medications, seed))
	}
	if len(snapshot.Conditions) > 0 {
		sections = append(sections, g.problemsSection(snapshot.Conditions, seed))
	}
	if len(snapshot.Procedures) > 0 {
		sections = append(sections, g.proceduresSection(snapshot.Procedures, seed))
	}
	if len(results) > 0 {
		sections = append(sections, g.resultsSection(results, seed))
	}
	if len(vitals) > 0 {
		sections = append(sections, g.vitalSignsSection(vitals, seed))
	}
	if len(snapshot.Immunizations) > 0 {
		sections = append(sections, g.immunizationsSection(snapshot.Immunizations, seed))
	}
	if len(snapshot.CarePlans) > 0 {
		sections = append(sections, g.planOfCareSection(snapshot.CarePlans, seed))
	}
	if len(encounters) > 0 {
		sections = append(sections, g.encountersSection(encounters, seed))
	}
	return sections
}

// entryCode resolves the primary code of an entry into a CDA code with the
// matching code system OID. Unresolvable codes degrade to a null flavor so
// a single bad entry never sinks the document.
func (g *Generator) entryCode(e *record.Entry, defaultSystem string, seed int64) Code {
	raw, ok := e.PrimaryCode()
	if !ok {
		return Code{NullFlavor: "UNK"}
	}
	if raw.ValueSet != "" && g.terminology != nil {
		resolved, err := g.terminology.ResolveCode(raw, seed)
		if err != nil {
			g.logger.Warn().Str("value_set", raw.ValueSet).Err(err).Msg("value set resolution failed")
			return Code{NullFlavor: "UNK"}
		}
		raw = resolved
	}
	c, err := export.MapConcept(raw, defaultSystem)
	if err != nil {
		return Code{NullFlavor: "UNK", DisplayName: raw.Display}
	}
	return Code{Code: c.Code, CodeSystem: systemOID(c.System), DisplayName: c.Display}
}

func (g *Generator) allergiesSection(allergies []*record.Allergy, seed int64) Section {
	section := newSection(OIDAllergiesSection, LOINCAllergies, "Allergies and Adverse Reactions")

	headers := []string{"Substance", "Onset", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, a := range allergies {
		code := g.entryCode(&a.Entry, export.SNOMEDURI, seed)
		status := "active"
		if a.Stop != 0 {
			status = "completed"
		}
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(a.Start), status}})

		entries = append(entries, Entry{
			TypeCode: "DRIV",
			Act: &Act{
				ClassCode:     "ACT",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDAllergyEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				Code:          &Code{Code: "CONC", CodeSystem: "2.16.840.1.113883.5.6"},
				StatusCode:    &Code{Code: status},
				EffectiveTime: entryTime(a.Start, a.Stop),
				EntryRelationships: []EntryRelationship{{
					TypeCode: "SUBJ",
					Observation: &ObservationEntry{
						ClassCode: "OBS",
						MoodCode:  "EVN",
						Code:      &code,
						Value: &Value{
							Type:        "CD",
							Code:        code.Code,
							CodeSystem:  code.CodeSystem,
							DisplayName: code.DisplayName,
						},
					},
				}},
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) medicationsSection(meds []*record.Medication, seed int64) Section {
	section := newSection(OIDMedicationsSection, LOINCMedications, "Medications")

	headers := []string{"Medication", "Start", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, m := range meds {
		code := g.entryCode(&m.Entry, export.RxNormURI, seed)
		status := "active"
		if m.Stop != 0 {
			status = "completed"
		}
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(m.Start), status}})

		entries = append(entries, Entry{
			TypeCode: "DRIV",
			SubstanceAdministration: &SubstanceAdministration{
				ClassCode:     "SBADM",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDMedicationEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				StatusCode:    &Code{Code: status},
				EffectiveTime: entryTime(m.Start, m.Stop),
				Consumable: &Consumable{
					ManufacturedProduct: &ManufacturedProduct{
						ManufacturedMaterial: &ManufacturedMaterial{Code: &code},
					},
				},
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) problemsSection(conditions []*record.Condition, seed int64) Section {
	section := newSection(OIDProblemsSection, LOINCProblems, "Problems")

	headers := []string{"Problem", "Onset", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, c := range conditions {
		code := g.entryCode(&c.Entry, export.SNOMEDURI, seed)
		status := "active"
		if c.Stop != 0 {
			status = "completed"
		}
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(c.Start), status}})

		entries = append(entries, Entry{
			TypeCode: "DRIV",
			Act: &Act{
				ClassCode:     "ACT",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDProblemEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				Code:          &Code{Code: "CONC", CodeSystem: "2.16.840.1.113883.5.6"},
				StatusCode:    &Code{Code: status},
				EffectiveTime: entryTime(c.Start, c.Stop),
				EntryRelationships: []EntryRelationship{{
					TypeCode: "SUBJ",
					Observation: &ObservationEntry{
						ClassCode: "OBS",
						MoodCode:  "EVN",
						Code:      &code,
						Value: &Value{
							Type:        "CD",
							Code:        code.Code,
							CodeSystem:  code.CodeSystem,
							DisplayName: code.DisplayName,
						},
					},
				}},
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) proceduresSection(procedures []*record.Procedure, seed int64) Section {
	section := newSection(OIDProceduresSection, LOINCProcedures, "Procedures")

	headers := []string{"Procedure", "Date", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, p := range procedures {
		code := g.entryCode(&p.Entry, export.SNOMEDURI, seed)
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(p.Start), "completed"}})

		entries = append(entries, Entry{
			TypeCode: "DRIV",
			Procedure: &ProcedureEntry{
				ClassCode:     "PROC",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDProcedureEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				Code:          &code,
				StatusCode:    &Code{Code: "completed"},
				EffectiveTime: entryTime(p.Start, p.Stop),
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) resultsSection(results []*record.Observation, seed int64) Section {
	section := newSection(OIDResultsSection, LOINCResults, "Results")
	g.fillObservationSection(&section, results, OIDResultEntry, seed)
	return section
}

func (g *Generator) vitalSignsSection(vitals []*record.Observation, seed int64) Section {
	section := newSection(OIDVitalSignsSection, LOINCVitalSigns, "Vital Signs")
	g.fillObservationSection(&section, vitals, OIDVitalSignEntry, seed)
	return section
}

// fillObservationSection populates a results or vital signs section. Panel
// observations expand into one organizer with a component per member.
func (g *Generator) fillObservationSection(section *Section, observations []*record.Observation, entryOID string, seed int64) {
	headers := []string{"Observation", "Value", "Date"}
	var rows []NarrativeTr
	var entries []Entry

	for _, o := range observations {
		code := g.entryCode(&o.Entry, export.LOINCURI, seed)
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), valueText(o), export.HL7Date(o.Start)}})

		organizer := &Organizer{
			ClassCode:     "CLUSTER",
			MoodCode:      "EVN",
			TemplateIDs:   []TemplateID{{Root: entryOID}},
			IDs:           []InstanceID{{Root: uuid.NewString()}},
			Code:          &code,
			StatusCode:    &Code{Code: "completed"},
			EffectiveTime: entryTime(o.Start, o.Stop),
		}

		if panel, ok := o.Value.(record.Panel); ok {
			for _, member := range panel.Members {
				memberCode := g.entryCode(&member.Entry, export.LOINCURI, seed)
				organizer.Components = append(organizer.Components, OrganizerComponent{
					Observation: g.observationEntry(member, memberCode, o.Start),
				})
			}
		} else {
			organizer.Components = []OrganizerComponent{{
				Observation: g.observationEntry(o, code, o.Start),
			}}
		}

		entries = append(entries, Entry{TypeCode: "DRIV", Organizer: organizer})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
}

// observationEntry builds the leaf observation element for one result.
func (g *Generator) observationEntry(o *record.Observation, code Code, at int64) *ObservationEntry {
	entry := &ObservationEntry{
		ClassCode:     "OBS",
		MoodCode:      "EVN",
		Code:          &code,
		StatusCode:    &Code{Code: "completed"},
		EffectiveTime: entryTime(at, 0),
	}
	switch v := o.Value.(type) {
	case record.Numeric:
		entry.Value = &Value{
			Type:  "PQ",
			Value: strconv.FormatFloat(v.Value, 'f', -1, 64),
			Unit:  o.Unit,
		}
	case record.Coded:
		entry.Value = &Value{
			Type:        "CD",
			Code:        v.Code.Code,
			CodeSystem:  systemOID(export.SystemURI(v.Code.System)),
			DisplayName: v.Code.Display,
		}
	case record.Text:
		entry.Value = &Value{Type: "ST", DisplayName: v.Value}
	}
	return entry
}

func (g *Generator) immunizationsSection(immunizations []*record.Immunization, seed int64) Section {
	section := newSection(OIDImmunizationsSection, LOINCImmunizations, "Immunizations")

	headers := []string{"Vaccine", "Date", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, imm := range immunizations {
		code := g.entryCode(&imm.Entry, export.CVXURI, seed)
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(imm.Start), "completed"}})

		entries = append(entries, Entry{
			TypeCode: "DRIV",
			SubstanceAdministration: &SubstanceAdministration{
				ClassCode:     "SBADM",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDImmunizationEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				StatusCode:    &Code{Code: "completed"},
				EffectiveTime: entryTime(imm.Start, 0),
				Consumable: &Consumable{
					ManufacturedProduct: &ManufacturedProduct{
						ManufacturedMaterial: &ManufacturedMaterial{Code: &code},
					},
				},
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) planOfCareSection(carePlans []*record.CarePlan, seed int64) Section {
	section := newSection(OIDPlanOfCareSection, LOINCPlanOfCare, "Plan of Care")

	headers := []string{"Plan", "Start", "Status"}
	var rows []NarrativeTr
	var entries []Entry

	for _, cp := range carePlans {
		code := g.entryCode(&cp.Entry, export.SNOMEDURI, seed)
		status := "active"
		if cp.Stop != 0 {
			status = "completed"
		}
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(cp.Start), status}})

		act := &Act{
			ClassCode:     "ACT",
			MoodCode:      "INT",
			TemplateIDs:   []TemplateID{{Root: OIDPlanOfCareSection}},
			IDs:           []InstanceID{{Root: uuid.NewString()}},
			Code:          &code,
			StatusCode:    &Code{Code: status},
			EffectiveTime: entryTime(cp.Start, cp.Stop),
		}
		for _, activity := range cp.Activities {
			c, err := export.MapConcept(activity, export.SNOMEDURI)
			if err != nil {
				continue
			}
			act.EntryRelationships = append(act.EntryRelationships, EntryRelationship{
				TypeCode: "COMP",
				Observation: &ObservationEntry{
					ClassCode: "OBS",
					MoodCode:  "INT",
					Code:      &Code{Code: c.Code, CodeSystem: systemOID(c.System), DisplayName: c.Display},
				},
			})
		}
		entries = append(entries, Entry{TypeCode: "DRIV", Act: act})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

func (g *Generator) encountersSection(encounters []*record.Encounter, seed int64) Section {
	section := newSection(OIDEncountersSection, LOINCEncounters, "Encounters")

	headers := []string{"Encounter", "Date", "Type"}
	var rows []NarrativeTr
	var entries []Entry

	for _, enc := range encounters {
		code := g.entryCode(&enc.Entry, export.SNOMEDURI, seed)
		rows = append(rows, NarrativeTr{Tds: []string{displayOf(code), export.HL7Date(enc.Start), string(enc.EncounterType)}})

		// Open encounters get a synthesized fifteen minute duration so the
		// interval is always bounded.
		stop := enc.Stop
		if stop == 0 {
			stop = enc.Start + fifteenMinutes
		}
		entries = append(entries, Entry{
			TypeCode: "DRIV",
			Encounter: &EncounterEntry{
				ClassCode:     "ENC",
				MoodCode:      "EVN",
				TemplateIDs:   []TemplateID{{Root: OIDEncounterEntry}},
				IDs:           []InstanceID{{Root: uuid.NewString()}},
				Code:          &code,
				StatusCode:    &Code{Code: "completed"},
				EffectiveTime: entryTime(enc.Start, stop),
			},
		})
	}

	section.Text = narrativeTable(headers, rows)
	section.Entries = entries
	return section
}

// ---- Helpers ----

// newSection creates a Section with standard template ID, code, and title.
func newSection(templateID, loincCode, title string) Section {
	return Section{
		TemplateIDs: []TemplateID{{Root: templateID}},
		Code: &Code{
			Code:           loincCode,
			CodeSystem:     OIDLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    title,
		},
		Title: title,
	}
}

// narrativeTable constructs a narrative table from headers and rows.
func narrativeTable(headers []string, rows []NarrativeTr) *Narrative {
	return &Narrative{
		Table: &NarrativeTable{
			Thead: &NarrativeThead{Tr: &NarrativeTr{Ths: headers}},
			Tbody: &NarrativeTbody{Trs: rows},
		},
	}
}

// entryTime builds an effectiveTime interval. A zero stop leaves the high
// boundary off.
func entryTime(start, stop int64) *TimeRange {
	tr := &TimeRange{Low: &TimeLow{Value: export.HL7Timestamp(start)}}
	if stop != 0 {
		tr.High = &TimeHigh{Value: export.HL7Timestamp(stop)}
	}
	return tr
}

// displayOf picks a human-readable label for narrative rows.
func displayOf(c Code) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Code != "" {
		return c.Code
	}
	return "Unknown"
}

// valueText renders an observation value for the narrative.
func valueText(o *record.Observation) string {
	switch v := o.Value.(type) {
	case record.Numeric:
		s := strconv.FormatFloat(v.Value, 'f', -1, 64)
		if o.Unit != "" {
			return s + " " + o.Unit
		}
		return s
	case record.Coded:
		return v.Code.Display
	case record.Text:
		return v.Value
	case record.Panel:
		return fmt.Sprintf("%d components", len(v.Members))
	default:
		return ""
	}
}

// systemOID converts a code system URI to the corresponding HL7 OID.
func systemOID(uri string) string {
	switch uri {
	case export.SNOMEDURI:
		return OIDSNOMED
	case export.RxNormURI:
		return OIDRxNorm
	case export.LOINCURI:
		return OIDLOINC
	case export.ICD10URI:
		return OIDICD10
	case export.CVXURI:
		return OIDCVX
	default:
		return uri
	}
}

// genderCode maps a record gender to the CDA administrative gender code.
func genderCode(gender string) string {
	switch gender {
	case "M", "male":
		return "M"
	case "F", "female":
		return "F"
	default:
		return "UN"
	}
}
