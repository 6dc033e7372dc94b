package hl7v2

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/record"
)

func testGenerator() *Generator {
	return NewGenerator("Exporter", "ExporterFac", nil, zerolog.Nop())
}

func testRecord() *record.Record {
	patient := &record.Patient{
		ID:        "patient-1",
		Seed:      42,
		FirstName: "John",
		LastName:  "Doe",
		Gender:    "M",
		BirthTime: 662688000000,
		MRN:       "MRN-001",
		SSN:       "999-10-1234",
		Phone:     "555-1234",
		Address: record.Address{
			Line:       "12 Main St",
			City:       "Bedford",
			State:      "MA",
			PostalCode: "01730",
			Country:    "US",
		},
	}

	enc := &record.Encounter{EncounterType: record.Emergency}
	enc.Start = 1000000000000
	enc.Codes = []record.Code{{System: "SNOMED-CT", Code: "50849002", Display: "Emergency room admission"}}

	cond := &record.Condition{}
	cond.Start = enc.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "44054006", Display: "Diabetes"}}
	enc.Conditions = append(enc.Conditions, cond)

	allergy := &record.Allergy{}
	allergy.Start = enc.Start
	allergy.Codes = []record.Code{{System: "SNOMED-CT", Code: "300916003", Display: "Latex allergy"}}
	enc.Allergies = append(enc.Allergies, allergy)

	obs := &record.Observation{Value: record.Numeric{Value: 98.6}, Unit: "degF"}
	obs.Start = enc.Start
	obs.Codes = []record.Code{{System: "LOINC", Code: "8310-5", Display: "Body Temperature"}}
	enc.Observations = append(enc.Observations, obs)

	return &record.Record{Patient: patient, Encounters: []*record.Encounter{enc}}
}

func TestGenerateADT_SegmentStructure(t *testing.T) {
	raw, err := testGenerator().GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("generated message does not parse: %v", err)
	}

	if msg.Type != "ADT^A01" {
		t.Errorf("expected ADT^A01, got %q", msg.Type)
	}
	if msg.Version != "2.5.1" {
		t.Errorf("expected version 2.5.1, got %q", msg.Version)
	}
	if msg.ControlID == "" {
		t.Error("expected a control ID")
	}

	for _, name := range []string{"MSH", "EVN", "PID", "PV1", "AL1", "DG1", "OBX"} {
		if msg.Segment(name) == nil {
			t.Errorf("missing %s segment", name)
		}
	}
}

func TestGenerateADT_PatientIdentification(t *testing.T) {
	raw, err := testGenerator().GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := msg.PatientID(); got != "MRN-001" {
		t.Errorf("expected MRN in PID-3.1, got %q", got)
	}
	family, given := msg.PatientName()
	if family != "Doe" || given != "John" {
		t.Errorf("expected Doe^John, got %s^%s", family, given)
	}

	pid := msg.Segment("PID")
	if got := pid.Field(7); got != "19910101" {
		t.Errorf("expected birth date 19910101, got %q", got)
	}
	if got := pid.Field(8); got != "M" {
		t.Errorf("expected sex M, got %q", got)
	}
	if got := pid.Component(11, 3); got != "Bedford" {
		t.Errorf("expected city in PID-11.3, got %q", got)
	}
}

func TestGenerateADT_VisitSegment(t *testing.T) {
	raw, err := testGenerator().GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	pv1 := msg.Segment("PV1")
	if got := pv1.Field(2); got != "E" {
		t.Errorf("expected emergency class E, got %q", got)
	}
	if got := pv1.Field(44); got != "20010909014640" {
		t.Errorf("expected admit time from encounter start, got %q", got)
	}
	// Open emergency visits synthesize a one hour discharge.
	if got := pv1.Field(45); got != "20010909024640" {
		t.Errorf("expected synthesized discharge one hour later, got %q", got)
	}
}

func TestGenerateADT_ClinicalRepeats(t *testing.T) {
	raw, err := testGenerator().GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	al1 := msg.Segment("AL1")
	if got := al1.Component(3, 1); got != "300916003" {
		t.Errorf("expected allergy code in AL1-3.1, got %q", got)
	}
	if got := al1.Component(3, 3); got != "SCT" {
		t.Errorf("expected SCT system, got %q", got)
	}

	dg1 := msg.Segment("DG1")
	if got := dg1.Component(3, 1); got != "44054006" {
		t.Errorf("expected diagnosis code in DG1-3.1, got %q", got)
	}
	if got := dg1.Field(4); got != "Diabetes" {
		t.Errorf("expected diagnosis description, got %q", got)
	}

	obx := msg.Segment("OBX")
	if got := obx.Field(2); got != "NM" {
		t.Errorf("expected numeric value type, got %q", got)
	}
	if got := obx.Component(3, 1); got != "8310-5" {
		t.Errorf("expected LOINC code in OBX-3.1, got %q", got)
	}
	if got := obx.Field(5); got != "98.6" {
		t.Errorf("expected value 98.6, got %q", got)
	}
	if got := obx.Field(6); got != "degF" {
		t.Errorf("expected unit degF, got %q", got)
	}
}

func TestGenerateADT_MergesAcrossEncounters(t *testing.T) {
	rec := testRecord()
	second := &record.Encounter{EncounterType: record.Ambulatory}
	second.Start = 1500000000000
	cond := &record.Condition{}
	cond.Start = second.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "38341003", Display: "Hypertension"}}
	second.Conditions = append(second.Conditions, cond)
	rec.Encounters = append(rec.Encounters, second)

	raw, err := testGenerator().GenerateADT(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	diagnoses := msg.AllSegments("DG1")
	if len(diagnoses) != 2 {
		t.Fatalf("expected 2 DG1 segments, got %d", len(diagnoses))
	}
	if got := diagnoses[0].Field(1); got != "1" {
		t.Errorf("expected set ID 1, got %q", got)
	}
	if got := diagnoses[1].Field(1); got != "2" {
		t.Errorf("expected set ID 2, got %q", got)
	}

	// PV1 reflects the latest encounter at the cutoff.
	pv1 := msg.Segment("PV1")
	if got := pv1.Field(2); got != "O" {
		t.Errorf("expected outpatient class from latest encounter, got %q", got)
	}
}

func TestGenerateADT_TruncatesAtCutoff(t *testing.T) {
	rec := testRecord()
	later := &record.Encounter{EncounterType: record.Inpatient}
	later.Start = 3000000000000
	cond := &record.Condition{}
	cond.Start = later.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "22298006", Display: "Myocardial infarction"}}
	later.Conditions = append(later.Conditions, cond)
	rec.Encounters = append(rec.Encounters, later)

	raw, err := testGenerator().GenerateADT(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(string(raw), "22298006") {
		t.Error("expected facts after the cutoff to be excluded")
	}
}

func TestGenerateADT_Deterministic(t *testing.T) {
	gen := testGenerator()
	first, err := gen.GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := gen.GenerateADT(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Error("expected identical bytes for the same record and cutoff")
	}
}

func TestGenerateADT_EscapesDelimiters(t *testing.T) {
	rec := testRecord()
	rec.Patient.LastName = "Doe|Smith^Jones"

	raw, err := testGenerator().GenerateADT(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(raw)
	if !strings.Contains(body, `Doe\F\Smith\S\Jones`) {
		t.Error("expected delimiters escaped in patient name")
	}
}

func TestGenerateADT_PanelExpandsToMembers(t *testing.T) {
	rec := testRecord()
	sys := &record.Observation{Value: record.Numeric{Value: 120}, Unit: "mm[Hg]"}
	sys.Codes = []record.Code{{System: "LOINC", Code: "8480-6", Display: "Systolic"}}
	dia := &record.Observation{Value: record.Numeric{Value: 80}, Unit: "mm[Hg]"}
	dia.Codes = []record.Code{{System: "LOINC", Code: "8462-4", Display: "Diastolic"}}
	panel := &record.Observation{Value: record.Panel{Members: []*record.Observation{sys, dia}}}
	panel.Start = rec.Encounters[0].Start
	panel.Codes = []record.Code{{System: "LOINC", Code: "85354-9", Display: "Blood pressure"}}
	rec.Encounters[0].Observations = append(rec.Encounters[0].Observations, panel)

	raw, err := testGenerator().GenerateADT(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	results := msg.AllSegments("OBX")
	if len(results) != 3 {
		t.Fatalf("expected 3 OBX segments, got %d", len(results))
	}
	if got := results[1].Component(3, 1); got != "8480-6" {
		t.Errorf("expected first panel member, got %q", got)
	}
	if got := results[2].Field(1); got != "3" {
		t.Errorf("expected continuous set IDs, got %q", got)
	}
}

func TestGenerateADT_RequiresPatient(t *testing.T) {
	gen := testGenerator()
	if _, err := gen.GenerateADT(nil, 0); err == nil {
		t.Error("expected error for nil record")
	}
	if _, err := gen.GenerateADT(&record.Record{}, 0); err == nil {
		t.Error("expected error for record without patient")
	}
}
