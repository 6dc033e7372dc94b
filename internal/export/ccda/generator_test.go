package ccda

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/terminology"
)

func testGenerator() *Generator {
	return NewGenerator("Test Hospital", "2.16.840.1.113883.3.1234", nil, zerolog.Nop())
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
		Phone:     "555-1234",
		Address: record.Address{
			Line:       "12 Main St",
			City:       "Bedford",
			State:      "MA",
			PostalCode: "01730",
			Country:    "US",
		},
	}

	enc := &record.Encounter{EncounterType: record.Wellness}
	enc.Start = 1000000000000
	enc.Stop = 1000000900000
	enc.Codes = []record.Code{{System: "SNOMED-CT", Code: "185349003", Display: "Encounter for check up"}}

	cond := &record.Condition{}
	cond.Start = enc.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "44054006", Display: "Diabetes"}}
	enc.Conditions = append(enc.Conditions, cond)

	allergy := &record.Allergy{}
	allergy.Start = enc.Start
	allergy.Codes = []record.Code{{System: "SNOMED-CT", Code: "300916003", Display: "Latex allergy"}}
	enc.Allergies = append(enc.Allergies, allergy)

	vital := &record.Observation{Value: record.Numeric{Value: 98.6}, Unit: "degF", Category: "vital-signs"}
	vital.Start = enc.Start
	vital.Codes = []record.Code{{System: "LOINC", Code: "8310-5", Display: "Body Temperature"}}
	enc.Observations = append(enc.Observations, vital)

	lab := &record.Observation{Value: record.Numeric{Value: 6.5}, Unit: "%", Category: "laboratory"}
	lab.Start = enc.Start
	lab.Codes = []record.Code{{System: "LOINC", Code: "4548-4", Display: "Hemoglobin A1c"}}
	enc.Observations = append(enc.Observations, lab)

	proc := &record.Procedure{}
	proc.Start = enc.Start
	proc.Codes = []record.Code{{System: "SNOMED-CT", Code: "104326007", Display: "Blood culture"}}
	enc.Procedures = append(enc.Procedures, proc)

	med := &record.Medication{}
	med.Start = enc.Start
	med.Codes = []record.Code{{System: "RxNorm", Code: "860975", Display: "Metformin"}}
	enc.Medications = append(enc.Medications, med)

	imm := &record.Immunization{}
	imm.Start = enc.Start
	imm.Codes = []record.Code{{System: "CVX", Code: "140", Display: "Influenza, seasonal"}}
	enc.Immunizations = append(enc.Immunizations, imm)

	cp := &record.CarePlan{
		Activities: []record.Code{{System: "SNOMED-CT", Code: "229065009", Display: "Exercise therapy"}},
	}
	cp.Start = enc.Start
	cp.Codes = []record.Code{{System: "SNOMED-CT", Code: "698360004", Display: "Diabetes self management plan"}}
	enc.CarePlans = append(enc.CarePlans, cp)

	return &record.Record{Patient: patient, Encounters: []*record.Encounter{enc}}
}

func TestGenerateCCD_Success(t *testing.T) {
	xmlData, err := testGenerator().GenerateCCD(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(xmlData)
	if !strings.HasPrefix(body, "<?xml") {
		t.Error("expected XML declaration")
	}
	if !strings.Contains(body, "ClinicalDocument") {
		t.Error("expected ClinicalDocument root")
	}
	if !strings.Contains(body, "Continuity of Care Document") {
		t.Error("expected document title")
	}
	if !strings.Contains(body, "John") || !strings.Contains(body, "Doe") {
		t.Error("expected patient name in header")
	}
	if !strings.Contains(body, "Test Hospital") {
		t.Error("expected custodian organization")
	}

	for _, want := range []string{
		"Allergies and Adverse Reactions",
		"Medications",
		"Problems",
		"Procedures",
		"Results",
		"Vital Signs",
		"Immunizations",
		"Plan of Care",
		"Encounters",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q section", want)
		}
	}

	if !strings.Contains(body, "44054006") {
		t.Error("expected condition code in problems section")
	}
	if !strings.Contains(body, "98.6") {
		t.Error("expected vital sign value")
	}
	if !strings.Contains(body, OIDSNOMED) {
		t.Error("expected SNOMED OID on coded entries")
	}
}

func TestGenerateCCD_OmitsEmptySections(t *testing.T) {
	rec := testRecord()
	rec.Encounters[0].Immunizations = nil
	rec.Encounters[0].CarePlans = nil

	xmlData, err := testGenerator().GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(xmlData)
	if strings.Contains(body, "Immunizations") {
		t.Error("expected immunizations section to be omitted")
	}
	if strings.Contains(body, "Plan of Care") {
		t.Error("expected plan of care section to be omitted")
	}
	if !strings.Contains(body, "Problems") {
		t.Error("expected problems section to remain")
	}
}

func TestGenerateCCD_MergesAcrossEncounters(t *testing.T) {
	rec := testRecord()
	second := &record.Encounter{EncounterType: record.Ambulatory}
	second.Start = 1500000000000
	second.Codes = []record.Code{{System: "SNOMED-CT", Code: "185347001", Display: "Follow-up"}}
	cond := &record.Condition{}
	cond.Start = second.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "38341003", Display: "Hypertension"}}
	second.Conditions = append(second.Conditions, cond)
	rec.Encounters = append(rec.Encounters, second)

	xmlData, err := testGenerator().GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(xmlData)
	if !strings.Contains(body, "44054006") || !strings.Contains(body, "38341003") {
		t.Error("expected problems from both encounters in one section")
	}
	if strings.Count(body, "<title>Problems</title>") != 1 {
		t.Error("expected a single merged problems section")
	}
}

func TestGenerateCCD_TruncatesAtCutoff(t *testing.T) {
	rec := testRecord()
	later := &record.Encounter{EncounterType: record.Emergency}
	later.Start = 3000000000000
	later.Codes = []record.Code{{System: "SNOMED-CT", Code: "50849002", Display: "Emergency room admission"}}
	cond := &record.Condition{}
	cond.Start = later.Start
	cond.Codes = []record.Code{{System: "SNOMED-CT", Code: "22298006", Display: "Myocardial infarction"}}
	later.Conditions = append(later.Conditions, cond)
	rec.Encounters = append(rec.Encounters, later)

	xmlData, err := testGenerator().GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(string(xmlData), "22298006") {
		t.Error("expected facts after the cutoff to be excluded")
	}
}

func TestGenerateCCD_DeterministicHeaderTime(t *testing.T) {
	gen := testGenerator()
	first, err := gen.GenerateCCD(testRecord(), 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2000000000000 ms is 2033-05-18T03:33:20Z.
	if !strings.Contains(string(first), "20330518033320") {
		t.Error("expected document effectiveTime derived from the cutoff")
	}
}

func TestGenerateCCD_DeceasedPatient(t *testing.T) {
	rec := testRecord()
	rec.Patient.DeathTime = 1800000000000

	xmlData, err := testGenerator().GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(xmlData), "deceased") {
		t.Error("expected deceased indicator for dead patient")
	}

	xmlData, err = testGenerator().GenerateCCD(rec, 1500000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(xmlData), "deceased") {
		t.Error("expected no deceased indicator before death time")
	}
}

func TestGenerateCCD_PanelObservation(t *testing.T) {
	rec := testRecord()
	sys := &record.Observation{Value: record.Numeric{Value: 120}, Unit: "mm[Hg]"}
	sys.Codes = []record.Code{{System: "LOINC", Code: "8480-6", Display: "Systolic"}}
	dia := &record.Observation{Value: record.Numeric{Value: 80}, Unit: "mm[Hg]"}
	dia.Codes = []record.Code{{System: "LOINC", Code: "8462-4", Display: "Diastolic"}}
	panel := &record.Observation{Value: record.Panel{Members: []*record.Observation{sys, dia}}, Category: "vital-signs"}
	panel.Start = rec.Encounters[0].Start
	panel.Codes = []record.Code{{System: "LOINC", Code: "85354-9", Display: "Blood pressure"}}
	rec.Encounters[0].Observations = append(rec.Encounters[0].Observations, panel)

	xmlData, err := testGenerator().GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := string(xmlData)
	if !strings.Contains(body, "8480-6") || !strings.Contains(body, "8462-4") {
		t.Error("expected panel members as organizer components")
	}
}

func TestGenerateCCD_ValueSetPlaceholder(t *testing.T) {
	reg := terminology.NewRegistry()
	reg.Register("http://example.org/vs/conditions", []record.Code{
		{System: "SNOMED-CT", Code: "195662009", Display: "Acute viral pharyngitis"},
	})
	reg.Seal()
	gen := NewGenerator("Test Hospital", "2.16.840.1.113883.3.1234", reg, zerolog.Nop())

	rec := testRecord()
	cond := &record.Condition{}
	cond.Start = rec.Encounters[0].Start
	cond.Codes = []record.Code{{ValueSet: "http://example.org/vs/conditions"}}
	rec.Encounters[0].Conditions = append(rec.Encounters[0].Conditions, cond)

	xmlData, err := gen.GenerateCCD(rec, 2000000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(xmlData), "195662009") {
		t.Error("expected placeholder resolved through the registry")
	}
}

func TestGenerateCCD_RequiresPatient(t *testing.T) {
	gen := testGenerator()
	if _, err := gen.GenerateCCD(nil, 0); err == nil {
		t.Error("expected error for nil record")
	}
	if _, err := gen.GenerateCCD(&record.Record{}, 0); err == nil {
		t.Error("expected error for record without patient")
	}
}
