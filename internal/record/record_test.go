package record

import (
	"encoding/json"
	"testing"
)

func testRecord() *Record {
	cond := &Condition{Entry: Entry{
		Start: 1000,
		Type:  "condition",
		Codes: []Code{{System: "SNOMED-CT", Code: "44054006", Display: "Diabetes"}},
	}}
	obs := &Observation{
		Entry: Entry{Start: 1200, Type: "observation", Codes: []Code{{System: "LOINC", Code: "8331-1", Display: "Oral temperature"}}},
		Value: Numeric{Value: 98.6},
		Unit:  "degF",
	}
	proc := &Procedure{Entry: Entry{
		Start: 1300,
		Stop:  1400,
		Type:  "procedure",
		Codes: []Code{{System: "SNOMED-CT", Code: "80146002", Display: "Appendectomy"}},
		Cost:  Dollars(120),
	}}
	enc := &Encounter{
		Entry:         Entry{Start: 1000, Stop: 2000, Type: "encounter", Codes: []Code{{System: "SNOMED-CT", Code: "185349003", Display: "Encounter for check up"}}},
		EncounterType: Ambulatory,
		Conditions:    []*Condition{cond},
		Observations:  []*Observation{obs},
		Procedures:    []*Procedure{proc},
		Claim:         &Claim{},
	}
	enc.Claim.AddProcedure(proc)
	enc.Claim.AddDiagnosis(cond)

	return &Record{
		Patient: &Patient{
			ID:        "4d661053-bd47-455a-8a2e-1efcb2bd4dfc",
			Seed:      42,
			FirstName: "John",
			LastName:  "Doe",
			Gender:    "M",
			BirthTime: -631152000000,
			Address:   Address{Line: "123 Main St", City: "Bedford", State: "MA", PostalCode: "01730"},
		},
		Encounters: []*Encounter{enc},
	}
}

func TestNormalize_AssignsUniqueRefs(t *testing.T) {
	rec := testRecord()
	rec.Normalize()

	seen := map[int]bool{}
	rec.walkEntries(func(e *Entry) {
		if e.Ref == 0 {
			t.Errorf("entry %q has no ref after Normalize", e.Type)
		}
		if seen[e.Ref] {
			t.Errorf("duplicate ref %d", e.Ref)
		}
		seen[e.Ref] = true
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	rec := testRecord()
	rec.Normalize()

	first := map[*Entry]int{}
	rec.walkEntries(func(e *Entry) { first[e] = e.Ref })

	rec.Normalize()
	rec.walkEntries(func(e *Entry) {
		if first[e] != e.Ref {
			t.Errorf("ref changed on second Normalize: %d -> %d", first[e], e.Ref)
		}
	})
}

func TestNormalize_SortsEncounters(t *testing.T) {
	rec := testRecord()
	early := &Encounter{Entry: Entry{Start: 500, Type: "encounter"}}
	rec.Encounters = append(rec.Encounters, early)

	rec.Normalize()

	if rec.Encounters[0] != early {
		t.Error("expected earliest encounter first after Normalize")
	}
}

func TestClaim_Total(t *testing.T) {
	rec := testRecord()
	claim := rec.Encounters[0].Claim

	if got := claim.Total(); got != Dollars(120) {
		t.Errorf("claim total = %s, want 120.00", got)
	}
	if got := claim.Total().String(); got != "120.00" {
		t.Errorf("claim total string = %q, want \"120.00\"", got)
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{12000, "120.00"},
		{12345, "123.45"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := Cents(tt.cents).String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestEncounterType_Class(t *testing.T) {
	tests := []struct {
		typ  EncounterType
		want string
	}{
		{Wellness, "AMB"},
		{Inpatient, "IMP"},
		{Emergency, "EMER"},
		{EncounterType("EMERGENCY"), "EMER"},
		{EncounterType(""), "AMB"},
	}
	for _, tt := range tests {
		if got := tt.typ.Class(); got != tt.want {
			t.Errorf("%q.Class() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	rec := testRecord()
	obs := rec.Encounters[0].Observations[0]
	rec.Encounters[0].Reports = []*Report{{
		Entry:   Entry{Start: 1500, Type: "report", Codes: []Code{{System: "LOINC", Code: "58410-2", Display: "CBC panel"}}},
		Results: []*Observation{obs},
	}}
	rec.Normalize()

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var loaded Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := loaded.Relink(); err != nil {
		t.Fatalf("relink: %v", err)
	}

	enc := loaded.Encounters[0]
	if len(enc.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(enc.Observations))
	}
	num, ok := enc.Observations[0].Value.(Numeric)
	if !ok {
		t.Fatalf("expected Numeric value, got %T", enc.Observations[0].Value)
	}
	if num.Value != 98.6 {
		t.Errorf("value = %v, want 98.6", num.Value)
	}

	if len(enc.Reports) != 1 || len(enc.Reports[0].Results) != 1 {
		t.Fatal("expected report with one result after round trip")
	}
	if enc.Reports[0].Results[0] != enc.Observations[0] {
		t.Error("report result not relinked to encounter observation")
	}

	if len(enc.Claim.Items) != 2 {
		t.Fatalf("expected 2 claim items, got %d", len(enc.Claim.Items))
	}
	if enc.Claim.Items[0].Entry != &enc.Procedures[0].Entry {
		t.Error("claim procedure item not relinked")
	}
	if got := enc.Claim.Total(); got != Dollars(120) {
		t.Errorf("claim total after round trip = %s, want 120.00", got)
	}
}

func TestObservation_JSONValueVariants(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"coded", Coded{Code: Code{System: "SNOMED-CT", Code: "271737000", Display: "Anemia"}}},
		{"numeric", Numeric{Value: 7.2}},
		{"text", Text{Value: "clear to auscultation"}},
		{"none", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &Observation{Entry: Entry{Start: 1, Codes: []Code{{Code: "x"}}}, Value: tt.value}
			data, err := json.Marshal(obs)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var back Observation
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tt.value == nil {
				if back.Value != nil {
					t.Errorf("expected nil value, got %#v", back.Value)
				}
				return
			}
			if back.Value != tt.value {
				t.Errorf("round trip = %#v, want %#v", back.Value, tt.value)
			}
		})
	}
}
