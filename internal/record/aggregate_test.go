package record

import "testing"

func twoEncounterRecord() *Record {
	first := &Encounter{
		Entry: Entry{Start: 1000, Stop: 1500, Type: "encounter"},
		Conditions: []*Condition{
			{Entry: Entry{Start: 1000, Codes: []Code{{System: "SNOMED-CT", Code: "44054006", Display: "Diabetes"}}}},
		},
		Observations: []*Observation{
			{Entry: Entry{Start: 1100, Codes: []Code{{System: "LOINC", Code: "8302-2"}}}, Value: Numeric{Value: 175}, Unit: "cm"},
		},
	}
	second := &Encounter{
		Entry: Entry{Start: 5000, Type: "encounter"},
		Conditions: []*Condition{
			{Entry: Entry{Start: 5000, Codes: []Code{{System: "SNOMED-CT", Code: "195662009"}}}},
		},
	}
	return &Record{
		Patient:    &Patient{ID: "p1", FirstName: "Jane", LastName: "Doe"},
		Encounters: []*Encounter{first, second},
	}
}

func TestAggregate_TruncatesAtCutoff(t *testing.T) {
	rec := twoEncounterRecord()

	snap := Aggregate(rec, 2000)

	if len(snap.Conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(snap.Conditions))
	}
	if got := snap.Conditions[0].Codes[0].Code; got != "44054006" {
		t.Errorf("condition code = %q, want 44054006", got)
	}
	if len(snap.Observations) != 1 {
		t.Errorf("expected 1 observation, got %d", len(snap.Observations))
	}
}

func TestAggregate_IncludesEncounterStartingAtCutoff(t *testing.T) {
	rec := twoEncounterRecord()

	snap := Aggregate(rec, 5000)

	if len(snap.Conditions) != 2 {
		t.Errorf("expected both conditions at cutoff == start, got %d", len(snap.Conditions))
	}
}

func TestAggregate_SortsBeforeMerging(t *testing.T) {
	rec := twoEncounterRecord()
	// Violate the sorted invariant on purpose: the later encounter first.
	rec.Encounters[0], rec.Encounters[1] = rec.Encounters[1], rec.Encounters[0]

	snap := Aggregate(rec, 2000)

	if len(snap.Conditions) != 1 {
		t.Fatalf("unsorted input dropped valid encounters: got %d conditions, want 1", len(snap.Conditions))
	}
	if got := snap.Conditions[0].Codes[0].Code; got != "44054006" {
		t.Errorf("condition code = %q, want 44054006", got)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	rec := twoEncounterRecord()

	a := Aggregate(rec, 6000)
	b := Aggregate(rec, 6000)

	if a == b {
		t.Fatal("expected fresh allocations per call")
	}
	if len(a.Conditions) != len(b.Conditions) {
		t.Fatalf("condition counts differ: %d vs %d", len(a.Conditions), len(b.Conditions))
	}
	for i := range a.Conditions {
		if a.Conditions[i] != b.Conditions[i] {
			t.Errorf("condition %d differs between calls", i)
		}
	}
	if len(a.Observations) != len(b.Observations) {
		t.Errorf("observation counts differ: %d vs %d", len(a.Observations), len(b.Observations))
	}
}

func TestAggregate_EmptyRecord(t *testing.T) {
	rec := &Record{Patient: &Patient{ID: "p1"}}

	snap := Aggregate(rec, 1000)

	if snap == nil {
		t.Fatal("expected non-nil snapshot for empty record")
	}
	if len(snap.Conditions) != 0 || len(snap.Observations) != 0 {
		t.Error("expected empty snapshot lists")
	}
}

func TestAggregate_PreservesSourceOrder(t *testing.T) {
	rec := twoEncounterRecord()
	rec.Encounters[0].Conditions = append(rec.Encounters[0].Conditions,
		&Condition{Entry: Entry{Start: 1200, Codes: []Code{{Code: "second"}}}})

	snap := Aggregate(rec, 6000)

	want := []string{"44054006", "second", "195662009"}
	if len(snap.Conditions) != len(want) {
		t.Fatalf("expected %d conditions, got %d", len(want), len(snap.Conditions))
	}
	for i, code := range want {
		if snap.Conditions[i].Codes[0].Code != code {
			t.Errorf("condition %d = %q, want %q", i, snap.Conditions[i].Codes[0].Code, code)
		}
	}
}
