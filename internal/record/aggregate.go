package record

// Aggregate merges the clinical facts of every encounter starting at or
// before cutoff into one synthetic snapshot encounter. Formats without
// per-encounter granularity (C-CDA, HL7v2, plain text) consume the snapshot
// instead of the partitioned history.
//
// The record's encounters are sorted defensively before the merge, so the
// early exit on the first out-of-range encounter cannot drop data from a
// list an upstream producer failed to keep ordered. The snapshot is a fresh
// allocation every call; it never becomes part of the record.
func Aggregate(r *Record, cutoff int64) *Encounter {
	r.SortEncounters()

	snapshot := &Encounter{
		Entry:         Entry{Start: cutoff, Type: "snapshot"},
		EncounterType: Inpatient,
	}

	for _, enc := range r.Encounters {
		if enc.Start > cutoff {
			break
		}
		snapshot.Observations = append(snapshot.Observations, enc.Observations...)
		snapshot.Reports = append(snapshot.Reports, enc.Reports...)
		snapshot.Conditions = append(snapshot.Conditions, enc.Conditions...)
		snapshot.Allergies = append(snapshot.Allergies, enc.Allergies...)
		snapshot.Procedures = append(snapshot.Procedures, enc.Procedures...)
		snapshot.Immunizations = append(snapshot.Immunizations, enc.Immunizations...)
		snapshot.Medications = append(snapshot.Medications, enc.Medications...)
		snapshot.CarePlans = append(snapshot.CarePlans, enc.CarePlans...)
		snapshot.ImagingStudies = append(snapshot.ImagingStudies, enc.ImagingStudies...)
	}

	return snapshot
}
