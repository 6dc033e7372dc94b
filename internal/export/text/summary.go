// Package text renders plain-text patient summaries and tabular CSV
// extracts from health records.
package text

import (
	"fmt"
	"strings"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
)

const lineWidth = 80

// Summary renders a human-readable snapshot of the record as of stopTime.
// Each fact list prints most recent first. Facts with no stop time render
// as current.
func Summary(rec *record.Record, stopTime int64) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("text: record is nil")
	}
	if rec.Patient == nil || rec.Patient.ID == "" {
		return nil, fmt.Errorf("text: patient identity is required")
	}

	snapshot := record.Aggregate(rec, stopTime)
	p := rec.Patient

	var b strings.Builder
	writeHeader(&b, p, stopTime)

	writeSection(&b, "ALLERGIES", len(snapshot.Allergies), func(w *strings.Builder) {
		for i := len(snapshot.Allergies) - 1; i >= 0; i-- {
			a := snapshot.Allergies[i]
			fmt.Fprintf(w, "%s : %s\n", export.DateOnly(a.Start), displayName(&a.Entry))
		}
	})

	writeSection(&b, "MEDICATIONS", len(snapshot.Medications), func(w *strings.Builder) {
		for i := len(snapshot.Medications) - 1; i >= 0; i-- {
			m := snapshot.Medications[i]
			line := fmt.Sprintf("%s %s : %s", export.DateOnly(m.Start), statusTag(m.Stop), displayName(&m.Entry))
			if len(m.Reasons) > 0 {
				line += " for " + m.Reasons[0].Display
			}
			fmt.Fprintln(w, line)
		}
	})

	writeSection(&b, "CONDITIONS", len(snapshot.Conditions), func(w *strings.Builder) {
		for i := len(snapshot.Conditions) - 1; i >= 0; i-- {
			c := snapshot.Conditions[i]
			fmt.Fprintf(w, "%s - %s : %s\n", export.DateOnly(c.Start), stopDate(c.Stop), displayName(&c.Entry))
		}
	})

	writeSection(&b, "CARE PLANS", len(snapshot.CarePlans), func(w *strings.Builder) {
		for i := len(snapshot.CarePlans) - 1; i >= 0; i-- {
			cp := snapshot.CarePlans[i]
			fmt.Fprintf(w, "%s %s : %s\n", export.DateOnly(cp.Start), statusTag(cp.Stop), displayName(&cp.Entry))
			for _, activity := range cp.Activities {
				fmt.Fprintf(w, "                         Activity: %s\n", activity.Display)
			}
		}
	})

	writeSection(&b, "OBSERVATIONS", len(snapshot.Observations), func(w *strings.Builder) {
		for i := len(snapshot.Observations) - 1; i >= 0; i-- {
			o := snapshot.Observations[i]
			fmt.Fprintf(w, "%s : %-40s %s\n", export.DateOnly(o.Start), displayName(&o.Entry), observationValue(o))
		}
	})

	writeSection(&b, "PROCEDURES", len(snapshot.Procedures), func(w *strings.Builder) {
		for i := len(snapshot.Procedures) - 1; i >= 0; i-- {
			p := snapshot.Procedures[i]
			line := fmt.Sprintf("%s : %s", export.DateOnly(p.Start), displayName(&p.Entry))
			if len(p.Reasons) > 0 {
				line += " for " + p.Reasons[0].Display
			}
			fmt.Fprintln(w, line)
		}
	})

	writeSection(&b, "REPORTS", len(snapshot.Reports), func(w *strings.Builder) {
		for i := len(snapshot.Reports) - 1; i >= 0; i-- {
			r := snapshot.Reports[i]
			fmt.Fprintf(w, "%s : %s\n", export.DateOnly(r.Start), displayName(&r.Entry))
			for _, res := range r.Results {
				fmt.Fprintf(w, "           - %-40s %s\n", displayName(&res.Entry), observationValue(res))
			}
		}
	})

	writeSection(&b, "IMMUNIZATIONS", len(snapshot.Immunizations), func(w *strings.Builder) {
		for i := len(snapshot.Immunizations) - 1; i >= 0; i-- {
			imm := snapshot.Immunizations[i]
			fmt.Fprintf(w, "%s : %s\n", export.DateOnly(imm.Start), displayName(&imm.Entry))
		}
	})

	var encounters []*record.Encounter
	for _, enc := range rec.Encounters {
		if enc.Start > stopTime {
			break
		}
		encounters = append(encounters, enc)
	}
	writeSection(&b, "ENCOUNTERS", len(encounters), func(w *strings.Builder) {
		for i := len(encounters) - 1; i >= 0; i-- {
			enc := encounters[i]
			line := fmt.Sprintf("%s : %s", export.DateOnly(enc.Start), displayName(&enc.Entry))
			if enc.Reason != nil {
				line += " for " + enc.Reason.Display
			}
			fmt.Fprintln(w, line)
		}
	})

	return []byte(b.String()), nil
}

func writeHeader(b *strings.Builder, p *record.Patient, stopTime int64) {
	name := p.FirstName + " " + p.LastName
	if p.Prefix != "" {
		name = p.Prefix + " " + name
	}
	fmt.Fprintln(b, name)
	fmt.Fprintln(b, strings.Repeat("=", lineWidth))
	fmt.Fprintf(b, "Race:           %s\n", orUnknown(p.Race))
	fmt.Fprintf(b, "Ethnicity:      %s\n", orUnknown(p.Ethnicity))
	fmt.Fprintf(b, "Gender:         %s\n", orUnknown(p.Gender))
	fmt.Fprintf(b, "Birth Date:     %s\n", export.DateOnly(p.BirthTime))
	fmt.Fprintf(b, "Marital Status: %s\n", orUnknown(p.MaritalStatus))
	if !p.Alive(stopTime) {
		fmt.Fprintf(b, "Death Date:     %s\n", export.DateOnly(p.DeathTime))
	}
}

// writeSection writes a divider and section title, then the body. Empty
// sections still print their title so summaries line up across patients.
func writeSection(b *strings.Builder, title string, count int, body func(*strings.Builder)) {
	fmt.Fprintln(b, strings.Repeat("-", lineWidth))
	fmt.Fprintf(b, "%s:\n", title)
	if count > 0 {
		body(b)
	}
}

func displayName(e *record.Entry) string {
	if code, ok := e.PrimaryCode(); ok && code.Display != "" {
		return code.Display
	}
	if e.Name != "" {
		return e.Name
	}
	return "Unknown"
}

// statusTag marks ongoing facts as current.
func statusTag(stop int64) string {
	if stop == 0 {
		return "[CURRENT]"
	}
	return "[STOPPED]"
}

func stopDate(stop int64) string {
	if stop == 0 {
		return "          "
	}
	return export.DateOnly(stop)
}

func observationValue(o *record.Observation) string {
	switch v := o.Value.(type) {
	case record.Numeric:
		s := fmt.Sprintf("%g", v.Value)
		if o.Unit != "" {
			return s + " " + o.Unit
		}
		return s
	case record.Coded:
		return v.Code.Display
	case record.Text:
		return v.Value
	case record.Panel:
		var parts []string
		for _, m := range v.Members {
			parts = append(parts, observationValue(m))
		}
		return strings.Join(parts, " / ")
	default:
		return ""
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
