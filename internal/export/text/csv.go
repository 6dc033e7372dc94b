package text

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
)

// CSVWriter streams one record at a time into a fixed set of tabular
// extracts, one csv.Writer per table. Encounter and fact identifiers are
// assigned through a shared resolver so rows in different tables join on
// the same keys.
type CSVWriter struct {
	patients      *csv.Writer
	encounters    *csv.Writer
	conditions    *csv.Writer
	observations  *csv.Writer
	procedures    *csv.Writer
	medications   *csv.Writer
	immunizations *csv.Writer
	careplans     *csv.Writer
	claims        *csv.Writer
}

// CSVOutputs names the destination stream for each extract table.
type CSVOutputs struct {
	Patients      io.Writer
	Encounters    io.Writer
	Conditions    io.Writer
	Observations  io.Writer
	Procedures    io.Writer
	Medications   io.Writer
	Immunizations io.Writer
	CarePlans     io.Writer
	Claims        io.Writer
}

// NewCSVWriter wraps the output streams and writes the header row of
// every table.
func NewCSVWriter(out CSVOutputs) (*CSVWriter, error) {
	w := &CSVWriter{
		patients:      csv.NewWriter(out.Patients),
		encounters:    csv.NewWriter(out.Encounters),
		conditions:    csv.NewWriter(out.Conditions),
		observations:  csv.NewWriter(out.Observations),
		procedures:    csv.NewWriter(out.Procedures),
		medications:   csv.NewWriter(out.Medications),
		immunizations: csv.NewWriter(out.Immunizations),
		careplans:     csv.NewWriter(out.CarePlans),
		claims:        csv.NewWriter(out.Claims),
	}
	headers := []struct {
		w   *csv.Writer
		row []string
	}{
		{w.patients, []string{"Id", "BirthDate", "DeathDate", "SSN", "Drivers", "Passport", "Prefix", "First", "Last", "Marital", "Race", "Ethnicity", "Gender", "Address", "City", "State", "Zip"}},
		{w.encounters, []string{"Id", "Start", "Stop", "Patient", "Class", "Code", "Description", "Cost", "ReasonCode", "ReasonDescription"}},
		{w.conditions, []string{"Start", "Stop", "Patient", "Encounter", "Code", "Description"}},
		{w.observations, []string{"Date", "Patient", "Encounter", "Code", "Description", "Value", "Units", "Type"}},
		{w.procedures, []string{"Date", "Patient", "Encounter", "Code", "Description", "Cost", "ReasonCode", "ReasonDescription"}},
		{w.medications, []string{"Start", "Stop", "Patient", "Encounter", "Code", "Description", "Cost", "Dispensed", "ReasonCode", "ReasonDescription"}},
		{w.immunizations, []string{"Date", "Patient", "Encounter", "Code", "Description", "Cost"}},
		{w.careplans, []string{"Id", "Start", "Stop", "Patient", "Encounter", "Code", "Description", "ReasonCode", "ReasonDescription"}},
		{w.claims, []string{"Id", "Patient", "Encounter", "Type", "Total"}},
	}
	for _, h := range headers {
		if err := h.w.Write(h.row); err != nil {
			return nil, fmt.Errorf("text: write csv header: %w", err)
		}
	}
	return w, nil
}

// Append writes all rows for one record, truncated at stopTime.
func (w *CSVWriter) Append(rec *record.Record, stopTime int64) error {
	if rec == nil || rec.Patient == nil || rec.Patient.ID == "" {
		return fmt.Errorf("text: patient identity is required")
	}
	rec.Normalize()
	refs := export.NewResolver()
	p := rec.Patient

	deathDate := ""
	if !p.Alive(stopTime) {
		deathDate = export.DateOnly(p.DeathTime)
	}
	err := w.patients.Write([]string{
		p.ID, export.DateOnly(p.BirthTime), deathDate,
		p.SSN, p.DriversID, p.PassportID,
		p.Prefix, p.FirstName, p.LastName,
		p.MaritalStatus, p.Race, p.Ethnicity, p.Gender,
		p.Address.Line, p.Address.City, p.Address.State, p.Address.PostalCode,
	})
	if err != nil {
		return fmt.Errorf("text: write patient row: %w", err)
	}

	for _, enc := range rec.Encounters {
		if enc.Start > stopTime {
			break
		}
		if err := w.appendEncounter(rec, refs, enc); err != nil {
			return err
		}
	}
	w.flush()
	return w.error()
}

func (w *CSVWriter) appendEncounter(rec *record.Record, refs *export.Resolver, enc *record.Encounter) error {
	patientID := rec.Patient.ID
	encID := refs.Assign(enc.Ref)
	encCode, _ := enc.PrimaryCode()
	reasonCode, reasonDisplay := codePair(enc.Reason)

	err := w.encounters.Write([]string{
		encID, dateOrEmpty(enc.Start), dateOrEmpty(enc.Stop), patientID,
		string(enc.EncounterType), encCode.Code, displayName(&enc.Entry),
		enc.Cost.String(), reasonCode, reasonDisplay,
	})
	if err != nil {
		return fmt.Errorf("text: write encounter row: %w", err)
	}

	for _, c := range enc.Conditions {
		code, _ := c.PrimaryCode()
		if err := w.conditions.Write([]string{
			dateOrEmpty(c.Start), dateOrEmpty(c.Stop), patientID, encID,
			code.Code, displayName(&c.Entry),
		}); err != nil {
			return fmt.Errorf("text: write condition row: %w", err)
		}
	}
	for _, o := range enc.Observations {
		if err := w.appendObservation(patientID, encID, o); err != nil {
			return err
		}
	}
	for _, proc := range enc.Procedures {
		code, _ := proc.PrimaryCode()
		reasonCode, reasonDisplay := firstReason(proc.Reasons)
		if err := w.procedures.Write([]string{
			dateOrEmpty(proc.Start), patientID, encID,
			code.Code, displayName(&proc.Entry), proc.Cost.String(),
			reasonCode, reasonDisplay,
		}); err != nil {
			return fmt.Errorf("text: write procedure row: %w", err)
		}
	}
	for _, m := range enc.Medications {
		code, _ := m.PrimaryCode()
		reasonCode, reasonDisplay := firstReason(m.Reasons)
		dispensed := "false"
		if m.Dispensed {
			dispensed = "true"
		}
		if err := w.medications.Write([]string{
			dateOrEmpty(m.Start), dateOrEmpty(m.Stop), patientID, encID,
			code.Code, displayName(&m.Entry), m.Cost.String(), dispensed,
			reasonCode, reasonDisplay,
		}); err != nil {
			return fmt.Errorf("text: write medication row: %w", err)
		}
	}
	for _, imm := range enc.Immunizations {
		code, _ := imm.PrimaryCode()
		if err := w.immunizations.Write([]string{
			dateOrEmpty(imm.Start), patientID, encID,
			code.Code, displayName(&imm.Entry), imm.Cost.String(),
		}); err != nil {
			return fmt.Errorf("text: write immunization row: %w", err)
		}
	}
	for _, cp := range enc.CarePlans {
		code, _ := cp.PrimaryCode()
		reasonCode, reasonDisplay := firstReason(cp.Reasons)
		if err := w.careplans.Write([]string{
			refs.Assign(cp.Ref), dateOrEmpty(cp.Start), dateOrEmpty(cp.Stop),
			patientID, encID, code.Code, displayName(&cp.Entry),
			reasonCode, reasonDisplay,
		}); err != nil {
			return fmt.Errorf("text: write careplan row: %w", err)
		}
	}

	if enc.Claim != nil {
		if err := w.claims.Write([]string{
			refs.Assign(enc.Ref) + "-claim", patientID, encID,
			"encounter", enc.Claim.Total().String(),
		}); err != nil {
			return fmt.Errorf("text: write claim row: %w", err)
		}
	}
	for _, m := range enc.Medications {
		if !m.Dispensed || m.Claim == nil {
			continue
		}
		total := m.Cost + m.Claim.Total()
		if err := w.claims.Write([]string{
			refs.Assign(m.Ref) + "-claim", patientID, encID,
			"pharmacy", total.String(),
		}); err != nil {
			return fmt.Errorf("text: write claim row: %w", err)
		}
	}
	return nil
}

// appendObservation writes one row per leaf value. Panel members become
// their own rows under the same encounter.
func (w *CSVWriter) appendObservation(patientID, encID string, o *record.Observation) error {
	if panel, ok := o.Value.(record.Panel); ok {
		for _, member := range panel.Members {
			if err := w.appendObservation(patientID, encID, member); err != nil {
				return err
			}
		}
		return nil
	}
	code, _ := o.PrimaryCode()
	value, units, kind := flatValue(o)
	if err := w.observations.Write([]string{
		dateOrEmpty(o.Start), patientID, encID,
		code.Code, displayName(&o.Entry), value, units, kind,
	}); err != nil {
		return fmt.Errorf("text: write observation row: %w", err)
	}
	return nil
}

// Flush flushes every table. Call once after the last Append.
func (w *CSVWriter) Flush() error {
	w.flush()
	return w.error()
}

func (w *CSVWriter) flush() {
	for _, cw := range w.all() {
		cw.Flush()
	}
}

func (w *CSVWriter) error() error {
	for _, cw := range w.all() {
		if err := cw.Error(); err != nil {
			return fmt.Errorf("text: flush csv: %w", err)
		}
	}
	return nil
}

func (w *CSVWriter) all() []*csv.Writer {
	return []*csv.Writer{
		w.patients, w.encounters, w.conditions, w.observations,
		w.procedures, w.medications, w.immunizations, w.careplans, w.claims,
	}
}

func flatValue(o *record.Observation) (value, units, kind string) {
	switch v := o.Value.(type) {
	case record.Numeric:
		return fmt.Sprintf("%g", v.Value), o.Unit, "numeric"
	case record.Coded:
		return v.Code.Display, "", "coded"
	case record.Text:
		return v.Value, "", "text"
	default:
		return "", "", ""
	}
}

func dateOrEmpty(millis int64) string {
	if millis == 0 {
		return ""
	}
	return export.DateOnly(millis)
}

func codePair(c *record.Code) (string, string) {
	if c == nil {
		return "", ""
	}
	return c.Code, c.Display
}

func firstReason(reasons []record.Code) (string, string) {
	if len(reasons) == 0 {
		return "", ""
	}
	return reasons[0].Code, reasons[0].Display
}
