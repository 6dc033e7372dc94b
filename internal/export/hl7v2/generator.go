package hl7v2

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
	"github.com/medsim/exporter/internal/terminology"
)

// Default visit durations in milliseconds by encounter type, used when an
// encounter has no recorded stop time.
const (
	defaultVisitMillis   = 15 * 60 * 1000
	emergencyVisitMillis = 60 * 60 * 1000
	inpatientVisitMillis = 24 * 60 * 60 * 1000
)

// Generator creates HL7v2 ADT messages from patient records. It is safe
// for concurrent use because it holds only immutable configuration.
type Generator struct {
	sendingApp  string
	sendingFac  string
	terminology *terminology.Registry
	logger      zerolog.Logger
}

// NewGenerator creates a new HL7v2 generator. The terminology registry may
// be nil when records carry no value-set placeholders.
func NewGenerator(sendingApp, sendingFac string, reg *terminology.Registry, logger zerolog.Logger) *Generator {
	return &Generator{sendingApp: sendingApp, sendingFac: sendingFac, terminology: reg, logger: logger}
}

// GenerateADT generates an ADT^A01 message summarizing the record as of
// stopTime. Clinical facts across all encounters merge into AL1, DG1 and
// OBX repeats; the PV1 segment reflects the latest encounter at the
// cutoff. Timestamps derive from the cutoff, never the wall clock, so the
// same record and cutoff always produce the same bytes.
func (g *Generator) GenerateADT(rec *record.Record, stopTime int64) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("hl7v2: record is nil")
	}
	if rec.Patient == nil || rec.Patient.ID == "" {
		return nil, fmt.Errorf("hl7v2: patient identity is required")
	}

	snapshot := record.Aggregate(rec, stopTime)
	seed := rec.Patient.Seed

	var segments []string
	segments = append(segments, g.buildMSH(rec.Patient, stopTime))
	segments = append(segments, buildEVN(stopTime))
	segments = append(segments, g.buildPID(rec.Patient))
	segments = append(segments, g.buildPV1(latestEncounter(rec, stopTime)))

	for i, a := range snapshot.Allergies {
		segments = append(segments, g.buildAL1(i+1, a, seed))
	}
	for i, c := range snapshot.Conditions {
		segments = append(segments, g.buildDG1(i+1, c, seed))
	}

	setID := 1
	for _, o := range snapshot.Observations {
		if panel, ok := o.Value.(record.Panel); ok {
			for _, member := range panel.Members {
				segments = append(segments, g.buildOBX(setID, member, seed))
				setID++
			}
			continue
		}
		segments = append(segments, g.buildOBX(setID, o, seed))
		setID++
	}

	return []byte(strings.Join(segments, "\r")), nil
}

// latestEncounter returns the last encounter starting at or before the
// cutoff, or nil when the record has none.
func latestEncounter(rec *record.Record, stopTime int64) *record.Encounter {
	var latest *record.Encounter
	for _, enc := range rec.Encounters {
		if enc.Start > stopTime {
			break
		}
		latest = enc
	}
	return latest
}

// buildMSH constructs the message header. The control ID derives from the
// patient identity and the cutoff so regeneration is stable.
func (g *Generator) buildMSH(p *record.Patient, stopTime int64) string {
	ts := export.HL7Timestamp(stopTime)
	controlID := fmt.Sprintf("MSG%s%d", escapeHL7(p.ID), stopTime)
	return fmt.Sprintf("MSH|^~\\&|%s|%s|||%s||ADT^A01|%s|P|2.5.1",
		escapeHL7(g.sendingApp), escapeHL7(g.sendingFac), ts, controlID)
}

// buildEVN constructs the event type segment.
func buildEVN(stopTime int64) string {
	return fmt.Sprintf("EVN|A01|%s", export.HL7Timestamp(stopTime))
}

// buildPID constructs the patient identification segment.
func (g *Generator) buildPID(p *record.Patient) string {
	patientID := escapeHL7(p.ID)
	if p.MRN != "" {
		patientID = escapeHL7(p.MRN) + "^^^" + escapeHL7(g.sendingFac) + "^MR"
	}

	name := escapeHL7(p.LastName) + "^" + escapeHL7(p.FirstName)
	if p.Prefix != "" {
		name += "^^^" + escapeHL7(p.Prefix)
	}

	address := fmt.Sprintf("%s^^%s^%s^%s^%s",
		escapeHL7(p.Address.Line),
		escapeHL7(p.Address.City),
		escapeHL7(p.Address.State),
		escapeHL7(p.Address.PostalCode),
		escapeHL7(p.Address.Country))

	return fmt.Sprintf("PID|1||%s||%s||%s|%s|||%s||%s|||%s|||%s",
		patientID, name,
		export.HL7Date(p.BirthTime),
		sexCode(p.Gender),
		address,
		escapeHL7(p.Phone),
		escapeHL7(p.MaritalStatus),
		escapeHL7(p.SSN))
}

// buildPV1 constructs the patient visit segment from the latest encounter.
// Encounters without a stop time get a synthesized discharge based on the
// visit type: an hour for emergency, a day for inpatient, fifteen minutes
// otherwise.
func (g *Generator) buildPV1(enc *record.Encounter) string {
	if enc == nil {
		return "PV1|1"
	}

	fields := make([]string, 45)
	fields[0] = "1"
	fields[1] = patientClass(enc.EncounterType)
	if enc.Provider != "" {
		fields[6] = escapeHL7(enc.Provider)
	}
	fields[43] = export.HL7Timestamp(enc.Start)
	fields[44] = export.HL7Timestamp(visitStop(enc))

	return "PV1|" + strings.Join(fields, "|")
}

// visitStop returns the encounter stop, synthesizing one for open visits.
func visitStop(enc *record.Encounter) int64 {
	if enc.Stop != 0 {
		return enc.Stop
	}
	switch enc.EncounterType.Class() {
	case "EMER":
		return enc.Start + emergencyVisitMillis
	case "IMP":
		return enc.Start + inpatientVisitMillis
	default:
		return enc.Start + defaultVisitMillis
	}
}

// buildAL1 constructs an allergy segment.
func (g *Generator) buildAL1(setID int, a *record.Allergy, seed int64) string {
	return fmt.Sprintf("AL1|%d|AL|%s", setID, g.codedElement(&a.Entry, export.SNOMEDURI, seed))
}

// buildDG1 constructs a diagnosis segment.
func (g *Generator) buildDG1(setID int, c *record.Condition, seed int64) string {
	display := ""
	if code, ok := c.PrimaryCode(); ok {
		display = escapeHL7(code.Display)
	}
	return fmt.Sprintf("DG1|%d||%s|%s|%s|W",
		setID,
		g.codedElement(&c.Entry, export.SNOMEDURI, seed),
		display,
		export.HL7Timestamp(c.Start))
}

// buildOBX constructs an observation result segment. The value type tracks
// the observation's value variant.
func (g *Generator) buildOBX(setID int, o *record.Observation, seed int64) string {
	valueType := "NM"
	value := ""
	unit := ""

	switch v := o.Value.(type) {
	case record.Numeric:
		value = strconv.FormatFloat(v.Value, 'f', -1, 64)
		unit = escapeHL7(o.Unit)
	case record.Coded:
		valueType = "CE"
		value = escapeHL7(v.Code.Code) + "^" + escapeHL7(v.Code.Display) + "^" + shortSystem(export.SystemURI(v.Code.System))
	case record.Text:
		valueType = "ST"
		value = escapeHL7(v.Value)
	}

	return fmt.Sprintf("OBX|%d|%s|%s||%s|%s|||||F|||%s",
		setID, valueType,
		g.codedElement(&o.Entry, export.LOINCURI, seed),
		value, unit,
		export.HL7Timestamp(o.Start))
}

// codedElement renders an entry's primary code as code^display^system,
// resolving value-set placeholders through the registry first.
func (g *Generator) codedElement(e *record.Entry, defaultSystem string, seed int64) string {
	raw, ok := e.PrimaryCode()
	if !ok {
		return ""
	}
	if raw.ValueSet != "" && g.terminology != nil {
		resolved, err := g.terminology.ResolveCode(raw, seed)
		if err != nil {
			g.logger.Warn().Str("value_set", raw.ValueSet).Err(err).Msg("value set resolution failed")
			return ""
		}
		raw = resolved
	}
	c, err := export.MapConcept(raw, defaultSystem)
	if err != nil {
		return escapeHL7(raw.Code) + "^" + escapeHL7(raw.Display)
	}
	return escapeHL7(c.Code) + "^" + escapeHL7(c.Display) + "^" + shortSystem(c.System)
}

// escapeHL7 escapes HL7 special characters in a string.
// The HL7 escape sequences are:
//
//	\F\ = |  (field separator)
//	\S\ = ^  (component separator)
//	\R\ = ~  (repetition separator)
//	\E\ = \  (escape character)
//	\T\ = &  (subcomponent separator)
func escapeHL7(s string) string {
	// Escape backslash first to avoid double-escaping
	s = strings.ReplaceAll(s, "\\", "\\E\\")
	s = strings.ReplaceAll(s, "|", "\\F\\")
	s = strings.ReplaceAll(s, "^", "\\S\\")
	s = strings.ReplaceAll(s, "~", "\\R\\")
	s = strings.ReplaceAll(s, "&", "\\T\\")
	return s
}

// sexCode converts a record gender to the HL7v2 administrative sex code.
func sexCode(gender string) string {
	switch gender {
	case "M", "male":
		return "M"
	case "F", "female":
		return "F"
	default:
		return "U"
	}
}

// patientClass maps an encounter type to the HL7v2 patient class.
func patientClass(t record.EncounterType) string {
	switch t.Class() {
	case "IMP":
		return "I"
	case "EMER":
		return "E"
	default:
		return "O"
	}
}

// shortSystem converts a code system URI to its HL7v2 table identifier.
func shortSystem(uri string) string {
	switch uri {
	case export.LOINCURI:
		return "LN"
	case export.SNOMEDURI:
		return "SCT"
	case export.RxNormURI:
		return "RXNORM"
	case export.ICD10URI:
		return "I10"
	case export.CVXURI:
		return "CVX"
	default:
		return uri
	}
}
