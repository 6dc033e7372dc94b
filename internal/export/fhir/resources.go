// Package fhir maps a patient health record onto an abstract FHIR bundle.
// One mapper serves the R4, STU3 and DSTU2 wire versions; the resource
// structs carry the superset of fields and the mapper populates the ones
// the selected version defines.
package fhir

import "encoding/json"

// Coding is one code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a concept expressed as one or more codings with
// optional free text.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference points at another resource in the same bundle by full URL.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Period is a bounded or half-open time interval.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Quantity is a measured amount with a UCUM unit.
type Quantity struct {
	Value  *float64 `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

// Amount is a monetary amount. Value is kept as a pre-rendered decimal
// number so claim totals marshal with exactly two decimal places.
type Amount struct {
	Value    json.Number `json:"value"`
	Currency string      `json:"currency,omitempty"`
}

// Identifier is a business identifier such as an MRN or SSN.
type Identifier struct {
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// HumanName is a person name.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// Communication is a patient language entry.
type Communication struct {
	Language CodeableConcept `json:"language"`
}

// Patient is the demographic root resource of an exported bundle.
type Patient struct {
	ResourceType     string           `json:"resourceType"`
	ID               string           `json:"id,omitempty"`
	Identifier       []Identifier     `json:"identifier,omitempty"`
	Name             []HumanName      `json:"name,omitempty"`
	Gender           string           `json:"gender,omitempty"`
	BirthDate        string           `json:"birthDate,omitempty"`
	DeceasedDateTime string           `json:"deceasedDateTime,omitempty"`
	Address          []Address        `json:"address,omitempty"`
	MaritalStatus    *CodeableConcept `json:"maritalStatus,omitempty"`
	Communication    []Communication  `json:"communication,omitempty"`
}

// Encounter is a mapped clinical visit. Class is a Coding for R4/STU3 and
// a bare code string for DSTU2, so it stays loosely typed.
type Encounter struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Status       string            `json:"status,omitempty"`
	Class        interface{}       `json:"class,omitempty"`
	Type         []CodeableConcept `json:"type,omitempty"`
	Subject      *Reference        `json:"subject,omitempty"`
	Patient      *Reference        `json:"patient,omitempty"`
	Period       *Period           `json:"period,omitempty"`
	ReasonCode   []CodeableConcept `json:"reasonCode,omitempty"`
	Provider     *Reference        `json:"serviceProvider,omitempty"`
}

// Condition is a diagnosed problem.
type Condition struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id,omitempty"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`
	Code               *CodeableConcept `json:"code,omitempty"`
	Subject            *Reference       `json:"subject,omitempty"`
	Encounter          *Reference       `json:"encounter,omitempty"`
	Context            *Reference       `json:"context,omitempty"`
	OnsetDateTime      string           `json:"onsetDateTime,omitempty"`
	AbatementDateTime  string           `json:"abatementDateTime,omitempty"`
	RecordedDate       string           `json:"recordedDate,omitempty"`
}

// AllergyIntolerance is an allergy entry.
type AllergyIntolerance struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	Type           string           `json:"type,omitempty"`
	Category       []string         `json:"category,omitempty"`
	Criticality    string           `json:"criticality,omitempty"`
	Code           *CodeableConcept `json:"code,omitempty"`
	Patient        *Reference       `json:"patient,omitempty"`
	RecordedDate   string           `json:"recordedDate,omitempty"`
}

// ObservationComponent is one member of a panel observation.
type ObservationComponent struct {
	Code                 CodeableConcept  `json:"code"`
	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueString          string           `json:"valueString,omitempty"`
}

// Observation is a measured clinical fact with a polymorphic value.
type Observation struct {
	ResourceType         string                 `json:"resourceType"`
	ID                   string                 `json:"id,omitempty"`
	Status               string                 `json:"status,omitempty"`
	Category             []CodeableConcept      `json:"category,omitempty"`
	Code                 *CodeableConcept       `json:"code,omitempty"`
	Subject              *Reference             `json:"subject,omitempty"`
	Encounter            *Reference             `json:"encounter,omitempty"`
	Context              *Reference             `json:"context,omitempty"`
	EffectiveDateTime    string                 `json:"effectiveDateTime,omitempty"`
	Issued               string                 `json:"issued,omitempty"`
	ValueQuantity        *Quantity              `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept       `json:"valueCodeableConcept,omitempty"`
	ValueString          string                 `json:"valueString,omitempty"`
	Component            []ObservationComponent `json:"component,omitempty"`
}

// Procedure is a performed procedure.
type Procedure struct {
	ResourceType      string           `json:"resourceType"`
	ID                string           `json:"id,omitempty"`
	Status            string           `json:"status,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	Encounter         *Reference       `json:"encounter,omitempty"`
	Context           *Reference       `json:"context,omitempty"`
	PerformedDateTime string           `json:"performedDateTime,omitempty"`
	PerformedPeriod   *Period          `json:"performedPeriod,omitempty"`
	ReasonReference   []Reference      `json:"reasonReference,omitempty"`
}

// MedicationRequest is a prescription. For DSTU2 the mapper emits the same
// shape under the MedicationOrder resource type.
type MedicationRequest struct {
	ResourceType              string           `json:"resourceType"`
	ID                        string           `json:"id,omitempty"`
	Status                    string           `json:"status,omitempty"`
	Intent                    string           `json:"intent,omitempty"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Subject                   *Reference       `json:"subject,omitempty"`
	Patient                   *Reference       `json:"patient,omitempty"`
	Encounter                 *Reference       `json:"encounter,omitempty"`
	Context                   *Reference       `json:"context,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`
	DateWritten               string           `json:"dateWritten,omitempty"`
	ReasonReference           []Reference      `json:"reasonReference,omitempty"`
}

// Immunization is an administered vaccine.
type Immunization struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id,omitempty"`
	Status             string           `json:"status,omitempty"`
	VaccineCode        *CodeableConcept `json:"vaccineCode,omitempty"`
	Patient            *Reference       `json:"patient,omitempty"`
	Encounter          *Reference       `json:"encounter,omitempty"`
	OccurrenceDateTime string           `json:"occurrenceDateTime,omitempty"`
	Date               string           `json:"date,omitempty"`
	PrimarySource      *bool            `json:"primarySource,omitempty"`
}

// DiagnosticReport groups previously emitted observations.
type DiagnosticReport struct {
	ResourceType      string           `json:"resourceType"`
	ID                string           `json:"id,omitempty"`
	Status            string           `json:"status,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	Encounter         *Reference       `json:"encounter,omitempty"`
	Context           *Reference       `json:"context,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	Issued            string           `json:"issued,omitempty"`
	Result            []Reference      `json:"result,omitempty"`
}

// CarePlanDetail is the coded activity inside a care plan activity.
type CarePlanDetail struct {
	Code   *CodeableConcept `json:"code,omitempty"`
	Status string           `json:"status,omitempty"`
}

// CarePlanActivity is one activity of a care plan.
type CarePlanActivity struct {
	Detail *CarePlanDetail `json:"detail,omitempty"`
}

// CarePlan is a plan of care.
type CarePlan struct {
	ResourceType string             `json:"resourceType"`
	ID           string             `json:"id,omitempty"`
	Status       string             `json:"status,omitempty"`
	Intent       string             `json:"intent,omitempty"`
	Category     []CodeableConcept  `json:"category,omitempty"`
	Subject      *Reference         `json:"subject,omitempty"`
	Encounter    *Reference         `json:"encounter,omitempty"`
	Context      *Reference         `json:"context,omitempty"`
	Period       *Period            `json:"period,omitempty"`
	Addresses    []Reference        `json:"addresses,omitempty"`
	Activity     []CarePlanActivity `json:"activity,omitempty"`
}

// Device is an implanted or associated device.
type Device struct {
	ResourceType       string           `json:"resourceType"`
	ID                 string           `json:"id,omitempty"`
	Status             string           `json:"status,omitempty"`
	DistinctIdentifier string           `json:"distinctIdentifier,omitempty"`
	Manufacturer       string           `json:"manufacturer,omitempty"`
	ModelNumber        string           `json:"modelNumber,omitempty"`
	Type               *CodeableConcept `json:"type,omitempty"`
	Patient            *Reference       `json:"patient,omitempty"`
}

// ImagingStudyInstance is one image of an imaging series.
type ImagingStudyInstance struct {
	UID      string `json:"uid"`
	SOPClass Coding `json:"sopClass"`
	Title    string `json:"title,omitempty"`
}

// ImagingStudySeries is one series of an imaging study.
type ImagingStudySeries struct {
	UID      string                 `json:"uid"`
	Modality Coding                 `json:"modality"`
	BodySite *Coding                `json:"bodySite,omitempty"`
	Instance []ImagingStudyInstance `json:"instance,omitempty"`
}

// ImagingStudy is a DICOM study.
type ImagingStudy struct {
	ResourceType string               `json:"resourceType"`
	ID           string               `json:"id,omitempty"`
	Status       string               `json:"status,omitempty"`
	Identifier   []Identifier         `json:"identifier,omitempty"`
	Subject      *Reference           `json:"subject,omitempty"`
	Encounter    *Reference           `json:"encounter,omitempty"`
	Context      *Reference           `json:"context,omitempty"`
	Started      string               `json:"started,omitempty"`
	Series       []ImagingStudySeries `json:"series,omitempty"`
}

// ClaimDiagnosis links a claim to a diagnosed condition by sequence.
type ClaimDiagnosis struct {
	Sequence           int       `json:"sequence"`
	DiagnosisReference Reference `json:"diagnosisReference"`
}

// ClaimProcedure links a claim to a billed procedure by sequence.
type ClaimProcedure struct {
	Sequence           int       `json:"sequence"`
	ProcedureReference Reference `json:"procedureReference"`
}

// ClaimInsurance is the mandatory claim insurance block.
type ClaimInsurance struct {
	Sequence int        `json:"sequence"`
	Focal    bool       `json:"focal"`
	Coverage *Reference `json:"coverage,omitempty"`
}

// ClaimLineItem is one line item on a claim. ProductOrService is the R4
// field name; Service carries the same concept for STU3/DSTU2.
type ClaimLineItem struct {
	Sequence          int              `json:"sequence"`
	ProductOrService  *CodeableConcept `json:"productOrService,omitempty"`
	Service           *CodeableConcept `json:"service,omitempty"`
	Encounter         []Reference      `json:"encounter,omitempty"`
	Net               *Amount          `json:"net,omitempty"`
	ProcedureSequence []int            `json:"procedureSequence,omitempty"`
	DiagnosisSequence []int            `json:"diagnosisSequence,omitempty"`
}

// Claim is the billing resource emitted once per encounter and once per
// dispensed medication.
type Claim struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id,omitempty"`
	Status         string           `json:"status,omitempty"`
	Type           *CodeableConcept `json:"type,omitempty"`
	Use            string           `json:"use,omitempty"`
	Patient        *Reference       `json:"patient,omitempty"`
	BillablePeriod *Period          `json:"billablePeriod,omitempty"`
	Created        string           `json:"created,omitempty"`
	Provider       *Reference       `json:"provider,omitempty"`
	Priority       *CodeableConcept `json:"priority,omitempty"`
	Prescription   *Reference       `json:"prescription,omitempty"`
	Insurance      []ClaimInsurance `json:"insurance,omitempty"`
	Diagnosis      []ClaimDiagnosis `json:"diagnosis,omitempty"`
	Procedure      []ClaimProcedure `json:"procedure,omitempty"`
	Item           []ClaimLineItem  `json:"item,omitempty"`
	Total          *Amount          `json:"total,omitempty"`
}

// BundleEntry is one bundle entry holding a resource and its full URL.
type BundleEntry struct {
	FullURL  string      `json:"fullUrl,omitempty"`
	Resource interface{} `json:"resource,omitempty"`
}

// Bundle is the exported document graph prior to byte serialization.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}
