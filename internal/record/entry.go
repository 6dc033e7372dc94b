package record

// Entry is the common core of every clinical fact in a health record:
// conditions, observations, procedures, medications, immunizations,
// reports and care plans all extend it.
type Entry struct {
	// Ref is a stable per-record index assigned by Record.Normalize.
	// The export identifier resolver keys its generated identifiers on
	// this index rather than on pointer identity.
	Ref int `json:"ref,omitempty"`
	// Name is the human-readable name of the fact, typically the display
	// text of its primary code.
	Name string `json:"name,omitempty"`
	// Start is the onset time in epoch milliseconds.
	Start int64 `json:"start"`
	// Stop is the resolution time in epoch milliseconds. Zero means the
	// fact is ongoing or unresolved.
	Stop int64 `json:"stop,omitempty"`
	// Type identifies the kind of fact for text rendering.
	Type string `json:"type,omitempty"`
	// Codes holds one or more codes describing the fact. The first code
	// is the primary one.
	Codes []Code `json:"codes"`
	// Cost is the billed cost of the fact, if any.
	Cost Money `json:"cost,omitempty"`
}

// PrimaryCode returns the first code of the entry, or false if it has none.
func (e *Entry) PrimaryCode() (Code, bool) {
	if len(e.Codes) == 0 {
		return Code{}, false
	}
	return e.Codes[0], true
}

// Condition is a diagnosed problem with an onset and optional abatement time.
type Condition struct {
	Entry
}

// Allergy is an allergy or intolerance. A zero Stop means it is still active.
type Allergy struct {
	Entry
}

// Value is the polymorphic result of an Observation. Exactly one concrete
// variant backs each non-nil value; mappers dispatch exhaustively over the
// variants and treat anything else as an unsupported value.
type Value interface {
	isValue()
}

// Coded is an observation result expressed as a coded concept.
type Coded struct {
	Code Code `json:"code"`
}

// Numeric is a numeric observation result. The unit lives on the Observation.
type Numeric struct {
	Value float64 `json:"value"`
}

// Text is a free-text observation result.
type Text struct {
	Value string `json:"value"`
}

// Panel is a multi-observation result such as a blood pressure panel.
// Members are leaf observations; panels never nest further.
type Panel struct {
	Members []*Observation `json:"members"`
}

func (Coded) isValue()   {}
func (Numeric) isValue() {}
func (Text) isValue()    {}
func (Panel) isValue()   {}

// Observation is a measured or observed clinical fact. Its Value is nil
// when the observation carries no result.
type Observation struct {
	Entry
	Value    Value  `json:"-"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
}

// Report is a diagnostic report grouping previously recorded observations.
type Report struct {
	Entry
	Results []*Observation `json:"-"`
}

// Medication is a prescribed or dispensed medication. A dispensed
// medication carries its own claim.
type Medication struct {
	Entry
	Reasons    []Code `json:"reasons,omitempty"`
	StopReason *Code  `json:"stopReason,omitempty"`
	Dispensed  bool   `json:"dispensed,omitempty"`
	Claim      *Claim `json:"claim,omitempty"`
}

// Immunization is an administered vaccine. Series is the dose number within
// the vaccine series, or -1 when untracked.
type Immunization struct {
	Entry
	Series int `json:"series,omitempty"`
}

// Procedure is a performed clinical procedure.
type Procedure struct {
	Entry
	Reasons []Code `json:"reasons,omitempty"`
}

// CarePlan is a plan of care with component activities.
type CarePlan struct {
	Entry
	Activities []Code `json:"activities,omitempty"`
	Reasons    []Code `json:"reasons,omitempty"`
	StopReason *Code  `json:"stopReason,omitempty"`
}

// ImagingSeries is one series of images within an imaging study.
type ImagingSeries struct {
	DicomUID  string            `json:"dicomUid"`
	BodySite  Code              `json:"bodySite"`
	Modality  Code              `json:"modality"`
	Instances []ImagingInstance `json:"instances,omitempty"`
}

// ImagingInstance is a single image within a series.
type ImagingInstance struct {
	DicomUID string `json:"dicomUid"`
	Title    string `json:"title,omitempty"`
	SOPClass Code   `json:"sopClass"`
}

// ImagingStudy is a DICOM imaging study with one or more series.
type ImagingStudy struct {
	Entry
	DicomUID string          `json:"dicomUid"`
	Series   []ImagingSeries `json:"series,omitempty"`
}

// Device is an implanted or associated device identified by a UDI.
type Device struct {
	Entry
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	UDI          string `json:"udi,omitempty"`
}
