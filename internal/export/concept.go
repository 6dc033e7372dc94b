package export

import "github.com/medsim/exporter/internal/record"

// Canonical code system URIs.
const (
	SNOMEDURI = "http://snomed.info/sct"
	LOINCURI  = "http://loinc.org"
	RxNormURI = "http://www.nlm.nih.gov/research/umls/rxnorm"
	CVXURI    = "http://hl7.org/fhir/sid/cvx"
	ICD10URI  = "http://hl7.org/fhir/sid/icd-10-cm"
	UCUMURI   = "http://unitsofmeasure.org"
	DICOMURI  = "http://dicom.nema.org/resources/ontology/DCM"
)

// systemURIs maps the short system names used inside simulation modules to
// canonical URIs. Values that are already URIs pass through SystemURI
// unchanged.
var systemURIs = map[string]string{
	"SNOMED-CT": SNOMEDURI,
	"LOINC":     LOINCURI,
	"RxNorm":    RxNormURI,
	"CVX":       CVXURI,
	"ICD-10":    ICD10URI,
	"ICD10-CM":  ICD10URI,
	"DICOM-DCM": DICOMURI,
	"UCUM":      UCUMURI,
}

// SystemURI normalizes a code system identifier to its canonical URI.
// Unrecognised values are returned unchanged.
func SystemURI(system string) string {
	if uri, ok := systemURIs[system]; ok {
		return uri
	}
	return system
}

// Concept is the format-neutral coded-concept representation handed to the
// pipelines. System and Code are always set; Display may be empty.
type Concept struct {
	System  string
	Code    string
	Display string
}

// MapConcept serializes an already-concrete code into a Concept. Codes
// still carrying a value-set placeholder must be resolved before mapping;
// MapConcept never consults the terminology registry.
//
// defaultSystem is used when the code has no system of its own. When both
// are absent the result is a MissingCodeSystem mapping error.
func MapConcept(code record.Code, defaultSystem string) (Concept, error) {
	system := code.System
	if system == "" {
		system = defaultSystem
	}
	if system == "" {
		return Concept{}, Errf(MissingCodeSystem, "code %q has no system and no default", code.Code)
	}
	return Concept{
		System:  SystemURI(system),
		Code:    code.Code,
		Display: code.Display,
	}, nil
}
