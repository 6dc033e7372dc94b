package terminology

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/medsim/exporter/internal/record"
)

// LoadFile registers every value set found in a JSON file. The file maps
// value-set URIs to their expansions:
//
//	{
//	  "http://example.org/vs/reasons": [
//	    {"system": "SNOMED-CT", "code": "44054006", "display": "Diabetes"}
//	  ]
//	}
//
// Loading must happen before Seal. A value set with an empty expansion is
// rejected so a misconfigured file fails at startup rather than at export
// time.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("terminology: read value sets: %w", err)
	}

	var sets map[string][]record.Code
	if err := json.Unmarshal(data, &sets); err != nil {
		return fmt.Errorf("terminology: parse value sets %s: %w", path, err)
	}

	for uri, codes := range sets {
		if len(codes) == 0 {
			return fmt.Errorf("terminology: value set %q in %s has an empty expansion", uri, path)
		}
		r.Register(uri, codes)
	}
	return nil
}
