// Package terminology holds the value-set registry the export pipelines use
// to resolve placeholder codes into concrete ones. The registry is populated
// once before the first export and is read-only afterwards, so concurrent
// per-patient exports may share it freely.
package terminology

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"

	"github.com/medsim/exporter/internal/export"
	"github.com/medsim/exporter/internal/record"
)

// Registry maps value-set URIs to their expansions.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	sets   map[string][]record.Code
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string][]record.Code)}
}

// Register adds or replaces the expansion of a value set. Registering after
// Seal is a programming error and panics.
func (r *Registry) Register(uri string, codes []record.Code) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("terminology: Register after Seal")
	}
	expansion := make([]record.Code, len(codes))
	copy(expansion, codes)
	r.sets[uri] = expansion
}

// Seal marks the registry read-only. Exports must only begin on a sealed
// registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Resolve picks one code from the value set's expansion, deterministically
// for a given (uri, seed) pair. The same patient seed therefore always
// yields the same concrete code for the same value set.
func (r *Registry) Resolve(uri string, seed int64) (record.Code, error) {
	r.mu.RLock()
	expansion, ok := r.sets[uri]
	r.mu.RUnlock()
	if !ok {
		return record.Code{}, export.Errf(export.UnknownValueSet, "value set %q not registered", uri)
	}
	if len(expansion) == 0 {
		return record.Code{}, export.Errf(export.UnknownValueSet, "value set %q has an empty expansion", uri)
	}

	h := fnv.New64a()
	h.Write([]byte(uri))
	rng := rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
	return expansion[rng.Intn(len(expansion))], nil
}

// ResolveCode returns the code unchanged when it carries no value-set
// placeholder, and otherwise replaces it with the resolved concrete code.
func (r *Registry) ResolveCode(code record.Code, seed int64) (record.Code, error) {
	if code.ValueSet == "" {
		return code, nil
	}
	resolved, err := r.Resolve(code.ValueSet, seed)
	if err != nil {
		return record.Code{}, err
	}
	return resolved, nil
}

// URIs lists the registered value-set URIs in sorted order.
func (r *Registry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uris := make([]string, 0, len(r.sets))
	for uri := range r.sets {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// MustRegister registers a set and panics when the expansion is empty.
// Intended for static registration at process start.
func (r *Registry) MustRegister(uri string, codes []record.Code) {
	if len(codes) == 0 {
		panic(fmt.Sprintf("terminology: empty expansion for %q", uri))
	}
	r.Register(uri, codes)
}
