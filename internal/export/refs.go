package export

import "github.com/google/uuid"

// Resolver generates and remembers the document identifier for each domain
// entry during one export. It keys on record.Entry.Ref, the stable integer
// index Record.Normalize assigns, rather than on pointer identity.
//
// A Resolver belongs to exactly one export call and is never shared between
// patients; identifiers are unique within one document graph only.
type Resolver struct {
	ids map[int]string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{ids: make(map[int]string)}
}

// Assign generates a fresh identifier for the entry index and records it.
// Assigning the same index twice returns the identifier generated first.
func (r *Resolver) Assign(ref int) string {
	if id, ok := r.ids[ref]; ok {
		return id
	}
	id := uuid.NewString()
	r.ids[ref] = id
	return id
}

// Lookup returns the identifier previously assigned to the entry index.
// Looking up an unassigned index is an ordering bug in the caller: the
// referenced entry should have been emitted first.
func (r *Resolver) Lookup(ref int) (string, error) {
	id, ok := r.ids[ref]
	if !ok {
		return "", Errf(UnresolvedReference, "no identifier assigned for entry ref %d", ref)
	}
	return id, nil
}

// Len returns the number of assigned identifiers. Exposed for tests.
func (r *Resolver) Len() int { return len(r.ids) }
