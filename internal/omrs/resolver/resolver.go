// Package resolver translates interchange concept identifiers into the
// relational identifiers assigned during the current run.
package resolver

import (
	"fmt"
	"sync"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

// Resolver maps interchange ids to relational ids. It is populated during the
// concept phase of an import and queried during the mapping phase. The zero
// value is not usable; call New.
type Resolver struct {
	mu  sync.RWMutex
	ids map[string]int64
}

// New returns an empty resolver scoped to one run.
func New() *Resolver {
	return &Resolver{ids: make(map[string]int64)}
}

// Register records that oldID was materialized as newID. Registering the same
// pair twice is a no-op; registering oldID against a different newID fails
// with omrs.ErrIdentifierConflict.
func (r *Resolver) Register(oldID string, newID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.ids[oldID]; ok && existing != newID {
		return fmt.Errorf("%w: %s already resolves to %d, not %d", omrs.ErrIdentifierConflict, oldID, existing, newID)
	}
	r.ids[oldID] = newID
	return nil
}

// Resolve returns the relational id registered for oldID.
func (r *Resolver) Resolve(oldID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[oldID]
	if !ok {
		return 0, &omrs.UnresolvedIdentifierError{ID: oldID}
	}
	return id, nil
}

// Len returns the number of registered identifiers.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
