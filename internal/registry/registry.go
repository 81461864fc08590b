// Package registry implements Registry[T], the insertion-ordered,
// UID-keyed store with criteria-driven iteration and chaining used by
// the engine's graphs and behavior registries. The journal's
// StreamRegistry keeps its own storage and does not use it.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
)

// ErrDuplicateIdentity is returned by Add when a UID is already
// present and overwrite was not requested.
var ErrDuplicateIdentity = errors.New("registry: duplicate identity")

// Registry is an insertion-ordered mapping from UID to T. T must
// satisfy entity.Entity so criteria matching can dispatch against it.
type Registry[T entity.Entity] struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]T
	order  []uuid.UUID
	label  string
}

// New creates an empty registry. label is used only for diagnostics
// (error messages, logging) — it is not part of identity.
func New[T entity.Entity](label string) *Registry[T] {
	return &Registry[T]{items: make(map[uuid.UUID]T), label: label}
}

func (r *Registry[T]) Label() string { return r.label }

// Add inserts value keyed by its EntityUID(). Returns
// ErrDuplicateIdentity if the UID is already present, unless
// allowOverwrite is true.
func (r *Registry[T]) Add(value T, allowOverwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := value.EntityUID()
	if _, exists := r.items[uid]; exists {
		if !allowOverwrite {
			return fmt.Errorf("%w: %s in registry %q", ErrDuplicateIdentity, uid, r.label)
		}
		r.items[uid] = value
		return nil
	}
	r.items[uid] = value
	r.order = append(r.order, uid)
	return nil
}

// Remove deletes value's UID from the registry. Base Registry removal
// is discard-semantics (no error if absent); the journal's
// StreamRegistry, by contrast, always rejects removal.
func (r *Registry[T]) Remove(uid uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[uid]; !ok {
		return
	}
	delete(r.items, uid)
	for i, id := range r.order {
		if id == uid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the item for uid.
func (r *Registry[T]) Get(uid uuid.UUID) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[uid]
	return v, ok
}

// Len returns the number of items currently registered.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns every item in insertion order.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// FindAll yields every item matching all criteria, in insertion order.
func (r *Registry[T]) FindAll(criteria map[string]any) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0)
	for _, id := range r.order {
		v := r.items[id]
		if entity.Matches(v, criteria) {
			out = append(out, v)
		}
	}
	return out
}

// FindOne returns the first item matching criteria, if any.
func (r *Registry[T]) FindOne(criteria map[string]any) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		v := r.items[id]
		if entity.Matches(v, criteria) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ChainFindAll iterates registries in the given order, yielding
// matches from each; when sortKey is non-nil the concatenated result
// is stable-sorted by it afterward, matching the source's
// "arbitrary additional sort_key may be supplied" allowance.
func ChainFindAll[T entity.Entity](criteria map[string]any, sortKey func(a, b T) bool, registries ...*Registry[T]) []T {
	var out []T
	for _, r := range registries {
		out = append(out, r.FindAll(criteria)...)
	}
	if sortKey != nil {
		sort.SliceStable(out, func(i, j int) bool { return sortKey(out[i], out[j]) })
	}
	return out
}
