// Package singleton implements Entity classes with a class-scoped
// sub-registry of their own instances keyed by a unique label, and
// InheritingSingleton's from_ref deep-merge construction.
//
// Go has no metaclass hook to auto-create a per-subclass registry, so
// each concrete singleton type owns an explicit package-level
// *Store[T] (created once via NewStore[T]()) and calls Register itself
// from its constructor — the isolate_registry=True behavior of the
// source is simply "one Store value per Go type", which the type
// parameter already guarantees.
package singleton

import (
	"fmt"
	"maps"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ErrDuplicateLabel is returned by Register when the label is already
// taken within this Store.
type ErrDuplicateLabel struct {
	Label string
}

func (e *ErrDuplicateLabel) Error() string {
	return fmt.Sprintf("singleton: label %q already registered", e.Label)
}

// Store is a class-scoped registry of singleton instances keyed by
// label. Construct one per concrete singleton type.
type Store[T any] struct {
	mu      sync.RWMutex
	byLabel map[string]T
}

// NewStore creates an empty, isolated instance store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{byLabel: make(map[string]T)}
}

// Register adds instance under label. Returns *ErrDuplicateLabel if
// the label is already taken — callers are expected to check this
// before finishing construction, matching the source's
// check-then-register field_validator/model_validator pair.
func (s *Store[T]) Register(label string, instance T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byLabel[label]; exists {
		return &ErrDuplicateLabel{Label: label}
	}
	s.byLabel[label] = instance
	return nil
}

// Get returns the instance registered under label, if any.
func (s *Store[T]) Get(label string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byLabel[label]
	return v, ok
}

// Clear empties the store. Intended for test teardown between cases
// that construct singletons with colliding labels.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byLabel = make(map[string]T)
}

// Len reports how many instances are registered.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byLabel)
}

// Attrs is the attribute bag InheritingSingleton construction operates
// over: a nested map[string]any shape (the same shape used by
// Requirement.template elsewhere), decoded into a concrete T via
// mapstructure once merging is complete.
type Attrs = map[string]any

// MergeFromRef implements the source's from_ref inheritance rule: dict
// values are merged recursively with override winning on leaf
// conflicts, list values are replaced wholesale, and scalar values are
// replaced. base is the referenced instance's attributes; overrides
// are the explicit constructor overrides.
func MergeFromRef(base, overrides Attrs) Attrs {
	out := make(Attrs, len(base))
	maps.Copy(out, base)
	for k, v := range overrides {
		if existing, ok := out[k]; ok {
			if existingMap, ok1 := existing.(Attrs); ok1 {
				if overrideMap, ok2 := v.(Attrs); ok2 {
					out[k] = MergeFromRef(existingMap, overrideMap)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// Decode materializes merged attrs into a concrete T, the final step
// of InheritingSingleton construction (analogous to pydantic's model
// validation after from_ref merging).
func Decode[T any](attrs Attrs) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("singleton: build decoder: %w", err)
	}
	if err := dec.Decode(attrs); err != nil {
		var zero T
		return zero, fmt.Errorf("singleton: decode attrs: %w", err)
	}
	return out, nil
}

// AttrsProvider is the inverse of Decode, used to capture a referenced
// instance's current attributes before merging overrides on top of
// it. Callers that want from_ref support must implement Attrs() on
// their type (cheap: most singleton payloads are config-shaped
// structs, not graph items, so no cyclic-reference concerns arise).
type AttrsProvider interface {
	Attrs() Attrs
}
