// Package entity implements the identity, matching, and selection
// discipline shared by every runtime object in the engine: Entity,
// Selectable, criteria-based matching, and specificity scoring.
package entity

import (
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// Entity is the minimal identity contract: a stable UID plus whatever
// capability methods (HasTag, HasPath, ...) a concrete type chooses to
// expose for criteria dispatch in Matches.
type Entity interface {
	EntityUID() uuid.UUID
}

// Base is embedded by every concrete entity type. It supplies UID,
// label, and tag storage, plus the HasTag/HasLabel capability methods
// that Matches dispatches to for the common "has_tags"/"has_label"
// criteria.
type Base struct {
	uid   uuid.UUID
	label string
	tags  map[string]struct{}
}

// NewBase constructs a Base with a fresh UID.
func NewBase(label string, tags ...string) Base {
	b := Base{uid: uuid.New(), label: label, tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		b.tags[t] = struct{}{}
	}
	return b
}

func (b *Base) EntityUID() uuid.UUID { return b.uid }
func (b *Base) Label() string        { return b.label }
func (b *Base) SetLabel(label string) { b.label = label }

// Tags returns the tag set as a slice; order is not significant.
func (b *Base) Tags() []string {
	out := make([]string, 0, len(b.tags))
	for t := range b.tags {
		out = append(out, t)
	}
	return out
}

func (b *Base) AddTag(tag string) { b.tags[tag] = struct{}{} }

// HasTag implements the has_tag(s) capability: expected may be a
// single string or a []string/[]any, in which case every tag in the
// set must be present.
func (b *Base) HasTag(expected any) bool {
	switch v := expected.(type) {
	case string:
		_, ok := b.tags[v]
		return ok
	case []string:
		for _, t := range v {
			if _, ok := b.tags[t]; !ok {
				return false
			}
		}
		return true
	case []any:
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return false
			}
			if _, ok := b.tags[s]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HasTags is an alias kept for parity with the source's plural
// spelling of the common criterion key ("has_tags").
func (b *Base) HasTags(expected any) bool { return b.HasTag(expected) }

// HasIdentifier matches against either the UID (as string or
// uuid.UUID) or the label.
func (b *Base) HasIdentifier(expected any) bool {
	switch v := expected.(type) {
	case uuid.UUID:
		return b.uid == v
	case string:
		if parsed, err := uuid.Parse(v); err == nil {
			return b.uid == parsed
		}
		return b.label == v
	default:
		return false
	}
}

func (b *Base) HasLabel(expected any) bool {
	s, ok := expected.(string)
	return ok && b.label == s
}

// Equal compares identity by UID, matching the source's "two entities
// are equal iff their UIDs match" rule.
func (b *Base) Equal(other *Base) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.uid == other.uid
}

// Predicate is the function shape accepted by the "predicate" criterion.
type Predicate func(Entity) bool

// IsInstance is the marker value accepted by the "is_instance"
// criterion: a reflect.Type obtained via entity.TypeOf[T]().
type IsInstance struct {
	Type reflect.Type
}

// TypeOf returns an IsInstance criterion value for T, for use as
// criteria["is_instance"] = entity.TypeOf[*graph.Node]().
func TypeOf[T any]() IsInstance {
	var zero T
	return IsInstance{Type: reflect.TypeOf(zero)}
}

// Matches implements the source's matches(**criteria) contract:
// every criterion must hold for the overall result to be true.
// Resolution per (key, expected) pair:
//  1. key == "predicate": call expected(self), must be truthy.
//  2. key == "is_instance": self must be assignable to expected's type.
//  3. key begins with "has_"/"is_": call that capability method via
//     reflection; missing method => no match.
//  4. else: compare an exported field named Title(key) for equality.
//  5. anything that cannot be resolved => no match.
func Matches(self Entity, criteria map[string]any) bool {
	for key, expected := range criteria {
		if !matchOne(self, key, expected) {
			return false
		}
	}
	return true
}

func matchOne(self Entity, key string, expected any) bool {
	switch key {
	case "predicate":
		pred, ok := expected.(Predicate)
		if !ok {
			if fn, ok2 := expected.(func(Entity) bool); ok2 {
				pred = fn
			} else {
				return false
			}
		}
		return pred(self)
	case "is_instance":
		want, ok := expected.(IsInstance)
		if !ok {
			return false
		}
		t := reflect.TypeOf(self)
		return t != nil && (t == want.Type || t.AssignableTo(want.Type))
	}

	if strings.HasPrefix(key, "has_") || strings.HasPrefix(key, "is_") {
		return callCapability(self, key, expected)
	}

	return attrEqual(self, key, expected)
}

// capabilityMethodName turns "has_tags" into "HasTags", "is_instance"
// (already handled above) and "has_ancestor_tags" into
// "HasAncestorTags".
func capabilityMethodName(key string) string {
	parts := strings.Split(key, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}

func callCapability(self Entity, key string, expected any) bool {
	methodName := capabilityMethodName(key)
	v := reflect.ValueOf(self)
	m := v.MethodByName(methodName)
	if !m.IsValid() {
		return false
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 {
		return false
	}
	in := reflect.ValueOf(expected)
	if expected == nil {
		in = reflect.Zero(mt.In(0))
	} else if !in.Type().AssignableTo(mt.In(0)) {
		return false
	}
	out := m.Call([]reflect.Value{in})
	b, ok := out[0].Interface().(bool)
	return ok && b
}

func attrEqual(self Entity, key string, expected any) bool {
	fieldName := capabilityMethodName(key)
	v := reflect.ValueOf(self)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false
	}
	f := v.FieldByName(fieldName)
	if !f.IsValid() || !f.CanInterface() {
		return false
	}
	return reflect.DeepEqual(f.Interface(), expected)
}

// Specificity is the CSS-like 3-tuple (idCount, classCount, otherCount)
// used to order behaviors/offers by selector precision.
type Specificity struct {
	IDCount    int
	ClassCount int
	OtherCount int
}

// Less orders specificity tuples lexicographically, matching the
// source's verbatim tuple comparison.
func (s Specificity) Less(o Specificity) bool {
	if s.IDCount != o.IDCount {
		return s.IDCount < o.IDCount
	}
	if s.ClassCount != o.ClassCount {
		return s.ClassCount < o.ClassCount
	}
	return s.OtherCount < o.OtherCount
}

// CriteriaSpecificity computes the specificity tuple for a criteria map.
func CriteriaSpecificity(criteria map[string]any) Specificity {
	idCount := 0
	if _, ok := criteria["has_identifier"]; ok {
		idCount = 1
	}
	classCount := 0
	if _, ok := criteria["is_instance"]; ok {
		classCount = 1
	}
	other := len(criteria) - idCount - classCount
	if other < 0 {
		other = 0
	}
	return Specificity{IDCount: idCount, ClassCount: classCount, OtherCount: other}
}
