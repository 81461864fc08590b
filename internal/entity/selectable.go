package entity

import "maps"

// Selector is anything that can be matched against: the caller entity
// presented to a dispatch or provisioning step.
type Selector = Entity

// Selectable is an Entity that carries its own selection_criteria,
// consulted when the item itself is the one being matched against a
// selector (e.g. a Behavior matched against a dispatch caller, or a
// Requirement matched against an offer).
type Selectable interface {
	Entity
	GetSelectionCriteria() map[string]any
}

// SelectableBase supplies the selection_criteria storage shared by
// Behavior, Requirement, and other Selectable types.
type SelectableBase struct {
	Base
	criteria map[string]any
}

// NewSelectableBase constructs a SelectableBase with an empty
// selection_criteria map ready to be populated by the embedding type.
func NewSelectableBase(label string, tags ...string) SelectableBase {
	return SelectableBase{Base: NewBase(label, tags...), criteria: map[string]any{}}
}

func (s *SelectableBase) GetSelectionCriteria() map[string]any {
	out := make(map[string]any, len(s.criteria))
	maps.Copy(out, s.criteria)
	return out
}

func (s *SelectableBase) SetSelectionCriterion(key string, value any) {
	if s.criteria == nil {
		s.criteria = map[string]any{}
	}
	s.criteria[key] = value
}

// FilterForSelector merges inlineCriteria over each item's own
// GetSelectionCriteria() (inline wins on key conflicts) and keeps
// items whose merged criteria all hold against selector.
func FilterForSelector[T Selectable](items []T, selector Selector, inlineCriteria map[string]any) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		merged := item.GetSelectionCriteria()
		for k, v := range inlineCriteria {
			merged[k] = v
		}
		if Matches(selector, merged) {
			out = append(out, item)
		}
	}
	return out
}

// MergedCriteria merges inline criteria over an item's own selection
// criteria without evaluating a match, used where callers need the
// effective criteria (e.g. specificity scoring) rather than a filter
// decision.
func MergedCriteria(item Selectable, inlineCriteria map[string]any) map[string]any {
	merged := item.GetSelectionCriteria()
	for k, v := range inlineCriteria {
		merged[k] = v
	}
	return merged
}
