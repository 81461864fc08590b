package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeActor struct {
	Base
	Role string
}

func newFakeActor(label, role string, tags ...string) *fakeActor {
	return &fakeActor{Base: NewBase(label, tags...), Role: role}
}

func TestMatches_TagCriterion(t *testing.T) {
	a := newFakeActor("hero", "protagonist", "hero", "armed")

	assert.True(t, Matches(a, map[string]any{"has_tag": "hero"}))
	assert.True(t, Matches(a, map[string]any{"has_tags": []string{"hero", "armed"}}))
	assert.False(t, Matches(a, map[string]any{"has_tag": "villain"}))
}

func TestMatches_AttributeEquality(t *testing.T) {
	a := newFakeActor("hero", "protagonist")
	assert.True(t, Matches(a, map[string]any{"role": "protagonist"}))
	assert.False(t, Matches(a, map[string]any{"role": "villain"}))
}

func TestMatches_UnknownCriterion(t *testing.T) {
	a := newFakeActor("hero", "protagonist")
	assert.False(t, Matches(a, map[string]any{"has_nonexistent_capability": "x"}))
	assert.False(t, Matches(a, map[string]any{"nonexistent_field": "x"}))
}

func TestMatches_IsInstance(t *testing.T) {
	a := newFakeActor("hero", "protagonist")
	var other struct{ Base }

	assert.True(t, Matches(a, map[string]any{"is_instance": TypeOf[*fakeActor]()}))
	assert.False(t, Matches(&other, map[string]any{"is_instance": TypeOf[*fakeActor]()}))
}

func TestMatches_Predicate(t *testing.T) {
	a := newFakeActor("hero", "protagonist")
	pred := Predicate(func(e Entity) bool {
		fa, ok := e.(*fakeActor)
		return ok && fa.Role == "protagonist"
	})
	assert.True(t, Matches(a, map[string]any{"predicate": pred}))
}

func TestMatches_OrderIndependent(t *testing.T) {
	a := newFakeActor("hero", "protagonist", "hero", "armed")
	criteria1 := map[string]any{"has_tag": "hero", "role": "protagonist"}
	criteria2 := map[string]any{"role": "protagonist", "has_tag": "hero"}
	assert.Equal(t, Matches(a, criteria1), Matches(a, criteria2))
}

func TestCriteriaSpecificity(t *testing.T) {
	idOnly := CriteriaSpecificity(map[string]any{"has_identifier": "x"})
	classOnly := CriteriaSpecificity(map[string]any{"is_instance": TypeOf[*fakeActor]()})

	assert.Equal(t, Specificity{IDCount: 1, ClassCount: 0, OtherCount: 0}, idOnly)
	assert.Equal(t, Specificity{IDCount: 0, ClassCount: 1, OtherCount: 0}, classOnly)
	assert.True(t, classOnly.Less(idOnly))
}

type fakeSelectable struct {
	SelectableBase
}

func TestFilterForSelector(t *testing.T) {
	caller := newFakeActor("hero", "protagonist", "hero")

	s1 := &fakeSelectable{SelectableBase: NewSelectableBase("s1")}
	s1.SetSelectionCriterion("has_tag", "hero")

	s2 := &fakeSelectable{SelectableBase: NewSelectableBase("s2")}
	s2.SetSelectionCriterion("has_tag", "villain")

	out := FilterForSelector([]*fakeSelectable{s1, s2}, caller, nil)
	assert.Len(t, out, 1)
	assert.Same(t, s1, out[0])
}

func TestFilterForSelector_InlineOverridesOwn(t *testing.T) {
	caller := newFakeActor("hero", "protagonist", "villain")

	s1 := &fakeSelectable{SelectableBase: NewSelectableBase("s1")}
	s1.SetSelectionCriterion("has_tag", "hero")

	out := FilterForSelector([]*fakeSelectable{s1}, caller, map[string]any{"has_tag": "villain"})
	assert.Len(t, out, 1)
}
