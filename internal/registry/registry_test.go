package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekmerck/tangl-go/internal/entity"
)

type widget struct {
	entity.Base
	Kind string
}

func newWidget(label, kind string) *widget {
	return &widget{Base: entity.NewBase(label), Kind: kind}
}

func TestAdd_RejectsDuplicateUID(t *testing.T) {
	r := New[*widget]("widgets")
	w := newWidget("a", "gear")

	require.NoError(t, r.Add(w, false))
	err := r.Add(w, false)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestAdd_AllowOverwrite(t *testing.T) {
	r := New[*widget]("widgets")
	w := newWidget("a", "gear")
	require.NoError(t, r.Add(w, false))
	require.NoError(t, r.Add(w, true))
	assert.Equal(t, 1, r.Len())
}

func TestFindAll_InsertionOrder(t *testing.T) {
	r := New[*widget]("widgets")
	w1 := newWidget("a", "gear")
	w2 := newWidget("b", "gear")
	w3 := newWidget("c", "cog")
	require.NoError(t, r.Add(w1, false))
	require.NoError(t, r.Add(w2, false))
	require.NoError(t, r.Add(w3, false))

	gears := r.FindAll(map[string]any{"kind": "gear"})
	require.Len(t, gears, 2)
	assert.Same(t, w1, gears[0])
	assert.Same(t, w2, gears[1])
}

func TestFindOne(t *testing.T) {
	r := New[*widget]("widgets")
	w1 := newWidget("a", "gear")
	require.NoError(t, r.Add(w1, false))

	found, ok := r.FindOne(map[string]any{"kind": "gear"})
	require.True(t, ok)
	assert.Same(t, w1, found)

	_, ok = r.FindOne(map[string]any{"kind": "cog"})
	assert.False(t, ok)
}

func TestRemove_DiscardSemantics(t *testing.T) {
	r := New[*widget]("widgets")
	w1 := newWidget("a", "gear")
	require.NoError(t, r.Add(w1, false))

	r.Remove(w1.EntityUID())
	assert.Equal(t, 0, r.Len())

	// removing again (or an unknown uid) must not panic or error
	r.Remove(w1.EntityUID())
}

func TestChainFindAll(t *testing.T) {
	r1 := New[*widget]("r1")
	r2 := New[*widget]("r2")
	w1 := newWidget("a", "gear")
	w2 := newWidget("b", "gear")
	require.NoError(t, r1.Add(w1, false))
	require.NoError(t, r2.Add(w2, false))

	out := ChainFindAll(map[string]any{"kind": "gear"}, nil, r1, r2)
	require.Len(t, out, 2)
	assert.Same(t, w1, out[0])
	assert.Same(t, w2, out[1])
}
