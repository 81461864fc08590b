package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge_ValidatesSameGraph(t *testing.T) {
	g1 := New("g1")
	g2 := New("g2")
	n1 := g1.AddNode("a")
	n2 := g2.AddNode("b")

	_, err := g1.AddEdge("e", "flows-to", n1, n2)
	require.ErrorIs(t, err, ErrLinkage)
}

func TestAddEdge_OpenEndpoints(t *testing.T) {
	g := New("g")
	n1 := g.AddNode("a")

	e, err := g.AddEdge("e", "flows-to", n1, nil)
	require.NoError(t, err)
	assert.True(t, e.IsOpen())

	dest, ok := e.Destination()
	assert.False(t, ok)
	assert.Nil(t, dest)
}

func TestNodeEdgesInOut(t *testing.T) {
	g := New("g")
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")

	_, err := g.AddEdge("ab", "flows-to", a, b)
	require.NoError(t, err)
	_, err = g.AddEdge("cb", "flows-to", c, b)
	require.NoError(t, err)

	assert.Len(t, a.EdgesOut(nil), 1)
	assert.Len(t, b.EdgesIn(nil), 2)
	assert.Len(t, b.EdgesOut(nil), 0)
}

func TestSubgraphReparenting(t *testing.T) {
	g := New("g")
	outer := g.AddSubgraph("outer")
	inner := g.AddSubgraph("inner")
	leaf := g.AddNode("leaf")

	require.NoError(t, outer.AddMember(inner))
	require.NoError(t, inner.AddMember(leaf))

	parent, ok := leaf.Parent()
	require.True(t, ok)
	assert.Same(t, inner, parent)

	ancestors := leaf.Ancestors()
	require.Len(t, ancestors, 2)
	assert.Same(t, inner, ancestors[0])
	assert.Same(t, outer, ancestors[1])

	assert.Equal(t, "outer.inner.leaf", leaf.Path())

	// re-parent leaf directly under outer; inner must lose it
	require.NoError(t, outer.AddMember(leaf))
	parent, ok = leaf.Parent()
	require.True(t, ok)
	assert.Same(t, outer, parent)
	assert.False(t, inner.hasMember(leaf.EntityUID()))
}

func TestHasAncestorTags(t *testing.T) {
	g := New("g")
	scene := g.AddSubgraph("scene", "night")
	leaf := g.AddNode("leaf", "hero")
	require.NoError(t, scene.AddMember(leaf))

	assert.True(t, leaf.HasAncestorTags([]string{"hero", "night"}))
	assert.False(t, leaf.HasAncestorTags([]string{"day"}))
}

func TestGraphGet_ByLabelAndUID(t *testing.T) {
	g := New("g")
	n := g.AddNode("a")

	byLabel, ok := g.Get("a")
	require.True(t, ok)
	assert.Same(t, n, byLabel)

	byUID, ok := g.Get(n.EntityUID().String())
	require.True(t, ok)
	assert.Same(t, n, byUID)
}
