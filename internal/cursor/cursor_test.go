package cursor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/journal"
	"github.com/derekmerck/tangl-go/internal/provision"
	"github.com/derekmerck/tangl-go/internal/registry"
)

func allNodesRegistry(g *graph.Graph) *registry.Registry[*graph.Node] {
	reg := registry.New[*graph.Node]("nodes")
	for _, n := range g.Nodes() {
		_ = reg.Add(n, false)
	}
	return reg
}

func TestCursor_Render_AppendsFragmentsAndAdvances(t *testing.T) {
	g := graph.New("scene")
	start := g.AddNode("opening")
	next := g.AddNode("next-room")
	edge, err := g.AddEdge("go-on", "path", start, next)
	require.NoError(t, err)

	j := journal.NewStreamRegistry()
	c := New(g, j, start)

	_, err = c.Local.Register("narrate", func(_, _ entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		return "you are in the opening room", nil
	}, behavior.WithTask(TaskRender))
	require.NoError(t, err)

	_, err = c.Local.Register("advance", func(_, _ entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		return edge, nil
	}, behavior.WithTask(TaskContinue))
	require.NoError(t, err)

	require.NoError(t, c.Step(context.Background()))

	assert.Equal(t, next.EntityUID(), c.At.EntityUID())
	frags := j.IterChannel("render", nil)
	require.Len(t, frags, 1)
	fragment, ok := frags[0].(*Fragment)
	require.True(t, ok)
	assert.Equal(t, "you are in the opening room", fragment.Payload)
}

func TestCursor_Resolve_RedirectsWithoutRendering(t *testing.T) {
	g := graph.New("scene")
	start := g.AddNode("hub")
	target := g.AddNode("destination", "the-target")

	req, err := provision.NewRequirement("goto-target", provision.PolicyExisting,
		provision.WithCriteria(map[string]any{"has_tags": "the-target"}))
	require.NoError(t, err)
	dep, err := provision.NewDependency(g, "redirect-dep", "path", start, req)
	require.NoError(t, err)
	dep.AddTag(RedirectTag)

	gp := provision.NewGraphProvisioner("graph", behavior.LayerLocal, allNodesRegistry(g))

	j := journal.NewStreamRegistry()
	c := New(g, j, start)
	c.Provisioners = []provision.Provisioner{gp}

	renderCalled := false
	_, err = c.Local.Register("should-not-run", func(_, _ entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		renderCalled = true
		return "nope", nil
	}, behavior.WithTask(TaskRender))
	require.NoError(t, err)

	require.NoError(t, c.Step(context.Background()))

	assert.Equal(t, target.EntityUID(), c.At.EntityUID())
	assert.False(t, renderCalled)
}

func TestCursor_Gate_BlocksRenderOnErrorReceipt(t *testing.T) {
	g := graph.New("scene")
	start := g.AddNode("room")
	j := journal.NewStreamRegistry()
	c := New(g, j, start)

	_, err := c.Local.Register("deny", func(_, _ entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("access denied")
	}, behavior.WithTask(TaskGate))
	require.NoError(t, err)

	renderCalled := false
	_, err = c.Local.Register("blocked-render", func(_, _ entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		renderCalled = true
		return "x", nil
	}, behavior.WithTask(TaskRender))
	require.NoError(t, err)

	require.NoError(t, c.Step(context.Background()))
	assert.False(t, renderCalled)
}
