package main

import (
	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/cursor"
	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/journal"
	"github.com/derekmerck/tangl-go/internal/provision"
	"github.com/derekmerck/tangl-go/internal/registry"
)

// buildDemoCursor constructs a tiny three-room scene — hub, armory,
// vault — with a Local "narrate" render behavior, a "wander" continue
// behavior that always follows the first outgoing edge, and an open
// "find-reward" Dependency at hub resolvable by the vault node (tagged
// "treasure") through a GraphProvisioner. It exists purely so the CLI
// subcommands below have something concrete to inspect/dispatch/dump/
// plan against.
func buildDemoCursor() *cursor.Cursor {
	g := graph.New("demo-scene")
	hub := g.AddNode("hub", "start")
	armory := g.AddNode("armory")
	vault := g.AddNode("vault", "treasure")

	_, _ = g.AddEdge("east", "path", hub, armory)
	_, _ = g.AddEdge("down", "path", armory, vault)

	j := journal.NewStreamRegistry()
	c := cursor.New(g, j, hub)

	nodes := registry.New[*graph.Node]("demo-nodes")
	_ = nodes.Add(hub, false)
	_ = nodes.Add(armory, false)
	_ = nodes.Add(vault, false)
	c.Provisioners = []provision.Provisioner{
		provision.NewGraphProvisioner("graph", behavior.LayerLocal, nodes),
	}

	rewardReq, _ := provision.NewRequirement("reward", provision.PolicyExisting,
		provision.WithCriteria(map[string]any{"has_tag": "treasure"}))
	_, _ = provision.NewDependency(g, "find-reward", "reward", hub, rewardReq)

	_, _ = c.Local.Register("narrate", func(_, caller entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		node := caller.(*graph.Node)
		return "you are in the " + node.Label(), nil
	}, behavior.WithTask(cursor.TaskRender))

	_, _ = c.Local.Register("wander", func(_, caller entity.Entity, _ any, _ []any, _ map[string]any) (any, error) {
		node := caller.(*graph.Node)
		edges := node.EdgesOut(nil)
		if len(edges) == 0 {
			return nil, nil
		}
		return edges[0], nil
	}, behavior.WithTask(cursor.TaskContinue))

	return c
}
