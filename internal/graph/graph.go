// Package graph implements the typed registry of graph items — Graph,
// Node, Edge, Subgraph — with parent-chain caching and link-integrity
// validation.
package graph

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/registry"
)

// ErrLinkage covers every structural-integrity violation: wiring an
// edge to an item from a different graph, or to an item not yet
// registered in any graph.
var ErrLinkage = errors.New("graph: linkage error")

// Item is the interface every Node/Edge/Subgraph satisfies: identity
// plus the owning-graph back-reference the source calls "graph" (kept
// unexported so only this package can attach it on registration).
type Item interface {
	entity.Entity
	graphRef() *Graph
	attachGraph(g *Graph)
}

// Base is embedded by Node, Edge, and Subgraph. It carries the
// non-serialized back-reference to the owning Graph.
type Base struct {
	entity.Base
	graph *Graph
}

func (b *Base) graphRef() *Graph   { return b.graph }
func (b *Base) attachGraph(g *Graph) { b.graph = g }

// Graph returns the owning graph, or nil if the item has not been
// added to one yet.
func (b *Base) Graph() *Graph { return b.graph }

// Graph is a Registry[Item] that also tracks subgraph membership for
// parent-chain resolution and validates linkable endpoints before
// wiring edges.
type Graph struct {
	entity.Base
	items *registry.Registry[Item]

	// parentOf caches the nearest containing Subgraph per item UID;
	// entries are invalidated (deleted) whenever subgraph membership
	// changes, matching the source's cached_property + delattr
	// invalidation pattern.
	parentOf map[uuid.UUID]*Subgraph
}

// New constructs an empty graph.
func New(label string) *Graph {
	return &Graph{
		Base:     entity.NewBase(label),
		items:    registry.New[Item]("graph-items"),
		parentOf: make(map[uuid.UUID]*Subgraph),
	}
}

// add registers item and attaches this graph to it. Callers use the
// typed AddNode/AddEdge/AddSubgraph wrappers; add is also how an
// Item's constructor auto-registers when it was built with a known
// graph, mirroring the source's _register_with_graph model_validator.
func (g *Graph) add(item Item) error {
	item.attachGraph(g)
	return g.items.Add(item, false)
}

// Register attaches g to item and inserts it into the graph's item
// registry. Exported so composed Item types defined outside this
// package (e.g. provision.Dependency, which embeds Edge) can register
// themselves the same way AddNode/AddEdge/AddSubgraph do internally.
func (g *Graph) Register(item Item) error {
	return g.add(item)
}

// FindAll returns every registered item of any kind matching criteria
// (nil criteria matches everything), for callers that need to scan
// item kinds this package does not expose a typed Find for.
func (g *Graph) FindAll(criteria map[string]any) []Item {
	return g.items.FindAll(criteria)
}

// AddNode constructs, registers, and returns a new Node.
func (g *Graph) AddNode(label string, tags ...string) *Node {
	n := &Node{Base: Base{Base: entity.NewBase(label, tags...)}}
	_ = g.add(n)
	return n
}

// AddSubgraph constructs, registers, and returns a new Subgraph.
func (g *Graph) AddSubgraph(label string, tags ...string) *Subgraph {
	s := &Subgraph{Base: Base{Base: entity.NewBase(label, tags...)}}
	_ = g.add(s)
	return s
}

// AddEdge constructs, registers, and returns a new Edge. source and/or
// destination may be nil (an open edge); non-nil endpoints must
// already belong to this graph.
func (g *Graph) AddEdge(label, edgeType string, source, destination *Node) (*Edge, error) {
	e := &Edge{Base: Base{Base: entity.NewBase(label)}, EdgeType: edgeType}
	if source != nil {
		if err := g.validateLinkable(source); err != nil {
			return nil, err
		}
		id := source.EntityUID()
		e.SourceID = &id
	}
	if destination != nil {
		if err := g.validateLinkable(destination); err != nil {
			return nil, err
		}
		id := destination.EntityUID()
		e.DestinationID = &id
	}
	if err := g.add(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (g *Graph) validateLinkable(item Item) error {
	if item.graphRef() == nil {
		return fmt.Errorf("%w: %v is not yet registered in any graph", ErrLinkage, item.EntityUID())
	}
	if item.graphRef() != g {
		return fmt.Errorf("%w: %v belongs to a different graph", ErrLinkage, item.EntityUID())
	}
	return nil
}

// Get resolves key as a UUID first, then as a label, then as a dotted
// path, matching the source Graph.get(key)'s str-vs-UUID dispatch.
func (g *Graph) Get(key string) (Item, bool) {
	if uid, err := uuid.Parse(key); err == nil {
		return g.items.Get(uid)
	}
	if item, ok := g.items.FindOne(map[string]any{"has_label": key}); ok {
		return item, true
	}
	return g.items.FindOne(map[string]any{"has_path": key})
}

func (g *Graph) findAllOfKind(kind any, criteria map[string]any) []Item {
	merged := map[string]any{"is_instance": kind}
	for k, v := range criteria {
		merged[k] = v
	}
	return g.items.FindAll(merged)
}

// FindNodes returns every Node matching criteria.
func (g *Graph) FindNodes(criteria map[string]any) []*Node {
	return castAll[*Node](g.findAllOfKind(entity.TypeOf[*Node](), criteria))
}

// FindEdges returns every Edge matching criteria.
func (g *Graph) FindEdges(criteria map[string]any) []*Edge {
	return castAll[*Edge](g.findAllOfKind(entity.TypeOf[*Edge](), criteria))
}

// FindSubgraphs returns every Subgraph matching criteria.
func (g *Graph) FindSubgraphs(criteria map[string]any) []*Subgraph {
	return castAll[*Subgraph](g.findAllOfKind(entity.TypeOf[*Subgraph](), criteria))
}

func (g *Graph) FindNode(criteria map[string]any) (*Node, bool) {
	all := g.FindNodes(criteria)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func (g *Graph) FindEdge(criteria map[string]any) (*Edge, bool) {
	all := g.FindEdges(criteria)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func (g *Graph) FindSubgraph(criteria map[string]any) (*Subgraph, bool) {
	all := g.FindSubgraphs(criteria)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func castAll[T Item](items []Item) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if t, ok := it.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Nodes, Edges, Subgraphs return every registered item of that kind,
// in insertion order.
func (g *Graph) Nodes() []*Node         { return g.FindNodes(nil) }
func (g *Graph) Edges() []*Edge         { return g.FindEdges(nil) }
func (g *Graph) Subgraphs() []*Subgraph { return g.FindSubgraphs(nil) }

// parentOfItem returns the nearest containing Subgraph for item,
// computing and caching it on first access.
func (g *Graph) parentOfItem(item Item) (*Subgraph, bool) {
	uid := item.EntityUID()
	if cached, ok := g.parentOf[uid]; ok {
		return cached, cached != nil
	}
	for _, sg := range g.Subgraphs() {
		if sg.hasMember(uid) {
			g.parentOf[uid] = sg
			return sg, true
		}
	}
	g.parentOf[uid] = nil
	return nil, false
}

func (g *Graph) invalidateParentCache(uid uuid.UUID) {
	delete(g.parentOf, uid)
}

// ancestorsOf walks the parent chain of item, nearest-first.
func (g *Graph) ancestorsOf(item Item) []*Subgraph {
	var out []*Subgraph
	current := item
	for {
		parent, ok := g.parentOfItem(current)
		if !ok {
			return out
		}
		out = append(out, parent)
		current = parent
	}
}

// rootOf returns the outermost ancestor of item, or item itself if it
// has no parent.
func rootOf(g *Graph, item Item) Item {
	ancestors := g.ancestorsOf(item)
	if len(ancestors) == 0 {
		return item
	}
	return ancestors[len(ancestors)-1]
}

// pathOf returns item's dotted label path from the root down.
func pathOf(g *Graph, item Item, label string) string {
	ancestors := g.ancestorsOf(item)
	parts := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		parts = append(parts, ancestors[i].Label())
	}
	parts = append(parts, label)
	return strings.Join(parts, ".")
}

// HasPathGlob reports whether p matches item's dotted path as a glob
// pattern (path.Match semantics, '.' treated as a literal separator
// like any other path component here since labels rarely contain it).
func HasPathGlob(fullPath, pattern string) bool {
	ok, err := path.Match(pattern, fullPath)
	return err == nil && ok
}
