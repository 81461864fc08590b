package graph

import (
	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
)

// Node is a GraphItem representing a vertex.
type Node struct {
	Base
}

// EdgesOut returns every Edge in the owning graph whose source is
// this node and which matches criteria.
func (n *Node) EdgesOut(criteria map[string]any) []*Edge {
	return n.filterEdges(criteria, "source_id", true)
}

// EdgesIn returns every Edge in the owning graph whose destination is
// this node and which matches criteria.
func (n *Node) EdgesIn(criteria map[string]any) []*Edge {
	return n.filterEdges(criteria, "destination_id", true)
}

// Edges returns every Edge touching this node (as source or
// destination) matching criteria.
func (n *Node) Edges(criteria map[string]any) []*Edge {
	if n.graph == nil {
		return nil
	}
	seen := make(map[uuid.UUID]bool)
	var out []*Edge
	for _, e := range append(n.EdgesOut(criteria), n.EdgesIn(criteria)...) {
		if !seen[e.EntityUID()] {
			seen[e.EntityUID()] = true
			out = append(out, e)
		}
	}
	return out
}

func (n *Node) filterEdges(criteria map[string]any, endpointField string, _ bool) []*Edge {
	if n.graph == nil {
		return nil
	}
	uid := n.EntityUID()
	all := n.graph.Edges()
	out := make([]*Edge, 0)
	for _, e := range all {
		var endpoint *uuid.UUID
		switch endpointField {
		case "source_id":
			endpoint = e.SourceID
		case "destination_id":
			endpoint = e.DestinationID
		}
		if endpoint == nil || *endpoint != uid {
			continue
		}
		if criteria == nil || entity.Matches(e, criteria) {
			out = append(out, e)
		}
	}
	return out
}

// Parent returns the nearest containing Subgraph, if any.
func (n *Node) Parent() (*Subgraph, bool) {
	if n.graph == nil {
		return nil, false
	}
	return n.graph.parentOfItem(n)
}

// Ancestors returns the chain of containing Subgraphs, nearest-first.
func (n *Node) Ancestors() []*Subgraph {
	if n.graph == nil {
		return nil
	}
	return n.graph.ancestorsOf(n)
}

// Root returns the outermost ancestor Subgraph, or the node itself if
// it has no parent (nil only when the node is not in a graph).
func (n *Node) Root() Item {
	if n.graph == nil {
		return nil
	}
	return rootOf(n.graph, n)
}

// Path returns this node's dotted label path from the root down.
func (n *Node) Path() string {
	if n.graph == nil {
		return n.Label()
	}
	return pathOf(n.graph, n, n.Label())
}

// HasPath reports whether this node's dotted path matches the glob
// pattern expected.
func (n *Node) HasPath(expected any) bool {
	pattern, ok := expected.(string)
	if !ok || n.graph == nil {
		return false
	}
	return HasPathGlob(pathOf(n.graph, n, n.Label()), pattern)
}

// HasAncestorTags reports whether the union of this node's own tags
// and every ancestor's tags is a superset of the expected tag set.
func (n *Node) HasAncestorTags(expected any) bool {
	wanted := toTagSet(expected)
	if len(wanted) == 0 {
		return true
	}
	have := make(map[string]bool)
	for _, t := range n.Tags() {
		have[t] = true
	}
	if n.graph != nil {
		for _, anc := range n.graph.ancestorsOf(n) {
			for _, t := range anc.Tags() {
				have[t] = true
			}
		}
	}
	for t := range wanted {
		if !have[t] {
			return false
		}
	}
	return true
}

// HasParentLabel reports whether this node's immediate parent
// Subgraph has the expected label.
func (n *Node) HasParentLabel(expected any) bool {
	label, ok := expected.(string)
	if !ok || n.graph == nil {
		return false
	}
	parent, ok := n.graph.parentOfItem(n)
	return ok && parent.Label() == label
}

// HasScope is deprecated in favor of matching on has_path/
// has_ancestor_tags directly; kept for source parity. scope is a
// criteria map evaluated against this node.
func (n *Node) HasScope(expected any) bool {
	scope, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	return entity.Matches(n, scope)
}

func toTagSet(v any) map[string]bool {
	out := make(map[string]bool)
	switch tags := v.(type) {
	case string:
		out[tags] = true
	case []string:
		for _, t := range tags {
			out[t] = true
		}
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
