package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Edge is a GraphItem with a source and destination; either endpoint
// may be nil (an open edge), resolved later by the provisioning
// planner.
type Edge struct {
	Base
	SourceID      *uuid.UUID
	DestinationID *uuid.UUID
	EdgeType      string
}

// Source dereferences SourceID through the owning graph.
func (e *Edge) Source() (*Node, bool) {
	return e.endpoint(e.SourceID)
}

// Destination dereferences DestinationID through the owning graph.
func (e *Edge) Destination() (*Node, bool) {
	return e.endpoint(e.DestinationID)
}

func (e *Edge) endpoint(id *uuid.UUID) (*Node, bool) {
	if id == nil || e.graph == nil {
		return nil, false
	}
	item, ok := e.graph.items.Get(*id)
	if !ok {
		return nil, false
	}
	n, ok := item.(*Node)
	return n, ok
}

// SetSource validates node belongs to this edge's graph before
// wiring, matching the source getter/setter's same-graph enforcement.
func (e *Edge) SetSource(node *Node) error {
	if e.graph == nil {
		return fmt.Errorf("%w: edge %v has no owning graph yet", ErrLinkage, e.EntityUID())
	}
	if err := e.graph.validateLinkable(node); err != nil {
		return err
	}
	id := node.EntityUID()
	e.SourceID = &id
	return nil
}

// SetDestination validates node belongs to this edge's graph before
// wiring.
func (e *Edge) SetDestination(node *Node) error {
	if e.graph == nil {
		return fmt.Errorf("%w: edge %v has no owning graph yet", ErrLinkage, e.EntityUID())
	}
	if err := e.graph.validateLinkable(node); err != nil {
		return err
	}
	id := node.EntityUID()
	e.DestinationID = &id
	return nil
}

// IsOpen reports whether either endpoint is unresolved.
func (e *Edge) IsOpen() bool {
	return e.SourceID == nil || e.DestinationID == nil
}
