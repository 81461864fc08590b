package provision

import (
	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/graph"
)

// Dependency is an Edge whose destination starts open and is resolved
// by satisfying Requirement: the caller node depends on something
// matching the requirement existing, being created, or being cloned.
type Dependency struct {
	graph.Edge
	Requirement *Requirement
}

// NewDependency registers a new open-destination Dependency sourced
// at source.
func NewDependency(g *graph.Graph, label, edgeType string, source *graph.Node, req *Requirement) (*Dependency, error) {
	d := &Dependency{
		Edge:        graph.Edge{Base: graph.Base{Base: entity.NewBase(label)}, EdgeType: edgeType},
		Requirement: req,
	}
	if err := g.Register(d); err != nil {
		return nil, err
	}
	if source != nil {
		if err := d.SetSource(source); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Satisfied reports whether this dependency's requirement has a bound
// provider (or is soft).
func (d *Dependency) Satisfied() bool { return d.Requirement.Satisfied() }

// Affordance is an Edge whose source starts open: destination offers
// something (a capability, an interaction) that some other node can
// provide by resolving Requirement.
type Affordance struct {
	graph.Edge
	Requirement *Requirement
}

// NewAffordance registers a new open-source Affordance fixed at
// destination.
func NewAffordance(g *graph.Graph, label, edgeType string, destination *graph.Node, req *Requirement) (*Affordance, error) {
	a := &Affordance{
		Edge:        graph.Edge{Base: graph.Base{Base: entity.NewBase(label)}, EdgeType: edgeType},
		Requirement: req,
	}
	if err := g.Register(a); err != nil {
		return nil, err
	}
	if destination != nil {
		if err := a.SetDestination(destination); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Satisfied reports whether this affordance's requirement has a bound
// provider (or is soft).
func (a *Affordance) Satisfied() bool { return a.Requirement.Satisfied() }
