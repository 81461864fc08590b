package provision

import (
	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/graph"
)

// Cost bands the relative expense of satisfying a requirement by a
// given operation — cheaper operations are preferred at equal
// proximity.
type Cost int

const (
	CostDirect        Cost = 10  // EXISTING: the node already exists
	CostLightIndirect Cost = 50  // UPDATE: mutate an existing node in place
	CostHeavyIndirect Cost = 100 // CLONE: deep-copy a reference node
	CostCreate        Cost = 200 // CREATE/CREATE_TOKEN: build from scratch
)

// OfferBase is the common envelope every offer carries: its own
// identity, the cost/proximity used to rank it, which provisioner and
// layer emitted it, and its position in the flattened emission order
// (the final collection-stage tie-break).
type OfferBase struct {
	entity.Base
	Cost            int
	Proximity       int
	ProximityDetail string
	SourceProvisionerID uuid.UUID
	SourceLayer     behavior.HandlerLayer
	EmissionIndex   int
}

func newOfferBase(cost, proximity int, detail string, provisionerID uuid.UUID, layer behavior.HandlerLayer) OfferBase {
	return OfferBase{
		Base:                entity.NewBase(""),
		Cost:                cost,
		Proximity:           proximity,
		ProximityDetail:     detail,
		SourceProvisionerID: provisionerID,
		SourceLayer:         layer,
	}
}

// DependencyOffer proposes a way to resolve an open Requirement: a
// node already satisfying it, or a callback that creates/updates/
// clones one on acceptance.
type DependencyOffer struct {
	OfferBase
	RequirementID uuid.UUID
	Operation     Policy
	ProviderID    *uuid.UUID
	Accept        func(ctx *ProvisioningContext) (*graph.Node, error)
}

// AffordanceOffer proposes a brand new Affordance edge a provisioner
// is willing to attach to a node, broadcast independently of any
// pre-existing open Affordance.
type AffordanceOffer struct {
	OfferBase
	Label      string
	TargetTags map[string]bool
	Accept     func(ctx *ProvisioningContext, destination *graph.Node) (*Affordance, error)
}

// AvailableFor reports whether node carries every tag this offer
// requires (an empty TargetTags set means "available everywhere").
func (o *AffordanceOffer) AvailableFor(node *graph.Node) bool {
	if len(o.TargetTags) == 0 {
		return true
	}
	have := make(map[string]bool, len(node.Tags()))
	for _, t := range node.Tags() {
		have[t] = true
	}
	for want := range o.TargetTags {
		if !have[want] {
			return false
		}
	}
	return true
}

func uuidPtr(u uuid.UUID) *uuid.UUID { return &u }

// SelectionAudit records one candidate offer considered while
// resolving a requirement, kept alongside the winning PlannedOffer so
// a reviewer can see the full rationale, not just the outcome.
type SelectionAudit struct {
	ProviderID      *uuid.UUID
	Cost            int
	BaseCost        int
	Proximity       int
	ProximityDetail string
}

// baseCostForOperation returns the un-adjusted Cost band for op, the
// "base_cost" half of a SelectionAudit entry (Cost itself may include
// a proximity adjustment on top of this).
func baseCostForOperation(op Policy) int {
	switch op {
	case PolicyExisting:
		return int(CostDirect)
	case PolicyUpdate:
		return int(CostLightIndirect)
	case PolicyClone:
		return int(CostHeavyIndirect)
	case PolicyCreate, PolicyCreateToken:
		return int(CostCreate)
	default:
		return 0
	}
}

func auditFor(o *DependencyOffer) SelectionAudit {
	return SelectionAudit{
		ProviderID:      o.ProviderID,
		Cost:            o.Cost,
		BaseCost:        baseCostForOperation(o.Operation),
		Proximity:       o.Proximity,
		ProximityDetail: o.ProximityDetail,
	}
}
