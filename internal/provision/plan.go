package provision

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/receipt"
	"github.com/derekmerck/tangl-go/internal/tangllog"
)

var planLog = tangllog.For("planning")

// gatherOpenDependencies finds every Dependency sourced at node whose
// requirement has no bound provider yet.
//
// The source walks node's ancestor chain too, since a Node there can
// itself carry global scope-level dependencies. Our graph keeps Nodes
// and Subgraphs as distinct Item kinds and only Nodes can source
// Edges, so an ancestor Subgraph can never itself be a dependency's
// source — the walk degrades to node-local collection. Recorded as a
// deliberate simplification, not a silent gap.
func gatherOpenDependencies(g *graph.Graph, node *graph.Node) []*Dependency {
	var out []*Dependency
	for _, item := range g.FindAll(nil) {
		if d, ok := item.(*Dependency); ok && d.SourceID != nil && *d.SourceID == node.EntityUID() {
			if d.Requirement != nil && d.Requirement.ProviderID == nil {
				out = append(out, d)
			}
		}
	}
	return out
}

// gatherOpenAffordances finds every Affordance fixed at node whose
// requirement has no bound provider yet.
func gatherOpenAffordances(g *graph.Graph, node *graph.Node) []*Affordance {
	var out []*Affordance
	for _, item := range g.FindAll(nil) {
		if a, ok := item.(*Affordance); ok && a.DestinationID != nil && *a.DestinationID == node.EntityUID() {
			if a.Requirement != nil && a.Requirement.ProviderID == nil {
				out = append(out, a)
			}
		}
	}
	return out
}

// collectDependencyOffers fans out DependencyOffers(req, ctx) across
// every provisioner concurrently (the one sanctioned parallelism
// point in the planner — each provisioner's collection is independent
// and side-effect-free), then flattens in declared provisioner order
// and stamps a final, globally unique EmissionIndex.
func collectDependencyOffers(req *Requirement, ctx *ProvisioningContext, provisioners []Provisioner) []*DependencyOffer {
	results := make([][]*DependencyOffer, len(provisioners))
	var grp errgroup.Group
	for i, p := range provisioners {
		i, p := i, p
		grp.Go(func() error {
			results[i] = p.DependencyOffers(req, ctx)
			return nil
		})
	}
	_ = grp.Wait()

	var out []*DependencyOffer
	for _, r := range results {
		out = append(out, r...)
	}
	for idx, o := range out {
		o.EmissionIndex = idx
	}
	return out
}

// collectAffordanceOffers is collectDependencyOffers' counterpart for
// broadcast affordances.
func collectAffordanceOffers(node *graph.Node, ctx *ProvisioningContext, provisioners []Provisioner) []*AffordanceOffer {
	results := make([][]*AffordanceOffer, len(provisioners))
	var grp errgroup.Group
	for i, p := range provisioners {
		i, p := i, p
		grp.Go(func() error {
			results[i] = p.AffordanceOffers(node, ctx)
			return nil
		})
	}
	_ = grp.Wait()

	var out []*AffordanceOffer
	for _, r := range results {
		out = append(out, r...)
	}
	for idx, o := range out {
		o.EmissionIndex = idx
	}
	return out
}

// dedupeOffers groups EXISTING offers with a bound provider by
// provider ID, keeping only the cheapest per provider. Every other
// offer (non-EXISTING, or EXISTING with no provider) passes through
// unchanged, in original order.
func dedupeOffers(offers []*DependencyOffer) []*DependencyOffer {
	bestByProvider := make(map[uuid.UUID]*DependencyOffer)
	var order []uuid.UUID
	var passthrough []*DependencyOffer

	for _, o := range offers {
		if o.Operation == PolicyExisting && o.ProviderID != nil {
			pid := *o.ProviderID
			if cur, ok := bestByProvider[pid]; !ok {
				bestByProvider[pid] = o
				order = append(order, pid)
			} else if offerLess(o, cur) {
				bestByProvider[pid] = o
			}
			continue
		}
		passthrough = append(passthrough, o)
	}

	out := make([]*DependencyOffer, 0, len(bestByProvider)+len(passthrough))
	for _, pid := range order {
		out = append(out, bestByProvider[pid])
	}
	return append(out, passthrough...)
}

func offerLess(a, b *DependencyOffer) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if a.Proximity != b.Proximity {
		return a.Proximity < b.Proximity
	}
	return a.EmissionIndex < b.EmissionIndex
}

// selectBest picks the cheapest offer (cost, then proximity, then
// emission order), the planner's tie-break for "first wins".
func selectBest(offers []*DependencyOffer) (*DependencyOffer, bool) {
	if len(offers) == 0 {
		return nil, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if offerLess(o, best) {
			best = o
		}
	}
	return best, true
}

// PlannedOffer is one resolved step of a ProvisioningPlan: either a
// selected DependencyOffer bound to a pre-existing open Dependency or
// Affordance, or a fresh broadcast AffordanceOffer attaching to a
// node that had no prior open edge at all.
type PlannedOffer struct {
	Requirement *Requirement
	Dependency  *Dependency
	Affordance  *Affordance
	DepOffer    *DependencyOffer
	Audit       []SelectionAudit

	BroadcastNode  *graph.Node
	BroadcastOffer *AffordanceOffer
}

// ProvisioningPlan is the ordered list of resolved steps awaiting
// execution. Execute is idempotent: a second call returns the same
// cached receipts rather than re-running acceptors.
type ProvisioningPlan struct {
	steps    []*PlannedOffer
	executed bool
	cached   []*receipt.BuildReceipt
}

// Steps returns the plan's resolved steps in execution order, letting
// a caller (e.g. the cursor's resolve phase) inspect what each step
// bound without re-running Execute.
func (p *ProvisioningPlan) Steps() []*PlannedOffer { return p.steps }

// Execute runs every planned step's acceptor in order, binding
// providers as they resolve. A failing acceptor produces an
// unaccepted BuildReceipt carrying the failure reason and does not
// stop the remaining steps.
func (p *ProvisioningPlan) Execute(ctx *ProvisioningContext) []*receipt.BuildReceipt {
	if p.executed {
		return p.cached
	}
	p.executed = true
	builds := make([]*receipt.BuildReceipt, 0, len(p.steps))
	for _, step := range p.steps {
		builds = append(builds, executeStep(step, ctx))
	}
	p.cached = builds
	return builds
}

func executeStep(step *PlannedOffer, ctx *ProvisioningContext) (result *receipt.BuildReceipt) {
	defer func() {
		if r := recover(); r != nil {
			result = failedBuildReceipt(step, fmt.Sprintf("panic: %v", r))
		}
	}()

	if step.DepOffer != nil {
		provider, err := step.DepOffer.Accept(ctx)
		if err != nil {
			return failedBuildReceipt(step, err.Error())
		}
		step.Requirement.SetProvider(provider.EntityUID())
		if step.Dependency != nil {
			_ = step.Dependency.SetDestination(provider)
		}
		if step.Affordance != nil {
			_ = step.Affordance.SetSource(provider)
		}
		return receipt.NewBuildReceipt(
			step.DepOffer.SourceProvisionerID, step.Requirement.EntityUID(),
			operationName(step.DepOffer.Operation), true, step.Requirement.HardRequirement,
			uuidPtr(provider.EntityUID()), "",
		)
	}

	if step.BroadcastOffer != nil {
		aff, err := step.BroadcastOffer.Accept(ctx, step.BroadcastNode)
		if err != nil {
			return failedBuildReceipt(step, err.Error())
		}
		var providerID *uuid.UUID
		if src, ok := aff.Source(); ok {
			providerID = uuidPtr(src.EntityUID())
		}
		return receipt.NewBuildReceipt(
			step.BroadcastOffer.SourceProvisionerID, aff.EntityUID(),
			"AFFORDANCE", true, false, providerID, "",
		)
	}

	return failedBuildReceipt(step, "empty planned offer")
}

func failedBuildReceipt(step *PlannedOffer, reason string) *receipt.BuildReceipt {
	planLog.Error("acceptor failed: %s", reason)
	var provisionerID, requirementID uuid.UUID
	hardReq := false
	switch {
	case step.DepOffer != nil:
		provisionerID = step.DepOffer.SourceProvisionerID
		requirementID = step.Requirement.EntityUID()
		hardReq = step.Requirement.HardRequirement
	case step.BroadcastOffer != nil:
		provisionerID = step.BroadcastOffer.SourceProvisionerID
	}
	return receipt.NewBuildReceipt(provisionerID, requirementID, "", false, hardReq, nil, reason)
}

// BuildPlan runs the collection/deduplication/selection phases for
// every open Dependency and Affordance touching node, plus every
// available broadcast AffordanceOffer (deduplicated by label), and
// returns the resulting plan alongside any requirements nothing could
// resolve — hard ones reported separately from waived soft ones.
func BuildPlan(ctx *ProvisioningContext, node *graph.Node, provisioners []Provisioner) (plan *ProvisioningPlan, unresolvedHard, waivedSoft []*Requirement) {
	plan = &ProvisioningPlan{}

	resolve := func(req *Requirement, sourceNode *graph.Node, dep *Dependency, aff *Affordance) {
		ctx.CurrentRequirementID = req.EntityUID()
		if sourceNode != nil {
			ctx.CurrentRequirementSourceID = sourceNode.EntityUID()
		}
		offers := dedupeOffers(collectDependencyOffers(req, ctx, provisioners))
		audits := make([]SelectionAudit, len(offers))
		for i, o := range offers {
			audits[i] = auditFor(o)
		}
		best, ok := selectBest(offers)
		if !ok {
			if req.HardRequirement {
				unresolvedHard = append(unresolvedHard, req)
			} else {
				waivedSoft = append(waivedSoft, req)
			}
			return
		}
		plan.steps = append(plan.steps, &PlannedOffer{Requirement: req, Dependency: dep, Affordance: aff, DepOffer: best, Audit: audits})
	}

	for _, dep := range gatherOpenDependencies(ctx.Graph, node) {
		src, _ := dep.Source()
		resolve(dep.Requirement, src, dep, nil)
	}
	for _, aff := range gatherOpenAffordances(ctx.Graph, node) {
		dest, _ := aff.Destination()
		resolve(aff.Requirement, dest, nil, aff)
	}

	seenLabels := make(map[string]bool)
	for _, offer := range collectAffordanceOffers(node, ctx, provisioners) {
		if !offer.AvailableFor(node) || seenLabels[offer.Label] {
			continue
		}
		seenLabels[offer.Label] = true
		plan.steps = append(plan.steps, &PlannedOffer{BroadcastNode: node, BroadcastOffer: offer})
	}

	return plan, unresolvedHard, waivedSoft
}

// Run builds and immediately executes a plan for node, folding
// unresolved/waived requirement IDs into the returned summary.
func Run(ctx *ProvisioningContext, node *graph.Node, provisioners []Provisioner) *receipt.PlanningReceipt {
	plan, unresolvedHard, waivedSoft := BuildPlan(ctx, node, provisioners)
	builds := plan.Execute(ctx)
	summary := receipt.Summarize(builds...)
	for _, r := range unresolvedHard {
		summary.UnresolvedHardRequirements = append(summary.UnresolvedHardRequirements, r.EntityUID())
	}
	for _, r := range waivedSoft {
		summary.WaivedSoftRequirements = append(summary.WaivedSoftRequirements, r.EntityUID())
	}
	return summary
}
