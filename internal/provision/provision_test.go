package provision

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/registry"
	"github.com/derekmerck/tangl-go/internal/script"
)

func allNodesRegistry(g *graph.Graph) *registry.Registry[*graph.Node] {
	reg := registry.New[*graph.Node]("nodes")
	for _, n := range g.Nodes() {
		_ = reg.Add(n, false)
	}
	return reg
}

func TestGraphProvisioner_OffersMatchingNodeAtDirectCost(t *testing.T) {
	g := graph.New("scene")
	sword := g.AddNode("sword", "weapon")
	_ = sword

	reqs := allNodesRegistry(g)
	gp := NewGraphProvisioner("graph", behavior.LayerLocal, reqs)

	req, err := NewRequirement("need-weapon", PolicyExisting, WithCriteria(map[string]any{"has_tags": "weapon"}))
	require.NoError(t, err)

	ctx := NewProvisioningContext(g, 1, 0)
	offers := gp.DependencyOffers(req, ctx)
	require.Len(t, offers, 1)
	assert.Equal(t, int(CostDirect), offers[0].Cost)
	assert.Equal(t, sword.EntityUID(), *offers[0].ProviderID)
}

func TestDedupeOffers_KeepsCheapestPerProvider(t *testing.T) {
	g := graph.New("scene")
	node := g.AddNode("torch", "light")
	pid := node.EntityUID()

	cheap := &DependencyOffer{
		OfferBase:  newOfferBase(10, 0, "near", node.EntityUID(), behavior.LayerLocal),
		Operation:  PolicyExisting,
		ProviderID: &pid,
	}
	expensive := &DependencyOffer{
		OfferBase:  newOfferBase(10, 20, "far", node.EntityUID(), behavior.LayerLocal),
		Operation:  PolicyExisting,
		ProviderID: &pid,
	}
	expensive.EmissionIndex = 0
	cheap.EmissionIndex = 1

	deduped := dedupeOffers([]*DependencyOffer{expensive, cheap})
	require.Len(t, deduped, 1)
	assert.Equal(t, 0, deduped[0].Proximity)
}

func TestTemplateProvisioner_CreatesFromFactory(t *testing.T) {
	g := graph.New("scene")
	loader := script.NewMemoryLoader()
	loader.Register("npc.guard", &script.Template{Label: "guard"})
	tp := NewTemplateProvisioner("templates", behavior.LayerAuthor, loader)

	req, err := NewRequirement("need-guard", PolicyCreate, WithTemplateRef("npc.guard"))
	require.NoError(t, err)

	ctx := NewProvisioningContext(g, 1, 0)
	offers := tp.DependencyOffers(req, ctx)
	require.Len(t, offers, 1)

	node, err := offers[0].Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guard", node.Label())
}

func TestBuildPlan_ResolvesOpenDependencyAndExecutesOnce(t *testing.T) {
	g := graph.New("scene")
	hero := g.AddNode("hero")
	torch := g.AddNode("torch", "light")

	req, err := NewRequirement("needs-light", PolicyExisting, WithCriteria(map[string]any{"has_tags": "light"}))
	require.NoError(t, err)
	dep, err := NewDependency(g, "light-dep", "requires", hero, req)
	require.NoError(t, err)

	gp := NewGraphProvisioner("graph", behavior.LayerLocal, allNodesRegistry(g))
	ctx := NewProvisioningContext(g, 1, 0)

	plan, unresolvedHard, waivedSoft := BuildPlan(ctx, hero, []Provisioner{gp})
	assert.Empty(t, unresolvedHard)
	assert.Empty(t, waivedSoft)

	require.Len(t, plan.steps, 1)
	require.Len(t, plan.steps[0].Audit, 1)
	assert.Equal(t, torch.EntityUID(), *plan.steps[0].Audit[0].ProviderID)
	assert.Equal(t, int(CostDirect), plan.steps[0].Audit[0].BaseCost)

	builds := plan.Execute(ctx)
	require.Len(t, builds, 1)
	assert.True(t, builds[0].Accepted)
	assert.Equal(t, "EXISTING", builds[0].Operation)
	assert.Equal(t, torch.EntityUID(), *dep.Requirement.ProviderID)

	// idempotent: a second Execute returns the cached receipts rather
	// than rebinding or re-running acceptors.
	again := plan.Execute(ctx)
	assert.Same(t, builds[0], again[0])
}

func TestBuildPlan_UnresolvedHardRequirementReported(t *testing.T) {
	g := graph.New("scene")
	hero := g.AddNode("hero")

	req, err := NewRequirement("needs-key", PolicyExisting, WithCriteria(map[string]any{"has_tags": "key"}))
	require.NoError(t, err)
	_, err = NewDependency(g, "key-dep", "requires", hero, req)
	require.NoError(t, err)

	ctx := NewProvisioningContext(g, 1, 0)
	_, unresolvedHard, waivedSoft := BuildPlan(ctx, hero, []Provisioner{NewGraphProvisioner("graph", behavior.LayerLocal, allNodesRegistry(g))})

	assert.Len(t, unresolvedHard, 1)
	assert.Empty(t, waivedSoft)
}

// TestBuildPlan_ResolvesCloneRequirementAndExecutesOnce is scenario S6
// (spec.md §8): a CLONE requirement referencing an existing node
// resolves to a freshly cloned node carrying the requirement's own
// template on top of the reference's tags.
func TestBuildPlan_ResolvesCloneRequirementAndExecutesOnce(t *testing.T) {
	g := graph.New("scene")
	hero := g.AddNode("hero")
	reference := g.AddNode("npc-template", "color:red")

	req, err := NewRequirement("needs-clone", PolicyClone,
		WithReferenceID(reference.EntityUID()),
		WithTemplate(map[string]any{"tags": []string{"color:blue"}}))
	require.NoError(t, err)
	dep, err := NewDependency(g, "clone-dep", "requires", hero, req)
	require.NoError(t, err)

	cp := NewCloningProvisioner("cloner", behavior.LayerLocal, allNodesRegistry(g))
	ctx := NewProvisioningContext(g, 1, 0)

	plan, unresolvedHard, waivedSoft := BuildPlan(ctx, hero, []Provisioner{cp})
	assert.Empty(t, unresolvedHard)
	assert.Empty(t, waivedSoft)
	require.Len(t, plan.steps, 1)
	require.Len(t, plan.steps[0].Audit, 1)
	assert.Equal(t, int(CostHeavyIndirect), plan.steps[0].Audit[0].BaseCost)

	builds := plan.Execute(ctx)
	require.Len(t, builds, 1)
	assert.True(t, builds[0].Accepted)
	assert.Equal(t, "CLONE", builds[0].Operation)

	require.NotNil(t, dep.Requirement.ProviderID)
	cloneID := *dep.Requirement.ProviderID
	assert.NotEqual(t, reference.EntityUID(), cloneID)

	item, ok := g.Get(cloneID.String())
	require.True(t, ok)
	clone, ok := item.(*graph.Node)
	require.True(t, ok)
	assert.Equal(t, "npc-template", clone.Label())
	assert.True(t, clone.HasTag("color:red"))
	assert.True(t, clone.HasTag("color:blue"))

	// idempotent: a second Execute returns the cached receipts rather
	// than cloning a second node.
	again := plan.Execute(ctx)
	assert.Same(t, builds[0], again[0])
}

func TestCompanionProvisioner_BroadcastsSingOnlyWhenHappy(t *testing.T) {
	g := graph.New("scene")
	target := g.AddNode("plaza", "musical", "peaceful")
	companion := g.AddNode("bard")

	cp := NewCompanionProvisioner("companion", behavior.LayerLocal, companion)
	ctx := NewProvisioningContext(g, 1, 0)

	plan, _, _ := BuildPlan(ctx, target, []Provisioner{cp})
	labels := map[string]bool{}
	for _, step := range plan.steps {
		if step.BroadcastOffer != nil {
			labels[step.BroadcastOffer.Label] = true
		}
	}
	assert.True(t, labels["talk"])
	assert.False(t, labels["sing"])

	companion.AddTag("happy")
	plan, _, _ = BuildPlan(ctx, target, []Provisioner{cp})
	labels = map[string]bool{}
	for _, step := range plan.steps {
		if step.BroadcastOffer != nil {
			labels[step.BroadcastOffer.Label] = true
		}
	}
	assert.True(t, labels["sing"])

	builds := plan.Execute(ctx)
	for _, b := range builds {
		assert.True(t, b.Accepted, b.Reason)
	}
}

func TestExecuteStep_AcceptorFailureProducesUnacceptedReceipt(t *testing.T) {
	g := graph.New("scene")
	hero := g.AddNode("hero")
	req, err := NewRequirement("broken", PolicyCreate, WithTemplate(map[string]any{"label": "x"}))
	require.NoError(t, err)
	dep, err := NewDependency(g, "dep", "requires", hero, req)
	require.NoError(t, err)

	offer := &DependencyOffer{
		OfferBase:     newOfferBase(int(CostCreate), 0, "broken", hero.EntityUID(), behavior.LayerLocal),
		RequirementID: req.EntityUID(),
		Operation:     PolicyCreate,
		Accept: func(*ProvisioningContext) (*graph.Node, error) {
			return nil, fmt.Errorf("factory exploded")
		},
	}
	plan := &ProvisioningPlan{steps: []*PlannedOffer{{Requirement: req, Dependency: dep, DepOffer: offer}}}

	builds := plan.Execute(NewProvisioningContext(g, 1, 0))
	require.Len(t, builds, 1)
	assert.False(t, builds[0].Accepted)
	assert.Contains(t, builds[0].Reason, "factory exploded")
}
