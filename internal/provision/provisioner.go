package provision

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/registry"
	"github.com/derekmerck/tangl-go/internal/script"
)

// Provisioner is anything that can offer to resolve a Requirement
// (DependencyOffers) or volunteer a brand new affordance attachment
// for a node (AffordanceOffers).
type Provisioner interface {
	entity.Entity
	Layer() behavior.HandlerLayer
	DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer
	AffordanceOffers(node *graph.Node, ctx *ProvisioningContext) []*AffordanceOffer
}

// baseProvisioner supplies identity and layer to every concrete
// provisioner, and a no-op AffordanceOffers default — most
// provisioners only ever resolve dependencies.
type baseProvisioner struct {
	entity.Base
	layer behavior.HandlerLayer
}

func newBaseProvisioner(label string, layer behavior.HandlerLayer) baseProvisioner {
	return baseProvisioner{Base: entity.NewBase(label), layer: layer}
}

func (b *baseProvisioner) Layer() behavior.HandlerLayer { return b.layer }
func (b *baseProvisioner) AffordanceOffers(*graph.Node, *ProvisioningContext) []*AffordanceOffer {
	return nil
}

// GraphProvisioner offers already-existing nodes drawn from
// NodeRegistry as EXISTING resolutions, ranked by graph proximity to
// the requirement's active source.
type GraphProvisioner struct {
	baseProvisioner
	NodeRegistry *registry.Registry[*graph.Node]
}

func NewGraphProvisioner(label string, layer behavior.HandlerLayer, nodeRegistry *registry.Registry[*graph.Node]) *GraphProvisioner {
	return &GraphProvisioner{baseProvisioner: newBaseProvisioner(label, layer), NodeRegistry: nodeRegistry}
}

func (p *GraphProvisioner) DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer {
	if p.NodeRegistry == nil || !req.Policy.Has(PolicyExisting) {
		return nil
	}
	criteria := req.GetSelectionCriteria()
	seen := make(map[uuid.UUID]bool)
	var out []*DependencyOffer
	for _, node := range p.NodeRegistry.FindAll(criteria) {
		if !req.SatisfiedBy(node) || seen[node.EntityUID()] {
			continue
		}
		seen[node.EntityUID()] = true
		proximity, detail := calculateProximity(node, ctx)
		found := node
		out = append(out, &DependencyOffer{
			OfferBase:     newOfferBase(int(CostDirect)+proximity, proximity, detail, p.EntityUID(), p.layer),
			RequirementID: req.EntityUID(),
			Operation:     PolicyExisting,
			ProviderID:    uuidPtr(node.EntityUID()),
			Accept: func(*ProvisioningContext) (*graph.Node, error) {
				return found, nil
			},
		})
	}
	return out
}

// TemplateProvisioner offers to CREATE a fresh node from a
// requirement's own inline template, or one resolved from Loader by
// template_ref/identifier — the external script-manager lookup named
// in SPEC_FULL.md's §6 Loader contract.
type TemplateProvisioner struct {
	baseProvisioner
	Loader script.Loader
}

func NewTemplateProvisioner(label string, layer behavior.HandlerLayer, loader script.Loader) *TemplateProvisioner {
	return &TemplateProvisioner{baseProvisioner: newBaseProvisioner(label, layer), Loader: loader}
}

// resolveTemplate returns either an inline payload (req.Template takes
// precedence, no external lookup) or a script.Template resolved via
// Loader, never both.
func (p *TemplateProvisioner) resolveTemplate(ctx *ProvisioningContext, req *Requirement) (map[string]any, *script.Template) {
	if req.Template != nil {
		return req.Template, nil
	}
	if p.Loader == nil {
		return nil, nil
	}
	ref := req.TemplateRef
	if ref == "" {
		ref = req.Identifier
	}
	if ref == "" {
		return nil, nil
	}
	tmpl, err := p.Loader.FindTemplate(ctx.Ctx, ref, nil, req.Criteria)
	if err != nil || tmpl == nil {
		return nil, nil
	}
	return nil, tmpl
}

func (p *TemplateProvisioner) DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer {
	if !req.Policy.Has(PolicyCreate) {
		return nil
	}
	inline, scriptTmpl := p.resolveTemplate(ctx, req)
	if inline == nil && scriptTmpl == nil {
		return nil
	}
	return []*DependencyOffer{{
		OfferBase:     newOfferBase(int(CostCreate), 999, "new instance", p.EntityUID(), p.layer),
		RequirementID: req.EntityUID(),
		Operation:     PolicyCreate,
		Accept: func(ctx *ProvisioningContext) (*graph.Node, error) {
			if scriptTmpl != nil {
				return script.Materialize(ctx.Graph, scriptTmpl)
			}
			label, _ := inline["label"].(string)
			node := ctx.Graph.AddNode(label)
			applyTemplate(node, inline)
			return node, nil
		},
	}}
}

// UpdatingProvisioner offers to UPDATE an existing matched node in
// place from a template payload (inline, or resolved via Loader).
type UpdatingProvisioner struct {
	baseProvisioner
	NodeRegistry *registry.Registry[*graph.Node]
	Loader       script.Loader
}

func NewUpdatingProvisioner(label string, layer behavior.HandlerLayer, nodeRegistry *registry.Registry[*graph.Node], loader script.Loader) *UpdatingProvisioner {
	return &UpdatingProvisioner{baseProvisioner: newBaseProvisioner(label, layer), NodeRegistry: nodeRegistry, Loader: loader}
}

func (p *UpdatingProvisioner) DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer {
	if p.NodeRegistry == nil || !req.Policy.Has(PolicyUpdate) {
		return nil
	}
	if req.Identifier == "" && len(req.Criteria) == 0 {
		return nil
	}
	payload := req.Template
	if payload == nil && p.Loader != nil {
		ref := req.TemplateRef
		if ref == "" {
			ref = req.Identifier
		}
		if tmpl, err := p.Loader.FindTemplate(ctx.Ctx, ref, nil, req.Criteria); err == nil && tmpl != nil {
			payload = tmpl.Fields
		}
	}
	if payload == nil {
		return nil
	}

	criteria := req.GetSelectionCriteria()
	seen := make(map[uuid.UUID]bool)
	var out []*DependencyOffer
	for _, node := range p.NodeRegistry.FindAll(criteria) {
		if !req.SatisfiedBy(node) || seen[node.EntityUID()] {
			continue
		}
		seen[node.EntityUID()] = true
		found := node
		fields := payload
		out = append(out, &DependencyOffer{
			OfferBase:     newOfferBase(int(CostLightIndirect), 999, "update in place", p.EntityUID(), p.layer),
			RequirementID: req.EntityUID(),
			Operation:     PolicyUpdate,
			ProviderID:    uuidPtr(node.EntityUID()),
			Accept: func(*ProvisioningContext) (*graph.Node, error) {
				applyTemplate(found, fields)
				return found, nil
			},
		})
	}
	return out
}

func applyTemplate(node *graph.Node, payload map[string]any) {
	if label, ok := payload["label"].(string); ok {
		node.SetLabel(label)
	}
	if tags, ok := payload["tags"].([]string); ok {
		for _, t := range tags {
			node.AddTag(t)
		}
	}
}

// CloningProvisioner offers to CLONE a node found by ReferenceID,
// then apply the requirement's own template on top.
type CloningProvisioner struct {
	baseProvisioner
	NodeRegistry *registry.Registry[*graph.Node]
}

func NewCloningProvisioner(label string, layer behavior.HandlerLayer, nodeRegistry *registry.Registry[*graph.Node]) *CloningProvisioner {
	return &CloningProvisioner{baseProvisioner: newBaseProvisioner(label, layer), NodeRegistry: nodeRegistry}
}

func (p *CloningProvisioner) DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer {
	if p.NodeRegistry == nil || !req.Policy.Has(PolicyClone) || req.ReferenceID == nil {
		return nil
	}
	reference, ok := p.NodeRegistry.Get(*req.ReferenceID)
	if !ok {
		return nil
	}
	payload := req.Template
	return []*DependencyOffer{{
		OfferBase:     newOfferBase(int(CostHeavyIndirect), 999, "clone reference", p.EntityUID(), p.layer),
		RequirementID: req.EntityUID(),
		Operation:     PolicyClone,
		Accept: func(ctx *ProvisioningContext) (*graph.Node, error) {
			if ctx == nil || ctx.Graph == nil {
				return nil, fmt.Errorf("provision: clone requires a graph on the context")
			}
			clone := ctx.Graph.AddNode(reference.Label(), reference.Tags()...)
			applyTemplate(clone, payload)
			return clone, nil
		},
	}}
}

// TokenProvisioner offers to CREATE_TOKEN a fungible placeholder node
// named by template_ref or identifier, resolved through the external
// script.TokenFactory (an asset manager's token-minting half).
type TokenProvisioner struct {
	baseProvisioner
	Factory script.TokenFactory
}

func NewTokenProvisioner(label string, layer behavior.HandlerLayer, factory script.TokenFactory) *TokenProvisioner {
	return &TokenProvisioner{baseProvisioner: newBaseProvisioner(label, layer), Factory: factory}
}

func (p *TokenProvisioner) DependencyOffers(req *Requirement, ctx *ProvisioningContext) []*DependencyOffer {
	if p.Factory == nil || !req.Policy.Has(PolicyCreateToken) {
		return nil
	}
	typeName := req.TemplateRef
	if typeName == "" {
		typeName = req.Identifier
	}
	if typeName == "" {
		return nil
	}
	tokenType, ok := p.Factory.GetType(typeName)
	if !ok {
		return nil
	}
	factory := p.Factory
	identifier := req.Identifier
	overlay := req.Template
	return []*DependencyOffer{{
		OfferBase:     newOfferBase(int(CostCreate), 999, "token", p.EntityUID(), p.layer),
		RequirementID: req.EntityUID(),
		Operation:     PolicyCreateToken,
		Accept: func(ctx *ProvisioningContext) (*graph.Node, error) {
			return factory.MaterializeToken(ctx.Ctx, tokenType, identifier, overlay)
		},
	}}
}

// CompanionProvisioner is an illustrative affordance broadcaster: it
// always offers "talk" with Companion, and offers "sing" too once
// Companion carries the "happy" tag — ported directly from the
// source's example affordance provisioner.
type CompanionProvisioner struct {
	baseProvisioner
	Companion *graph.Node
}

func NewCompanionProvisioner(label string, layer behavior.HandlerLayer, companion *graph.Node) *CompanionProvisioner {
	return &CompanionProvisioner{baseProvisioner: newBaseProvisioner(label, layer), Companion: companion}
}

func (p *CompanionProvisioner) DependencyOffers(*Requirement, *ProvisioningContext) []*DependencyOffer {
	return nil
}

func (p *CompanionProvisioner) AffordanceOffers(node *graph.Node, ctx *ProvisioningContext) []*AffordanceOffer {
	offers := []*AffordanceOffer{p.broadcast("talk", nil)}
	if p.Companion.HasTag("happy") {
		offers = append(offers, p.broadcast("sing", map[string]bool{"musical": true, "peaceful": true}))
	}
	return offers
}

func (p *CompanionProvisioner) broadcast(label string, targetTags map[string]bool) *AffordanceOffer {
	companion := p.Companion
	return &AffordanceOffer{
		OfferBase:  newOfferBase(int(CostDirect), 0, "companion broadcast", p.EntityUID(), p.layer),
		Label:      label,
		TargetTags: targetTags,
		Accept: func(ctx *ProvisioningContext, destination *graph.Node) (*Affordance, error) {
			req, err := NewRequirement(label+"-provider", PolicyExisting, WithIdentifier(companion.Label()))
			if err != nil {
				return nil, err
			}
			req.SetProvider(companion.EntityUID())
			aff, err := NewAffordance(ctx.Graph, label, "affordance", destination, req)
			if err != nil {
				return nil, err
			}
			if err := aff.SetSource(companion); err != nil {
				return nil, err
			}
			return aff, nil
		},
	}
}
