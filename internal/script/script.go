// Package script defines the external interfaces the core consumes
// but never implements: template lookup, domain class resolution,
// asset/token creation, and media lookup. A concrete world loader
// implements these against its own script/asset files; the core only
// calls through the interface.
package script

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/derekmerck/tangl-go/internal/graph"
)

// ErrTemplateValidation is returned when a Template is missing fields
// a provisioner needs to materialize a node from it.
var ErrTemplateValidation = errors.New("script: template validation failed")

// Template is a script-authored node blueprint: enough to construct
// and tag a fresh graph.Node, plus an open bag of domain-specific
// fields a DomainManager-resolved type can consume.
type Template struct {
	Label       string
	Tags        []string
	DomainClass string
	Fields      map[string]any
}

// Validate reports whether t has enough to materialize a node.
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrTemplateValidation)
	}
	if t.Label == "" {
		return fmt.Errorf("%w: template has no label", ErrTemplateValidation)
	}
	return nil
}

// Loader finds script-authored templates by identifier/selector or by
// criteria, the template-lookup half of what a world's script manager
// exposes to the core.
type Loader interface {
	FindTemplate(ctx context.Context, identifier string, selector map[string]any, criteria map[string]any) (*Template, error)
	FindTemplates(ctx context.Context, selector map[string]any, criteria map[string]any) ([]*Template, error)
}

// DomainManager resolves a script-provided class name (an obj_cls
// string) to a runtime Go type, so a loaded Template can be
// materialized as something more specific than a bare graph.Node.
type DomainManager interface {
	ResolveClass(name string) (reflect.Type, bool)
}

// AssetManager creates graph tokens for named asset references
// (weapons, items, currencies) defined outside the core.
type AssetManager interface {
	HasAsset(ref string) bool
	CreateToken(ctx context.Context, assetRef string, g *graph.Graph, dm DomainManager, overlay map[string]any) (*graph.Node, error)
}

// TokenType names a fungible token kind resolvable to a base
// Template, for requirements that just need "a coin" or "a key"
// rather than a specific scripted entity.
type TokenType struct {
	Name            string
	BaseTemplateRef string
}

// TokenFactory resolves and materializes fungible token nodes.
type TokenFactory interface {
	GetType(name string) (TokenType, bool)
	ResolveBase(t TokenType, label string) (*Template, error)
	MaterializeToken(ctx context.Context, t TokenType, label string, overlay map[string]any) (*graph.Node, error)
}

// MediaResource is a tagged, loader-external media reference (an
// image, audio cue, or similar asset) a renderer can attach to a
// journal record.
type MediaResource struct {
	Ref  string
	Tags []string
}

// MediaRegistry looks up MediaResources by tag.
type MediaRegistry interface {
	FindByTags(tags []string, criteria map[string]any) []MediaResource
}

// Materialize builds a fresh graph.Node from tmpl, applying its label
// and tags. Of Fields, only a string "label" entry is applied (it
// overrides Label); other fields are not stored on the node. Node
// construction itself always stays
// in the core (graph ownership never crosses the Loader boundary);
// only template *lookup* is external.
func Materialize(g *graph.Graph, tmpl *Template) (*graph.Node, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	node := g.AddNode(tmpl.Label, tmpl.Tags...)
	for k, v := range tmpl.Fields {
		if k == "label" {
			if s, ok := v.(string); ok {
				node.SetLabel(s)
			}
		}
	}
	return node, nil
}
