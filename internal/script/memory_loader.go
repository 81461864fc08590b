package script

import (
	"context"
	"fmt"

	"github.com/derekmerck/tangl-go/internal/graph"
)

// MemoryLoader is a minimal Loader backed by an in-memory map, keyed
// by the identifier a template was registered under — the simplest
// stand-in for a world's real file-backed script manager, grounded on
// ScriptManager.find_template's identifier-or-criteria lookup.
type MemoryLoader struct {
	templates map[string]*Template
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{templates: make(map[string]*Template)}
}

func (l *MemoryLoader) Register(identifier string, tmpl *Template) {
	l.templates[identifier] = tmpl
}

func (l *MemoryLoader) FindTemplate(_ context.Context, identifier string, _ map[string]any, criteria map[string]any) (*Template, error) {
	if identifier != "" {
		if t, ok := l.templates[identifier]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("script: no template registered for %q", identifier)
	}
	for _, t := range l.templates {
		if matchesCriteria(t, criteria) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("script: no template matches criteria")
}

func (l *MemoryLoader) FindTemplates(_ context.Context, _ map[string]any, criteria map[string]any) ([]*Template, error) {
	var out []*Template
	for _, t := range l.templates {
		if matchesCriteria(t, criteria) {
			out = append(out, t)
		}
	}
	return out, nil
}

func matchesCriteria(t *Template, criteria map[string]any) bool {
	if len(criteria) == 0 {
		return true
	}
	if want, ok := criteria["domain_class"].(string); ok && want != t.DomainClass {
		return false
	}
	return true
}

// MemoryTokenFactory is a minimal TokenFactory backed by an in-memory
// map of token types to base templates. It materializes into a single
// fixed graph, bound at construction — a real AssetManager-backed
// factory would take the graph per-call instead, but SPEC_FULL.md's
// TokenFactory.MaterializeToken signature (ctx, type, label, overlay)
// has no graph parameter, so a reference implementation must close
// over one.
type MemoryTokenFactory struct {
	g     *graph.Graph
	types map[string]TokenType
	bases map[string]*Template
}

func NewMemoryTokenFactory(g *graph.Graph) *MemoryTokenFactory {
	return &MemoryTokenFactory{g: g, types: make(map[string]TokenType), bases: make(map[string]*Template)}
}

func (f *MemoryTokenFactory) Register(t TokenType, base *Template) {
	f.types[t.Name] = t
	f.bases[t.Name] = base
}

func (f *MemoryTokenFactory) GetType(name string) (TokenType, bool) {
	t, ok := f.types[name]
	return t, ok
}

func (f *MemoryTokenFactory) ResolveBase(t TokenType, _ string) (*Template, error) {
	base, ok := f.bases[t.Name]
	if !ok {
		return nil, fmt.Errorf("script: no base template for token type %q", t.Name)
	}
	return base, nil
}

func (f *MemoryTokenFactory) MaterializeToken(_ context.Context, t TokenType, label string, overlay map[string]any) (*graph.Node, error) {
	base, err := f.ResolveBase(t, label)
	if err != nil {
		return nil, err
	}
	merged := &Template{Label: label, Tags: base.Tags, DomainClass: base.DomainClass, Fields: mergeFields(base.Fields, overlay)}
	return Materialize(f.g, merged)
}

func mergeFields(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
