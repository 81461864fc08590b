// Package cursor implements the fixed phase-sequenced step loop that
// advances a single logical cursor through a graph: gather context,
// resolve requirements, gate, render, finalize/check continuations.
package cursor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/graph"
	"github.com/derekmerck/tangl-go/internal/journal"
	"github.com/derekmerck/tangl-go/internal/provision"
	"github.com/derekmerck/tangl-go/internal/receipt"
	"github.com/derekmerck/tangl-go/internal/tangllog"
)

var renderLog = tangllog.For("render")

// tracer emits one span per cursor step, plus one nested span per
// phase (gather/resolve/gate/render/finalize) — the global provider is
// a no-op until a real SDK provider is installed by the host.
var tracer = otel.Tracer("github.com/derekmerck/tangl-go/cursor")

var cursorMetrics struct {
	recordsAppended metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/derekmerck/tangl-go/cursor")
	cursorMetrics.recordsAppended, _ = m.Int64Counter("tangl.cursor.records_appended",
		metric.WithDescription("journal records appended by the render phase"),
		metric.WithUnit("{record}"),
	)
}

// Task tags dispatched at each phase.
const (
	TaskGate     = "gate"
	TaskRender   = "render"
	TaskContinue = "continue"
)

// RedirectTag marks a Dependency/Affordance whose resolution, once
// bound during the resolve phase, is followed as the step's next edge
// instead of continuing on to gate/render/finalize.
const RedirectTag = "redirect"

// Fragment is a render-phase result, appended to the journal verbatim
// as its own record on the "render" channel.
type Fragment struct {
	journal.Record
	Payload any
}

func newFragment(payload any) *Fragment {
	f := Fragment{Record: journal.NewRecord("fragment", nil, "render"), Payload: payload}
	return &f
}

// Cursor advances one logical position through Graph, chain-dispatching
// Global/System/Application/Author/Local behavior registries at each
// phase and appending render output to Journal.
type Cursor struct {
	Graph   *graph.Graph
	Journal *journal.StreamRegistry

	Global      *behavior.Registry
	Local       *behavior.Registry
	Author      *behavior.Registry
	System      *behavior.Registry
	Application *behavior.Registry

	Provisioners []provision.Provisioner
	Domain       map[string]any
	Globals      map[string]any

	At *graph.Node

	step int64
}

// New constructs a Cursor positioned at start, with an empty registry
// at each of the five layers the phase loop chain-dispatches across.
func New(g *graph.Graph, j *journal.StreamRegistry, start *graph.Node) *Cursor {
	return &Cursor{
		Graph:       g,
		Journal:     j,
		Global:      behavior.NewRegistry("global", behavior.LayerGlobal),
		Local:       behavior.NewRegistry("local", behavior.LayerLocal),
		Author:      behavior.NewRegistry("author", behavior.LayerAuthor),
		System:      behavior.NewRegistry("system", behavior.LayerSystem),
		Application: behavior.NewRegistry("application", behavior.LayerApplication),
		Domain:      make(map[string]any),
		Globals:     make(map[string]any),
		At:          start,
	}
}

// registries returns the chain in the fixed cursor-step order: GLOBAL
// core is always included; active context layers (system, application,
// author) are appended next; caller-local runs last, closest to the
// node, so its behaviors observe/override everything above it.
func (c *Cursor) registries() []*behavior.Registry {
	return []*behavior.Registry{c.Global, c.System, c.Application, c.Author, c.Local}
}

// Step runs the fixed phase sequence once against the node at the
// cursor. A resolve-phase redirect short-circuits the remaining
// phases; the caller drives repeated steps (and so transitively
// follows chained redirects one step at a time).
func (c *Cursor) Step(ctx context.Context) error {
	node := c.At
	if node == nil {
		return fmt.Errorf("cursor: not positioned at any node")
	}
	c.step++

	stepCtx, span := tracer.Start(ctx, "cursor.step", trace.WithAttributes(
		attribute.String("tangl.node_id", node.EntityUID().String()),
		attribute.String("tangl.node_label", node.Label()),
		attribute.Int64("tangl.step", c.step),
	))
	defer span.End()

	gathered := c.gather(stepCtx, node)

	if next, ok := c.resolve(stepCtx, node); ok {
		c.At = next
		span.SetAttributes(attribute.Bool("tangl.redirected", true))
		return nil
	}

	if !c.gate(stepCtx, node, gathered) {
		span.SetAttributes(attribute.Bool("tangl.gated", true))
		return nil
	}

	c.render(stepCtx, node, gathered)

	if next, ok := c.finalize(stepCtx, node, gathered); ok {
		c.At = next
	}
	return nil
}

// gather collects a layered context mapping from the node, its
// ancestor chain, the graph, the domain, and cursor-wide globals.
func (c *Cursor) gather(ctx context.Context, node *graph.Node) map[string]any {
	_, span := tracer.Start(ctx, "cursor.gather")
	defer span.End()

	ancestorLabels := make([]string, 0, len(node.Ancestors()))
	for _, a := range node.Ancestors() {
		ancestorLabels = append(ancestorLabels, a.Label())
	}

	return map[string]any{
		"globals":   c.Globals,
		"domain":    c.Domain,
		"graph":     c.Graph.Label(),
		"ancestors": ancestorLabels,
		"node":      node.Label(),
		"node_tags": node.Tags(),
	}
}

// resolve runs the provisioning pipeline on node. If any step it
// executed bound a Dependency/Affordance tagged RedirectTag, that
// bound endpoint becomes the step's next node.
func (c *Cursor) resolve(ctx context.Context, node *graph.Node) (*graph.Node, bool) {
	stepCtx, span := tracer.Start(ctx, "cursor.resolve")
	defer span.End()

	pctx := provision.NewProvisioningContext(c.Graph, c.step, 0)
	pctx.Ctx = stepCtx

	plan, unresolvedHard, waivedSoft := provision.BuildPlan(pctx, node, c.Provisioners)
	builds := plan.Execute(pctx)
	span.SetAttributes(
		attribute.Int("tangl.builds", len(builds)),
		attribute.Int("tangl.unresolved_hard", len(unresolvedHard)),
		attribute.Int("tangl.waived_soft", len(waivedSoft)),
	)

	summary := receipt.Summarize(builds...)
	for _, r := range unresolvedHard {
		summary.UnresolvedHardRequirements = append(summary.UnresolvedHardRequirements, r.EntityUID())
	}
	for _, r := range waivedSoft {
		summary.WaivedSoftRequirements = append(summary.WaivedSoftRequirements, r.EntityUID())
	}
	_ = c.Journal.AddRecord(summary)

	steps := plan.Steps()
	for i, step := range steps {
		if i >= len(builds) || !builds[i].Accepted {
			continue
		}
		if step.Dependency != nil && step.Dependency.HasTag(RedirectTag) {
			if dest, ok := step.Dependency.Destination(); ok {
				return dest, true
			}
		}
		if step.Affordance != nil && step.Affordance.HasTag(RedirectTag) {
			if src, ok := step.Affordance.Source(); ok {
				return src, true
			}
		}
	}
	return nil, false
}

// gate dispatches TaskGate behaviors; any INVALID or ERROR receipt
// blocks the remaining phases for this step. Reserved per spec — with
// no gate behaviors registered, every step passes through untouched.
func (c *Cursor) gate(ctx context.Context, node *graph.Node, gathered map[string]any) bool {
	_, span := tracer.Start(ctx, "cursor.gate")
	defer span.End()

	task := TaskGate
	seq, err := behavior.ChainDispatch(node, behavior.Options{Ctx: gathered, Task: &task}, c.registries()...)
	if err != nil {
		span.RecordError(err)
		return true
	}
	for r := range seq {
		if r.ResultCode == receipt.ResultInvalid || r.ResultCode == receipt.ResultError {
			return false
		}
	}
	return true
}

// render dispatches TaskRender behaviors and pushes every non-empty
// OK result onto the journal as a Fragment.
func (c *Cursor) render(ctx context.Context, node *graph.Node, gathered map[string]any) {
	stepCtx, span := tracer.Start(ctx, "cursor.render")
	defer span.End()

	task := TaskRender
	seq, err := behavior.ChainDispatch(node, behavior.Options{Ctx: gathered, Task: &task}, c.registries()...)
	if err != nil {
		span.RecordError(err)
		return
	}
	appended := 0
	for r := range seq {
		if r.ResultCode != receipt.ResultOK || r.Result == nil {
			continue
		}
		if err := c.Journal.AddRecord(newFragment(r.Result)); err == nil {
			appended++
		} else {
			renderLog.Error("append failed for node %s: %v", node.Label(), err)
		}
	}
	cursorMetrics.recordsAppended.Add(stepCtx, int64(appended))
	span.SetAttributes(attribute.Int("tangl.fragments_appended", appended))
}

// finalize dispatches TaskContinue behaviors; the first receipt
// whose Result is a graph.Node or a graph.Edge produces the step's
// next node (an Edge result contributes its destination). No such
// receipt means the step blocks pending external input.
func (c *Cursor) finalize(ctx context.Context, node *graph.Node, gathered map[string]any) (*graph.Node, bool) {
	_, span := tracer.Start(ctx, "cursor.finalize")
	defer span.End()

	task := TaskContinue
	seq, err := behavior.ChainDispatch(node, behavior.Options{Ctx: gathered, Task: &task}, c.registries()...)
	if err != nil {
		span.RecordError(err)
		return nil, false
	}
	for r := range seq {
		switch result := r.Result.(type) {
		case *graph.Edge:
			if result == nil {
				continue
			}
			if dest, ok := result.Destination(); ok {
				span.SetAttributes(attribute.Bool("tangl.advanced", true))
				return dest, true
			}
		case *graph.Node:
			if result != nil {
				span.SetAttributes(attribute.Bool("tangl.advanced", true))
				return result, true
			}
		}
	}
	return nil, false
}
