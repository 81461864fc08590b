package behavior

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/receipt"
	"github.com/derekmerck/tangl-go/internal/registry"
	"github.com/derekmerck/tangl-go/internal/tangllog"
)

var dispatchLog = tangllog.For("dispatch")

// ErrTaskConflict is returned by Dispatch when both a Task and an
// inline has_task criterion are supplied and disagree.
var ErrTaskConflict = errors.New("behavior: task and has_task criterion conflict")

// Registry owns a set of Behaviors registered under one HandlerLayer,
// with an optional DefaultTask every member inherits unless it
// specifies its own.
type Registry struct {
	entity.SelectableBase

	reg         *registry.Registry[*Behavior]
	Layer       HandlerLayer
	DefaultTask *string
}

// NewRegistry constructs an empty Registry at the given layer.
func NewRegistry(label string, layer HandlerLayer) *Registry {
	return &Registry{
		SelectableBase: entity.NewSelectableBase(label),
		reg:            registry.New[*Behavior](label),
		Layer:          layer,
	}
}

// SetDefaultTask sets the task every member Behavior falls back to
// when it has no task of its own.
func (r *Registry) SetDefaultTask(task string) { r.DefaultTask = &task }

// Add attaches b to this registry (as its origin) and stores it.
func (r *Registry) Add(b *Behavior) error {
	b.origin = r
	return r.reg.Add(b, false)
}

// Register constructs a Behavior from fn and opts, adds it, and
// returns it — the common one-line registration idiom.
func (r *Registry) Register(label string, fn Func, opts ...Option) (*Behavior, error) {
	b := New(label, fn, opts...)
	if err := r.Add(b); err != nil {
		return nil, err
	}
	return b, nil
}

// All returns every Behavior in insertion order.
func (r *Registry) All() []*Behavior { return r.reg.All() }

// Options configures a single Dispatch/ChainDispatch call.
type Options struct {
	Ctx           any
	Args          []any
	Kwargs        map[string]any
	Task          *string
	Criteria      map[string]any
	ExtraHandlers []Func
	DryRun        bool
}

// Dispatch filters this registry's behaviors against caller, appends
// any ExtraHandlers (INLINE layer, unfiltered), sorts by sort_key, and
// returns a lazy sequence of CallReceipts. If DryRun is set, matching
// is performed but nothing is invoked and a nil sequence is returned.
func (r *Registry) Dispatch(caller entity.Entity, opts Options) (iter.Seq[*receipt.CallReceipt], error) {
	return dispatchMany(caller, opts, r.All())
}

// ChainDispatch runs the same pipeline as Dispatch but draws behaviors
// from multiple registries, preserving each registry's own insertion
// order before the stable sort_key sort is applied.
func ChainDispatch(caller entity.Entity, opts Options, registries ...*Registry) (iter.Seq[*receipt.CallReceipt], error) {
	var all []*Behavior
	for _, reg := range registries {
		all = append(all, reg.All()...)
	}
	return dispatchMany(caller, opts, all)
}

func dispatchMany(caller entity.Entity, opts Options, pool []*Behavior) (iter.Seq[*receipt.CallReceipt], error) {
	criteria, err := normalizeInlineCriteria(opts.Criteria, opts.Task)
	if err != nil {
		return nil, err
	}

	// has_task is a capability of the Behavior, not of the caller, so it
	// is checked against each behavior instead of the selector.
	task, hasTask := criteria["has_task"]
	delete(criteria, "has_task")

	matched := entity.FilterForSelector(pool, caller, criteria)
	if hasTask {
		kept := matched[:0]
		for _, b := range matched {
			if b.HasTask(task) {
				kept = append(kept, b)
			}
		}
		matched = kept
	}

	for _, fn := range opts.ExtraHandlers {
		matched = append(matched, New("inline", fn))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return compareSortKey(matched[i], matched[j], caller) < 0
	})

	if opts.DryRun {
		return nil, nil
	}

	seq := func(yield func(*receipt.CallReceipt) bool) {
		for _, b := range matched {
			r := b.Call(caller, opts.Ctx, opts.Args, opts.Kwargs)
			if r.ResultCode == receipt.ResultError {
				dispatchLog.Error("behavior %q failed for %s: %s", b.Label(), caller.EntityUID(), r.Message)
			}
			if !yield(r) {
				return
			}
		}
	}
	return seq, nil
}

func normalizeInlineCriteria(criteria map[string]any, task *string) (map[string]any, error) {
	out := make(map[string]any, len(criteria)+1)
	for k, v := range criteria {
		out[k] = v
	}
	if task == nil {
		return out, nil
	}
	if existing, ok := out["has_task"]; ok {
		if s, ok := existing.(string); !ok || s != *task {
			return nil, fmt.Errorf("%w: has_task=%v task=%q", ErrTaskConflict, existing, *task)
		}
	}
	out["has_task"] = *task
	return out, nil
}
