// Package behavior implements Behavior, BehaviorRegistry, and the
// layered, priority-ordered dispatch pipeline: filter by selector,
// sort by a total deterministic ordering, then lazily invoke.
package behavior

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
	"github.com/derekmerck/tangl-go/internal/receipt"
)

// HandlerType selects how the wrapped callable is bound at invocation
// time. Declaration order doubles as the tie-break ordering used by
// sort_key (static < class-on-owner < instance-on-owner <
// class-on-caller < instance-on-caller).
type HandlerType int

const (
	HandlerStatic HandlerType = iota
	HandlerClassOnOwner
	HandlerInstanceOnOwner
	HandlerClassOnCaller
	HandlerInstanceOnCaller
)

// HandlerLayer orders which scope a behavior was registered in, from
// most ad hoc (INLINE) to the engine-wide core (GLOBAL).
type HandlerLayer int

const (
	LayerInline HandlerLayer = iota + 1
	LayerLocal
	LayerAuthor
	LayerApplication
	LayerSystem
	LayerGlobal
)

// Conventional priority bands; any int is a valid priority.
const (
	PriorityFirst  = 0
	PriorityEarly  = 25
	PriorityNormal = 50
	PriorityLate   = 75
	PriorityLast   = 100
)

// Func is the calling convention every wrapped callable satisfies.
// self is the bound receiver (the owner instance for INSTANCE_ON_OWNER,
// nil for CLASS_ON_OWNER, or the caller itself otherwise); caller is
// always the dispatch-time caller entity, regardless of binding mode.
type Func func(self entity.Entity, caller entity.Entity, ctx any, args []any, kwargs map[string]any) (any, error)

// OwnerRef is a non-owning reference to an INSTANCE_ON_OWNER handler's
// owner. Go has no portable weak-pointer-by-default primitive usable
// across the whole ecosystem yet, so the contract (dereference may
// fail once the owner is gone) is expressed as an interface rather
// than a concrete weak pointer type; production callers may back this
// with weak.Pointer[T] (Go 1.24+) or any GC-aware scheme they like.
type OwnerRef interface {
	Resolve() (entity.Entity, bool)
}

// StrongOwnerRef is the default OwnerRef: a plain reference that can
// be explicitly Released to simulate owner collection in tests.
type StrongOwnerRef struct {
	owner    entity.Entity
	released bool
}

func NewStrongOwnerRef(owner entity.Entity) *StrongOwnerRef {
	return &StrongOwnerRef{owner: owner}
}

func (r *StrongOwnerRef) Resolve() (entity.Entity, bool) {
	if r == nil || r.released || r.owner == nil {
		return nil, false
	}
	return r.owner, true
}

func (r *StrongOwnerRef) Release() { r.released = true }

// ErrBindingFailure is the sentinel a caller checks for with
// errors.Is; BindingFailure.Is matches against it so the concrete
// BehaviorID/Reason detail is never lost in the comparison.
var ErrBindingFailure = errors.New("behavior: binding failure")

// BindingFailure is returned when a Behavior cannot be bound at
// invocation time (e.g. an INSTANCE_ON_OWNER whose owner has been
// released and whose owner class does not match the caller's).
type BindingFailure struct {
	BehaviorID uuid.UUID
	Reason     string
}

func (e *BindingFailure) Error() string {
	return fmt.Sprintf("behavior: binding failure for %s: %s", e.BehaviorID, e.Reason)
}

func (e *BindingFailure) Is(target error) bool { return target == ErrBindingFailure }

var seqCounter atomic.Int64

// Behavior wraps a callable with binding mode, priority, layer,
// optional task tag, and selection criteria. Behaviors are not
// serializable (no MarshalJSON/UnmarshalJSON is implemented and none
// should be added).
type Behavior struct {
	entity.SelectableBase

	fn          Func
	handlerType HandlerType
	callerCls   reflect.Type
	owner       OwnerRef
	ownerCls    reflect.Type
	priority    int
	task        *string
	origin      *Registry
	seq         int64
}

// Option configures a Behavior at construction time.
type Option func(*Behavior)

func WithPriority(p int) Option { return func(b *Behavior) { b.priority = p } }
func WithTask(task string) Option {
	return func(b *Behavior) { t := task; b.task = &t }
}
func WithHandlerType(t HandlerType) Option { return func(b *Behavior) { b.handlerType = t } }
func WithCallerClass(t reflect.Type) Option {
	return func(b *Behavior) { b.callerCls = t }
}
func WithOwner(owner OwnerRef, ownerCls reflect.Type) Option {
	return func(b *Behavior) {
		b.owner = owner
		b.ownerCls = ownerCls
		b.handlerType = HandlerInstanceOnOwner
	}
}
func WithOwnerClass(ownerCls reflect.Type) Option {
	return func(b *Behavior) {
		b.ownerCls = ownerCls
		b.handlerType = HandlerClassOnOwner
	}
}
func WithCriterion(key string, value any) Option {
	return func(b *Behavior) { b.SetSelectionCriterion(key, value) }
}

// New constructs a Behavior wrapping fn. Default priority is
// PriorityNormal and default handler type is HandlerStatic.
func New(label string, fn Func, opts ...Option) *Behavior {
	b := &Behavior{
		SelectableBase: entity.NewSelectableBase(label),
		fn:             fn,
		handlerType:    HandlerStatic,
		priority:       PriorityNormal,
		seq:            seqCounter.Add(1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// handlerLayer returns origin's layer if attached, else INLINE —
// loose/ad hoc behaviors with no registry default to the most
// permissive layer.
func (b *Behavior) handlerLayer() HandlerLayer {
	if b.origin != nil {
		return b.origin.Layer
	}
	return LayerInline
}

// HasTask implements the has_task(task) capability.
func (b *Behavior) HasTask(expected any) bool {
	task, _ := expected.(string)
	var taskPtr *string
	if expected != nil {
		taskPtr = &task
	}
	return b.matchesTask(taskPtr)
}

func (b *Behavior) matchesTask(task *string) bool {
	if task == nil {
		return true
	}
	if b.handlerLayer() == LayerInline {
		return true
	}
	if b.task != nil && *b.task == *task {
		return true
	}
	if b.origin != nil && b.origin.DefaultTask != nil && *b.origin.DefaultTask == *task {
		return true
	}
	return false
}

// GetSelectionCriteria merges the origin registry's criteria with this
// behavior's own (own wins on conflict), and folds in an is_instance
// criterion when a caller-class constraint is set.
func (b *Behavior) GetSelectionCriteria() map[string]any {
	merged := map[string]any{}
	if b.origin != nil {
		merged = b.origin.GetSelectionCriteria()
	}
	for k, v := range b.SelectableBase.GetSelectionCriteria() {
		merged[k] = v
	}
	if b.callerCls != nil {
		merged["is_instance"] = entity.IsInstance{Type: b.callerCls}
	}
	return merged
}

// bindFunc resolves the self receiver for invocation, implementing
// §4.2's binding mapping including the INSTANCE_ON_OWNER
// weakref-dead fallback.
func (b *Behavior) bindFunc(caller entity.Entity) (entity.Entity, error) {
	switch b.handlerType {
	case HandlerStatic, HandlerInstanceOnCaller, HandlerClassOnCaller:
		return caller, nil
	case HandlerClassOnOwner:
		if b.ownerCls == nil {
			return nil, &BindingFailure{BehaviorID: b.EntityUID(), Reason: "CLASS_ON_OWNER requires an owner class"}
		}
		return nil, nil
	case HandlerInstanceOnOwner:
		if b.owner != nil {
			if owner, ok := b.owner.Resolve(); ok {
				return owner, nil
			}
		}
		if b.ownerCls != nil && ownerMatchesCaller(b.ownerCls, caller) {
			return caller, nil
		}
		return nil, &BindingFailure{BehaviorID: b.EntityUID(), Reason: "owner missing"}
	default:
		return caller, nil
	}
}

func ownerMatchesCaller(ownerCls reflect.Type, caller entity.Entity) bool {
	callerType := reflect.TypeOf(caller)
	if callerType == nil {
		return false
	}
	return callerType == ownerCls || callerType.AssignableTo(ownerCls) || ownerCls.AssignableTo(callerType)
}

// Call invokes the behavior against caller, producing a CallReceipt.
// The reserved ctx kwarg is always forwarded to fn as the ctx
// parameter, never folded into kwargs.
func (b *Behavior) Call(caller entity.Entity, ctx any, args []any, kwargs map[string]any) *receipt.CallReceipt {
	self, err := b.bindFunc(caller)
	if err != nil {
		return receipt.New(b.EntityUID(), caller.EntityUID(), nil, receipt.ResultError, err.Error())
	}
	result, callErr := b.fn(self, caller, ctx, args, kwargs)
	if callErr != nil {
		return receipt.New(b.EntityUID(), caller.EntityUID(), nil, receipt.ResultError, callErr.Error())
	}
	code := receipt.ResultOK
	if result == nil {
		code = receipt.ResultNone
	}
	r := receipt.New(b.EntityUID(), caller.EntityUID(), result, code, "handler: "+b.Label())
	r.Ctx, r.Args, r.Kwargs = ctx, args, kwargs
	return r
}

// mroDist approximates the source's MRO distance: 0 for an exact type
// match, 1 for an assignable (interface-satisfying) match, infinity
// when unconstrained or mismatched — unconstrained handlers sort last
// among same-priority/layer peers so type-specific handlers get first
// crack and generic ones can still observe/override after.
func mroDist(b *Behavior, caller entity.Entity) int {
	if b.callerCls == nil {
		return math.MaxInt32
	}
	callerType := reflect.TypeOf(caller)
	if callerType == nil {
		return math.MaxInt32
	}
	if callerType == b.callerCls {
		return 0
	}
	if callerType.AssignableTo(b.callerCls) {
		return 1
	}
	return math.MaxInt32
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareSortKey implements sort_key(caller)'s total order: priority,
// -handler_layer, mro_dist, specificity, handler_type, seq — the first
// nonzero comparison wins.
func compareSortKey(a, b *Behavior, caller entity.Entity) int {
	if c := cmpInt(a.priority, b.priority); c != 0 {
		return c
	}
	if c := cmpInt(-int(a.handlerLayer()), -int(b.handlerLayer())); c != 0 {
		return c
	}
	if c := cmpInt(mroDist(a, caller), mroDist(b, caller)); c != 0 {
		return c
	}
	sa := entity.CriteriaSpecificity(a.GetSelectionCriteria())
	sb := entity.CriteriaSpecificity(b.GetSelectionCriteria())
	if c := cmpInt(sa.IDCount, sb.IDCount); c != 0 {
		return c
	}
	if c := cmpInt(sa.ClassCount, sb.ClassCount); c != 0 {
		return c
	}
	if c := cmpInt(sa.OtherCount, sb.OtherCount); c != 0 {
		return c
	}
	if c := cmpInt(int(a.handlerType), int(b.handlerType)); c != 0 {
		return c
	}
	return cmpInt(int(a.seq), int(b.seq))
}
