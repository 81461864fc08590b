package provision

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
)

// Requirement describes what a Dependency or Affordance edge needs in
// order to resolve its open endpoint: an existing node matching
// identifier/criteria, a template to create or clone from, or a
// token-factory reference — gated by Policy.
type Requirement struct {
	entity.SelectableBase

	Identifier      string
	Criteria        map[string]any
	Template        map[string]any
	TemplateRef     string
	Policy          Policy
	ReferenceID     *uuid.UUID
	HardRequirement bool
	IsUnresolvable  bool
	ProviderID      *uuid.UUID
}

// ReqOption configures a Requirement at construction time.
type ReqOption func(*Requirement)

func WithIdentifier(id string) ReqOption    { return func(r *Requirement) { r.Identifier = id } }
func WithCriteria(c map[string]any) ReqOption {
	return func(r *Requirement) { r.Criteria = c }
}
func WithTemplate(t map[string]any) ReqOption {
	return func(r *Requirement) { r.Template = t }
}
func WithTemplateRef(ref string) ReqOption { return func(r *Requirement) { r.TemplateRef = ref } }
func WithReferenceID(id uuid.UUID) ReqOption {
	return func(r *Requirement) { r.ReferenceID = &id }
}
func WithSoftRequirement() ReqOption { return func(r *Requirement) { r.HardRequirement = false } }

// NewRequirement constructs a Requirement for policy, validating that
// enough fields are present to ever satisfy it. Requirements default
// to hard (unresolved means the plan reports a failure, not a no-op).
func NewRequirement(label string, policy Policy, opts ...ReqOption) (*Requirement, error) {
	r := &Requirement{
		SelectableBase:  entity.NewSelectableBase(label),
		Policy:          policy,
		HardRequirement: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Requirement) validate() error {
	if r.Policy == PolicyNoop || r.Policy == 0 {
		return fmt.Errorf("%w: policy cannot be NOOP", ErrInvalidPolicy)
	}
	hasIdentity := r.Identifier != "" || len(r.Criteria) > 0
	hasTemplateSource := r.Template != nil || r.TemplateRef != ""

	switch r.Policy {
	case PolicyExisting, PolicyUpdate:
		if !hasIdentity {
			return fmt.Errorf("%w: %s requires an identifier or match criteria", ErrInvalidPolicy, operationName(r.Policy))
		}
		if r.Policy == PolicyUpdate && !hasTemplateSource {
			return fmt.Errorf("%w: UPDATE requires a template", ErrInvalidPolicy)
		}
	case PolicyClone:
		if r.ReferenceID == nil {
			return fmt.Errorf("%w: CLONE requires a reference_id", ErrInvalidPolicy)
		}
	case PolicyCreate:
		if !hasTemplateSource {
			return fmt.Errorf("%w: CREATE requires a template", ErrInvalidPolicy)
		}
	case PolicyCreateToken:
		if !hasIdentity && !hasTemplateSource {
			return fmt.Errorf("%w: CREATE_TOKEN requires a template_ref or identifier naming the token type", ErrInvalidPolicy)
		}
	case PolicyAny:
		if !hasIdentity && !hasTemplateSource {
			return fmt.Errorf("%w: ANY requires an identifier, criteria, template, or template_ref", ErrInvalidPolicy)
		}
	}
	return nil
}

// GetSelectionCriteria folds Identifier into has_identifier alongside
// any explicit Criteria, matching the source's selection-criteria
// merge (own criteria win on conflict).
func (r *Requirement) GetSelectionCriteria() map[string]any {
	out := make(map[string]any, len(r.Criteria)+1)
	maps.Copy(out, r.Criteria)
	if r.Identifier != "" {
		if _, ok := out["has_identifier"]; !ok {
			out["has_identifier"] = r.Identifier
		}
	}
	return out
}

// SatisfiedBy reports whether node matches this requirement's
// selection criteria.
func (r *Requirement) SatisfiedBy(node entity.Entity) bool {
	return entity.Matches(node, r.GetSelectionCriteria())
}

// Satisfied reports whether a provider is bound, or the requirement
// is soft (a soft requirement is always "satisfied enough" to let the
// plan proceed even if nothing resolved it).
func (r *Requirement) Satisfied() bool {
	return r.ProviderID != nil || !r.HardRequirement
}

// SetProvider binds id as the resolved provider.
func (r *Requirement) SetProvider(id uuid.UUID) { r.ProviderID = &id }
