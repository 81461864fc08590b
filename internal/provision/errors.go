package provision

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidPolicy is returned by NewRequirement when a Requirement's
// fields are insufficient for the policy it declares (e.g. CLONE with
// no reference_id).
var ErrInvalidPolicy = errors.New("provision: invalid policy")

// UnresolvableHardRequirement marks a hard Requirement that no
// provisioner offered anything for.
type UnresolvableHardRequirement struct {
	RequirementID uuid.UUID
}

func (e *UnresolvableHardRequirement) Error() string {
	return fmt.Sprintf("provision: hard requirement %s is unresolvable", e.RequirementID)
}

// AcceptorFailure wraps an error raised while executing an offer's
// Accept callback, preserving it as Reason for unwrapping.
type AcceptorFailure struct {
	Reason error
}

func (e *AcceptorFailure) Error() string {
	return fmt.Sprintf("provision: acceptor failed: %v", e.Reason)
}

func (e *AcceptorFailure) Unwrap() error { return e.Reason }
