package receipt

import (
	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/journal"
)

// BuildReceipt extends CallReceipt with the bookkeeping a provisioning
// step produces: which operation ran, whether the acceptor succeeded,
// whether the requirement it served was hard, and which node ended up
// bound as provider. Operation is a plain string label ("EXISTING",
// "UPDATE", "CREATE", "CLONE", "CREATE_TOKEN", "AFFORDANCE") rather
// than the provision package's own Policy type, so this package never
// has to import provision.
type BuildReceipt struct {
	CallReceipt
	Operation     string
	Accepted      bool
	HardReq       bool
	Reason        string
	ProviderID    *uuid.UUID
	RequirementID uuid.UUID
}

// NewBuildReceipt constructs a BuildReceipt blamed on the provisioner
// that produced the accepted (or failed) offer.
func NewBuildReceipt(provisionerID, requirementID uuid.UUID, operation string, accepted, hardReq bool, providerID *uuid.UUID, reason string) *BuildReceipt {
	code := ResultOK
	if !accepted {
		code = ResultError
	}
	return &BuildReceipt{
		CallReceipt:   *New(provisionerID, requirementID, nil, code, reason),
		Operation:     operation,
		Accepted:      accepted,
		HardReq:       hardReq,
		Reason:        reason,
		ProviderID:    providerID,
		RequirementID: requirementID,
	}
}

// PlanningReceipt summarizes a whole provisioning pass: how many
// requirements were attached/updated/created/cloned, and which hard
// requirements went unresolved or soft requirements were waived.
type PlanningReceipt struct {
	journal.Record
	Attached                   int
	Updated                    int
	Created                    int
	Cloned                     int
	AffordancesGranted         int
	UnresolvedHardRequirements []uuid.UUID
	WaivedSoftRequirements     []uuid.UUID
	Builds                     []*BuildReceipt
}

// Summarize aggregates a set of BuildReceipts into a single
// PlanningReceipt, tallying counts per operation. Callers append their
// own unresolved/waived requirement UIDs afterward — those never
// produce a BuildReceipt in the first place, since no offer was ever
// selected for them.
func Summarize(builds ...*BuildReceipt) *PlanningReceipt {
	pr := &PlanningReceipt{
		Record: journal.NewRecord("planning_receipt", nil, ""),
		Builds: builds,
	}
	for _, b := range builds {
		if b == nil || !b.Accepted {
			continue
		}
		switch b.Operation {
		case "EXISTING":
			pr.Attached++
		case "UPDATE":
			pr.Updated++
		case "CREATE", "CREATE_TOKEN":
			pr.Created++
		case "CLONE":
			pr.Cloned++
		case "AFFORDANCE":
			pr.AffordancesGranted++
		}
	}
	return pr
}
