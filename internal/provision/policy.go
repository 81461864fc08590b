// Package provision implements the provisioning planner: Requirement
// resolution against a pool of Provisioners via a collect/dedupe/
// select/execute pipeline, producing BuildReceipts and a final
// PlanningReceipt.
package provision

// Policy is a bitset of the operations a Requirement will accept to
// satisfy itself. Most requirements declare exactly one bit; ANY
// leaves the choice to whichever provisioner responds cheapest.
type Policy uint8

const (
	PolicyExisting Policy = 1 << iota
	PolicyUpdate
	PolicyCreate
	PolicyCreateToken
	PolicyClone
	PolicyNoop
)

// PolicyAny accepts an already-existing node, an in-place update, a
// freshly created one, or a token-factory creation — whichever
// provisioner offers it cheapest.
const PolicyAny = PolicyExisting | PolicyUpdate | PolicyCreate | PolicyCreateToken

// Has reports whether policy includes every bit set in other.
func (p Policy) Has(other Policy) bool { return p&other == other }

func operationName(p Policy) string {
	switch p {
	case PolicyExisting:
		return "EXISTING"
	case PolicyUpdate:
		return "UPDATE"
	case PolicyCreate:
		return "CREATE"
	case PolicyCreateToken:
		return "CREATE_TOKEN"
	case PolicyClone:
		return "CLONE"
	default:
		return "UNKNOWN"
	}
}
