// Package receipt implements CallReceipt, the audit envelope every
// Behavior invocation produces, plus the Result code enum behaviors
// and provisioner acceptors report through.
package receipt

import (
	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/journal"
)

// ResultCode classifies the outcome of a single dispatched call.
type ResultCode string

const (
	ResultOK      ResultCode = "OK"
	ResultSkip    ResultCode = "SKIP"
	ResultInvalid ResultCode = "INVALID"
	ResultNone    ResultCode = "NONE"
	ResultError   ResultCode = "ERROR"
)

// CallReceipt is the Record produced by each Behavior invocation.
type CallReceipt struct {
	journal.Record
	Result     any
	ResultCode ResultCode
	ResultType string
	CallerID   uuid.UUID
	OtherIDs   []uuid.UUID
	Message    string

	// Ctx/Args/Kwargs are never serialized (the source marks these
	// fields excluded); they exist purely for in-process introspection
	// by tests and debugging tools.
	Ctx    any
	Args   []any
	Kwargs map[string]any
}

// New constructs a CallReceipt with record_type "call_receipt" and the
// given blame (the invoked Behavior's UID).
func New(blameID uuid.UUID, callerID uuid.UUID, result any, code ResultCode, message string) *CallReceipt {
	return &CallReceipt{
		Record:     journal.NewRecord("call_receipt", &blameID, ""),
		Result:     result,
		ResultCode: code,
		CallerID:   callerID,
		Message:    message,
	}
}
