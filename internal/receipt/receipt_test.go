package receipt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew_SetsResultFields(t *testing.T) {
	blame := uuid.New()
	caller := uuid.New()
	r := New(blame, caller, "ok", ResultOK, "handler: greet")

	assert.Equal(t, blame, *r.BlameID)
	assert.Equal(t, caller, r.CallerID)
	assert.Equal(t, ResultOK, r.ResultCode)
	assert.Equal(t, "ok", r.Result)
	assert.Equal(t, "call_receipt", r.RecordType)
}

func TestSummarize_TalliesAcceptedOperationsOnly(t *testing.T) {
	provisioner := uuid.New()
	req1, req2, req3 := uuid.New(), uuid.New(), uuid.New()
	provider := uuid.New()

	builds := []*BuildReceipt{
		NewBuildReceipt(provisioner, req1, "EXISTING", true, true, &provider, ""),
		NewBuildReceipt(provisioner, req2, "CREATE", true, true, &provider, ""),
		NewBuildReceipt(provisioner, req3, "UPDATE", false, true, nil, "acceptor failed"),
	}

	summary := Summarize(builds...)
	assert.Equal(t, 1, summary.Attached)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Len(t, summary.Builds, 3)
}
