package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(recordType, channel string) *Record {
	r := NewRecord(recordType, nil, channel)
	return &r
}

// TestPushRecords_SectionsDoNotOverlap is scenario S5 (spec.md §8):
// two PushRecords calls under the same marker type produce two
// adjacent, non-overlapping sections.
func TestPushRecords_SectionsDoNotOverlap(t *testing.T) {
	s := NewStreamRegistry()

	r1, r2, r3 := newTestRecord("fragment", ""), newTestRecord("fragment", ""), newTestRecord("fragment", "")

	start, end, err := s.PushRecords("entry", "a", r1, r2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), start)
	assert.Equal(t, int64(2), end)

	start, end, err = s.PushRecords("entry", "b", r3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), start)
	assert.Equal(t, int64(3), end)

	sectionA, err := s.GetSection("entry", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, []Recordish{r1, r2}, sectionA)

	sectionB, err := s.GetSection("entry", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, []Recordish{r3}, sectionB)
}

// TestGetSection_IsHalfOpen confirms a section's end boundary is
// exclusive of the next marker's seq: a record landing exactly on the
// next marker belongs to the next section, not the current one.
func TestGetSection_IsHalfOpen(t *testing.T) {
	s := NewStreamRegistry()

	r1 := newTestRecord("fragment", "")
	require.NoError(t, s.AddRecord(r1))
	require.NoError(t, s.SetMarker("entry", "a", r1.SeqValue()))

	r2 := newTestRecord("fragment", "")
	require.NoError(t, s.AddRecord(r2))
	require.NoError(t, s.SetMarker("entry", "b", r2.SeqValue()))

	r3 := newTestRecord("fragment", "")
	require.NoError(t, s.AddRecord(r3))

	sectionA, err := s.GetSection("entry", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, []Recordish{r1}, sectionA)

	sectionB, err := s.GetSection("entry", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, []Recordish{r2, r3}, sectionB)
}

func TestSetMarker_DuplicateNameRejected(t *testing.T) {
	s := NewStreamRegistry()
	require.NoError(t, s.SetMarker("entry", "a", 1))
	err := s.SetMarker("entry", "a", 2)
	assert.ErrorIs(t, err, ErrMarkerExists)
}

func TestGetSection_UnknownMarkerErrors(t *testing.T) {
	s := NewStreamRegistry()
	_, err := s.GetSection("entry", "missing", nil)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestPushRecords_DefaultMarkerNameFallsBackToSeq(t *testing.T) {
	s := NewStreamRegistry()
	r1 := newTestRecord("fragment", "")
	_, _, err := s.PushRecords("entry", "", r1)
	require.NoError(t, err)

	section, err := s.GetSection("entry", "seq1", nil)
	require.NoError(t, err)
	assert.Equal(t, []Recordish{r1}, section)
}

func TestHasChannel_DerivesFromRecordTypeOrTag(t *testing.T) {
	byType := newTestRecord("call_receipt", "")
	assert.True(t, byType.HasChannel("call_receipt"))
	assert.False(t, byType.HasChannel("render"))

	byTag := newTestRecord("fragment", "render")
	assert.True(t, byTag.HasChannel("render"))
	assert.False(t, byTag.HasChannel("plan"))
}

func TestIterChannel_MatchesByRecordTypeWithoutExplicitTag(t *testing.T) {
	s := NewStreamRegistry()
	r1 := newTestRecord("call_receipt", "")
	require.NoError(t, s.AddRecord(r1))

	got := s.IterChannel("call_receipt", nil)
	assert.Equal(t, []Recordish{r1}, got)
}

func TestAddRecord_RejectsDuplicateIdentity(t *testing.T) {
	s := NewStreamRegistry()
	r1 := newTestRecord("fragment", "")
	require.NoError(t, s.AddRecord(r1))
	assert.Error(t, s.AddRecord(r1))
}

func TestRemove_AlwaysFails(t *testing.T) {
	s := NewStreamRegistry()
	err := s.Remove(newTestRecord("fragment", "").EntityUID())
	assert.ErrorIs(t, err, ErrSequenceViolation)
}
