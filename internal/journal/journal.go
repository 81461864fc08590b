// Package journal implements Record and StreamRegistry: the
// append-only, monotonically sequenced output stream every cursor
// step writes to.
package journal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
)

// ErrSequenceViolation covers any attempt to append a record with a
// seq that does not strictly increase the stream's high-water mark,
// and any attempt to remove from a StreamRegistry (removal is always
// forbidden — "updates" produce new records instead).
var ErrSequenceViolation = errors.New("journal: sequence violation")

// ErrMarkerExists is returned by SetMarker when a marker of the same
// (type, name) pair is already set.
var ErrMarkerExists = errors.New("journal: marker already set")

// ErrMarkerNotFound is returned by GetSection when no marker with the
// requested name exists.
var ErrMarkerNotFound = errors.New("journal: marker not found")

// Record is the immutable base type for everything appended to a
// StreamRegistry. Concrete record types (e.g. receipt.CallReceipt)
// embed Record.
type Record struct {
	entity.Base
	RecordType string
	BlameID    *uuid.UUID
	Seq        int64
}

// NewRecord constructs a Record with an unassigned Seq (0); the
// owning StreamRegistry assigns one on Add if the caller left it at
// its zero value. A non-empty channel is recorded as a "channel:"
// tag, not a separate field — channels are derived, not stored (spec
// §4.7; original_source's record.py: "record_type == x or
// f'channel:{x}' in tags").
func NewRecord(recordType string, blameID *uuid.UUID, channel string) Record {
	base := entity.NewBase("")
	if channel != "" {
		base.AddTag("channel:" + channel)
	}
	return Record{Base: base, RecordType: recordType, BlameID: blameID}
}

// HasChannel implements the has_channel(name) capability used by
// StreamRegistry.IterChannel's criteria matching: a record belongs to
// channel name if its RecordType equals name, or it carries a
// "channel:"+name tag.
func (r *Record) HasChannel(expected any) bool {
	name, ok := expected.(string)
	if !ok {
		return false
	}
	return r.RecordType == name || r.HasTag("channel:"+name)
}

// HasRecordType implements has_record_type(name) capability matching.
func (r *Record) HasRecordType(expected any) bool {
	name, ok := expected.(string)
	return ok && r.RecordType == name
}

// Recordish is the interface every appendable stream item satisfies:
// an Entity that carries a mutable Seq.
type Recordish interface {
	entity.Entity
	SeqValue() int64
	setSeq(int64)
}

func (r *Record) SeqValue() int64  { return r.Seq }
func (r *Record) setSeq(seq int64) { r.Seq = seq }

// StreamRegistry is an append-only registry of Recordish items: Remove
// always fails, Add enforces strict seq monotonicity (assigning one if
// the item arrives with its zero value), and named markers partition
// the stream into half-open sections.
type StreamRegistry struct {
	mu      sync.RWMutex
	byUID   map[uuid.UUID]Recordish
	order   []uuid.UUID
	maxSeq  int64
	markers map[string]map[string]int64 // markerType -> name -> seq
}

// NewStreamRegistry constructs an empty journal.
func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{
		byUID:   make(map[uuid.UUID]Recordish),
		markers: make(map[string]map[string]int64),
	}
}

// AddRecord assigns item a seq (maxSeq+1) if it arrives with its zero
// value, rejects any other seq that does not exceed the current
// high-water mark with ErrSequenceViolation, appends it, and advances
// maxSeq.
func (s *StreamRegistry) AddRecord(item Recordish) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(item)
}

func (s *StreamRegistry) addLocked(item Recordish) error {
	if item.SeqValue() == 0 {
		item.setSeq(s.maxSeq + 1)
	}
	if item.SeqValue() <= s.maxSeq {
		return fmt.Errorf("%w: seq %d does not exceed high-water mark %d", ErrSequenceViolation, item.SeqValue(), s.maxSeq)
	}
	uid := item.EntityUID()
	if _, exists := s.byUID[uid]; exists {
		return fmt.Errorf("journal: duplicate identity %s", uid)
	}
	s.byUID[uid] = item
	s.order = append(s.order, uid)
	s.maxSeq = item.SeqValue()
	return nil
}

// PushRecords appends every item, then sets a marker over the section
// they opened. If markerName is empty, the first item's label is used
// (falling back to "seqN" when the label is empty). Returns the
// (startSeq, endSeq) of the pushed section.
func (s *StreamRegistry) PushRecords(markerType, markerName string, items ...Recordish) (startSeq, endSeq int64, err error) {
	if len(items) == 0 {
		return 0, 0, errors.New("journal: PushRecords requires at least one item")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if err := s.addLocked(item); err != nil {
			return 0, 0, err
		}
	}
	startSeq = items[0].SeqValue()
	for _, item := range items {
		if item.SeqValue() < startSeq {
			startSeq = item.SeqValue()
		}
	}
	if markerName == "" {
		if lbl := labelOf(items[0]); lbl != "" {
			markerName = lbl
		} else {
			markerName = fmt.Sprintf("seq%d", startSeq)
		}
	}
	if err := s.setMarkerLocked(markerType, markerName, startSeq); err != nil {
		return 0, 0, err
	}
	return startSeq, s.maxSeq, nil
}

func labelOf(item Recordish) string {
	type labeled interface{ Label() string }
	if l, ok := item.(labeled); ok {
		return l.Label()
	}
	return ""
}

// SetMarker records seq under (markerType, name). Returns
// ErrMarkerExists if that pair is already set.
func (s *StreamRegistry) SetMarker(markerType, name string, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMarkerLocked(markerType, name, seq)
}

func (s *StreamRegistry) setMarkerLocked(markerType, name string, seq int64) error {
	byName, ok := s.markers[markerType]
	if !ok {
		byName = make(map[string]int64)
		s.markers[markerType] = byName
	}
	if _, exists := byName[name]; exists {
		return fmt.Errorf("%w: type=%q name=%q", ErrMarkerExists, markerType, name)
	}
	byName[name] = seq
	return nil
}

// nextMarkerSeq returns the last seq still inside the section opened
// at startSeq: one less than the smallest marker seq of markerType
// strictly greater than startSeq (sections are half-open — [start,
// next) — so the next marker's own seq belongs to the next section,
// not this one), or maxSeq if no later marker exists — the open end
// of the final section of that marker type extends to the stream's
// current high-water mark, inclusive.
func (s *StreamRegistry) nextMarkerSeq(markerType string, startSeq int64) int64 {
	byName, ok := s.markers[markerType]
	if !ok {
		return s.maxSeq
	}
	best := int64(-1)
	for _, seq := range byName {
		if seq > startSeq && (best == -1 || seq < best) {
			best = seq
		}
	}
	if best == -1 {
		return s.maxSeq
	}
	return best - 1
}

// GetSection returns every record in [marker, nextMarkerOfSameType)
// matching criteria, where marker is the seq named markerName under
// markerType (default marker type "_").
func (s *StreamRegistry) GetSection(markerType, markerName string, criteria map[string]any) ([]Recordish, error) {
	if markerType == "" {
		markerType = "_"
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName, ok := s.markers[markerType]
	if !ok {
		return nil, fmt.Errorf("%w: type=%q", ErrMarkerNotFound, markerType)
	}
	start, ok := byName[markerName]
	if !ok {
		return nil, fmt.Errorf("%w: type=%q name=%q", ErrMarkerNotFound, markerType, markerName)
	}
	end := s.nextMarkerSeq(markerType, start)
	return s.getSliceLocked(start, end, criteria), nil
}

// GetSlice returns every record with seq in [start, end] matching
// criteria, in seq order.
func (s *StreamRegistry) GetSlice(start, end int64, criteria map[string]any) []Recordish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSliceLocked(start, end, criteria)
}

func (s *StreamRegistry) getSliceLocked(start, end int64, criteria map[string]any) []Recordish {
	out := make([]Recordish, 0)
	for _, uid := range s.order {
		item := s.byUID[uid]
		if item.SeqValue() < start || item.SeqValue() > end {
			continue
		}
		if criteria == nil || entity.Matches(item, criteria) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqValue() < out[j].SeqValue() })
	return out
}

// IterChannel returns every record tagged with channel, matching any
// additional criteria, ordered by seq.
func (s *StreamRegistry) IterChannel(channel string, criteria map[string]any) []Recordish {
	merged := map[string]any{"has_channel": channel}
	for k, v := range criteria {
		merged[k] = v
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Recordish, 0)
	for _, uid := range s.order {
		item := s.byUID[uid]
		if entity.Matches(item, merged) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqValue() < out[j].SeqValue() })
	return out
}

// Last returns the highest-seq record matching criteria (and,
// optionally, a channel), or false if none match.
func (s *StreamRegistry) Last(channel string, criteria map[string]any) (Recordish, bool) {
	var candidates []Recordish
	if channel != "" {
		candidates = s.IterChannel(channel, criteria)
	} else {
		s.mu.RLock()
		for _, uid := range s.order {
			item := s.byUID[uid]
			if criteria == nil || entity.Matches(item, criteria) {
				candidates = append(candidates, item)
			}
		}
		s.mu.RUnlock()
	}
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.SeqValue() > best.SeqValue() {
			best = c
		}
	}
	return best, true
}

// MaxSeq returns the stream's current high-water mark.
func (s *StreamRegistry) MaxSeq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSeq
}

// Remove always fails: the journal is append-only by contract.
func (s *StreamRegistry) Remove(uuid.UUID) error {
	return fmt.Errorf("%w: StreamRegistry is append-only", ErrSequenceViolation)
}
