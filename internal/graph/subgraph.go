package graph

import (
	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/entity"
)

// Subgraph is a GraphItem with an ordered member list. Adding a member
// re-parents it, removing it from any prior Subgraph and invalidating
// the owning graph's cached parent lookup for that member.
type Subgraph struct {
	Base
	memberIDs []uuid.UUID
}

// MemberIDs returns the ordered member UID list.
func (s *Subgraph) MemberIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.memberIDs))
	copy(out, s.memberIDs)
	return out
}

func (s *Subgraph) hasMember(uid uuid.UUID) bool {
	for _, id := range s.memberIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// AddMember appends item to this subgraph, first removing it from any
// Subgraph that previously contained it.
func (s *Subgraph) AddMember(item Item) error {
	if s.graph == nil {
		return ErrLinkage
	}
	if err := s.graph.validateLinkable(item); err != nil {
		return err
	}
	uid := item.EntityUID()
	if prev, ok := s.graph.parentOfItem(item); ok && prev != s {
		prev.removeMember(uid)
	}
	if !s.hasMember(uid) {
		s.memberIDs = append(s.memberIDs, uid)
	}
	s.graph.invalidateParentCache(uid)
	return nil
}

// RemoveMember removes item from this subgraph's membership.
func (s *Subgraph) RemoveMember(item Item) {
	uid := item.EntityUID()
	s.removeMember(uid)
	if s.graph != nil {
		s.graph.invalidateParentCache(uid)
	}
}

func (s *Subgraph) removeMember(uid uuid.UUID) {
	for i, id := range s.memberIDs {
		if id == uid {
			s.memberIDs = append(s.memberIDs[:i], s.memberIDs[i+1:]...)
			return
		}
	}
}

// Members dereferences every member UID through the owning graph,
// skipping any that have since been removed from the graph entirely.
func (s *Subgraph) Members() []Item {
	if s.graph == nil {
		return nil
	}
	out := make([]Item, 0, len(s.memberIDs))
	for _, id := range s.memberIDs {
		if item, ok := s.graph.items.Get(id); ok {
			out = append(out, item)
		}
	}
	return out
}

// FindAll restricts search to this subgraph's own members.
func (s *Subgraph) FindAll(criteria map[string]any) []Item {
	out := make([]Item, 0)
	for _, m := range s.Members() {
		if entity.Matches(m, criteria) {
			out = append(out, m)
		}
	}
	return out
}
