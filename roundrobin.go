package graphbolt

import "sync"

// roundRobinSet is an ordered set of Addresses with a wrap-around cursor,
// per spec.md §3/§9: Next visits every current member once before
// repeating; adding a member does not reset the cursor of existing
// members. There is no single-member removal; Clear empties the set.
// All mutation and rotation is serialized under one lock (spec.md §5).
type roundRobinSet struct {
	mu      sync.Mutex
	members []Address
	cursor  int
}

func newRoundRobinSet(initial ...Address) *roundRobinSet {
	s := &roundRobinSet{}
	for _, a := range initial {
		s.members = append(s.members, a)
	}
	return s
}

// Add inserts address if it is not already present.
func (s *roundRobinSet) Add(address Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m == address {
			return
		}
	}
	s.members = append(s.members, address)
}

// Clear empties the set and resets the cursor.
func (s *roundRobinSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = nil
	s.cursor = 0
}

// Next returns the next member in round-robin order, wrapping around
// current membership. Returns false if the set is empty.
func (s *roundRobinSet) Next() (Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) == 0 {
		return Address{}, false
	}
	if s.cursor >= len(s.members) {
		s.cursor = 0
	}
	a := s.members[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.members)
	return a, true
}

// Members returns a snapshot of the current membership, in insertion
// order.
func (s *roundRobinSet) Members() []Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Address, len(s.members))
	copy(out, s.members)
	return out
}
