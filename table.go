package swimcore

// MembershipTable is the ordered sequence of MemberListEntry this node
// maintains. Slot 0 is always this node's own entry; slots 1..n are peers.
//
// Invariants:
//   - exactly one entry per (id, port) — no duplicates;
//   - slot 0's heartbeat mirrors the node's own counter, its timestamp is
//     bumped whenever that counter increments;
//   - a peer entry's heartbeat, once FailedHeartbeat, never changes again;
//   - after a failure sweep, no surviving entry has age > TREMOVE.
type MembershipTable struct {
	entries []MemberListEntry
}

// NewTable creates a table seeded with the owning node's own entry at slot 0.
func NewTable(self Address, now int32) *MembershipTable {
	return &MembershipTable{
		entries: []MemberListEntry{{Address: self, Heartbeat: 0, Timestamp: now}},
	}
}

// Self returns a pointer to slot 0, this node's own entry.
func (t *MembershipTable) Self() *MemberListEntry {
	return &t.entries[0]
}

// Len returns the total number of entries, including slot 0.
func (t *MembershipTable) Len() int {
	return len(t.entries)
}

// Entries returns the live entries in table order. The returned slice aliases
// internal storage and must be treated as read-only by callers outside this
// package; use it to serialize a PING payload or to snapshot a table for a
// dashboard.
func (t *MembershipTable) Entries() []MemberListEntry {
	return t.entries
}

// Peers returns the entries in slots 1..n, i.e. every entry but self.
func (t *MembershipTable) Peers() []MemberListEntry {
	if len(t.entries) <= 1 {
		return nil
	}
	return t.entries[1:]
}

// Find locates a peer entry (slot >= 1) by (id, port). It never matches
// slot 0 — callers that need to special-case self must check that first.
func (t *MembershipTable) Find(addr Address) (*MemberListEntry, bool) {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].Address == addr {
			return &t.entries[i], true
		}
	}
	return nil, false
}

// Insert appends a new peer entry. Callers are responsible for checking
// Find first; Insert does not itself enforce uniqueness (the merge rules
// already guarantee a caller never inserts a duplicate).
func (t *MembershipTable) Insert(e MemberListEntry) {
	t.entries = append(t.entries, e)
}

// RemoveAt deletes the peer entry at the given table index (which must be
// >= 1). Order of the remaining entries is preserved.
func (t *MembershipTable) RemoveAt(i int) {
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
}

// PeerIndices returns the table indices of every peer entry (1..n), in
// descending order, for safe-erase iteration: deleting by index while
// walking back-to-front never invalidates an index still to be visited.
func (t *MembershipTable) PeerIndices() []int {
	idx := make([]int, 0, len(t.entries)-1)
	for i := len(t.entries) - 1; i >= 1; i-- {
		idx = append(idx, i)
	}
	return idx
}
