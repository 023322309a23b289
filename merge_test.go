package swimcore

import (
	"testing"

	"gotest.tools/v3/assert"
	"pgregory.net/rapid"
)

func TestMergeIgnoresSelfObservation(t *testing.T) {
	self := Address{ID: 1, Port: 0}
	table := NewTable(self, 0)
	Merge(table, MemberListEntry{Address: self, Heartbeat: 99}, 5)
	assert.Equal(t, table.Self().Heartbeat, int64(0))
}

func TestMergeInsertsUnknownPeer(t *testing.T) {
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	peer := Address{ID: 2, Port: 0}
	Merge(table, MemberListEntry{Address: peer, Heartbeat: 3}, 7)

	e, ok := table.Find(peer)
	assert.Assert(t, ok)
	assert.Equal(t, e.Heartbeat, int64(3))
	assert.Equal(t, e.Timestamp, int32(7))
}

func TestMergeDoesNotResurrectEvictedPeer(t *testing.T) {
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	peer := Address{ID: 2, Port: 0}
	Merge(table, MemberListEntry{Address: peer, Heartbeat: FailedHeartbeat}, 7)

	_, ok := table.Find(peer)
	assert.Assert(t, !ok)
}

func TestMergeStaleHeartbeatRejected(t *testing.T) {
	// S5: an entry with a higher heartbeat is unaffected by a lower one.
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	c := Address{ID: 3, Port: 0}
	Merge(table, MemberListEntry{Address: c, Heartbeat: 50}, 10)

	Merge(table, MemberListEntry{Address: c, Heartbeat: 30}, 20)

	e, ok := table.Find(c)
	assert.Assert(t, ok)
	assert.Equal(t, e.Heartbeat, int64(50))
	assert.Equal(t, e.Timestamp, int32(10))
}

func TestMergeHigherHeartbeatRefreshesTimestamp(t *testing.T) {
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	c := Address{ID: 3, Port: 0}
	Merge(table, MemberListEntry{Address: c, Heartbeat: 50}, 10)

	Merge(table, MemberListEntry{Address: c, Heartbeat: 51}, 20)

	e, ok := table.Find(c)
	assert.Assert(t, ok)
	assert.Equal(t, e.Heartbeat, int64(51))
	assert.Equal(t, e.Timestamp, int32(20))
}

func TestMergePropagatedFailureLatchDoesNotTouchTimestamp(t *testing.T) {
	// S6: a failed observation latches immediately and leaves timestamp alone.
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	c := Address{ID: 3, Port: 0}
	Merge(table, MemberListEntry{Address: c, Heartbeat: 100}, 10)

	Merge(table, MemberListEntry{Address: c, Heartbeat: FailedHeartbeat}, 50)

	e, ok := table.Find(c)
	assert.Assert(t, ok)
	assert.Equal(t, e.Heartbeat, FailedHeartbeat)
	assert.Equal(t, e.Timestamp, int32(10))
}

func TestMergeStickyFailureIgnoresHigherHeartbeat(t *testing.T) {
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	c := Address{ID: 3, Port: 0}
	Merge(table, MemberListEntry{Address: c, Heartbeat: 100}, 10)
	Merge(table, MemberListEntry{Address: c, Heartbeat: FailedHeartbeat}, 20)

	Merge(table, MemberListEntry{Address: c, Heartbeat: 9999}, 30)

	e, ok := table.Find(c)
	assert.Assert(t, ok)
	assert.Equal(t, e.Heartbeat, FailedHeartbeat)
}

func TestMergeIsIdempotent(t *testing.T) {
	table := NewTable(Address{ID: 1, Port: 0}, 0)
	obs := MemberListEntry{Address: Address{ID: 2, Port: 0}, Heartbeat: 7}

	Merge(table, obs, 3)
	before := *mustFind(t, table, obs.Address)

	Merge(table, obs, 3)
	after := *mustFind(t, table, obs.Address)

	assert.Equal(t, before, after)
}

func TestMergeIsCommutativeForDistinctAddresses(t *testing.T) {
	self := Address{ID: 1, Port: 0}
	a := MemberListEntry{Address: Address{ID: 2, Port: 0}, Heartbeat: 5}
	b := MemberListEntry{Address: Address{ID: 3, Port: 0}, Heartbeat: 9}

	t1 := NewTable(self, 0)
	Merge(t1, a, 1)
	Merge(t1, b, 1)

	t2 := NewTable(self, 0)
	Merge(t2, b, 1)
	Merge(t2, a, 1)

	assert.DeepEqual(t, t1.Peers(), t2.Peers())
}

func mustFind(t *testing.T, table *MembershipTable, addr Address) *MemberListEntry {
	t.Helper()
	e, ok := table.Find(addr)
	assert.Assert(t, ok)
	return e
}

// --- property-based invariants ---

func genAddress(t *rapid.T, label string) Address {
	return Address{
		ID:   uint32(rapid.IntRange(1, 6).Draw(t, label+"-id")),
		Port: 0,
	}
}

func genObservation(t *rapid.T) MemberListEntry {
	heartbeat := rapid.OneOf(
		rapid.Just(int64(FailedHeartbeat)),
		rapid.Int64Range(0, 1000),
	).Draw(t, "heartbeat")
	return MemberListEntry{
		Address:   genAddress(t, "peer"),
		Heartbeat: heartbeat,
	}
}

// TestPropertyMonotoneHeartbeat checks I1: a non-failed peer entry's
// heartbeat only ever increases across a sequence of merges.
func TestPropertyMonotoneHeartbeat(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := Address{ID: 1, Port: 0}
		table := NewTable(self, 0)
		var now int32
		last := map[Address]int64{}

		steps := rapid.IntRange(1, 50).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			obs := genObservation(rt)
			now++
			Merge(table, obs, now)

			if e, ok := table.Find(obs.Address); ok && !e.Failed() {
				if prev, seen := last[obs.Address]; seen {
					if e.Heartbeat < prev {
						rt.Fatalf("heartbeat decreased for %v: %d -> %d", obs.Address, prev, e.Heartbeat)
					}
				}
				last[obs.Address] = e.Heartbeat
			}
		}
	})
}

// TestPropertyStickyFailure checks I2: once latched, no later merge
// changes a peer entry's heartbeat away from FailedHeartbeat.
func TestPropertyStickyFailure(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := Address{ID: 1, Port: 0}
		table := NewTable(self, 0)
		var now int32

		peer := genAddress(rt, "peer")
		Merge(table, MemberListEntry{Address: peer, Heartbeat: 1}, now)
		now++
		Merge(table, MemberListEntry{Address: peer, Heartbeat: FailedHeartbeat}, now)

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now++
			hb := rapid.Int64Range(0, 1000).Draw(rt, "hb")
			Merge(table, MemberListEntry{Address: peer, Heartbeat: hb}, now)

			e, ok := table.Find(peer)
			if !ok {
				rt.Fatalf("failed peer entry vanished from merge, not sweep")
			}
			if e.Heartbeat != FailedHeartbeat {
				rt.Fatalf("sticky failure violated: heartbeat became %d", e.Heartbeat)
			}
		}
	})
}

// TestPropertyUniqueness checks I5: no two entries ever share an address.
func TestPropertyUniqueness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := Address{ID: 1, Port: 0}
		table := NewTable(self, 0)
		var now int32

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now++
			Merge(table, genObservation(rt), now)
		}

		seen := map[Address]bool{}
		for _, e := range table.Entries() {
			if seen[e.Address] {
				rt.Fatalf("duplicate address %v in table", e.Address)
			}
			seen[e.Address] = true
		}
	})
}

// TestPropertyNoResurrection checks I6: a failed observation for an
// address not currently present never re-inserts it.
func TestPropertyNoResurrection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := Address{ID: 1, Port: 0}
		table := NewTable(self, 0)
		peer := genAddress(rt, "peer")

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		var now int32
		for i := 0; i < steps; i++ {
			now++
			Merge(table, MemberListEntry{Address: peer, Heartbeat: FailedHeartbeat}, now)
			if _, ok := table.Find(peer); ok {
				rt.Fatalf("peer resurrected by failed observation")
			}
		}
	})
}

// TestPropertyMergeIdempotent checks that repeating the same observation
// leaves the table unchanged.
func TestPropertyMergeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := Address{ID: 1, Port: 0}
		table := NewTable(self, 0)
		var now int32

		setup := rapid.IntRange(0, 10).Draw(rt, "setup-steps")
		for i := 0; i < setup; i++ {
			now++
			Merge(table, genObservation(rt), now)
		}

		obs := genObservation(rt)
		now++
		Merge(table, obs, now)
		before := snapshot(table)

		Merge(table, obs, now)
		after := snapshot(table)

		if len(before) != len(after) {
			rt.Fatalf("table size changed on repeated merge: %d -> %d", len(before), len(after))
		}
		for addr, e := range before {
			if after[addr] != e {
				rt.Fatalf("entry for %v changed on repeated merge: %+v -> %+v", addr, e, after[addr])
			}
		}
	})
}

func snapshot(table *MembershipTable) map[Address]MemberListEntry {
	m := make(map[Address]MemberListEntry, table.Len())
	for _, e := range table.Entries() {
		m[e.Address] = e
	}
	return m
}
