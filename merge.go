package swimcore

// Merge integrates a single remote observation into table as of the given
// clock tick and reports whether it caused a brand new peer entry to be
// inserted (the only case a caller needs to audit-log). It never mutates
// the table's own slot 0 — observations of self are discarded before
// comparison.
//
// Heartbeats are monotone per origin, so the greatest heartbeat ever seen
// for an address is the freshest evidence that its owner is alive. The
// FailedHeartbeat sentinel is a one-way latch: once set, neither a higher
// nor a lower observed heartbeat moves it, and an evicted address is never
// resurrected by a stale failed observation arriving after the fact.
func Merge(table *MembershipTable, observed MemberListEntry, now int32) bool {
	if observed.Address == table.Self().Address {
		return false
	}

	local, found := table.Find(observed.Address)
	if found {
		switch {
		case observed.Heartbeat == FailedHeartbeat:
			local.Heartbeat = FailedHeartbeat
		case local.Heartbeat == FailedHeartbeat:
			// sticky: already latched, nothing observed can revive it
		case observed.Heartbeat > local.Heartbeat:
			local.Heartbeat = observed.Heartbeat
			local.Timestamp = now
		default:
			// stale or equal, no update
		}
		return false
	}

	if observed.Heartbeat == FailedHeartbeat {
		return false
	}
	table.Insert(MemberListEntry{
		Address:   observed.Address,
		Heartbeat: observed.Heartbeat,
		Timestamp: now,
	})
	return true
}
