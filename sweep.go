package swimcore

// failureSweep walks every peer entry and ages it: entries older than
// TREMOVE are evicted, entries older than TFAIL (but not yet evicted) are
// latched to FailedHeartbeat. Timestamps are never touched here — only a
// merge ever refreshes one.
//
// Iteration goes back-to-front over a snapshot of indices so that removing
// an entry never shifts the index of one still to be visited.
func (n *Node) failureSweep() {
	now := n.clock.Now()
	for _, i := range n.table.PeerIndices() {
		entry := n.table.Entries()[i]
		age := entry.Age(now)

		switch {
		case age > n.params.TRemove:
			n.table.RemoveAt(i)
			n.logger.LogNodeRemoved(n.addr, entry.Address)
		case age > n.params.TFail:
			n.table.Entries()[i].Heartbeat = FailedHeartbeat
		}
	}
}
