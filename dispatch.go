package swimcore

import (
	"context"

	"swimcore/wire"
)

// drainInbound pulls every datagram currently buffered for n and routes
// each to its handler by header tag. It never blocks: whatever RecvInto
// hands back is exactly what gets processed this tick, and anything that
// arrives mid-tick is left for the next one.
func (n *Node) drainInbound(ctx context.Context) error {
	msgs, err := n.transport.RecvInto(n.addr, nil)
	if err != nil {
		return TransportError("recv", err)
	}

	for _, raw := range msgs {
		msg, decErr := wire.Decode(raw)
		if decErr != nil {
			// Truncated or unrecognized: a malformed datagram is
			// indistinguishable from a corrupted one on a best-effort
			// transport, so it is dropped and only logged.
			n.logger.Log(n.addr, "dropped malformed datagram: "+decErr.Error())
			continue
		}

		switch msg.Type {
		case wire.JoinReq:
			n.handleJoinRequest(ctx, msg)
		case wire.JoinRep:
			n.handleJoinReply(msg)
		case wire.Ping:
			n.handlePing(msg)
		default:
			n.logger.Log(n.addr, "discarded message with unhandled tag")
		}
	}
	return nil
}

func entryFromRecord(r wire.EntryRecord) MemberListEntry {
	return MemberListEntry{
		Address:   Address{ID: r.ID, Port: r.Port},
		Heartbeat: r.Heartbeat,
	}
}

func recordFromEntry(e MemberListEntry) wire.EntryRecord {
	return wire.EntryRecord{ID: e.Address.ID, Port: e.Address.Port, Heartbeat: e.Heartbeat}
}

func (n *Node) handleJoinRequest(ctx context.Context, msg wire.Message) {
	observed := entryFromRecord(msg.Entries[0])
	if Merge(n.table, observed, n.clock.Now()) {
		n.logger.LogNodeAdded(n.addr, observed.Address)
	}

	reply := wire.Message{
		Type:    wire.JoinRep,
		Entries: []wire.EntryRecord{recordFromEntry(*n.table.Self())},
	}
	n.sendTo(ctx, observed.Address, reply)
}

func (n *Node) handleJoinReply(msg wire.Message) {
	n.inGroup = true
	observed := entryFromRecord(msg.Entries[0])
	if Merge(n.table, observed, n.clock.Now()) {
		n.logger.LogNodeAdded(n.addr, observed.Address)
	}
}

func (n *Node) handlePing(msg wire.Message) {
	now := n.clock.Now()
	for _, rec := range msg.Entries {
		observed := entryFromRecord(rec)
		if Merge(n.table, observed, now) {
			n.logger.LogNodeAdded(n.addr, observed.Address)
		}
	}
}

// sendTo encodes msg and hands it to the transport. Send failures are
// best-effort and never surfaced past a log line.
func (n *Node) sendTo(ctx context.Context, to Address, msg wire.Message) {
	payload, err := wire.Encode(msg)
	if err != nil {
		n.logger.Log(n.addr, "encode failed: "+err.Error())
		return
	}
	if err := n.transport.Send(ctx, n.addr, to, payload); err != nil {
		n.logger.Log(n.addr, "send to "+to.String()+" failed: "+err.Error())
	}
}
