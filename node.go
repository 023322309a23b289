package swimcore

import (
	"context"

	"swimcore/wire"
)

// Params holds the three timing constants of the heartbeat/failure loop,
// measured in simulation ticks.
type Params struct {
	// TPing is the dissemination period: the ping counter is reloaded to
	// TPing and counts down once per tick, and when it reaches zero the
	// node advances its own heartbeat and sends a full-table PING to every
	// peer, so this happens once every TPing+1 ticks.
	TPing int32
	// TFail is the suspicion threshold: a peer entry not refreshed for
	// more than TFail ticks is latched to FailedHeartbeat.
	TFail int32
	// TRemove is the eviction threshold: a peer entry not refreshed for
	// more than TRemove ticks is dropped from the table. Must exceed
	// TFail.
	TRemove int32
}

func (p Params) validate() error {
	if p.TFail >= p.TRemove {
		return InvariantViolation("TFail must be strictly less than TRemove")
	}
	return nil
}

// Node is one participant in the cluster: its own identity, membership
// table, and the flags and counters that drive the tick loop. A Node owns
// no goroutines of its own; an external driver calls Tick once per
// simulation step and is responsible for keeping the Transport's inbound
// queue fed between calls.
type Node struct {
	addr   Address
	params Params

	transport Transport
	clock     Clock
	logger    Logger

	table       *MembershipTable
	pingCounter int32

	inited  bool
	inGroup bool
	failed  bool
}

// New constructs an inert Node. Call Start before the first Tick.
func New(addr Address, params Params, transport Transport, clock Clock, logger Logger) (*Node, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Node{
		addr:      addr,
		params:    params,
		transport: transport,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Addr returns the node's own address.
func (n *Node) Addr() Address { return n.addr }

// InGroup reports whether this node has completed bootstrap.
func (n *Node) InGroup() bool { return n.inGroup }

// IsFailed reports whether this node has been shut down.
func (n *Node) IsFailed() bool { return n.failed }

// Snapshot returns a copy of the current membership table entries, safe
// for a caller to read without racing future Tick calls (ticks are not
// concurrent with anything, but the backing slice is reused across
// mutations).
func (n *Node) Snapshot() []MemberListEntry {
	entries := n.table.Entries()
	out := make([]MemberListEntry, len(entries))
	copy(out, entries)
	return out
}

func (n *Node) initialize() {
	n.table = NewTable(n.addr, n.clock.Now())
	n.pingCounter = n.params.TPing
	n.inited = true
	n.inGroup = false
	n.failed = false
}

// Start brings the node up: it seeds the table with its own entry and then
// either declares itself the introducer or sends a JOINREQ to joinAddr.
// Failure here is fatal — by design there is no recoverable bootstrap
// error once a Node is running.
func (n *Node) Start(ctx context.Context, joinAddr Address) error {
	n.initialize()
	n.introduce(ctx, joinAddr)
	return nil
}

// Tick drives the node through one simulation step: drain inbound
// messages, disseminate on schedule, then sweep the table for suspected
// and removed peers. It runs to completion without blocking. A failed
// node ignores every subsequent call.
func (n *Node) Tick(ctx context.Context) error {
	if n.failed {
		return nil
	}

	ctx, end := startSpan(ctx, n.addr, "swimcore.tick")
	var err error
	defer func() { end(err) }()

	if err = n.drainInbound(ctx); err != nil {
		return err
	}

	if !n.inGroup {
		return nil
	}

	if n.pingCounter == 0 {
		n.disseminate(ctx)
		n.pingCounter = n.params.TPing
	} else {
		n.pingCounter--
	}

	n.failureSweep()
	return nil
}

// disseminate advances this node's own heartbeat, stamps slot 0's
// timestamp, and sends the full table as one PING to every peer —
// including peers already latched to FailedHeartbeat, which still receive
// traffic until they are evicted.
func (n *Node) disseminate(ctx context.Context) {
	ctx, end := startSpan(ctx, n.addr, "swimcore.disseminate")
	defer end(nil)

	self := n.table.Self()
	self.Heartbeat++
	self.Timestamp = n.clock.Now()

	entries := n.table.Entries()
	records := make([]wire.EntryRecord, len(entries))
	for i, e := range entries {
		records[i] = recordFromEntry(e)
	}
	msg := wire.Message{Type: wire.Ping, Entries: records}

	for _, peer := range n.table.Peers() {
		n.sendTo(ctx, peer.Address, msg)
	}
}

// Shutdown clears the node's state and marks it failed. After Shutdown,
// Tick is a no-op.
func (n *Node) Shutdown() {
	n.table = nil
	n.failed = true
	n.inGroup = false
}
