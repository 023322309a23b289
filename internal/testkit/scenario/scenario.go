// Package scenario provisions a group of swimcore.Node values over a
// shared transport/sim.Cluster for end-to-end protocol tests: bootstrap,
// steady-state dissemination, partitions, and failure detection.
package scenario

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"swimcore"
	"swimcore/internal/check"
	"swimcore/transport/sim"
)

// Config defines how a Scenario is composed.
type Config struct {
	// NodeCount is how many nodes to create. Node i (0-based) is
	// addressed id=i+1, port=0; node 0 is always the introducer.
	NodeCount int
	Params    swimcore.Params
	Logger    swimcore.Logger
	Seed      int64
}

// Node pairs a running swimcore.Node with its address for convenient
// scenario bookkeeping.
type Node struct {
	Addr swimcore.Address
	Node *swimcore.Node
}

// Scenario wires a set of nodes to a shared simulated cluster and drives
// them in lockstep.
type Scenario struct {
	Cluster *sim.Cluster
	params  swimcore.Params
	logger  swimcore.Logger
	nodes   map[swimcore.Address]*Node
}

// New creates a scenario with cfg.NodeCount nodes already constructed (but
// not started — call Start or StartAll).
func New(cfg Config) (*Scenario, error) {
	if cfg.NodeCount <= 0 {
		return nil, fmt.Errorf("node count must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = swimcore.NopLogger{}
	}

	s := &Scenario{
		Cluster: sim.New(cfg.Seed),
		params:  cfg.Params,
		logger:  cfg.Logger,
		nodes:   make(map[swimcore.Address]*Node, cfg.NodeCount),
	}

	for i := 0; i < cfg.NodeCount; i++ {
		addr := swimcore.Address{ID: uint32(i + 1), Port: 0}
		if _, err := s.AddNode(addr); err != nil {
			return nil, fmt.Errorf("add node %s: %w", addr, err)
		}
	}
	return s, nil
}

// MustNew is New but fails the test immediately on error.
func MustNew(t testing.TB, cfg Config) *Scenario {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("create scenario: %v", err)
	}
	return s
}

// AddNode constructs and registers a new node at addr, sharing this
// scenario's cluster, params, and logger.
func (s *Scenario) AddNode(addr swimcore.Address) (*Node, error) {
	check.Assert(s != nil, "Scenario.AddNode: receiver must not be nil")
	if _, exists := s.nodes[addr]; exists {
		return nil, fmt.Errorf("node %s already exists", addr)
	}

	n, err := swimcore.New(addr, s.params, s.Cluster, s.Cluster.Clock(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("construct node %s: %w", addr, err)
	}

	node := &Node{Addr: addr, Node: n}
	s.nodes[addr] = node
	return node, nil
}

// RemoveNode shuts down a node and drops it from scenario accessors. The
// cluster's record of the address is left alone — a shut-down node that
// still receives traffic from peers should simply never answer, the same
// as any other unreachable peer.
func (s *Scenario) RemoveNode(addr swimcore.Address) error {
	check.Assert(s != nil, "Scenario.RemoveNode: receiver must not be nil")
	node, ok := s.nodes[addr]
	if !ok {
		return fmt.Errorf("node %s not found", addr)
	}
	node.Node.Shutdown()
	delete(s.nodes, addr)
	return nil
}

// Addrs returns every live node's address in ascending id order.
func (s *Scenario) Addrs() []swimcore.Address {
	check.Assert(s != nil, "Scenario.Addrs: receiver must not be nil")
	addrs := make([]swimcore.Address, 0, len(s.nodes))
	for a := range s.nodes {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].ID < addrs[j].ID })
	return addrs
}

// Node returns a node by address, or nil if absent.
func (s *Scenario) Node(addr swimcore.Address) *swimcore.Node {
	check.Assert(s != nil, "Scenario.Node: receiver must not be nil")
	n, ok := s.nodes[addr]
	if !ok {
		return nil
	}
	return n.Node
}

// StartAll calls Start(introducer) on every node in id order, so the
// introducer itself starts before any joiner's JOINREQ could be dispatched
// against it. It then drains the cluster without advancing the clock, so
// JOINREQs sent at start-up over a zero-latency link are dispatched by the
// introducer's first Tick.
func (s *Scenario) StartAll(ctx context.Context, introducer swimcore.Address) error {
	check.Assert(s != nil, "Scenario.StartAll: receiver must not be nil")
	for _, addr := range s.Addrs() {
		if err := s.nodes[addr].Node.Start(ctx, introducer); err != nil {
			return fmt.Errorf("start %s: %w", addr, err)
		}
	}
	s.Cluster.Drain()
	return nil
}

// TickAll calls Tick on every live node in id order, then advances the
// cluster clock by one and delivers anything now due.
func (s *Scenario) TickAll(ctx context.Context) error {
	check.Assert(s != nil, "Scenario.TickAll: receiver must not be nil")
	for _, addr := range s.Addrs() {
		if err := s.nodes[addr].Node.Tick(ctx); err != nil {
			return fmt.Errorf("tick %s: %w", addr, err)
		}
	}
	s.Cluster.Tick()
	return nil
}

// RunTicks calls TickAll n times.
func (s *Scenario) RunTicks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := s.TickAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Partition cuts traffic between a and b until Heal.
func (s *Scenario) Partition(a, b swimcore.Address) {
	check.Assert(s != nil, "Scenario.Partition: receiver must not be nil")
	s.Cluster.Partition(a, b)
}

// Heal restores traffic between a and b.
func (s *Scenario) Heal(a, b swimcore.Address) {
	check.Assert(s != nil, "Scenario.Heal: receiver must not be nil")
	s.Cluster.Heal(a, b)
}

// KillNode cuts addr off at the transport level (see sim.Cluster.KillNode)
// without running its Shutdown. The node stays in the scenario and TickAll
// keeps ticking it, so its table keeps aging while it is cut off; a later
// RestartNode reconnects it with whatever table it has by then.
func (s *Scenario) KillNode(addr swimcore.Address) {
	check.Assert(s != nil, "Scenario.KillNode: receiver must not be nil")
	s.Cluster.KillNode(addr)
}

// RestartNode lets addr send and receive again.
func (s *Scenario) RestartNode(addr swimcore.Address) {
	check.Assert(s != nil, "Scenario.RestartNode: receiver must not be nil")
	s.Cluster.RestartNode(addr)
}

// Snapshot returns addr's current membership table, or nil if addr is not
// a live node in this scenario.
func (s *Scenario) Snapshot(addr swimcore.Address) []swimcore.MemberListEntry {
	check.Assert(s != nil, "Scenario.Snapshot: receiver must not be nil")
	n, ok := s.nodes[addr]
	if !ok {
		return nil
	}
	return n.Node.Snapshot()
}
