// Package sim provides an in-memory Transport and Clock for driving many
// swimcore.Node values in a single process without a real network: a
// Cluster queues sent datagrams until a caller-controlled clock reaches
// their delivery tick, and can inject latency, loss, partitions, and node
// kills along the way.
package sim

import (
	"context"
	"math/rand"
	"sync"

	"swimcore"
)

// Clock is a manually-advanced tick source shared by every node attached
// to a Cluster.
type Clock struct {
	mu  sync.Mutex
	now int32
}

func (c *Clock) Now() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ticks and returns the new value.
func (c *Clock) Advance(ticks int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ticks
	return c.now
}

// LinkConfig describes the fault behavior of the directed link from one
// address to another. The zero value is a perfect link: zero latency, no
// drops, no error.
type LinkConfig struct {
	// Latency is the number of ticks a datagram sits in flight before it
	// becomes visible to RecvInto at the destination.
	Latency int32
	// Drop is the probability, in [0,1], that a send on this link is
	// silently discarded instead of queued.
	Drop float64
	// Err, if non-nil, is returned to the sender instead of queuing the
	// datagram — a transport-layer failure rather than a protocol drop.
	Err error
}

type linkKey struct {
	from, to swimcore.Address
}

type pendingMsg struct {
	deliverAt int32
	to        swimcore.Address
	payload   []byte
}

// Cluster is a swimcore.Transport shared by every node in a simulated
// test: a single value's Send/RecvInto methods are addressed per-call, so
// one Cluster serves an entire group of nodes.
type Cluster struct {
	mu sync.Mutex

	clock *Clock
	rng   *rand.Rand

	inbox   map[swimcore.Address][][]byte
	pending []pendingMsg

	links       map[linkKey]LinkConfig
	defaultLink LinkConfig
	partitions  map[linkKey]bool
	killed      map[swimcore.Address]bool
}

// New creates an empty Cluster with a fresh Clock starting at tick 0. seed
// controls the randomness used for probabilistic drops, so a run is
// reproducible.
func New(seed int64) *Cluster {
	return &Cluster{
		clock:      &Clock{},
		rng:        rand.New(rand.NewSource(seed)),
		inbox:      map[swimcore.Address][][]byte{},
		links:      map[linkKey]LinkConfig{},
		partitions: map[linkKey]bool{},
		killed:     map[swimcore.Address]bool{},
	}
}

// Clock returns the Cluster's shared tick source.
func (c *Cluster) Clock() *Clock { return c.clock }

// Send implements swimcore.Transport. A killed sender or receiver, a
// partitioned pair, or an unlucky drop roll all silently discard the
// datagram, matching a best-effort network.
func (c *Cluster) Send(_ context.Context, from, to swimcore.Address, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.killed[from] || c.killed[to] {
		return nil
	}
	if c.isPartitioned(from, to) {
		return nil
	}

	cfg, ok := c.links[linkKey{from, to}]
	if !ok {
		cfg = c.defaultLink
	}
	if cfg.Err != nil {
		return cfg.Err
	}
	if cfg.Drop > 0 && c.rng.Float64() < cfg.Drop {
		return nil
	}

	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.pending = append(c.pending, pendingMsg{
		deliverAt: c.clock.Now() + cfg.Latency,
		to:        to,
		payload:   cp,
	})
	return nil
}

// RecvInto implements swimcore.Transport: it drains whatever has already
// been delivered to addr's inbox as of the last Tick/Drain.
func (c *Cluster) RecvInto(addr swimcore.Address, queue [][]byte) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue = append(queue, c.inbox[addr]...)
	c.inbox[addr] = nil
	return queue, nil
}

// Tick advances the clock by one and delivers any datagram whose flight
// time has elapsed.
func (c *Cluster) Tick() {
	c.mu.Lock()
	now := c.clock.Advance(1)
	c.deliverUpToLocked(now)
	c.mu.Unlock()
}

// Drain delivers any in-flight datagram due at or before the clock's
// current tick, without advancing time. Useful for delivering datagrams
// sent outside a Tick (e.g. JOINREQs sent at start-up) right away.
func (c *Cluster) Drain() {
	c.mu.Lock()
	c.deliverUpToLocked(c.clock.Now())
	c.mu.Unlock()
}

func (c *Cluster) deliverUpToLocked(now int32) {
	remaining := c.pending[:0]
	for _, m := range c.pending {
		if m.deliverAt <= now {
			c.inbox[m.to] = append(c.inbox[m.to], m.payload)
		} else {
			remaining = append(remaining, m)
		}
	}
	c.pending = remaining
}

// SetDefaultLink sets the fault behavior applied to any pair with no
// specific SetLink override.
func (c *Cluster) SetDefaultLink(cfg LinkConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultLink = cfg
}

// SetLink configures the directed link from -> to. Call twice with from
// and to swapped to affect both directions of a pair.
func (c *Cluster) SetLink(from, to swimcore.Address, cfg LinkConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[linkKey{from, to}] = cfg
}

// Partition cuts every link between a and b in both directions until
// Heal is called for the same pair.
func (c *Cluster) Partition(a, b swimcore.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitions[linkKey{a, b}] = true
	c.partitions[linkKey{b, a}] = true
}

// Heal restores both directions of a pair cut by Partition.
func (c *Cluster) Heal(a, b swimcore.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.partitions, linkKey{a, b})
	delete(c.partitions, linkKey{b, a})
}

func (c *Cluster) isPartitioned(a, b swimcore.Address) bool {
	return c.partitions[linkKey{a, b}]
}

// KillNode makes every Send from or to a silently discarded until
// RestartNode. Only sends made while a is killed are affected: datagrams
// already in flight to or from a are still delivered when due, and
// RecvInto still returns whatever is in a's inbox.
func (c *Cluster) KillNode(a swimcore.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killed[a] = true
}

// RestartNode lets a send and receive again.
func (c *Cluster) RestartNode(a swimcore.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.killed, a)
}

// IsKilled reports whether a is currently in the killed state.
func (c *Cluster) IsKilled(a swimcore.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.killed[a]
}
