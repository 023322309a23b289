package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"swimcore"
	"swimcore/internal/check"
)

const (
	defaultChaosMaxEvents = 4096
	defaultChaosOpWeight  = 1
)

// ChaosOperation mutates topology/state for one chaos step.
type ChaosOperation struct {
	Name   string
	Weight int
	Run    func(ctx context.Context, s *Scenario, rng *rand.Rand) (string, error)
}

// ChaosInvariant verifies a post-step invariant.
type ChaosInvariant struct {
	Name  string
	Check func(ctx context.Context, s *Scenario) error
}

// ChaosEvent records one executed step for replay/debugging.
type ChaosEvent struct {
	Step              int
	Seed              int64
	Timestamp         time.Time
	Operation         string
	Detail            string
	OperationError    string
	InvariantFailures []string
}

// ChaosRunnerConfig configures a ChaosRunner.
type ChaosRunnerConfig struct {
	Seed       int64
	MaxEvents  int
	Operations []ChaosOperation
	Invariants []ChaosInvariant
}

// ChaosRunner executes reproducible chaos steps and checks invariants
// after each one.
type ChaosRunner struct {
	mu         sync.Mutex
	scenario   *Scenario
	rng        *rand.Rand
	seed       int64
	step       int
	maxEvents  int
	operations []ChaosOperation
	invariants []ChaosInvariant
	events     []ChaosEvent
}

func NewChaosRunner(s *Scenario, cfg ChaosRunnerConfig) (*ChaosRunner, error) {
	check.Assert(s != nil, "NewChaosRunner: scenario must not be nil")
	if s == nil {
		return nil, fmt.Errorf("scenario is required")
	}

	seed := cfg.Seed

	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = defaultChaosMaxEvents
	}

	ops := cfg.Operations
	if len(ops) == 0 {
		ops = DefaultChaosOperations()
	}
	for _, op := range ops {
		if strings.TrimSpace(op.Name) == "" {
			return nil, fmt.Errorf("chaos operation name is required")
		}
		if op.Run == nil {
			return nil, fmt.Errorf("chaos operation %q run func is required", op.Name)
		}
	}

	invariants := cfg.Invariants
	if len(invariants) == 0 {
		invariants = DefaultChaosInvariants()
	}
	for _, inv := range invariants {
		if strings.TrimSpace(inv.Name) == "" {
			return nil, fmt.Errorf("chaos invariant name is required")
		}
		if inv.Check == nil {
			return nil, fmt.Errorf("chaos invariant %q check func is required", inv.Name)
		}
	}

	return &ChaosRunner{
		scenario:   s,
		rng:        rand.New(rand.NewSource(seed)),
		seed:       seed,
		maxEvents:  maxEvents,
		operations: append([]ChaosOperation(nil), ops...),
		invariants: append([]ChaosInvariant(nil), invariants...),
		events:     make([]ChaosEvent, 0, minInt(maxEvents, 128)),
	}, nil
}

func (r *ChaosRunner) Seed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}

func (r *ChaosRunner) ReplayLog() []ChaosEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ChaosEvent, len(r.events))
	for i := range r.events {
		out[i] = r.events[i]
		if len(r.events[i].InvariantFailures) > 0 {
			out[i].InvariantFailures = append([]string(nil), r.events[i].InvariantFailures...)
		}
	}
	return out
}

func (r *ChaosRunner) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	op, err := chooseChaosOperation(r.rng, r.operations)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.step++
	step := r.step
	seed := r.seed
	r.mu.Unlock()

	detail, opErr := op.Run(ctx, r.scenario, r.rng)
	invFailures := r.checkInvariants(ctx)

	event := ChaosEvent{
		Step:              step,
		Seed:              seed,
		Operation:         op.Name,
		Detail:            detail,
		InvariantFailures: invFailures,
	}
	if opErr != nil {
		event.OperationError = opErr.Error()
	}
	r.appendEvent(event)

	if opErr != nil {
		return fmt.Errorf("chaos step %d op %q: %w", step, op.Name, opErr)
	}
	if len(invFailures) > 0 {
		return fmt.Errorf("chaos step %d invariant failures: %s", step, strings.Join(invFailures, "; "))
	}
	return nil
}

func (r *ChaosRunner) Run(ctx context.Context, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be > 0")
	}

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChaosRunner) checkInvariants(ctx context.Context) []string {
	r.mu.Lock()
	invariants := append([]ChaosInvariant(nil), r.invariants...)
	r.mu.Unlock()

	failures := make([]string, 0)
	for _, inv := range invariants {
		if err := inv.Check(ctx, r.scenario); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", inv.Name, err))
		}
	}
	sort.Strings(failures)
	return failures
}

func (r *ChaosRunner) appendEvent(event ChaosEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if len(r.events) > r.maxEvents {
		r.events = r.events[len(r.events)-r.maxEvents:]
	}
}

func chooseChaosOperation(rng *rand.Rand, ops []ChaosOperation) (ChaosOperation, error) {
	total := 0
	for _, op := range ops {
		w := op.Weight
		if w <= 0 {
			w = defaultChaosOpWeight
		}
		total += w
	}
	if total <= 0 {
		return ChaosOperation{}, fmt.Errorf("no chaos operations registered")
	}

	pick := rng.Intn(total)
	for _, op := range ops {
		w := op.Weight
		if w <= 0 {
			w = defaultChaosOpWeight
		}
		if pick < w {
			return op, nil
		}
		pick -= w
	}

	return ChaosOperation{}, fmt.Errorf("failed to choose chaos operation")
}

// DefaultChaosOperations exercises the fault surface transport/sim.Cluster
// exposes: partitions, kills/restarts, and ticking.
func DefaultChaosOperations() []ChaosOperation {
	return []ChaosOperation{
		{
			Name:   "partition_pair",
			Weight: 2,
			Run: func(_ context.Context, s *Scenario, rng *rand.Rand) (string, error) {
				addrs := s.Addrs()
				if len(addrs) < 2 {
					return "skip: need at least 2 nodes", nil
				}
				a := rng.Intn(len(addrs))
				b := rng.Intn(len(addrs) - 1)
				if b >= a {
					b++
				}
				s.Partition(addrs[a], addrs[b])
				return fmt.Sprintf("partitioned %s <-> %s", addrs[a], addrs[b]), nil
			},
		},
		{
			Name:   "heal_pair",
			Weight: 2,
			Run: func(_ context.Context, s *Scenario, rng *rand.Rand) (string, error) {
				addrs := s.Addrs()
				if len(addrs) < 2 {
					return "skip: need at least 2 nodes", nil
				}
				a := rng.Intn(len(addrs))
				b := rng.Intn(len(addrs) - 1)
				if b >= a {
					b++
				}
				s.Heal(addrs[a], addrs[b])
				return fmt.Sprintf("healed %s <-> %s", addrs[a], addrs[b]), nil
			},
		},
		{
			Name:   "kill_node",
			Weight: 2,
			Run: func(_ context.Context, s *Scenario, rng *rand.Rand) (string, error) {
				addrs := s.Addrs()
				if len(addrs) == 0 {
					return "skip: no nodes", nil
				}
				addr := addrs[rng.Intn(len(addrs))]
				s.KillNode(addr)
				return fmt.Sprintf("killed %s", addr), nil
			},
		},
		{
			Name:   "restart_node",
			Weight: 2,
			Run: func(_ context.Context, s *Scenario, rng *rand.Rand) (string, error) {
				addrs := s.Addrs()
				if len(addrs) == 0 {
					return "skip: no nodes", nil
				}
				addr := addrs[rng.Intn(len(addrs))]
				s.RestartNode(addr)
				return fmt.Sprintf("restarted %s", addr), nil
			},
		},
		{
			Name:   "tick",
			Weight: 4,
			Run: func(ctx context.Context, s *Scenario, _ *rand.Rand) (string, error) {
				if err := s.TickAll(ctx); err != nil {
					return "", err
				}
				return "tick", nil
			},
		},
	}
}

// DefaultChaosInvariants checks I3 (bounded age) and I5 (uniqueness) on
// every live node's table after each step. I4 (self slot) is not checked
// here: slot 0 is seeded with the node's own address and Merge never
// writes to it.
func DefaultChaosInvariants() []ChaosInvariant {
	return []ChaosInvariant{
		{
			Name: "unique_addresses",
			Check: func(_ context.Context, s *Scenario) error {
				for _, addr := range s.Addrs() {
					seen := map[swimcore.Address]bool{}
					for _, e := range s.Snapshot(addr) {
						if seen[e.Address] {
							return fmt.Errorf("node %s has duplicate entry for %s", addr, e.Address)
						}
						seen[e.Address] = true
					}
				}
				return nil
			},
		},
		{
			Name: "bounded_age",
			Check: func(_ context.Context, s *Scenario) error {
				// TickAll advances the cluster clock after every node has
				// ticked, so the nodes' last sweep ran one tick earlier.
				now := s.Cluster.Clock().Now() - 1
				for _, addr := range s.Addrs() {
					for _, e := range s.Snapshot(addr) {
						if e.Address == addr {
							continue
						}
						if age := e.Age(now); age > s.params.TRemove {
							return fmt.Errorf("node %s has entry for %s with age %d > TRemove %d",
								addr, e.Address, age, s.params.TRemove)
						}
					}
				}
				return nil
			},
		},
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
