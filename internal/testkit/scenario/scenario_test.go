package scenario_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"swimcore"
	"swimcore/internal/testkit/scenario"
)

func params() swimcore.Params {
	return swimcore.Params{TPing: 10, TFail: 5, TRemove: 20}
}

// S1: a lone introducer bootstraps with itself alone in its table.
func TestScenarioIntroducerBootstrap(t *testing.T) {
	s, err := scenario.New(scenario.Config{NodeCount: 1, Params: params()})
	assert.NilError(t, err)

	ctx := context.Background()
	assert.NilError(t, s.StartAll(ctx, swimcore.Introducer))

	snap := s.Snapshot(swimcore.Introducer)
	assert.Equal(t, len(snap), 1)
	assert.Assert(t, s.Node(swimcore.Introducer).InGroup())
}

// S2: a single joiner completes the join handshake with the introducer.
func TestScenarioSingleJoiner(t *testing.T) {
	s, err := scenario.New(scenario.Config{NodeCount: 2, Params: params()})
	assert.NilError(t, err)

	ctx := context.Background()
	assert.NilError(t, s.StartAll(ctx, swimcore.Introducer))

	joiner := swimcore.Address{ID: 2, Port: 0}
	assert.Assert(t, !s.Node(joiner).InGroup())

	assert.NilError(t, s.TickAll(ctx)) // dispatch JOINREQ at introducer, send JOINREP
	assert.NilError(t, s.TickAll(ctx)) // dispatch JOINREP at joiner

	assert.Assert(t, s.Node(joiner).InGroup())
	assert.Equal(t, len(s.Snapshot(joiner)), 2)
	assert.Equal(t, len(s.Snapshot(swimcore.Introducer)), 2)
}

// S4: an isolated peer is suspected after TFail and removed after
// TRemove ticks of silence.
func TestScenarioFailureDetection(t *testing.T) {
	p := swimcore.Params{TPing: 1, TFail: 5, TRemove: 20}
	s, err := scenario.New(scenario.Config{NodeCount: 2, Params: p})
	assert.NilError(t, err)

	ctx := context.Background()
	assert.NilError(t, s.StartAll(ctx, swimcore.Introducer))
	assert.NilError(t, s.RunTicks(ctx, 2))

	victim := swimcore.Address{ID: 2, Port: 0}
	s.KillNode(victim)

	assert.NilError(t, s.RunTicks(ctx, 6))
	entry := findEntry(t, s.Snapshot(swimcore.Introducer), victim)
	assert.Assert(t, entry.Failed())

	assert.NilError(t, s.RunTicks(ctx, 16))
	assert.Assert(t, !hasEntry(s.Snapshot(swimcore.Introducer), victim))
}

// A partitioned pair stops disseminating to each other and heals once
// the partition is lifted.
func TestScenarioPartitionAndHeal(t *testing.T) {
	p := swimcore.Params{TPing: 1, TFail: 50, TRemove: 200}
	s, err := scenario.New(scenario.Config{NodeCount: 3, Params: p})
	assert.NilError(t, err)

	ctx := context.Background()
	assert.NilError(t, s.StartAll(ctx, swimcore.Introducer))
	assert.NilError(t, s.RunTicks(ctx, 3))

	a := swimcore.Address{ID: 1, Port: 0}
	c := swimcore.Address{ID: 3, Port: 0}
	s.Partition(a, c)
	assert.NilError(t, s.RunTicks(ctx, 5))

	s.Heal(a, c)
	assert.NilError(t, s.RunTicks(ctx, 5))

	assert.Assert(t, hasEntry(s.Snapshot(a), c))
	assert.Assert(t, hasEntry(s.Snapshot(c), a))
}

func findEntry(t *testing.T, entries []swimcore.MemberListEntry, addr swimcore.Address) swimcore.MemberListEntry {
	t.Helper()
	for _, e := range entries {
		if e.Address == addr {
			return e
		}
	}
	t.Fatalf("no entry for %s", addr)
	return swimcore.MemberListEntry{}
}

func hasEntry(entries []swimcore.MemberListEntry, addr swimcore.Address) bool {
	for _, e := range entries {
		if e.Address == addr {
			return true
		}
	}
	return false
}
