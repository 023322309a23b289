package dashboard_test

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"swimcore"
	"swimcore/internal/dashboard"
)

func TestRenderIncludesEveryAddress(t *testing.T) {
	self := swimcore.Address{ID: 1, Port: 0}
	entries := []swimcore.MemberListEntry{
		{Address: self, Heartbeat: 3, Timestamp: 10},
		{Address: swimcore.Address{ID: 2, Port: 0}, Heartbeat: 5, Timestamp: 8},
		{Address: swimcore.Address{ID: 3, Port: 0}, Heartbeat: swimcore.FailedHeartbeat, Timestamp: 1},
	}

	out := dashboard.Render(self, 12, entries)
	assert.Assert(t, strings.Contains(out, "1:0"))
	assert.Assert(t, strings.Contains(out, "2:0"))
	assert.Assert(t, strings.Contains(out, "3:0"))
}

func TestSummaryCountsAliveAndSuspected(t *testing.T) {
	self := swimcore.Address{ID: 1, Port: 0}
	entries := []swimcore.MemberListEntry{
		{Address: self, Heartbeat: 3},
		{Address: swimcore.Address{ID: 2, Port: 0}, Heartbeat: 5},
		{Address: swimcore.Address{ID: 3, Port: 0}, Heartbeat: swimcore.FailedHeartbeat},
		{Address: swimcore.Address{ID: 4, Port: 0}, Heartbeat: swimcore.FailedHeartbeat},
	}

	out := dashboard.Summary(self, entries)
	assert.Assert(t, strings.Contains(out, "1 alive"))
	assert.Assert(t, strings.Contains(out, "2 suspected"))
}
