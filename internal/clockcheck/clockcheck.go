// Package clockcheck queries an NTP server to report how far a machine's
// wall clock has drifted. It has nothing to do with swimcore's simulated
// Clock interface — ticks never depend on wall time — this is strictly an
// operator diagnostic for a fleet of real UDP nodes running on different
// hosts, where audit-log timestamps are only meaningful if the hosts
// roughly agree on the time.
package clockcheck

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

const defaultPool = "pool.ntp.org"

// Result is one NTP query's outcome.
type Result struct {
	Pool      string
	Offset    time.Duration
	Healthy   bool
	CheckedAt time.Time
}

// Check queries pool (defaultPool if empty) and reports whether the
// measured offset is within threshold.
func Check(pool string, threshold time.Duration) (Result, error) {
	if pool == "" {
		pool = defaultPool
	}
	resp, err := ntp.Query(pool)
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", pool, err)
	}
	return Result{
		Pool:      pool,
		Offset:    resp.ClockOffset,
		Healthy:   resp.ClockOffset.Abs() < threshold,
		CheckedAt: time.Now(),
	}, nil
}
