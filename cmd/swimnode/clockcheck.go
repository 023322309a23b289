package main

import (
	"fmt"
	"time"

	"swimcore/internal/clockcheck"

	"github.com/spf13/cobra"
)

func clockCheckCmd() *cobra.Command {
	var pool string
	var threshold time.Duration

	cmd := &cobra.Command{
		Use:   "clock-check",
		Short: "Query an NTP server and report wall-clock skew",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := clockcheck.Check(pool, threshold)
			if err != nil {
				return err
			}
			status := "healthy"
			if !result.Healthy {
				status = "unhealthy"
			}
			fmt.Printf("%s: offset %s (%s, threshold %s)\n", result.Pool, result.Offset, status, threshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&pool, "pool", "pool.ntp.org", "NTP server to query")
	cmd.Flags().DurationVar(&threshold, "threshold", 500*time.Millisecond, "Offset above which the clock is reported unhealthy")
	return cmd
}
