package main

import (
	"fmt"
	"strings"

	"swimcore"
	"swimcore/audit"
	"swimcore/config"
	"swimcore/internal/dashboard"
	"swimcore/internal/testkit/scenario"
	"swimcore/transport/sim"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	var specPath string
	var steps int
	var watch bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an in-memory multi-node simulation from a cluster spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.Load(specPath)
			if err != nil {
				return err
			}

			runID := uuid.New()
			fmt.Printf("run %s: %d nodes, seed %d, %d steps\n", runID, spec.Nodes, spec.Seed, steps)

			s, err := scenario.New(scenario.Config{
				NodeCount: spec.Nodes,
				Params:    spec.Params(),
				Seed:      spec.Seed,
				Logger:    audit.NewText(nil),
			})
			if err != nil {
				return fmt.Errorf("build scenario: %w", err)
			}
			applyLinkFaults(s.Cluster, spec)

			ctx := cmd.Context()
			if err := s.StartAll(ctx, swimcore.Introducer); err != nil {
				return fmt.Errorf("start nodes: %w", err)
			}

			for i := 0; i < steps; i++ {
				if err := s.TickAll(ctx); err != nil {
					return fmt.Errorf("tick %d: %w", i, err)
				}
				if watch {
					printDashboard(s, swimcore.Introducer)
				}
			}
			if !watch {
				printDashboard(s, swimcore.Introducer)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "Path to a cluster spec YAML file")
	cmd.Flags().IntVar(&steps, "steps", 50, "Number of simulated ticks to run")
	cmd.Flags().BoolVar(&watch, "watch", false, "Print the dashboard after every tick")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func printDashboard(s *scenario.Scenario, addr swimcore.Address) {
	n := s.Node(addr)
	if n == nil {
		return
	}
	snap := s.Snapshot(addr)
	fmt.Println(dashboard.Render(addr, s.Cluster.Clock().Now(), snap))
	fmt.Println(dashboard.Summary(addr, snap))
}

// applyLinkFaults projects a ClusterSpec's fault description onto the
// simulated cluster's link table. Link keys are "fromID-toID" pairs
// (e.g. "1-2"), and each override is applied to both directions of the
// pair; malformed keys are skipped rather than failing the run,
// since a typo in one override shouldn't abort the whole simulation.
func applyLinkFaults(cluster *sim.Cluster, spec config.ClusterSpec) {
	cluster.SetDefaultLink(sim.LinkConfig{
		Latency: spec.DefaultLink.Latency,
		Drop:    spec.DefaultLink.Drop,
	})
	for key, fault := range spec.Links {
		a, b, ok := parseLinkKey(key)
		if !ok {
			continue
		}
		cfg := sim.LinkConfig{Latency: fault.Latency, Drop: fault.Drop}
		cluster.SetLink(a, b, cfg)
		cluster.SetLink(b, a, cfg)
	}
}

func parseLinkKey(key string) (a, b swimcore.Address, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return swimcore.Address{}, swimcore.Address{}, false
	}
	aID, errA := parseNodeID(parts[0])
	bID, errB := parseNodeID(parts[1])
	if errA != nil || errB != nil {
		return swimcore.Address{}, swimcore.Address{}, false
	}
	return swimcore.Address{ID: aID, Port: 0}, swimcore.Address{ID: bID, Port: 0}, true
}
