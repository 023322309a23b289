package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"swimcore"
	"swimcore/internal/dashboard"
	"swimcore/transport/udp"

	"github.com/spf13/cobra"
)

// watchCmd joins the cluster as its own ordinary member, purely to have
// a membership table to render — gossip has no read-only observer role,
// so the simplest way to see what the cluster believes is to become a
// member of it and read your own table. It disseminates at the same
// TPing as everyone else, so it does not distort what peers observe
// about real members.
func watchCmd() *cobra.Command {
	var addr string
	var bind string
	var join string
	var peers []string
	var interval time.Duration
	var tPing int32

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join as an observer member and render a live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := parseAddr(addr)
			if err != nil {
				return err
			}
			joinAddr, err := parseAddr(join)
			if err != nil {
				return err
			}
			bindAddr, err := net.ResolveUDPAddr("udp", bind)
			if err != nil {
				return fmt.Errorf("resolve bind address: %w", err)
			}
			book, err := buildBook(peers)
			if err != nil {
				return err
			}

			transport, err := udp.Listen(udp.Address{Logical: self, Bind: bindAddr}, book)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			defer transport.Close()

			observer, err := swimcore.New(self, swimcore.Params{TPing: tPing, TFail: tPing * 3, TRemove: tPing * 12}, transport, wallClock{}, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := observer.Start(ctx, joinAddr); err != nil {
				return err
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := observer.Tick(ctx); err != nil {
						fmt.Printf("tick error: %v\n", err)
						continue
					}
					snap := observer.Snapshot()
					clearScreen()
					fmt.Println(dashboard.Render(self, int32(time.Now().Unix()), snap))
					fmt.Println(dashboard.Summary(self, snap))
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "The watching observer's own logical address, id:port")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1:0", "Local UDP bind address, host:port")
	cmd.Flags().StringVar(&join, "join", "", "Any existing member's logical address, id:port")
	cmd.Flags().StringSliceVar(&peers, "peer", nil, "Known peer endpoint, id:port=host:port, repeatable")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Redraw interval")
	cmd.Flags().Int32Var(&tPing, "tping", 5, "Dissemination period in ticks, matching the cluster being observed")
	_ = cmd.MarkFlagRequired("addr")
	_ = cmd.MarkFlagRequired("join")
	return cmd
}

func clearScreen() {
	fmt.Print(strings.Repeat("\n", 2))
}
