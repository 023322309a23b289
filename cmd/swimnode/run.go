package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"swimcore"
	"swimcore/audit"
	"swimcore/internal/dashboard"
	"swimcore/transport/udp"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var addr string
	var bind string
	var join string
	var peers []string
	var tick time.Duration
	var auditDB string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one real node process over UDP",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := parseAddr(addr)
			if err != nil {
				return err
			}
			joinAddr := swimcore.Introducer
			if join != "" {
				joinAddr, err = parseAddr(join)
				if err != nil {
					return err
				}
			}
			bindAddr, err := net.ResolveUDPAddr("udp", bind)
			if err != nil {
				return fmt.Errorf("resolve bind address: %w", err)
			}
			book, err := buildBook(peers)
			if err != nil {
				return err
			}

			logger, closeLogger, err := buildLogger(auditDB)
			if err != nil {
				return err
			}

			transport, err := udp.Listen(udp.Address{Logical: self, Bind: bindAddr}, book)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}

			runID := uuid.New()
			fmt.Printf("run %s: node %s bound to %s\n", runID, self, bindAddr)

			node, err := swimcore.New(self, swimcore.Params{TPing: 5, TFail: 15, TRemove: 60}, transport, wallClock{}, logger)
			if err != nil {
				return multierror.Append(nil, err, closeLogger(), transport.Close()).ErrorOrNil()
			}

			ctx := cmd.Context()
			if err := node.Start(ctx, joinAddr); err != nil {
				return multierror.Append(nil, err, closeLogger(), transport.Close()).ErrorOrNil()
			}

			ticker := time.NewTicker(tick)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					node.Shutdown()
					return multierror.Append(nil, transport.Close(), closeLogger()).ErrorOrNil()
				case <-ticker.C:
					if err := node.Tick(ctx); err != nil {
						fmt.Printf("tick error: %v\n", err)
						continue
					}
					fmt.Println(dashboard.Summary(self, node.Snapshot()))
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "This node's logical address, id:port")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1:0", "Local UDP bind address, host:port")
	cmd.Flags().StringVar(&join, "join", "", "Introducer's logical address, id:port (defaults to 1:0)")
	cmd.Flags().StringSliceVar(&peers, "peer", nil, "Known peer endpoint, id:port=host:port, repeatable")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Wall-clock duration of one protocol tick")
	cmd.Flags().StringVar(&auditDB, "audit-db", "", "Optional SQLite path for durable event history")
	_ = cmd.MarkFlagRequired("addr")
	return cmd
}

func buildBook(peers []string) (udp.StaticBook, error) {
	book := udp.StaticBook{}
	for _, p := range peers {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --peer %q, want id:port=host:port", p)
		}
		logical, err := parseAddr(parts[0])
		if err != nil {
			return nil, err
		}
		bind, err := net.ResolveUDPAddr("udp", parts[1])
		if err != nil {
			return nil, fmt.Errorf("resolve peer endpoint %q: %w", parts[1], err)
		}
		book[logical] = bind
	}
	return book, nil
}

func buildLogger(auditDB string) (swimcore.Logger, func() error, error) {
	if auditDB == "" {
		return audit.NewText(nil), func() error { return nil }, nil
	}
	store, err := audit.OpenSQLite(auditDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit db: %w", err)
	}
	return store, store.Close, nil
}

// wallClock stamps a real node's table entries with the process's actual
// Unix time; the protocol tick counter still advances exactly once per
// Tick call regardless of how much wall-clock time actually passed.
type wallClock struct{}

func (wallClock) Now() int32 {
	return int32(time.Now().Unix())
}
