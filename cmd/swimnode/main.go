// Command swimnode drives the membership protocol core from the command
// line: an in-memory multi-node simulation, a real UDP-backed node
// process, a live dashboard, and an operator clock-skew check.
package main

import (
	"context"
	"fmt"
	"os"

	"swimcore/internal/logging"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	var debug bool
	root := &cobra.Command{
		Use:           "swimnode",
		Short:         "Run and observe a SWIM-family membership cluster",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(simulateCmd())
	root.AddCommand(runCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(clockCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
