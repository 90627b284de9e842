// Command abacus-deploy inspects deployed Abacus core contracts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/abacus-network/abacus-deploy/pkg/commands"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// An empty level is info.
	lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL: %v\n", err)
		return 1
	}

	lggr, err := (&logger.Config{Level: lvl}).New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = lggr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(lggr).ExecuteContext(ctx); err != nil {
		return 1
	}

	return 0
}

func newRootCmd(lggr logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "abacus-deploy",
		Short:        "Inspect deployed Abacus core contracts",
		SilenceUsage: true,
	}

	cmds := commands.New(lggr)
	root.AddCommand(cmds.State(commands.StateConfig{}))

	return root
}
