// Package commands provides the CLI command groups of abacus-deploy.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory:
//
//	cmds := commands.New(lggr)
//	app.AddCommand(cmds.State(commands.StateConfig{}))
//
// 2. Via direct package imports, to inject dependencies in tests:
//
//	import "github.com/abacus-network/abacus-deploy/pkg/commands/state"
//
//	app.AddCommand(state.NewCommand(state.Config{
//	    Logger: lggr,
//	    Deps:   &state.Deps{...},
//	}))
package commands

import (
	"github.com/spf13/cobra"

	"github.com/abacus-network/abacus-deploy/pkg/commands/state"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// StateConfig holds configuration for state commands.
type StateConfig struct {
	// ViewState overrides what the generate command reads. Defaults to the on-chain state of
	// the core contracts.
	ViewState state.ViewStateFunc
}

// State creates the state command group.
//
// Usage:
//
//	cmds := commands.New(lggr)
//	rootCmd.AddCommand(cmds.State(commands.StateConfig{}))
func (c *Commands) State(cfg StateConfig) *cobra.Command {
	return state.NewCommand(state.Config{
		Logger:    c.lggr,
		ViewState: cfg.ViewState,
	})
}
