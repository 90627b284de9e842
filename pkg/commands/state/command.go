package state

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abacus-network/abacus-deploy/deployment"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// Config holds the configuration of the state command.
type Config struct {
	// Logger is handed to the environment loader.
	Logger logger.Logger
	// ViewState reads the state to render. Defaults to reading the core contracts of every
	// chain.
	ViewState ViewStateFunc
	// Deps overrides the production dependencies, mostly for tests.
	Deps *Deps
}

func (c *Config) deps() {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.ViewState == nil {
		c.ViewState = defaultViewState
	}
	if c.Deps == nil {
		c.Deps = &Deps{}
	}
	c.Deps.applyDefaults()
}

// NewCommand creates a new state command with all subcommands.
// The command requires a networks flag (-n) which is used by all subcommands.
//
// Usage:
//
//	rootCmd.AddCommand(state.NewCommand(state.Config{
//	    Logger: lggr,
//	}))
func NewCommand(cfg Config) *cobra.Command {
	// Apply defaults for optional dependencies
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "state",
		Short: "State commands",
	}

	cmd.AddCommand(newGenerateCmd(cfg))

	// The environment flags are persistent because every subcommand loads the environment.
	cmd.PersistentFlags().
		StringSliceP("networks", "n", nil, "Network manifest files, later files override earlier ones (required)")
	cmd.PersistentFlags().
		StringP("secrets", "s", "", "Secrets file, environment variables override it")
	cmd.PersistentFlags().
		StringP("addresses", "a", "", "Core contract addresses file")
	cmd.PersistentFlags().
		StringSliceP("chains", "c", nil, "Restrict the environment to these chains, ignoring addresses of the others")
	_ = cmd.MarkPersistentFlagRequired("networks")

	return cmd
}

// environmentConfig reads the persistent environment flags.
func environmentConfig(cmd *cobra.Command) (deployment.EnvironmentConfig, error) {
	flags := cmd.Flags()

	networks, err := flags.GetStringSlice("networks")
	if err != nil {
		return deployment.EnvironmentConfig{}, err
	}
	secrets, err := flags.GetString("secrets")
	if err != nil {
		return deployment.EnvironmentConfig{}, err
	}
	addresses, err := flags.GetString("addresses")
	if err != nil {
		return deployment.EnvironmentConfig{}, err
	}
	chains, err := flags.GetStringSlice("chains")
	if err != nil {
		return deployment.EnvironmentConfig{}, err
	}

	return deployment.EnvironmentConfig{
		NetworksPaths: networks,
		SecretsPath:   secrets,
		AddressesPath: addresses,
		Chains:        chains,
	}, nil
}

func newGenerateCmd(cfg Config) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Read the core contracts of every chain and print their state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			envCfg, err := environmentConfig(cmd)
			if err != nil {
				return err
			}

			env, err := cfg.Deps.EnvironmentLoader(cmd.Context(), envCfg, cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to load environment: %w", err)
			}

			state, err := cfg.ViewState(cmd.Context(), env)
			if err != nil {
				return fmt.Errorf("failed to view state: %w", err)
			}

			out, err := marshalState(state)
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := cfg.Deps.StateSaver(outputPath, out); err != nil {
					return err
				}
				cfg.Logger.Infow("Saved state", "path", outputPath)

				return nil
			}

			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}

	cmd.Flags().StringVarP(&outputPath, "outputPath", "o", "", "Write the state to this file instead of stdout")

	return cmd
}
