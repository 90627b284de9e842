package deployment

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/abacus-network/abacus-deploy/chain"
	"github.com/abacus-network/abacus-deploy/chain/evm"
	"github.com/abacus-network/abacus-deploy/chain/evm/provider"
	"github.com/abacus-network/abacus-deploy/config/env"
	"github.com/abacus-network/abacus-deploy/config/network"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// ErrUnknownChain is returned when a chain name is not part of the environment.
var ErrUnknownChain = chain.ErrUnknownChain

// DefaultContractsVersion is the version recorded in the address book when none is configured.
var DefaultContractsVersion = semver.MustParse("1.0.0")

// EnvironmentConfig describes where an environment is loaded from.
type EnvironmentConfig struct {
	// Required: NetworksPaths are the network manifest files. Later files override earlier ones.
	NetworksPaths []string
	// Optional: SecretsPath is the secrets file. Environment variables override it, and are used
	// alone when it is empty or missing.
	SecretsPath string
	// Optional: AddressesPath is the JSON file of core contract addresses keyed by chain name.
	AddressesPath string
	// Optional: Chains restricts the environment to the named networks. All networks of the
	// manifest are used when empty. Addresses of the other chains are ignored.
	Chains []string
	// Optional: ContractsVersion is recorded in the address book. Defaults to
	// DefaultContractsVersion.
	ContractsVersion *semver.Version
	// Optional: Observer receives transaction events of every connection. Defaults to logging.
	Observer evm.Observer
	// Optional: DialConfig overrides the RPC dial retry defaults.
	DialConfig *provider.DialConfig
}

// Environment is a loaded deployment: the chain connections and the core contracts of every
// chain which has addresses.
type Environment struct {
	Logger            logger.Logger
	Chains            chain.Registry
	ExistingAddresses AddressBook

	core map[string]*CoreContracts
}

// NewEnvironment binds the core contracts of every chain in addresses to its connection and
// records them in a fresh address book. Every chain of addresses must be in the registry.
func NewEnvironment(
	lggr logger.Logger, chains chain.Registry, addresses map[string]CoreContractAddresses, version semver.Version,
) (*Environment, error) {
	e := &Environment{
		Logger:            lggr,
		Chains:            chains,
		ExistingAddresses: NewMemoryAddressBook(),
		core:              make(map[string]*CoreContracts, len(addresses)),
	}

	for _, name := range slices.Sorted(maps.Keys(addresses)) {
		conn, err := chains.Get(name)
		if err != nil {
			return nil, fmt.Errorf("addresses for chain %s: %w", name, err)
		}

		core, err := CoreContractsFromAddresses(addresses[name], conn.Client())
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", name, err)
		}
		e.core[name] = core

		if selector := conn.Selector(); selector != 0 {
			if err := core.SaveToAddressBook(e.ExistingAddresses, selector, version); err != nil {
				return nil, fmt.Errorf("chain %s: failed to record addresses: %w", name, err)
			}
		}
	}

	return e, nil
}

// LoadEnvironment loads the network manifest, the secrets and the address file, connects to
// every chain and binds its core contracts. Any failure aborts the load.
func LoadEnvironment(ctx context.Context, cfg EnvironmentConfig, lggr logger.Logger) (*Environment, error) {
	if len(cfg.NetworksPaths) == 0 {
		return nil, fmt.Errorf("networks paths: %w", ErrMissingConfiguration)
	}

	networks, err := network.Load(cfg.NetworksPaths, network.WithEnvExpansion())
	if err != nil {
		return nil, err
	}
	if len(cfg.Chains) > 0 {
		for _, name := range cfg.Chains {
			if _, err := networks.NetworkByName(name); err != nil {
				return nil, fmt.Errorf("chain %s: %w", name, ErrUnknownChain)
			}
		}
		networks = networks.FilterWith(network.NamesFilter(cfg.Chains...))
	}

	secrets, err := loadSecrets(cfg.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if !secrets.HasDeployerKey() {
		lggr.Warn("No deployer key configured, every connection is read-only")
	}

	providers := make([]chain.Provider, 0, len(networks.Names()))
	for _, n := range networks.Networks() {
		p, perr := newRPCProvider(n, secrets, cfg, lggr)
		if perr != nil {
			return nil, fmt.Errorf("network %s: %w", n.Name, perr)
		}
		providers = append(providers, p)
	}

	chains, err := chain.NewRegistryFromProviders(ctx, providers...)
	if err != nil {
		return nil, err
	}

	addresses := map[string]CoreContractAddresses{}
	if cfg.AddressesPath != "" {
		if addresses, err = ReadAddressesFile(cfg.AddressesPath); err != nil {
			return nil, err
		}
	}
	if len(cfg.Chains) > 0 {
		maps.DeleteFunc(addresses, func(name string, _ CoreContractAddresses) bool {
			if slices.Contains(cfg.Chains, name) {
				return false
			}
			lggr.Debugw("Skipping addresses of filtered out chain", "chain", name)

			return true
		})
	}

	version := DefaultContractsVersion
	if cfg.ContractsVersion != nil {
		version = cfg.ContractsVersion
	}

	e, err := NewEnvironment(lggr, chains, addresses, *version)
	if err != nil {
		return nil, err
	}

	for name, conn := range chains.All() {
		lggr.Infow("Loaded chain",
			"chain", name,
			"chainName", chainDisplayName(conn.Selector()),
			"readOnly", conn.ActiveHandle().ReadOnly(),
			"core", e.HasCore(name),
		)
	}

	return e, nil
}

func loadSecrets(path string) (*env.Config, error) {
	if path == "" {
		return env.LoadEnv()
	}

	return env.Load(path)
}

func newRPCProvider(
	n network.Network, secrets *env.Config, cfg EnvironmentConfig, lggr logger.Logger,
) (*provider.RPCConnectionProvider, error) {
	overrides, err := n.Overrides.EVM()
	if err != nil {
		return nil, err
	}

	pcfg := provider.RPCConnectionProviderConfig{
		RPCs:             n.ProviderRPCs(),
		ChainSelector:    n.ChainSelector,
		Overrides:        overrides,
		Confirmations:    n.Confirmations,
		BlockExplorerURL: n.BlockExplorer.URL,
		Observer:         cfg.Observer,
		DialConfig:       cfg.DialConfig,
		Logger:           lggr,
	}
	if secrets.HasDeployerKey() {
		pcfg.DeployerTransactorGen = provider.TransactorFromRaw(secrets.Onchain.EVM.DeployerKey)
	}

	return provider.NewRPCConnectionProvider(n.Name, pcfg), nil
}

// chainDisplayName returns the canonical name of a selector, or an empty string when unknown.
func chainDisplayName(selector uint64) string {
	if selector == 0 {
		return ""
	}
	info, err := ChainInfo(selector)
	if err != nil {
		return ""
	}

	return info.ChainName
}

// Core returns the core contracts of the named chain. It fails with ErrUnknownChain when the
// chain has no core contracts in this environment.
func (e *Environment) Core(name string) (*CoreContracts, error) {
	core, ok := e.core[name]
	if !ok {
		return nil, fmt.Errorf("core contracts for chain %s: %w", name, ErrUnknownChain)
	}

	return core, nil
}

// HasCore reports whether core contracts are bound for the named chain.
func (e *Environment) HasCore(name string) bool {
	_, ok := e.core[name]
	return ok
}

// CoreChains returns the sorted names of the chains with core contracts.
func (e *Environment) CoreChains() []string {
	return slices.Sorted(maps.Keys(e.core))
}

// Addresses returns the address record of every chain with core contracts.
func (e *Environment) Addresses() map[string]CoreContractAddresses {
	out := make(map[string]CoreContractAddresses, len(e.core))
	for name, core := range e.core {
		out[name] = core.ToAddresses()
	}

	return out
}
