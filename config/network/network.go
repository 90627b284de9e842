package network

import (
	"errors"
	"fmt"
	"math/big"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/abacus-network/abacus-deploy/chain/evm"
	"github.com/abacus-network/abacus-deploy/chain/evm/provider"
)

// NetworkType represents the type of network, which can either be mainnet or testnet.
type NetworkType string

const (
	NetworkTypeMainnet NetworkType = "mainnet"
	NetworkTypeTestnet NetworkType = "testnet"
)

// Network represents a network configuration.
type Network struct {
	Name          string        `yaml:"name"`
	Type          NetworkType   `yaml:"type,omitempty"`
	ChainSelector uint64        `yaml:"chain_selector"`
	Confirmations uint64        `yaml:"confirmations,omitempty"`
	BlockExplorer BlockExplorer `yaml:"block_explorer"`
	RPCs          []RPC         `yaml:"rpcs"`
	Overrides     Overrides     `yaml:"overrides,omitempty"`
}

// ChainFamily returns the family of the network based on its chain selector.
func (n *Network) ChainFamily() (string, error) {
	return chain_selectors.GetSelectorFamily(n.ChainSelector)
}

// ChainID returns the chain ID as a string based on the chain selector.
func (n *Network) ChainID() (string, error) {
	return chain_selectors.GetChainIDFromSelector(n.ChainSelector)
}

// Validate validates the network configuration to ensure that all required fields are set.
func (n *Network) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}

	if n.ChainSelector == 0 {
		return errors.New("chain selector is required")
	}

	family, err := n.ChainFamily()
	if err != nil {
		return fmt.Errorf("unknown chain selector %d: %w", n.ChainSelector, err)
	}
	if family != chain_selectors.FamilyEVM {
		return fmt.Errorf("chain selector %d belongs to the %s family, only %s is supported",
			n.ChainSelector, family, chain_selectors.FamilyEVM,
		)
	}

	if len(n.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}

	if _, err := n.Overrides.EVM(); err != nil {
		return fmt.Errorf("invalid overrides: %w", err)
	}

	return nil
}

// ProviderRPCs converts the configured RPCs into the provider's representation.
func (n *Network) ProviderRPCs() []provider.RPC {
	rpcs := make([]provider.RPC, 0, len(n.RPCs))
	for _, rpc := range n.RPCs {
		rpcs = append(rpcs, provider.RPC{
			Name:               rpc.RPCName,
			WSURL:              rpc.WSURL,
			HTTPURL:            rpc.HTTPURL,
			PreferredURLScheme: provider.URLSchemePreference(rpc.PreferredURLScheme),
		})
	}

	return rpcs
}

// RPC represents an RPC configuration in the flattened structure
type RPC struct {
	RPCName            string `yaml:"rpc_name"`
	PreferredURLScheme string `yaml:"preferred_url_scheme"`
	HTTPURL            string `yaml:"http_url"`
	WSURL              string `yaml:"ws_url"`
}

// PreferredEndpoint returns the correct endpoint based on the preferred URL scheme. By default, it
// returns the HTTP URL.
func (rpc *RPC) PreferredEndpoint() string {
	if rpc.PreferredURLScheme == "ws" {
		return rpc.WSURL
	}

	return rpc.HTTPURL
}

// BlockExplorer represents a block explorer configuration in the flattened structure
type BlockExplorer struct {
	Type   string `yaml:"type"`
	APIKey string `yaml:"api_key"`
	URL    string `yaml:"url"`
}

// Overrides are the per network transaction overrides. Wei amounts are decimal strings so that
// values above 2^64 survive YAML decoding.
type Overrides struct {
	GasLimit  uint64 `yaml:"gas_limit,omitempty"`
	GasPrice  string `yaml:"gas_price,omitempty"`
	GasFeeCap string `yaml:"gas_fee_cap,omitempty"`
	GasTipCap string `yaml:"gas_tip_cap,omitempty"`
}

// EVM parses the overrides into their transaction form.
func (o Overrides) EVM() (evm.Overrides, error) {
	out := evm.Overrides{GasLimit: o.GasLimit}

	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"gas_price", o.GasPrice, &out.GasPrice},
		{"gas_fee_cap", o.GasFeeCap, &out.GasFeeCap},
		{"gas_tip_cap", o.GasTipCap, &out.GasTipCap},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}

		v, ok := new(big.Int).SetString(f.raw, 10)
		if !ok || v.Sign() < 0 {
			return evm.Overrides{}, fmt.Errorf("%s: %q is not a non-negative integer", f.name, f.raw)
		}
		*f.dst = v
	}

	return out, nil
}
