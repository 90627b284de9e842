/*
Package chain provides the multi-chain connection registry used by the deployment tooling.

# Overview

A Registry maps a chain name (e.g. "celo", "alfajores") to an evm.Connection. The set of
chains is fixed when the registry is built and every connection is immutable afterwards, so
a Registry can be shared freely between goroutines.

	reg, err := chain.NewRegistry(map[string]evm.ConnectionConfig{
		"alfajores": {Client: client, Signer: deployer, Confirmations: 1},
	})
	if err != nil {
		return err
	}

	conn, err := reg.Get("alfajores")
	if errors.Is(err, chain.ErrUnknownChain) {
		// no implicit default chain
	}

# Providers

Providers build the connection config of one chain, usually by dialing an RPC node. See the
chain/evm/provider package for the RPC and simulated implementations.

	reg, err := chain.NewRegistryFromProviders(ctx, rpcProviderA, rpcProviderB)
*/
package chain
