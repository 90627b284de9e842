package provider

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient/simulated"

	"github.com/abacus-network/abacus-deploy/chain/evm"
)

var _ evm.OnchainClient = (*SimClient)(nil)

// SimClient wraps a simulated backend. It implements evm.OnchainClient and exposes block
// production to callers.
type SimClient struct {
	mu sync.Mutex

	simulated.Client
	sim *simulated.Backend
}

// NewSimClient creates a SimClient from a simulated backend.
func NewSimClient(sim *simulated.Backend) *SimClient {
	return &SimClient{
		sim:    sim,
		Client: sim.Client(),
	}
}

// Commit seals a new block with the pending transactions and returns its hash.
func (b *SimClient) Commit() common.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sim.Commit()
}
