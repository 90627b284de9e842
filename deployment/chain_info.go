package deployment

import (
	"fmt"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// ChainInfo resolves the canonical details of a chain selector, whatever its family.
func ChainInfo(selector uint64) (chainsel.ChainDetails, error) {
	family, err := chainsel.GetSelectorFamily(selector)
	if err != nil {
		return chainsel.ChainDetails{}, fmt.Errorf("chain selector %d: %w", selector, err)
	}
	id, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return chainsel.ChainDetails{}, fmt.Errorf("chain selector %d: %w", selector, err)
	}

	return chainsel.GetChainDetailsByChainIDAndFamily(id, family)
}
