package deployment

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/abacus-network/abacus-deploy/contracts"
)

// BeaconProxy bundles the three contracts of one upgradeable instance: the implementation,
// the proxy delegating to it and the beacon storing the implementation address. The triple is
// fixed at construction; an upgrade changes what the beacon points at, not this value.
type BeaconProxy[T contracts.Handle] struct {
	implementation T
	proxy          T
	beacon         *contracts.UpgradeBeacon
}

// NewBeaconProxy groups the three handles of a beacon proxied contract.
func NewBeaconProxy[T contracts.Handle](implementation, proxy T, beacon *contracts.UpgradeBeacon) BeaconProxy[T] {
	return BeaconProxy[T]{
		implementation: implementation,
		proxy:          proxy,
		beacon:         beacon,
	}
}

// bindFunc binds a typed contract at an address.
type bindFunc[T contracts.Handle] func(common.Address, bind.ContractBackend) T

func bindBeaconProxy[T contracts.Handle](
	addrs [3]common.Address, backend bind.ContractBackend, bindT bindFunc[T],
) BeaconProxy[T] {
	return NewBeaconProxy(
		bindT(addrs[0], backend),
		bindT(addrs[1], backend),
		contracts.NewUpgradeBeacon(addrs[2], backend),
	)
}

// Implementation returns the handle bound to the implementation.
func (b BeaconProxy[T]) Implementation() T {
	return b.implementation
}

// Proxy returns the handle bound to the proxy.
func (b BeaconProxy[T]) Proxy() T {
	return b.proxy
}

// Beacon returns the upgrade beacon.
func (b BeaconProxy[T]) Beacon() *contracts.UpgradeBeacon {
	return b.beacon
}

// Contract returns the handle calls should be routed through, which is the proxy.
func (b BeaconProxy[T]) Contract() T {
	return b.proxy
}

// ToAddresses returns the address record of the triple.
func (b BeaconProxy[T]) ToAddresses() ProxiedAddress {
	return ProxiedAddress{
		Implementation: b.implementation.Address().Hex(),
		Proxy:          b.proxy.Address().Hex(),
		Beacon:         b.beacon.Address().Hex(),
	}
}
