package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// Overrides are transaction parameters applied to every transactor handed out by a
// connection. Zero values leave the go-ethereum defaults in place.
type Overrides struct {
	GasLimit  uint64
	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.GasLimit == 0 && o.GasPrice == nil && o.GasFeeCap == nil && o.GasTipCap == nil
}

func (o Overrides) apply(opts *bind.TransactOpts) {
	if o.GasLimit != 0 {
		opts.GasLimit = o.GasLimit
	}
	if o.GasPrice != nil {
		opts.GasPrice = new(big.Int).Set(o.GasPrice)
	}
	if o.GasFeeCap != nil {
		opts.GasFeeCap = new(big.Int).Set(o.GasFeeCap)
	}
	if o.GasTipCap != nil {
		opts.GasTipCap = new(big.Int).Set(o.GasTipCap)
	}
}
