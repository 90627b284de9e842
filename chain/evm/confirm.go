package evm

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// waitConfirmed blocks until tx is mined and the head is confirmations blocks past the
// inclusion block. A reverted receipt is reported as ErrTransactionFailed with the decoded
// revert reason when one is available.
func waitConfirmed(
	ctx context.Context,
	client OnchainClient,
	from common.Address,
	tx *types.Transaction,
	confirmations uint64,
	tick time.Duration,
) (*types.Receipt, error) {
	receipt, err := WaitMinedWithInterval(ctx, tick, client, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s not mined: %w", ErrTransactionFailed, tx.Hash().Hex(), err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: receipt was nil for tx %s", ErrTransactionFailed, tx.Hash().Hex())
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason, rerr := revertReason(ctx, client, from, tx, receipt)
		if rerr == nil && reason != "" {
			return nil, fmt.Errorf("%w: tx %s reverted: %s", ErrTransactionFailed, tx.Hash().Hex(), reason)
		}

		return nil, fmt.Errorf("%w: tx %s reverted, could not decode error reason",
			ErrTransactionFailed, tx.Hash().Hex(),
		)
	}

	if confirmations == 0 {
		return receipt, nil
	}

	target := receipt.BlockNumber.Uint64() + confirmations
	if err := waitForHead(ctx, tick, client, target); err != nil {
		return nil, fmt.Errorf("%w: tx %s waiting for block %d: %w",
			ErrTransactionFailed, tx.Hash().Hex(), target, err,
		)
	}

	// The receipt is fetched again at depth so a reorg which moved the transaction is
	// reflected in the returned block.
	final, err := client.TransactionReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s dropped before reaching depth %d: %w",
			ErrTransactionFailed, tx.Hash().Hex(), confirmations, err,
		)
	}

	return final, nil
}

// WaitMinedWithInterval polls for the receipt of txHash every tick until it is available or
// ctx is done. It allows faster receipts than bind.WaitMined on chains with instant blocks.
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

type headReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// waitForHead polls the chain head every tick until it reaches target or ctx is done.
func waitForHead(ctx context.Context, tick time.Duration, client headReader, target uint64) error {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		head, err := client.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-queryTicker.C:
		}
	}
}
