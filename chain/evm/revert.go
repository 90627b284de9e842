package evm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// revertReason replays a reverted transaction as a call at its inclusion block and extracts
// the revert reason from the returned error.
func revertReason(
	ctx context.Context,
	caller ethereum.ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	_, err := caller.CallContract(ctx, call, receipt.BlockNumber)
	if err == nil {
		return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
	}

	if reason, ok := errorData(err); ok {
		return reason, nil
	}

	return err.Error(), nil
}

// dataError matches the JSON-RPC error type of go-ethereum, which is private.
//
// https://github.com/ethereum/go-ethereum/blob/0983cd789ee1905aedaed96f72793e5af8466f34/rpc/json.go#L140
type dataError interface {
	Error() string
	ErrorCode() int
	ErrorData() any
}

// errorData extracts a readable reason from the data of a JSON-RPC error. Error(string)
// payloads are ABI decoded.
func errorData(err error) (string, bool) {
	var derr dataError
	if !errors.As(err, &derr) {
		return "", false
	}

	data, ok := derr.ErrorData().(string)
	if !ok || data == "" {
		if strings.Contains(derr.Error(), "missing trie node") {
			return "missing trie node, likely due to not using an archive node", true
		}

		return derr.Error(), true
	}

	raw, herr := hexutil.Decode(data)
	if herr != nil {
		return data, true
	}
	if reason, uerr := abi.UnpackRevert(raw); uerr == nil {
		return reason, true
	}

	return data, true
}
