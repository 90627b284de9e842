package evm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// EventKind identifies the stage of a transaction tracked by a connection.
type EventKind string

const (
	// EventPending is emitted once a transaction has been handed to the connection and before
	// waiting for inclusion.
	EventPending EventKind = "pending"
	// EventConfirmed is emitted once the transaction reached the configured depth.
	EventConfirmed EventKind = "confirmed"
)

// Event describes the progress of a transaction submitted through a connection.
type Event struct {
	Kind          EventKind
	Chain         string
	TxHash        common.Hash
	URL           string
	Confirmations uint64
	// BlockNumber is the inclusion block. It is only set on EventConfirmed.
	BlockNumber uint64
}

// Observer receives transaction progress events. It is called synchronously from the
// goroutine that submitted the transaction.
type Observer func(Event)

func nopObserver(Event) {}

// LogObserver returns an Observer which writes every event to lggr.
func LogObserver(lggr logger.Logger) Observer {
	return func(e Event) {
		switch e.Kind {
		case EventPending:
			lggr.Infow("Pending transaction",
				"chain", e.Chain,
				"tx", e.TxHash.Hex(),
				"url", e.URL,
				"confirmations", e.Confirmations,
			)
		case EventConfirmed:
			lggr.Infow("Confirmed transaction",
				"chain", e.Chain,
				"tx", e.TxHash.Hex(),
				"block", e.BlockNumber,
				"confirmations", e.Confirmations,
			)
		default:
			lggr.Debugw("Transaction event", "kind", e.Kind, "chain", e.Chain, "tx", e.TxHash.Hex())
		}
	}
}
