// Package chainadapter is the thin boundary between the orchestrator core
// and the on-chain escrow contract, per the specification's External
// Interfaces section. The core never custodies funds or submits
// transactions; it only asks the adapter two narrow questions.
package chainadapter

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnavailable is returned when the chain adapter cannot currently reach
// the underlying RPC endpoint. The orchestrator's handlers log it as a
// warning and carry on; they do not retry the call.
var ErrUnavailable = errors.New("chainadapter: unavailable")

// FinalizationObservation reports the outcome of a previously submitted
// finalize authorization, as observed on-chain.
type FinalizationObservation struct {
	TxHash  common.Hash
	Success bool
}

// Adapter is the narrow, consumer-defined contract the orchestrator daemon's
// handlers depend on. Implementations translate these calls into whatever RPC/ABI
// surface the escrow contract actually exposes; that translation is outside
// this repository's scope (spec.md §1 Explicitly out of scope).
type Adapter interface {
	// HasPlayerJoinedOnchain is an optional pre-join sanity check confirming
	// the player's on-chain entry-fee escrow deposit landed before the
	// orchestrator admits them to the off-chain player list.
	HasPlayerJoinedOnchain(ctx context.Context, arena common.Address, player common.Address) (bool, error)
	// ObserveFinalization is polled after a finalize authorization has been
	// submitted externally, to confirm it was accepted on-chain.
	ObserveFinalization(ctx context.Context, arena common.Address) (FinalizationObservation, error)
}
