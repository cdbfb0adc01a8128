// Package signer implements the Finalize Signer: it validates an arena's
// terminal state, builds the canonical EIP-712-style digest binding
// (arena, winners, amounts, nonce), and obtains a recoverable ECDSA
// signature from an external signing service the orchestrator never holds
// the key for.
package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clawarena/observability/metrics"
)

// Code enumerates the finalize error taxonomy.
type Code string

const (
	CodeArenaNotClosed          Code = "arena_not_closed"
	CodeAlreadyFinalized        Code = "already_finalized"
	CodeInvalidWinner           Code = "invalid_winner"
	CodePayoutExceedsEscrow     Code = "payout_exceeds_escrow"
	CodeNonceReused             Code = "nonce_reused"
	CodeSigningServiceUnavailable Code = "signing_service_unavailable"
)

// Error carries a taxonomy code alongside a human-readable message.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("signer: %s: %s", e.Code, e.Msg) }

func newErr(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// SigningService is the external collaborator that holds the operator key.
// Finalize wraps any error an implementation returns as an *Error with
// CodeSigningServiceUnavailable; it does not retry the call.
type SigningService interface {
	Sign(ctx context.Context, digest [32]byte) ([]byte, error)
}

// ArenaView is the narrow, read-only slice of arena state the signer needs
// to validate a finalize request, decoupled from the concrete arena.Arena
// type so this package has no import-time dependency on native/arena.
type ArenaView struct {
	Address        common.Address
	IsClosed       bool
	IsFinalized    bool
	GameFinished   bool
	Players        []common.Address
	ProtocolFeeBps uint16
	EntryFee       *uint256.Int
	NPlayers       uint32
	UsedNonce      uint64
}

// Request bundles the winners/amounts/nonce a caller wants authorized.
type Request struct {
	Winners []common.Address
	Amounts []*uint256.Int
	Nonce   uint64
}

// Finalizer validates and signs finalize requests.
type Finalizer struct {
	chainID *big.Int
	service SigningService
}

// Option customises a Finalizer.
type Option func(*Finalizer)

// WithSigningService supplies the signing-service collaborator.
func WithSigningService(s SigningService) Option { return func(f *Finalizer) { f.service = s } }

// NewFinalizer constructs a Finalizer bound to chainID.
func NewFinalizer(chainID *big.Int, opts ...Option) *Finalizer {
	f := &Finalizer{chainID: chainID}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize validates req against view's preconditions, builds the canonical
// digest, and requests a signature. On success it returns the 65-byte
// recoverable signature with v normalized to {27, 28}.
func (f *Finalizer) Finalize(ctx context.Context, view ArenaView, req Request) ([]byte, error) {
	if err := validate(view, req); err != nil {
		metrics.Signer().ObserveRejected(string(err.(*Error).Code))
		return nil, err
	}

	digest := Digest(f.chainID, view.Address, req.Winners, req.Amounts, req.Nonce)

	if f.service == nil {
		metrics.Signer().ObserveServiceUnavailable()
		return nil, newErr(CodeSigningServiceUnavailable, "no signing service configured")
	}
	sig, err := f.service.Sign(ctx, digest)
	if err != nil {
		metrics.Signer().ObserveServiceUnavailable()
		return nil, newErr(CodeSigningServiceUnavailable, "%v", err)
	}
	sig = normalizeV(sig)

	metrics.Signer().ObserveSigned()
	metrics.Signer().SetLastNonce(view.Address.Hex(), req.Nonce)
	return sig, nil
}

func validate(view ArenaView, req Request) error {
	// A nonce at or below used_nonce is a replay of an already-consumed
	// request and is reported as such even against an already-finalized
	// arena (spec.md §8 scenario 4): resubmitting the nonce that finalized
	// the arena is nonce_reused, while requesting the next nonce against an
	// already-finalized arena is already_finalized.
	if req.Nonce <= view.UsedNonce {
		return newErr(CodeNonceReused, "nonce %d is not used_nonce+1 (used_nonce=%d)", req.Nonce, view.UsedNonce)
	}
	if view.IsFinalized {
		return newErr(CodeAlreadyFinalized, "arena %s already finalized", view.Address.Hex())
	}
	if !view.IsClosed || !view.GameFinished {
		return newErr(CodeArenaNotClosed, "arena %s is not closed and finished", view.Address.Hex())
	}
	if len(req.Winners) == 0 || len(req.Winners) != len(req.Amounts) {
		return newErr(CodeInvalidWinner, "winners/amounts must be non-empty and equal length")
	}
	playerSet := make(map[common.Address]struct{}, len(view.Players))
	for _, p := range view.Players {
		playerSet[p] = struct{}{}
	}
	for _, w := range req.Winners {
		if _, ok := playerSet[w]; !ok {
			return newErr(CodeInvalidWinner, "winner %s is not a player", w.Hex())
		}
	}

	pool := new(uint256.Int).Mul(view.EntryFee, uint256.NewInt(uint64(view.NPlayers)))
	fee := new(uint256.Int).Div(new(uint256.Int).Mul(pool, uint256.NewInt(uint64(view.ProtocolFeeBps))), uint256.NewInt(10000))
	available := new(uint256.Int).Sub(pool, fee)

	total := new(uint256.Int)
	for _, a := range req.Amounts {
		total = new(uint256.Int).Add(total, a)
	}
	if total.Gt(available) {
		return newErr(CodePayoutExceedsEscrow, "requested payout %s exceeds available %s", total.String(), available.String())
	}

	if req.Nonce != view.UsedNonce+1 {
		return newErr(CodeNonceReused, "nonce %d is not used_nonce+1 (used_nonce=%d)", req.Nonce, view.UsedNonce)
	}
	return nil
}

// normalizeV adjusts a 65-byte (r,s,v) signature so v is in {27, 28}, the
// convention go-ethereum's Sign/Ecrecover use v in {0,1} for internally but
// on-chain verifiers expect {27,28}.
func normalizeV(sig []byte) []byte {
	if len(sig) != 65 {
		return sig
	}
	out := make([]byte, 65)
	copy(out, sig)
	if out[64] < 27 {
		out[64] += 27
	}
	return out
}
