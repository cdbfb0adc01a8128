// Package payout implements the deterministic fixed-point prize-pool split
// described in the specification's Payout Arithmetic component. All
// arithmetic is done in non-negative 256-bit integers; floating point is
// never used.
package payout

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ErrNoWinners is returned when Split is asked to divide a pool among zero
// winners.
var ErrNoWinners = fmt.Errorf("payout: at least one winner required")

// Result is the outcome of a pool split: the gross pool, the protocol fee
// retained, the net amount available to winners, and the per-winner payouts
// in the same rank order as the input winners.
type Result struct {
	Pool      *uint256.Int
	Fee       *uint256.Int
	Available *uint256.Int
	Payouts   []*uint256.Int
}

// Split computes the equal-split payout scheme:
//
//	pool       = entryFee * nPlayers
//	fee        = (pool * protocolFeeBps) / 10000
//	available  = pool - fee
//	perWinner  = available / k
//	remainder  = available - perWinner*k
//	payouts[i] = perWinner + (1 if i < remainder else 0)
//
// The remainder is front-loaded onto the highest-ranked winners (index 0
// first), one unit each, so payouts are rank-monotonic non-increasing.
func Split(entryFee *uint256.Int, nPlayers uint32, protocolFeeBps uint16, k int) (Result, error) {
	if k <= 0 {
		return Result{}, ErrNoWinners
	}
	if entryFee == nil {
		return Result{}, fmt.Errorf("payout: entry fee required")
	}

	pool := new(uint256.Int).Mul(entryFee, uint256.NewInt(uint64(nPlayers)))
	fee := feeOf(pool, protocolFeeBps)
	available := new(uint256.Int).Sub(pool, fee)

	kInt := uint256.NewInt(uint64(k))
	perWinner := new(uint256.Int).Div(available, kInt)
	remainder := new(uint256.Int).Sub(available, new(uint256.Int).Mul(perWinner, kInt))
	remainderInt := remainder.Uint64() // remainder < k, always fits in a machine word for realistic k

	payouts := make([]*uint256.Int, k)
	for i := 0; i < k; i++ {
		amount := new(uint256.Int).Set(perWinner)
		if uint64(i) < remainderInt {
			amount = new(uint256.Int).AddUint64(amount, 1)
		}
		payouts[i] = amount
	}

	return Result{Pool: pool, Fee: fee, Available: available, Payouts: payouts}, nil
}

// feeOf returns floor(pool * bps / 10000).
func feeOf(pool *uint256.Int, bps uint16) *uint256.Int {
	numerator := new(uint256.Int).Mul(pool, uint256.NewInt(uint64(bps)))
	return new(uint256.Int).Div(numerator, uint256.NewInt(10000))
}

// RankWeightedSplit implements the optional rank-weighted scheme mentioned
// in the specification (e.g. 60/40 for k=2, 70/20/10 for k=3). weightsBps
// must sum to exactly 10000 and have length k; remainder from integer
// division (available*weightsBps[i]/10000, floor) is front-loaded onto the
// top-ranked winner so Σ payouts == available still holds exactly.
func RankWeightedSplit(entryFee *uint256.Int, nPlayers uint32, protocolFeeBps uint16, weightsBps []uint16) (Result, error) {
	if len(weightsBps) == 0 {
		return Result{}, ErrNoWinners
	}
	var sum uint32
	for _, w := range weightsBps {
		sum += uint32(w)
	}
	if sum != 10000 {
		return Result{}, fmt.Errorf("payout: rank weights must sum to 10000, got %d", sum)
	}

	pool := new(uint256.Int).Mul(entryFee, uint256.NewInt(uint64(nPlayers)))
	fee := feeOf(pool, protocolFeeBps)
	available := new(uint256.Int).Sub(pool, fee)

	payouts := make([]*uint256.Int, len(weightsBps))
	allocated := new(uint256.Int)
	for i, w := range weightsBps {
		share := new(uint256.Int).Mul(available, uint256.NewInt(uint64(w)))
		share = new(uint256.Int).Div(share, uint256.NewInt(10000))
		payouts[i] = share
		allocated = new(uint256.Int).Add(allocated, share)
	}
	dust := new(uint256.Int).Sub(available, allocated)
	if !dust.IsZero() {
		payouts[0] = new(uint256.Int).Add(payouts[0], dust)
	}

	return Result{Pool: pool, Fee: fee, Available: available, Payouts: payouts}, nil
}
