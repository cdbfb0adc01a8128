package payout

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSplitHappyPathTwoPlayers(t *testing.T) {
	entryFee, _ := uint256.FromDecimal("1000000000000000") // 10^15
	res, err := Split(entryFee, 2, 250, 2)
	require.NoError(t, err)

	expectedPool, _ := uint256.FromDecimal("2000000000000000")
	expectedFee, _ := uint256.FromDecimal("50000000000000")
	expectedAvailable, _ := uint256.FromDecimal("1950000000000000")
	expectedPerWinner, _ := uint256.FromDecimal("975000000000000")

	require.True(t, res.Pool.Eq(expectedPool))
	require.True(t, res.Fee.Eq(expectedFee))
	require.True(t, res.Available.Eq(expectedAvailable))
	require.Len(t, res.Payouts, 2)
	require.True(t, res.Payouts[0].Eq(expectedPerWinner))
	require.True(t, res.Payouts[1].Eq(expectedPerWinner))
}

func TestSplitRemainderFrontLoaded(t *testing.T) {
	// 4 players, entry_fee=1, fee_bps=0, 3 winners.
	res, err := Split(uint256.NewInt(1), 4, 0, 3)
	require.NoError(t, err)
	require.True(t, res.Pool.Eq(uint256.NewInt(4)))
	require.True(t, res.Available.Eq(uint256.NewInt(4)))
	require.Equal(t, []uint64{2, 1, 1}, toUint64Slice(res.Payouts))
}

func TestSplitTwoWinnersRemainderTwoPlusOne(t *testing.T) {
	// From the boundary scenario: n_players=3, entry_fee=1, fee_bps=0, k=2
	// produces payouts=[2,1].
	res, err := Split(uint256.NewInt(1), 3, 0, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 1}, toUint64Slice(res.Payouts))
}

func TestSplitZeroFeeBps(t *testing.T) {
	res, err := Split(uint256.NewInt(100), 10, 0, 1)
	require.NoError(t, err)
	require.True(t, res.Fee.IsZero())
	require.True(t, res.Available.Eq(uint256.NewInt(1000)))
}

func TestSplitMaxFeeBps(t *testing.T) {
	res, err := Split(uint256.NewInt(1000), 10, 1000, 1)
	require.NoError(t, err)
	require.True(t, res.Fee.Eq(uint256.NewInt(1000))) // 10% of 10000
}

func TestSplitConservation(t *testing.T) {
	entryFee := uint256.NewInt(777)
	res, err := Split(entryFee, 13, 333, 5)
	require.NoError(t, err)

	sum := new(uint256.Int)
	for _, p := range res.Payouts {
		sum = new(uint256.Int).Add(sum, p)
	}
	require.True(t, sum.Eq(res.Available))

	total := new(uint256.Int).Add(res.Fee, sum)
	require.True(t, total.Eq(res.Pool))

	for i := 1; i < len(res.Payouts); i++ {
		require.True(t, res.Payouts[i-1].Cmp(res.Payouts[i]) >= 0, "payouts must be rank-monotonic")
	}
}

func TestSplitRejectsZeroWinners(t *testing.T) {
	_, err := Split(uint256.NewInt(1), 4, 0, 0)
	require.ErrorIs(t, err, ErrNoWinners)
}

func TestRankWeightedSplitSixtyForty(t *testing.T) {
	res, err := RankWeightedSplit(uint256.NewInt(1000), 2, 0, []uint16{6000, 4000})
	require.NoError(t, err)
	require.True(t, res.Payouts[0].Eq(uint256.NewInt(1200)))
	require.True(t, res.Payouts[1].Eq(uint256.NewInt(800)))
}

func toUint64Slice(in []*uint256.Int) []uint64 {
	out := make([]uint64, len(in))
	for i, v := range in {
		out[i] = v.Uint64()
	}
	return out
}
