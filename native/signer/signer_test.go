package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type fakeSigningService struct {
	priv *ecdsa.PrivateKey
	err  error
}

func (s *fakeSigningService) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return crypto.Sign(digest[:], s.priv)
}

func TestDigestRoundTripRecoversSigner(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	operator := crypto.PubkeyToAddress(priv.PublicKey)

	arena := common.HexToAddress("0xABCD")
	winners := []common.Address{common.HexToAddress("0x1"), common.HexToAddress("0x2")}
	amounts := []*uint256.Int{uint256.NewInt(975000000000), uint256.NewInt(975000000000)}
	digest := Digest(big.NewInt(1), arena, winners, amounts, 1)

	sig, err := crypto.Sign(digest[:], priv)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(digest[:], sig)
	require.NoError(t, err)
	recovered := crypto.PubkeyToAddress(*pub)
	require.Equal(t, operator, recovered)
}

func TestNormalizeVProducesCanonicalRange(t *testing.T) {
	sig := make([]byte, 65)
	sig[64] = 0
	out := normalizeV(sig)
	require.Equal(t, byte(27), out[64])

	sig[64] = 1
	out = normalizeV(sig)
	require.Equal(t, byte(28), out[64])
}

func TestFinalizeRejectsAlreadyFinalized(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	view := ArenaView{IsFinalized: true, UsedNonce: 1}
	_, err := f.Finalize(context.Background(), view, Request{Nonce: 2})
	require.Error(t, err)
	require.Equal(t, CodeAlreadyFinalized, err.(*Error).Code)
}

// TestFinalizeRejectsResubmittedNonceOnFinalizedArena covers §8 scenario 4's
// first clause: resubmitting the very nonce that already finalized the arena
// reports nonce_reused, not already_finalized, even though the arena is in
// fact finalized.
func TestFinalizeRejectsResubmittedNonceOnFinalizedArena(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	view := ArenaView{IsFinalized: true, UsedNonce: 1}
	_, err := f.Finalize(context.Background(), view, Request{Nonce: 1})
	require.Error(t, err)
	require.Equal(t, CodeNonceReused, err.(*Error).Code)
}

func TestFinalizeRejectsNotClosed(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	view := ArenaView{IsClosed: false, GameFinished: true}
	_, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{{1}},
		Amounts: []*uint256.Int{uint256.NewInt(1)},
		Nonce:   1,
	})
	require.Error(t, err)
	require.Equal(t, CodeArenaNotClosed, err.(*Error).Code)
}

func TestFinalizeRejectsInvalidWinner(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	player := common.HexToAddress("0x1")
	stranger := common.HexToAddress("0x2")
	view := ArenaView{
		IsClosed:       true,
		GameFinished:   true,
		Players:        []common.Address{player},
		EntryFee:       uint256.NewInt(100),
		NPlayers:       1,
		ProtocolFeeBps: 0,
	}
	_, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{stranger},
		Amounts: []*uint256.Int{uint256.NewInt(100)},
		Nonce:   1,
	})
	require.Error(t, err)
	require.Equal(t, CodeInvalidWinner, err.(*Error).Code)
}

func TestFinalizeRejectsPayoutExceedsEscrow(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	player := common.HexToAddress("0x1")
	view := ArenaView{
		IsClosed:       true,
		GameFinished:   true,
		Players:        []common.Address{player},
		EntryFee:       uint256.NewInt(100),
		NPlayers:       1,
		ProtocolFeeBps: 0,
	}
	_, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{player},
		Amounts: []*uint256.Int{uint256.NewInt(101)},
		Nonce:   1,
	})
	require.Error(t, err)
	require.Equal(t, CodePayoutExceedsEscrow, err.(*Error).Code)
}

func TestFinalizeRejectsNonceReuse(t *testing.T) {
	f := NewFinalizer(big.NewInt(1))
	player := common.HexToAddress("0x1")
	view := ArenaView{
		IsClosed: true, GameFinished: true,
		Players: []common.Address{player}, EntryFee: uint256.NewInt(100), NPlayers: 1,
		UsedNonce: 1,
	}
	_, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{player},
		Amounts: []*uint256.Int{uint256.NewInt(100)},
		Nonce:   1,
	})
	require.Error(t, err)
	require.Equal(t, CodeNonceReused, err.(*Error).Code)
}

func TestFinalizeSucceedsAndAppliesSigningService(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	f := NewFinalizer(big.NewInt(1), WithSigningService(&fakeSigningService{priv: priv}))

	player := common.HexToAddress("0x1")
	view := ArenaView{
		IsClosed: true, GameFinished: true,
		Players: []common.Address{player}, EntryFee: uint256.NewInt(100), NPlayers: 1,
		UsedNonce: 0,
	}
	sig, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{player},
		Amounts: []*uint256.Int{uint256.NewInt(100)},
		Nonce:   1,
	})
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])
}

func TestFinalizeSurfacesSigningServiceUnavailable(t *testing.T) {
	f := NewFinalizer(big.NewInt(1), WithSigningService(&fakeSigningService{err: errUnavailable}))
	player := common.HexToAddress("0x1")
	view := ArenaView{
		IsClosed: true, GameFinished: true,
		Players: []common.Address{player}, EntryFee: uint256.NewInt(100), NPlayers: 1,
	}
	_, err := f.Finalize(context.Background(), view, Request{
		Winners: []common.Address{player},
		Amounts: []*uint256.Int{uint256.NewInt(100)},
		Nonce:   1,
	})
	require.Error(t, err)
	require.Equal(t, CodeSigningServiceUnavailable, err.(*Error).Code)
}

var errUnavailable = &Error{Code: CodeSigningServiceUnavailable, Msg: "test induced failure"}
