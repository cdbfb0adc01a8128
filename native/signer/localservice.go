package signer

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigningService signs digests directly with an in-process ECDSA key.
// Production deployments hold the operator key in a remote secure runtime
// (spec.md §1's explicit out-of-scope boundary); this implementation exists
// for local development and tests, where no such runtime is available.
type LocalSigningService struct {
	key *ecdsa.PrivateKey
}

// NewLocalSigningService wraps an existing key.
func NewLocalSigningService(key *ecdsa.PrivateKey) *LocalSigningService {
	return &LocalSigningService{key: key}
}

// GenerateLocalSigningService creates a fresh operator key, for use only
// outside production (dev servers, tests, local demos).
func GenerateLocalSigningService() (*LocalSigningService, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &LocalSigningService{key: key}, nil
}

func (s *LocalSigningService) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	return crypto.Sign(digest[:], s.key)
}

var _ SigningService = (*LocalSigningService)(nil)
