package chainadapter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// StubAdapter is a polling-free, in-memory Adapter used for local
// development and tests: joins are always accepted on-chain, and
// finalizations are observed successful as soon as recorded via Record.
// A rate limiter throttles ObserveFinalization polling the same way the
// teacher throttles its own outbound RPC calls.
type StubAdapter struct {
	limiter *rate.Limiter
	logger  *slog.Logger

	mu            sync.Mutex
	finalizations map[common.Address]FinalizationObservation
}

// NewStubAdapter constructs a StubAdapter. requestsPerSecond/burst configure
// the poll rate limiter; pass 0 burst for a sane default of 5.
func NewStubAdapter(requestsPerSecond float64, burst int, logger *slog.Logger) *StubAdapter {
	if burst <= 0 {
		burst = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StubAdapter{
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		logger:        logger,
		finalizations: make(map[common.Address]FinalizationObservation),
	}
}

// Record registers a finalize observation for later polling, simulating the
// on-chain tx landing.
func (s *StubAdapter) Record(arena common.Address, obs FinalizationObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizations[arena] = obs
}

func (s *StubAdapter) HasPlayerJoinedOnchain(ctx context.Context, arena common.Address, player common.Address) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Warn("chainadapter: rate limiter wait failed", "error", err)
		return false, ErrUnavailable
	}
	return true, nil
}

func (s *StubAdapter) ObserveFinalization(ctx context.Context, arena common.Address) (FinalizationObservation, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return FinalizationObservation{}, ErrUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, ok := s.finalizations[arena]
	if !ok {
		return FinalizationObservation{}, ErrUnavailable
	}
	return obs, nil
}

var _ Adapter = (*StubAdapter)(nil)
