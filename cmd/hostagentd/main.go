// Command hostagentd runs the autonomous host agent: once per cycle it
// inspects how many arenas are currently open, weighs tier demand and
// confidence, and may submit a create command for a new arena.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"clawarena/config"
	"clawarena/native/agent"
	"clawarena/native/arena"
	"clawarena/observability/logging"
	telemetry "clawarena/observability/otel"
	statearena "clawarena/state/arena"
)

func main() {
	configFile := flag.String("config", "./hostagentd.toml", "Path to the service configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CLAWARENA_ENV"))
	logger := logging.Setup("hostagentd", env)
	auditLogger := logging.SetupAudit("hostagentd", "./hostagentd-audit.log", 10, 5, 30)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	policies, err := config.LoadTierPolicies(cfg.PolicyFile)
	if err != nil {
		logger.Warn("tier policy file unavailable, using defaults", "error", err)
		policies = config.DefaultTierPolicies()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "hostagentd",
		Environment: env,
		Endpoint:    cfg.OTELEndpoint,
		Insecure:    cfg.OTELInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	db, err := statearena.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open arena store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := statearena.NewStore(db)

	counter := storeActiveCounter{ctx: ctx, store: store, logger: logger}
	create := func(ctx context.Context, params agent.CreationParams) error {
		return createArena(ctx, store, params)
	}

	a := agent.New(policies, counter, create, agent.WithLogger(auditLogger))

	cycle := time.Duration(cfg.AgentCycleMin) * time.Minute
	if cycle <= 0 {
		cycle = 30 * time.Minute
	}
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	logger.Info("hostagentd: starting", "cycle", cycle.String(), "tiers", len(policies))
	for {
		select {
		case <-ctx.Done():
			logger.Info("hostagentd: shutdown signal received")
			return
		case <-ticker.C:
			if err := a.Cycle(ctx); err != nil {
				logger.Error("agent cycle failed", "error", err)
			}
		}
	}
}

// storeActiveCounter adapts the shared arena store to the agent's narrow
// ActiveCounter collaborator interface.
type storeActiveCounter struct {
	ctx    context.Context
	store  statearena.Store
	logger interface {
		Error(msg string, args ...any)
	}
}

func (c storeActiveCounter) ActiveCount() int {
	n, err := c.store.ActiveArenaCount(c.ctx)
	if err != nil {
		c.logger.Error("failed to count active arenas", "error", err)
		return agent.MaxActive // fail safe: assume full so the agent does not over-create
	}
	return n
}

// createArena persists a freshly created arena for params, generating a
// random address since this orchestrator has no on-chain factory call of
// its own (spec.md §1's explicit out-of-scope boundary for wallet/chain
// operations).
func createArena(ctx context.Context, store statearena.Store, params agent.CreationParams) error {
	addr, err := randomAddress()
	if err != nil {
		return err
	}
	cfg := arena.Config{
		Name:           params.Name,
		EntryFee:       params.EntryFee,
		MaxPlayers:     params.MaxPlayers,
		ProtocolFeeBps: params.ProtocolFeeBps,
		GameType:       params.GameType,
		CreatedBy:      params.CreatedBy,
		CreationReason: params.CreationReason,
	}
	_, err = store.UpdateArena(ctx, addr, 0, func(a *arena.Arena) error {
		*a = *arena.NewArena(addr, cfg, time.Now())
		return nil
	})
	return err
}

func randomAddress() (common.Address, error) {
	var raw [20]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(raw[:]), nil
}
