// Command clawctl is the operator CLI: it inspects the orchestrator's
// on-disk arena store and leaderboard without needing to talk to the
// running daemon over the wire.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"clawarena/config"
	statearena "clawarena/state/arena"
)

const (
	cmdListArenas  = "list-arenas"
	cmdShowArena   = "show-arena"
	cmdLeaderboard = "leaderboard"
	defaultConfig  = "./orchestratord.toml"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case cmdListArenas:
		err = runListArenas(os.Args[2:])
	case cmdShowArena:
		err = runShowArena(os.Args[2:])
	case cmdLeaderboard:
		err = runLeaderboard(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: clawctl <%s|%s|%s> [flags]\n", cmdListArenas, cmdShowArena, cmdLeaderboard)
}

func openStore(configPath string) (statearena.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := statearena.NewLevelDB(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open arena store at %s: %w", cfg.DataDir, err)
	}
	return statearena.NewStore(db), func() { db.Close() }, nil
}

func runListArenas(args []string) error {
	fs := flag.NewFlagSet(cmdListArenas, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the service configuration file")
	fs.Parse(args)

	store, closeFn, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	arenas, err := store.ListArenas(context.Background())
	if err != nil {
		return fmt.Errorf("list arenas: %w", err)
	}
	sort.Slice(arenas, func(i, j int) bool { return arenas[i].CreatedAt.Before(arenas[j].CreatedAt) })

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Address", "Game", "Status", "Players", "Closed", "Finalized")
	for _, a := range arenas {
		table.Append(
			a.Address.Hex(),
			string(a.Config.GameType),
			string(a.GameStatus),
			fmt.Sprintf("%d/%d", len(a.Players), a.Config.MaxPlayers),
			fmt.Sprintf("%t", a.IsClosed),
			fmt.Sprintf("%t", a.IsFinalized),
		)
	}
	table.Render()
	return nil
}

func runShowArena(args []string) error {
	fs := flag.NewFlagSet(cmdShowArena, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the service configuration file")
	address := fs.String("address", "", "Arena address (0x-prefixed hex)")
	fs.Parse(args)

	if *address == "" {
		return fmt.Errorf("-address is required")
	}

	store, closeFn, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	a, err := store.LoadArena(context.Background(), hexToAddress(*address))
	if err != nil {
		return fmt.Errorf("load arena %s: %w", *address, err)
	}

	fmt.Printf("Address:         %s\n", a.Address.Hex())
	fmt.Printf("Name:            %s\n", a.Config.Name)
	fmt.Printf("Game type:       %s\n", a.Config.GameType)
	fmt.Printf("Entry fee:       %s\n", a.Config.EntryFee)
	fmt.Printf("Players:         %d/%d\n", len(a.Players), a.Config.MaxPlayers)
	fmt.Printf("Status:          %s (closed=%t finalized=%t)\n", a.GameStatus, a.IsClosed, a.IsFinalized)
	fmt.Printf("Created by:      %s (%s)\n", a.Config.CreatedBy, a.Config.CreationReason)
	if len(a.Result.Winners) > 0 {
		fmt.Println("Winners:")
		for i, w := range a.Result.Winners {
			payout := "?"
			if i < len(a.Result.Payouts) && a.Result.Payouts[i] != nil {
				payout = a.Result.Payouts[i].String()
			}
			fmt.Printf("  %s -> %s\n", w.Hex(), payout)
		}
	}
	return nil
}

func runLeaderboard(args []string) error {
	fs := flag.NewFlagSet(cmdLeaderboard, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the service configuration file")
	addresses := fs.String("addresses", "", "Comma-separated list of player addresses to look up")
	fs.Parse(args)

	if *addresses == "" {
		return fmt.Errorf("-addresses is required (the store has no reverse index to list every player)")
	}

	store, closeFn, err := openStore(*configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Player", "Wins", "Games", "Payouts")
	ctx := context.Background()
	for _, raw := range splitAddresses(*addresses) {
		addr := hexToAddress(raw)
		entry, err := store.GetLeaderboardEntry(ctx, addr)
		if err != nil {
			return fmt.Errorf("leaderboard lookup %s: %w", raw, err)
		}
		table.Append(
			addr.Hex(),
			fmt.Sprintf("%d", entry.Wins),
			fmt.Sprintf("%d", entry.Games),
			entry.Payouts,
		)
	}
	table.Render()
	return nil
}

func hexToAddress(raw string) common.Address { return common.HexToAddress(strings.TrimSpace(raw)) }

func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
