package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// ErrTierNotFound indicates that no tier policy matches the requested name.
var ErrTierNotFound = errors.New("config: tier not found")

// TierPolicy captures the entry-fee range, eligible player counts, and
// availability rule for one of the host agent's arena-size tiers.
type TierPolicy struct {
	Name            string
	MinEntryFee     *uint256.Int
	MaxEntryFee     *uint256.Int
	PlayerCounts    []uint32
	ProtocolFeeBps  uint16
	Availability    string // "always" | "peak" | "large" | "whale"
}

// tierFile mirrors the YAML representation of a tier policy entry.
type tierFile struct {
	Name           string   `yaml:"name"`
	MinEntryFee    string   `yaml:"min_entry_fee"`
	MaxEntryFee    string   `yaml:"max_entry_fee"`
	PlayerCounts   []uint32 `yaml:"player_counts"`
	ProtocolFeeBps uint16   `yaml:"protocol_fee_bps"`
	Availability   string   `yaml:"availability"`
}

// LoadTierPolicies reads tier policies from the provided YAML file on disk.
// A missing file falls back to DefaultTierPolicies so the bit-exact table
// from the specification is always available without an operator file.
func LoadTierPolicies(path string) ([]TierPolicy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTierPolicies(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTierPolicies(), nil
		}
		return nil, fmt.Errorf("config: open tier policy file: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	var entries []tierFile
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("config: decode tier policy file: %w", err)
	}

	policies := make([]TierPolicy, 0, len(entries))
	seen := make(map[string]struct{})
	for _, entry := range entries {
		name := strings.ToUpper(strings.TrimSpace(entry.Name))
		if name == "" {
			return nil, fmt.Errorf("config: tier name required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("config: duplicate tier %s", name)
		}
		minFee, err := parseU256(entry.MinEntryFee)
		if err != nil {
			return nil, fmt.Errorf("config: tier %s min_entry_fee: %w", name, err)
		}
		maxFee, err := parseU256(entry.MaxEntryFee)
		if err != nil {
			return nil, fmt.Errorf("config: tier %s max_entry_fee: %w", name, err)
		}
		if len(entry.PlayerCounts) == 0 {
			return nil, fmt.Errorf("config: tier %s requires at least one player count", name)
		}
		availability := strings.ToLower(strings.TrimSpace(entry.Availability))
		if availability == "" {
			availability = "always"
		}
		policies = append(policies, TierPolicy{
			Name:           name,
			MinEntryFee:    minFee,
			MaxEntryFee:    maxFee,
			PlayerCounts:   append([]uint32{}, entry.PlayerCounts...),
			ProtocolFeeBps: entry.ProtocolFeeBps,
			Availability:   availability,
		})
		seen[name] = struct{}{}
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].MinEntryFee.Lt(policies[j].MinEntryFee) })
	return policies, nil
}

func parseU256(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", trimmed, err)
	}
	return v, nil
}

func pow10(exp uint64) *uint256.Int {
	ten := uint256.NewInt(10)
	result := uint256.NewInt(1)
	for i := uint64(0); i < exp; i++ {
		result = new(uint256.Int).Mul(result, ten)
	}
	return result
}

// DefaultTierPolicies returns the bit-exact tier table from section 6 of the
// specification: MICRO, SMALL, MEDIUM, LARGE, WHALE with fixed fee ranges,
// player counts, protocol fee bps, and availability rules.
func DefaultTierPolicies() []TierPolicy {
	return []TierPolicy{
		{
			Name:           "MICRO",
			MinEntryFee:    pow10(15),
			MaxEntryFee:    pow10(16),
			PlayerCounts:   []uint32{4, 8, 16},
			ProtocolFeeBps: 200,
			Availability:   "always",
		},
		{
			Name:           "SMALL",
			MinEntryFee:    pow10(16),
			MaxEntryFee:    pow10(17),
			PlayerCounts:   []uint32{4, 8, 16},
			ProtocolFeeBps: 250,
			Availability:   "always",
		},
		{
			Name:           "MEDIUM",
			MinEntryFee:    pow10(17),
			MaxEntryFee:    pow10(18),
			PlayerCounts:   []uint32{4, 8},
			ProtocolFeeBps: 250,
			Availability:   "peak",
		},
		{
			Name:           "LARGE",
			MinEntryFee:    pow10(18),
			MaxEntryFee:    pow10(19),
			PlayerCounts:   []uint32{4, 8},
			ProtocolFeeBps: 300,
			Availability:   "large",
		},
		{
			Name:           "WHALE",
			MinEntryFee:    pow10(19),
			MaxEntryFee:    new(uint256.Int).Mul(pow10(19), uint256.NewInt(1000)),
			PlayerCounts:   []uint32{4},
			ProtocolFeeBps: 300,
			Availability:   "whale",
		},
	}
}

// Find returns the tier policy with the given name.
func Find(policies []TierPolicy, name string) (TierPolicy, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, p := range policies {
		if p.Name == name {
			return p, nil
		}
	}
	return TierPolicy{}, ErrTierNotFound
}
