// Package config loads the orchestrator's TOML service configuration,
// following the load-or-create-default shape used throughout the wider
// platform's daemons.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for orchestratord and hostagentd.
type Config struct {
	ListenAddress    string `toml:"ListenAddress"`
	DataDir          string `toml:"DataDir"`
	Network          string `toml:"Network"`
	PolicyFile       string `toml:"PolicyFile"`
	SchedulerTickMS  int    `toml:"SchedulerTickMS"`
	ShutdownGraceSec int    `toml:"ShutdownGraceSec"`
	SigningEndpoint  string `toml:"SigningEndpoint"`
	ChainRPCEndpoint string `toml:"ChainRPCEndpoint"`
	OTELEndpoint     string `toml:"OTELEndpoint"`
	OTELInsecure     bool   `toml:"OTELInsecure"`
	AgentCycleMin    int    `toml:"AgentCycleMinutes"`
}

// Load loads the configuration from the given path, creating a default file
// if one does not yet exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	for _, undecoded := range meta.Undecoded() {
		if len(undecoded) == 1 && undecoded[0] == "SigningKey" {
			return nil, fmt.Errorf("config: %s uses deprecated SigningKey field; the signer key never lives in this config", path)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Network) == "" {
		cfg.Network = "testnet"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./clawarena-data"
	}
	if strings.TrimSpace(cfg.PolicyFile) == "" {
		cfg.PolicyFile = "./tiers.yaml"
	}
	if cfg.SchedulerTickMS <= 0 {
		cfg.SchedulerTickMS = 1000
	}
	if cfg.ShutdownGraceSec <= 0 {
		cfg.ShutdownGraceSec = 10
	}
	if cfg.AgentCycleMin <= 0 {
		cfg.AgentCycleMin = 30
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:    ":8090",
		DataDir:          "./clawarena-data",
		Network:          "testnet",
		PolicyFile:       "./tiers.yaml",
		SchedulerTickMS:  1000,
		ShutdownGraceSec: 10,
		SigningEndpoint:  "",
		ChainRPCEndpoint: "",
		AgentCycleMin:    30,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
