package bots

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the tunables shared by every binary.
type Config struct {
	MinDepth     int    `json:"min_depth"`
	MaxDepth     int    `json:"max_depth"`
	TimeBudgetMs int    `json:"time_budget_ms"`
	MoveDelayMs  int    `json:"move_delay_ms"`
	LogLevel     string `json:"log_level"`
	ListenAddr   string `json:"listen_addr"`
}

func DefaultConfig() Config {
	return Config{
		MinDepth:     2,
		MaxDepth:     5,
		TimeBudgetMs: 1000,
		// UI pause before the bot replies; never part of the search budget.
		MoveDelayMs: 200,
		LogLevel:    "info",
		ListenAddr:  ":8080",
	}
}

// LoadConfig overlays the JSON file at path on DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bots: read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bots: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MinDepth < 1 {
		return fmt.Errorf("bots: min_depth must be at least 1, got %d", c.MinDepth)
	}
	if c.MaxDepth < c.MinDepth {
		return fmt.Errorf("bots: max_depth %d below min_depth %d", c.MaxDepth, c.MinDepth)
	}
	if c.TimeBudgetMs <= 0 {
		return fmt.Errorf("bots: time_budget_ms must be positive, got %d", c.TimeBudgetMs)
	}
	if c.MoveDelayMs < 0 {
		return fmt.Errorf("bots: move_delay_ms must not be negative, got %d", c.MoveDelayMs)
	}
	return nil
}

func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMs) * time.Millisecond
}

func (c Config) MoveDelay() time.Duration {
	return time.Duration(c.MoveDelayMs) * time.Millisecond
}
