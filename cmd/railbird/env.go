package main

import (
	"fmt"

	"github.com/lox/railbird/internal/config"
	"github.com/lox/railbird/internal/store"
)

// openEnv loads configuration and opens the hand database, applying an
// optional command-line override of the database path.
func openEnv(configPath, dbOverride string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dbOverride != "" {
		cfg.Database.Path = dbOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}
