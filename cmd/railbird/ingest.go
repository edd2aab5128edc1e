package main

import (
	"context"
	"fmt"

	"github.com/lox/railbird/cmd/railbird/shared"
	"github.com/lox/railbird/internal/ingest"
)

// IngestCmd loads raw hand-history files and refreshes player statistics.
type IngestCmd struct {
	Paths []string `kong:"arg,required,help='Hand-history files or directories to load'"`

	Config      string `kong:"default='railbird.hcl',help='Configuration file'"`
	DB          string `kong:"help='Database path (overrides config)'"`
	Workers     int    `kong:"default='0',help='Parser worker count (0 = from config)'"`
	NoRecompute bool   `kong:"help='Skip recomputing player statistics after loading'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
	LogJSON     bool   `kong:"name='log-json',help='Emit structured JSON logs'"`
}

func (c *IngestCmd) Run() error {
	logger := shared.NewLogger(c.Debug, c.LogJSON)

	cfg, st, err := openEnv(c.Config, c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	workers := c.Workers
	if workers <= 0 {
		workers = cfg.Ingest.Workers
	}

	stats, err := ingest.New(st, logger, workers).Run(context.Background(), c.Paths)
	if err != nil {
		return err
	}
	fmt.Println(stats)

	if c.NoRecompute {
		return nil
	}
	players, err := recomputeStats(st)
	if err != nil {
		return err
	}
	logger.Info().Int("players", players).Msg("player statistics recomputed")
	return nil
}
