package main

import (
	"fmt"

	"github.com/lox/railbird/cmd/railbird/shared"
	"github.com/lox/railbird/internal/export"
)

// ExportCmd writes a filtered dataset of stored hands to disk.
type ExportCmd struct {
	Out        string  `kong:"help='Output directory (defaults to config export.dir)'"`
	Name       string  `kong:"default='winning_players',help='Dataset name for the card'"`
	Format     string  `kong:"default='jsonl',enum='jsonl,phh',help='Output format'"`
	MinHands   int     `kong:"default='-1',help='Minimum hands for the winning player (-1 = from config)'"`
	MinWinRate float64 `kong:"default='-1',help='Minimum winner mbb/hour (-1 = from config)'"`

	Config  string `kong:"default='railbird.hcl',help='Configuration file'"`
	DB      string `kong:"help='Database path (overrides config)'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	LogJSON bool   `kong:"name='log-json',help='Emit structured JSON logs'"`
}

func (c *ExportCmd) Run() error {
	logger := shared.NewLogger(c.Debug, c.LogJSON)

	cfg, st, err := openEnv(c.Config, c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := export.Options{
		Name:          c.Name,
		Format:        export.Format(c.Format),
		MinHands:      c.MinHands,
		MinMBBPerHour: c.MinWinRate,
	}
	if opts.MinHands < 0 {
		opts.MinHands = cfg.Export.MinHands
	}
	if opts.MinMBBPerHour < 0 {
		opts.MinMBBPerHour = cfg.Export.MinMBBPerHour
	}
	dir := c.Out
	if dir == "" {
		dir = cfg.Export.Dir
	}

	count, err := export.New(st, logger).WriteDataset(dir, opts)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d hands to %s\n", count, dir)
	return nil
}
