// Package config loads the railbird HCL configuration file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete railbird configuration.
type Config struct {
	Database DatabaseSettings
	Ingest   IngestSettings
	Export   ExportSettings
}

// fileConfig mirrors Config for decoding; blocks are pointers so a config
// file only needs the blocks it wants to change.
type fileConfig struct {
	Database *DatabaseSettings `hcl:"database,block"`
	Ingest   *IngestSettings   `hcl:"ingest,block"`
	Export   *ExportSettings   `hcl:"export,block"`
}

// DatabaseSettings locate the hand database.
type DatabaseSettings struct {
	Path string `hcl:"path,optional"`
}

// IngestSettings tune the file loader.
type IngestSettings struct {
	Workers int `hcl:"workers,optional"`
}

// ExportSettings hold the default dataset filters.
type ExportSettings struct {
	Dir           string  `hcl:"dir,optional"`
	MinHands      int     `hcl:"min_hands,optional"`
	MinMBBPerHour float64 `hcl:"min_win_rate,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseSettings{Path: "railbird.db"},
		Ingest:   IngestSettings{Workers: runtime.NumCPU()},
		Export: ExportSettings{
			Dir:           "dataset",
			MinHands:      100,
			MinMBBPerHour: 500,
		},
	}
}

// Load reads an HCL configuration file. A missing file yields the defaults;
// a present file only needs to set the values it wants to change.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing blocks and values
	cfg := Default()
	if fc.Database != nil && fc.Database.Path != "" {
		cfg.Database.Path = fc.Database.Path
	}
	if fc.Ingest != nil && fc.Ingest.Workers != 0 {
		cfg.Ingest.Workers = fc.Ingest.Workers
	}
	if fc.Export != nil {
		if fc.Export.Dir != "" {
			cfg.Export.Dir = fc.Export.Dir
		}
		if fc.Export.MinHands != 0 {
			cfg.Export.MinHands = fc.Export.MinHands
		}
		if fc.Export.MinMBBPerHour != 0 {
			cfg.Export.MinMBBPerHour = fc.Export.MinMBBPerHour
		}
	}

	return cfg, nil
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.Export.MinHands < 0 {
		return fmt.Errorf("export min_hands must not be negative, got %d", c.Export.MinHands)
	}
	return nil
}
