// Package export writes filtered hand datasets to disk: JSON lines for
// downstream training pipelines, PHH files for interchange, plus a dataset
// card describing the filters that produced the snapshot.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/lox/railbird/internal/fileutil"
	"github.com/lox/railbird/internal/handparse"
	"github.com/lox/railbird/internal/phh"
	"github.com/lox/railbird/internal/store"
)

// Format selects the on-disk shape of an exported dataset.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatPHH   Format = "phh"
)

// Options filter which hands a dataset includes. The defaults match the
// usual "hands won by proven winners" cut.
type Options struct {
	Name          string
	Format        Format
	MinHands      int
	MinMBBPerHour float64
}

// DefaultOptions returns the standard winning-player dataset filters.
func DefaultOptions() Options {
	return Options{
		Name:          "winning_players",
		Format:        FormatJSONL,
		MinHands:      100,
		MinMBBPerHour: 500,
	}
}

// Exporter writes dataset snapshots from a store.
type Exporter struct {
	store  *store.Store
	logger zerolog.Logger
}

func New(st *store.Store, logger zerolog.Logger) *Exporter {
	return &Exporter{store: st, logger: logger}
}

// WriteDataset exports every eligible hand into dir and writes a README.md
// dataset card beside the data. It returns the number of hands exported.
func (e *Exporter) WriteDataset(dir string, opts Options) (int, error) {
	if opts.Name == "" {
		opts.Name = "winning_players"
	}
	if opts.Format == "" {
		opts.Format = FormatJSONL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dataset dir: %w", err)
	}

	var (
		count int
		err   error
	)
	switch opts.Format {
	case FormatJSONL:
		count, err = e.writeJSONL(dir, opts)
	case FormatPHH:
		count, err = e.writePHH(dir, opts)
	default:
		return 0, fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err != nil {
		return 0, err
	}

	if err := e.writeCard(dir, opts, count); err != nil {
		return count, err
	}
	e.logger.Info().
		Str("dataset", opts.Name).
		Str("format", string(opts.Format)).
		Int("hands", count).
		Msg("dataset written")
	return count, nil
}

func (e *Exporter) writeJSONL(dir string, opts Options) (int, error) {
	w, err := fileutil.CreateAtomic(filepath.Join(dir, "hands.jsonl"), 0o644)
	if err != nil {
		return 0, err
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	count := 0
	err = e.store.EligibleHands(opts.MinHands, opts.MinMBBPerHour, func(row store.ExportRow) error {
		count++
		return enc.Encode(row)
	})
	if err != nil {
		return 0, fmt.Errorf("export hands: %w", err)
	}
	return count, w.Commit()
}

func (e *Exporter) writePHH(dir string, opts Options) (int, error) {
	count := 0
	err := e.store.EligibleHands(opts.MinHands, opts.MinMBBPerHour, func(row store.ExportRow) error {
		rec, err := recordFromRow(row)
		if err != nil {
			e.logger.Warn().Err(err).Str("hand", row.HandID).Msg("skipping undecodable hand")
			return nil
		}
		data, err := phh.EncodeToBytes(phh.FromRecord(rec))
		if err != nil {
			return fmt.Errorf("encode hand %s: %w", row.HandID, err)
		}
		count++
		name := filepath.Join(dir, fmt.Sprintf("%s.phh", row.HandID))
		return fileutil.WriteFileAtomic(name, data, 0o644)
	})
	if err != nil {
		return 0, fmt.Errorf("export hands: %w", err)
	}
	return count, nil
}

// recordFromRow rebuilds the parts of a hand record that PHH encoding needs
// from a stored row.
func recordFromRow(row store.ExportRow) (*handparse.HandRecord, error) {
	rec := &handparse.HandRecord{
		HandID:   row.HandID,
		GameType: row.GameType,
		BigBlind: row.BigBlind,
		Winner:   row.Winner,
		BBWon:    row.BBWon,
	}
	if err := json.Unmarshal(row.Seats, &rec.Seats); err != nil {
		return nil, fmt.Errorf("decode seats: %w", err)
	}
	if err := json.Unmarshal(row.Stages, &rec.Stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return rec, nil
}

// card is the YAML front matter of the dataset README.
type card struct {
	Dataset     string    `yaml:"dataset_name"`
	Format      string    `yaml:"format"`
	GeneratedAt time.Time `yaml:"generated_at"`
	HandCount   int       `yaml:"hand_count"`
	Filters     struct {
		MinHands      int     `yaml:"min_hands"`
		MinMBBPerHour float64 `yaml:"min_mbb_per_hour"`
	} `yaml:"filters"`
}

func (e *Exporter) writeCard(dir string, opts Options, count int) error {
	c := card{
		Dataset:     opts.Name,
		Format:      string(opts.Format),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		HandCount:   count,
	}
	c.Filters.MinHands = opts.MinHands
	c.Filters.MinMBBPerHour = opts.MinMBBPerHour

	front, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal dataset card: %w", err)
	}

	body := fmt.Sprintf(`---
%s---

# %s

Hands won by players with at least %d recorded hands and a win rate of at
least %.0f mbb/hour. Regenerate after every ingest: statistics are fully
recomputed, so the eligible set can change.
`, front, opts.Name, opts.MinHands, opts.MinMBBPerHour)

	return fileutil.WriteFileAtomic(filepath.Join(dir, "README.md"), []byte(body), 0o644)
}
