// Package ingest walks hand-history files on disk, parses them, and loads
// the resulting hand records into the store. Parsing runs across a worker
// pool; database writes stay on a single goroutine.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/railbird/internal/handparse"
	"github.com/lox/railbird/internal/store"
)

// Stats summarizes one ingestion run.
type Stats struct {
	Files      int
	Hands      int
	Duplicates int
	Failed     int
	Warnings   int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d files, %d hands loaded, %d duplicates, %d failed, %d warnings",
		s.Files, s.Hands, s.Duplicates, s.Failed, s.Warnings)
}

// Ingester loads hand-history files into a store.
type Ingester struct {
	store   *store.Store
	logger  zerolog.Logger
	workers int
}

func New(st *store.Store, logger zerolog.Logger, workers int) *Ingester {
	if workers < 1 {
		workers = 1
	}
	return &Ingester{store: st, logger: logger, workers: workers}
}

// fileResult is one parsed hand-history file ready for loading.
type fileResult struct {
	path    string
	records []handparse.HandRecord
	diags   []handparse.Diagnostic
	err     error
}

// Run ingests every .txt hand-history file found under paths. Each path may
// be a file or a directory; directories are walked recursively. Parse
// diagnostics are logged but never abort the run.
func (in *Ingester) Run(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats

	files, err := collectFiles(paths)
	if err != nil {
		return stats, err
	}
	if len(files) == 0 {
		return stats, fmt.Errorf("no hand-history files found under %s", strings.Join(paths, ", "))
	}
	stats.Files = len(files)

	started := time.Now()
	runID, err := in.store.BeginIngestRun(started)
	if err != nil {
		return stats, err
	}
	in.logger.Info().Str("run_id", runID).Int("files", len(files)).Msg("starting ingest")

	work := make(chan string)
	results := make(chan fileResult, in.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		for _, path := range files {
			select {
			case work <- path:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var parsers errgroup.Group
	for w := 0; w < in.workers; w++ {
		parsers.Go(func() error {
			for path := range work {
				results <- parseFile(path)
			}
			return nil
		})
	}
	go func() {
		parsers.Wait()
		close(results)
	}()

	for res := range results {
		in.load(res, &stats)
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	finErr := in.store.FinishIngestRun(store.IngestRun{
		RunID:      runID,
		FinishedAt: time.Now(),
		Files:      stats.Files,
		Hands:      stats.Hands,
		Duplicates: stats.Duplicates,
		Failed:     stats.Failed,
	})
	if finErr != nil {
		return stats, finErr
	}

	in.logger.Info().
		Str("run_id", runID).
		Dur("elapsed", time.Since(started)).
		Int("hands", stats.Hands).
		Int("duplicates", stats.Duplicates).
		Int("failed", stats.Failed).
		Msg("ingest complete")
	return stats, nil
}

// load writes one parsed file into the store and folds it into stats.
func (in *Ingester) load(res fileResult, stats *Stats) {
	log := in.logger.With().Str("file", filepath.Base(res.path)).Logger()

	if res.err != nil {
		log.Error().Err(res.err).Msg("skipping unreadable file")
		stats.Failed++
		return
	}
	for _, d := range res.diags {
		switch d.Severity {
		case handparse.SeverityError:
			log.Warn().Str("hand", d.HandRef).Msg(d.Message)
			stats.Failed++
		default:
			log.Debug().Str("hand", d.HandRef).Msg(d.Message)
			stats.Warnings++
		}
	}
	for i := range res.records {
		inserted, err := in.store.InsertHand(&res.records[i])
		if err != nil {
			log.Error().Err(err).Str("hand", res.records[i].HandID).Msg("insert failed")
			stats.Failed++
			continue
		}
		if inserted {
			stats.Hands++
		} else {
			stats.Duplicates++
		}
	}
}

func parseFile(path string) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	// Exported histories occasionally carry a BOM or stray latin-1 bytes.
	text := strings.ToValidUTF8(strings.TrimPrefix(string(data), "\uFEFF"), "")
	records, diags := handparse.Parse(text)
	return fileResult{path: path, records: records, diags: diags}
}

// collectFiles expands paths into a sorted, de-duplicated list of .txt files.
func collectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && p != path {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(p), ".txt") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
