package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IngestRun carries the final counters of one ingestion batch. The run's
// start time is written by BeginIngestRun when the row is created.
type IngestRun struct {
	RunID      string
	FinishedAt time.Time
	Files      int
	Hands      int
	Duplicates int
	Failed     int
}

// BeginIngestRun allocates and persists a new run row, returning its id.
func (s *Store) BeginIngestRun(startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO ingest_runs (run_id, started_at) VALUES (?, ?)`,
		id, formatTime(startedAt.UTC()))
	if err != nil {
		return "", fmt.Errorf("begin ingest run: %w", err)
	}
	return id, nil
}

// FinishIngestRun records the final counters for a run.
func (s *Store) FinishIngestRun(run IngestRun) error {
	_, err := s.db.Exec(`
		UPDATE ingest_runs
		SET finished_at = ?, files = ?, hands = ?, duplicates = ?, failed = ?
		WHERE run_id = ?`,
		formatTime(run.FinishedAt.UTC()), run.Files, run.Hands, run.Duplicates,
		run.Failed, run.RunID)
	if err != nil {
		return fmt.Errorf("finish ingest run %s: %w", run.RunID, err)
	}
	return nil
}
