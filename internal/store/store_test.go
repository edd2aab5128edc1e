package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/railbird/internal/handparse"
	"github.com/lox/railbird/internal/sessions"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "railbird.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(handID string, playedAt time.Time, winner string) *handparse.HandRecord {
	bbWon := 12.5
	rec := &handparse.HandRecord{
		HandID:     handID,
		GameType:   "Hold'em No Limit",
		PlayedAt:   playedAt,
		TableName:  "Aludra III",
		TableType:  "6-max",
		ButtonSeat: 2,
		SmallBlind: 0.5,
		BigBlind:   1,
		Currency:   "USD",
		Seats: []handparse.Seat{
			{Number: 1, PlayerID: "alice", StartingStack: 100, Status: handparse.StatusActive},
			{Number: 2, PlayerID: "bob costas", StartingStack: 85.5, Status: handparse.StatusActive},
		},
		Stages: map[handparse.Stage]*handparse.StageWindow{
			handparse.StagePreflop: {Actions: []handparse.ActionEvent{
				{PlayerID: "alice", Stage: handparse.StagePreflop, Kind: handparse.KindFold},
			}},
		},
		Summary: handparse.Summary{PotTotal: 25, Rake: 1},
		Contrib: map[string]float64{"alice": 1, "bob costas": 12.5},
	}
	if winner != "" {
		rec.Winner = winner
		rec.BBWon = &bbWon
	}
	return rec
}

func TestInsertHandIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	rec := sampleRecord("1001", time.Date(2023, 1, 15, 18, 30, 0, 0, time.UTC), "alice")

	inserted, err := s.InsertHand(rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertHand(rec)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate hand id should be skipped")

	n, err := s.HandCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListHandRefsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2023, 1, 15, 18, 30, 0, 0, time.UTC)

	// Inserted out of order; listing must come back time-ordered.
	_, err := s.InsertHand(sampleRecord("1002", at.Add(time.Minute), ""))
	require.NoError(t, err)
	_, err = s.InsertHand(sampleRecord("1001", at, "alice"))
	require.NoError(t, err)

	refs, err := s.ListHandRefs()
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "1001", refs[0].HandID)
	assert.Equal(t, "Aludra III", refs[0].TableName)
	assert.Equal(t, []string{"alice", "bob costas"}, refs[0].PlayerIDs)
	assert.Equal(t, "alice", refs[0].Winner)
	require.NotNil(t, refs[0].BBWon)
	assert.Equal(t, 12.5, *refs[0].BBWon)
	assert.Equal(t, 12.5, refs[0].Contrib["bob costas"])

	// Hand without a winner keeps bb_won null, not zero.
	assert.Empty(t, refs[1].Winner)
	assert.Nil(t, refs[1].BBWon)
	assert.True(t, refs[0].PlayedAt.Equal(at))
}

func TestReplacePlayerStats(t *testing.T) {
	s := newTestStore(t)
	hph := 42.0
	mbbh := 2100.0
	report := &sessions.Report{
		Sessions: []sessions.TableSession{{
			PlayerID:  "alice",
			TableName: "Aludra III",
			StartTime: time.Date(2023, 1, 15, 18, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2023, 1, 15, 19, 0, 0, 0, time.UTC),
			HandCount: 42,
			BBDelta:   2.1,
		}},
		Stats: sessions.PlayerStats{
			PlayerID:      "alice",
			TotalHands:    42,
			TotalBB:       2.1,
			MBBPerHand:    50,
			MBBPerHour:    &mbbh,
			HandsPerHour:  &hph,
			ActiveHours:   1,
			Tables:        1,
			TableSessions: 1,
			FirstHandAt:   time.Date(2023, 1, 15, 18, 0, 0, 0, time.UTC),
			LastHandAt:    time.Date(2023, 1, 15, 19, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, s.ReplacePlayerStats(report))

	got, err := s.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 42, got.TotalHands)
	require.NotNil(t, got.MBBPerHour)
	assert.Equal(t, 2100.0, *got.MBBPerHour)

	// Replace-all: a second write with fewer hands fully overwrites.
	report.Stats.TotalHands = 10
	report.Stats.MBBPerHour = nil
	report.Stats.HandsPerHour = nil
	require.NoError(t, s.ReplacePlayerStats(report))

	got, err = s.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalHands)
	assert.Nil(t, got.MBBPerHour, "null win rate must survive the round trip")
}

func TestReplacePlayerStatsTableDataDeterministic(t *testing.T) {
	s := newTestStore(t)
	end := time.Date(2023, 1, 15, 19, 0, 0, 0, time.UTC)

	// Two single-hand sessions ending at the same instant on different
	// tables; the serialized sample must not depend on input order.
	a := sessions.TableSession{PlayerID: "alice", TableName: "Aludra III", StartTime: end, EndTime: end, HandCount: 1}
	b := sessions.TableSession{PlayerID: "alice", TableName: "Zibal V", StartTime: end, EndTime: end, HandCount: 1}

	readTableData := func() string {
		t.Helper()
		var data string
		err := s.db.QueryRow(`SELECT table_data FROM players WHERE player_id = ?`, "alice").Scan(&data)
		require.NoError(t, err)
		return data
	}

	report := &sessions.Report{
		Sessions: []sessions.TableSession{a, b},
		Stats:    sessions.PlayerStats{PlayerID: "alice", TotalHands: 2},
	}
	require.NoError(t, s.ReplacePlayerStats(report))
	first := readTableData()

	report.Sessions = []sessions.TableSession{b, a}
	require.NoError(t, s.ReplacePlayerStats(report))
	assert.Equal(t, first, readTableData())
}

func TestTopPlayersRanksByWinRate(t *testing.T) {
	s := newTestStore(t)
	for i, tc := range []struct {
		player string
		mbbh   float64
		hands  int
	}{
		{"grinder", 800, 500},
		{"whale", -1200, 500},
		{"shortsample", 9000, 5},
	} {
		mbbh := tc.mbbh
		hph := 60.0
		report := &sessions.Report{Stats: sessions.PlayerStats{
			PlayerID:     tc.player,
			TotalHands:   tc.hands,
			MBBPerHour:   &mbbh,
			HandsPerHour: &hph,
			ActiveHours:  float64(i + 1),
		}}
		require.NoError(t, s.ReplacePlayerStats(report))
	}

	top, err := s.TopPlayers(10, 50)
	require.NoError(t, err)
	require.Len(t, top, 2, "short-sample player filtered out")
	assert.Equal(t, "grinder", top[0].PlayerID)
	assert.Equal(t, "whale", top[1].PlayerID)
}

func TestEligibleHands(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2023, 1, 15, 18, 30, 0, 0, time.UTC)
	_, err := s.InsertHand(sampleRecord("2001", at, "alice"))
	require.NoError(t, err)
	_, err = s.InsertHand(sampleRecord("2002", at.Add(time.Minute), "bob costas"))
	require.NoError(t, err)
	_, err = s.InsertHand(sampleRecord("2003", at.Add(2*time.Minute), ""))
	require.NoError(t, err)

	mbbh := 600.0
	require.NoError(t, s.ReplacePlayerStats(&sessions.Report{Stats: sessions.PlayerStats{
		PlayerID: "alice", TotalHands: 200, MBBPerHour: &mbbh,
	}}))
	low := 90.0
	require.NoError(t, s.ReplacePlayerStats(&sessions.Report{Stats: sessions.PlayerStats{
		PlayerID: "bob costas", TotalHands: 200, MBBPerHour: &low,
	}}))

	var got []string
	err = s.EligibleHands(100, 500, func(row ExportRow) error {
		got = append(got, row.HandID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2001"}, got, "only the qualified winner's hand exports")
}

func TestIngestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2023, 1, 15, 18, 0, 0, 0, time.UTC)

	id, err := s.BeginIngestRun(start)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = s.FinishIngestRun(IngestRun{
		RunID:      id,
		FinishedAt: start.Add(time.Minute),
		Files:      3,
		Hands:      120,
		Duplicates: 4,
		Failed:     1,
	})
	require.NoError(t, err)

	var startedAt, finishedAt string
	var files, hands int
	err = s.db.QueryRow(`
		SELECT started_at, finished_at, files, hands
		FROM ingest_runs WHERE run_id = ?`, id).
		Scan(&startedAt, &finishedAt, &files, &hands)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-15 18:00:00", startedAt)
	assert.Equal(t, "2023-01-15 18:01:00", finishedAt)
	assert.Equal(t, 3, files)
	assert.Equal(t, 120, hands)
}
