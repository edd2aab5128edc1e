package sessions

import (
	"sort"
)

// fallbackContribBB prices a losing hand when the record carries no
// contribution data: a flat one big blind, for rows ingested before
// per-action contributions were tracked.
const fallbackContribBB = 1.0

// Reconstruct builds every player's table sessions, merged activity
// timeline, and aggregate statistics from the given hand records. Input
// order does not matter; records are sorted by (played_at, hand_id) before
// the walk, so reconstruction over an identical record set is byte-for-byte
// deterministic.
func Reconstruct(records []HandRef) map[string]*Report {
	sorted := make([]HandRef, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PlayedAt.Equal(sorted[j].PlayedAt) {
			return sorted[i].PlayedAt.Before(sorted[j].PlayedAt)
		}
		return sorted[i].HandID < sorted[j].HandID
	})

	// Partition by table, preserving the global time order within each.
	tables := map[string][]HandRef{}
	var tableNames []string
	for _, rec := range sorted {
		if _, seen := tables[rec.TableName]; !seen {
			tableNames = append(tableNames, rec.TableName)
		}
		tables[rec.TableName] = append(tables[rec.TableName], rec)
	}
	sort.Strings(tableNames)

	reports := map[string]*Report{}
	for _, table := range tableNames {
		for _, session := range walkTable(table, tables[table]) {
			report := reports[session.PlayerID]
			if report == nil {
				report = &Report{}
				reports[session.PlayerID] = report
			}
			report.Sessions = append(report.Sessions, session)
		}
	}

	for player, report := range reports {
		sort.Slice(report.Sessions, func(i, j int) bool {
			a, b := report.Sessions[i], report.Sessions[j]
			if !a.StartTime.Equal(b.StartTime) {
				return a.StartTime.Before(b.StartTime)
			}
			if a.TableName != b.TableName {
				return a.TableName < b.TableName
			}
			return a.EndTime.Before(b.EndTime)
		})
		report.Timeline = mergeTimeline(report.Sessions)
		report.Stats = aggregate(player, report.Sessions, report.Timeline)
	}
	return reports
}

// walkTable classifies every hand at one table as present or absent for
// each player ever seen there. A session opens on the first present hand
// after an absence, extends through consecutive present hands, and closes
// on the first absent hand or at the end of the stream. Leaving and
// rejoining the same table therefore always yields separate sessions.
func walkTable(table string, hands []HandRef) []TableSession {
	open := map[string]*TableSession{}
	var closed []TableSession
	var playerOrder []string

	for _, hand := range hands {
		present := map[string]bool{}
		for _, p := range hand.PlayerIDs {
			present[p] = true
		}

		for _, player := range hand.PlayerIDs {
			session := open[player]
			if session == nil {
				session = &TableSession{
					PlayerID:  player,
					TableName: table,
					StartTime: hand.PlayedAt,
				}
				open[player] = session
				playerOrder = append(playerOrder, player)
			}
			session.EndTime = hand.PlayedAt
			session.HandCount++
			session.BBDelta += handDelta(hand, player)
		}

		// Close sessions of players absent from this hand.
		for i := 0; i < len(playerOrder); i++ {
			player := playerOrder[i]
			if present[player] {
				continue
			}
			if session := open[player]; session != nil {
				closed = append(closed, *session)
				delete(open, player)
				playerOrder = append(playerOrder[:i], playerOrder[i+1:]...)
				i--
			}
		}
	}

	// Stream end closes whatever is still open.
	for _, player := range playerOrder {
		closed = append(closed, *open[player])
	}
	return closed
}

// handDelta is a player's net big-blind outcome for one hand: the recorded
// win for the sole winner, otherwise the negative of what they committed.
func handDelta(hand HandRef, player string) float64 {
	if hand.Winner == player && hand.BBWon != nil {
		return *hand.BBWon
	}
	if contrib, ok := hand.Contrib[player]; ok {
		return -contrib
	}
	return -fallbackContribBB
}

// mergeTimeline collapses a player's sessions across all tables into a
// sorted, non-overlapping interval list. Overlapping or touching sessions
// merge, so concurrent multi-table play never double-counts active time.
func mergeTimeline(sessions []TableSession) []Interval {
	if len(sessions) == 0 {
		return nil
	}
	intervals := make([]Interval, len(sessions))
	for i, s := range sessions {
		intervals[i] = Interval{Start: s.StartTime, End: s.EndTime}
	}
	sort.Slice(intervals, func(i, j int) bool {
		if !intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].Start.Before(intervals[j].Start)
		}
		return intervals[i].End.Before(intervals[j].End)
	})

	merged := []Interval{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// aggregate computes the derived statistics from sessions and the merged
// timeline. Hourly rates are defined only when the timeline covers a
// positive duration.
func aggregate(player string, sessions []TableSession, timeline []Interval) PlayerStats {
	stats := PlayerStats{
		PlayerID:      player,
		TableSessions: len(sessions),
	}

	tables := map[string]bool{}
	for _, s := range sessions {
		stats.TotalHands += s.HandCount
		stats.TotalBB += s.BBDelta
		tables[s.TableName] = true
		if stats.FirstHandAt.IsZero() || s.StartTime.Before(stats.FirstHandAt) {
			stats.FirstHandAt = s.StartTime
		}
		if s.EndTime.After(stats.LastHandAt) {
			stats.LastHandAt = s.EndTime
		}
	}
	stats.Tables = len(tables)

	for _, iv := range timeline {
		stats.ActiveHours += iv.End.Sub(iv.Start).Hours()
	}

	if stats.TotalHands > 0 {
		stats.MBBPerHand = stats.TotalBB * 1000 / float64(stats.TotalHands)
	}
	if stats.ActiveHours > 0 {
		hph := float64(stats.TotalHands) / stats.ActiveHours
		mbbh := stats.MBBPerHand * hph
		stats.HandsPerHour = &hph
		stats.MBBPerHour = &mbbh
	}
	return stats
}
