package handparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	potRakeRe     = regexp.MustCompile(`Total pot [$€£]?([\d.]+)(?:.*?\| Rake [$€£]?([\d.]+))?`)
	boardRe       = regexp.MustCompile(`Board \[([^\]]+)\]`)
	summarySeatRe = regexp.MustCompile(`^Seat (\d+): (.+)$`)
	positionRe    = regexp.MustCompile(`\((button|small blind|big blind)\)\s*`)
	seatCollectRe = regexp.MustCompile(`collected \([$€£]?([\d.]+)\)`)
)

// resultVerbs split a summary seat line into player name and outcome text.
// The earliest verb occurrence wins so player names keep embedded spaces.
var resultVerbs = []string{" folded", " collected", " showed", " mucked", " won", " lost", " didn't"}

// parseSummary extracts pot total, rake, final board, and per-seat result
// lines from the *** SUMMARY *** section.
func parseSummary(lines []string, markers []stageMarker) Summary {
	start := -1
	for _, m := range markers {
		if m.summary {
			start = m.line
			break
		}
	}
	var sum Summary
	if start < 0 {
		return sum
	}

	for _, line := range lines[start+1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := potRakeRe.FindStringSubmatch(line); m != nil {
			sum.PotTotal, _ = strconv.ParseFloat(m[1], 64)
			if m[2] != "" {
				sum.Rake, _ = strconv.ParseFloat(m[2], 64)
			}
			continue
		}
		if m := boardRe.FindStringSubmatch(line); m != nil {
			sum.Board = strings.Fields(m[1])
			continue
		}
		if m := summarySeatRe.FindStringSubmatch(line); m != nil {
			num, _ := strconv.Atoi(m[1])
			if result, ok := parseSeatResult(num, m[2]); ok {
				sum.SeatResults = append(sum.SeatResults, result)
			}
		}
	}
	return sum
}

// parseSeatResult splits "PlayerName (big blind) folded before Flop" into
// its parts. Returns false when no known result verb is present.
func parseSeatResult(seatNum int, rest string) (SeatResult, bool) {
	split := -1
	for _, verb := range resultVerbs {
		if idx := strings.Index(rest, verb); idx > 0 && (split == -1 || idx < split) {
			split = idx
		}
	}
	if split < 0 {
		return SeatResult{}, false
	}

	name := strings.TrimSpace(rest[:split])
	position := ""
	if m := positionRe.FindStringSubmatch(name); m != nil {
		position = m[1]
		name = strings.TrimSpace(positionRe.ReplaceAllString(name, ""))
	}
	return SeatResult{
		SeatNumber: seatNum,
		PlayerID:   name,
		Position:   position,
		Result:     strings.TrimSpace(rest[split:]),
	}, true
}

// resolveOutcome determines the winner and bb_won from collection lines.
// Exactly one collector wins the hand; a split pot or missing collection
// leaves both fields null with a diagnostic, which downstream consumers
// must treat as distinct from zero.
func resolveOutcome(rec *HandRecord, collectors map[string]float64, warn func(string, ...any)) {
	if len(collectors) == 0 {
		// Truncated logs sometimes carry collections only in the summary.
		for _, sr := range rec.Summary.SeatResults {
			if m := seatCollectRe.FindStringSubmatch(sr.Result); m != nil {
				amt, _ := strconv.ParseFloat(m[1], 64)
				if collectors == nil {
					collectors = map[string]float64{}
				}
				collectors[sr.PlayerID] += amt
			}
		}
	}

	switch len(collectors) {
	case 0:
		warn("no collection line found, winner undetermined")
	case 1:
		for player, amt := range collectors {
			rec.Winner = player
			if rec.BigBlind > 0 {
				rec.BBWon = ptr(amt / rec.BigBlind)
			}
		}
	default:
		warn("split pot with %d collectors, winner undetermined", len(collectors))
	}
}
