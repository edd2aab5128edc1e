package handparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	handStartRe = regexp.MustCompile(`^PokerStars (?:Hand|Game|Zoom Hand) #`)
	handIDRe    = regexp.MustCompile(`Hand #(\d+)`)
	gameInfoRe  = regexp.MustCompile(`#\d+:\s+([^(]+?)\s+\([$€£]?([\d.]+)/[$€£]?([\d.]+)(?:\s+([A-Z]{3}))?\)`)
	timestampRe = regexp.MustCompile(`(\d{4}/\d{2}/\d{2})\s+(\d{1,2}:\d{2}:\d{2})(?:\s+([A-Z]{1,5}))?`)
	tableRe     = regexp.MustCompile(`Table '([^']+)'\s+(\S+)`)
	buttonRe    = regexp.MustCompile(`Seat #(\d+) is the button`)
	seatLineRe  = regexp.MustCompile(`^Seat (\d+): (.+) \([$€£]?([\d.]+) in chips\)\s*(.*)$`)
)

const timestampLayout = "2006/01/02 15:04:05"

// Parse splits raw into individual hands and parses each one. It never
// fails: hands missing mandatory header fields are dropped with an error
// diagnostic, and every other anomaly degrades to a warning on the
// otherwise-complete record. Parsing the same text twice yields identical
// output.
func Parse(raw string) ([]HandRecord, []Diagnostic) {
	fragments := splitHands(raw)

	records := make([]HandRecord, 0, len(fragments))
	var diags []Diagnostic
	for i, fragment := range fragments {
		rec, handDiags, err := parseHand(fragment, i)
		diags = append(diags, handDiags...)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, diags
}

// splitHands segments raw text into maximal per-hand substrings, each
// starting at a hand header line. Whitespace-only fragments are dropped.
func splitHands(raw string) []string {
	lines := strings.Split(raw, "\n")

	var fragments []string
	var cur []string
	flush := func() {
		if len(cur) == 0 {
			return
		}
		fragment := strings.TrimSpace(strings.Join(cur, "\n"))
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
		cur = cur[:0]
	}
	for _, line := range lines {
		if handStartRe.MatchString(strings.TrimSpace(line)) {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return fragments
}

// parseHand parses one hand fragment. The returned error is non-nil only
// for the fatal-per-hand conditions (missing hand id or blinds); a matching
// error diagnostic is always included alongside it.
func parseHand(fragment string, index int) (HandRecord, []Diagnostic, error) {
	var diags []Diagnostic
	ref := fmt.Sprintf("fragment-%d", index)

	m := handIDRe.FindStringSubmatch(fragment)
	if m == nil {
		diags = append(diags, Diagnostic{HandRef: ref, Severity: SeverityError, Message: "missing hand id"})
		return HandRecord{}, diags, fmt.Errorf("missing hand id")
	}
	rec := HandRecord{HandID: m[1], Stages: map[Stage]*StageWindow{}, Contrib: map[string]float64{}}
	ref = rec.HandID

	warn := func(format string, args ...any) {
		diags = append(diags, Diagnostic{HandRef: ref, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	gm := gameInfoRe.FindStringSubmatch(fragment)
	if gm == nil {
		diags = append(diags, Diagnostic{HandRef: ref, Severity: SeverityError, Message: "missing game type or blinds"})
		return HandRecord{}, diags, fmt.Errorf("missing blinds")
	}
	rec.GameType = strings.TrimSpace(gm[1])
	rec.SmallBlind, _ = strconv.ParseFloat(gm[2], 64)
	rec.BigBlind, _ = strconv.ParseFloat(gm[3], 64)
	rec.Currency = gm[4]
	if rec.SmallBlind <= 0 || rec.BigBlind <= rec.SmallBlind {
		warn("suspicious blinds %g/%g", rec.SmallBlind, rec.BigBlind)
	}

	rec.PlayedAt, rec.Timezone = parseTimestamp(fragment, warn)

	if tm := tableRe.FindStringSubmatch(fragment); tm != nil {
		rec.TableName = tm[1]
		rec.TableType = tm[2]
	}
	if bm := buttonRe.FindStringSubmatch(fragment); bm != nil {
		rec.ButtonSeat, _ = strconv.Atoi(bm[1])
	}

	lines := strings.Split(fragment, "\n")
	markers := findStageMarkers(lines)

	rec.Seats = parseSeats(lines, markers)
	applyJoinStatus(lines, rec.Seats)

	sbPoster, bbPoster := findBlindPosters(lines)
	validateBlindOrder(&rec, sbPoster, bbPoster, warn)

	collectors := parseStages(lines, markers, &rec, warn)
	rec.Summary = parseSummary(lines, markers)
	resolveOutcome(&rec, collectors, warn)

	return rec, diags, nil
}

// parseTimestamp takes the first timestamp occurrence in the header. Only
// when the primary fails to parse does it fall back to a later (typically
// bracketed, timezone-qualified) occurrence, with a warning.
func parseTimestamp(fragment string, warn func(string, ...any)) (time.Time, string) {
	matches := timestampRe.FindAllStringSubmatch(fragment, 2)
	if len(matches) == 0 {
		warn("missing timestamp")
		return time.Time{}, ""
	}
	for i, m := range matches {
		ts, err := time.Parse(timestampLayout, m[1]+" "+m[2])
		if err != nil {
			continue
		}
		if i > 0 {
			warn("primary timestamp unparsable, using secondary")
		}
		return ts, m[3]
	}
	warn("unparsable timestamp %q", matches[0][0])
	return time.Time{}, ""
}

// parseSeats extracts the seat list from the lines before the first stage
// marker. Player names keep embedded spaces and punctuation: the name is
// everything up to the stack-size delimiter.
func parseSeats(lines []string, markers []stageMarker) []Seat {
	limit := len(lines)
	if len(markers) > 0 {
		limit = markers[0].line
	}

	var seats []Seat
	for _, line := range lines[:limit] {
		m := seatLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		stack, _ := strconv.ParseFloat(m[3], 64)
		status := StatusActive
		if strings.Contains(m[4], "is sitting out") {
			status = StatusSittingOut
		}
		seats = append(seats, Seat{Number: num, PlayerID: m[2], StartingStack: stack, Status: status})
	}
	return seats
}

// applyJoinStatus marks seats whose players joined mid-stream, signalled by
// an explicit join line or a dead small & big blind post.
func applyJoinStatus(lines []string, seats []Seat) {
	mark := func(player string) {
		for i := range seats {
			if seats[i].PlayerID == player && seats[i].Status == StatusActive {
				seats[i].Status = StatusJoined
			}
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, " joins the table"); idx > 0 {
			mark(line[:idx])
		}
		if idx := strings.LastIndex(line, ": posts small & big blinds"); idx > 0 {
			mark(line[:idx])
		}
	}
}

// findBlindPosters maps the blind posting lines to player names, used to
// validate seat ordering relative to the button.
func findBlindPosters(lines []string) (sb, bb string) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if idx := strings.LastIndex(line, ": posts small blind "); idx > 0 {
			sb = line[:idx]
		}
		if idx := strings.LastIndex(line, ": posts big blind "); idx > 0 {
			bb = line[:idx]
		}
	}
	return sb, bb
}

// validateBlindOrder checks that the small and big blind posters sit in the
// expected seats clockwise from the button. A mismatch is a warning only;
// the hand is still kept.
func validateBlindOrder(rec *HandRecord, sbPoster, bbPoster string, warn func(string, ...any)) {
	if rec.ButtonSeat == 0 || len(rec.Seats) < 2 || sbPoster == "" {
		return
	}
	seatOf := func(player string) int {
		for _, s := range rec.Seats {
			if s.PlayerID == player {
				return s.Number
			}
		}
		return -1
	}

	// Sitting-out seats are dealt out and never post.
	occupied := make([]int, 0, len(rec.Seats))
	for _, s := range rec.Seats {
		if s.Status != StatusSittingOut {
			occupied = append(occupied, s.Number)
		}
	}
	if len(occupied) < 2 {
		return
	}
	sort.Ints(occupied)

	next := func(seat int) int {
		for _, n := range occupied {
			if n > seat {
				return n
			}
		}
		return occupied[0]
	}

	expectedSB := next(rec.ButtonSeat)
	if len(occupied) == 2 {
		// Heads-up: the button posts the small blind.
		expectedSB = rec.ButtonSeat
	}
	if got := seatOf(sbPoster); got != -1 && got != expectedSB {
		warn("small blind posted from seat %d, expected seat %d", got, expectedSB)
		return
	}
	if bbPoster == "" {
		return
	}
	expectedBB := next(expectedSB)
	if got := seatOf(bbPoster); got != -1 && got != expectedBB {
		warn("big blind posted from seat %d, expected seat %d", got, expectedBB)
	}
}
