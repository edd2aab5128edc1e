package handparse

import (
	"regexp"
	"strconv"
	"strings"
)

// stageMarker is a section delimiter line within a hand fragment.
type stageMarker struct {
	stage   Stage
	summary bool
	line    int
	text    string
}

var markerPrefixes = []struct {
	prefix  string
	stage   Stage
	summary bool
}{
	{"*** HOLE CARDS ***", StagePreflop, false},
	{"*** FLOP ***", StageFlop, false},
	{"*** TURN ***", StageTurn, false},
	{"*** RIVER ***", StageRiver, false},
	{"*** SHOW DOWN ***", StageShowdown, false},
	{"*** FIRST SHOW DOWN ***", StageShowdown, false},
	{"*** SUMMARY ***", "", true},
}

// findStageMarkers scans for section markers in file order. Absent stages
// simply produce no marker, which is how early-terminated hands end up with
// only the windows that actually occurred.
func findStageMarkers(lines []string) []stageMarker {
	var markers []stageMarker
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, mp := range markerPrefixes {
			if strings.HasPrefix(trimmed, mp.prefix) {
				markers = append(markers, stageMarker{stage: mp.stage, summary: mp.summary, line: i, text: trimmed})
				break
			}
		}
	}
	return markers
}

var (
	bracketRe  = regexp.MustCompile(`\[([^\]]+)\]`)
	collectRe  = regexp.MustCompile(`^(.+) collected [$€£]?([\d.]+)`)
	uncalledRe = regexp.MustCompile(`^Uncalled bet \([$€£]?([\d.]+)\) returned to (.+)$`)
	amountRe   = regexp.MustCompile(`[$€£]?([\d.]+)`)
	raiseRe    = regexp.MustCompile(`^raises [$€£]?([\d.]+) to [$€£]?([\d.]+)`)
)

// stageCards extracts the community cards newly revealed by a marker line.
// The raw text repeats prior cards for turn and river ("[Ah Kd 3c] [2s]"),
// so only the final bracket group's last card is kept for those stages.
func stageCards(stage Stage, markerText string) []string {
	groups := bracketRe.FindAllStringSubmatch(markerText, -1)
	if len(groups) == 0 {
		return nil
	}
	switch stage {
	case StageFlop:
		return strings.Fields(groups[0][1])
	case StageTurn, StageRiver:
		cards := strings.Fields(groups[len(groups)-1][1])
		if len(cards) == 0 {
			return nil
		}
		return cards[len(cards)-1:]
	default:
		return nil
	}
}

// noisePhrases are recognized table-state lines that carry no action and
// produce no diagnostic.
var noisePhrases = []string{
	" said, \"",
	" joins the table",
	" leaves the table",
	" is disconnected",
	" is connected",
	" has timed out",
	" has returned",
	" was removed from the table",
	" will be allowed to play after the button",
	": sits out",
	": is sitting out",
	": stands up",
}

func isNoiseLine(line string) bool {
	for _, phrase := range noisePhrases {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}

// parseStages walks each present stage window, tokenizes its action lines,
// and accumulates per-player pot contributions. It returns the pot
// collections seen in the body of the hand, keyed by player.
func parseStages(lines []string, markers []stageMarker, rec *HandRecord, warn func(string, ...any)) map[string]float64 {
	collectors := map[string]float64{}
	committed := map[string]float64{}

	seated := map[string]bool{}
	for _, s := range rec.Seats {
		seated[s.PlayerID] = true
	}

	// Blind and ante postings sit between the seat list and the HOLE CARDS
	// marker. They belong to the preflop window, and their street
	// contributions seed the preflop raise arithmetic (a big blind raising
	// to 3bb has only committed 2bb more).
	preludeEnd := len(lines)
	if len(markers) > 0 {
		preludeEnd = markers[0].line
	}
	pending, preludeStreet := parsePostings(lines[:preludeEnd], seated, committed)

	attachedPending := false
	for i, marker := range markers {
		if marker.summary {
			break
		}
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}

		window := &StageWindow{Cards: stageCards(marker.stage, marker.text)}
		street := map[string]float64{}
		if marker.stage == StagePreflop && !attachedPending {
			for _, ev := range pending {
				ev.Sequence = len(window.Actions)
				window.Actions = append(window.Actions, ev)
			}
			street = preludeStreet
			attachedPending = true
		}

		for _, line := range lines[marker.line+1 : end] {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "Dealt to ") || isNoiseLine(line) {
				continue
			}

			if m := uncalledRe.FindStringSubmatch(line); m != nil {
				amt, _ := strconv.ParseFloat(m[1], 64)
				committed[m[2]] -= amt
				continue
			}
			if m := collectRe.FindStringSubmatch(line); m != nil && !strings.Contains(m[1], ": ") {
				amt, _ := strconv.ParseFloat(m[2], 64)
				collectors[m[1]] += amt
				if !seated[m[1]] {
					warn("collector %q has no seat", m[1])
					continue
				}
				window.Actions = append(window.Actions, ActionEvent{
					PlayerID: m[1],
					Stage:    marker.stage,
					Kind:     KindCollect,
					Amount:   ptr(amt),
					Sequence: len(window.Actions),
				})
				continue
			}

			sep := strings.LastIndex(line, ": ")
			if sep < 0 {
				warn("unrecognized line in %s window: %q", marker.stage, line)
				continue
			}
			player, verb := line[:sep], line[sep+2:]

			// Antes move money into the pot but are not part of the
			// action vocabulary.
			if strings.HasPrefix(verb, "posts the ante ") {
				if amt := firstAmount(verb); amt != nil && seated[player] {
					street[player] += *amt
					committed[player] += *amt
				}
				continue
			}

			event, contributes, recognized := classifyAction(verb)
			if !recognized {
				warn("unrecognized action in %s window: %q", marker.stage, line)
				continue
			}
			if event == nil {
				continue
			}
			if !seated[player] {
				warn("action by unseated player %q in %s window", player, marker.stage)
				continue
			}

			event.PlayerID = player
			event.Stage = marker.stage
			event.Sequence = len(window.Actions)
			window.Actions = append(window.Actions, *event)

			if contributes {
				if event.RaiseTo != nil {
					delta := *event.RaiseTo - street[player]
					if delta < 0 {
						delta = 0
					}
					street[player] = *event.RaiseTo
					committed[player] += delta
				} else if event.Amount != nil {
					street[player] += *event.Amount
					committed[player] += *event.Amount
				}
			}
		}

		// Repeated markers (run-it-twice logs) merge into one window.
		if existing, ok := rec.Stages[marker.stage]; ok {
			for _, a := range window.Actions {
				a.Sequence = len(existing.Actions)
				existing.Actions = append(existing.Actions, a)
			}
		} else {
			rec.Stages[marker.stage] = window
		}
	}

	// Malformed hands can carry postings without a HOLE CARDS marker; keep
	// the events rather than dropping them.
	if !attachedPending && len(pending) > 0 {
		window := &StageWindow{}
		for _, ev := range pending {
			ev.Sequence = len(window.Actions)
			window.Actions = append(window.Actions, ev)
		}
		rec.Stages[StagePreflop] = window
	}

	// Every seated player gets an entry, zero included, so consumers can
	// tell "committed nothing" apart from "no contribution data".
	if rec.BigBlind > 0 {
		for _, s := range rec.Seats {
			bb := committed[s.PlayerID] / rec.BigBlind
			if bb < 0 {
				bb = 0
			}
			rec.Contrib[s.PlayerID] = bb
		}
	}
	return collectors
}

// parsePostings tokenizes the blind and ante lines before the first stage
// marker. Returned events carry the preflop stage; street holds the partial
// per-player street commitment they create.
func parsePostings(lines []string, seated map[string]bool, committed map[string]float64) ([]ActionEvent, map[string]float64) {
	var events []ActionEvent
	street := map[string]float64{}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		sep := strings.LastIndex(line, ": ")
		if sep < 0 {
			continue
		}
		player, verb := line[:sep], line[sep+2:]
		if !strings.HasPrefix(verb, "posts ") || !seated[player] {
			continue
		}

		if strings.HasPrefix(verb, "posts the ante ") {
			if amt := firstAmount(verb); amt != nil {
				street[player] += *amt
				committed[player] += *amt
			}
			continue
		}
		event, contributes, recognized := classifyAction(verb)
		if !recognized || event == nil {
			continue
		}
		event.PlayerID = player
		event.Stage = StagePreflop
		events = append(events, *event)
		if contributes && event.Amount != nil {
			street[player] += *event.Amount
			committed[player] += *event.Amount
		}
	}
	return events, street
}

// classifyAction tokenizes the text after the "player: " separator. The
// second result reports whether the action moves money into the pot, the
// third whether the verb was recognized at all.
func classifyAction(verb string) (event *ActionEvent, contributes, recognized bool) {
	allIn := strings.HasSuffix(verb, "and is all-in")

	switch {
	case verb == "folds" || strings.HasPrefix(verb, "folds "):
		return &ActionEvent{Kind: KindFold}, false, true
	case verb == "checks":
		return &ActionEvent{Kind: KindCheck}, false, true
	case strings.HasPrefix(verb, "calls "):
		kind := KindCall
		if allIn {
			kind = KindAllIn
		}
		return &ActionEvent{Kind: kind, Amount: firstAmount(verb)}, true, true
	case strings.HasPrefix(verb, "bets "):
		kind := KindBet
		if allIn {
			kind = KindAllIn
		}
		return &ActionEvent{Kind: kind, Amount: firstAmount(verb)}, true, true
	case strings.HasPrefix(verb, "raises "):
		kind := KindRaise
		if allIn {
			kind = KindAllIn
		}
		ev := &ActionEvent{Kind: kind}
		if m := raiseRe.FindStringSubmatch(verb); m != nil {
			amt, _ := strconv.ParseFloat(m[1], 64)
			to, _ := strconv.ParseFloat(m[2], 64)
			ev.Amount = &amt
			ev.RaiseTo = &to
		} else {
			ev.Amount = firstAmount(verb)
		}
		return ev, true, true
	case strings.HasPrefix(verb, "posts small blind "):
		return &ActionEvent{Kind: KindPostSmallBlind, Amount: firstAmount(verb)}, true, true
	case strings.HasPrefix(verb, "posts big blind "):
		return &ActionEvent{Kind: KindPostBigBlind, Amount: firstAmount(verb)}, true, true
	case strings.HasPrefix(verb, "posts small & big blinds "):
		// Dead blind from a returning player; counts toward the pot.
		return &ActionEvent{Kind: KindPostBigBlind, Amount: firstAmount(verb)}, true, true
	case strings.HasPrefix(verb, "shows "):
		return &ActionEvent{Kind: KindShow}, false, true
	case verb == "mucks hand" || verb == "doesn't show hand":
		return &ActionEvent{Kind: KindMuck}, false, true
	}
	return nil, false, false
}

// firstAmount extracts the leading monetary amount from an action verb.
func firstAmount(verb string) *float64 {
	m := amountRe.FindStringSubmatch(verb)
	if m == nil {
		return nil
	}
	amt, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &amt
}

func ptr(v float64) *float64 { return &v }
