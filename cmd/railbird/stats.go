package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/railbird/cmd/railbird/shared"
	"github.com/lox/railbird/internal/sessions"
	"github.com/lox/railbird/internal/store"
)

// StatsCmd recomputes every player's sessions and win rates from the stored
// hands, replacing any previous results.
type StatsCmd struct {
	Player string `kong:"arg,optional,help='Print detailed statistics for one player'"`

	Config  string `kong:"default='railbird.hcl',help='Configuration file'"`
	DB      string `kong:"help='Database path (overrides config)'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	LogJSON bool   `kong:"name='log-json',help='Emit structured JSON logs'"`
}

var (
	statsHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

func (c *StatsCmd) Run() error {
	logger := shared.NewLogger(c.Debug, c.LogJSON)

	_, st, err := openEnv(c.Config, c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	players, err := recomputeStats(st)
	if err != nil {
		return err
	}
	logger.Info().Int("players", players).Msg("player statistics recomputed")

	if c.Player == "" {
		hands, err := st.HandCount()
		if err != nil {
			return err
		}
		fmt.Printf("%d hands, %d players\n", hands, players)
		return nil
	}

	stats, err := st.PlayerStats(c.Player)
	if err != nil {
		return err
	}
	printPlayerStats(stats)
	return nil
}

// recomputeStats rebuilds sessions, timelines, and win rates for every
// player seen in the stored hands. Results fully replace prior rows.
func recomputeStats(st *store.Store) (int, error) {
	refs, err := st.ListHandRefs()
	if err != nil {
		return 0, err
	}
	reports := sessions.Reconstruct(refs)

	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := st.ReplacePlayerStats(reports[id]); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func printPlayerStats(s sessions.PlayerStats) {
	fmt.Println(statsHeaderStyle.Render(s.PlayerID))
	rows := []struct {
		label string
		value string
	}{
		{"hands", fmt.Sprintf("%d", s.TotalHands)},
		{"sessions", fmt.Sprintf("%d across %d tables", s.TableSessions, s.Tables)},
		{"active hours", fmt.Sprintf("%.2f", s.ActiveHours)},
		{"total bb", fmt.Sprintf("%+.1f", s.TotalBB)},
		{"mbb/hand", fmt.Sprintf("%.1f", s.MBBPerHand)},
		{"mbb/hour", formatRate(s.MBBPerHour)},
		{"hands/hour", formatRate(s.HandsPerHour)},
	}
	if !s.FirstHandAt.IsZero() {
		rows = append(rows, struct{ label, value string }{
			"first hand", s.FirstHandAt.Format("2006-01-02 15:04"),
		}, struct{ label, value string }{
			"last hand", s.LastHandAt.Format("2006-01-02 15:04"),
		})
	}
	for _, row := range rows {
		fmt.Printf("  %s %s\n",
			statsLabelStyle.Render(fmt.Sprintf("%-12s", row.label)),
			statsValueStyle.Render(row.value))
	}
}

// formatRate renders a nullable hourly rate; undefined rates print as n/a
// rather than zero.
func formatRate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f", *v))
}
