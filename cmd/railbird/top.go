package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// TopCmd lists the players with the best recomputed win rates.
type TopCmd struct {
	Limit    int `kong:"default='10',help='Number of players to show'"`
	MinHands int `kong:"default='100',help='Minimum hands for a player to rank'"`

	Config string `kong:"default='railbird.hcl',help='Configuration file'"`
	DB     string `kong:"help='Database path (overrides config)'"`
}

var (
	topHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	topWinStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	topLossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func (c *TopCmd) Run() error {
	_, st, err := openEnv(c.Config, c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	players, err := st.TopPlayers(c.Limit, c.MinHands)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Println("no players meet the thresholds; run 'railbird stats' after ingesting")
		return nil
	}

	fmt.Println(topHeaderStyle.Render(fmt.Sprintf("%-4s %-24s %10s %12s %10s",
		"#", "player", "hands", "mbb/hour", "hours")))
	for i, p := range players {
		rate := topWinStyle
		if p.MBBPerHour != nil && *p.MBBPerHour < 0 {
			rate = topLossStyle
		}
		fmt.Printf("%-4d %-24s %10d %s %10.1f\n",
			i+1, truncate(p.PlayerID, 24), p.TotalHands,
			rate.Render(fmt.Sprintf("%12s", formatRate(p.MBBPerHour))),
			p.ActiveHours)
	}
	return nil
}

// truncate shortens s to at most n display characters. Player names are
// arbitrary UTF-8, so slicing happens on runes, never bytes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
