// Package phh encodes hand records in the PHH (poker hand history) TOML
// interchange format.
package phh

// HandHistory is a single hand encoded in PHH format. Monetary fields are
// integers in cents, per the format's no-floats convention.
type HandHistory struct {
	Variant           string   `toml:"variant"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitempty"`
	Seats             []int    `toml:"seats,omitempty"`
	Antes             []int    `toml:"antes"`
	BlindsOrStraddles []int    `toml:"blinds_or_straddles"`
	MinBet            int      `toml:"min_bet"`
	StartingStacks    []int    `toml:"starting_stacks"`
	Winnings          []int    `toml:"winnings,omitempty"`
	Actions           []string `toml:"actions"`
	Players           []string `toml:"players,omitempty"`
	HandID            string   `toml:"hand"`
	Currency          string   `toml:"currency,omitempty"`
	Time              string   `toml:"time,omitempty"`
	TimeZoneAbbrev    string   `toml:"time_zone_abbreviation,omitempty"`
	Day               int      `toml:"day,omitempty"`
	Month             int      `toml:"month,omitempty"`
	Year              int      `toml:"year,omitempty"`
}
