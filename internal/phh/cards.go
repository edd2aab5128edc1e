package phh

import "strings"

// NormalizeCard converts site notation (e.g. 10h, AH) to PHH notation (Th, Ah).
func NormalizeCard(card string) string {
	card = strings.TrimSpace(card)
	if len(card) < 2 {
		return strings.ToUpper(card)
	}
	suit := strings.ToLower(card[len(card)-1:])
	rank := strings.ToUpper(card[:len(card)-1])
	if rank == "10" {
		rank = "T"
	}
	return rank + suit
}

// NormalizeCards normalizes a slice of card strings.
func NormalizeCards(cards []string) []string {
	if len(cards) == 0 {
		return nil
	}
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = NormalizeCard(c)
	}
	return out
}
