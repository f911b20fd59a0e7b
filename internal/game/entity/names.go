package entity

import "github.com/pmourey/fungame/internal/game/dice"

// Word lists for friendly generated display names.
var (
	adjectives = []string{
		"Brave", "Mighty", "Swift", "Clever", "Fierce",
		"Nimble", "Bold", "Silent", "Lucky", "Wise",
	}
	nouns = []string{
		"Fox", "Wolf", "Hawk", "Bear", "Lion",
		"Raven", "Tiger", "Otter", "Eagle", "Stag",
	}
)

// RandomName returns a friendly two-word display name such as "Brave Fox".
//
// Precondition: src must be non-nil.
func RandomName(src dice.Source) string {
	return adjectives[src.Intn(len(adjectives))] + " " + nouns[src.Intn(len(nouns))]
}
