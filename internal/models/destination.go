package models

import (
	"math"
	"sort"
)

// DestinationScore is one ranked destination produced by the group analysis
type DestinationScore struct {
	City       string
	Country    string
	MatchScore int                // 0-100
	Features   map[string]float64 // named feature weights
	ImageURL   string             // resolved after the ranked list arrives; empty if unresolved
}

// AggregatePreferences summarizes the group's inferred priorities
type AggregatePreferences map[string]float64

// RoundScore converts a raw backend score to an integer in [0, 100].
// Halves round away from zero, so 91.5 becomes 92.
func RoundScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RankDestinations sorts scores from best to worst match.
// Ties keep their backend order.
func RankDestinations(scores []DestinationScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].MatchScore > scores[j].MatchScore
	})
}

// SortedFeatures returns the preference names ordered by weight, heaviest first
func (p AggregatePreferences) SortedFeatures() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if p[names[i]] == p[names[j]] {
			return names[i] < names[j]
		}
		return p[names[i]] > p[names[j]]
	})
	return names
}
