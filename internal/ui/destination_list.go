package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/ngmaloney/tripscan/internal/models"
)

// destinationItem wraps a DestinationScore for use in a list
type destinationItem struct {
	rank     int
	score    models.DestinationScore
	fallback string
}

// FilterValue implements list.Item
func (d destinationItem) FilterValue() string {
	return d.score.City + " " + d.score.Country
}

// Title implements list.DefaultItem
func (d destinationItem) Title() string {
	return fmt.Sprintf("%d. %s, %s", d.rank, d.score.City, d.score.Country)
}

// Description implements list.DefaultItem
func (d destinationItem) Description() string {
	return fmt.Sprintf("%d%% match • %s", d.score.MatchScore, d.imageURL())
}

// imageURL returns the resolved image, or the placeholder when the lookup failed
func (d destinationItem) imageURL() string {
	if d.score.ImageURL != "" {
		return d.score.ImageURL
	}
	return d.fallback
}

// createDestinationList creates a list.Model from ranked scores
func createDestinationList(scores []models.DestinationScore, fallback string, width, height int) list.Model {
	items := make([]list.Item, len(scores))
	for i, score := range scores {
		items[i] = destinationItem{rank: i + 1, score: score, fallback: fallback}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Recommended Destinations"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)

	return l
}
