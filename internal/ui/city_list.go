package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/ngmaloney/tripscan/internal/models"
)

// cityItem wraps a City for use in a list
type cityItem struct {
	city models.City
}

// FilterValue implements list.Item
func (c cityItem) FilterValue() string {
	return c.city.Name
}

// Title implements list.DefaultItem
func (c cityItem) Title() string {
	return c.city.Label()
}

// Description implements list.DefaultItem
func (c cityItem) Description() string {
	return c.city.Country
}

func cityItems(cities []models.City) []list.Item {
	items := make([]list.Item, len(cities))
	for i, city := range cities {
		items[i] = cityItem{city: city}
	}
	return items
}

// createCityList creates the list of origin matches. The text input
// does the filtering, so the list's own filter is off.
func createCityList(cities []models.City, width, height int) list.Model {
	l := list.New(cityItems(cities), list.NewDefaultDelegate(), width, height)
	l.Title = "Matching Cities"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return l
}
