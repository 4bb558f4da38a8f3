// Package cities provides the static directory of origin cities
package cities

import (
	"strings"

	"github.com/ngmaloney/tripscan/internal/models"
)

// MaxResults caps the number of cities returned by a search
const MaxResults = 5

// Directory is a read-only list of cities, populated once
type Directory struct {
	cities []models.City
}

// NewDirectory creates a directory over the built-in city list
func NewDirectory() *Directory {
	return NewDirectoryFrom(getDefaultCities())
}

// NewDirectoryFrom creates a directory over a caller supplied list
func NewDirectoryFrom(list []models.City) *Directory {
	cities := make([]models.City, len(list))
	copy(cities, list)
	return &Directory{cities: cities}
}

// Search returns up to MaxResults cities whose name, code or country
// contains the query, ignoring case. Order follows the directory.
func (d *Directory) Search(query string) []models.City {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.City{}
	}

	results := make([]models.City, 0, MaxResults)
	for _, city := range d.cities {
		if strings.Contains(strings.ToLower(city.Name), query) ||
			strings.Contains(strings.ToLower(city.Code), query) ||
			strings.Contains(strings.ToLower(city.Country), query) {
			results = append(results, city)
			if len(results) == MaxResults {
				break
			}
		}
	}
	return results
}

// All returns every city in directory order
func (d *Directory) All() []models.City {
	all := make([]models.City, len(d.cities))
	copy(all, d.cities)
	return all
}

// ByCode looks up a city by its airport code
func (d *Directory) ByCode(code string) (models.City, bool) {
	for _, city := range d.cities {
		if strings.EqualFold(city.Code, code) {
			return city, true
		}
	}
	return models.City{}, false
}

func getDefaultCities() []models.City {
	return []models.City{
		{ID: "1", Name: "London", Code: "LHR", Country: "United Kingdom"},
		{ID: "2", Name: "New York", Code: "JFK", Country: "United States"},
		{ID: "3", Name: "Paris", Code: "CDG", Country: "France"},
		{ID: "4", Name: "Tokyo", Code: "NRT", Country: "Japan"},
		{ID: "5", Name: "Dubai", Code: "DXB", Country: "United Arab Emirates"},
		{ID: "6", Name: "Barcelona", Code: "BCN", Country: "Spain"},
		{ID: "7", Name: "Rome", Code: "FCO", Country: "Italy"},
		{ID: "8", Name: "Amsterdam", Code: "AMS", Country: "Netherlands"},
		{ID: "9", Name: "Sydney", Code: "SYD", Country: "Australia"},
		{ID: "10", Name: "Singapore", Code: "SIN", Country: "Singapore"},
		{ID: "11", Name: "Hong Kong", Code: "HKG", Country: "China"},
		{ID: "12", Name: "San Francisco", Code: "SFO", Country: "United States"},
		{ID: "13", Name: "Los Angeles", Code: "LAX", Country: "United States"},
		{ID: "14", Name: "Toronto", Code: "YYZ", Country: "Canada"},
		{ID: "15", Name: "Berlin", Code: "TXL", Country: "Germany"},
		{ID: "16", Name: "Bangkok", Code: "BKK", Country: "Thailand"},
		{ID: "17", Name: "Istanbul", Code: "IST", Country: "Turkey"},
		{ID: "18", Name: "Moscow", Code: "SVO", Country: "Russia"},
		{ID: "19", Name: "Rio de Janeiro", Code: "GIG", Country: "Brazil"},
		{ID: "20", Name: "Buenos Aires", Code: "EZE", Country: "Argentina"},
		{ID: "21", Name: "Cairo", Code: "CAI", Country: "Egypt"},
		{ID: "22", Name: "Seoul", Code: "ICN", Country: "South Korea"},
		{ID: "23", Name: "Mumbai", Code: "BOM", Country: "India"},
		{ID: "24", Name: "Lima", Code: "LIM", Country: "Peru"},
		{ID: "25", Name: "Kuala Lumpur", Code: "KUL", Country: "Malaysia"},
		{ID: "26", Name: "Santiago", Code: "SCL", Country: "Chile"},
		{ID: "27", Name: "Lisbon", Code: "LIS", Country: "Portugal"},
		{ID: "28", Name: "Vienna", Code: "VIE", Country: "Austria"},
		{ID: "29", Name: "Brussels", Code: "BRU", Country: "Belgium"},
		{ID: "30", Name: "Stockholm", Code: "ARN", Country: "Sweden"},
		{ID: "31", Name: "Oslo", Code: "OSL", Country: "Norway"},
		{ID: "32", Name: "Helsinki", Code: "HEL", Country: "Finland"},
		{ID: "33", Name: "Copenhagen", Code: "CPH", Country: "Denmark"},
		{ID: "34", Name: "Dublin", Code: "DUB", Country: "Ireland"},
		{ID: "35", Name: "Athens", Code: "ATH", Country: "Greece"},
		{ID: "36", Name: "Budapest", Code: "BUD", Country: "Hungary"},
		{ID: "37", Name: "Nairobi", Code: "NBO", Country: "Kenya"},
		{ID: "38", Name: "Manila", Code: "MNL", Country: "Philippines"},
		{ID: "39", Name: "Jakarta", Code: "CGK", Country: "Indonesia"},
	}
}
