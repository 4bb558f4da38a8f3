package models

// City is an origin or destination city from the static directory
type City struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"` // IATA code (e.g. "BCN")
	Country string `json:"country"`
}

// Label returns the display form used in lists, e.g. "Barcelona (BCN)"
func (c City) Label() string {
	if c.Code == "" {
		return c.Name
	}
	return c.Name + " (" + c.Code + ")"
}
