package models

import "time"

// Hotel is the suggested accommodation for a destination
type Hotel struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"` // per night
}

// FlightTime is the structured departure time sent by the backend
type FlightTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"` // 1-12
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// Time converts the record to a time.Time in the given location
func (ft FlightTime) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(ft.Year, time.Month(ft.Month), ft.Day, ft.Hour, ft.Minute, ft.Second, 0, loc)
}

// IsZero reports whether no departure time was provided
func (ft FlightTime) IsZero() bool {
	return ft == FlightTime{}
}

// Flight is one leg of the group trip
type Flight struct {
	Origin      string
	Destination string
	Airline     string
	Price       float64
	Departure   time.Time
}

// Itinerary collects booking details for a chosen destination
type Itinerary struct {
	City     string
	Hotel    *Hotel
	Outbound *Flight
	Inbound  *Flight
}

// TotalPrice sums the hotel and both flights, skipping missing parts
func (it *Itinerary) TotalPrice() float64 {
	var total float64
	if it.Hotel != nil {
		total += it.Hotel.Price
	}
	if it.Outbound != nil {
		total += it.Outbound.Price
	}
	if it.Inbound != nil {
		total += it.Inbound.Price
	}
	return total
}
