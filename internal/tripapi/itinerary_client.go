package tripapi

import (
	"context"
	"net/url"

	"github.com/ngmaloney/tripscan/internal/models"
)

// HotelRecord is the hotel suggestion for a city
type HotelRecord struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FlightRecord is one flight leg as sent by the backend
type FlightRecord struct {
	DepartureTime models.FlightTime `json:"departure_time"`
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	Airline       string            `json:"airline"`
	Price         float64           `json:"price"`
}

// FlightInfo holds both legs; either may be nil
type FlightInfo struct {
	Outbound *FlightRecord `json:"outbound"`
	Inbound  *FlightRecord `json:"inbound"`
}

// GetHotel retrieves the suggested hotel for a city
func (c *BackendClient) GetHotel(ctx context.Context, city string) (*HotelRecord, error) {
	params := url.Values{}
	params.Add("city", city)

	var hotel HotelRecord
	if err := c.getJSON(ctx, "/hotels?"+params.Encode(), &hotel); err != nil {
		return nil, err
	}
	return &hotel, nil
}

// GetFlightInfo retrieves outbound and inbound flights for the user
func (c *BackendClient) GetFlightInfo(ctx context.Context, city, userID string) (*FlightInfo, error) {
	params := url.Values{}
	params.Add("city", city)
	params.Add("user_id", userID)

	var info FlightInfo
	if err := c.getJSON(ctx, "/flight_info?"+params.Encode(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
