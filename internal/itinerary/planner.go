// Package itinerary assembles hotel and flight details for a chosen
// destination.
package itinerary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Planner fetches booking details on behalf of one user
type Planner struct {
	client   tripapi.ItineraryClient
	user     models.User
	location *time.Location
	logger   *zap.Logger
}

// NewPlanner creates a planner for user. Departure times are
// interpreted in the local time zone.
func NewPlanner(client tripapi.ItineraryClient, user models.User, logger *zap.Logger) *Planner {
	return &Planner{
		client:   client,
		user:     user,
		location: time.Local,
		logger:   logging.OrNop(logger).With(zap.String("component", "itinerary")),
	}
}

// Fetch retrieves the hotel and both flight legs for city concurrently.
// Either request failing fails the whole fetch.
func (p *Planner) Fetch(ctx context.Context, city string) (*models.Itinerary, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}

	var (
		hotel   *tripapi.HotelRecord
		flights *tripapi.FlightInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := p.client.GetHotel(gctx, city)
		if err != nil {
			return fmt.Errorf("fetching hotel for %s: %w", city, err)
		}
		hotel = h
		return nil
	})
	g.Go(func() error {
		f, err := p.client.GetFlightInfo(gctx, city, p.user.ID)
		if err != nil {
			return fmt.Errorf("fetching flights for %s: %w", city, err)
		}
		flights = f
		return nil
	})

	if err := g.Wait(); err != nil {
		p.logger.Error("itinerary fetch failed", zap.String("city", city), zap.Error(err))
		return nil, err
	}

	it := &models.Itinerary{City: city}
	if hotel != nil {
		it.Hotel = &models.Hotel{Name: hotel.Name, Price: hotel.Price}
	}
	if flights != nil {
		it.Outbound = p.toFlight(flights.Outbound)
		it.Inbound = p.toFlight(flights.Inbound)
	}
	return it, nil
}

func (p *Planner) toFlight(r *tripapi.FlightRecord) *models.Flight {
	if r == nil {
		return nil
	}
	f := &models.Flight{
		Origin:      r.Origin,
		Destination: r.Destination,
		Airline:     r.Airline,
		Price:       r.Price,
	}
	if !r.DepartureTime.IsZero() {
		f.Departure = r.DepartureTime.Time(p.location)
	}
	return f
}
