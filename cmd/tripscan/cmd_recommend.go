package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/tripscan/internal/itinerary"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/recommend"
	"github.com/spf13/cobra"
)

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Show destinations ranked for the group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := recommend.New(a.client, a.cfg.Recommendations.TopN, a.cfg.GetMaxConcurrency(), a.logger)
			if err := agg.FetchRecommendations(cmd.Context()); err != nil {
				return fmt.Errorf("fetching recommendations: %w", err)
			}
			state := agg.Snapshot()

			out := cmd.OutOrStdout()
			if len(state.Scores) == 0 {
				fmt.Fprintln(out, "No recommendations yet. Chat a little more!")
				return nil
			}

			for i, s := range state.Scores {
				fmt.Fprintf(out, "%d. %s, %s  %d%% match\n", i+1, s.City, s.Country, s.MatchScore)
				if i < a.cfg.Recommendations.TopN {
					image := s.ImageURL
					if image == "" {
						image = a.cfg.Recommendations.FallbackImageURL
					}
					fmt.Fprintf(out, "   image: %s\n", image)
				}
			}

			if len(state.Preferences) > 0 {
				fmt.Fprintln(out, "\nGroup preferences:")
				for _, name := range state.Preferences.SortedFeatures() {
					fmt.Fprintf(out, "  %-16s %.0f%%\n", name, state.Preferences[name]*100)
				}
			}
			return nil
		},
	}
}

func newItineraryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "itinerary <city>",
		Short: "Show hotel and flights for a destination",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			city := strings.Join(args, " ")
			planner := itinerary.NewPlanner(a.client, a.identity.Current(), a.logger)

			it, err := planner.Fetch(cmd.Context(), city)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Itinerary for %s\n\n", it.City)
			if it.Hotel != nil {
				fmt.Fprintf(out, "Hotel:    %s ($%s/night)\n", it.Hotel.Name, humanize.CommafWithDigits(it.Hotel.Price, 2))
			} else {
				fmt.Fprintln(out, "Hotel:    none found")
			}

			fmt.Fprintf(out, "Outbound: %s\n", formatFlight(it.Outbound))
			fmt.Fprintf(out, "Return:   %s\n", formatFlight(it.Inbound))

			fmt.Fprintf(out, "\nEstimated total: $%s\n", humanize.CommafWithDigits(it.TotalPrice(), 2))
			return nil
		},
	}
}

func formatFlight(f *models.Flight) string {
	if f == nil {
		return "none found"
	}
	line := fmt.Sprintf("%s -> %s, %s, $%s", f.Origin, f.Destination, f.Airline, humanize.CommafWithDigits(f.Price, 2))
	if !f.Departure.IsZero() {
		line += fmt.Sprintf(", departs %s (%s)", f.Departure.Format("Mon Jan 2 15:04"), humanize.Time(f.Departure))
	}
	return line
}
