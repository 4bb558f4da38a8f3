package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/spf13/cobra"
)

func newCitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cities [query]",
		Short: "List origin cities, or search them by name, airport code or country",
		Example: `  tripscan cities
  tripscan cities par
  tripscan cities LIS
  tripscan cities "united states"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				printCities(out, a.directory.All())
				return nil
			}

			matches := a.directory.Search(query)
			// An exact airport code is listed first
			if city, ok := a.directory.ByCode(query); ok {
				rest := make([]models.City, 0, len(matches))
				for _, c := range matches {
					if c.ID != city.ID {
						rest = append(rest, c)
					}
				}
				matches = append([]models.City{city}, rest...)
			}

			if len(matches) == 0 {
				fmt.Fprintf(out, "No cities match %q.\n", query)
				return nil
			}
			printCities(out, matches)
			return nil
		},
	}
}

func printCities(w io.Writer, list []models.City) {
	for _, c := range list {
		fmt.Fprintf(w, "%-4s %-20s %s\n", c.Code, c.Name, c.Country)
	}
}
