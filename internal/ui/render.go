package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/tripscan/internal/models"
)

// renderMessages renders the chat thread for the viewport
func renderMessages(msgs []models.Message, now time.Time) string {
	if len(msgs) == 0 {
		return mutedStyle.Render("No messages yet. Say where you'd like to go!")
	}

	var lines []string
	for _, msg := range msgs {
		lines = append(lines, renderMessage(msg, now), "")
	}
	return strings.Join(lines, "\n")
}

func renderMessage(msg models.Message, now time.Time) string {
	author := memberAuthorStyle.Render(msg.User.Name)
	if msg.IsCurrentUser {
		author = ownAuthorStyle.Render(msg.User.Name)
	}

	header := author + " " + mutedStyle.Render(relativeTime(msg.Timestamp, now))
	if msg.Pending {
		header += " " + pendingStyle.Render("sending...")
	}

	var body []string
	if msg.Content != "" {
		body = append(body, valueStyle.Render(msg.Content))
	}
	if msg.HasImage() {
		body = append(body, mutedStyle.Render("[image]"))
	}

	return header + "\n" + strings.Join(body, "\n")
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// renderPreferences lists group preferences heaviest first
func renderPreferences(prefs models.AggregatePreferences) string {
	if len(prefs) == 0 {
		return mutedStyle.Render("No preferences detected yet")
	}

	var lines []string
	for _, name := range prefs.SortedFeatures() {
		lines = append(lines, fmt.Sprintf("%s %s",
			labelStyle.Render(fmt.Sprintf("%-16s", name)),
			valueStyle.Render(fmt.Sprintf("%.0f%%", prefs[name]*100)),
		))
	}
	return strings.Join(lines, "\n")
}

// renderItinerary renders the hotel and both flight legs
func renderItinerary(it *models.Itinerary, now time.Time) string {
	if it == nil {
		return mutedStyle.Render("No itinerary available")
	}

	var lines []string

	lines = append(lines, sectionHeaderStyle.Render("HOTEL"))
	if it.Hotel != nil {
		lines = append(lines, fmt.Sprintf("  %s  %s", valueStyle.Render(it.Hotel.Name),
			mutedStyle.Render(formatPrice(it.Hotel.Price)+" / night")))
	} else {
		lines = append(lines, mutedStyle.Render("  No hotel found"))
	}

	lines = append(lines, sectionHeaderStyle.Render("OUTBOUND"), renderFlight(it.Outbound, now))
	lines = append(lines, sectionHeaderStyle.Render("RETURN"), renderFlight(it.Inbound, now))

	lines = append(lines, "", fmt.Sprintf("%s %s", labelStyle.Render("Estimated total:"),
		successStyle.Render(formatPrice(it.TotalPrice()))))

	return strings.Join(lines, "\n")
}

func renderFlight(f *models.Flight, now time.Time) string {
	if f == nil {
		return mutedStyle.Render("  No flight found")
	}

	line := fmt.Sprintf("  %s → %s  %s  %s", f.Origin, f.Destination, f.Airline, formatPrice(f.Price))
	if !f.Departure.IsZero() {
		line += "\n  " + mutedStyle.Render(fmt.Sprintf("departs %s (%s)",
			f.Departure.Format("Mon Jan 2 15:04"), relativeTime(f.Departure, now)))
	}
	return line
}

func formatPrice(p float64) string {
	return "$" + humanize.CommafWithDigits(p, 2)
}
