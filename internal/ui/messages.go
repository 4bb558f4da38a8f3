package ui

import (
	"github.com/ngmaloney/tripscan/internal/chat"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/recommend"
)

// Message types for async operations. Messages tagged with a session
// are dropped when that session is no longer mounted.

// chatUpdatedMsg carries a fresh chat snapshot
type chatUpdatedMsg struct {
	session int
	state   chat.State
}

// chatSentMsg is sent when a send (and its follow-up fetch) completes
type chatSentMsg struct {
	session int
	err     error
}

// chatClearedMsg is sent when the thread has been cleared
type chatClearedMsg struct {
	session int
	err     error
}

// recommendationsFetchedMsg is sent when aggregation finishes
type recommendationsFetchedMsg struct {
	session int
	state   recommend.State
}

// itineraryFetchedMsg is sent when hotel and flights have been fetched
type itineraryFetchedMsg struct {
	city      string
	itinerary *models.Itinerary
	err       error
}
