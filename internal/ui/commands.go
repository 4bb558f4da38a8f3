package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/tripscan/internal/chat"
	"github.com/ngmaloney/tripscan/internal/itinerary"
	"github.com/ngmaloney/tripscan/internal/recommend"
)

const requestTimeout = 30 * time.Second

// imageCommand prefixes chat input that attaches a file
const imageCommand = "/image "

// waitForChatUpdate blocks until the synchronizer signals a change.
// It returns nil once the synchronizer has been stopped.
func waitForChatUpdate(session int, s *chat.Synchronizer) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-s.Updates(); !ok {
			return nil
		}
		return chatUpdatedMsg{session: session, state: s.Snapshot()}
	}
}

// sendChatMessage submits input. "/image <path> [caption]" sends the
// file at path as an image.
func sendChatMessage(session int, s *chat.Synchronizer, input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		content, image, err := parseChatInput(input)
		if err != nil {
			return chatSentMsg{session: session, err: err}
		}
		err = s.SendMessage(ctx, content, image)
		return chatSentMsg{session: session, err: err}
	}
}

func parseChatInput(input string) (content string, image []byte, err error) {
	if !strings.HasPrefix(input, imageCommand) {
		return input, nil, nil
	}

	rest := strings.TrimSpace(strings.TrimPrefix(input, imageCommand))
	path, caption, _ := strings.Cut(rest, " ")
	if path == "" {
		return "", nil, fmt.Errorf("usage: %s<path> [caption]", imageCommand)
	}
	image, err = os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading image: %w", err)
	}
	return strings.TrimSpace(caption), image, nil
}

// clearChat empties the shared thread
func clearChat(session int, s *chat.Synchronizer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := s.ClearMessages(ctx)
		return chatClearedMsg{session: session, err: err}
	}
}

// fetchRecommendations runs the one-shot aggregation
func fetchRecommendations(session int, a *recommend.Aggregator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_ = a.FetchRecommendations(ctx)
		return recommendationsFetchedMsg{session: session, state: a.Snapshot()}
	}
}

// fetchItinerary fetches hotel and flights for city
func fetchItinerary(p *itinerary.Planner, city string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		it, err := p.Fetch(ctx, city)
		return itineraryFetchedMsg{city: city, itinerary: it, err: err}
	}
}
