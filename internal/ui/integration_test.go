package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/tripapi"
)

// Mock clients for testing

type mockChatClient struct {
	mu       sync.Mutex
	messages []tripapi.RemoteMessage
	err      error
}

func (m *mockChatClient) GetMessages(ctx context.Context) ([]tripapi.RemoteMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]tripapi.RemoteMessage(nil), m.messages...), nil
}

func (m *mockChatClient) SendMessage(ctx context.Context, userID, content string) (*tripapi.SendAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	id := fmt.Sprintf("%d", len(m.messages)+1)
	m.messages = append(m.messages, tripapi.RemoteMessage{ID: id, UserID: userID, Content: content, Timestamp: time.Now()})
	return &tripapi.SendAck{Status: "success", MessageID: id}, nil
}

func (m *mockChatClient) SendMessageImage(ctx context.Context, userID, content, imageDataURL string) (*tripapi.SendAck, error) {
	return m.SendMessage(ctx, userID, content)
}

func (m *mockChatClient) ClearChat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return m.err
}

type mockRecommendationClient struct {
	recs *tripapi.Recommendations
	err  error
}

func (m *mockRecommendationClient) GetRecommendations(ctx context.Context) (*tripapi.Recommendations, error) {
	return m.recs, m.err
}

func (m *mockRecommendationClient) GetCityImage(ctx context.Context, city string) (string, error) {
	if city == "Rome" {
		return "", fmt.Errorf("no image for %s", city)
	}
	return "https://img.example/" + strings.ToLower(city) + ".jpg", nil
}

type mockItineraryClient struct {
	err error
}

func (m *mockItineraryClient) GetHotel(ctx context.Context, city string) (*tripapi.HotelRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &tripapi.HotelRecord{Name: "Grand " + city, Price: 210}, nil
}

func (m *mockItineraryClient) GetFlightInfo(ctx context.Context, city, userID string) (*tripapi.FlightInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &tripapi.FlightInfo{
		Outbound: &tripapi.FlightRecord{Origin: "JFK", Destination: "BCN", Airline: "Iberia", Price: 480,
			DepartureTime: models.FlightTime{Year: 2030, Month: 5, Day: 1, Hour: 8}},
	}, nil
}

func newTestModel(chatClient *mockChatClient, itin *mockItineraryClient) Model {
	m := NewModel(Deps{
		ChatClient: chatClient,
		Recommendations: &mockRecommendationClient{recs: &tripapi.Recommendations{
			Top: []tripapi.Recommendation{
				{City: "Rome", Country: "Italy", MatchScore: 70.5},
				{City: "Barcelona", Country: "Spain", MatchScore: 91.6},
			},
			Preferences: map[string]float64{"beach": 0.7},
		}},
		Itineraries:      itin,
		User:             models.User{ID: "me", Name: models.CurrentUserName},
		PollInterval:     time.Hour,
		FallbackImageURL: "https://placeholder.example/404.png",
	})
	updatedModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updatedModel.(Model)
}

// TestIntegration_ChatToItinerary walks the whole flow with mock clients
func TestIntegration_ChatToItinerary(t *testing.T) {
	chatClient := &mockChatClient{messages: []tripapi.RemoteMessage{
		{ID: "1", UserID: "friend", Content: "Beach please", Timestamp: time.Now()},
	}}
	m := newTestModel(chatClient, &mockItineraryClient{})

	// Step 1: pick an origin
	m = typeText(m, "new")
	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updatedModel.(Model)

	if m.state != StateChat {
		t.Fatalf("state = %v, want StateChat", m.state)
	}
	if m.origin == nil || m.origin.Name != "New York" {
		t.Fatalf("origin = %+v, want New York", m.origin)
	}
	session := m.sync
	defer func() {
		session.Stop()
		session.Wait()
	}()

	// Step 2: the first poll arrives
	msg := waitForChatUpdate(m.chatSession, m.sync)()
	updatedModel, _ = m.Update(msg)
	m = updatedModel.(Model)

	if len(m.chatState.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(m.chatState.Messages))
	}
	if got := m.chatState.Messages[0].User.Name; got != models.MemberName {
		t.Errorf("author = %q, want %q", got, models.MemberName)
	}

	// Step 3: send a message
	sent := sendChatMessage(m.chatSession, m.sync, "Barcelona!")().(chatSentMsg)
	if sent.err != nil {
		t.Fatalf("send failed: %v", sent.err)
	}
	state := m.sync.Snapshot()
	if len(state.Messages) != 2 || !state.Messages[1].IsCurrentUser || state.Messages[1].Pending {
		t.Errorf("after send, messages = %+v", state.Messages)
	}

	// Step 4: go to results; leaving the chat stops the synchronizer
	updatedModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updatedModel.(Model)

	if m.state != StateResults {
		t.Fatalf("state = %v, want StateResults", m.state)
	}
	if m.sync != nil {
		t.Error("Expected chat synchronizer to be torn down")
	}
	if _, open := <-session.Updates(); open {
		// drain a pending signal, the channel must then be closed
		if _, open := <-session.Updates(); open {
			t.Error("Expected updates channel to be closed")
		}
	}

	updatedModel, _ = m.Update(fetchRecommendations(m.resultsSession, m.aggregator)())
	m = updatedModel.(Model)

	if !m.resultsReady {
		t.Fatal("Expected results to be ready")
	}
	items := m.resultList.Items()
	if len(items) != 2 {
		t.Fatalf("got %d destinations, want 2", len(items))
	}
	top := items[0].(destinationItem)
	if top.score.City != "Barcelona" || top.score.MatchScore != 92 {
		t.Errorf("top destination = %+v", top.score)
	}
	if rome := items[1].(destinationItem); rome.imageURL() != "https://placeholder.example/404.png" {
		t.Errorf("Rome image = %q, want placeholder", rome.imageURL())
	}

	// Step 5: open the itinerary for the top destination
	updatedModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updatedModel.(Model)

	if m.state != StateItinerary || m.itineraryCity != "Barcelona" {
		t.Fatalf("state = %v city = %q", m.state, m.itineraryCity)
	}

	updatedModel, _ = m.Update(fetchItinerary(m.planner, "Barcelona")())
	m = updatedModel.(Model)

	if m.itinerary == nil || m.itinerary.Hotel.Name != "Grand Barcelona" {
		t.Fatalf("itinerary = %+v", m.itinerary)
	}
	view := m.View()
	for _, want := range []string{"Grand Barcelona", "JFK → BCN", "Iberia"} {
		if !strings.Contains(view, want) {
			t.Errorf("itinerary view missing %q", want)
		}
	}

	// Step 6: back to results keeps the list
	updatedModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(Model)
	if m.state != StateResults || !m.resultsReady {
		t.Errorf("state = %v ready = %v, want results", m.state, m.resultsReady)
	}
}

// TestIntegration_ErrorHandling verifies backend failures surface in the views
func TestIntegration_ErrorHandling(t *testing.T) {
	m := newTestModel(&mockChatClient{}, &mockItineraryClient{err: fmt.Errorf("503")})
	m.deps.Recommendations = &mockRecommendationClient{err: tripapi.ErrMalformedResponse}

	updatedModel, _ := m.enterResults()
	m = updatedModel.(Model)
	updatedModel, _ = m.Update(fetchRecommendations(m.resultsSession, m.aggregator)())
	m = updatedModel.(Model)

	if m.results.Err == nil {
		t.Fatal("Expected a recommendations error")
	}
	if !strings.Contains(m.View(), "Could not load recommendations") {
		t.Error("Expected error message in results view")
	}

	// A failed itinerary fetch moves to the error state
	m.state = StateItinerary
	m.itineraryCity = "Rome"
	updatedModel, _ = m.Update(fetchItinerary(m.planner, "Rome")())
	m = updatedModel.(Model)

	if m.state != StateError {
		t.Errorf("state = %v, want StateError", m.state)
	}
	if m.err == nil || !strings.Contains(m.err.Error(), "Rome") {
		t.Errorf("err = %v, want itinerary error for Rome", m.err)
	}
}
