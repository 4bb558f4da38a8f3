package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/tripscan/internal/chat"
	"github.com/ngmaloney/tripscan/internal/cities"
	"github.com/ngmaloney/tripscan/internal/itinerary"
	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/recommend"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"go.uber.org/zap"
)

// AppState represents the current state of the application
type AppState int

const (
	StateOriginSearch AppState = iota // Pick the city you travel from
	StateChat                         // Shared group thread
	StateResults                      // Ranked destinations
	StateItinerary                    // Hotel and flights for one destination
	StateError                        // Error state
)

// Deps are the collaborators the views talk to
type Deps struct {
	Directory       *cities.Directory
	ChatClient      tripapi.ChatClient
	Recommendations tripapi.RecommendationClient
	Itineraries     tripapi.ItineraryClient
	User            models.User

	PollInterval     time.Duration
	TopN             int
	MaxConcurrency   int
	FallbackImageURL string

	Logger *zap.Logger
}

// Model represents the application's state
type Model struct {
	deps   Deps
	logger *zap.Logger

	state  AppState
	width  int
	height int
	err    error
	status string // one-line feedback under the chat input

	// Origin search
	searchInput textinput.Model
	cityList    list.Model
	origin      *models.City

	// Chat. A session is one mount of the chat view.
	chatSession int
	sync        *chat.Synchronizer
	chatState   chat.State
	chatInput   textinput.Model
	viewport    viewport.Model

	// Results
	resultsSession int
	aggregator     *recommend.Aggregator
	results        recommend.State
	resultsLoading bool
	resultsReady   bool // resultList has been built
	resultList     list.Model

	// Itinerary
	planner          *itinerary.Planner
	itineraryCity    string
	itinerary        *models.Itinerary
	itineraryLoading bool

	spinner spinner.Model
	now     func() time.Time
}

// NewModel creates a new application model
func NewModel(deps Deps) Model {
	if deps.Directory == nil {
		deps.Directory = cities.NewDirectory()
	}
	logger := logging.OrNop(deps.Logger).With(zap.String("component", "ui"))

	ti := textinput.New()
	ti.Placeholder = "Where are you travelling from? (city, code or country)"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	ci := textinput.New()
	ci.Placeholder = "Message the group... (/image <path> [caption] to attach)"
	ci.CharLimit = 1000
	ci.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		deps:        deps,
		logger:      logger,
		state:       StateOriginSearch,
		searchInput: ti,
		cityList:    createCityList(nil, 60, 12),
		chatInput:   ci,
		viewport:    viewport.New(80, 20),
		spinner:     s,
		now:         time.Now,
	}
	if deps.Itineraries != nil {
		m.planner = itinerary.NewPlanner(deps.Itineraries, deps.User, deps.Logger)
	}
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chatUpdatedMsg:
		if m.sync == nil || msg.session != m.chatSession {
			return m, nil
		}
		// The spinner only keeps ticking while loading, so restart it
		// whenever a send begins.
		startSpinner := msg.state.Loading && !m.chatState.Loading
		m.chatState = msg.state
		m.refreshViewport()
		next := waitForChatUpdate(m.chatSession, m.sync)
		if startSpinner {
			return m, tea.Batch(next, m.spinner.Tick)
		}
		return m, next

	case chatSentMsg:
		if msg.session != m.chatSession {
			return m, nil
		}
		if msg.err != nil {
			m.status = errorStyle.Render("✗ Send failed: " + msg.err.Error())
		}
		return m, nil

	case chatClearedMsg:
		if msg.session != m.chatSession {
			return m, nil
		}
		if msg.err != nil {
			m.status = errorStyle.Render("✗ Clear failed: " + msg.err.Error())
		} else {
			m.status = successStyle.Render("✓ Chat cleared")
		}
		return m, nil

	case recommendationsFetchedMsg:
		if m.aggregator == nil || msg.session != m.resultsSession {
			return m, nil
		}
		m.resultsLoading = false
		m.results = msg.state
		m.resultList = createDestinationList(msg.state.Scores, m.deps.FallbackImageURL, m.listWidth(), m.listHeight())
		m.resultsReady = true
		return m, nil

	case itineraryFetchedMsg:
		if m.state != StateItinerary || msg.city != m.itineraryCity {
			return m, nil
		}
		m.itineraryLoading = false
		if msg.err != nil {
			m.err = fmt.Errorf("loading itinerary for %s: %w", msg.city, msg.err)
			m.state = StateError
			return m, nil
		}
		m.itinerary = msg.itinerary
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateComponents(msg)
	}

	// Global keys
	if keyMsg.String() == "ctrl+c" {
		m.teardown()
		return m, tea.Quit
	}

	switch m.state {
	case StateOriginSearch:
		return m.handleOriginSearch(keyMsg)
	case StateChat:
		return m.handleChat(keyMsg)
	case StateResults:
		return m.handleResults(keyMsg)
	case StateItinerary:
		return m.handleItinerary(keyMsg)
	case StateError:
		if keyMsg.String() == "q" {
			return m, tea.Quit
		}
		// Any other key returns to origin search
		m.err = nil
		return m.enterOriginSearch()
	}

	return m, nil
}

// updateComponents forwards non-key messages such as cursor blinks
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case StateOriginSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case StateChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	case StateResults:
		if m.resultsReady {
			m.resultList, cmd = m.resultList.Update(msg)
		}
	}
	return m, cmd
}

// handleOriginSearch handles keyboard input in origin search state
func (m Model) handleOriginSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "up", "down":
		m.cityList, cmd = m.cityList.Update(msg)
		return m, cmd

	case "enter":
		// An exact airport code wins over the highlighted match
		city, ok := m.deps.Directory.ByCode(strings.TrimSpace(m.searchInput.Value()))
		if !ok {
			item, selected := m.cityList.SelectedItem().(cityItem)
			if !selected {
				return m, nil
			}
			city = item.city
		}
		m.origin = &city
		return m.enterChat()
	}

	m.searchInput, cmd = m.searchInput.Update(msg)
	m.cityList.SetItems(cityItems(m.deps.Directory.Search(m.searchInput.Value())))
	m.cityList.ResetSelected()
	return m, cmd
}

// handleChat handles keyboard input in chat state
func (m Model) handleChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "enter":
		input := m.chatInput.Value()
		if strings.TrimSpace(input) == "" {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.status = ""
		return m, sendChatMessage(m.chatSession, m.sync, input)

	case "ctrl+x":
		m.status = mutedStyle.Render("Clearing chat...")
		return m, clearChat(m.chatSession, m.sync)

	case "ctrl+r":
		return m.enterResults()

	case "esc":
		return m.enterOriginSearch()

	case "pgup", "pgdown":
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// handleResults handles keyboard input in results state
func (m Model) handleResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q":
		m.teardown()
		return m, tea.Quit
	case "esc", "c":
		return m.enterChat()
	}

	if !m.resultsReady || m.results.Err != nil {
		return m, nil
	}

	if msg.String() == "enter" {
		item, ok := m.resultList.SelectedItem().(destinationItem)
		if !ok || m.planner == nil {
			return m, nil
		}
		m.state = StateItinerary
		m.itineraryCity = item.score.City
		m.itinerary = nil
		m.itineraryLoading = true
		return m, tea.Batch(fetchItinerary(m.planner, item.score.City), m.spinner.Tick)
	}

	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

// handleItinerary handles keyboard input in itinerary state
func (m Model) handleItinerary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.teardown()
		return m, tea.Quit
	case "esc", "b":
		m.state = StateResults
		m.itineraryCity = ""
		m.itineraryLoading = false
	}
	return m, nil
}

// enterOriginSearch leaves any mounted view and shows the search box
func (m Model) enterOriginSearch() (tea.Model, tea.Cmd) {
	m.teardown()
	m.state = StateOriginSearch
	m.chatInput.Blur()
	return m, m.searchInput.Focus()
}

// enterChat mounts the chat view with a fresh synchronizer
func (m Model) enterChat() (tea.Model, tea.Cmd) {
	m.teardown()
	if m.deps.ChatClient == nil {
		m.err = fmt.Errorf("no chat backend configured")
		m.state = StateError
		return m, nil
	}

	m.chatSession++
	m.sync = chat.New(m.deps.ChatClient, m.deps.User, m.deps.PollInterval, m.deps.Logger)
	m.sync.Start(context.Background())
	m.chatState = chat.State{}
	m.status = ""
	m.refreshViewport()

	m.state = StateChat
	m.searchInput.Blur()
	m.logger.Debug("chat mounted", zap.Int("session", m.chatSession))

	return m, tea.Batch(m.chatInput.Focus(), waitForChatUpdate(m.chatSession, m.sync))
}

// enterResults mounts the results view and starts the aggregation
func (m Model) enterResults() (tea.Model, tea.Cmd) {
	m.teardown()
	if m.deps.Recommendations == nil {
		m.err = fmt.Errorf("no recommendation backend configured")
		m.state = StateError
		return m, nil
	}

	m.resultsSession++
	m.aggregator = recommend.New(m.deps.Recommendations, m.deps.TopN, m.deps.MaxConcurrency, m.deps.Logger)
	m.results = recommend.State{Loading: true}
	m.resultsLoading = true
	m.resultsReady = false
	m.state = StateResults
	m.chatInput.Blur()

	return m, tea.Batch(fetchRecommendations(m.resultsSession, m.aggregator), m.spinner.Tick)
}

// teardown unmounts the chat and results views. Work still in flight
// for them is discarded when it completes.
func (m *Model) teardown() {
	if m.sync != nil {
		m.sync.Stop()
		m.sync = nil
		m.logger.Debug("chat unmounted", zap.Int("session", m.chatSession))
	}
	if m.aggregator != nil {
		m.aggregator.Close()
		m.aggregator = nil
		m.resultsLoading = false
	}
}

func (m Model) loading() bool {
	switch m.state {
	case StateChat:
		return m.chatState.Loading
	case StateResults:
		return m.resultsLoading
	case StateItinerary:
		return m.itineraryLoading
	}
	return false
}

func (m *Model) resize() {
	m.cityList.SetSize(m.listWidth(), 12)
	m.viewport.Width = m.width - 4
	m.viewport.Height = m.height - 10
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.chatInput.Width = m.width - 8
	if m.resultsReady {
		m.resultList.SetSize(m.listWidth(), m.listHeight())
	}
	m.refreshViewport()
}

func (m Model) listWidth() int {
	if m.width <= 4 {
		return 76
	}
	return m.width - 4
}

func (m Model) listHeight() int {
	if m.height <= 20 {
		return 12
	}
	return m.height - 14
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(renderMessages(m.chatState.Messages, m.now()))
	m.viewport.GotoBottom()
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateOriginSearch:
		return m.viewOriginSearch()
	case StateChat:
		return m.viewChat()
	case StateResults:
		return m.viewResults()
	case StateItinerary:
		return m.viewItinerary()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}

	help := helpStyle.Render("Press any key to return to search • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}

// viewOriginSearch renders the origin search view
func (m Model) viewOriginSearch() string {
	title := titleStyle.Render("✈ TripScan")
	subtitle := mutedStyle.Render("Plan a group trip together")

	searchBox := inputBoxStyle.Width(64).Render(m.searchInput.View())

	sections := []string{title, subtitle, "", searchBox, ""}
	if len(m.cityList.Items()) > 0 {
		sections = append(sections, m.cityList.View())
	} else if strings.TrimSpace(m.searchInput.Value()) != "" {
		sections = append(sections, mutedStyle.Render("No matching cities"))
	}

	help := helpStyle.Render("Type to search • ↑/↓: Choose • Enter: Join the chat • Ctrl+C: Quit")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewChat renders the group thread
func (m Model) viewChat() string {
	header := titleStyle.Render("✈ Group Chat")
	if m.origin != nil {
		header += mutedStyle.Render("  travelling from " + m.origin.Label())
	}

	input := inputBoxStyle.Render(m.chatInput.View())

	sections := []string{header, "", m.viewport.View(), input}
	if m.chatState.Loading {
		sections = append(sections, m.spinner.View()+" "+mutedStyle.Render("Sending..."))
	} else if m.status != "" {
		sections = append(sections, m.status)
	}

	help := helpStyle.Render("Enter: Send • Ctrl+R: Recommendations • Ctrl+X: Clear chat • Esc: Change origin • Ctrl+C: Quit")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewResults renders ranked destinations and group preferences
func (m Model) viewResults() string {
	title := titleStyle.Render("✈ Where the group should go")

	if m.resultsLoading {
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render("Analysing the conversation...")))
	}

	if m.results.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			errorStyle.Render("✗ Could not load recommendations: "+m.results.Err.Error()),
			helpStyle.Render("Esc: Back to chat • Q: Quit"))
	}

	if !m.resultsReady {
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			mutedStyle.Render("No recommendations yet"),
			helpStyle.Render("Esc: Back to chat • Q: Quit"))
	}

	prefs := sectionBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Group preferences"), "", renderPreferences(m.results.Preferences)))

	help := helpStyle.Render("↑/↓: Navigate • Enter: Itinerary • Esc: Back to chat • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", m.resultList.View(), prefs, help)
}

// viewItinerary renders booking details for the chosen destination
func (m Model) viewItinerary() string {
	title := titleStyle.Render("✈ Itinerary: " + m.itineraryCity)

	var body string
	if m.itineraryLoading {
		body = fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render("Finding hotels and flights..."))
	} else {
		body = renderItinerary(m.itinerary, m.now())
	}

	help := helpStyle.Render("Esc: Back to results • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", body, help)
}
