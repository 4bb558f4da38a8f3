// Package tripapi is the REST client for the TripScan backend.
package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrMalformedResponse is returned when a response lacks a required field
var ErrMalformedResponse = errors.New("malformed response")

// ChatClient defines the interface for the shared message thread
type ChatClient interface {
	// GetMessages retrieves the full message list
	GetMessages(ctx context.Context) ([]RemoteMessage, error)

	// SendMessage posts a text message
	SendMessage(ctx context.Context, userID, content string) (*SendAck, error)

	// SendMessageImage posts a message with a base64 data URL image
	SendMessageImage(ctx context.Context, userID, content, imageDataURL string) (*SendAck, error)

	// ClearChat empties the shared thread
	ClearChat(ctx context.Context) error
}

// RecommendationClient defines the interface for destination analysis
type RecommendationClient interface {
	// GetRecommendations retrieves the ranked destinations for the group
	GetRecommendations(ctx context.Context) (*Recommendations, error)

	// GetCityImage resolves a display image for a city
	GetCityImage(ctx context.Context, city string) (string, error)
}

// ItineraryClient defines the interface for booking details
type ItineraryClient interface {
	// GetHotel retrieves the suggested hotel for a city
	GetHotel(ctx context.Context, city string) (*HotelRecord, error)

	// GetFlightInfo retrieves outbound and inbound flights for a user
	GetFlightInfo(ctx context.Context, city, userID string) (*FlightInfo, error)
}

// StatusError is returned for any non-200 response
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: API returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: API returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

const imageCacheDuration = 15 * time.Minute

type imageCacheEntry struct {
	url       string
	fetchedAt time.Time
}

// BackendClient implements ChatClient, RecommendationClient and
// ItineraryClient against the TripScan REST API
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string

	imageCache map[string]imageCacheEntry
	mu         sync.RWMutex
	now        func() time.Time
}

// NewBackendClient creates a client for the backend at baseURL
func NewBackendClient(baseURL string, timeout time.Duration, userAgent string) *BackendClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "TripScan/1.0"
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:  userAgent,
		imageCache: make(map[string]imageCacheEntry),
		now:        time.Now,
	}
}

// BaseURL returns the backend root this client talks to
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

func (c *BackendClient) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *BackendClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
