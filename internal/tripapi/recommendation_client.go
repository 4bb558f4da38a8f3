package tripapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Recommendation is one raw entry of the ranked list
type Recommendation struct {
	City       string
	Country    string
	MatchScore float64 // unrounded
	Features   map[string]float64
}

// Recommendations is the backend's analysis of the group conversation
type Recommendations struct {
	Top         []Recommendation
	Preferences map[string]float64 // empty when the backend sent none
}

// GetRecommendations retrieves the ranked destinations. A response
// without top_recommendations fails with ErrMalformedResponse.
func (c *BackendClient) GetRecommendations(ctx context.Context) (*Recommendations, error) {
	var resp recommendationsResponse
	if err := c.getJSON(ctx, "/recommendations", &resp); err != nil {
		return nil, err
	}
	if resp.TopRecommendations == nil {
		return nil, fmt.Errorf("recommendations: missing top_recommendations: %w", ErrMalformedResponse)
	}

	recs := &Recommendations{
		Top:         make([]Recommendation, 0, len(*resp.TopRecommendations)),
		Preferences: make(map[string]float64, len(resp.AggregatePreferences)),
	}
	for _, r := range *resp.TopRecommendations {
		features := r.Features
		if features == nil {
			features = map[string]float64{}
		}
		recs.Top = append(recs.Top, Recommendation{
			City:       r.City,
			Country:    r.Country,
			MatchScore: r.MatchScore,
			Features:   features,
		})
	}
	for name, weight := range resp.AggregatePreferences {
		recs.Preferences[name] = weight
	}
	return recs, nil
}

// GetCityImage resolves a display image URL for city.
// Successful lookups are cached for imageCacheDuration.
func (c *BackendClient) GetCityImage(ctx context.Context, city string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return "", fmt.Errorf("city cannot be empty")
	}

	// Check cache first
	c.mu.RLock()
	entry, ok := c.imageCache[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < imageCacheDuration {
		return entry.url, nil
	}

	var resp cityImageResponse
	if err := c.getJSON(ctx, "/city-image/"+url.PathEscape(city), &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("city image for %s: missing image_url: %w", city, ErrMalformedResponse)
	}

	c.mu.Lock()
	c.imageCache[key] = imageCacheEntry{url: resp.ImageURL, fetchedAt: c.now()}
	c.mu.Unlock()

	return resp.ImageURL, nil
}

// Internal types for the recommendation endpoints

type recommendationsResponse struct {
	TopRecommendations *[]struct {
		City       string             `json:"city"`
		Country    string             `json:"country"`
		MatchScore float64            `json:"match_score"`
		Features   map[string]float64 `json:"features"`
	} `json:"top_recommendations"`
	AggregatePreferences map[string]float64 `json:"aggregate_preferences"`
}

type cityImageResponse struct {
	ImageURL string `json:"image_url"`
}
