package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

const defaultBaseURL = "https://www.eventbriteapi.com/v3"

// Client searches the Eventbrite directory. A missing credential fails
// fast before any network attempt; any upstream failure degrades to an
// empty result so generation can proceed without tool data.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds the event directory client.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "events.eventbrite"),
	}
}

// Search runs a free-text event query.
func (c *Client) Search(ctx context.Context, query string) ([]recommender.Event, error) {
	if c.apiKey == "" {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "eventbrite api key is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s/events/search/?q=%s&expand=venue", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build eventbrite request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("eventbrite request failed", "query", query, "error", err)
		return []recommender.Event{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Error("eventbrite api error", "status", resp.StatusCode, "body", string(body))
		return []recommender.Event{}, nil
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("eventbrite response malformed", "error", err)
		return []recommender.Event{}, nil
	}

	events := make([]recommender.Event, 0, len(payload.Events))
	for _, evt := range payload.Events {
		events = append(events, recommender.Event{
			Name:    evt.Name.Text,
			Summary: evt.Summary,
			URL:     evt.URL,
		})
	}
	return events, nil
}

type searchResponse struct {
	Events []eventRecord `json:"events"`
}

type eventRecord struct {
	Name    nameField `json:"name"`
	Summary string    `json:"summary"`
	URL     string    `json:"url"`
}

type nameField struct {
	Text string `json:"text"`
}

var _ recommender.EventSearcher = (*Client)(nil)
