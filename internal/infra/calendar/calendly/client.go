package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/wanderwise/internal/domain/scheduling"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

const defaultBaseURL = "https://api.calendly.com"

// Client talks to the Calendly API for a fixed user identity. A missing
// credential fails fast before any network attempt; a non-success
// listing response degrades to an empty event list.
type Client struct {
	baseURL    string
	apiKey     string
	userURI    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds the calendar client.
func NewClient(baseURL, apiKey, userURI string, logger *slog.Logger) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		userURI: strings.TrimSpace(userURI),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "calendar.calendly"),
	}
}

// ListEvents fetches the scheduled events for the configured user.
func (c *Client) ListEvents(ctx context.Context) ([]scheduling.CalendarEvent, error) {
	if c.apiKey == "" {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "calendly api key is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s/scheduled_events?user=%s", c.baseURL, url.QueryEscape(c.userURI))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendly request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendly request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Error("calendly api error", "status", resp.StatusCode, "body", string(body))
		return []scheduling.CalendarEvent{}, nil
	}

	var payload eventListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("calendly response malformed", "error", err)
		return []scheduling.CalendarEvent{}, nil
	}

	return c.normalizeEvents(payload.Collection), nil
}

// Book creates a calendar entry for the computed slot. Upstream
// failures are returned with the response detail so the scheduler can
// surface them to the user.
func (c *Client) Book(ctx context.Context, details scheduling.BookingDetails) error {
	if c.apiKey == "" {
		return apperrors.Wrap(apperrors.CodeConfig, "calendly api key is not configured", nil)
	}

	wire := bookingRequest{
		Name:        details.Subject,
		Description: details.Description,
		StartTime:   details.Start.Format(time.RFC3339),
		EndTime:     details.End.Format(time.RFC3339),
		User:        c.userURI,
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode booking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scheduled_events", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build booking request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendly booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("calendly booking error: status=%d detail=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type eventListResponse struct {
	Collection []eventRecord `json:"collection"`
}

type eventRecord struct {
	URI       string `json:"uri"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type bookingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	User        string `json:"user"`
}

// normalizeEvents converts the loosely typed upstream rows into domain
// events, dropping anything that fails the start < end invariant.
func (c *Client) normalizeEvents(records []eventRecord) []scheduling.CalendarEvent {
	events := make([]scheduling.CalendarEvent, 0, len(records))
	for _, rec := range records {
		start, err := time.Parse(time.RFC3339, rec.StartTime)
		if err != nil {
			c.logger.Warn("calendly event has invalid start_time", "uri", rec.URI, "value", rec.StartTime)
			continue
		}
		end, err := time.Parse(time.RFC3339, rec.EndTime)
		if err != nil {
			c.logger.Warn("calendly event has invalid end_time", "uri", rec.URI, "value", rec.EndTime)
			continue
		}
		if !start.Before(end) {
			c.logger.Warn("calendly event violates start < end", "uri", rec.URI)
			continue
		}
		events = append(events, scheduling.CalendarEvent{
			URI:   rec.URI,
			Name:  rec.Name,
			Start: start,
			End:   end,
		})
	}
	return events
}

var _ scheduling.CalendarClient = (*Client)(nil)
