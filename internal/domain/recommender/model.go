package recommender

import (
	"time"

	"github.com/yanqian/wanderwise/pkg/metrics"
)

// Config wires runtime settings for the recommendation domain.
type Config struct {
	Model         string
	Temperature   float32
	Prompt        string
	MaxToolRounds int
	HistoryLimit  int
}

// Request captures a single conversational turn. Coordinates are
// optional; when present they let the model infer the city. Vibe is a
// mood tag steering tone, never structurally required.
type Request struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Vibe      string   `json:"vibe,omitempty"`
}

// HasCoordinates reports whether both coordinates were supplied.
func (r Request) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Weather is the forecast attached to a recommendation.
type Weather struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
}

// Recommendation is one suggested place or activity.
type Recommendation struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weather     Weather `json:"weather"`
	Traffic     string  `json:"traffic,omitempty"`
	Busyness    string  `json:"busyness,omitempty"`
}

// Response is the schema-validated result of a generation run. Message
// is only set when the model has to ask the user for their location,
// which is the one case where Recommendations may be empty.
type Response struct {
	City            string              `json:"city,omitempty"`
	Message         string              `json:"message,omitempty"`
	Recommendations []Recommendation    `json:"recommendations"`
	TokenUsage      *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Event is a single hit from the external event directory.
type Event struct {
	Name    string `json:"name,omitempty"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
}

// QueryEntry is one row of the recommendation query log.
type QueryEntry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
