package tokencount

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Counter estimates prompt token counts with tiktoken. The encoding is
// resolved lazily because model files are fetched on first use.
type Counter struct {
	model  string
	logger *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter builds a counter for the configured model.
func NewCounter(model string, logger *slog.Logger) *Counter {
	return &Counter{
		model:  model,
		logger: logger.With("component", "llm.tokencount"),
	}
}

// Count returns the estimated token count for the given text, or zero
// when no encoding could be resolved. Estimation is best effort and
// never fails a request.
func (c *Counter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			c.logger.Warn("model encoding unavailable, using fallback", "model", c.model, "error", err)
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				c.logger.Error("fallback encoding unavailable", "error", err)
				return
			}
		}
		c.enc = enc
	})
	if c.enc == nil || text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
