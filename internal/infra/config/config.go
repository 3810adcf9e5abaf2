package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service. It is
// built once at process start and passed by reference into every
// constructor; credentials never live in module globals.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Recommender RecommenderConfig `yaml:"recommender"`
	Events      EventsConfig      `yaml:"events"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Vibe        VibeConfig        `yaml:"vibe"`
	History     HistoryConfig     `yaml:"history"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// RecommenderConfig controls the recommendation generation domain.
type RecommenderConfig struct {
	Prompt        string `yaml:"prompt"`
	MaxToolRounds int    `yaml:"maxToolRounds"`
}

// EventsConfig points at the external event directory.
type EventsConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// CalendarConfig points at the scheduling provider for a fixed identity.
type CalendarConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	UserURI string `yaml:"userUri"`
}

// VibeConfig controls mood interpretation and quick prompt generation.
type VibeConfig struct {
	Prompt      string        `yaml:"prompt"`
	PromptCount int           `yaml:"promptCount"`
	CacheTTL    time.Duration `yaml:"cacheTtl"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// HistoryConfig controls the recommendation query log.
type HistoryConfig struct {
	Limit    int            `yaml:"limit"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("RECOMMENDER_PROMPT"); v != "" {
		cfg.Recommender.Prompt = v
	}
	if v := os.Getenv("RECOMMENDER_MAX_TOOL_ROUNDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Recommender.MaxToolRounds = parsed
		}
	}
	if v := os.Getenv("EVENTBRITE_BASE_URL"); v != "" {
		cfg.Events.BaseURL = v
	}
	if v := os.Getenv("EVENTBRITE_API_KEY"); v != "" {
		cfg.Events.APIKey = v
	}
	if v := os.Getenv("CALENDLY_BASE_URL"); v != "" {
		cfg.Calendar.BaseURL = v
	}
	if v := os.Getenv("CALENDLY_API_KEY"); v != "" {
		cfg.Calendar.APIKey = v
	}
	if v := os.Getenv("CALENDLY_USER_URI"); v != "" {
		cfg.Calendar.UserURI = v
	}
	if v := os.Getenv("VIBE_PROMPT"); v != "" {
		cfg.Vibe.Prompt = v
	}
	if v := os.Getenv("VIBE_PROMPT_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Vibe.PromptCount = parsed
		}
	}
	if v := os.Getenv("VIBE_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Vibe.CacheTTL = parsed
		}
	}
	if v := os.Getenv("VIBE_REDIS_ENABLED"); v != "" {
		cfg.Vibe.Redis.Enabled = isTruthy(v)
	}
	if v := os.Getenv("VIBE_REDIS_ADDR"); v != "" {
		cfg.Vibe.Redis.Addr = v
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Limit = parsed
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MinConns = int32(parsed)
		}
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
		},
		Recommender: RecommenderConfig{
			Prompt:        "You are WanderWise, a local guide that turns a traveler's request into concrete nearby places and activities. Use the event search tool when live events could be relevant. Aim for at least 3 recommendations when possible.",
			MaxToolRounds: 4,
		},
		Events: EventsConfig{
			BaseURL: "https://www.eventbriteapi.com/v3",
		},
		Calendar: CalendarConfig{
			BaseURL: "https://api.calendly.com",
		},
		Vibe: VibeConfig{
			Prompt:      "You are a recommendation expert that knows where the best places are depending on what the user feels like doing. Suggest the type of venue or activity, not any particular location.",
			PromptCount: 4,
			CacheTTL:    6 * time.Hour,
		},
		History: HistoryConfig{
			Limit: 50,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.Recommender.Prompt == "" {
		return errors.New("recommender.prompt cannot be empty")
	}
	if c.Recommender.MaxToolRounds <= 0 {
		return errors.New("recommender.maxToolRounds must be positive")
	}
	if c.Events.BaseURL == "" {
		return errors.New("events.baseUrl cannot be empty")
	}
	if c.Calendar.BaseURL == "" {
		return errors.New("calendar.baseUrl cannot be empty")
	}
	if c.Vibe.Prompt == "" {
		return errors.New("vibe.prompt cannot be empty")
	}
	if c.Vibe.PromptCount <= 0 {
		return errors.New("vibe.promptCount must be positive")
	}
	if c.Vibe.CacheTTL < 0 {
		return errors.New("vibe.cacheTtl cannot be negative")
	}
	if c.Vibe.Redis.Enabled && strings.TrimSpace(c.Vibe.Redis.Addr) == "" {
		return errors.New("vibe.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.History.Limit <= 0 {
		return errors.New("history.limit must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
