package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"orderload/internal/stats"
)

// Defaults mirror the demo environment the generator ships against.
const (
	DefaultBaseURL     = "http://localhost:8080"
	DefaultSlowPath    = "/api/orders/customer/{customer}/slow"
	DefaultFastPath    = "/api/orders/customer/{customer}/fast"
	DefaultWorkers     = 10
	DefaultDurationSec = 300
	DefaultSlowPercent = 70.0
	DefaultCustomer    = "1"
	DefaultRatePerMin  = 5

	// RequestTimeout bounds a full round trip; DialTimeout bounds
	// connection establishment alone.
	RequestTimeout = 30 * time.Second
	DialTimeout    = 10 * time.Second
)

// customerSlot is the placeholder in path templates that gets replaced
// with the configured customer ID.
const customerSlot = "{customer}"

type Config struct {
	BaseURL  string `json:"base_url"`
	SlowPath string `json:"slow_path"`
	FastPath string `json:"fast_path"`
	Customer string `json:"customer"`

	Workers     int     `json:"workers"`
	DurationSec int     `json:"duration_sec"`
	Forever     bool    `json:"forever"`
	SlowPercent float64 `json:"slow_percent"` // 0..100
	RatePerMin  int     `json:"rate_per_min"` // aggregate rate across all workers

	// RetainOutcomes keeps the per-attempt log in memory for export.
	// Unbounded runs should leave it off.
	RetainOutcomes bool `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		SlowPath:    DefaultSlowPath,
		FastPath:    DefaultFastPath,
		Customer:    DefaultCustomer,
		Workers:     DefaultWorkers,
		DurationSec: DefaultDurationSec,
		SlowPercent: DefaultSlowPercent,
		RatePerMin:  DefaultRatePerMin,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base URL must not be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("threads must be a positive integer, got %d", c.Workers)
	}
	if c.RatePerMin <= 0 {
		return fmt.Errorf("rate must be a positive number of requests per minute, got %d", c.RatePerMin)
	}
	if c.SlowPercent < 0 || c.SlowPercent > 100 {
		return fmt.Errorf("slow-percentage must be between 0 and 100, got %v", c.SlowPercent)
	}
	if !c.Forever && c.DurationSec <= 0 {
		return fmt.Errorf("duration must be a positive number of seconds, got %d", c.DurationSec)
	}
	if strings.TrimSpace(c.Customer) == "" {
		return errors.New("customer must not be empty")
	}
	return nil
}

// WorkerDelay is the pause each worker takes between requests so the
// pool as a whole approximates RatePerMin. Scaling the delay by the
// worker count keeps the aggregate rate independent of concurrency.
// Integer division truncates to whole milliseconds.
func (c Config) WorkerDelay() time.Duration {
	ms := int64(60_000) * int64(c.Workers) / int64(c.RatePerMin)
	return time.Duration(ms) * time.Millisecond
}

// SlowProbability converts the percentage knob to a [0,1] probability.
func (c Config) SlowProbability() float64 {
	return c.SlowPercent / 100
}

func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}

// URL builds the concrete endpoint for a variant, substituting the
// customer ID into the path template.
func (c Config) URL(v stats.Variant) string {
	path := c.FastPath
	if v == stats.VariantSlow {
		path = c.SlowPath
	}
	path = strings.ReplaceAll(path, customerSlot, c.Customer)
	return strings.TrimRight(c.BaseURL, "/") + path
}
