package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram serializes access to an hdrhistogram so every worker
// can record into one shared latency distribution.
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

// NewSafeHistogram covers 1us through 10min at 3 significant figures,
// more range than the client timeout allows a round trip to use.
func NewSafeHistogram() *SafeHistogram {
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// Record stores a round-trip duration as microseconds.
func (h *SafeHistogram) Record(d time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.RecordValue(d.Microseconds())
}

func (h *SafeHistogram) ValueAtQuantile(q float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.ValueAtQuantile(q)
}

// QuantileMs returns the given quantile in milliseconds.
func (h *SafeHistogram) QuantileMs(q float64) float64 {
	return float64(h.ValueAtQuantile(q)) / 1000.0
}

func (h *SafeHistogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean()
}

func (h *SafeHistogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Max()
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}
