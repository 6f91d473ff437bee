package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Variant identifies which flavor of the orders endpoint a request targeted.
type Variant int

const (
	VariantSlow Variant = iota // per-order queries (N+1)
	VariantFast                // single JOIN query
)

func (v Variant) String() string {
	if v == VariantSlow {
		return "slow"
	}
	return "fast"
}

// Outcome is the result of one request attempt.
//
// Completed means a response arrived, whatever its status code; a
// transport failure (connection refused, timeout) leaves Completed
// false and carries no latency sample. OK is true only for HTTP 200.
type Outcome struct {
	Time      time.Time
	Worker    int
	Variant   Variant
	Status    int
	OK        bool
	Completed bool
	Latency   time.Duration
	Err       string
}

// Stats accumulates counters and latency samples across workers.
//
// Counters move atomically so every attempt lands in exactly one
// variant bucket and one success/error bucket: total == slow+fast ==
// success+errors holds at any instant.
type Stats struct {
	total   atomic.Uint64
	slow    atomic.Uint64
	fast    atomic.Uint64
	success atomic.Uint64
	errors  atomic.Uint64

	latencySumMs atomic.Uint64

	// Latency backs the cheap quantiles shown while the run is live.
	// The exact percentiles in the final report come from samplesMs.
	Latency *SafeHistogram

	mu        sync.Mutex
	samplesMs []int64
	outcomes  []Outcome
	retain    bool
}

// New returns an empty Stats. With retainOutcomes set, every attempt
// is kept for CSV export; large or unbounded runs should leave it off.
func New(retainOutcomes bool) *Stats {
	return &Stats{
		Latency: NewSafeHistogram(),
		retain:  retainOutcomes,
	}
}

// Record files one attempt into the counters and, for completed
// requests, the latency sample set.
func (s *Stats) Record(o Outcome) {
	s.total.Add(1)
	if o.Variant == VariantSlow {
		s.slow.Add(1)
	} else {
		s.fast.Add(1)
	}
	if o.OK {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}

	if o.Completed {
		s.latencySumMs.Add(uint64(o.Latency.Milliseconds()))
		s.Latency.Record(o.Latency)
	}

	s.mu.Lock()
	if o.Completed {
		s.samplesMs = append(s.samplesMs, o.Latency.Milliseconds())
	}
	if s.retain {
		s.outcomes = append(s.outcomes, o)
	}
	s.mu.Unlock()
}

func (s *Stats) Total() uint64   { return s.total.Load() }
func (s *Stats) Slow() uint64    { return s.slow.Load() }
func (s *Stats) Fast() uint64    { return s.fast.Load() }
func (s *Stats) Success() uint64 { return s.success.Load() }
func (s *Stats) Errors() uint64  { return s.errors.Load() }

// SampleCount reports how many completed requests carry a latency sample.
func (s *Stats) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samplesMs)
}

func (s *Stats) ErrorRate() float64 {
	total := s.total.Load()
	if total == 0 {
		return 0
	}
	return float64(s.errors.Load()) / float64(total) * 100
}

// AvgLatencyMs is the running mean over completed requests.
func (s *Stats) AvgLatencyMs() float64 {
	completed := s.Latency.TotalCount()
	if completed == 0 {
		return 0
	}
	return float64(s.latencySumMs.Load()) / float64(completed)
}

// Outcomes returns a copy of the retained attempt log.
func (s *Stats) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Snapshot is a cheap point-in-time view used by the periodic reporter
// and the live dashboard. Quantiles come from the histogram, so they
// are approximate to 3 significant figures.
type Snapshot struct {
	Total     uint64
	Slow      uint64
	Fast      uint64
	Success   uint64
	Errors    uint64
	AvgMs     float64
	P50Ms     float64
	P95Ms     float64
	P99Ms     float64
	MaxMs     float64
	ErrorRate float64
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Total:   s.total.Load(),
		Slow:    s.slow.Load(),
		Fast:    s.fast.Load(),
		Success: s.success.Load(),
		Errors:  s.errors.Load(),
	}
	snap.AvgMs = s.AvgLatencyMs()
	if s.Latency.TotalCount() > 0 {
		snap.P50Ms = s.Latency.QuantileMs(50)
		snap.P95Ms = s.Latency.QuantileMs(95)
		snap.P99Ms = s.Latency.QuantileMs(99)
		snap.MaxMs = float64(s.Latency.Max()) / 1000.0
	}
	if snap.Total > 0 {
		snap.ErrorRate = float64(snap.Errors) / float64(snap.Total) * 100
	}
	return snap
}

// Summary holds the final-report aggregates. Percentiles are exact
// nearest-rank values over the full sample set, not histogram bins.
type Summary struct {
	Total   uint64 `json:"total"`
	Slow    uint64 `json:"slow"`
	Fast    uint64 `json:"fast"`
	Success uint64 `json:"success"`
	Errors  uint64 `json:"errors"`

	Samples  int     `json:"samples"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"stddev_ms"`
	P50Ms    int64   `json:"p50_ms"`
	P95Ms    int64   `json:"p95_ms"`
	P99Ms    int64   `json:"p99_ms"`
}

func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total) * 100
}

func (s Summary) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Total) * 100
}

// Summarize sorts a copy of the latency samples and computes the final
// aggregates. It is meant to run once, after the workers have drained.
func (s *Stats) Summarize() Summary {
	s.mu.Lock()
	samples := make([]int64, len(s.samplesMs))
	copy(samples, s.samplesMs)
	s.mu.Unlock()

	sum := Summary{
		Total:   s.total.Load(),
		Slow:    s.slow.Load(),
		Fast:    s.fast.Load(),
		Success: s.success.Load(),
		Errors:  s.errors.Load(),
		Samples: len(samples),
	}
	if len(samples) == 0 {
		return sum
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	xs := make([]float64, len(samples))
	for i, v := range samples {
		xs[i] = float64(v)
	}
	sum.MinMs = samples[0]
	sum.MaxMs = samples[len(samples)-1]
	sum.MeanMs = stat.Mean(xs, nil)
	if len(xs) > 1 {
		sum.StdDevMs = stat.StdDev(xs, nil)
	}
	sum.P50Ms = Percentile(samples, 50)
	sum.P95Ms = Percentile(samples, 95)
	sum.P99Ms = Percentile(samples, 99)
	return sum
}
