package runner

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"orderload/internal/stats"
)

// Update is a point-in-time view pushed to the live dashboard.
type Update struct {
	stats.Snapshot
	Elapsed    time.Duration
	Throughput float64
}

type UpdateChan chan Update

// Runner drives a pool of workers against the target until the
// configured duration elapses or the context is canceled.
type Runner struct {
	Cfg    Config
	Stats  *stats.Stats
	Client *http.Client

	// Updates, when non-nil, receives snapshots on a short tick.
	// Sends never block; stale updates are dropped.
	Updates UpdateChan

	started time.Time
}

func New(cfg Config) *Runner {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: DialTimeout}).DialContext
	t.MaxIdleConns = cfg.Workers * 2
	t.MaxIdleConnsPerHost = cfg.Workers * 2
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Runner{
		Cfg:   cfg,
		Stats: stats.New(cfg.RetainOutcomes),
		Client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: t,
		},
	}
}

// Run blocks until the run ends. A finite run ends at its deadline; a
// forever run only when ctx is canceled. Workers always finish their
// in-flight request before returning, so no attempt goes uncounted.
func (r *Runner) Run(ctx context.Context) {
	if !r.Cfg.Forever {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Cfg.Duration())
		defer cancel()
	}
	r.started = time.Now()

	if r.Updates != nil {
		go r.pushUpdates(ctx, 500*time.Millisecond)
	}

	delay := r.Cfg.WorkerDelay()
	var wg sync.WaitGroup
	for i := 0; i < r.Cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.worker(ctx, id, delay)
		}(i)
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context, id int, delay time.Duration) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)<<32))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.execute(id, pickVariant(rng, r.Cfg.SlowProbability()))
		if !sleepContext(ctx, delay) {
			return
		}
	}
}

func pickVariant(rng *rand.Rand, slowProbability float64) stats.Variant {
	if rng.Float64() < slowProbability {
		return stats.VariantSlow
	}
	return stats.VariantFast
}

// sleepContext waits for d unless ctx ends first. It reports whether
// the full delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// execute performs one GET against the chosen variant. The request is
// not tied to the run context: once sent it runs to completion or the
// client timeout, so shutdown never aborts a request mid-flight.
// Latency covers the full round trip including the response body.
func (r *Runner) execute(worker int, v stats.Variant) {
	url := r.Cfg.URL(v)
	o := stats.Outcome{Time: time.Now(), Worker: worker, Variant: v}

	start := time.Now()
	resp, err := r.Client.Get(url)
	if err != nil {
		o.Err = err.Error()
		r.Stats.Record(o)
		slog.Debug("request failed", "worker", worker, "variant", v.String(), "err", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	o.Latency = time.Since(start)
	o.Completed = true
	o.Status = resp.StatusCode
	o.OK = resp.StatusCode == http.StatusOK
	r.Stats.Record(o)
}

func (r *Runner) pushUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u := Update{
				Snapshot: r.Stats.Snapshot(),
				Elapsed:  time.Since(r.started),
			}
			if secs := u.Elapsed.Seconds(); secs > 0 {
				u.Throughput = float64(u.Total) / secs
			}
			select {
			case r.Updates <- u:
			default:
				// dashboard is behind, drop the update
			}
		}
	}
}
