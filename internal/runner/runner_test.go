package runner

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderload/internal/stats"
)

// testConfig gives each worker a 2ms pause so short runs still push a
// few hundred requests through.
func testConfig(baseURL string, workers int) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Workers = workers
	cfg.RatePerMin = 30_000 * workers
	cfg.Forever = true
	cfg.RetainOutcomes = true
	return cfg
}

func TestRunCountsEveryAttempt(t *testing.T) {
	var hits atomic.Uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"orderCount":50}`)
	}))
	defer srv.Close()

	r := New(testConfig(srv.URL, 4))
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	total := r.Stats.Total()
	require.Greater(t, total, uint64(0))
	assert.Equal(t, hits.Load(), total)
	assert.Equal(t, total, r.Stats.Slow()+r.Stats.Fast())
	assert.Equal(t, total, r.Stats.Success()+r.Stats.Errors())
	assert.Equal(t, uint64(0), r.Stats.Errors())
	assert.Equal(t, int(total), r.Stats.SampleCount())
	assert.Len(t, r.Stats.Outcomes(), int(total))
}

func TestRunStopsAtDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, 2)
	cfg.Forever = false
	cfg.DurationSec = 1

	r := New(cfg)
	start := time.Now()
	r.Run(context.Background())
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
	assert.Greater(t, r.Stats.Total(), uint64(0))
}

func TestVariantSplitBoundaries(t *testing.T) {
	run := func(t *testing.T, slowPercent float64) (slowHits, fastHits uint64, st *stats.Stats) {
		var slow, fast atomic.Uint64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/slow") {
				slow.Add(1)
			} else {
				fast.Add(1)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL, 2)
		cfg.SlowPercent = slowPercent
		r := New(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		r.Run(ctx)
		return slow.Load(), fast.Load(), r.Stats
	}

	t.Run("all fast at 0", func(t *testing.T) {
		slowHits, fastHits, st := run(t, 0)
		assert.Zero(t, slowHits)
		assert.Greater(t, fastHits, uint64(0))
		assert.Equal(t, st.Total(), st.Fast())
	})

	t.Run("all slow at 100", func(t *testing.T) {
		slowHits, fastHits, st := run(t, 100)
		assert.Zero(t, fastHits)
		assert.Greater(t, slowHits, uint64(0))
		assert.Equal(t, st.Total(), st.Slow())
	})
}

func TestTransportErrorsHaveNoSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := New(testConfig(url, 2))
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	total := r.Stats.Total()
	require.Greater(t, total, uint64(0))
	assert.Equal(t, total, r.Stats.Errors())
	assert.Equal(t, 0, r.Stats.SampleCount())

	for _, o := range r.Stats.Outcomes() {
		assert.False(t, o.Completed)
		assert.NotEmpty(t, o.Err)
	}
}

func TestNon200IsErrorWithLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := New(testConfig(srv.URL, 2))
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	total := r.Stats.Total()
	require.Greater(t, total, uint64(0))
	assert.Equal(t, total, r.Stats.Errors())
	assert.Equal(t, uint64(0), r.Stats.Success())
	assert.Equal(t, int(total), r.Stats.SampleCount())

	o := r.Stats.Outcomes()[0]
	assert.True(t, o.Completed)
	assert.False(t, o.OK)
	assert.Equal(t, http.StatusServiceUnavailable, o.Status)
}

func TestCancelDrainsInflightRequests(t *testing.T) {
	var hits atomic.Uint64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(testConfig(srv.URL, 3))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	r.Run(ctx)
	elapsed := time.Since(start)

	// cancel lands mid-request; Run must wait for those to finish
	assert.Less(t, elapsed, 2*time.Second)
	total := r.Stats.Total()
	assert.Equal(t, hits.Load(), total)
	assert.Equal(t, int(total), r.Stats.SampleCount())
	assert.Equal(t, total, r.Stats.Success())
}

func TestCustomerRoutedIntoPath(t *testing.T) {
	paths := make(chan string, 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.URL.Path:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, 1)
	cfg.Customer = "9000"
	cfg.SlowPercent = 100
	r := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	require.Greater(t, r.Stats.Total(), uint64(0))
	assert.Equal(t, "/api/orders/customer/9000/slow", <-paths)
}

func TestPickVariantBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		require.Equal(t, stats.VariantFast, pickVariant(rng, 0))
	}
	for i := 0; i < 1000; i++ {
		require.Equal(t, stats.VariantSlow, pickVariant(rng, 1))
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, sleepContext(ctx, time.Millisecond))
	assert.True(t, sleepContext(ctx, 0))

	cancel()
	assert.False(t, sleepContext(ctx, time.Hour))
	assert.False(t, sleepContext(ctx, 0))
}
