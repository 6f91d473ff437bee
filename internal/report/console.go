package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"orderload/internal/runner"
	"orderload/internal/stats"
)

// Interval is the cadence of the cumulative status line.
const Interval = 10 * time.Second

// QueriesPerSlowRequest is the database cost the final report assumes
// for one slow-endpoint hit: one orders query plus an items and a
// shipping lookup for each of the 50 seeded orders.
const QueriesPerSlowRequest = 101

const rule = "======================================================================"

var (
	headline = color.New(color.FgHiCyan, color.Bold)
	good     = color.New(color.FgHiGreen)
	bad      = color.New(color.FgHiRed)
)

// PrintConfig echoes the resolved run configuration before any load is
// generated, so every run's parameters are visible in its output.
func PrintConfig(w io.Writer, cfg runner.Config) {
	fmt.Fprintln(w)
	headline.Fprintln(w, rule)
	headline.Fprintln(w, "🧪 ORDER SERVICE LOAD GENERATOR")
	headline.Fprintln(w, rule)
	fmt.Fprintf(w, "Base URL:          %s\n", cfg.BaseURL)
	fmt.Fprintf(w, "Worker threads:    %d\n", cfg.Workers)
	fmt.Fprintf(w, "Request rate:      %d req/min (%.2f req/sec)\n", cfg.RatePerMin, float64(cfg.RatePerMin)/60)
	if cfg.Forever {
		fmt.Fprintf(w, "Duration:          unbounded (until interrupted)\n")
	} else {
		fmt.Fprintf(w, "Duration:          %d seconds\n", cfg.DurationSec)
	}
	fmt.Fprintf(w, "Endpoint split:    %.0f%% slow (N+1) / %.0f%% fast (JOIN)\n", cfg.SlowPercent, 100-cfg.SlowPercent)
	fmt.Fprintf(w, "Customer ID:       %s\n", cfg.Customer)
	fmt.Fprintf(w, "Per-worker delay:  %d ms between requests\n", cfg.WorkerDelay().Milliseconds())
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  🐌 SLOW: %s\n", cfg.URL(stats.VariantSlow))
	fmt.Fprintf(w, "  🚀 FAST: %s\n", cfg.URL(stats.VariantFast))
	headline.Fprintln(w, rule)
}

// Reporter prints one cumulative status line per interval while a run
// is live.
type Reporter struct {
	Stats    *stats.Stats
	Out      io.Writer
	Interval time.Duration
}

func NewReporter(s *stats.Stats, out io.Writer) *Reporter {
	return &Reporter{Stats: s, Out: out, Interval: Interval}
}

// Run blocks until ctx is canceled.
func (r *Reporter) Run(ctx context.Context, started time.Time) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintln(r.Out, r.Line(time.Since(started)))
		}
	}
}

// Line renders the cumulative counters for the elapsed run time.
func (r *Reporter) Line(elapsed time.Duration) string {
	snap := r.Stats.Snapshot()
	throughput := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		throughput = float64(snap.Total) / secs
	}
	return fmt.Sprintf(
		"⏱️  Time: %4ds | Total: %5d | Slow: %5d | Fast: %5d | Success: %5d | Errors: %4d | Throughput: %.2f req/s | Avg: %.0f ms | Error Rate: %.1f%%",
		int(elapsed.Seconds()), snap.Total, snap.Slow, snap.Fast, snap.Success, snap.Errors,
		throughput, snap.AvgMs, snap.ErrorRate)
}

// PrintFinal writes the end-of-run report: request counts, exact
// latency percentiles and the estimated database cost of the run.
func PrintFinal(w io.Writer, cfg runner.Config, sum stats.Summary, elapsed time.Duration) {
	throughput := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		throughput = float64(sum.Total) / secs
	}

	fmt.Fprintln(w)
	headline.Fprintln(w, rule)
	headline.Fprintln(w, "📊 LOAD TEST COMPLETED")
	headline.Fprintln(w, rule)

	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "  Total duration:        %d seconds\n", int(elapsed.Seconds()))
	fmt.Fprintf(w, "  Total requests:        %d\n", sum.Total)
	fmt.Fprintf(w, "  Slow requests (N+1):   %d (%.1f%%)\n", sum.Slow, share(sum.Slow, sum.Total))
	fmt.Fprintf(w, "  Fast requests (JOIN):  %d (%.1f%%)\n", sum.Fast, share(sum.Fast, sum.Total))
	good.Fprintf(w, "  Successful:            %d (%.2f%%)\n", sum.Success, sum.SuccessRate())
	errLine := fmt.Sprintf("  Errors:                %d (%.2f%%)", sum.Errors, sum.ErrorRate())
	if sum.Errors > 0 {
		bad.Fprintln(w, errLine)
	} else {
		fmt.Fprintln(w, errLine)
	}
	fmt.Fprintf(w, "  Average throughput:    %.2f req/sec\n", throughput)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "RESPONSE TIMES (ms):")
	if sum.Samples == 0 {
		fmt.Fprintln(w, "  no completed requests")
	} else {
		fmt.Fprintf(w, "  Min / Max:             %d / %d\n", sum.MinMs, sum.MaxMs)
		fmt.Fprintf(w, "  Mean:                  %.2f\n", sum.MeanMs)
		fmt.Fprintf(w, "  Std dev:               %.2f\n", sum.StdDevMs)
		fmt.Fprintf(w, "  p50:                   %d\n", sum.P50Ms)
		fmt.Fprintf(w, "  p95:                   %d\n", sum.P95Ms)
		fmt.Fprintf(w, "  p99:                   %d\n", sum.P99Ms)
	}

	slowQueries := sum.Slow * QueriesPerSlowRequest
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DATABASE IMPACT ESTIMATE:")
	fmt.Fprintf(w, "  Slow endpoint queries: ~%d (%d per request)\n", slowQueries, QueriesPerSlowRequest)
	fmt.Fprintf(w, "  Fast endpoint queries: ~%d (1 per request)\n", sum.Fast)
	fmt.Fprintf(w, "  Total estimated:       ~%d queries\n", slowQueries+sum.Fast)
	headline.Fprintln(w, rule)
}

func share(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
