package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orderload/internal/report"
	"orderload/internal/runner"
	"orderload/internal/stats"
	"orderload/internal/storage"
	"orderload/internal/tui"
)

// gracePeriod separates printing the configuration from the first
// request, so an operator can read what is about to happen. Package
// variable so tests can shrink it.
var gracePeriod = 3 * time.Second

const rule = "======================================================================"

// Options carries the run extras that live outside runner.Config.
type Options struct {
	// Out, when non-empty, is the prefix for the CSV and JSON export.
	Out string
	// NoHistory skips archiving the run summary.
	NoHistory bool
	// HistoryPath overrides the default history database location.
	HistoryPath string
	// Stdout is where reports print; nil means os.Stdout.
	Stdout io.Writer
}

func (o Options) out() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

// Run drives one headless load test end to end: configuration banner,
// grace pause, worker pool with the periodic reporter alongside, then
// the final report, export files and history record. Interrupts arrive
// through ctx; a canceled run still reports everything recorded so far.
func Run(ctx context.Context, cfg runner.Config, opts Options) error {
	out := opts.out()

	report.PrintConfig(out, cfg)
	fmt.Fprintf(out, "\nStarting load test in %v...\n", gracePeriod)
	if !wait(ctx, gracePeriod) {
		fmt.Fprintln(out, "Interrupted before any load was generated.")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "LOAD TEST STARTED")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out)

	r := runner.New(cfg)
	started := time.Now()

	repCtx, stopReporter := context.WithCancel(context.Background())
	defer stopReporter()
	go report.NewReporter(r.Stats, out).Run(repCtx, started)

	r.Run(ctx)
	stopReporter()

	finish(out, cfg, r.Stats, opts, started, time.Since(started))
	return nil
}

// RunLive is Run with the live dashboard in place of the periodic
// reporter. Quitting the dashboard cancels the run; the workers drain
// their in-flight requests and the final report still prints to stdout
// once the program exits.
func RunLive(ctx context.Context, cfg runner.Config, opts Options) error {
	out := opts.out()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := runner.New(cfg)
	r.Updates = make(runner.UpdateChan, 100)

	var loadStarted bool
	started := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if !wait(runCtx, gracePeriod) {
			return
		}
		loadStarted = true
		started = time.Now()
		r.Run(runCtx)
	}()

	p := tea.NewProgram(tui.NewDashboard(cfg, r.Updates, done, cancel), tea.WithAltScreen())
	_, runErr := p.Run()
	cancel()
	<-done
	if runErr != nil {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	if !loadStarted {
		fmt.Fprintln(out, "Interrupted before any load was generated.")
		return nil
	}

	finish(out, cfg, r.Stats, opts, started, time.Since(started))
	return nil
}

// finish produces everything that follows the last request: the final
// report, the optional export files, and the history record.
func finish(out io.Writer, cfg runner.Config, st *stats.Stats, opts Options, started time.Time, elapsed time.Duration) {
	sum := st.Summarize()
	report.PrintFinal(out, cfg, sum, elapsed)

	if opts.Out != "" {
		rep := report.NewRunReport(cfg, sum, started, elapsed)
		if err := report.WriteAll(opts.Out, rep, st.Outcomes()); err != nil {
			slog.Warn("export failed", "prefix", opts.Out, "err", err)
		} else {
			fmt.Fprintf(out, "Reports written to %s.csv and %s_summary.json\n", opts.Out, opts.Out)
		}
	}

	if !opts.NoHistory {
		saveHistory(cfg, sum, started, elapsed, opts.HistoryPath)
	}
}

// saveHistory archives the run summary. Best effort: a broken or
// locked database must never turn a completed run into a failure.
func saveHistory(cfg runner.Config, sum stats.Summary, started time.Time, elapsed time.Duration, path string) {
	var err error
	if path == "" {
		if path, err = storage.DefaultPath(); err != nil {
			slog.Warn("history skipped", "err", err)
			return
		}
	}

	st, err := storage.Open(path)
	if err != nil {
		slog.Warn("history skipped", "path", path, "err", err)
		return
	}
	defer st.Close()

	rec := storage.NewRunRecord(cfg, sum, started, elapsed)
	if err := st.Save(rec); err != nil {
		slog.Warn("history save failed", "path", path, "err", err)
		return
	}
	slog.Debug("run archived", "id", rec.ID, "path", path)
}

// wait sleeps for d unless ctx ends first, reporting whether the full
// interval elapsed.
func wait(ctx context.Context, d time.Duration) bool {
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
