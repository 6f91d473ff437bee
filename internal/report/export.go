package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"orderload/internal/runner"
	"orderload/internal/stats"
)

// RunReport is the JSON summary written next to the per-attempt CSV.
type RunReport struct {
	StartedAt  time.Time     `json:"started_at"`
	ElapsedSec float64       `json:"elapsed_sec"`
	Throughput float64       `json:"throughput_rps"`
	Config     runner.Config `json:"config"`
	Summary    stats.Summary `json:"summary"`
}

func NewRunReport(cfg runner.Config, sum stats.Summary, started time.Time, elapsed time.Duration) RunReport {
	rep := RunReport{
		StartedAt:  started,
		ElapsedSec: elapsed.Seconds(),
		Config:     cfg,
		Summary:    sum,
	}
	if rep.ElapsedSec > 0 {
		rep.Throughput = float64(sum.Total) / rep.ElapsedSec
	}
	return rep
}

// WriteAll writes <prefix>.csv and <prefix>_summary.json.
func WriteAll(prefix string, rep RunReport, outcomes []stats.Outcome) error {
	if err := ExportCSV(outcomes, prefix+".csv"); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := ExportSummaryJSON(rep, prefix+"_summary.json"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ExportCSV writes one row per request attempt. Transport failures
// have an empty latency column and a populated error column.
func ExportCSV(outcomes []stats.Outcome, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp_ms", "worker", "variant", "status", "success", "completed", "latency_ms", "error"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, o := range outcomes {
		latency := ""
		if o.Completed {
			latency = strconv.FormatInt(o.Latency.Milliseconds(), 10)
		}
		record := []string{
			strconv.FormatInt(o.Time.UnixMilli(), 10),
			strconv.Itoa(o.Worker),
			o.Variant.String(),
			strconv.Itoa(o.Status),
			strconv.FormatBool(o.OK),
			strconv.FormatBool(o.Completed),
			latency,
			o.Err,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportSummaryJSON writes the run report as indented JSON.
func ExportSummaryJSON(rep RunReport, filename string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
