package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderload/internal/runner"
	"orderload/internal/stats"
)

func TestWriteAllRoundTrip(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run1")
	started := time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

	outcomes := []stats.Outcome{
		{Time: started, Worker: 0, Variant: stats.VariantSlow, Status: 200, OK: true, Completed: true, Latency: 120 * time.Millisecond},
		{Time: started.Add(time.Second), Worker: 1, Variant: stats.VariantFast, Err: "connection refused"},
	}
	sum := stats.Summary{
		Total: 2, Slow: 1, Fast: 1, Success: 1, Errors: 1,
		Samples: 1, MinMs: 120, MaxMs: 120, MeanMs: 120,
		P50Ms: 120, P95Ms: 120, P99Ms: 120,
	}
	rep := NewRunReport(runner.DefaultConfig(), sum, started, 30*time.Second)

	require.NoError(t, WriteAll(prefix, rep, outcomes))

	f, err := os.Open(prefix + ".csv")
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "variant", rows[0][2])
	assert.Equal(t, "slow", rows[1][2])
	assert.Equal(t, "120", rows[1][6])
	assert.Equal(t, "fast", rows[2][2])
	assert.Equal(t, "", rows[2][6], "transport failures have no latency")
	assert.Equal(t, "connection refused", rows[2][7])

	data, err := os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	var back RunReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, uint64(2), back.Summary.Total)
	assert.InDelta(t, 2.0/30.0, back.Throughput, 1e-9)
	assert.Equal(t, 10, back.Config.Workers)
}

func TestExportCSVEmptyOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, ExportCSV(nil, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
