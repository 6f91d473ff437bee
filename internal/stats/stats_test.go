package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okOutcome(v Variant, d time.Duration) Outcome {
	return Outcome{Variant: v, Status: 200, OK: true, Completed: true, Latency: d}
}

func TestRecordKeepsCountersConsistent(t *testing.T) {
	s := New(false)
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				switch i % 4 {
				case 0:
					s.Record(okOutcome(VariantSlow, 10*time.Millisecond))
				case 1:
					s.Record(okOutcome(VariantFast, 5*time.Millisecond))
				case 2:
					// non-200 completion still carries a latency sample
					s.Record(Outcome{Variant: VariantSlow, Status: 500, Completed: true, Latency: 7 * time.Millisecond})
				default:
					// transport failure: counted, but no sample
					s.Record(Outcome{Variant: VariantFast, Err: "connection refused"})
				}
			}
		}()
	}
	wg.Wait()

	total := uint64(workers * perWorker)
	assert.Equal(t, total, s.Total())
	assert.Equal(t, total, s.Slow()+s.Fast())
	assert.Equal(t, total, s.Success()+s.Errors())
	assert.Equal(t, total/2, s.Success())
	assert.Equal(t, total/2, s.Slow())
	assert.Equal(t, int(total/4*3), s.SampleCount())
	assert.InDelta(t, 50.0, s.ErrorRate(), 1e-9)
}

func TestTransportErrorHasNoLatencySample(t *testing.T) {
	s := New(true)
	s.Record(Outcome{Variant: VariantSlow, Err: "dial tcp 127.0.0.1:8080: connect: connection refused"})

	assert.Equal(t, uint64(1), s.Total())
	assert.Equal(t, uint64(1), s.Errors())
	assert.Equal(t, uint64(1), s.Slow())
	assert.Equal(t, 0, s.SampleCount())

	kept := s.Outcomes()
	require.Len(t, kept, 1)
	assert.False(t, kept[0].Completed)
	assert.Contains(t, kept[0].Err, "connection refused")
}

func TestNon200CompletionKeepsLatency(t *testing.T) {
	s := New(false)
	s.Record(Outcome{Variant: VariantFast, Status: 503, Completed: true, Latency: 42 * time.Millisecond})

	assert.Equal(t, uint64(1), s.Errors())
	assert.Equal(t, uint64(0), s.Success())
	assert.Equal(t, 1, s.SampleCount())

	sum := s.Summarize()
	assert.Equal(t, int64(42), sum.P50Ms)
	assert.Equal(t, int64(42), sum.MinMs)
}

func TestSummarize(t *testing.T) {
	s := New(false)
	for _, ms := range []int64{30, 10, 40, 20} {
		s.Record(okOutcome(VariantSlow, time.Duration(ms)*time.Millisecond))
	}

	sum := s.Summarize()
	assert.Equal(t, uint64(4), sum.Total)
	assert.Equal(t, 4, sum.Samples)
	assert.Equal(t, int64(10), sum.MinMs)
	assert.Equal(t, int64(40), sum.MaxMs)
	assert.InDelta(t, 25.0, sum.MeanMs, 1e-9)
	assert.InDelta(t, 12.90994, sum.StdDevMs, 1e-4)
	assert.Equal(t, int64(20), sum.P50Ms)
	assert.Equal(t, int64(40), sum.P95Ms)
	assert.Equal(t, int64(40), sum.P99Ms)
	assert.InDelta(t, 100.0, sum.SuccessRate(), 1e-9)
	assert.InDelta(t, 0.0, sum.ErrorRate(), 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := New(false).Summarize()
	assert.Equal(t, uint64(0), sum.Total)
	assert.Equal(t, 0, sum.Samples)
	assert.Equal(t, int64(0), sum.P99Ms)
	assert.Equal(t, 0.0, sum.SuccessRate())
}

func TestSnapshotQuantilesTrackSamples(t *testing.T) {
	s := New(false)
	for i := 0; i < 20; i++ {
		s.Record(okOutcome(VariantFast, 10*time.Millisecond))
	}
	s.Record(Outcome{Variant: VariantSlow, Err: "timeout"})

	snap := s.Snapshot()
	assert.Equal(t, uint64(21), snap.Total)
	assert.Equal(t, uint64(20), snap.Success)
	assert.Equal(t, uint64(1), snap.Errors)
	assert.InDelta(t, 10.0, snap.AvgMs, 0.5)
	assert.InDelta(t, 10.0, snap.P50Ms, 0.5)
	assert.InDelta(t, 10.0, snap.MaxMs, 0.5)
	assert.InDelta(t, 100.0/21.0, snap.ErrorRate, 1e-6)
}

func TestOutcomesNotRetainedByDefault(t *testing.T) {
	s := New(false)
	s.Record(okOutcome(VariantSlow, time.Millisecond))
	assert.Empty(t, s.Outcomes())
}
