package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"orderload/internal/runner"
	"orderload/internal/stats"
)

const bucketRuns = "runs"

// RunRecord is one archived load test run.
type RunRecord struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	ElapsedSec float64       `json:"elapsed_sec"`
	Throughput float64       `json:"throughput_rps"`
	Config     runner.Config `json:"config"`
	Summary    stats.Summary `json:"summary"`
}

// NewRunRecord stamps a fresh ID onto the run results.
func NewRunRecord(cfg runner.Config, sum stats.Summary, started time.Time, elapsed time.Duration) RunRecord {
	rec := RunRecord{
		ID:         uuid.NewString(),
		StartedAt:  started,
		ElapsedSec: elapsed.Seconds(),
		Config:     cfg,
		Summary:    sum,
	}
	if rec.ElapsedSec > 0 {
		rec.Throughput = float64(sum.Total) / rec.ElapsedSec
	}
	return rec
}

// key orders records chronologically in the bucket, so a reverse
// cursor walks them newest-first.
func (r RunRecord) key() []byte {
	return []byte(fmt.Sprintf("%020d/%s", r.StartedAt.UnixNano(), r.ID))
}

// Store persists run history in a single-file bbolt database.
type Store struct {
	db *bbolt.DB
}

// DefaultPath is the per-user history database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".orderload", "history.db"), nil
}

// Open creates the database and its bucket if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).Put(rec.key(), data)
	})
}

// List returns runs newest-first. A limit of 0 means all.
func (s *Store) List(limit int) ([]RunRecord, error) {
	var recs []RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			recs = append(recs, rec)
			if limit > 0 && len(recs) >= limit {
				return nil
			}
		}
		return nil
	})
	return recs, err
}

// Get looks a run up by its full ID or a unique prefix of at least 8
// characters.
func (s *Store) Get(id string) (*RunRecord, error) {
	var found *RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			if rec.ID != id && !(len(id) >= 8 && strings.HasPrefix(rec.ID, id)) {
				continue
			}
			if found != nil {
				return fmt.Errorf("run ID %q is ambiguous", id)
			}
			r := rec
			found = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return found, nil
}
