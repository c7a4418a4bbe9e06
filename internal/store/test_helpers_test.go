package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewFixedClock(testutil.DefaultTime)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run record with minimal required fields.
func createTestRun(id, hash string, ok bool) ir.RunRecord {
	rec := ir.RunRecord{
		ID:             id,
		DictionaryHash: hash,
		EngineID:       "income-tax",
		OK:             ok,
		Inputs:         map[string]string{"income": "1000000", "age": "40"},
	}
	if ok {
		rec.Outputs = map[string]string{"tax": "300000.00"}
	} else {
		rec.Errors = []ir.RunError{{Entity: "age", Message: "Age must be a whole number between 0 and 150"}}
	}
	return rec
}

var fixedCreatedAt = testutil.DefaultTime.Format(time.RFC3339Nano)
