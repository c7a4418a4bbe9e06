package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/compiler"
	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/function"
	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/store"
)

func TestFixedClock_SetAndAdvance(t *testing.T) {
	clock := NewFixedClock(DefaultTime)
	assert.Equal(t, DefaultTime, clock.Now())

	clock.Advance(24 * time.Hour)
	assert.Equal(t, DefaultTime.AddDate(0, 0, 1), clock.Now())

	clock.Set(time.Time{})
	assert.True(t, clock.Now().IsZero())
}

func TestFixedClock_ConcurrentAccess(t *testing.T) {
	clock := NewFixedClock(DefaultTime)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultTime.Add(50*time.Second), clock.Now())
}

func TestFixedRunIDGenerator(t *testing.T) {
	assert.Equal(t, "run-1", NewFixedRunIDGenerator("run-1").Generate())
	assert.Equal(t, "run-1", NewFixedRunIDGenerator("run-1").Generate())
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

// TestTaxDictionary_Builds tests that the shared fixture compiles.
func TestTaxDictionary_Builds(t *testing.T) {
	prog, err := compiler.Build(TaxDictionary(), function.MustNewRegistry(function.Standard()...),
		compiler.WithClock(NewFixedClock(DefaultTime)))
	require.NoError(t, err)
	assert.Equal(t, []string{"bracket", "surcharge", "tax"}, prog.Outputs())
}

// TestFixedClock_DrivesEveryComponent tests that one clock value serves the
// compiler, the engine and the store.
func TestFixedClock_DrivesEveryComponent(t *testing.T) {
	var clock ir.Clock = NewFixedClock(DefaultTime)

	prog, err := compiler.Build(TaxDictionary(), function.MustNewRegistry(function.Standard()...),
		compiler.WithClock(clock))
	require.NoError(t, err)

	eng, err := engine.New(prog, engine.WithClock(clock), engine.WithRunIDGenerator(NewFixedRunIDGenerator("run-1")))
	require.NoError(t, err)
	res := eng.Calculate(map[string]string{"income": "1000000", "age": "40"})
	assert.Equal(t, DefaultTime, res.StartedAt)

	st, err := store.Open(filepath.Join(t.TempDir(), "calc.db"), store.WithClock(clock))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.SaveDictionary(ctx, TaxDictionary())
	require.NoError(t, err)
	dicts, err := st.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, dicts, 1)
	assert.Equal(t, DefaultTime.Format(time.RFC3339Nano), dicts[0].CreatedAt)
}
