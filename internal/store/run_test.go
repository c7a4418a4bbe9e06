package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/testutil"
)

func saveTax(t *testing.T, s *Store) string {
	t.Helper()
	hash, err := s.SaveDictionary(context.Background(), testutil.TaxDictionary())
	require.NoError(t, err)
	return hash
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	hash := saveTax(t, s)

	for _, ok := range []bool{true, false} {
		t.Run(fmt.Sprintf("ok=%v", ok), func(t *testing.T) {
			want := createTestRun(fmt.Sprintf("run-%v", ok), hash, ok)
			require.NoError(t, s.WriteRun(ctx, want))

			got, err := s.ReadRun(ctx, want.ID)
			require.NoError(t, err)
			want.CreatedAt = fixedCreatedAt
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	hash := saveTax(t, s)

	rec := createTestRun("run-1", hash, true)
	require.NoError(t, s.WriteRun(ctx, rec))
	rec.OK = false
	require.NoError(t, s.WriteRun(ctx, rec), "duplicate IDs are ignored")

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.OK, "first write wins")
}

func TestWriteRun_RequiresDictionary(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteRun(context.Background(), createTestRun("run-1", "no-such-hash", true))
	assert.ErrorContains(t, err, "FOREIGN KEY")
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tax := saveTax(t, s)

	other := testutil.TaxDictionary()
	other.EngineID = "other"
	otherHash, err := s.SaveDictionary(ctx, other)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.WriteRun(ctx, createTestRun(fmt.Sprintf("tax-%d", i), tax, true)))
	}
	require.NoError(t, s.WriteRun(ctx, createTestRun("other-1", otherHash, false)))

	ids := func(recs []ir.RunRecord) []string {
		out := []string{}
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"other-1", "tax-3", "tax-2", "tax-1"}, ids(all))

	byHash, err := s.ListRuns(ctx, tax, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"tax-3", "tax-2"}, ids(byHash))

	none, err := s.ListRuns(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMarshal_EmptyValues(t *testing.T) {
	in, err := marshalStrings(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", in)
	errs, err := marshalErrors(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", errs)

	m, err := unmarshalStrings(`{"b":"2","a":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	_, err = unmarshalErrors("not json")
	assert.Error(t, err)
}
