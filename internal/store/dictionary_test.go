package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/ir"
	"github.com/roach88/calc/internal/testutil"
)

func TestSaveDictionary_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	dict := testutil.TaxDictionary()

	hash, err := s.SaveDictionary(ctx, dict)
	require.NoError(t, err)
	assert.Equal(t, ir.MustDictionaryHash(dict), hash)

	rec, err := s.ReadDictionary(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "income-tax", rec.EngineID)
	assert.Equal(t, fixedCreatedAt, rec.CreatedAt)
	canonical, err := ir.MarshalCanonical(dict)
	require.NoError(t, err)
	assert.Equal(t, string(canonical), rec.Canonical)

	loaded, err := s.LoadDictionary(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, ir.MustDictionaryHash(loaded), "a loaded dictionary hashes the same")
}

func TestSaveDictionary_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.SaveDictionary(ctx, testutil.TaxDictionary())
	require.NoError(t, err)
	second, err := s.SaveDictionary(ctx, testutil.TaxDictionary())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveDictionary_Nil(t *testing.T) {
	s := createTestStore(t)
	_, err := s.SaveDictionary(context.Background(), nil)
	assert.Error(t, err)
}

func TestListDictionaries_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	b := testutil.TaxDictionary()
	b.EngineID = "b-engine"
	a := testutil.TaxDictionary()
	a.EngineID = "a-engine"
	for _, d := range []*ir.Dictionary{b, a} {
		_, err := s.SaveDictionary(ctx, d)
		require.NoError(t, err)
	}

	list, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-engine", list[0].EngineID)
	assert.Equal(t, "b-engine", list[1].EngineID)
	assert.Empty(t, list[0].Canonical)
}

func TestReadDictionary_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadDictionary(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	_, err = s.LoadDictionary(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
