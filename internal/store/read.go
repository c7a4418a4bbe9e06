package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/calc/internal/ir"
)

// ReadDictionary retrieves a stored dictionary record by hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDictionary(ctx context.Context, hash string) (ir.DictionaryRecord, error) {
	var rec ir.DictionaryRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, engine_id, canonical, created_at
		FROM dictionaries
		WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.EngineID, &rec.Canonical, &rec.CreatedAt)
	if err != nil {
		return ir.DictionaryRecord{}, fmt.Errorf("read dictionary %s: %w", hash, err)
	}
	return rec, nil
}

// LoadDictionary retrieves and decodes a stored dictionary by hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) LoadDictionary(ctx context.Context, hash string) (*ir.Dictionary, error) {
	rec, err := s.ReadDictionary(ctx, hash)
	if err != nil {
		return nil, err
	}
	return unmarshalDictionary(rec.Canonical)
}

// ListDictionaries returns every stored dictionary record ordered by
// engine_id, then hash. Canonical JSON is omitted.
//
// Returns an empty slice (not nil) if the store holds no dictionaries.
func (s *Store) ListDictionaries(ctx context.Context) ([]ir.DictionaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, engine_id, created_at
		FROM dictionaries
		ORDER BY engine_id COLLATE BINARY ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query dictionaries: %w", err)
	}
	defer rows.Close()

	records := []ir.DictionaryRecord{}
	for rows.Next() {
		var rec ir.DictionaryRecord
		if err := rows.Scan(&rec.Hash, &rec.EngineID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dictionary: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dictionaries: %w", err)
	}
	return records, nil
}

// ReadRun retrieves a single run record by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dictionary_hash, engine_id, ok, inputs, outputs, errors, created_at
		FROM runs
		WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns recorded runs, most recent first.
//
// An empty dictionaryHash lists runs of every dictionary; a limit of zero
// or less lists every run. Returns an empty slice (not nil) if nothing
// matches.
func (s *Store) ListRuns(ctx context.Context, dictionaryHash string, limit int) ([]ir.RunRecord, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`
		SELECT id, dictionary_hash, engine_id, ok, inputs, outputs, errors, created_at
		FROM runs`)
	if dictionaryHash != "" {
		query.WriteString(` WHERE dictionary_hash = ?`)
		args = append(args, dictionaryHash)
	}
	query.WriteString(` ORDER BY seq DESC`)
	if limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	records := []ir.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.RunRecord, error) {
	var (
		rec                   ir.RunRecord
		inputs, outputs, errs string
	)
	if err := row.Scan(&rec.ID, &rec.DictionaryHash, &rec.EngineID, &rec.OK, &inputs, &outputs, &errs, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ir.RunRecord{}, err
		}
		return ir.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if rec.Inputs, err = unmarshalStrings(inputs); err != nil {
		return ir.RunRecord{}, err
	}
	if rec.Outputs, err = unmarshalStrings(outputs); err != nil {
		return ir.RunRecord{}, err
	}
	if rec.Errors, err = unmarshalErrors(errs); err != nil {
		return ir.RunRecord{}, err
	}
	return rec, nil
}
