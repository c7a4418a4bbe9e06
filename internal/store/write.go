package store

import (
	"context"
	"fmt"

	"github.com/roach88/calc/internal/ir"
)

// SaveDictionary stores a dictionary under its content hash and returns
// the hash. Uses ON CONFLICT(hash) DO NOTHING for idempotency - saving the
// same dictionary twice keeps the first record.
func (s *Store) SaveDictionary(ctx context.Context, d *ir.Dictionary) (string, error) {
	if d == nil {
		return "", fmt.Errorf("save dictionary: dictionary is nil")
	}
	canonical, err := ir.MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("save dictionary: %w", err)
	}
	hash, err := ir.DictionaryHash(d)
	if err != nil {
		return "", fmt.Errorf("save dictionary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dictionaries (hash, engine_id, canonical, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		d.EngineID,
		string(canonical),
		s.now(),
	)
	if err != nil {
		return "", fmt.Errorf("save dictionary: %w", err)
	}

	return hash, nil
}

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
//
// Note: The dictionary referenced by DictionaryHash must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, rec ir.RunRecord) error {
	inputs, err := marshalStrings(rec.Inputs)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	outputs, err := marshalStrings(rec.Outputs)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	errs, err := marshalErrors(rec.Errors)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, dictionary_hash, engine_id, ok, inputs, outputs, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.DictionaryHash,
		rec.EngineID,
		rec.OK,
		inputs,
		outputs,
		errs,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}
