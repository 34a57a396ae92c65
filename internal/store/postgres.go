package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// PostgresStore keeps sections in the classifiers table, one row per key,
// each referencing its training_runs row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore. The schema comes from
// platform.AutoMigrate.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRun(ctx context.Context, db execer, rec Record) error {
	reversed := rec.Reversed
	if reversed == nil {
		reversed = []string{}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO training_runs (id, trained_at, reversed)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		rec.RunID, rec.TrainedAt, pq.Array(reversed),
	)
	if err != nil {
		return fmt.Errorf("record training run %s: %w", rec.RunID, err)
	}
	return nil
}

func upsertSection(ctx context.Context, db execer, rec Record) error {
	payload, err := json.Marshal(rec.Table)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.Key, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO classifiers (section_key, run_id, trained_at, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (section_key) DO UPDATE
		   SET run_id = EXCLUDED.run_id,
		       trained_at = EXCLUDED.trained_at,
		       payload = EXCLUDED.payload`,
		string(rec.Key), rec.RunID, rec.TrainedAt, payload,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Key, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if err := insertRun(ctx, s.db, rec); err != nil {
		return err
	}
	return upsertSection(ctx, s.db, rec)
}

func (s *PostgresStore) Load(ctx context.Context, key grading.SectionKey) (Record, error) {
	rec := Record{Key: key}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT c.run_id, c.trained_at, r.reversed, c.payload
		 FROM classifiers c JOIN training_runs r ON r.id = c.run_id
		 WHERE c.section_key = $1`,
		string(key),
	).Scan(&rec.RunID, &rec.TrainedAt, pq.Array(&rec.Reversed), &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, &rec.Table); err != nil {
		return Record{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return rec, nil
}

func (s *PostgresStore) ExistsForAll(ctx context.Context, keys []grading.SectionKey) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}

	var rows, runs int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), count(DISTINCT run_id) FROM classifiers WHERE section_key = ANY($1)`,
		pq.Array(names),
	).Scan(&rows, &runs)
	if err != nil {
		return false, fmt.Errorf("check classifier sections: %w", err)
	}
	return rows == len(keys) && runs == 1, nil
}

// ReplaceAll swaps the whole section set in one transaction.
func (s *PostgresStore) ReplaceAll(ctx context.Context, c *grading.Classifier) error {
	recs := Records(c)
	if len(recs) == 0 {
		return fmt.Errorf("replace classifier: %w", grading.ErrUntrained)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, recs[0]); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classifiers`); err != nil {
		return fmt.Errorf("clear classifiers: %w", err)
	}
	for _, rec := range recs {
		if err := upsertSection(ctx, tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit classifier run %s: %w", c.RunID, err)
	}
	return nil
}
