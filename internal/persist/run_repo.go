package persist

import (
	"context"
	"fmt"
	"time"
)

// RunRow is one finished run. History only; nothing is ever restored from it.
type RunRow struct {
	Attempt  int32
	Score    int64
	Distance float64
	Ticks    int64
	Seed     int64
	EndedAt  time.Time
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// InsertRuns atomically writes a batch of finished runs in a single transaction.
func (r *RunRepo) InsertRuns(ctx context.Context, rows []RunRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("run results begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO run_results (attempt, score, distance, ticks, seed, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			row.Attempt, row.Score, row.Distance, row.Ticks, row.Seed, row.EndedAt,
		); err != nil {
			return fmt.Errorf("run results insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Best returns the highest-scoring runs, newest first among ties.
func (r *RunRepo) Best(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT attempt, score, distance, ticks, seed, ended_at
		 FROM run_results ORDER BY score DESC, ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		if err := rows.Scan(&row.Attempt, &row.Score, &row.Distance, &row.Ticks, &row.Seed, &row.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
