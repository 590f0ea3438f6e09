package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gemstone08/circle/internal/sink"
)

// recordedAtLayout is fixed width so stored timestamps sort lexically.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z"

// Attempt is a stored submission. The radial profile itself is never kept.
type Attempt struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Score      int       `json:"score"`
	DurationS  float64   `json:"duration_s"`
	Sigma      float64   `json:"sigma"`
	SigmaRel   *float64  `json:"sigma_rel"` // nil when infinite
	NumPoints  int       `json:"num_points"`
	ClientW    int       `json:"client_w"`
	ClientH    int       `json:"client_h"`
}

// AttemptFromRow converts a sink row into a storable attempt, assigning an
// ID when the row has none.
func AttemptFromRow(row sink.Row) Attempt {
	a := Attempt{
		ID:         row.ID,
		RecordedAt: row.Timestamp.UTC(),
		Score:      row.Score,
		DurationS:  row.DurationS,
		Sigma:      row.Sigma,
		NumPoints:  row.NumPoints,
		ClientW:    row.ClientW,
		ClientH:    row.ClientH,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if !math.IsInf(row.SigmaRel, 0) && !math.IsNaN(row.SigmaRel) {
		v := row.SigmaRel
		a.SigmaRel = &v
	}
	return a
}

// RecordAttempt inserts a. Attempts are append-only.
func (db *DB) RecordAttempt(ctx context.Context, a Attempt) error {
	var sigmaRel sql.NullFloat64
	if a.SigmaRel != nil {
		sigmaRel = sql.NullFloat64{Float64: *a.SigmaRel, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO attempts (
			attempt_id, recorded_at, score, duration_s, sigma, sigma_rel,
			num_points, client_w, client_h
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RecordedAt.UTC().Format(recordedAtLayout), a.Score, a.DurationS, a.Sigma, sigmaRel,
		a.NumPoints, a.ClientW, a.ClientH,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt %s: %w", a.ID, err)
	}
	return nil
}

// Append implements sink.Appender so the attempt log can sit behind a Notifier.
func (db *DB) Append(ctx context.Context, row sink.Row) error {
	return db.RecordAttempt(ctx, AttemptFromRow(row))
}

// RecentAttempts returns up to limit attempts, newest first.
func (db *DB) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT attempt_id, recorded_at, score, duration_s, sigma, sigma_rel,
			num_points, client_w, client_h
		FROM attempts ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []Attempt{}
	for rows.Next() {
		var (
			a          Attempt
			recordedAt string
			sigmaRel   sql.NullFloat64
		)
		if err := rows.Scan(
			&a.ID, &recordedAt, &a.Score, &a.DurationS, &a.Sigma, &sigmaRel,
			&a.NumPoints, &a.ClientW, &a.ClientH,
		); err != nil {
			return nil, err
		}
		if a.RecordedAt, err = time.Parse(recordedAtLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at %q: %w", recordedAt, err)
		}
		if sigmaRel.Valid {
			v := sigmaRel.Float64
			a.SigmaRel = &v
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// AttemptCount returns the number of stored attempts.
func (db *DB) AttemptCount(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&n)
	return n, err
}
