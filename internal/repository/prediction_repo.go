package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coldsense/internal/models"
)

type PredictionSQLite struct {
	db *sql.DB
}

func NewPredictionSQLite(db *sql.DB) *PredictionSQLite {
	return &PredictionSQLite{db: db}
}

const (
	selectPredictionSQL = `
		SELECT timestamp, anomaly, failure_probability, health_index, remaining_useful_life
		FROM predictions
	`

	insertPredictionSQL = `
		INSERT INTO predictions (timestamp, anomaly, failure_probability, health_index, remaining_useful_life)
		VALUES (?, ?, ?, ?, ?)
	`
)

func scanPrediction(scan func(dest ...any) error) (models.PredictionRecord, error) {
	var p models.PredictionRecord
	if err := scan(
		&p.Timestamp,
		&p.Anomaly,
		&p.FailureProbability,
		&p.HealthIndex,
		&p.RemainingUsefulLife,
	); err != nil {
		return models.PredictionRecord{}, err
	}
	p.Timestamp = p.Timestamp.UTC()
	return p, nil
}

// FetchLatest returns the most recent inference row, or nil when none exist.
func (r *PredictionSQLite) FetchLatest(ctx context.Context) (*models.PredictionRecord, error) {
	row := r.db.QueryRowContext(ctx, selectPredictionSQL+" ORDER BY timestamp DESC LIMIT 1")
	p, err := scanPrediction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch latest prediction: %w", err)
	}
	return &p, nil
}

// FetchRange returns predictions with timestamp in [since, until], ordered by
// timestamp. No matching rows yields an empty slice, not an error.
func (r *PredictionSQLite) FetchRange(ctx context.Context, since, until time.Time, descending bool, limit int) ([]models.PredictionRecord, error) {
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	query := selectPredictionSQL + " WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp " + direction
	args := []any{since.UTC(), until.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.PredictionRecord, 0)
	for rows.Next() {
		p, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return records, nil
}

// Insert writes one inference row. Used by the development simulator only.
func (r *PredictionSQLite) Insert(ctx context.Context, p models.PredictionRecord) error {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, insertPredictionSQL,
		ts.UTC(),
		p.Anomaly,
		p.FailureProbability,
		p.HealthIndex,
		p.RemainingUsefulLife,
	); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}
