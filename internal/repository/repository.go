package repository

import (
	"context"
	"database/sql"
	"time"

	"coldsense/internal/models"
)

// SensorRepo is the read interface over the sensor_readings table.
// Fetch methods return (nil, nil) / (empty, nil) when no rows match: an empty
// window is a valid outcome and must stay distinguishable from a query error.
// Insert exists only for the development simulator; the chat pipeline never
// writes.
type SensorRepo interface {
	FetchLatest(ctx context.Context, fields []string) (*models.SensorReading, error)
	FetchRange(ctx context.Context, fields []string, since, until time.Time, descending bool, limit int) ([]models.SensorReading, error)
	Insert(ctx context.Context, r models.SensorReading) error
}

// PredictionRepo is the read interface over the predictions table.
type PredictionRepo interface {
	FetchLatest(ctx context.Context) (*models.PredictionRecord, error)
	FetchRange(ctx context.Context, since, until time.Time, descending bool, limit int) ([]models.PredictionRecord, error)
	Insert(ctx context.Context, p models.PredictionRecord) error
}

type Repository struct {
	Sensors     SensorRepo
	Predictions PredictionRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Sensors:     NewSensorSQLite(db),
		Predictions: NewPredictionSQLite(db),
	}
}
