package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates the SQLite telemetry DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaSensorReadings = `
CREATE TABLE IF NOT EXISTS sensor_readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TIMESTAMP NOT NULL,
    device_id TEXT,
    fridge_temperature REAL,
    freezer_temperature REAL,
    evaporator_coil_temperature REAL,
    air_humidity REAL,
    refrigerant_pressure REAL,
    compressor_vibration_x REAL,
    compressor_vibration_y REAL,
    compressor_vibration_z REAL,
    compressor_vibration REAL,
    compressor_current REAL,
    input_voltage REAL,
    power_consumption REAL,
    gas_leakage_level REAL,
    temperature_diff REAL,
    compressor_status BOOLEAN,
    door_open BOOLEAN
);
`

const schemaSensorReadingsIndex = `
CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp
    ON sensor_readings (timestamp);
`

const schemaPredictions = `
CREATE TABLE IF NOT EXISTS predictions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TIMESTAMP NOT NULL,
    anomaly BOOLEAN NOT NULL,
    failure_probability REAL NOT NULL,
    health_index REAL NOT NULL,
    remaining_useful_life REAL NOT NULL
);
`

const schemaPredictionsIndex = `
CREATE INDEX IF NOT EXISTS idx_predictions_timestamp
    ON predictions (timestamp);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaSensorReadings,
		schemaSensorReadingsIndex,
		schemaPredictions,
		schemaPredictionsIndex,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
