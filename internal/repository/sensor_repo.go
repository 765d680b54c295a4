package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"coldsense/internal/models"
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite {
	return &SensorSQLite{db: db}
}

// projection resolves requested channel names to a safe column list.
// Unknown names are dropped rather than rejected: a bad field coming out of
// the classifier degrades to an empty/absent column, never to dynamic SQL.
// An empty request selects every known channel.
func projection(fields []string) []string {
	if len(fields) == 0 {
		cols := make([]string, 0, len(models.NumericChannels)+len(models.BooleanChannels))
		cols = append(cols, models.NumericChannels...)
		cols = append(cols, models.BooleanChannels...)
		return cols
	}
	cols := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !models.IsChannel(f) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		cols = append(cols, f)
	}
	return cols
}

func selectClause(cols []string) string {
	all := append([]string{"timestamp", "device_id"}, cols...)
	return "SELECT " + strings.Join(all, ", ") + " FROM sensor_readings"
}

// scanReading scans one row into a sparse SensorReading. NULL columns leave
// no entry in the maps, so absence stays distinguishable from zero.
func scanReading(scan func(dest ...any) error, cols []string) (models.SensorReading, error) {
	var (
		ts       time.Time
		deviceID sql.NullString
	)
	dest := make([]any, 0, len(cols)+2)
	dest = append(dest, &ts, &deviceID)

	numeric := make([]sql.NullFloat64, len(cols))
	boolean := make([]sql.NullBool, len(cols))
	for i, c := range cols {
		if models.IsBooleanChannel(c) {
			dest = append(dest, &boolean[i])
		} else {
			dest = append(dest, &numeric[i])
		}
	}

	if err := scan(dest...); err != nil {
		return models.SensorReading{}, err
	}

	r := models.SensorReading{Timestamp: ts.UTC()}
	if deviceID.Valid {
		r.DeviceID = deviceID.String
	}
	for i, c := range cols {
		if models.IsBooleanChannel(c) {
			if boolean[i].Valid {
				if r.Flags == nil {
					r.Flags = make(map[string]bool)
				}
				r.Flags[c] = boolean[i].Bool
			}
			continue
		}
		if numeric[i].Valid {
			if r.Values == nil {
				r.Values = make(map[string]float64)
			}
			r.Values[c] = numeric[i].Float64
		}
	}
	return r, nil
}

// FetchLatest returns the most recent reading projected to the given fields,
// or nil when the table is empty.
func (r *SensorSQLite) FetchLatest(ctx context.Context, fields []string) (*models.SensorReading, error) {
	cols := projection(fields)
	query := selectClause(cols) + " ORDER BY timestamp DESC LIMIT 1"

	row := r.db.QueryRowContext(ctx, query)
	reading, err := scanReading(row.Scan, cols)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch latest sensor reading: %w", err)
	}
	return &reading, nil
}

// FetchRange returns readings with timestamp in [since, until], ordered by
// timestamp. A window with no rows yields an empty slice, not an error.
func (r *SensorSQLite) FetchRange(ctx context.Context, fields []string, since, until time.Time, descending bool, limit int) ([]models.SensorReading, error) {
	cols := projection(fields)

	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	query := selectClause(cols) + " WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp " + direction
	args := []any{since.UTC(), until.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sensor readings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	readings := make([]models.SensorReading, 0)
	for rows.Next() {
		reading, err := scanReading(rows.Scan, cols)
		if err != nil {
			return nil, fmt.Errorf("scan sensor reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor readings: %w", err)
	}
	return readings, nil
}

const insertReadingSQL = `
	INSERT INTO sensor_readings (
		timestamp, device_id,
		fridge_temperature, freezer_temperature, evaporator_coil_temperature,
		air_humidity, refrigerant_pressure,
		compressor_vibration_x, compressor_vibration_y, compressor_vibration_z,
		compressor_vibration, compressor_current, input_voltage,
		power_consumption, gas_leakage_level, temperature_diff,
		compressor_status, door_open
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Insert writes one reading. Used by the development simulator only.
func (r *SensorSQLite) Insert(ctx context.Context, reading models.SensorReading) error {
	ts := reading.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	nullable := func(ch string) any {
		if v, ok := reading.Value(ch); ok {
			return v
		}
		return nil
	}
	nullableFlag := func(ch string) any {
		if v, ok := reading.Flag(ch); ok {
			return v
		}
		return nil
	}

	args := []any{ts.UTC(), reading.DeviceID}
	for _, ch := range models.NumericChannels {
		args = append(args, nullable(ch))
	}
	for _, ch := range models.BooleanChannels {
		args = append(args, nullableFlag(ch))
	}

	if _, err := r.db.ExecContext(ctx, insertReadingSQL, args...); err != nil {
		return fmt.Errorf("insert sensor reading: %w", err)
	}
	return nil
}
