package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"coldsense/internal/models"
	"coldsense/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func newSensorMock(t *testing.T) (*repository.SensorSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	return repository.NewSensorSQLite(db), mock, func() { _ = db.Close() }
}

func TestSensorSQLite_FetchLatest_ProjectsRequestedChannel(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"timestamp", "device_id", "fridge_temperature"}).
		AddRow(ts, "dev-1", 4.2)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp, device_id, fridge_temperature FROM sensor_readings ORDER BY timestamp DESC LIMIT 1",
	)).WillReturnRows(rows)

	got, err := repo.FetchLatest(context.Background(), []string{models.ChannelFridgeTemperature})
	if err != nil {
		t.Fatalf("FetchLatest() error = %v", err)
	}
	if got == nil {
		t.Fatalf("expected a reading")
	}
	if !got.Timestamp.Equal(ts) || got.DeviceID != "dev-1" {
		t.Fatalf("reading = %+v", got)
	}
	if v, ok := got.Value(models.ChannelFridgeTemperature); !ok || v != 4.2 {
		t.Fatalf("value = %v (present=%v), want 4.2", v, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSensorSQLite_FetchLatest_NullColumnStaysAbsent(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"timestamp", "device_id", "gas_leakage_level"}).
		AddRow(ts, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp, device_id, gas_leakage_level FROM sensor_readings",
	)).WillReturnRows(rows)

	got, err := repo.FetchLatest(context.Background(), []string{models.ChannelGasLeakageLevel})
	if err != nil {
		t.Fatalf("FetchLatest() error = %v", err)
	}
	if _, ok := got.Value(models.ChannelGasLeakageLevel); ok {
		t.Fatalf("NULL column must stay absent, got %+v", got.Values)
	}
}

func TestSensorSQLite_FetchLatest_NoRowsMeansNil(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	mock.ExpectQuery("SELECT .+ FROM sensor_readings").WillReturnError(sql.ErrNoRows)

	got, err := repo.FetchLatest(context.Background(), []string{models.ChannelFridgeTemperature})
	if err != nil {
		t.Fatalf("empty table must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil reading, got %+v", got)
	}
}

func TestSensorSQLite_FetchLatest_UnknownFieldNeverReachesSQL(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	// The projection must contain only the base columns; the unknown name
	// is dropped before the query is built.
	rows := sqlmock.NewRows([]string{"timestamp", "device_id"}).AddRow(ts, "dev-1")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp, device_id FROM sensor_readings ORDER BY timestamp DESC LIMIT 1",
	)).WillReturnRows(rows)

	got, err := repo.FetchLatest(context.Background(), []string{"1; DROP TABLE sensor_readings"})
	if err != nil {
		t.Fatalf("FetchLatest() error = %v", err)
	}
	if len(got.Values) != 0 {
		t.Fatalf("expected no channel values, got %+v", got.Values)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSensorSQLite_FetchRange_WindowAndOrder(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	since := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"timestamp", "device_id", "power_consumption"}).
		AddRow(since.Add(1*time.Hour), "dev-1", 120.0).
		AddRow(since.Add(2*time.Hour), "dev-1", 140.0)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp, device_id, power_consumption FROM sensor_readings WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC",
	)).WithArgs(since, until).WillReturnRows(rows)

	got, err := repo.FetchRange(context.Background(), []string{models.ChannelPowerConsumption}, since, until, false, 0)
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if v, _ := got[1].Value(models.ChannelPowerConsumption); v != 140.0 {
		t.Fatalf("second row value = %v", v)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSensorSQLite_FetchRange_DescendingWithLimit(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	since := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC LIMIT ?")).
		WithArgs(since, until, 5).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "device_id", "fridge_temperature"}))

	got, err := repo.FetchRange(context.Background(), []string{models.ChannelFridgeTemperature}, since, until, true, 5)
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice for empty window, got %d rows", len(got))
	}
}

func TestSensorSQLite_FetchRange_QueryErrorPropagates(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	mock.ExpectQuery("SELECT .+ FROM sensor_readings").WillReturnError(errors.New("disk I/O error"))

	_, err := repo.FetchRange(context.Background(), []string{models.ChannelFridgeTemperature},
		time.Now().Add(-time.Hour), time.Now(), false, 0)
	if err == nil {
		t.Fatalf("expected the store error to propagate, got nil")
	}
}

func TestSensorSQLite_Insert_WritesAllChannels(t *testing.T) {
	repo, mock, closeDB := newSensorMock(t)
	defer closeDB()

	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	r := models.SensorReading{
		Timestamp: ts,
		DeviceID:  "dev-1",
		Values: map[string]float64{
			models.ChannelFridgeTemperature: 4.0,
		},
		Flags: map[string]bool{
			models.ChannelCompressorStatus: true,
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sensor_readings")).
		WithArgs(
			ts, "dev-1",
			4.0, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
			true, nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), r); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
