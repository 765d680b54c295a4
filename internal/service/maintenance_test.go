package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"coldsense/internal/models"
)

func newMaintenance(sensors *sensorRepoStub, predictions *predictionRepoStub) *MaintenanceService {
	return NewMaintenanceService(sensors, predictions, Options{})
}

func TestMaintenance_CheckThresholds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("vibration over the limit flags maintenance", func(t *testing.T) {
		r := reading(now, map[string]float64{
			models.ChannelCompressorVibration: 12.0,
			models.ChannelGasLeakageLevel:     5.0,
			models.ChannelTemperatureDiff:     20.0,
			models.ChannelPowerConsumption:    150.0,
		})
		svc := newMaintenance(&sensorRepoStub{latest: &r}, &predictionRepoStub{})

		got, err := svc.CheckThresholds(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Needed {
			t.Fatalf("expected needed=true, got %+v", got)
		}
		if len(got.Reasons) != 1 || !strings.Contains(strings.ToLower(got.Reasons[0]), "vibration") {
			t.Fatalf("reasons = %v, want one vibration reason", got.Reasons)
		}
	})

	t.Run("all values under thresholds is healthy", func(t *testing.T) {
		r := reading(now, map[string]float64{
			models.ChannelCompressorVibration: 3.0,
			models.ChannelGasLeakageLevel:     10.0,
			models.ChannelTemperatureDiff:     22.0,
			models.ChannelPowerConsumption:    300.0,
		})
		svc := newMaintenance(&sensorRepoStub{latest: &r}, &predictionRepoStub{})

		got, err := svc.CheckThresholds(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Needed || len(got.Reasons) != 0 {
			t.Fatalf("expected healthy verdict, got %+v", got)
		}
	})

	t.Run("negative temperature differential uses the absolute value", func(t *testing.T) {
		r := reading(now, map[string]float64{models.ChannelTemperatureDiff: -30.0})
		svc := newMaintenance(&sensorRepoStub{latest: &r}, &predictionRepoStub{})
		got, _ := svc.CheckThresholds(ctx)
		if !got.Needed {
			t.Fatalf("expected needed for |diff| > limit, got %+v", got)
		}
	})

	t.Run("every breached threshold contributes a reason", func(t *testing.T) {
		r := reading(now, map[string]float64{
			models.ChannelCompressorVibration: 11.0,
			models.ChannelGasLeakageLevel:     80.0,
			models.ChannelTemperatureDiff:     30.0,
			models.ChannelPowerConsumption:    600.0,
		})
		svc := newMaintenance(&sensorRepoStub{latest: &r}, &predictionRepoStub{})
		got, _ := svc.CheckThresholds(ctx)
		if len(got.Reasons) != 4 {
			t.Fatalf("reasons = %v, want 4", got.Reasons)
		}
	})

	t.Run("no data yields needed=false with an explanation", func(t *testing.T) {
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{})
		got, err := svc.CheckThresholds(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Needed || len(got.Reasons) != 1 || got.Reasons[0] != noSensorDataReason {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("store error propagates as ErrStore", func(t *testing.T) {
		svc := newMaintenance(&sensorRepoStub{latestErr: errors.New("db down")}, &predictionRepoStub{})
		if _, err := svc.CheckThresholds(ctx); !errors.Is(err, ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})
}

func TestMaintenance_CheckPredictions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("healthy record needs nothing", func(t *testing.T) {
		p := models.PredictionRecord{
			Timestamp:           now,
			Anomaly:             false,
			FailureProbability:  0.05,
			HealthIndex:         92,
			RemainingUsefulLife: 400,
		}
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{latest: &p})

		got, err := svc.CheckPredictions(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Needed || len(got.Reasons) != 0 {
			t.Fatalf("got %+v", got)
		}
		// (0*3 + 5*2 + 8*1 + 0*1) / 7 = 2.57... → 3
		if got.Confidence != 3 {
			t.Fatalf("confidence = %d, want 3", got.Confidence)
		}
	})

	t.Run("anomaly alone flips needed but adds no reason", func(t *testing.T) {
		// The needed bit and the reason list use different cut-offs; only
		// the advisory ones write reasons, and the anomaly flag never does.
		p := models.PredictionRecord{
			Timestamp:           now,
			Anomaly:             true,
			FailureProbability:  0.1,
			HealthIndex:         90,
			RemainingUsefulLife: 300,
		}
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{latest: &p})

		got, err := svc.CheckPredictions(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Needed {
			t.Fatalf("expected needed=true on anomaly, got %+v", got)
		}
		if len(got.Reasons) != 0 {
			t.Fatalf("expected zero reasons, got %v", got.Reasons)
		}
	})

	t.Run("advisory thresholds write reasons even when needed is false", func(t *testing.T) {
		p := models.PredictionRecord{
			Timestamp:           now,
			FailureProbability:  0.2,
			HealthIndex:         60,  // above the needed cut-off (50), below the advisory one (70)
			RemainingUsefulLife: 100, // above needed (48), below advisory (168)
		}
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{latest: &p})

		got, _ := svc.CheckPredictions(ctx)
		if got.Needed {
			t.Fatalf("expected needed=false, got %+v", got)
		}
		if len(got.Reasons) != 2 {
			t.Fatalf("reasons = %v, want health and RUL entries", got.Reasons)
		}
	})

	t.Run("weighted confidence is rounded and capped", func(t *testing.T) {
		p := models.PredictionRecord{
			Timestamp:           now,
			Anomaly:             true,
			FailureProbability:  0.8,
			HealthIndex:         30,
			RemainingUsefulLife: 24,
		}
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{latest: &p})

		got, _ := svc.CheckPredictions(ctx)
		// anomaly 100*3, failure 80*2, health 70*1, rul (168-24)/1.68 ≈ 85.71*1
		// → (300+160+70+85.71)/7 ≈ 87.96 → 88
		if got.Confidence != 88 {
			t.Fatalf("confidence = %d, want 88", got.Confidence)
		}
		if !got.Needed || len(got.Reasons) != 3 {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("no prediction rows yields needed=false, confidence 0", func(t *testing.T) {
		svc := newMaintenance(&sensorRepoStub{}, &predictionRepoStub{})
		got, err := svc.CheckPredictions(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Needed || got.Confidence != 0 {
			t.Fatalf("got %+v", got)
		}
		if len(got.Reasons) != 1 || got.Reasons[0] != noPredictionDataReason {
			t.Fatalf("reasons = %v", got.Reasons)
		}
	})
}
