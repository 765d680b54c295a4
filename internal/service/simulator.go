package service

import (
	"context"
	"math"
	"math/rand"
	"time"

	"coldsense/internal/logger"
	"coldsense/internal/models"
	"coldsense/internal/repository"

	"github.com/google/uuid"
)

// Baselines for generated telemetry, loosely matching a household fridge.
const (
	baseFridgeTempC     = 4.0
	baseFreezerTempC    = -18.0
	baseEvaporatorTempC = -24.0
	baseHumidityPct     = 42.0
	basePressureKPa     = 240.0
	baseVibrationMMS    = 2.5
	baseCurrentA        = 1.6
	baseVoltageV        = 230.0
	baseGasLeakPPM      = 8.0

	powerFactor   = 0.8
	powerCapW     = 2000.0
	doorOpenOdds  = 0.05
	anomalyOdds   = 0.08
	predictEveryN = 12
)

// SimulatorService seeds plausible readings (and periodic prediction rows)
// for local development. It is the only writer in the process and is off by
// default.
type SimulatorService struct {
	sensors     repository.SensorRepo
	predictions repository.PredictionRepo
	log         *logger.Logger
	deviceID    string
	ticks       int
}

func NewSimulatorService(sensors repository.SensorRepo, predictions repository.PredictionRepo, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		sensors:     sensors,
		predictions: predictions,
		log:         log,
		deviceID:    uuid.NewString(),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			reading := s.generateReading(now.UTC())
			if err := s.sensors.Insert(ctx, reading); err != nil {
				if s.log != nil {
					s.log.Errorw("simulator_insert_reading_failed", "err", err)
				}
				continue
			}
			s.ticks++
			if s.ticks%predictEveryN != 0 {
				continue
			}
			if err := s.predictions.Insert(ctx, derivePrediction(reading, now.UTC())); err != nil {
				if s.log != nil {
					s.log.Errorw("simulator_insert_prediction_failed", "err", err)
				}
			}
		}
	}
}

func jitter(base, spread float64) float64 {
	return base + (rand.Float64()*2-1)*spread
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// generateReading builds one reading with the derived channels computed the
// same way the inference job expects them: magnitude from the three axes,
// power from current and voltage with a 0.8 factor capped at 2 kW, and the
// fridge/evaporator differential.
func (s *SimulatorService) generateReading(now time.Time) models.SensorReading {
	vx := jitter(baseVibrationMMS, 1.0)
	vy := jitter(baseVibrationMMS, 1.0)
	vz := jitter(baseVibrationMMS, 1.0)
	current := jitter(baseCurrentA, 0.4)
	voltage := jitter(baseVoltageV, 4.0)
	fridge := jitter(baseFridgeTempC, 0.8)
	evaporator := jitter(baseEvaporatorTempC, 1.5)

	magnitude := round2(math.Sqrt(vx*vx + vy*vy + vz*vz))
	power := round2(math.Min(current*voltage*powerFactor, powerCapW))
	tempDiff := round2(fridge - evaporator)

	return models.SensorReading{
		Timestamp: now,
		DeviceID:  s.deviceID,
		Values: map[string]float64{
			models.ChannelFridgeTemperature:    round2(fridge),
			models.ChannelFreezerTemperature:   round2(jitter(baseFreezerTempC, 0.6)),
			models.ChannelEvaporatorCoilTemp:   round2(evaporator),
			models.ChannelAirHumidity:          round2(jitter(baseHumidityPct, 3.0)),
			models.ChannelRefrigerantPressure:  round2(jitter(basePressureKPa, 6.0)),
			models.ChannelCompressorVibrationX: round2(vx),
			models.ChannelCompressorVibrationY: round2(vy),
			models.ChannelCompressorVibrationZ: round2(vz),
			models.ChannelCompressorVibration:  magnitude,
			models.ChannelCompressorCurrent:    round2(current),
			models.ChannelInputVoltage:         round2(voltage),
			models.ChannelPowerConsumption:     power,
			models.ChannelGasLeakageLevel:      round2(math.Max(jitter(baseGasLeakPPM, 4.0), 0)),
			models.ChannelTemperatureDiff:      tempDiff,
		},
		Flags: map[string]bool{
			models.ChannelCompressorStatus: rand.Float64() > 0.2,
			models.ChannelDoorOpen:         rand.Float64() < doorOpenOdds,
		},
	}
}

// derivePrediction fakes an inference row that roughly tracks the reading:
// more vibration means a worse outlook.
func derivePrediction(r models.SensorReading, now time.Time) models.PredictionRecord {
	vibration, _ := r.Value(models.ChannelCompressorVibration)
	stress := math.Min(vibration/vibrationThresholdMMS, 1.0)

	anomaly := rand.Float64() < anomalyOdds+stress*0.2
	failure := math.Min(0.05+stress*0.5+rand.Float64()*0.1, 1.0)
	health := math.Max(95-stress*50-rand.Float64()*10, 0)
	rul := math.Max(24, 500-stress*400-rand.Float64()*50)

	return models.PredictionRecord{
		Timestamp:           now,
		Anomaly:             anomaly,
		FailureProbability:  round2(failure),
		HealthIndex:         round2(health),
		RemainingUsefulLife: round2(rul),
	}
}
