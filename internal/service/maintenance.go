package service

import (
	"context"
	"fmt"
	"math"

	"coldsense/internal/models"
	"coldsense/internal/repository"
)

// Raw sensor thresholds of the threshold strategy.
const (
	vibrationThresholdMMS = 10.0
	gasLeakThresholdPPM   = 50.0
	tempDiffThresholdC    = 25.0
	powerThresholdW       = 500.0
)

// Prediction strategy boundaries. The needed decision and the reason list
// use different cut-offs on purpose: the original behaves this way, so a
// record can be flagged needed with an empty reason list when only the
// anomaly bit tripped.
const (
	neededFailureProbability = 0.4
	neededHealthIndex        = 50.0
	neededRULHours           = 48.0

	reasonFailureProbability = 0.4
	reasonHealthIndex        = 70.0
	reasonRULHours           = 168.0

	// RUL urgency normalization: 0 at a full week (168h) of remaining life,
	// scaling linearly to 100 at zero hours.
	rulUrgencyHorizonHours = 168.0
	rulUrgencyDivisor      = 1.68

	weightAnomaly     = 3.0
	weightFailureProb = 2.0
	weightHealthIndex = 1.0
	weightRULUrgency  = 1.0
	weightTotal       = weightAnomaly + weightFailureProb + weightHealthIndex + weightRULUrgency
)

const (
	noSensorDataReason     = "No sensor data available"
	noPredictionDataReason = "No prediction data available"
)

// thresholdChannels are the inputs of the threshold strategy.
var thresholdChannels = []string{
	models.ChannelCompressorVibration,
	models.ChannelGasLeakageLevel,
	models.ChannelTemperatureDiff,
	models.ChannelPowerConsumption,
}

type MaintenanceService struct {
	sensors     repository.SensorRepo
	predictions repository.PredictionRepo
	timeout     timeoutFunc
}

func NewMaintenanceService(sensors repository.SensorRepo, predictions repository.PredictionRepo, opts Options) *MaintenanceService {
	return &MaintenanceService{
		sensors:     sensors,
		predictions: predictions,
		timeout:     boundedBy(opts.StoreTimeout),
	}
}

// CheckThresholds flags maintenance from raw sensor limits on the latest
// reading. No data yields needed=false with an explanatory reason.
func (s *MaintenanceService) CheckThresholds(ctx context.Context) (models.MaintenanceReport, error) {
	report := models.MaintenanceReport{
		Reasons: []string{},
		Source:  models.MaintenanceSourceThresholds,
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	latest, err := s.sensors.FetchLatest(ctx, thresholdChannels)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if latest == nil {
		report.Reasons = append(report.Reasons, noSensorDataReason)
		return report, nil
	}

	report.Observed = make(map[string]float64, len(thresholdChannels))
	for _, ch := range thresholdChannels {
		if v, ok := latest.Value(ch); ok {
			report.Observed[ch] = v
		}
	}

	if v, ok := latest.Value(models.ChannelCompressorVibration); ok && v > vibrationThresholdMMS {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Compressor vibration at %.1f mm/s exceeds the %.1f mm/s limit", v, vibrationThresholdMMS))
	}
	if v, ok := latest.Value(models.ChannelGasLeakageLevel); ok && v > gasLeakThresholdPPM {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Gas leakage level at %.1f ppm exceeds the %.1f ppm limit", v, gasLeakThresholdPPM))
	}
	if v, ok := latest.Value(models.ChannelTemperatureDiff); ok && math.Abs(v) > tempDiffThresholdC {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Temperature differential of %.1f °C exceeds the %.1f °C limit", v, tempDiffThresholdC))
	}
	if v, ok := latest.Value(models.ChannelPowerConsumption); ok && v > powerThresholdW {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Power consumption at %.1f W exceeds the %.1f W limit", v, powerThresholdW))
	}

	report.Needed = len(report.Reasons) > 0
	return report, nil
}

// CheckPredictions flags maintenance from the latest ML inference row with a
// weighted confidence score. Reason strings use the softer advisory cut-offs
// while the needed bit uses the hard ones; the anomaly flag affects only the
// bit and the score, never the reasons.
func (s *MaintenanceService) CheckPredictions(ctx context.Context) (models.MaintenanceReport, error) {
	report := models.MaintenanceReport{
		Reasons: []string{},
		Source:  models.MaintenanceSourcePrediction,
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	latest, err := s.predictions.FetchLatest(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if latest == nil {
		report.Reasons = append(report.Reasons, noPredictionDataReason)
		return report, nil
	}

	report.Prediction = latest
	report.Needed = latest.Anomaly ||
		latest.FailureProbability > neededFailureProbability ||
		latest.HealthIndex < neededHealthIndex ||
		latest.RemainingUsefulLife < neededRULHours
	report.Confidence = predictionConfidence(*latest)

	if latest.FailureProbability > reasonFailureProbability {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Failure probability at %.0f%%", latest.FailureProbability*100))
	}
	if latest.HealthIndex < reasonHealthIndex {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Health index down to %.1f of 100", latest.HealthIndex))
	}
	if latest.RemainingUsefulLife < reasonRULHours {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("Remaining useful life estimated at %.0f hours", latest.RemainingUsefulLife))
	}
	return report, nil
}

// predictionConfidence is the weighted mean of four normalized signals,
// rounded and capped at 100.
func predictionConfidence(p models.PredictionRecord) int {
	anomalyScore := 0.0
	if p.Anomaly {
		anomalyScore = 100.0
	}
	failureScore := p.FailureProbability * 100
	healthScore := 100 - p.HealthIndex
	rulScore := 0.0
	if p.RemainingUsefulLife < rulUrgencyHorizonHours {
		rulScore = (rulUrgencyHorizonHours - p.RemainingUsefulLife) / rulUrgencyDivisor
	}

	weighted := anomalyScore*weightAnomaly +
		failureScore*weightFailureProb +
		healthScore*weightHealthIndex +
		rulScore*weightRULUrgency
	confidence := int(math.Round(weighted / weightTotal))
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
