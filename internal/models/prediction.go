package models

import "time"

// Prediction field names accepted by PREDICTION_HISTORY.
const (
	PredictionFieldAnomaly             = "anomaly"
	PredictionFieldFailureProbability  = "failure_probability"
	PredictionFieldHealthIndex         = "health_index"
	PredictionFieldRemainingUsefulLife = "remaining_useful_life"
)

// PredictionRecord is one row produced by the ML inference job.
// FailureProbability is in [0,1], HealthIndex in [0,100] (higher is better)
// and RemainingUsefulLife is in hours.
type PredictionRecord struct {
	Timestamp           time.Time `json:"timestamp"`
	Anomaly             bool      `json:"anomaly"`
	FailureProbability  float64   `json:"failure_probability"`
	HealthIndex         float64   `json:"health_index"`
	RemainingUsefulLife float64   `json:"remaining_useful_life"`
}

// IsPredictionField reports whether name is a known prediction column.
func IsPredictionField(name string) bool {
	switch name {
	case PredictionFieldAnomaly, PredictionFieldFailureProbability,
		PredictionFieldHealthIndex, PredictionFieldRemainingUsefulLife:
		return true
	}
	return false
}

// FieldValue returns the named column as a float64 (anomaly maps to 0/1).
func (p PredictionRecord) FieldValue(name string) (float64, bool) {
	switch name {
	case PredictionFieldAnomaly:
		if p.Anomaly {
			return 1, true
		}
		return 0, true
	case PredictionFieldFailureProbability:
		return p.FailureProbability, true
	case PredictionFieldHealthIndex:
		return p.HealthIndex, true
	case PredictionFieldRemainingUsefulLife:
		return p.RemainingUsefulLife, true
	}
	return 0, false
}
