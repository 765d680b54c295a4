package models

import "time"

// Point is one (timestamp, value) sample in a series result.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ScalarResult is the latest value of a single channel.
type ScalarResult struct {
	Field     string     `json:"field"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	NoData    bool       `json:"no_data,omitempty"`
}

// StatusResult is the latest state of a boolean channel.
type StatusResult struct {
	Field     string     `json:"field"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	On        *bool      `json:"on,omitempty"`
	NoData    bool       `json:"no_data,omitempty"`
}

// WindowAverage is the mean of a channel over a day window.
// SampleCount is the number of values that contributed.
type WindowAverage struct {
	Field       string   `json:"field"`
	WindowDays  int      `json:"window_days"`
	Average     *float64 `json:"average,omitempty"`
	SampleCount int      `json:"sample_count"`
	NoData      bool     `json:"no_data,omitempty"`
}

// ExtremeResult is the row holding the extreme value of a channel over a
// window. Ties keep the first row in store order.
type ExtremeResult struct {
	Field      string    `json:"field"`
	WindowDays int       `json:"window_days"`
	Kind       string    `json:"kind"` // "max" or "min"
	Timestamp  time.Time `json:"timestamp,omitempty"`
	Value      float64   `json:"value,omitempty"`
	NoData     bool      `json:"no_data,omitempty"`
}

// SeriesResult is the full ordered series of a channel over an hour window,
// ascending by timestamp. Used for qualitative trend narration.
type SeriesResult struct {
	Field       string  `json:"field"`
	WindowHours int     `json:"window_hours"`
	Points      []Point `json:"points"`
	NoData      bool    `json:"no_data,omitempty"`
}

// AllSensorsAverage holds per-channel means over a day window. A nil entry
// means the channel had no usable values under null-exclusion semantics.
type AllSensorsAverage struct {
	WindowDays  int                 `json:"window_days"`
	SampleCount int                 `json:"sample_count"`
	Averages    map[string]*float64 `json:"averages"`
	NoData      bool                `json:"no_data,omitempty"`
}

// AxisStats bundles min/max/average for one vibration channel.
type AxisStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// VibrationDetails carries stats for the vibration magnitude and each axis,
// plus the raw magnitude series.
type VibrationDetails struct {
	WindowDays  int                  `json:"window_days"`
	SampleCount int                  `json:"sample_count"`
	Stats       map[string]AxisStats `json:"stats"`
	Series      []Point              `json:"series"`
	NoData      bool                 `json:"no_data,omitempty"`
}

// LatestPrediction wraps the most recent ML inference row, if any.
type LatestPrediction struct {
	Record *PredictionRecord `json:"record,omitempty"`
	NoData bool              `json:"no_data,omitempty"`
}

// PredictionSeries is an ordered series of one prediction column.
type PredictionSeries struct {
	Field      string  `json:"field"`
	WindowDays int     `json:"window_days"`
	Points     []Point `json:"points"`
	NoData     bool    `json:"no_data,omitempty"`
}

// AnomalySummary aggregates the anomaly flags over a day window.
// AnomalyPercentage is preformatted with one decimal ("30.0").
type AnomalySummary struct {
	WindowDays        int         `json:"window_days"`
	TotalPredictions  int         `json:"total_predictions"`
	AnomalyCount      int         `json:"anomaly_count"`
	AnomalyPercentage string      `json:"anomaly_percentage"`
	RecentAnomalies   []time.Time `json:"recent_anomalies,omitempty"`
}

// Maintenance report sources.
const (
	MaintenanceSourceThresholds = "sensor_thresholds"
	MaintenanceSourcePrediction = "ml_prediction"
)

// MaintenanceReport is the verdict of either maintenance strategy.
// Confidence is only populated by the prediction strategy (0..100).
type MaintenanceReport struct {
	Needed     bool               `json:"needed"`
	Reasons    []string           `json:"reasons"`
	Confidence int                `json:"confidence"`
	Source     string             `json:"source"`
	Observed   map[string]float64 `json:"observed,omitempty"`
	Prediction *PredictionRecord  `json:"prediction,omitempty"`
}
