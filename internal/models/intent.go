package models

// Operation is the closed set of query intents the classifier may emit.
// The classifier is a best-effort oracle: any string can come back, so
// consumers must treat unknown values as a fallback case, never panic.
type Operation string

const (
	OpCurrentValue        Operation = "CURRENT_VALUE"
	OpHistoricalAvg       Operation = "HISTORICAL_AVG"
	OpHistoricalMax       Operation = "HISTORICAL_MAX"
	OpHistoricalMin       Operation = "HISTORICAL_MIN"
	OpTrend               Operation = "TREND"
	OpStatus              Operation = "STATUS"
	OpAverageAllSensors   Operation = "AVERAGE_ALL_SENSORS"
	OpTimeOfHighest       Operation = "TIME_OF_HIGHEST"
	OpVibrationDetails    Operation = "VIBRATION_DETAILS"
	OpPredictionLatest    Operation = "PREDICTION_LATEST"
	OpPredictionHistory   Operation = "PREDICTION_HISTORY"
	OpAnomalySummary      Operation = "ANOMALY_SUMMARY"
	OpMaintenanceCheck    Operation = "MAINTENANCE_CHECK"
	OpMaintenanceForecast Operation = "MAINTENANCE_FORECAST"
	OpGeneral             Operation = "GENERAL"
)

// QueryIntent is the structured form of one user question. It lives for a
// single request: produced by the classifier, consumed once by the assistant.
type QueryIntent struct {
	Operation Operation
	Field     string
	// Days and Hours carry the parsed time-range token; zero means the token
	// was absent and the operation default applies.
	Days  int
	Hours int
	// GeneralReply holds the free-text answer for OpGeneral.
	GeneralReply string
}
