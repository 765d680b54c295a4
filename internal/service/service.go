package service

import (
	"context"
	"errors"
	"time"

	"coldsense/internal/logger"
	"coldsense/internal/models"
	"coldsense/internal/repository"
)

// Error kinds of the pipeline. Every failure surfaced by the assistant wraps
// exactly one of these, so callers and tests can branch with errors.Is.
var (
	ErrClassification        = errors.New("intent classification failed")
	ErrStore                 = errors.New("sensor store query failed")
	ErrUnrecognizedOperation = errors.New("unrecognized operation")
	ErrFormatting            = errors.New("response formatting failed")
)

// Completer is the black-box text completion service. Two calls per request:
// one to classify the question, one to phrase the answer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error)
}

// Classifier maps a free-text question to a structured query intent.
type Classifier interface {
	Classify(ctx context.Context, question string) (models.QueryIntent, error)
}

// Aggregator executes time-series aggregations against the sensor and
// prediction stores, one method per operation code.
type Aggregator interface {
	CurrentValue(ctx context.Context, field string) (models.ScalarResult, error)
	HistoricalAverage(ctx context.Context, field string, days int) (models.WindowAverage, error)
	HistoricalMax(ctx context.Context, field string, days int) (models.ExtremeResult, error)
	HistoricalMin(ctx context.Context, field string, days int) (models.ExtremeResult, error)
	Trend(ctx context.Context, field string, hours int) (models.SeriesResult, error)
	Status(ctx context.Context, field string) (models.StatusResult, error)
	AverageAllSensors(ctx context.Context, days int) (models.AllSensorsAverage, error)
	TimeOfHighest(ctx context.Context, field string, days int) (models.ExtremeResult, error)
	VibrationDetails(ctx context.Context, days int) (models.VibrationDetails, error)
	PredictionLatest(ctx context.Context) (models.LatestPrediction, error)
	PredictionHistory(ctx context.Context, field string, days int) (models.PredictionSeries, error)
	AnomalySummary(ctx context.Context, days int) (models.AnomalySummary, error)
}

// Maintenance derives a maintenance-needed verdict, either from raw sensor
// thresholds or from the latest ML prediction.
type Maintenance interface {
	CheckThresholds(ctx context.Context) (models.MaintenanceReport, error)
	CheckPredictions(ctx context.Context) (models.MaintenanceReport, error)
}

// Formatter renders an aggregation result back to conversational text.
type Formatter interface {
	Format(ctx context.Context, question string, intent models.QueryIntent, result any) (string, error)
}

// Assistant runs the full classify → execute → format pipeline for one
// question. The returned text is always user-presentable; a non-nil error
// signals an internal failure the transport should map to a 5xx.
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Simulator seeds plausible telemetry in the background for local
// development. Stop via context cancellation.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// PipelineMetrics records per-request pipeline outcomes. Implementations must
// be safe for concurrent use; a nil recorder disables instrumentation.
type PipelineMetrics interface {
	ObserveRequest(operation string, outcome string, seconds float64)
}

// Options tunes pipeline behavior from configuration.
type Options struct {
	// TreatMissingAsZero selects the literal multi-channel averaging
	// semantics: absent values count as 0 against the full row count.
	// When false, absent values are excluded from both numerator and
	// denominator.
	TreatMissingAsZero bool
	// LLMTimeout bounds each model call; StoreTimeout bounds each store
	// query. Zero disables the corresponding bound.
	LLMTimeout   time.Duration
	StoreTimeout time.Duration
	// ClassifyMaxTokens / FormatMaxTokens are the model output budgets.
	ClassifyMaxTokens int
	FormatMaxTokens   int
}

type Service struct {
	Assistant
	Classifier
	Aggregator
	Maintenance
	Formatter
	Simulator
}

// NewService wires the repository layer and the model client into concrete
// services.
func NewService(repos *repository.Repository, model Completer, log *logger.Logger, metrics PipelineMetrics, opts Options) *Service {
	classifier := NewClassifierService(model, opts)
	aggregator := NewAggregationService(repos.Sensors, repos.Predictions, opts)
	maintenance := NewMaintenanceService(repos.Sensors, repos.Predictions, opts)
	formatter := NewFormatterService(model, opts)
	return &Service{
		Assistant:   NewAssistantService(classifier, aggregator, maintenance, formatter, log, metrics),
		Classifier:  classifier,
		Aggregator:  aggregator,
		Maintenance: maintenance,
		Formatter:   formatter,
		Simulator:   NewSimulatorService(repos.Sensors, repos.Predictions, log),
	}
}
