package service

import (
	"context"
	"errors"
	"time"

	"coldsense/internal/logger"
	"coldsense/internal/models"
)

// User-facing fallback texts. Internal errors are logged, never echoed.
const (
	apologyMessage = "Sorry, I ran into a problem answering that. Please try again in a moment."

	clarificationMessage = "I'm not sure how to answer that. Try asking about your refrigerator's sensors — " +
		"for example: \"What is the current fridge temperature?\""
)

// Metric outcome labels.
const (
	outcomeAnswered      = "answered"
	outcomeGeneral       = "general"
	outcomeClarification = "clarification"
	outcomeFailed        = "failed"
)

// AssistantService sequences classify → execute → format for one question.
// Requests are stateless and independent; the only shared state is the
// injected, immutable collaborators.
type AssistantService struct {
	classifier  Classifier
	aggregator  Aggregator
	maintenance Maintenance
	formatter   Formatter
	log         *logger.Logger
	metrics     PipelineMetrics
}

func NewAssistantService(classifier Classifier, aggregator Aggregator, maintenance Maintenance, formatter Formatter, log *logger.Logger, metrics PipelineMetrics) *AssistantService {
	return &AssistantService{
		classifier:  classifier,
		aggregator:  aggregator,
		maintenance: maintenance,
		formatter:   formatter,
		log:         log,
		metrics:     metrics,
	}
}

// Answer runs the pipeline. The returned string is always presentable to the
// user; err is non-nil only for internal failures (classification, store, or
// formatting), in which case the string is the generic apology.
func (s *AssistantService) Answer(ctx context.Context, question string) (string, error) {
	started := time.Now()
	operation := "unknown"
	outcome := outcomeFailed
	defer func() {
		s.observe(operation, outcome, time.Since(started))
	}()

	intent, err := s.classifier.Classify(ctx, question)
	if err != nil {
		s.logError("classification_failed", err)
		return apologyMessage, err
	}
	operation = string(intent.Operation)

	// GENERAL short-circuits: the classifier already wrote the answer.
	if intent.Operation == models.OpGeneral {
		outcome = outcomeGeneral
		return intent.GeneralReply, nil
	}

	result, err := s.execute(ctx, intent)
	if errors.Is(err, ErrUnrecognizedOperation) {
		outcome = outcomeClarification
		return clarificationMessage, nil
	}
	if err != nil {
		s.logError("execution_failed", err, "operation", intent.Operation, "field", intent.Field)
		return apologyMessage, err
	}

	reply, err := s.formatter.Format(ctx, question, intent, result)
	if err != nil {
		s.logError("formatting_failed", err, "operation", intent.Operation)
		return apologyMessage, err
	}
	outcome = outcomeAnswered
	return reply, nil
}

// execute dispatches to the aggregation engine or the maintenance heuristic
// by operation code. Empty results are valid and flow on to formatting; only
// store failures and unknown codes are errors.
func (s *AssistantService) execute(ctx context.Context, intent models.QueryIntent) (any, error) {
	switch intent.Operation {
	case models.OpCurrentValue:
		return s.aggregator.CurrentValue(ctx, intent.Field)
	case models.OpHistoricalAvg:
		return s.aggregator.HistoricalAverage(ctx, intent.Field, intent.Days)
	case models.OpHistoricalMax:
		return s.aggregator.HistoricalMax(ctx, intent.Field, intent.Days)
	case models.OpHistoricalMin:
		return s.aggregator.HistoricalMin(ctx, intent.Field, intent.Days)
	case models.OpTrend:
		return s.aggregator.Trend(ctx, intent.Field, intent.Hours)
	case models.OpStatus:
		return s.aggregator.Status(ctx, intent.Field)
	case models.OpAverageAllSensors:
		return s.aggregator.AverageAllSensors(ctx, intent.Days)
	case models.OpTimeOfHighest:
		return s.aggregator.TimeOfHighest(ctx, intent.Field, intent.Days)
	case models.OpVibrationDetails:
		return s.aggregator.VibrationDetails(ctx, intent.Days)
	case models.OpPredictionLatest:
		return s.aggregator.PredictionLatest(ctx)
	case models.OpPredictionHistory:
		return s.aggregator.PredictionHistory(ctx, intent.Field, intent.Days)
	case models.OpAnomalySummary:
		return s.aggregator.AnomalySummary(ctx, intent.Days)
	case models.OpMaintenanceCheck:
		return s.maintenance.CheckThresholds(ctx)
	case models.OpMaintenanceForecast:
		return s.maintenance.CheckPredictions(ctx)
	default:
		return nil, ErrUnrecognizedOperation
	}
}

func (s *AssistantService) logError(key string, err error, kv ...any) {
	if s.log == nil {
		return
	}
	fields := append([]any{"err", err}, kv...)
	s.log.Errorw(key, fields...)
}

func (s *AssistantService) observe(operation, outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRequest(operation, outcome, elapsed.Seconds())
}
