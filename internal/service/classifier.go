package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"coldsense/internal/models"
)

const defaultClassifyMaxTokens = 120

// classifierSystemPrompt enumerates the exact schema and the closed response
// grammar. The model's reply is still treated as untrusted input downstream.
const classifierSystemPromptTemplate = `You classify questions about refrigeration equipment telemetry.

Numeric sensor channels: %s.
Boolean status channels: %s.
Prediction fields: anomaly, failure_probability, health_index, remaining_useful_life.

Answer with EXACTLY ONE line, using one of these templates:
CURRENT_VALUE:<channel>
HISTORICAL_AVG:<channel>:<N>days
HISTORICAL_MAX:<channel>:<N>days
HISTORICAL_MIN:<channel>:<N>days
TREND:<channel>:<N>hours
STATUS:<boolean channel>
AVERAGE_ALL_SENSORS::<N>days
TIME_OF_HIGHEST:<channel>:<N>days
VIBRATION_DETAILS::<N>days
PREDICTION_LATEST
PREDICTION_HISTORY:<prediction field>:<N>days
ANOMALY_SUMMARY::<N>days
MAINTENANCE_CHECK
MAINTENANCE_FORECAST
GENERAL:<your short answer, for anything unrelated to the sensors>

No explanations, no extra lines.`

// generalPrefix marks a free-text fallback answer from the classifier.
const generalPrefix = "GENERAL:"

// rangeTokenPattern extracts the numeric prefix and unit of a time-range
// token by pattern, tolerating surrounding noise ("last 7days", "7 days").
var rangeTokenPattern = regexp.MustCompile(`(\d+)\s*(days?|hours?)`)

type ClassifierService struct {
	model     Completer
	timeout   timeoutFunc
	maxTokens int
}

func NewClassifierService(model Completer, opts Options) *ClassifierService {
	maxTokens := opts.ClassifyMaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClassifyMaxTokens
	}
	return &ClassifierService{
		model:     model,
		timeout:   boundedBy(opts.LLMTimeout),
		maxTokens: maxTokens,
	}
}

func classifierSystemPrompt() string {
	return fmt.Sprintf(classifierSystemPromptTemplate,
		strings.Join(models.NumericChannels, ", "),
		strings.Join(models.BooleanChannels, ", "),
	)
}

// Classify sends the question to the model and parses whatever comes back.
// Only transport/model failures are errors; malformed output still yields an
// intent, carrying an operation code the assistant will not recognize.
func (s *ClassifierService) Classify(ctx context.Context, question string) (models.QueryIntent, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	raw, err := s.model.Complete(ctx, classifierSystemPrompt(), question, s.maxTokens)
	if err != nil {
		return models.QueryIntent{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return ParseIntent(raw), nil
}

// ParseIntent parses one classifier line into a QueryIntent. The input is
// untrusted: unknown operations and fields are preserved verbatim for the
// assistant's fallback branch instead of being rejected here.
func ParseIntent(raw string) models.QueryIntent {
	line := strings.TrimSpace(raw)
	// Keep only the first line if the model rambled.
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	// The prefix check must be case-insensitive: the operation token is
	// upper-cased below, so "general:..." would otherwise map to OpGeneral
	// with the reply text lost.
	if len(line) >= len(generalPrefix) && strings.EqualFold(line[:len(generalPrefix)], generalPrefix) {
		return models.QueryIntent{
			Operation:    models.OpGeneral,
			GeneralReply: strings.TrimSpace(line[len(generalPrefix):]),
		}
	}

	parts := strings.SplitN(line, ":", 3)
	intent := models.QueryIntent{
		Operation: models.Operation(strings.ToUpper(strings.TrimSpace(parts[0]))),
	}
	if len(parts) > 1 {
		intent.Field = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		intent.Days, intent.Hours = parseRangeToken(parts[2])
	}
	return intent
}

// parseRangeToken extracts a "<N>days" or "<N>hours" token. Anything that
// does not match leaves both values zero, deferring to operation defaults.
func parseRangeToken(token string) (days, hours int) {
	m := rangeTokenPattern.FindStringSubmatch(strings.ToLower(token))
	if m == nil {
		return 0, 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, 0
	}
	if strings.HasPrefix(m[2], "hour") {
		return 0, n
	}
	return n, 0
}
