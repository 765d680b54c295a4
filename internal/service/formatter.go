package service

import (
	"context"
	"encoding/json"
	"fmt"

	"coldsense/internal/models"
)

const defaultFormatMaxTokens = 180

const formatterSystemPrompt = `You are the assistant of a smart refrigerator monitoring app.
You receive a user's question and the measured data as JSON.
Answer the question conversationally in one or two short sentences, using the
numbers from the data. Mention units where obvious (°C, %, W, ppm, mm/s, hours).
If the data says no_data, say that there are no readings for that question yet.
Never mention JSON or field names verbatim.`

// FormatterService turns an aggregation result back into prose with a second
// model call. The phrasing is not validated or retried; a failed call is an
// ErrFormatting for the assistant to map to the apology path.
type FormatterService struct {
	model     Completer
	timeout   timeoutFunc
	maxTokens int
}

func NewFormatterService(model Completer, opts Options) *FormatterService {
	maxTokens := opts.FormatMaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultFormatMaxTokens
	}
	return &FormatterService{
		model:     model,
		timeout:   boundedBy(opts.LLMTimeout),
		maxTokens: maxTokens,
	}
}

func (s *FormatterService) Format(ctx context.Context, question string, intent models.QueryIntent, result any) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: marshal result: %v", ErrFormatting, err)
	}

	userMessage := fmt.Sprintf("Question: %s\nOperation: %s\nData: %s",
		question, intent.Operation, data)

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	reply, err := s.model.Complete(ctx, formatterSystemPrompt, userMessage, s.maxTokens)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormatting, err)
	}
	return reply, nil
}
