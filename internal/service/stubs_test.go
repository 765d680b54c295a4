package service

import (
	"context"
	"time"

	"coldsense/internal/models"
)

// sensorRepoStub satisfies repository.SensorRepo and records call arguments.
type sensorRepoStub struct {
	latest    *models.SensorReading
	latestErr error
	rows      []models.SensorReading
	rowsErr   error

	latestCalls int
	rangeCalls  int
	insertCalls int

	lastFields     []string
	lastSince      time.Time
	lastUntil      time.Time
	lastDescending bool
}

func (s *sensorRepoStub) FetchLatest(ctx context.Context, fields []string) (*models.SensorReading, error) {
	s.latestCalls++
	s.lastFields = fields
	return s.latest, s.latestErr
}

func (s *sensorRepoStub) FetchRange(ctx context.Context, fields []string, since, until time.Time, descending bool, limit int) ([]models.SensorReading, error) {
	s.rangeCalls++
	s.lastFields = fields
	s.lastSince = since
	s.lastUntil = until
	s.lastDescending = descending
	return s.rows, s.rowsErr
}

func (s *sensorRepoStub) Insert(ctx context.Context, r models.SensorReading) error {
	s.insertCalls++
	return nil
}

// predictionRepoStub satisfies repository.PredictionRepo.
type predictionRepoStub struct {
	latest    *models.PredictionRecord
	latestErr error
	rows      []models.PredictionRecord
	rowsErr   error

	latestCalls int
	rangeCalls  int
	insertCalls int

	lastSince      time.Time
	lastDescending bool
}

func (s *predictionRepoStub) FetchLatest(ctx context.Context) (*models.PredictionRecord, error) {
	s.latestCalls++
	return s.latest, s.latestErr
}

func (s *predictionRepoStub) FetchRange(ctx context.Context, since, until time.Time, descending bool, limit int) ([]models.PredictionRecord, error) {
	s.rangeCalls++
	s.lastSince = since
	s.lastDescending = descending
	return s.rows, s.rowsErr
}

func (s *predictionRepoStub) Insert(ctx context.Context, p models.PredictionRecord) error {
	s.insertCalls++
	return nil
}

// completerStub scripts one reply per Complete call.
type completerStub struct {
	replies []string
	errs    []error

	calls       int
	systemSeen  []string
	userSeen    []string
	tokenBudget []int
}

func (c *completerStub) Complete(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	i := c.calls
	c.calls++
	c.systemSeen = append(c.systemSeen, systemPrompt)
	c.userSeen = append(c.userSeen, userMessage)
	c.tokenBudget = append(c.tokenBudget, maxTokens)

	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	reply := ""
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	return reply, err
}

func reading(ts time.Time, values map[string]float64) models.SensorReading {
	return models.SensorReading{Timestamp: ts, Values: values}
}
