package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"coldsense/internal/models"
	"coldsense/internal/repository"
)

// Window defaults applied when the classifier omits the range token.
const (
	defaultWindowDays  = 7
	defaultTrendHours  = 24
	maxRecentAnomalies = 5
)

// AggregationService computes the per-operation results from store rows.
// It owns field validation: an unknown field degrades to an empty result
// before any query is built, so classifier output never reaches SQL.
type AggregationService struct {
	sensors     repository.SensorRepo
	predictions repository.PredictionRepo
	timeout     timeoutFunc
	zeroMissing bool
}

func NewAggregationService(sensors repository.SensorRepo, predictions repository.PredictionRepo, opts Options) *AggregationService {
	return &AggregationService{
		sensors:     sensors,
		predictions: predictions,
		timeout:     boundedBy(opts.StoreTimeout),
		zeroMissing: opts.TreatMissingAsZero,
	}
}

func windowDays(days int) (time.Time, int) {
	if days <= 0 {
		days = defaultWindowDays
	}
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour), days
}

func windowHours(hours int) (time.Time, int) {
	if hours <= 0 {
		hours = defaultTrendHours
	}
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour), hours
}

// CurrentValue returns the latest value of one channel.
func (s *AggregationService) CurrentValue(ctx context.Context, field string) (models.ScalarResult, error) {
	result := models.ScalarResult{Field: field}
	if !models.IsNumericChannel(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	latest, err := s.sensors.FetchLatest(ctx, []string{field})
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if latest == nil {
		result.NoData = true
		return result, nil
	}

	ts := latest.Timestamp
	result.Timestamp = &ts
	if v, ok := latest.Value(field); ok {
		result.Value = &v
	}
	return result, nil
}

// HistoricalAverage returns the mean of non-null values over a day window.
// Zero usable values yields an explicit empty result, never 0/0.
func (s *AggregationService) HistoricalAverage(ctx context.Context, field string, days int) (models.WindowAverage, error) {
	since, days := windowDays(days)
	result := models.WindowAverage{Field: field, WindowDays: days}
	if !models.IsNumericChannel(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.sensors.FetchRange(ctx, []string{field}, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var sum float64
	for _, row := range rows {
		if v, ok := row.Value(field); ok {
			sum += v
			result.SampleCount++
		}
	}
	if result.SampleCount == 0 {
		result.NoData = true
		return result, nil
	}
	avg := sum / float64(result.SampleCount)
	result.Average = &avg
	return result, nil
}

// HistoricalMax returns the row with the highest value of a channel over a
// day window. Ties keep the first row in store order.
func (s *AggregationService) HistoricalMax(ctx context.Context, field string, days int) (models.ExtremeResult, error) {
	return s.extreme(ctx, field, days, "max")
}

// HistoricalMin is the minimum counterpart of HistoricalMax.
func (s *AggregationService) HistoricalMin(ctx context.Context, field string, days int) (models.ExtremeResult, error) {
	return s.extreme(ctx, field, days, "min")
}

// TimeOfHighest reuses the max scan; the formatter leads with the timestamp.
func (s *AggregationService) TimeOfHighest(ctx context.Context, field string, days int) (models.ExtremeResult, error) {
	return s.extreme(ctx, field, days, "max")
}

func (s *AggregationService) extreme(ctx context.Context, field string, days int, kind string) (models.ExtremeResult, error) {
	since, days := windowDays(days)
	result := models.ExtremeResult{Field: field, WindowDays: days, Kind: kind}
	if !models.IsNumericChannel(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.sensors.FetchRange(ctx, []string{field}, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	found := false
	for _, row := range rows {
		v, ok := row.Value(field)
		if !ok {
			continue
		}
		// Strict comparison keeps the first row on ties.
		better := kind == "max" && v > result.Value || kind == "min" && v < result.Value
		if !found || better {
			result.Value = v
			result.Timestamp = row.Timestamp
			found = true
		}
	}
	result.NoData = !found
	return result, nil
}

// Trend returns the full ordered series over an hour window, ascending. The
// caller narrates the shape; no slope is fitted.
func (s *AggregationService) Trend(ctx context.Context, field string, hours int) (models.SeriesResult, error) {
	since, hours := windowHours(hours)
	result := models.SeriesResult{Field: field, WindowHours: hours, Points: []models.Point{}}
	if !models.IsNumericChannel(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.sensors.FetchRange(ctx, []string{field}, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	for _, row := range rows {
		if v, ok := row.Value(field); ok {
			result.Points = append(result.Points, models.Point{Timestamp: row.Timestamp, Value: v})
		}
	}
	result.NoData = len(result.Points) == 0
	return result, nil
}

// Status returns the latest state of a boolean channel.
func (s *AggregationService) Status(ctx context.Context, field string) (models.StatusResult, error) {
	result := models.StatusResult{Field: field}
	if !models.IsBooleanChannel(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	latest, err := s.sensors.FetchLatest(ctx, []string{field})
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if latest == nil {
		result.NoData = true
		return result, nil
	}

	ts := latest.Timestamp
	result.Timestamp = &ts
	if on, ok := latest.Flag(field); ok {
		result.On = &on
	}
	return result, nil
}

// AverageAllSensors computes the per-channel mean across every numeric
// channel over a day window. In zero-missing mode each channel is averaged
// over the full row count with absent values counted as 0, matching the
// original behavior; otherwise absent values are excluded and a channel with
// no usable values reports nil.
func (s *AggregationService) AverageAllSensors(ctx context.Context, days int) (models.AllSensorsAverage, error) {
	since, days := windowDays(days)
	result := models.AllSensorsAverage{
		WindowDays: days,
		Averages:   make(map[string]*float64, len(models.NumericChannels)),
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.sensors.FetchRange(ctx, models.NumericChannels, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	result.SampleCount = len(rows)
	if len(rows) == 0 {
		result.NoData = true
		return result, nil
	}

	for _, ch := range models.NumericChannels {
		var sum float64
		count := 0
		for _, row := range rows {
			v, ok := row.Value(ch)
			switch {
			case ok:
				sum += v
				count++
			case s.zeroMissing:
				count++
			}
		}
		if count == 0 {
			result.Averages[ch] = nil
			continue
		}
		avg := sum / float64(count)
		result.Averages[ch] = &avg
	}
	return result, nil
}

// vibrationChannels are the stat targets of VIBRATION_DETAILS, magnitude first.
var vibrationChannels = []string{
	models.ChannelCompressorVibration,
	models.ChannelCompressorVibrationX,
	models.ChannelCompressorVibrationY,
	models.ChannelCompressorVibrationZ,
}

// VibrationDetails returns min/max/avg for the vibration magnitude and each
// axis plus the raw magnitude series. In zero-missing mode absent values are
// coerced to 0 before the stats, matching the original behavior.
func (s *AggregationService) VibrationDetails(ctx context.Context, days int) (models.VibrationDetails, error) {
	since, days := windowDays(days)
	result := models.VibrationDetails{
		WindowDays: days,
		Stats:      make(map[string]models.AxisStats, len(vibrationChannels)),
		Series:     []models.Point{},
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.sensors.FetchRange(ctx, vibrationChannels, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	result.SampleCount = len(rows)
	if len(rows) == 0 {
		result.NoData = true
		return result, nil
	}

	for _, ch := range vibrationChannels {
		stats := models.AxisStats{}
		var sum float64
		count := 0
		for _, row := range rows {
			v, ok := row.Value(ch)
			if !ok {
				if !s.zeroMissing {
					continue
				}
				v = 0
			}
			if count == 0 || v < stats.Min {
				stats.Min = v
			}
			if count == 0 || v > stats.Max {
				stats.Max = v
			}
			sum += v
			count++
		}
		if count > 0 {
			stats.Average = sum / float64(count)
			result.Stats[ch] = stats
		}
	}

	for _, row := range rows {
		v, ok := row.Value(models.ChannelCompressorVibration)
		if !ok {
			if !s.zeroMissing {
				continue
			}
			v = 0
		}
		result.Series = append(result.Series, models.Point{Timestamp: row.Timestamp, Value: v})
	}
	return result, nil
}

// PredictionLatest returns the most recent ML inference row.
func (s *AggregationService) PredictionLatest(ctx context.Context) (models.LatestPrediction, error) {
	ctx, cancel := s.timeout(ctx)
	defer cancel()
	latest, err := s.predictions.FetchLatest(ctx)
	if err != nil {
		return models.LatestPrediction{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if latest == nil {
		return models.LatestPrediction{NoData: true}, nil
	}
	return models.LatestPrediction{Record: latest}, nil
}

// PredictionHistory returns the ordered series of one prediction column over
// a day window (anomaly maps to 0/1).
func (s *AggregationService) PredictionHistory(ctx context.Context, field string, days int) (models.PredictionSeries, error) {
	since, days := windowDays(days)
	result := models.PredictionSeries{Field: field, WindowDays: days, Points: []models.Point{}}
	if !models.IsPredictionField(field) {
		result.NoData = true
		return result, nil
	}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	rows, err := s.predictions.FetchRange(ctx, since, time.Now().UTC(), false, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	for _, p := range rows {
		if v, ok := p.FieldValue(field); ok {
			result.Points = append(result.Points, models.Point{Timestamp: p.Timestamp, Value: v})
		}
	}
	result.NoData = len(result.Points) == 0
	return result, nil
}

// AnomalySummary counts anomalies over a day window. Zero rows yields a
// percentage of "0.0", never NaN.
func (s *AggregationService) AnomalySummary(ctx context.Context, days int) (models.AnomalySummary, error) {
	since, days := windowDays(days)
	result := models.AnomalySummary{WindowDays: days, AnomalyPercentage: "0.0"}

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	// Descending so the first anomalies seen are the most recent.
	rows, err := s.predictions.FetchRange(ctx, since, time.Now().UTC(), true, 0)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrStore, err)
	}

	result.TotalPredictions = len(rows)
	for _, p := range rows {
		if !p.Anomaly {
			continue
		}
		result.AnomalyCount++
		if len(result.RecentAnomalies) < maxRecentAnomalies {
			result.RecentAnomalies = append(result.RecentAnomalies, p.Timestamp)
		}
	}
	if result.TotalPredictions > 0 {
		pct := float64(result.AnomalyCount) / float64(result.TotalPredictions) * 100
		result.AnomalyPercentage = strconv.FormatFloat(pct, 'f', 1, 64)
	}
	return result, nil
}
