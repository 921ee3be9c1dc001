package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

// StatsService computes the rolling accuracy scorecard from the prediction
// ledger. Stats are always derived on read; nothing is cached or
// incrementally maintained.
type StatsService struct {
	predictions domain.PredictionStore
	logger      *zap.Logger
}

func NewStatsService(ps domain.PredictionStore, logger *zap.Logger) *StatsService {
	return &StatsService{predictions: ps, logger: logger}
}

// ComputeStats aggregates predictions made within the last windowDays,
// anchored at today (UTC). Accuracy is correct over resolved, where resolved
// excludes pending rows; an all-pending or empty window scores 0 rather
// than dividing by zero.
func (s *StatsService) ComputeStats(ctx context.Context, windowDays int) (*domain.PredictionStats, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: window_days must be positive", ErrValidation)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -windowDays)

	preds, err := s.predictions.MadeSince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &domain.PredictionStats{
		WindowDays: windowDays,
		ByCategory: make(map[domain.Category]domain.CategoryStats),
	}

	type tally struct{ total, correct, pending int }
	byCat := make(map[domain.Category]*tally)

	for _, p := range preds {
		stats.Total++
		t := byCat[p.Category]
		if t == nil {
			t = &tally{}
			byCat[p.Category] = t
		}
		t.total++

		switch p.Status {
		case domain.PredictionCorrect:
			stats.Correct++
			t.correct++
		case domain.PredictionWrong:
			stats.Wrong++
		case domain.PredictionCancelled:
			stats.Cancelled++
		case domain.PredictionAmbiguous:
			stats.Ambiguous++
		default:
			stats.Pending++
			t.pending++
		}
	}

	stats.Accuracy = accuracyPct(stats.Correct, stats.Total-stats.Pending)
	for cat, t := range byCat {
		stats.ByCategory[cat] = domain.CategoryStats{
			Total:    t.total,
			Correct:  t.correct,
			Accuracy: accuracyPct(t.correct, t.total-t.pending),
		}
	}

	return stats, nil
}

// accuracyPct is correct/resolved as a percentage, rounded to one decimal.
// Zero resolved rows scores 0.
func accuracyPct(correct, resolved int) float64 {
	if resolved <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(resolved)*1000) / 10
}
