package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/logger"

	"lotofacil/internal/caixa"
	"lotofacil/internal/metrics"
	"lotofacil/internal/models"
)

// scanStep is the outcome of visiting one drawing id: either a drawing or
// the reason the id was skipped.
type scanStep struct {
	id   int
	draw *models.DrawResult
	skip error
}

func (s *LotteryService) visitID(ctx context.Context, id int) scanStep {
	draw, err := s.FetchDrawing(ctx, id)
	if err != nil {
		return scanStep{id: id, skip: err}
	}
	return scanStep{id: id, draw: draw}
}

// walk visits drawings from the latest one backwards and calls visit for
// every drawing dated inside [start, end]. Ids that cannot be fetched or
// parsed are skipped. The walk stops at the first drawing dated before
// start, which assumes dates never increase as ids decrease, or after
// scanLimit ids, in which case the stats are marked truncated.
func (s *LotteryService) walk(ctx context.Context, kind string, start, end time.Time, visit func(*models.DrawResult)) (models.ScanStats, error) {
	var stats models.ScanStats
	start, end = models.Day(start), models.Day(end)
	if start.After(end) {
		return stats, &RangeError{Start: start, End: end}
	}

	began := time.Now()
	latest, err := s.FetchDrawing(ctx, caixa.Latest)
	if err != nil {
		return stats, fmt.Errorf("fetch latest drawing: %w", err)
	}

	underflow := false
	for id := latest.ID; id >= 1; id-- {
		if stats.Attempts >= s.scanLimit {
			stats.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%s scan aborted at drawing %d: %w", kind, id, err)
		}
		stats.Attempts++

		step := scanStep{id: id, draw: latest}
		if id != latest.ID {
			step = s.visitID(ctx, id)
		}
		if step.skip != nil {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("%s scan aborted at drawing %d: %w", kind, id, err)
			}
			metrics.RecordScanStep(kind, true)
			logger.Warningf("Skipping drawing %d during %s scan: %v", id, kind, step.skip)
			stats.Skipped = append(stats.Skipped, models.SkippedDrawing{ID: id, Reason: step.skip.Error()})
			continue
		}
		metrics.RecordScanStep(kind, false)

		day := step.draw.Date
		if day.Before(start) {
			underflow = true
			break
		}
		if day.After(end) {
			continue
		}
		stats.Drawings++
		visit(step.draw)
	}
	stats.Exhausted = !underflow && !stats.Truncated

	elapsed := time.Since(began)
	metrics.ObserveScan(kind, elapsed, stats.Truncated)
	logger.Infof("Finished %s scan %s..%s: %d ids tried, %d drawings, %d skipped, truncated=%t (%s)",
		kind, start.Format(models.DayLayout), end.Format(models.DayLayout),
		stats.Attempts, stats.Drawings, len(stats.Skipped), stats.Truncated, elapsed.Round(time.Millisecond))
	return stats, nil
}
