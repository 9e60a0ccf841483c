package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/shopspring/decimal"

	"lotofacil/internal/caixa"
	"lotofacil/internal/format"
	"lotofacil/internal/models"
)

// DefaultScanLimit bounds how many drawing ids a historical scan may try.
const DefaultScanLimit = 800

// Options configures a LotteryService.
type Options struct {
	Regular   models.TicketGroup
	Extra     models.TicketGroup
	ScanLimit int
}

// LotteryService checks the configured tickets against drawing results.
// It holds no per-user state; callers pass selections explicitly.
type LotteryService struct {
	source    caixa.Source
	regular   models.TicketGroup
	extra     models.TicketGroup
	scanLimit int
}

// NewLotteryService creates a LotteryService reading drawings from source.
func NewLotteryService(source caixa.Source, opts Options) *LotteryService {
	scanLimit := opts.ScanLimit
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &LotteryService{
		source:    source,
		regular:   opts.Regular,
		extra:     opts.Extra,
		scanLimit: scanLimit,
	}
}

// RegularGroup returns the tickets that are always scored.
func (s *LotteryService) RegularGroup() models.TicketGroup {
	return s.regular
}

// ExtraGroup returns the opt-in tickets, active on the given days.
// A nil days map means every day.
func (s *LotteryService) ExtraGroup(days map[time.Time]bool) models.TicketGroup {
	group := s.extra
	group.ActiveDays = days
	return group
}

// FetchDrawing fetches and validates a single drawing. drawingID may be
// caixa.Latest.
func (s *LotteryService) FetchDrawing(ctx context.Context, drawingID int) (*models.DrawResult, error) {
	raw, err := s.source.Fetch(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	return caixa.Parse(raw)
}

// CheckDrawing scores every regular ticket, and the extra tickets when
// includeExtra is set, against one drawing. Only the drawn numbers must be
// readable; a payload without id or date is still scored. Fetch and parse
// failures are returned as they are.
func (s *LotteryService) CheckDrawing(ctx context.Context, drawingID int, includeExtra bool) (*models.DrawingReport, error) {
	raw, err := s.source.Fetch(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	draw, err := caixa.ParseScorable(raw, drawingID)
	if err != nil {
		return nil, err
	}

	report := &models.DrawingReport{
		Drawing:      draw,
		RegularTotal: decimal.Zero,
		ExtraTotal:   decimal.Zero,
	}

	groups := []models.TicketGroup{s.regular}
	if includeExtra {
		groups = append(groups, s.extra)
	}

	for i, group := range groups {
		for _, ticket := range group.Tickets {
			result := Score(draw, ticket)
			result.Group = group.Name
			report.Results = append(report.Results, result)

			if i == 0 {
				report.RegularTotal = report.RegularTotal.Add(result.Prize)
			} else {
				report.ExtraTotal = report.ExtraTotal.Add(result.Prize)
			}
			if result.PrizeUnresolved {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"%s: %d acertos, mas o valor do prêmio dessa faixa veio %s no retorno da Caixa",
					ticket.Label, result.MatchCount, format.BRL(result.Prize)))
			}
		}
	}
	report.Total = report.RegularTotal.Add(report.ExtraTotal)

	logger.Infof("Checked drawing %d (%s): %d tickets, total %s",
		draw.ID, dayText(draw.Date), len(report.Results), format.BRL(report.Total))
	return report, nil
}

func dayText(day time.Time) string {
	if day.IsZero() {
		return "N/A"
	}
	return day.Format(models.DayLayout)
}
