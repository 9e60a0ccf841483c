package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lotofacil/internal/models"
)

// AggregatePeriod totals the prizes won per drawing date in [start, end],
// separately for the regular and the extra group. Extra tickets only count
// on days the group is active, and each active day with a drawing adds the
// group's participation cost. A truncated scan is reported through the
// aggregate's Truncated flag, not as an error.
func (s *LotteryService) AggregatePeriod(ctx context.Context, start, end time.Time, regular, extra models.TicketGroup) (*models.PeriodAggregate, error) {
	agg := models.NewPeriodAggregate(start, end)
	extraCost := extra.CostPerTicket.Mul(decimal.NewFromInt(int64(len(extra.Tickets))))

	stats, err := s.walk(ctx, "period", start, end, func(draw *models.DrawResult) {
		day := draw.Date

		total := agg.Regular[day]
		if regular.ActiveOn(day) {
			total = total.Add(scoreGroup(draw, regular))
		}
		agg.Regular[day] = total

		if len(extra.Tickets) > 0 && extra.ActiveOn(day) {
			agg.Extra[day] = agg.Extra[day].Add(scoreGroup(draw, extra))
			// Charged once per day, however many drawings share it.
			if _, seen := agg.ExtraCost[day]; !seen {
				agg.ExtraCost[day] = extraCost
			}
		}
	})
	if err != nil {
		return nil, err
	}

	agg.ScanStats = stats
	return agg, nil
}
