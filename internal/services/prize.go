package services

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"lotofacil/internal/format"
	"lotofacil/internal/models"
)

const (
	minPrizeMatches = 11
	maxPrizeMatches = 15

	prizeTableField  = "listaRateioPremio"
	prizeTierField   = "faixa"
	prizeAmountField = "valorPremio"
)

// ResolvePrize returns the payout for a ticket with the given number of
// matches, read from the drawing's prize table. Tier 1 pays 15 matches and
// tier 5 pays 11. Fewer than 11 matches, a missing or malformed table, an
// absent tier and an unreadable amount all resolve to zero.
func ResolvePrize(raw models.RawResult, matches int) decimal.Decimal {
	if matches < minPrizeMatches || matches > maxPrizeMatches {
		return decimal.Zero
	}
	tier := float64(maxPrizeMatches + 1 - matches)

	table := gjson.GetBytes(raw, prizeTableField)
	if !table.IsArray() {
		return decimal.Zero
	}

	prize := decimal.Zero
	table.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		faixa := item.Get(prizeTierField)
		if faixa.Type != gjson.Number || faixa.Num != tier {
			return true
		}
		prize = amountOf(item.Get(prizeAmountField))
		return false
	})
	return prize
}

func amountOf(v gjson.Result) decimal.Decimal {
	switch v.Type {
	case gjson.Number:
		return format.ParseAmount(json.Number(v.Raw))
	case gjson.String:
		return format.ParseAmount(v.Str)
	default:
		return decimal.Zero
	}
}

// Score checks one ticket against a drawing.
func Score(draw *models.DrawResult, ticket models.Ticket) models.MatchResult {
	drawn := make(map[int]bool, len(draw.Numbers))
	for _, n := range draw.Numbers {
		drawn[n] = true
	}

	matched := make([]int, 0, len(ticket.Numbers))
	for _, n := range ticket.Numbers {
		if drawn[n] {
			matched = append(matched, n)
			delete(drawn, n)
		}
	}
	sort.Ints(matched)

	count := len(matched)
	prize := ResolvePrize(draw.Raw, count)

	return models.MatchResult{
		Ticket:          ticket,
		Matched:         matched,
		MatchCount:      count,
		Tier:            format.TierLabel(count),
		Prize:           prize,
		PrizeUnresolved: count >= minPrizeMatches && prize.IsZero(),
	}
}

// scoreGroup sums the prizes of every ticket of group.
func scoreGroup(draw *models.DrawResult, group models.TicketGroup) decimal.Decimal {
	total := decimal.Zero
	for _, ticket := range group.Tickets {
		total = total.Add(Score(draw, ticket).Prize)
	}
	return total
}
