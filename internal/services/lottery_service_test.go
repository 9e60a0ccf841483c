package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotofacil/internal/caixa"
	"lotofacil/internal/models"
)

func newTestService(source caixa.Source, scanLimit int) *LotteryService {
	return NewLotteryService(source, Options{
		Regular: models.TicketGroup{
			Name: "regular",
			Tickets: []models.Ticket{
				ticket("Jogo 1", 2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 17, 18, 21, 22, 23),
				ticket("Jogo 2", 2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 1, 5, 9, 10, 13),
			},
		},
		Extra: models.TicketGroup{
			Name:          "extra",
			Tickets:       []models.Ticket{ticket("Extra 1", 1, 5, 9, 2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 17, 18)},
			CostPerTicket: decimal.RequireFromString("3.50"),
		},
		ScanLimit: scanLimit,
	})
}

func TestLotteryService_CheckDrawing(t *testing.T) {
	source := newFakeSource(3580)
	source.add(3580, "10/01/2026", drawnExample, map[int]any{1: "R$ 1.500.000,00", 5: "R$ 7,00"})
	service := newTestService(source, 0)

	t.Run("regular tickets only", func(t *testing.T) {
		report, err := service.CheckDrawing(context.Background(), caixa.Latest, false)
		require.NoError(t, err)

		assert.Equal(t, 3580, report.Drawing.ID)
		require.Len(t, report.Results, 2)

		first := report.Results[0]
		assert.Equal(t, "regular", first.Group)
		assert.Equal(t, 15, first.MatchCount)
		assert.True(t, first.Prize.Equal(decimal.NewFromInt(1500000)))

		second := report.Results[1]
		assert.Equal(t, 10, second.MatchCount)
		assert.True(t, second.Prize.IsZero())

		assert.True(t, report.RegularTotal.Equal(decimal.NewFromInt(1500000)))
		assert.True(t, report.ExtraTotal.IsZero())
		assert.True(t, report.Total.Equal(decimal.NewFromInt(1500000)))
		assert.Empty(t, report.Warnings)
	})

	t.Run("extra tickets warn about unresolved prizes", func(t *testing.T) {
		report, err := service.CheckDrawing(context.Background(), 3580, true)
		require.NoError(t, err)

		require.Len(t, report.Results, 3)
		extra := report.Results[2]
		assert.Equal(t, "extra", extra.Group)
		assert.Equal(t, 12, extra.MatchCount)
		assert.True(t, extra.PrizeUnresolved)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "Extra 1")
	})

	t.Run("fetch failure surfaces with its cause", func(t *testing.T) {
		_, err := service.CheckDrawing(context.Background(), 42, false)

		var fetchErr *caixa.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, 42, fetchErr.DrawingID)
		assert.Contains(t, err.Error(), "not published")
	})

	t.Run("drawing without date or id is still scored", func(t *testing.T) {
		source.drawings[40] = models.RawResult(`{
			"listaDezenas": ["02","03","04","06","07","08","11","12","14","16","17","18","21","22","23"],
			"listaRateioPremio": [{"faixa": 1, "valorPremio": 1000000}]
		}`)

		report, err := service.CheckDrawing(context.Background(), 40, false)
		require.NoError(t, err)

		assert.Equal(t, 40, report.Drawing.ID)
		assert.True(t, report.Drawing.Date.IsZero())
		assert.Equal(t, 15, report.Results[0].MatchCount)
		assert.True(t, report.RegularTotal.Equal(decimal.NewFromInt(1000000)))
	})

	t.Run("malformed drawing is a parse error", func(t *testing.T) {
		source.drawings[41] = models.RawResult(`{"numero":41,"dataApuracao":"01/01/2026","listaDezenas":["01","02"]}`)

		_, err := service.CheckDrawing(context.Background(), 41, false)

		var parseErr *caixa.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestLotteryService_Groups(t *testing.T) {
	service := newTestService(newFakeSource(1), 0)

	assert.Len(t, service.RegularGroup().Tickets, 2)
	assert.Nil(t, service.ExtraGroup(nil).ActiveDays)

	days := map[time.Time]bool{models.Day(time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)): true}
	extra := service.ExtraGroup(days)
	assert.True(t, extra.ActiveOn(time.Date(2026, 1, 9, 21, 0, 0, 0, time.UTC)))
	assert.False(t, extra.ActiveOn(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, DefaultScanLimit, service.scanLimit)
}
