package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotofacil/internal/caixa"
	"lotofacil/internal/models"
	"lotofacil/internal/services"
)

var (
	firstTicket  = []int{2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 17, 18, 21, 22, 23}
	secondTicket = []int{1, 4, 5, 8, 9, 10, 12, 13, 15, 19, 20, 22, 23, 24, 25}
)

type stubSource struct {
	mu       sync.Mutex
	latest   int
	drawings map[int]models.RawResult
	requests int
}

func (s *stubSource) Fetch(_ context.Context, drawingID int) (models.RawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	id := drawingID
	if id == caixa.Latest {
		id = s.latest
	}
	raw, ok := s.drawings[id]
	if !ok {
		return nil, &caixa.FetchError{DrawingID: drawingID, Attempts: 1, Err: fmt.Errorf("drawing %d not published", id)}
	}
	return raw, nil
}

func payload(t *testing.T, id int, date string, numbers []int, firstPrize any) models.RawResult {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"numero":       id,
		"dataApuracao": date,
		"listaDezenas": numbers,
		"listaRateioPremio": []map[string]any{
			{"faixa": 1, "valorPremio": firstPrize},
		},
	})
	require.NoError(t, err)
	return body
}

func setupRouter(t *testing.T) (*gin.Engine, *stubSource) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	source := &stubSource{
		latest: 2,
		drawings: map[int]models.RawResult{
			2: payload(t, 2, "10/01/2026", firstTicket, "R$ 1.500.000,00"),
			1: payload(t, 1, "09/01/2026", secondTicket, 800000),
		},
	}
	service := services.NewLotteryService(source, services.Options{
		Regular: models.TicketGroup{Name: "regular", Tickets: []models.Ticket{
			{Label: "Jogo 1", Numbers: firstTicket},
		}},
		Extra: models.TicketGroup{Name: "extra", CostPerTicket: decimal.RequireFromString("3.50"), Tickets: []models.Ticket{
			{Label: "Extra 1", Numbers: secondTicket},
		}},
	})

	router := gin.New()
	NewHTTPHandler(service).RegisterRoutes(router)
	return router, source
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCheckLatestDrawing(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/drawings/latest")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 2, body["id"])
	assert.Equal(t, "2026-01-10", body["date"])
	assert.Equal(t, "R$ 1.500.000,00", body["totalText"])

	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "Jogo 1", first["label"])
	assert.Equal(t, "15 acertos", first["tier"])
}

func TestCheckDrawing_WithExtraTickets(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/drawings/1?extra=true")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	results := body["results"].([]any)
	require.Len(t, results, 2)
	extra := results[1].(map[string]any)
	assert.Equal(t, "extra", extra["group"])
	assert.Equal(t, "R$ 800.000,00", extra["prizeText"])
	assert.Equal(t, "R$ 800.000,00", body["totalText"])
}

func TestCheckDrawing_WithoutDrawingDate(t *testing.T) {
	router, source := setupRouter(t)
	source.drawings[5] = models.RawResult(`{"numero":5,"listaDezenas":[2,3,4,6,7,8,11,12,14,16,17,18,21,22,23],` +
		`"listaRateioPremio":[{"faixa":1,"valorPremio":"R$ 10,00"}]}`)

	w := get(router, "/api/drawings/5")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.NotContains(t, body, "date")
	assert.Equal(t, "R$ 10,00", body["totalText"])
}

func TestCheckDrawing_Errors(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"non numeric id", "/api/drawings/abc", http.StatusBadRequest},
		{"zero id", "/api/drawings/0", http.StatusBadRequest},
		{"bad extra flag", "/api/drawings/1?extra=maybe", http.StatusBadRequest},
		{"unpublished drawing", "/api/drawings/9", http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(router, tc.target)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestGetPeriod(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/period?start=2026-01-09&end=2026-01-10&extra_days=2026-01-09")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	days := body["days"].([]any)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-01-09", days[0].(map[string]any)["date"])
	assert.Equal(t, "2026-01-10", days[1].(map[string]any)["date"])
	assert.EqualValues(t, 2, body["drawings"])
	assert.Equal(t, false, body["truncated"])
	// 1.500.000 regular on the 10th, 800.000 extra on the 9th minus its 3,50 cost.
	assert.Equal(t, "R$ 2.299.996,50", body["netText"])
}

func TestGetPeriod_Errors(t *testing.T) {
	router, source := setupRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing start", "/api/period?end=2026-01-10"},
		{"invalid end", "/api/period?start=2026-01-09&end=tomorrow"},
		{"start after end", "/api/period?start=2026-01-10&end=2026-01-09"},
		{"invalid extra day", "/api/period?start=2026-01-09&end=2026-01-10&extra_days=2026-01-09,soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(router, tc.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Zero(t, source.requests)
}

func TestExportPeriodCSV(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/period.csv?start=2026-01-09&end=2026-01-10&extra_days=all")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "lotofacil_2026-01-09_2026-01-10.csv")

	content := w.Body.String()
	require.True(t, strings.HasPrefix(content, "\xef\xbb\xbf"))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(content, "\xef\xbb\xbf")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Data;Prêmios regulares;Prêmios extras;Custo extras;Saldo", lines[0])
	assert.Equal(t, "09/01/2026;R$ 0,00;R$ 800.000,00;R$ 3,50;R$ 799.996,50", lines[1])
	assert.Equal(t, "10/01/2026;R$ 1.500.000,00;R$ 0,00;R$ 3,50;R$ 1.499.996,50", lines[2])
}

func TestGetFrequency(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/frequency?start=2026-01-09&end=2026-01-10")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	counts := body["counts"].(map[string]any)
	assert.Len(t, counts, models.MaxNumber)
	// 4, 8, 12, 22 and 23 are in both drawings.
	assert.EqualValues(t, 2, counts["04"])
	assert.EqualValues(t, 1, counts["01"])
	assert.EqualValues(t, 1, counts["02"])
}

func TestGetSuggestion(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/api/suggestions?start=2026-01-09&end=2026-01-10&size=16&mode=most")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	numbers := body["numbers"].([]any)
	assert.Len(t, numbers, 16)
	assert.Equal(t, "most", body["mode"])
	assert.Contains(t, body["numbersText"], "04")
}

func TestGetSuggestion_RejectsBeforeScanning(t *testing.T) {
	router, source := setupRouter(t)

	for _, target := range []string{
		"/api/suggestions?start=2026-01-09&end=2026-01-10&size=14",
		"/api/suggestions?start=2026-01-09&end=2026-01-10&size=x",
		"/api/suggestions?start=2026-01-09&end=2026-01-10&mode=random",
	} {
		w := get(router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	assert.Zero(t, source.requests)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	w := get(router, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
