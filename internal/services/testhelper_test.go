package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"lotofacil/internal/caixa"
	"lotofacil/internal/models"
)

// drawnExample matches the first configured ticket exactly.
var drawnExample = []int{2, 3, 4, 6, 7, 8, 11, 12, 14, 16, 17, 18, 21, 22, 23}

// drawingPayload builds a result payload the way the Caixa service shapes it.
func drawingPayload(id int, date string, numbers []int, prizes map[int]any) models.RawResult {
	dezenas := make([]string, len(numbers))
	for i, n := range numbers {
		dezenas[i] = fmt.Sprintf("%02d", n)
	}

	rateio := make([]map[string]any, 0, len(prizes))
	for tier := 1; tier <= 5; tier++ {
		if amount, ok := prizes[tier]; ok {
			rateio = append(rateio, map[string]any{
				"faixa":          tier,
				"descricaoFaixa": fmt.Sprintf("%d acertos", 16-tier),
				"valorPremio":    amount,
			})
		}
	}

	body, err := json.Marshal(map[string]any{
		"numero":            id,
		"dataApuracao":      date,
		"listaDezenas":      dezenas,
		"listaRateioPremio": rateio,
	})
	if err != nil {
		panic(err)
	}
	return body
}

// fakeSource serves prepared payloads and records which ids were asked for.
type fakeSource struct {
	mu       sync.Mutex
	latest   int
	drawings map[int]models.RawResult
	failing  map[int]bool
	requests []int
}

func newFakeSource(latest int) *fakeSource {
	return &fakeSource{
		latest:   latest,
		drawings: make(map[int]models.RawResult),
		failing:  make(map[int]bool),
	}
}

func (f *fakeSource) add(id int, date string, numbers []int, prizes map[int]any) {
	f.drawings[id] = drawingPayload(id, date, numbers, prizes)
}

func (f *fakeSource) Fetch(_ context.Context, drawingID int) (models.RawResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, drawingID)

	id := drawingID
	if id == caixa.Latest {
		id = f.latest
	}
	if f.failing[id] {
		return nil, &caixa.FetchError{DrawingID: drawingID, Attempts: 1, Err: fmt.Errorf("endpoint unavailable")}
	}
	raw, ok := f.drawings[id]
	if !ok {
		return nil, &caixa.FetchError{DrawingID: drawingID, Attempts: 1, Err: fmt.Errorf("drawing %d not published", id)}
	}
	return raw, nil
}

func ticket(label string, numbers ...int) models.Ticket {
	return models.Ticket{Label: label, Numbers: numbers}
}
