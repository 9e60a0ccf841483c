package caixa

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"lotofacil/internal/models"
)

// Field names used by the result services, in lookup order.
var (
	drawnNumbersFields = []string{"dezenasSorteadasOrdemSorteio", "listaDezenas", "dezenasSorteadas"}
	drawingDateFields  = []string{"dataApuracao", "data"}
	drawingIDFields    = []string{"numero", "numeroConcurso"}
)

var dateLayouts = []string{
	"02/01/2006",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	models.DayLayout,
}

// Parse validates raw and builds the drawing it describes.
func Parse(raw models.RawResult) (*models.DrawResult, error) {
	id, err := ParseDrawingID(raw)
	if err != nil {
		return nil, err
	}
	date, err := ParseDrawingDate(raw)
	if err != nil {
		return nil, err
	}
	numbers, err := ParseDrawnNumbers(raw)
	if err != nil {
		return nil, err
	}
	return &models.DrawResult{ID: id, Date: date, Numbers: numbers, Raw: raw}, nil
}

// ParseScorable builds a drawing that can be scored even when the payload
// omits its id or date. Only the drawn numbers are required. A missing id
// falls back to requestedID and a missing or unreadable date stays zero.
func ParseScorable(raw models.RawResult, requestedID int) (*models.DrawResult, error) {
	numbers, err := ParseDrawnNumbers(raw)
	if err != nil {
		return nil, err
	}
	id, err := ParseDrawingID(raw)
	if err != nil {
		id = requestedID
	}
	date, _ := ParseDrawingDate(raw)
	return &models.DrawResult{ID: id, Date: date, Numbers: numbers, Raw: raw}, nil
}

// ParseDrawnNumbers returns the 15 drawn numbers in ascending order.
func ParseDrawnNumbers(raw models.RawResult) ([]int, error) {
	field, value, ok := firstPresent(raw, drawnNumbersFields)
	if !ok {
		return nil, &ParseError{Reason: "drawn numbers not found"}
	}
	if !value.IsArray() {
		return nil, parseErrorf(field, "expected a list, got %s", value.Type)
	}

	elems := value.Array()
	if len(elems) != models.DrawnNumbers {
		return nil, parseErrorf(field, "expected %d drawn numbers, got %d", models.DrawnNumbers, len(elems))
	}

	numbers := make([]int, 0, len(elems))
	seen := make(map[int]bool, len(elems))
	for _, elem := range elems {
		n, ok := toInt(elem)
		if !ok {
			return nil, parseErrorf(field, "%s is not a number", elem.Raw)
		}
		if n < models.MinNumber || n > models.MaxNumber {
			return nil, parseErrorf(field, "number %d outside %d..%d", n, models.MinNumber, models.MaxNumber)
		}
		if seen[n] {
			return nil, parseErrorf(field, "number %d drawn twice", n)
		}
		seen[n] = true
		numbers = append(numbers, n)
	}

	sort.Ints(numbers)
	return numbers, nil
}

// ParseDrawingDate returns the calendar date of the drawing.
func ParseDrawingDate(raw models.RawResult) (time.Time, error) {
	field, value, ok := firstPresent(raw, drawingDateFields)
	if !ok {
		return time.Time{}, &ParseError{Reason: "drawing date not found"}
	}
	if value.Type != gjson.String {
		return time.Time{}, parseErrorf(field, "expected text, got %s", value.Type)
	}
	day, err := ParseDate(value.Str)
	if err != nil {
		return time.Time{}, parseErrorf(field, "unrecognised date %q", value.Str)
	}
	return day, nil
}

// ParseDrawingID returns the drawing identifier.
func ParseDrawingID(raw models.RawResult) (int, error) {
	field, value, ok := firstPresent(raw, drawingIDFields)
	if !ok {
		return 0, &ParseError{Reason: "drawing id not found"}
	}
	id, ok := toInt(value)
	if !ok || id <= 0 {
		return 0, parseErrorf(field, "invalid drawing id %s", value.Raw)
	}
	return id, nil
}

// ParseDate reads a calendar date written as dd/mm/yyyy or as an ISO-8601
// date or timestamp. A trailing Z means UTC; the date is taken in the
// timestamp's own offset.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, text); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, err
}

// firstPresent returns the first of fields holding a non-empty value.
func firstPresent(raw models.RawResult, fields []string) (string, gjson.Result, bool) {
	for i, value := range gjson.GetManyBytes(raw, fields...) {
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if value.Type == gjson.String && value.Str == "" {
			continue
		}
		if value.IsArray() && len(value.Array()) == 0 {
			continue
		}
		return fields[i], value, true
	}
	return "", gjson.Result{}, false
}

// toInt accepts integral JSON numbers and numeric text such as "07".
func toInt(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return 0, false
		}
		return int(v.Num), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
