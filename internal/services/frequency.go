package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lotofacil/internal/models"
)

// SuggestionMode selects which end of the frequency ranking a suggestion
// is built from.
type SuggestionMode string

const (
	MostFrequent  SuggestionMode = "most"
	LeastFrequent SuggestionMode = "least"
)

// AnalyzeFrequency counts how often each number was drawn in [start, end].
func (s *LotteryService) AnalyzeFrequency(ctx context.Context, start, end time.Time) (*models.FrequencyTable, error) {
	table := models.NewFrequencyTable(start, end)

	stats, err := s.walk(ctx, "frequency", start, end, func(draw *models.DrawResult) {
		for _, n := range draw.Numbers {
			table.Counts[n]++
		}
	})
	if err != nil {
		return nil, err
	}

	table.ScanStats = stats
	return table, nil
}

// BuildSuggestion picks size numbers (15 or 16) from the frequency ranking
// and returns them in ascending order.
func BuildSuggestion(counts map[int]int, size int, mode SuggestionMode) ([]int, error) {
	if err := ValidateSuggestion(size, mode); err != nil {
		return nil, err
	}

	ranked, err := RankNumbers(counts, mode)
	if err != nil {
		return nil, err
	}

	picked := append([]int(nil), ranked[:size]...)
	sort.Ints(picked)
	return picked, nil
}

// ValidateSuggestion checks suggestion parameters without building one.
func ValidateSuggestion(size int, mode SuggestionMode) error {
	if size != 15 && size != 16 {
		return &ValidationError{Field: "size", Reason: fmt.Sprintf("must be 15 or 16, got %d", size)}
	}
	if mode != MostFrequent && mode != LeastFrequent {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("must be %q or %q, got %q", MostFrequent, LeastFrequent, mode)}
	}
	return nil
}

// RankNumbers orders 1..25 by draw count, descending for MostFrequent and
// ascending for LeastFrequent. Ties rank the lower number first. Numbers
// missing from counts count as zero.
func RankNumbers(counts map[int]int, mode SuggestionMode) ([]int, error) {
	ranked := make([]int, 0, models.MaxNumber)
	for n := models.MinNumber; n <= models.MaxNumber; n++ {
		ranked = append(ranked, n)
	}

	switch mode {
	case MostFrequent:
		sort.SliceStable(ranked, func(i, j int) bool {
			return counts[ranked[i]] > counts[ranked[j]]
		})
	case LeastFrequent:
		sort.SliceStable(ranked, func(i, j int) bool {
			return counts[ranked[i]] < counts[ranked[j]]
		})
	default:
		return nil, &ValidationError{Field: "mode", Reason: fmt.Sprintf("must be %q or %q, got %q", MostFrequent, LeastFrequent, mode)}
	}
	return ranked, nil
}
