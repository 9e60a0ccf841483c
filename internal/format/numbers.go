package format

import (
	"fmt"
	"strings"
)

// Numbers renders ticket numbers as zero-padded pairs, e.g. "02 03 11".
func Numbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

// TierLabel describes the prize bracket reached with count matches.
func TierLabel(count int) string {
	if count >= 11 {
		return fmt.Sprintf("%d acertos", count)
	}
	return "Não premiado"
}
