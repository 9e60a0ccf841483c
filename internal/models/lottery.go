package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the canonical text form of a calendar date.
const DayLayout = "2006-01-02"

// Day truncates t to its calendar date, expressed at midnight UTC.
// The year, month and day are read in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RawResult is the undecoded JSON payload of one drawing as returned by the
// result source. Field lookups on it are done lazily and defensively.
type RawResult []byte

// DrawResult is the validated outcome of one drawing.
type DrawResult struct {
	ID      int       `json:"id"`
	Date    time.Time `json:"date"`
	Numbers []int     `json:"numbers"` // 15 distinct numbers in [1,25], ascending
	Raw     RawResult `json:"-"`       // source of the prize table
}

// Ticket is a fixed set of 15 chosen numbers.
type Ticket struct {
	Label   string `json:"label"`
	Numbers []int  `json:"numbers"`
}

// TicketGroup is a set of tickets that are scored and totalled together.
// The regular group has no cost and is active every day. The extra group is
// scored only on the days it is opted in, and each of its tickets costs
// CostPerTicket on those days.
type TicketGroup struct {
	Name          string
	Tickets       []Ticket
	CostPerTicket decimal.Decimal
	// ActiveDays restricts scoring to the listed dates. Nil means every day.
	ActiveDays map[time.Time]bool
}

// ActiveOn reports whether the group takes part in drawings held on day.
func (g TicketGroup) ActiveOn(day time.Time) bool {
	if g.ActiveDays == nil {
		return true
	}
	return g.ActiveDays[Day(day)]
}

// MatchResult is the outcome of checking one ticket against one drawing.
type MatchResult struct {
	Ticket     Ticket          `json:"ticket"`
	Group      string          `json:"group"`
	Matched    []int           `json:"matched"`
	MatchCount int             `json:"matchCount"`
	Tier       string          `json:"tier"`
	Prize      decimal.Decimal `json:"prize"`
	// PrizeUnresolved is set when the ticket reached a prize tier but the
	// drawing's prize table yielded zero for it.
	PrizeUnresolved bool `json:"prizeUnresolved"`
}

// DrawingReport gathers every ticket's result for a single drawing.
type DrawingReport struct {
	Drawing      *DrawResult     `json:"drawing"`
	Results      []MatchResult   `json:"results"`
	RegularTotal decimal.Decimal `json:"regularTotal"`
	ExtraTotal   decimal.Decimal `json:"extraTotal"`
	Total        decimal.Decimal `json:"total"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// SkippedDrawing records a drawing id that could not be used during a scan.
type SkippedDrawing struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// ScanStats describes how a backward walk over drawing ids ended.
type ScanStats struct {
	Attempts int              `json:"attempts"`
	Drawings int              `json:"drawings"` // in-range drawings processed
	Skipped  []SkippedDrawing `json:"skipped,omitempty"`
	// Truncated is set when the walk stopped at the attempt cap before
	// reaching the start of the range.
	Truncated bool `json:"truncated"`
	// Exhausted is set when the walk ran out of ids before reaching the
	// start of the range.
	Exhausted bool `json:"exhausted"`
}

// PeriodAggregate holds prize totals per drawing date for a date range.
type PeriodAggregate struct {
	Start     time.Time                     `json:"start"`
	End       time.Time                     `json:"end"`
	Regular   map[time.Time]decimal.Decimal `json:"-"`
	Extra     map[time.Time]decimal.Decimal `json:"-"`
	ExtraCost map[time.Time]decimal.Decimal `json:"-"`
	ScanStats
}

// NewPeriodAggregate returns an empty aggregate for [start, end].
func NewPeriodAggregate(start, end time.Time) *PeriodAggregate {
	return &PeriodAggregate{
		Start:     Day(start),
		End:       Day(end),
		Regular:   make(map[time.Time]decimal.Decimal),
		Extra:     make(map[time.Time]decimal.Decimal),
		ExtraCost: make(map[time.Time]decimal.Decimal),
	}
}

// Days returns every date that had at least one drawing, in ascending order.
func (p *PeriodAggregate) Days() []time.Time {
	days := make([]time.Time, 0, len(p.Regular))
	for day := range p.Regular {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Totals sums every date of the aggregate.
func (p *PeriodAggregate) Totals() (regular, extra, extraCost decimal.Decimal) {
	for _, v := range p.Regular {
		regular = regular.Add(v)
	}
	for _, v := range p.Extra {
		extra = extra.Add(v)
	}
	for _, v := range p.ExtraCost {
		extraCost = extraCost.Add(v)
	}
	return regular, extra, extraCost
}

// FrequencyTable counts how many scanned drawings contained each number.
type FrequencyTable struct {
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Counts map[int]int `json:"counts"`
	ScanStats
}

// NewFrequencyTable returns a table with a zero count for every number.
func NewFrequencyTable(start, end time.Time) *FrequencyTable {
	counts := make(map[int]int, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		counts[n] = 0
	}
	return &FrequencyTable{Start: Day(start), End: Day(end), Counts: counts}
}

// Lotofácil number space.
const (
	MinNumber    = 1
	MaxNumber    = 25
	DrawnNumbers = 15
)

// Validate checks that the ticket holds 15 distinct numbers in range.
func (t Ticket) Validate() error {
	if len(t.Numbers) != DrawnNumbers {
		return fmt.Errorf("ticket %q: expected %d numbers, got %d", t.Label, DrawnNumbers, len(t.Numbers))
	}
	seen := make(map[int]bool, len(t.Numbers))
	for _, n := range t.Numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("ticket %q: number %d outside %d..%d", t.Label, n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("ticket %q: duplicate number %d", t.Label, n)
		}
		seen[n] = true
	}
	return nil
}
