package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/shopspring/decimal"

	"lotofacil/internal/caixa"
	"lotofacil/internal/format"
	"lotofacil/internal/metrics"
	"lotofacil/internal/models"
	"lotofacil/internal/services"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the lottery service.
type HTTPHandler struct {
	service *services.LotteryService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.LotteryService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.GET("/drawings/latest", h.CheckLatestDrawing)
	api.GET("/drawings/:id", h.CheckDrawing)
	api.GET("/period", h.GetPeriod)
	api.GET("/period.csv", h.ExportPeriodCSV)
	api.GET("/frequency", h.GetFrequency)
	api.GET("/suggestions", h.GetSuggestion)
}

// Health reports that the process is serving.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CheckLatestDrawing scores the tickets against the most recent drawing.
func (h *HTTPHandler) CheckLatestDrawing(c *gin.Context) {
	h.checkDrawing(c, caixa.Latest)
}

// CheckDrawing scores the tickets against the drawing named in the path.
func (h *HTTPHandler) CheckDrawing(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		renderBadRequest(c, fmt.Errorf("invalid drawing id %q", c.Param("id")))
		return
	}
	h.checkDrawing(c, id)
}

func (h *HTTPHandler) checkDrawing(c *gin.Context, drawingID int) {
	includeExtra, err := parseBoolQuery(c, "extra")
	if err != nil {
		renderBadRequest(c, err)
		return
	}

	report, err := h.service.CheckDrawing(c.Request.Context(), drawingID, includeExtra)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDrawingResponse(report))
}

// GetPeriod returns the prize totals per drawing date for a date range.
func (h *HTTPHandler) GetPeriod(c *gin.Context) {
	agg, ok := h.aggregate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newPeriodResponse(agg))
}

// ExportPeriodCSV handles the request to download the period totals as a CSV file.
func (h *HTTPHandler) ExportPeriodCSV(c *gin.Context) {
	agg, ok := h.aggregate(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=lotofacil_%s_%s.csv",
		agg.Start.Format(models.DayLayout), agg.End.Format(models.DayLayout)))

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	w.Comma = ';'

	if err := w.Write([]string{"Data", "Prêmios regulares", "Prêmios extras", "Custo extras", "Saldo"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	for _, day := range agg.Days() {
		regular, extra, cost := agg.Regular[day], agg.Extra[day], agg.ExtraCost[day]
		row := []string{
			day.Format("02/01/2006"),
			format.BRL(regular),
			format.BRL(extra),
			format.BRL(cost),
			format.BRL(regular.Add(extra).Sub(cost)),
		}
		if err := w.Write(row); err != nil {
			logger.Infof("Error writing CSV row: %v", err)
			c.String(http.StatusInternalServerError, "Error writing CSV")
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
	}
}

func (h *HTTPHandler) aggregate(c *gin.Context) (*models.PeriodAggregate, bool) {
	start, end, err := parseRange(c)
	if err != nil {
		renderBadRequest(c, err)
		return nil, false
	}
	extraDays, err := parseExtraDays(c.Query("extra_days"))
	if err != nil {
		renderBadRequest(c, err)
		return nil, false
	}

	agg, err := h.service.AggregatePeriod(c.Request.Context(), start, end,
		h.service.RegularGroup(), h.service.ExtraGroup(extraDays))
	if err != nil {
		renderError(c, err)
		return nil, false
	}
	return agg, true
}

// GetFrequency returns how often each number was drawn in a date range.
func (h *HTTPHandler) GetFrequency(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		renderBadRequest(c, err)
		return
	}

	table, err := h.service.AnalyzeFrequency(c.Request.Context(), start, end)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFrequencyResponse(table))
}

// GetSuggestion builds a new ticket from the frequency of drawn numbers.
func (h *HTTPHandler) GetSuggestion(c *gin.Context) {
	size, err := strconv.Atoi(c.DefaultQuery("size", "15"))
	if err != nil {
		renderBadRequest(c, fmt.Errorf("invalid size %q", c.Query("size")))
		return
	}
	mode := services.SuggestionMode(c.DefaultQuery("mode", string(services.MostFrequent)))
	if err := services.ValidateSuggestion(size, mode); err != nil {
		renderError(c, err)
		return
	}

	start, end, err := parseRange(c)
	if err != nil {
		renderBadRequest(c, err)
		return
	}

	table, err := h.service.AnalyzeFrequency(c.Request.Context(), start, end)
	if err != nil {
		renderError(c, err)
		return
	}
	numbers, err := services.BuildSuggestion(table.Counts, size, mode)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestionResponse{
		Numbers:     numbers,
		NumbersText: format.Numbers(numbers),
		Size:        size,
		Mode:        string(mode),
		Frequency:   newFrequencyResponse(table),
	})
}

func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := parseDateQuery(c, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDateQuery(c, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseDateQuery(c *gin.Context, key string) (time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s date", key)
	}
	day, err := caixa.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q", key, value)
	}
	return day, nil
}

func parseBoolQuery(c *gin.Context, key string) (bool, error) {
	value := c.Query(key)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s flag %q", key, value)
	}
	return b, nil
}

// parseExtraDays reads the days the extra tickets were played. An empty
// value opts out entirely and "all" opts in every day.
func parseExtraDays(value string) (map[time.Time]bool, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return nil, nil
	}
	days := make(map[time.Time]bool)
	if value == "" {
		return days, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		day, err := caixa.ParseDate(part)
		if err != nil {
			return nil, fmt.Errorf("invalid extra day %q", part)
		}
		days[day] = true
	}
	return days, nil
}

func renderBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func renderError(c *gin.Context, err error) {
	var (
		rangeErr      *services.RangeError
		validationErr *services.ValidationError
		fetchErr      *caixa.FetchError
		parseErr      *caixa.ParseError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &rangeErr), errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		status = http.StatusBadGateway
	}

	logger.Infof("Request %s failed with %d: %v", c.Request.URL.Path, status, err)
	c.JSON(status, gin.H{"error": err.Error()})
}

type drawingResponse struct {
	ID           int              `json:"id"`
	Date         string           `json:"date,omitempty"`
	Numbers      []int            `json:"numbers"`
	NumbersText  string           `json:"numbersText"`
	Results      []ticketResponse `json:"results"`
	RegularTotal decimal.Decimal  `json:"regularTotal"`
	ExtraTotal   decimal.Decimal  `json:"extraTotal"`
	Total        decimal.Decimal  `json:"total"`
	TotalText    string           `json:"totalText"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// drawingDate is empty when the result service did not say when the
// drawing took place.
func drawingDate(draw *models.DrawResult) string {
	if draw.Date.IsZero() {
		return ""
	}
	return draw.Date.Format(models.DayLayout)
}

type ticketResponse struct {
	Label           string          `json:"label"`
	Group           string          `json:"group"`
	Numbers         string          `json:"numbers"`
	Matched         string          `json:"matched"`
	MatchCount      int             `json:"matchCount"`
	Tier            string          `json:"tier"`
	Prize           decimal.Decimal `json:"prize"`
	PrizeText       string          `json:"prizeText"`
	PrizeUnresolved bool            `json:"prizeUnresolved"`
}

func newDrawingResponse(report *models.DrawingReport) drawingResponse {
	resp := drawingResponse{
		ID:           report.Drawing.ID,
		Date:         drawingDate(report.Drawing),
		Numbers:      report.Drawing.Numbers,
		NumbersText:  format.Numbers(report.Drawing.Numbers),
		Results:      make([]ticketResponse, 0, len(report.Results)),
		RegularTotal: report.RegularTotal,
		ExtraTotal:   report.ExtraTotal,
		Total:        report.Total,
		TotalText:    format.BRL(report.Total),
		Warnings:     report.Warnings,
	}
	for _, r := range report.Results {
		matched := format.Numbers(r.Matched)
		if matched == "" {
			matched = "-"
		}
		resp.Results = append(resp.Results, ticketResponse{
			Label:           r.Ticket.Label,
			Group:           r.Group,
			Numbers:         format.Numbers(r.Ticket.Numbers),
			Matched:         matched,
			MatchCount:      r.MatchCount,
			Tier:            r.Tier,
			Prize:           r.Prize,
			PrizeText:       format.BRL(r.Prize),
			PrizeUnresolved: r.PrizeUnresolved,
		})
	}
	return resp
}

type dayResponse struct {
	Date      string          `json:"date"`
	Regular   decimal.Decimal `json:"regular"`
	Extra     decimal.Decimal `json:"extra"`
	ExtraCost decimal.Decimal `json:"extraCost"`
	Net       decimal.Decimal `json:"net"`
}

type periodResponse struct {
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Days      []dayResponse   `json:"days"`
	Regular   decimal.Decimal `json:"regular"`
	Extra     decimal.Decimal `json:"extra"`
	ExtraCost decimal.Decimal `json:"extraCost"`
	Net       decimal.Decimal `json:"net"`
	NetText   string          `json:"netText"`
	Warnings  []string        `json:"warnings,omitempty"`
	models.ScanStats
}

func newPeriodResponse(agg *models.PeriodAggregate) periodResponse {
	regular, extra, cost := agg.Totals()
	net := regular.Add(extra).Sub(cost)

	resp := periodResponse{
		Start:     agg.Start.Format(models.DayLayout),
		End:       agg.End.Format(models.DayLayout),
		Days:      make([]dayResponse, 0, len(agg.Regular)),
		Regular:   regular,
		Extra:     extra,
		ExtraCost: cost,
		Net:       net,
		NetText:   format.BRL(net),
		Warnings:  scanWarnings(agg.ScanStats),
		ScanStats: agg.ScanStats,
	}
	for _, day := range agg.Days() {
		r, e, ec := agg.Regular[day], agg.Extra[day], agg.ExtraCost[day]
		resp.Days = append(resp.Days, dayResponse{
			Date:      day.Format(models.DayLayout),
			Regular:   r,
			Extra:     e,
			ExtraCost: ec,
			Net:       r.Add(e).Sub(ec),
		})
	}
	return resp
}

type frequencyResponse struct {
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Counts   map[string]int `json:"counts"`
	Warnings []string       `json:"warnings,omitempty"`
	models.ScanStats
}

func newFrequencyResponse(table *models.FrequencyTable) frequencyResponse {
	counts := make(map[string]int, len(table.Counts))
	for n, count := range table.Counts {
		counts[fmt.Sprintf("%02d", n)] = count
	}
	return frequencyResponse{
		Start:     table.Start.Format(models.DayLayout),
		End:       table.End.Format(models.DayLayout),
		Counts:    counts,
		Warnings:  scanWarnings(table.ScanStats),
		ScanStats: table.ScanStats,
	}
}

type suggestionResponse struct {
	Numbers     []int             `json:"numbers"`
	NumbersText string            `json:"numbersText"`
	Size        int               `json:"size"`
	Mode        string            `json:"mode"`
	Frequency   frequencyResponse `json:"frequency"`
}

func scanWarnings(stats models.ScanStats) []string {
	var warnings []string
	if stats.Truncated {
		warnings = append(warnings, fmt.Sprintf(
			"consulta interrompida após %d concursos; o resultado pode estar incompleto", stats.Attempts))
	}
	if len(stats.Skipped) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d concurso(s) não puderam ser lidos e foram ignorados", len(stats.Skipped)))
	}
	return warnings
}
