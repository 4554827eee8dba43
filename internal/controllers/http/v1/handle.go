package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/climate"
)

// HistoryResponse is the stored history of one month-day.
type HistoryResponse struct {
	Location string           `json:"location" example:"Seattle"`
	MonthDay string           `json:"month_day" example:"10-16"`
	Records  []HistoryRecord  `json:"records"`
	Extremes *models.Extremes `json:"extremes"`
}

// HistoryRecord is one stored daily high with its stripe colour.
type HistoryRecord struct {
	Date  string  `json:"date" example:"1979-10-16"`
	Temp  float64 `json:"temp" example:"58.1"`
	Color string  `json:"color" example:"#ffff00"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid date, expected MM-DD"`
}

// handleHistory returns every stored record for a month-day and its
// extremes. It never includes a forecast.
//
// @Summary Get stored history for a month-day
// @Description Returns every stored daily high for a month-day with its stripe colour and the historical extremes. No forecast is included.
// @Tags History
// @Produce json
// @Param location query string false "Location name (defaults to the configured location)" example(Seattle)
// @Param date query string false "Month-day MM-DD (defaults to today)" example(10-16)
// @Success 200 {object} HistoryResponse "Stored records"
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 500 {object} ErrorResponse "History store unreadable"
// @Router /api/v1/history [get]
//
//	curl "http://localhost:8080/api/v1/history?location=Seattle&date=10-16"
func (r *routes) handleHistory(c *fiber.Ctx) error {
	location, monthDay, ok := r.params(c)
	if !ok {
		return nil
	}

	series, err := r.load(c, location, monthDay)
	if err != nil {
		return r.storeError(c, location, err)
	}

	records := make([]HistoryRecord, 0, len(series))
	for _, rec := range series {
		records = append(records, HistoryRecord{
			Date:  rec.Date,
			Temp:  rec.Temp,
			Color: climate.GradientHex(rec.Temp, r.renderer.ColorMin, r.renderer.ColorMax),
		})
	}

	response := HistoryResponse{
		Location: location,
		MonthDay: monthDay,
		Records:  records,
	}
	if ext, ok := climate.FoldExtremes(series); ok {
		response.Extremes = &ext
	}

	return c.JSON(response)
}

// handlePlot renders the stored records of a month-day as PNG stripes.
//
// @Summary Render stored history as stripes
// @Description Renders the stored daily highs of a month-day as a PNG bar chart, one bar per year.
// @Tags History
// @Produce png
// @Param location query string false "Location name (defaults to the configured location)" example(Seattle)
// @Param date query string false "Month-day MM-DD (defaults to today)" example(10-16)
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 500 {object} ErrorResponse "History store unreadable"
// @Router /api/v1/history/plot [get]
//
//	curl -o plot.png "http://localhost:8080/api/v1/history/plot?date=10-16"
func (r *routes) handlePlot(c *fiber.Ctx) error {
	location, monthDay, ok := r.params(c)
	if !ok {
		return nil
	}

	series, err := r.load(c, location, monthDay)
	if err != nil {
		return r.storeError(c, location, err)
	}

	var buf bytes.Buffer
	if err := r.renderer.Render(&buf, series, r.now().Year()); err != nil {
		r.l.Error(err, map[string]any{"location": location, "month_day": monthDay})
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to render plot",
		})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// params reads location and date, writing a 400 response and returning
// ok=false when date is malformed.
func (r *routes) params(c *fiber.Ctx) (location, monthDay string, ok bool) {
	location = c.Query("location", r.defaultLocation)

	monthDay = c.Query("date")
	if monthDay == "" {
		return location, models.MonthDay(r.now()), true
	}

	if _, err := models.ParseMonthDay(monthDay); err != nil {
		r.l.Warning("invalid date parameter", map[string]any{"provided": monthDay})
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid date, expected MM-DD",
		})
		return "", "", false
	}

	return location, monthDay, true
}

func (r *routes) load(c *fiber.Ctx, location, monthDay string) (models.DaySeries, error) {
	history, err := r.store.Load(c.UserContext(), location)
	if err != nil {
		return nil, err
	}

	return climate.SelectMonthDay(history, monthDay), nil
}

func (r *routes) storeError(c *fiber.Ctx, location string, err error) error {
	r.l.Error(err, map[string]any{"location": location})

	msg := "Failed to load history"
	if errors.Is(err, repositories.ErrStoreCorrupt) {
		msg = "History store is corrupt"
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: msg})
}
