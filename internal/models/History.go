package models

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar date format used as the history key.
const DateLayout = "2006-01-02"

// History maps a calendar date (YYYY-MM-DD) to the recorded high
// temperature in °F. Dates are neither contiguous nor ordered.
type History map[string]float64

// Dates returns the history keys in ascending order.
func (h History) Dates() []string {
	dates := make([]string, 0, len(h))
	for date := range h {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Clone returns an independent copy of h.
func (h History) Clone() History {
	out := make(History, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Validate reports the first key, in date order, that is not a YYYY-MM-DD
// calendar date.
func (h History) Validate() error {
	for _, date := range h.Dates() {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("invalid date key %q", date)
		}
	}
	return nil
}

// HistoricalRecord is one entry of a DaySeries as published on the wire.
type HistoricalRecord struct {
	Date string  `json:"date" example:"1979-10-16"`
	Temp float64 `json:"temp" example:"58.1"`
}

// Year returns the year component of the record date.
func (r HistoricalRecord) Year() string {
	if len(r.Date) < 4 {
		return r.Date
	}
	return r.Date[:4]
}

// DaySeries holds every record sharing one month-day across years, plus the
// current day's forecast as the final entry when built by the aggregator.
type DaySeries []HistoricalRecord

// Extremes is the historical high and low of a DaySeries with their years.
type Extremes struct {
	HighTemp float64 `json:"high_temp"`
	HighYear string  `json:"high_year"`
	LowTemp  float64 `json:"low_temp"`
	LowYear  string  `json:"low_year"`
}

// MonthDay returns the "MM-DD" key of t.
func MonthDay(t time.Time) string {
	return t.Format("01-02")
}

// ParseMonthDay validates an "MM-DD" key.
func ParseMonthDay(s string) (string, error) {
	// 2000 is a leap year so 02-29 is accepted.
	if _, err := time.Parse(DateLayout, "2000-"+s); err != nil {
		return "", fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	return s, nil
}
