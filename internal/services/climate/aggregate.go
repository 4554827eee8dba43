// Package climate turns the stored daily highs of a location into the
// per-day historical series, its extremes, a colour-striped plot and the
// messages that publish them.
package climate

import (
	"time"

	"github.com/emeersman/design-for-iot/internal/models"
)

// SelectMonthDay returns every record of history whose date falls on
// monthDay ("MM-DD"), in ascending date order.
func SelectMonthDay(history models.History, monthDay string) models.DaySeries {
	var series models.DaySeries
	for _, date := range history.Dates() {
		if len(date) != len(models.DateLayout) || date[5:] != monthDay {
			continue
		}
		series = append(series, models.HistoricalRecord{Date: date, Temp: history[date]})
	}
	return series
}

// FoldExtremes computes the high and low of series in one left-to-right
// pass. The first record seeds both; later records replace them only when
// strictly greater or strictly less, so ties keep the earliest year.
// ok is false for an empty series.
func FoldExtremes(series models.DaySeries) (ext models.Extremes, ok bool) {
	for i, rec := range series {
		if i == 0 {
			ext = models.Extremes{
				HighTemp: rec.Temp, HighYear: rec.Year(),
				LowTemp: rec.Temp, LowYear: rec.Year(),
			}
			continue
		}
		if rec.Temp > ext.HighTemp {
			ext.HighTemp, ext.HighYear = rec.Temp, rec.Year()
		}
		if rec.Temp < ext.LowTemp {
			ext.LowTemp, ext.LowYear = rec.Temp, rec.Year()
		}
	}
	return ext, len(series) > 0
}

// Aggregate builds the series for monthDay: every stored record on that
// month-day followed by a synthetic entry carrying today's forecast. The
// synthetic entry is appended even when history already holds a record for
// today. It has no side effects.
func Aggregate(history models.History, monthDay string, today time.Time, forecast float64) (models.DaySeries, models.Extremes) {
	series := SelectMonthDay(history, monthDay)
	series = append(series, models.HistoricalRecord{
		Date: today.Format(models.DateLayout),
		Temp: forecast,
	})

	ext, _ := FoldExtremes(series)

	return series, ext
}
