package climate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emeersman/design-for-iot/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSelectMonthDay(t *testing.T) {
	history := models.History{
		"2020-10-16": 38,
		"1979-10-16": 45,
		"1979-10-17": 99,
		"1980-10-16": 62,
		"1980-01-16": 12,
	}

	series := SelectMonthDay(history, "10-16")

	assert.Equal(t, models.DaySeries{
		{Date: "1979-10-16", Temp: 45},
		{Date: "1980-10-16", Temp: 62},
		{Date: "2020-10-16", Temp: 38},
	}, series)
}

func TestAggregate_Scenario(t *testing.T) {
	history := models.History{
		"1979-10-16": 45,
		"1980-10-16": 62,
		"2020-10-16": 38,
	}

	series, ext := Aggregate(history, "10-16", date("2026-10-16"), 50)

	assert.Len(t, series, 4)
	assert.Equal(t, models.HistoricalRecord{Date: "2026-10-16", Temp: 50}, series[3])
	assert.Equal(t, 62.0, ext.HighTemp)
	assert.Equal(t, "1980", ext.HighYear)
	assert.Equal(t, 38.0, ext.LowTemp)
	assert.Equal(t, "2020", ext.LowYear)
}

func TestAggregate_EmptyHistory(t *testing.T) {
	series, ext := Aggregate(models.History{}, "10-16", date("2026-10-16"), 55)

	assert.Equal(t, models.DaySeries{{Date: "2026-10-16", Temp: 55}}, series)
	assert.Equal(t, models.Extremes{HighTemp: 55, HighYear: "2026", LowTemp: 55, LowYear: "2026"}, ext)
}

func TestAggregate_ForecastCanSetExtremes(t *testing.T) {
	history := models.History{"1979-10-16": 45, "1980-10-16": 62}

	_, ext := Aggregate(history, "10-16", date("2026-10-16"), 70)
	assert.Equal(t, 70.0, ext.HighTemp)
	assert.Equal(t, "2026", ext.HighYear)
	assert.Equal(t, "1979", ext.LowYear)
}

func TestAggregate_TodayAlreadyStored(t *testing.T) {
	history := models.History{"2026-10-16": 48}

	series, _ := Aggregate(history, "10-16", date("2026-10-16"), 55)

	assert.Equal(t, models.DaySeries{
		{Date: "2026-10-16", Temp: 48},
		{Date: "2026-10-16", Temp: 55},
	}, series)
}

func TestFoldExtremes_TiesKeepEarliestYear(t *testing.T) {
	series := models.DaySeries{
		{Date: "1979-10-16", Temp: 50},
		{Date: "1985-10-16", Temp: 50},
		{Date: "1990-10-16", Temp: 40},
		{Date: "1995-10-16", Temp: 40},
		{Date: "2000-10-16", Temp: 60},
		{Date: "2005-10-16", Temp: 60},
	}

	ext, ok := FoldExtremes(series)

	assert.True(t, ok)
	assert.Equal(t, models.Extremes{HighTemp: 60, HighYear: "2000", LowTemp: 40, LowYear: "1990"}, ext)
}

func TestFoldExtremes_BoundsEverySeries(t *testing.T) {
	cases := []models.DaySeries{
		{{Date: "1979-10-16", Temp: 10}},
		{{Date: "1979-10-16", Temp: 10}, {Date: "1980-10-16", Temp: -5}, {Date: "1981-10-16", Temp: 30}},
		{{Date: "1979-10-16", Temp: 90}, {Date: "1980-10-16", Temp: 80}, {Date: "1981-10-16", Temp: 70}},
		{{Date: "1979-10-16", Temp: 1}, {Date: "1980-10-16", Temp: 2}, {Date: "1981-10-16", Temp: 3}},
	}

	for _, series := range cases {
		ext, ok := FoldExtremes(series)
		assert.True(t, ok)
		for _, rec := range series {
			assert.GreaterOrEqual(t, ext.HighTemp, rec.Temp)
			assert.LessOrEqual(t, ext.LowTemp, rec.Temp)
		}
	}

	_, ok := FoldExtremes(nil)
	assert.False(t, ok)
}
