package climate

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/drawing"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewZapLogger("test-app", io.Discard)
}

func testRenderer(dir string) *Renderer {
	return NewRenderer(config.RenderConfig{
		OutputDir: dir,
		ColorMin:  20,
		ColorMax:  100,
		StartYear: 1979,
		BarWidth:  4,
		Height:    100,
	}, testLogger())
}

func TestRenderer_Bars(t *testing.T) {
	r := testRenderer(t.TempDir())
	series := models.DaySeries{
		{Date: "1979-10-16", Temp: 60},
		{Date: "1981-10-16", Temp: 20},
		{Date: "1981-10-16", Temp: 100},
	}

	bars := r.Bars(series, 1982)

	require.Len(t, bars, 4)
	assert.Equal(t, "1979", bars[0].Label)
	assert.Equal(t, 60.0, bars[0].Value)
	assert.Equal(t, drawing.Color{R: 255, G: 255, B: 0, A: 255}, bars[0].Style.FillColor)

	assert.Equal(t, 0.0, bars[1].Value)
	assert.Equal(t, drawing.ColorTransparent, bars[1].Style.FillColor)

	assert.Equal(t, 100.0, bars[2].Value, "later record for a year wins")
	assert.Equal(t, drawing.Color{R: 255, G: 0, B: 0, A: 255}, bars[2].Style.FillColor)

	assert.Equal(t, "1982", bars[3].Label)
	assert.Equal(t, drawing.ColorTransparent, bars[3].Style.FillColor)
}

func TestRenderer_RenderPNG(t *testing.T) {
	r := testRenderer(t.TempDir())
	series := models.DaySeries{
		{Date: "1979-10-16", Temp: 45},
		{Date: "1980-10-16", Temp: 62},
		{Date: "2020-10-16", Temp: 38},
		{Date: "2026-10-16", Temp: 55},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, series, 2026))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, (2026-1979+1)*4, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestRenderer_DegenerateColorRange(t *testing.T) {
	r := testRenderer(t.TempDir())
	r.ColorMin, r.ColorMax = 50, 50

	series := models.DaySeries{{Date: "1979-10-16", Temp: 10}, {Date: "1980-10-16", Temp: 90}}

	for _, bar := range r.Bars(series, 1980) {
		assert.Equal(t, drawing.Color{R: 255, G: 255, B: 0, A: 255}, bar.Style.FillColor)
	}

	var buf bytes.Buffer
	assert.NoError(t, r.Render(&buf, series, 1980))
}

func TestRenderer_NegativeAndZeroTemperatures(t *testing.T) {
	r := testRenderer(t.TempDir())

	var buf bytes.Buffer
	assert.NoError(t, r.Render(&buf, models.DaySeries{{Date: "1979-01-01", Temp: -12}}, 1980))

	buf.Reset()
	assert.NoError(t, r.Render(&buf, models.DaySeries{{Date: "1979-01-01", Temp: 0}}, 1979))
}

func TestRenderer_NoYears(t *testing.T) {
	r := testRenderer(t.TempDir())

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, models.DaySeries{{Date: "1970-10-16", Temp: 50}}, 1978))
}

func TestRenderer_RenderFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	r := testRenderer(dir)

	path, err := r.RenderFile(models.DaySeries{{Date: "2026-10-16", Temp: 55}}, "New York", date("2026-10-16"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-10-16_NewYorkHistoricalPlot.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestPlotFileName(t *testing.T) {
	assert.Equal(t, "2026-10-16_SeattleHistoricalPlot.png", PlotFileName("Seattle", date("2026-10-16")))
	assert.Equal(t, "2026-10-17_StLouisHistoricalPlot.png", PlotFileName("St. Louis", date("2026-10-17")))
}
