package climate

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode"

	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// Renderer draws a DaySeries as one colour-coded bar per year, with no
// axes or labels.
type Renderer struct {
	OutputDir string
	ColorMin  float64
	ColorMax  float64
	StartYear int
	BarWidth  int
	Height    int
	l         *logger.Logger
}

func NewRenderer(cfg config.RenderConfig, l *logger.Logger) *Renderer {
	return &Renderer{
		OutputDir: cfg.OutputDir,
		ColorMin:  cfg.ColorMin,
		ColorMax:  cfg.ColorMax,
		StartYear: cfg.StartYear,
		BarWidth:  cfg.BarWidth,
		Height:    cfg.Height,
		l:         l,
	}
}

// Bars lays the series out on the years StartYear..currentYear. A year
// without a record is a transparent zero-height bar; when two records
// share a year the later one wins.
func (r *Renderer) Bars(series models.DaySeries, currentYear int) []chart.Value {
	byYear := make(map[int]float64, len(series))
	for _, rec := range series {
		year, err := strconv.Atoi(rec.Year())
		if err != nil {
			continue
		}
		byYear[year] = rec.Temp
	}

	var bars []chart.Value
	for year := r.StartYear; year <= currentYear; year++ {
		temp, ok := byYear[year]
		if !ok {
			bars = append(bars, chart.Value{
				Label: strconv.Itoa(year),
				Style: chart.Style{
					Show:        true,
					FillColor:   drawing.ColorTransparent,
					StrokeColor: drawing.ColorTransparent,
				},
			})
			continue
		}

		color := GradientColor(temp, r.ColorMin, r.ColorMax)
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(year),
			Value: temp,
			Style: chart.Style{
				Show:        true,
				FillColor:   color,
				StrokeColor: color,
				StrokeWidth: 1,
			},
		})
	}

	return bars
}

// Render writes the series as a PNG to w.
func (r *Renderer) Render(w io.Writer, series models.DaySeries, currentYear int) error {
	bars := r.Bars(series, currentYear)
	if len(bars) == 0 {
		return fmt.Errorf("no years to draw between %d and %d", r.StartYear, currentYear)
	}

	low, high := 0.0, 0.0
	for _, bar := range bars {
		low = math.Min(low, bar.Value)
		high = math.Max(high, bar.Value)
	}
	if high <= low {
		high = low + 1
	}

	graph := chart.BarChart{
		Width:      len(bars) * r.BarWidth,
		Height:     r.Height,
		BarWidth:   r.BarWidth,
		BarSpacing: 0,
		Background: chart.Style{
			Padding: chart.Box{Top: 1, Left: 1, Right: 1, Bottom: 1},
		},
		XAxis: chart.Style{Show: false},
		YAxis: chart.YAxis{
			Style: chart.Style{Show: false},
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}

// RenderFile renders the series for location on day into OutputDir and
// returns the file path.
func (r *Renderer) RenderFile(series models.DaySeries, location string, day time.Time) (string, error) {
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}

	path := filepath.Join(r.OutputDir, PlotFileName(location, day))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create plot file: %w", err)
	}

	if err := r.Render(f, series, day.Year()); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close plot file: %w", err)
	}

	r.l.Info("rendered historical plot", map[string]any{
		"location": location,
		"path":     path,
		"records":  len(series),
	})

	return path, nil
}

// PlotFileName is "<YYYY-MM-DD>_<Location>HistoricalPlot.png" with
// everything but letters and digits dropped from the location.
func PlotFileName(location string, day time.Time) string {
	return fmt.Sprintf("%s_%sHistoricalPlot.png", day.Format(models.DateLayout), alnum(location))
}

func alnum(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out = append(out, c)
		}
	}
	return string(out)
}
