// Package bulkimport extracts daily high temperatures from an OpenWeather
// bulk history export.
package bulkimport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// Item is the part of one hourly bulk record the parser reads.
type Item struct {
	DtISO string `json:"dt_iso" validate:"required,min=10"`
	Main  struct {
		TempMax *float64 `json:"temp_max" validate:"required"`
	} `json:"main"`
}

// Date is the calendar date of the item, or an error when dt_iso does not
// start with a YYYY-MM-DD date.
func (i Item) Date() (string, error) {
	date := i.DtISO[:10]
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid dt_iso %q: %w", i.DtISO, err)
	}
	return date, nil
}

type Stats struct {
	Items   int
	Skipped int
	Days    int
}

type Parser struct {
	validate *validator.Validate
	l        *logger.Logger
}

func NewParser(l *logger.Logger) *Parser {
	return &Parser{
		validate: validator.New(),
		l:        l,
	}
}

// Parse reads a JSON array of hourly items one element at a time and keeps
// the highest temp_max seen for each date. Items missing a date or a
// temperature are skipped.
func (p *Parser) Parse(r io.Reader) (models.History, Stats, error) {
	var stats Stats
	history := models.History{}

	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read bulk history: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, stats, fmt.Errorf("bulk history must be a JSON array, got %v", tok)
	}

	for dec.More() {
		var item Item
		if err := dec.Decode(&item); err != nil {
			return nil, stats, fmt.Errorf("failed to decode item %d: %w", stats.Items, err)
		}
		stats.Items++

		date, err := p.date(item)
		if err != nil {
			stats.Skipped++
			p.l.Debug("skipping bulk item", map[string]any{
				"index": stats.Items - 1,
				"error": err.Error(),
			})
			continue
		}

		temp := *item.Main.TempMax
		if current, ok := history[date]; !ok || temp > current {
			history[date] = temp
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, stats, fmt.Errorf("failed to read end of bulk history: %w", err)
	}

	stats.Days = len(history)

	return history, stats, nil
}

func (p *Parser) date(item Item) (string, error) {
	if err := p.validate.Struct(item); err != nil {
		return "", err
	}
	return item.Date()
}

// ParseFile parses the bulk export at path.
func (p *Parser) ParseFile(path string) (models.History, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	history, stats, err := p.Parse(f)
	if err != nil {
		return nil, stats, err
	}

	p.l.Info("parsed bulk history", map[string]any{
		"path":    path,
		"items":   stats.Items,
		"skipped": stats.Skipped,
		"days":    stats.Days,
	})

	return history, stats, nil
}
