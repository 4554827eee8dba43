package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/emeersman/design-for-iot/config"
	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// ErrStoreCorrupt is returned when the backing content of a history store
// is not well-formed.
var ErrStoreCorrupt = errors.New("historical store corrupt")

// HistoryRepository persists date → high temperature records per location.
type HistoryRepository interface {
	Name() string
	// Load returns every record stored for location. A location with no
	// records yields an empty History.
	Load(ctx context.Context, location string) (models.History, error)
	// AppendDay records temp for date. An existing record for the same date
	// is overwritten; replaced reports whether that happened.
	AppendDay(ctx context.Context, location string, date time.Time, temp float64) (replaced bool, err error)
	Close() error
}

// HistoryImporter bulk-loads a whole history, overwriting matching dates.
type HistoryImporter interface {
	Import(ctx context.Context, location string, history models.History) error
}

func InitHistoryRepository(cfg *config.Config, l *logger.Logger) (HistoryRepository, error) {
	switch cfg.History.Driver {
	case "json":
		return NewJSONHistoryRepository(cfg.History.DataDir, l)
	case "sqlite":
		return NewSQLiteHistoryRepository(cfg.History.SQLitePath, l)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}
}

// LocationSlug turns a location name into a file-system friendly key:
// "New York" becomes "new_york".
func LocationSlug(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
