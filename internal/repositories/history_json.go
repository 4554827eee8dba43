package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// JSONHistoryRepository keeps one {"YYYY-MM-DD": temp} object per location
// in <dir>/<slug>_data.json. Every write replaces the whole file through a
// temporary file and a rename, so readers see either the old or the new
// content and never a partial record.
type JSONHistoryRepository struct {
	dir string
	l   *logger.Logger
}

func NewJSONHistoryRepository(dir string, l *logger.Logger) (*JSONHistoryRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &JSONHistoryRepository{
		dir: dir,
		l:   l,
	}, nil
}

func (r *JSONHistoryRepository) Name() string {
	return "json"
}

// Path returns the history file of location.
func (r *JSONHistoryRepository) Path(location string) string {
	return filepath.Join(r.dir, LocationSlug(location)+"_data.json")
}

func (r *JSONHistoryRepository) Load(ctx context.Context, location string) (models.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ReadHistoryFile(r.Path(location))
}

func (r *JSONHistoryRepository) AppendDay(ctx context.Context, location string, date time.Time, temp float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path := r.Path(location)

	history, err := ReadHistoryFile(path)
	if err != nil {
		return false, err
	}

	key := date.Format(models.DateLayout)
	_, replaced := history[key]
	history[key] = temp

	if err := WriteHistoryFile(path, history); err != nil {
		return false, err
	}

	r.l.Info("appended history record", map[string]any{
		"location": location,
		"date":     key,
		"temp":     temp,
		"replaced": replaced,
		"records":  len(history),
	})

	return replaced, nil
}

// Import merges history into the stored records of location, overwriting
// matching dates.
func (r *JSONHistoryRepository) Import(ctx context.Context, location string, history models.History) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := history.Validate(); err != nil {
		return fmt.Errorf("refusing to import into %s: %w", location, err)
	}

	path := r.Path(location)

	merged, err := ReadHistoryFile(path)
	if err != nil {
		return err
	}
	for date, temp := range history {
		merged[date] = temp
	}

	if err := WriteHistoryFile(path, merged); err != nil {
		return err
	}

	r.l.Info("imported history", map[string]any{
		"location": location,
		"records":  len(history),
		"total":    len(merged),
	})

	return nil
}

func (r *JSONHistoryRepository) Close() error {
	return nil
}

// ReadHistoryFile decodes a history file. A missing file is an empty
// history; malformed content wraps ErrStoreCorrupt.
func ReadHistoryFile(path string) (models.History, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", path, err)
	}

	history := models.History{}
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, path, err)
	}
	if history == nil {
		return nil, fmt.Errorf("%w: %s: not a JSON object", ErrStoreCorrupt, path)
	}

	if err := history.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, path, err)
	}

	return history, nil
}

// WriteHistoryFile atomically replaces path with history. Keys are written
// in ascending date order.
func WriteHistoryFile(path string, history models.History) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary history file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}
