package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/emeersman/design-for-iot/internal/models"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

// SQLiteHistoryRepository stores every location in one table keyed by
// (location, date). Appends are single-row upserts inside a transaction.
type SQLiteHistoryRepository struct {
	db     *sql.DB
	DBPath string
	l      *logger.Logger
}

func NewSQLiteHistoryRepository(dbPath string, l *logger.Logger) (*SQLiteHistoryRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	l.Info("opening history database", map[string]any{"path": dbPath})

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS daily_high (
		location TEXT NOT NULL,
		date TEXT NOT NULL,
		temp REAL NOT NULL,
		PRIMARY KEY (location, date)
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteHistoryRepository{
		db:     db,
		DBPath: dbPath,
		l:      l,
	}, nil
}

func (r *SQLiteHistoryRepository) Name() string {
	return "sqlite"
}

func (r *SQLiteHistoryRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteHistoryRepository) Load(ctx context.Context, location string) (models.History, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, temp FROM daily_high WHERE location = ? ORDER BY date`,
		LocationSlug(location))
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", location, err)
	}
	defer rows.Close()

	history := models.History{}
	for rows.Next() {
		var (
			date string
			temp float64
		)
		if err := rows.Scan(&date, &temp); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", ErrStoreCorrupt, err)
		}
		history[date] = temp
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return history, nil
}

func (r *SQLiteHistoryRepository) AppendDay(ctx context.Context, location string, date time.Time, temp float64) (bool, error) {
	key := date.Format(models.DateLayout)
	slug := LocationSlug(location)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_high WHERE location = ? AND date = ?`,
		slug, key).Scan(&existing); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to look up %s for %s: %w", key, location, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO daily_high(location, date, temp)
		VALUES(?, ?, ?)
		ON CONFLICT(location, date) DO UPDATE SET temp=excluded.temp`,
		slug, key, temp); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to insert %s for %s: %w", key, location, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	replaced := existing > 0

	r.l.Info("appended history record", map[string]any{
		"location": location,
		"date":     key,
		"temp":     temp,
		"replaced": replaced,
	})

	return replaced, nil
}

// Import bulk-loads history for location, overwriting matching dates.
func (r *SQLiteHistoryRepository) Import(ctx context.Context, location string, history models.History) error {
	if err := history.Validate(); err != nil {
		return fmt.Errorf("refusing to import into %s: %w", location, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_high(location, date, temp)
		VALUES(?, ?, ?)
		ON CONFLICT(location, date) DO UPDATE SET temp=excluded.temp`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	slug := LocationSlug(location)
	for _, date := range history.Dates() {
		if _, err := stmt.ExecContext(ctx, slug, date, history[date]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert %s for %s: %w", date, location, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.l.Info("imported history", map[string]any{
		"location": location,
		"records":  len(history),
	})

	return nil
}
