package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/pkg/logger"

	_ "modernc.org/sqlite"
)

var (
	_ domrepo.RecordStore   = (*SQLiteStore)(nil)
	_ domrepo.ExpiringStore = (*SQLiteStore)(nil)
)

// SQLiteStore persists winner records in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
	l  *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
func NewSQLiteStore(path string, l *logger.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.Store("open", fmt.Errorf("create dir: %w", err))
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Store("open", fmt.Errorf("open sqlite: %w", err))
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errs.Store("open", fmt.Errorf("set WAL mode: %w", err))
	}

	s := &SQLiteStore{db: db, l: l}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errs.Store("migrate", err)
	}
	if l != nil {
		l.Info("sqlite store opened", logger.String("path", path))
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS winners (
			partition_key  TEXT NOT NULL,
			date           TEXT NOT NULL,
			ticker         TEXT NOT NULL,
			percent_change REAL NOT NULL,
			closing_price  REAL NOT NULL,
			expires_at     INTEGER NOT NULL,
			PRIMARY KEY (partition_key, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_winners_expires ON winners(expires_at)`,
	}
	for i, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec models.WinnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO winners (partition_key, date, ticker, percent_change, closing_price, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(partition_key, date) DO UPDATE SET
			ticker = excluded.ticker,
			percent_change = excluded.percent_change,
			closing_price = excluded.closing_price,
			expires_at = excluded.expires_at`,
		rec.PartitionKey, rec.Date, rec.Ticker, rec.PercentChange, rec.ClosingPrice, rec.ExpiresAt,
	)
	if err != nil {
		return errs.Store("upsert", err)
	}
	return nil
}

func (s *SQLiteStore) QueryRange(ctx context.Context, partitionKey string, dates []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(dates))
	if len(dates) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(dates)+1)
	args = append(args, partitionKey)
	for _, d := range dates {
		args = append(args, d)
	}
	q := "SELECT date FROM winners WHERE partition_key = ? AND date IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",") + ")"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errs.Store("query_range", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, errs.Store("query_range", err)
		}
		out[d] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("query_range", err)
	}
	return out, nil
}

func (s *SQLiteStore) QueryLatest(ctx context.Context, partitionKey string, n int) ([]models.WinnerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT partition_key, date, ticker, percent_change, closing_price, expires_at
		FROM winners WHERE partition_key = ?
		ORDER BY date DESC LIMIT ?`, partitionKey, n)
	if err != nil {
		return nil, errs.Store("query_latest", err)
	}
	defer rows.Close()

	out := make([]models.WinnerRecord, 0, n)
	for rows.Next() {
		var r models.WinnerRecord
		if err := rows.Scan(&r.PartitionKey, &r.Date, &r.Ticker, &r.PercentChange, &r.ClosingPrice, &r.ExpiresAt); err != nil {
			return nil, errs.Store("query_latest", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("query_latest", err)
	}
	return out, nil
}

// PurgeExpired deletes rows whose expires_at is at or before now.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM winners WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, errs.Store("purge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Store("purge", err)
	}
	return n, nil
}

func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.Store("health", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
