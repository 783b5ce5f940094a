package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	pkgch "TopMover/pkg/clickhouse"
	"TopMover/pkg/logger"
)

var _ domrepo.RecordStore = (*CHWinnerStore)(nil)

// CHWinnerStore keeps winner records in a ReplacingMergeTree table.
// Expiry is left to the table TTL, so it does not implement ExpiringStore.
type CHWinnerStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *logger.Logger
	now   func() time.Time
}

func NewCHWinnerStore(ch *pkgch.Client, table string, l *logger.Logger) *CHWinnerStore {
	return &CHWinnerStore{
		ch:    ch,
		db:    ch.DB(),
		table: fmt.Sprintf("%s.%s", ch.Database(), table),
		l:     l,
		now:   time.Now,
	}
}

// SchemaStatements returns the DDL for the winners table.
func (s *CHWinnerStore) SchemaStatements() []string {
	db := strings.SplitN(s.table, ".", 2)[0]
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			partition_key  String,
			date           Date,
			ticker         LowCardinality(String),
			percent_change Float64,
			closing_price  Float64,
			expires_at     Int64,
			version        UInt64
		)
		ENGINE = ReplacingMergeTree(version)
		ORDER BY (partition_key, date)
		TTL toDateTime(expires_at)`, s.table),
	}
}

// Init creates the table when missing.
func (s *CHWinnerStore) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, s.SchemaStatements()); err != nil {
		return errs.Store("init", err)
	}
	return nil
}

func (s *CHWinnerStore) Upsert(ctx context.Context, rec models.WinnerRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (partition_key, date, ticker, percent_change, closing_price, expires_at, version)
		VALUES (?, toDate(?), ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.PartitionKey,
		rec.Date,
		rec.Ticker,
		rec.PercentChange,
		rec.ClosingPrice,
		rec.ExpiresAt,
		uint64(s.now().UnixNano()),
	)
	if err != nil {
		s.logErr("upsert", rec.PartitionKey, err)
		return errs.Store("upsert", err)
	}
	return nil
}

func (s *CHWinnerStore) QueryRange(ctx context.Context, partitionKey string, dates []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(dates))
	if len(dates) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(dates)+2)
	args = append(args, partitionKey, s.now().Unix())
	marks := make([]string, len(dates))
	for i, d := range dates {
		marks[i] = "toDate(?)"
		args = append(args, d)
	}
	q := fmt.Sprintf(`SELECT toString(date) FROM %s FINAL
		WHERE partition_key = ? AND expires_at > ? AND date IN (%s)`, s.table, strings.Join(marks, ", "))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr("query_range", partitionKey, err)
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

func (s *CHWinnerStore) QueryLatest(ctx context.Context, partitionKey string, n int) ([]models.WinnerRecord, error) {
	start := s.now()
	q := fmt.Sprintf(`SELECT partition_key, toString(date), ticker, percent_change, closing_price, expires_at
		FROM %s FINAL
		WHERE partition_key = ? AND expires_at > ?
		ORDER BY date DESC
		LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, partitionKey, start.Unix(), n)
	if err != nil {
		s.logErr("query_latest", partitionKey, err)
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
	if s.l != nil {
		s.l.Debug("clickhouse query_latest ok",
			logger.String("table", s.table),
			logger.Int("rows", len(out)),
			logger.Duration("duration_ms", s.now().Sub(start)),
		)
	}
	return out, nil
}

func (s *CHWinnerStore) Health(ctx context.Context) error {
	if err := s.ch.Health(ctx); err != nil {
		return errs.Store("health", err)
	}
	return nil
}

func (s *CHWinnerStore) Close() error {
	return s.ch.Close()
}

func (s *CHWinnerStore) logErr(op, pk string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op+" error",
		logger.String("table", s.table),
		logger.String("partition_key", pk),
		logger.Error(err),
	)
}
