package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/pkg/util"

	"github.com/parquet-go/parquet-go"
)

var _ domrepo.BarArchive = (*ParquetArchive)(nil)

// BarRecord is the on-disk schema of an archived daily bar.
type BarRecord struct {
	Ticker    string  `parquet:"ticker"`
	Date      string  `parquet:"date"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // midnight UTC
	Open      float64 `parquet:"open"`
	Close     float64 `parquet:"close"`
}

// ParquetArchive writes fetched bars to <dir>/daily/<TICKER>/<YYYY>.parquet,
// merging with whatever the file already holds.
type ParquetArchive struct {
	Dir string
}

func NewParquetArchive(dir string) *ParquetArchive {
	return &ParquetArchive{Dir: dir}
}

func (a *ParquetArchive) ArchiveBars(ctx context.Context, series models.SeriesByTicker) error {
	type key struct {
		ticker string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for ticker, s := range series {
		for _, b := range s {
			d, err := util.ParseDate(b.Date)
			if err != nil {
				continue
			}
			k := key{ticker: ticker, year: d.Year()}
			groups[k] = append(groups[k], BarRecord{
				Ticker:    ticker,
				Date:      b.Date,
				Timestamp: d.UnixMilli(),
				Open:      b.Open,
				Close:     b.Close,
			})
		}
	}

	for k, records := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := a.path(k.ticker, k.year)
		existing, err := readParquetFile[BarRecord](path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading bars for %s/%d: %w", k.ticker, k.year, err)
		}
		if err := writeParquetFile(path, mergeBarRecords(existing, records)); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.ticker, k.year, err)
		}
	}
	return nil
}

// ReadBars returns archived bars for ticker with start <= date <= end.
func (a *ParquetArchive) ReadBars(ticker, start, end string) ([]models.Bar, error) {
	s, err := util.ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := util.ParseDate(end)
	if err != nil {
		return nil, err
	}
	var bars []models.Bar
	for year := s.Year(); year <= e.Year(); year++ {
		records, err := readParquetFile[BarRecord](a.path(ticker, year))
		if err != nil {
			continue
		}
		for _, r := range records {
			if r.Date >= start && r.Date <= end {
				bars = append(bars, models.Bar{Ticker: r.Ticker, Date: r.Date, Open: r.Open, Close: r.Close})
			}
		}
	}
	return bars, nil
}

func (a *ParquetArchive) path(ticker string, year int) string {
	return filepath.Join(a.Dir, "daily", ticker, strconv.Itoa(year)+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[string]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}
	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}
