package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
)

var testWatchlist = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA"}

// fixedNow is Saturday 2024-01-13, so the scheduled window ends Friday 2024-01-12.
var fixedNow = time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC)

type fakeClient struct {
	mu        sync.Mutex
	bars      map[string]map[string]models.Bar
	failing   map[string]error
	aggCalls  []string
	dailyCall []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{bars: map[string]map[string]models.Bar{}, failing: map[string]error{}}
}

func (f *fakeClient) add(ticker, date string, o, c float64) {
	if f.bars[ticker] == nil {
		f.bars[ticker] = map[string]models.Bar{}
	}
	f.bars[ticker][date] = models.Bar{Ticker: ticker, Date: date, Open: o, Close: c}
}

// fill gives every ticker a bar on each date; the i-th watchlist ticker moves
// by i+1 percent, so the last listed ticker wins every day.
func (f *fakeClient) fill(dates ...string) {
	for i, t := range testWatchlist {
		for _, d := range dates {
			f.add(t, d, 100, 100+float64(i+1))
		}
	}
}

func (f *fakeClient) FetchAggregateRange(_ context.Context, ticker, start, end string) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggCalls = append(f.aggCalls, ticker)
	if err := f.failing[ticker]; err != nil {
		return nil, err
	}
	var out []models.Bar
	for d, b := range f.bars[ticker] {
		if d >= start && d <= end {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, &errs.NotFoundError{Ticker: ticker}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeClient) FetchDailyOpenClose(_ context.Context, ticker, date string) (models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCall = append(f.dailyCall, ticker)
	if err := f.failing[ticker]; err != nil {
		return models.Bar{}, err
	}
	b, ok := f.bars[ticker][date]
	if !ok {
		return models.Bar{}, &errs.NotFoundError{Ticker: ticker, Date: date}
	}
	return b, nil
}

func (f *fakeClient) calls() int { return len(f.aggCalls) + len(f.dailyCall) }

type fakeStore struct {
	mu         sync.Mutex
	records    map[string]models.WinnerRecord
	failDates  map[string]bool
	queryErr   error
	upserts    []string
	queryCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]models.WinnerRecord{}, failDates: map[string]bool{}}
}

func (s *fakeStore) Upsert(_ context.Context, rec models.WinnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, rec.Date)
	if s.failDates[rec.Date] || s.failDates["*"] {
		return errors.New("connection reset")
	}
	s.records[rec.PartitionKey+"|"+rec.Date] = rec
	return nil
}

func (s *fakeStore) QueryRange(_ context.Context, pk string, dates []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := map[string]struct{}{}
	for _, d := range dates {
		if _, ok := s.records[pk+"|"+d]; ok {
			out[d] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) QueryLatest(_ context.Context, pk string, n int) ([]models.WinnerRecord, error) {
	return nil, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

func (s *fakeStore) seed(dates ...string) {
	for _, d := range dates {
		s.records["WATCHLIST|"+d] = models.WinnerRecord{PartitionKey: "WATCHLIST", Date: d, Ticker: "SEED"}
	}
}

func (s *fakeStore) snapshot() map[string]models.WinnerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.WinnerRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

func (s *fakeStore) calls() int { return len(s.upserts) + s.queryCalls }

type fakePublisher struct {
	events []models.WinnerEvent
	err    error
}

func (p *fakePublisher) PublishWinner(_ context.Context, ev models.WinnerEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeArchive struct {
	archived int
}

func (a *fakeArchive) ArchiveBars(_ context.Context, series models.SeriesByTicker) error {
	a.archived += len(series)
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	runs   map[string]int
	errors map[string]int
	stored int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{runs: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordRun(mode, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[mode+"/"+outcome]++
}

func (m *fakeMetrics) RecordWinnerStored(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastMove(string, float64)    {}
func (m *fakeMetrics) RecordLatency(string, float64)     {}
func (m *fakeMetrics) RecordProviderCall(string, string) {}

type harness struct {
	client  *fakeClient
	store   *fakeStore
	events  *fakePublisher
	archive *fakeArchive
	metrics *fakeMetrics
	engine  *Engine
}

func newHarness() *harness {
	h := &harness{
		client:  newFakeClient(),
		store:   newFakeStore(),
		events:  &fakePublisher{},
		archive: &fakeArchive{},
		metrics: newFakeMetrics(),
	}
	h.engine = NewEngine(Settings{
		Watchlist:       testWatchlist,
		PartitionKey:    "WATCHLIST",
		WindowSize:      7,
		LookbackDays:    14,
		MaxBackfillDays: 366,
		Retention:       365 * 24 * time.Hour,
	}, h.client, h.store, h.events, h.archive, h.metrics, nil)
	h.engine.SetClock(func() time.Time { return fixedNow })
	return h
}
