package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/internal/service/cache"
	"TopMover/pkg/logger"
	"TopMover/pkg/metrics"
)

// maxMovers bounds the read API and the cached slice.
const maxMovers = 90

// MoversQuery serves the most recent winners, newest first, through a read cache.
type MoversQuery struct {
	store   domrepo.RecordStore
	cache   cache.BytesCache
	pk      string
	ttl     time.Duration
	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewMoversQuery(store domrepo.RecordStore, c cache.BytesCache, partitionKey string, ttl time.Duration, log *logger.Logger, m domrepo.Metrics) *MoversQuery {
	if m == nil {
		m = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MoversQuery{store: store, cache: c, pk: partitionKey, ttl: ttl, log: log, metrics: m}
}

func (q *MoversQuery) cacheKey() string {
	return "movers:" + q.pk
}

// Latest returns up to limit items. The cache always holds the first maxMovers.
func (q *MoversQuery) Latest(ctx context.Context, limit int) ([]models.MoverItem, error) {
	start := time.Now()
	defer func() { q.metrics.RecordLatency("query_movers", time.Since(start).Seconds()) }()

	if limit <= 0 || limit > maxMovers {
		limit = maxMovers
	}
	items, ok := q.fromCache(ctx)
	if !ok {
		recs, err := q.store.QueryLatest(ctx, q.pk, maxMovers)
		if err != nil {
			q.metrics.RecordError("query_latest")
			return nil, err
		}
		items = make([]models.MoverItem, len(recs))
		for i, r := range recs {
			items[i] = r.Item()
		}
		q.toCache(ctx, items)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Invalidate drops the cached list. Registered as a dispatcher hook.
func (q *MoversQuery) Invalidate(ctx context.Context, res *models.RunResult, _ error) {
	if q.cache == nil || res == nil || len(res.StoredDates) == 0 {
		return
	}
	if err := q.cache.Delete(ctx, q.cacheKey()); err != nil {
		q.log.Warn("movers cache invalidate failed", logger.Error(err))
	}
}

func (q *MoversQuery) fromCache(ctx context.Context) ([]models.MoverItem, bool) {
	if q.cache == nil {
		return nil, false
	}
	b, ok, err := q.cache.GetBytes(ctx, q.cacheKey())
	if err != nil {
		q.log.Warn("movers cache get failed", logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []models.MoverItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (q *MoversQuery) toCache(ctx context.Context, items []models.MoverItem) {
	if q.cache == nil {
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := q.cache.SetBytes(ctx, q.cacheKey(), b, q.ttl); err != nil {
		q.log.Warn("movers cache set failed", logger.Error(err))
	}
}
