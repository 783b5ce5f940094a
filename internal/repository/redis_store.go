package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var (
	_ domrepo.RecordStore   = (*RedisStore)(nil)
	_ domrepo.ExpiringStore = (*RedisStore)(nil)
)

// RedisStore keeps one string key per record with EXPIREAT set to the
// record's expiry, plus a sorted set of dates per partition for ordering.
type RedisStore struct {
	cli    redis.UniversalClient
	prefix string
	l      *logger.Logger
}

func NewRedisStore(cli redis.UniversalClient, prefix string, l *logger.Logger) *RedisStore {
	if prefix == "" {
		prefix = "topmover"
	}
	return &RedisStore{cli: cli, prefix: prefix, l: l}
}

func (s *RedisStore) recordKey(pk, date string) string {
	return s.prefix + ":winner:" + pk + ":" + date
}

func (s *RedisStore) indexKey(pk string) string {
	return s.prefix + ":dates:" + pk
}

// dateScore maps YYYY-MM-DD to yyyymmdd so the index sorts chronologically.
func dateScore(date string) float64 {
	n, err := strconv.Atoi(strings.ReplaceAll(date, "-", ""))
	if err != nil {
		return 0
	}
	return float64(n)
}

func (s *RedisStore) Upsert(ctx context.Context, rec models.WinnerRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errs.Store("upsert", err)
	}
	key := s.recordKey(rec.PartitionKey, rec.Date)
	_, err = s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, b, 0)
		p.ExpireAt(ctx, key, time.Unix(rec.ExpiresAt, 0))
		p.ZAdd(ctx, s.indexKey(rec.PartitionKey), redis.Z{Score: dateScore(rec.Date), Member: rec.Date})
		return nil
	})
	if err != nil {
		return errs.Store("upsert", err)
	}
	return nil
}

func (s *RedisStore) QueryRange(ctx context.Context, partitionKey string, dates []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(dates))
	if len(dates) == 0 {
		return out, nil
	}
	cmds := make([]*redis.IntCmd, len(dates))
	_, err := s.cli.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, d := range dates {
			cmds[i] = p.Exists(ctx, s.recordKey(partitionKey, d))
		}
		return nil
	})
	if err != nil {
		return nil, errs.Store("query_range", err)
	}
	for i, c := range cmds {
		if c.Val() > 0 {
			out[dates[i]] = struct{}{}
		}
	}
	return out, nil
}

func (s *RedisStore) QueryLatest(ctx context.Context, partitionKey string, n int) ([]models.WinnerRecord, error) {
	out := make([]models.WinnerRecord, 0, n)
	if n <= 0 {
		return out, nil
	}
	var stale []interface{}
	// expired keys leave members behind in the index, so page until n live records are found
	for offset := int64(0); len(out) < n; offset += int64(n) {
		dates, err := s.cli.ZRevRange(ctx, s.indexKey(partitionKey), offset, offset+int64(n)-1).Result()
		if err != nil {
			return nil, errs.Store("query_latest", err)
		}
		if len(dates) == 0 {
			break
		}
		keys := make([]string, len(dates))
		for i, d := range dates {
			keys[i] = s.recordKey(partitionKey, d)
		}
		vals, err := s.cli.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, errs.Store("query_latest", err)
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				stale = append(stale, dates[i])
				continue
			}
			var r models.WinnerRecord
			if err := json.Unmarshal([]byte(str), &r); err != nil {
				if s.l != nil {
					s.l.Warn("redis record decode failed", logger.String("key", keys[i]), logger.Error(err))
				}
				continue
			}
			if len(out) < n {
				out = append(out, r)
			}
		}
	}
	if len(stale) > 0 {
		if err := s.cli.ZRem(ctx, s.indexKey(partitionKey), stale...).Err(); err != nil && s.l != nil {
			s.l.Warn("redis index cleanup failed", logger.Error(err))
		}
	}
	return out, nil
}

// PurgeExpired trims index members whose record key Redis has already expired.
func (s *RedisStore) PurgeExpired(ctx context.Context, _ time.Time) (int64, error) {
	var removed int64
	iter := s.cli.Scan(ctx, 0, s.prefix+":dates:*", 100).Iterator()
	for iter.Next(ctx) {
		idx := iter.Val()
		pk := strings.TrimPrefix(idx, s.prefix+":dates:")
		dates, err := s.cli.ZRange(ctx, idx, 0, -1).Result()
		if err != nil {
			return removed, errs.Store("purge", err)
		}
		present, err := s.QueryRange(ctx, pk, dates)
		if err != nil {
			return removed, err
		}
		var gone []interface{}
		for _, d := range dates {
			if _, ok := present[d]; !ok {
				gone = append(gone, d)
			}
		}
		if len(gone) == 0 {
			continue
		}
		n, err := s.cli.ZRem(ctx, idx, gone...).Result()
		if err != nil {
			return removed, errs.Store("purge", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, errs.Store("purge", err)
	}
	return removed, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	if err := s.cli.Ping(ctx).Err(); err != nil {
		return errs.Store("health", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.cli.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
