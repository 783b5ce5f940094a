package di

import (
    "context"
    "fmt"
    "time"

    "TopMover/internal/domain/repository"
    "TopMover/internal/handler/api"
    internalrepo "TopMover/internal/repository"
    "TopMover/internal/scheduler"
    "TopMover/internal/service/cache"
    "TopMover/internal/service/polygon"
    "TopMover/internal/service/ratelimit"
    "TopMover/internal/usecase"
    pkgch "TopMover/pkg/clickhouse"
    "TopMover/pkg/config"
    xhttp "TopMover/pkg/http"
    pkgkafka "TopMover/pkg/kafka"
    "TopMover/pkg/logger"
    "TopMover/pkg/metrics"
    "TopMover/pkg/server"

    "github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
    return logger.New(&logger.Config{
        Level:  cfg.Log.Level,
        Format: cfg.Log.Format,
        Output: cfg.Log.Output,
    })
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
    return metrics.New()
}

// ProvideRedisClient returns a client only when the store or the cache needs one.
func ProvideRedisClient(cfg *config.Config) redis.UniversalClient {
    if cfg.Store.Driver != config.StoreRedis && !cfg.Cache.Redis {
        return nil
    }
    return redis.NewClient(&redis.Options{
        Addr:     cfg.Store.Redis.Addr,
        Password: cfg.Store.Redis.Password,
        DB:       cfg.Store.Redis.DB,
    })
}

// ProvideRecordStore opens the configured store driver.
func ProvideRecordStore(cfg *config.Config, rdb redis.UniversalClient, log *logger.Logger) (repository.RecordStore, error) {
    switch cfg.Store.Driver {
    case config.StoreMemory:
        return internalrepo.NewMemoryStore(), nil
    case config.StoreSQLite:
        store, err := internalrepo.NewSQLiteStore(cfg.Store.SQLite.Path, log)
        if err != nil {
            return nil, err
        }
        return store, nil
    case config.StoreRedis:
        return internalrepo.NewRedisStore(rdb, cfg.Store.Redis.KeyPrefix, log), nil
    case config.StoreClickHouse:
        ch := cfg.Store.ClickHouse
        client, err := pkgch.NewClient(log,
            pkgch.WithAddr(ch.Host, ch.Port),
            pkgch.WithDatabase(ch.Database),
            pkgch.WithCredentials(ch.User, ch.Password),
            pkgch.WithHTTP(ch.UseHTTP),
            pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
            pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
        )
        if err != nil {
            return nil, fmt.Errorf("clickhouse client: %w", err)
        }
        store := internalrepo.NewCHWinnerStore(client, ch.Table, log)

        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if err := store.Init(ctx); err != nil {
            _ = client.Close()
            return nil, fmt.Errorf("clickhouse schema: %w", err)
        }
        return store, nil
    default:
        return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
    }
}

// ProvideSweeper exposes the store's expiry sweep, or nil when the store
// expires records natively.
func ProvideSweeper(store repository.RecordStore) repository.ExpiringStore {
    if s, ok := store.(repository.ExpiringStore); ok {
        return s
    }
    return nil
}

// ProvideEventPublisher creates the Kafka publisher, or a no-op when Kafka is off.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
    if !cfg.Kafka.Enabled || cfg.Kafka.EventsTopic == "" {
        return internalrepo.NoopPublisher{}, nil
    }
    producer, err := pkgkafka.NewProducer(
        pkgkafka.WithBrokers(cfg.Kafka.Brokers),
        pkgkafka.WithCompression(cfg.Kafka.Compression),
        pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
        pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
        pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
        pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
    )
    if err != nil {
        return nil, fmt.Errorf("kafka producer: %w", err)
    }
    return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic), nil
}

// ProvideBarArchive returns the parquet archive, or nil when disabled.
func ProvideBarArchive(cfg *config.Config) repository.BarArchive {
    if !cfg.Archive.Enabled {
        return nil
    }
    return internalrepo.NewParquetArchive(cfg.Archive.Dir)
}

// ProvideMarketDataClient creates the paced provider client.
func ProvideMarketDataClient(cfg *config.Config, log *logger.Logger, m repository.Metrics) repository.MarketDataClient {
    hc := xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))
    pacer := ratelimit.NewPacer("provider", cfg.Provider.RequestsPerMinute)
    return polygon.New(cfg.Provider.BaseURL, cfg.Provider.APIKey, hc, pacer, log, m)
}

// ProvideEngine maps the ingest section onto run settings.
func ProvideEngine(
    cfg *config.Config,
    client repository.MarketDataClient,
    store repository.RecordStore,
    events repository.EventPublisher,
    archive repository.BarArchive,
    m repository.Metrics,
    log *logger.Logger,
) *usecase.Engine {
    return usecase.NewEngine(usecase.Settings{
        Watchlist:       cfg.Ingest.Watchlist,
        PartitionKey:    cfg.Ingest.PartitionKey,
        WindowSize:      cfg.Ingest.WindowSize,
        LookbackDays:    cfg.Ingest.LookbackDays,
        MaxBackfillDays: cfg.Ingest.MaxBackfillDays,
        Retention:       cfg.Ingest.Retention,
    }, client, store, events, archive, m, log)
}

// ProvideBytesCache picks the read cache backend.
func ProvideBytesCache(cfg *config.Config, rdb redis.UniversalClient) cache.BytesCache {
    if cfg.Cache.Redis && rdb != nil {
        return cache.NewRedisCache(rdb, cfg.Store.Redis.KeyPrefix)
    }
    return cache.NewTTLCache()
}

func ProvideMoversQuery(
    cfg *config.Config,
    store repository.RecordStore,
    c cache.BytesCache,
    log *logger.Logger,
    m repository.Metrics,
) *usecase.MoversQuery {
    return usecase.NewMoversQuery(store, c, cfg.Ingest.PartitionKey, cfg.Cache.TTL, log, m)
}

// ProvideDispatcher creates the dispatcher; successful runs drop the read cache.
func ProvideDispatcher(cfg *config.Config, engine *usecase.Engine, movers *usecase.MoversQuery) *usecase.Dispatcher {
    d := usecase.NewDispatcher(engine, cfg.Ingest.RunTimeout)
    d.OnRun(movers.Invalidate)
    return d
}

// ProvideHTTPHandler registers the read API, run trigger and health routes.
func ProvideHTTPHandler(
    cfg *config.Config,
    log *logger.Logger,
    movers *usecase.MoversQuery,
    d *usecase.Dispatcher,
    store repository.RecordStore,
) xhttp.Handler {
    return api.NewMoversEchoHandler(log, movers, d, store, cfg.Ingest.WindowSize)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, log *logger.Logger) *xhttp.Server {
    return xhttp.NewServer(h, log,
        xhttp.WithPort(cfg.Server.Port),
        xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
    )
}

// ProvideScheduler registers the scheduled run and, when needed, the sweep.
func ProvideScheduler(
    cfg *config.Config,
    d *usecase.Dispatcher,
    sweeper repository.ExpiringStore,
    log *logger.Logger,
) (*scheduler.Scheduler, error) {
    s := scheduler.NewScheduler(d, sweeper, log)
    if err := s.RegisterAll(cfg.Ingest.Schedule, cfg.Ingest.SweepSchedule); err != nil {
        return nil, err
    }
    return s, nil
}

// ProvideInvocationHandler handles payloads from the invocations topic.
func ProvideInvocationHandler(cfg *config.Config, d *usecase.Dispatcher, log *logger.Logger) pkgkafka.MessageHandler {
    return usecase.NewInvocationHandler(cfg.Kafka.InvocationsTopic, d, log)
}

// ProvideKafkaConsumer creates the invocation consumer, or nil when not configured.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
    if !cfg.Kafka.Enabled || cfg.Kafka.InvocationsTopic == "" {
        return nil, nil
    }
    consumer, err := pkgkafka.NewConsumer(log,
        pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
        pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
        pkgkafka.WithConsumerWorkers(1),
        pkgkafka.WithConsumerRetry(3, 500*time.Millisecond, 10*time.Second),
        pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
    )
    if err != nil {
        return nil, fmt.Errorf("kafka consumer: %w", err)
    }
    return consumer, nil
}

// ProvideApp assembles the application.
func ProvideApp(
    cfg *config.Config,
    log *logger.Logger,
    d *usecase.Dispatcher,
    store repository.RecordStore,
    events repository.EventPublisher,
    sched *scheduler.Scheduler,
    httpServer *xhttp.Server,
    consumer *pkgkafka.Consumer,
    kh pkgkafka.MessageHandler,
) *server.App {
    return server.New(cfg, log, d, store, events, sched, httpServer, consumer, kh)
}
