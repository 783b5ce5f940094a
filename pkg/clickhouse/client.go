package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"TopMover/pkg/logger"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client wraps a ClickHouse connection pool.
type Client struct {
	db  *sql.DB
	cfg ClientConfig
	l   *logger.Logger
}

// NewClient opens a pool and pings the server.
func NewClient(l *logger.Logger, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("clickhouse: host is required")
	}

	db, err := sql.Open("clickhouse", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if l != nil {
		l.Info("clickhouse connected",
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Bool("http", cfg.UseHTTP),
		)
	}
	return &Client{db: db, cfg: cfg, l: l}, nil
}

// DB returns the underlying pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Database is the configured database name.
func (c *Client) Database() string {
	return c.cfg.Database
}

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema (statement %d): %w", i, err)
		}
	}
	if c.l != nil {
		c.l.Debug("clickhouse schema ready", logger.Int("statements", len(stmts)))
	}
	return nil
}

// BuildDSN renders cfg as a clickhouse-go DSN.
func BuildDSN(cfg ClientConfig) string {
	u := url.URL{
		Scheme: "clickhouse",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.UseHTTP {
		q.Set("protocol", "http")
	}
	if cfg.DialTimeout > 0 {
		q.Set("dial_timeout", cfg.DialTimeout.String())
	}
	if cfg.ReadTimeout > 0 {
		q.Set("read_timeout", cfg.ReadTimeout.String())
	}
	// write_timeout stays client side; some server versions reject it as a setting
	if cfg.MaxExecTime > 0 {
		q.Set("max_execution_time", strconv.Itoa(int(cfg.MaxExecTime.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
