package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver          string        `split_words:"true" default:"postgres"`
	DSN             string        `envconfig:"DSN" required:"true"`
	MaxOpenConns    int           `split_words:"true" default:"10"`
	MaxIdleConns    int           `split_words:"true" default:"5"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"30m"`
	PingTimeout     time.Duration `split_words:"true" default:"5s"`
	LogQueries      bool          `split_words:"true" default:"false"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("database dsn is required")
	}
	return nil
}

// Open connects to the configured database and verifies it with a ping.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows a single writer; serialize at the pool.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if cfg.LogQueries {
		db.AddQueryHook(NewQueryHook(log))
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// QueryHook logs every statement bun executes at debug level.
type QueryHook struct {
	log zerolog.Logger
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(log zerolog.Logger) *QueryHook {
	return &QueryHook{log: log.With().Str("component", "bun").Logger()}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	ev := h.log.Debug()
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		ev = h.log.Warn().Err(event.Err)
	}
	ev.Str("operation", event.Operation()).
		Dur("duration", time.Since(event.StartTime)).
		Str("query", event.Query).
		Msg("sql query")
}
