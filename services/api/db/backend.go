package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	_ "modernc.org/sqlite"
)

// rows is the subset of pgx.Rows and *sql.Rows the Store iterates over.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

type row interface {
	Scan(dest ...any) error
}

// backend hides the difference between a pgx pool and a database/sql handle.
type backend interface {
	Query(ctx context.Context, query string, args ...any) (rows, error)
	QueryRow(ctx context.Context, query string, args ...any) row
	Ping(ctx context.Context) error
	Close()
	Placeholder(n int) string
	Driver() string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ParseSource decides which driver serves databaseURL and returns the DSN to
// hand to it. postgres:// and postgresql:// URLs go to pgx; sqlite:// URLs,
// file: URIs and bare paths go to SQLite.
func ParseSource(databaseURL string) (driver, dsn string, err error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return "", "", errors.New("empty database url")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u, nil
	case strings.HasPrefix(u, "sqlite://"):
		// sqlite:///rel and sqlite:////abs as in SQLAlchemy URLs; sqlite://path
		// is taken verbatim.
		path := strings.TrimPrefix(u, "sqlite://")
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		if path == "" {
			return "", "", errors.New("sqlite url has no path")
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(u, "file:"):
		return DriverSQLite, u, nil
	case strings.Contains(u, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", u)
	default:
		return DriverSQLite, u, nil
	}
}

type pgBackend struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, dsn string, opts Options) (*pgBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	cfg.ConnConfig.Tracer = newTraceLog(opts.Logger)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &pgBackend{pool: pool}, nil
}

func (b *pgBackend) Query(ctx context.Context, query string, args ...any) (rows, error) {
	return b.pool.Query(ctx, query, args...)
}

func (b *pgBackend) QueryRow(ctx context.Context, query string, args ...any) row {
	return b.pool.QueryRow(ctx, query, args...)
}

func (b *pgBackend) Ping(ctx context.Context) error { return b.pool.Ping(ctx) }

func (b *pgBackend) Close() { b.pool.Close() }

func (b *pgBackend) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (b *pgBackend) Driver() string { return DriverPostgres }

// newTraceLog routes pgx query tracing into slog. Statements are only traced
// when the logger has debug enabled.
func newTraceLog(logger *slog.Logger) *tracelog.TraceLog {
	level := tracelog.LogLevelError
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		level = tracelog.LogLevelDebug
	}
	return &tracelog.TraceLog{
		LogLevel: level,
		Logger: tracelog.LoggerFunc(func(ctx context.Context, lvl tracelog.LogLevel, msg string, data map[string]any) {
			attrs := make([]any, 0, len(data)*2)
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
			logger.Log(ctx, slogLevel(lvl), msg, attrs...)
		}),
	}
}

func slogLevel(lvl tracelog.LogLevel) slog.Level {
	switch lvl {
	case tracelog.LogLevelError:
		return slog.LevelError
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type sqlBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

// sqliteParams keeps the handle read-only and waits on writer locks held by
// whoever owns the file.
var sqliteParams = []string{
	"_pragma=query_only(1)",
	"_pragma=busy_timeout(5000)",
}

func openSQLite(ctx context.Context, dsn string, opts Options) (*sqlBackend, error) {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	// sqlite creates missing files on open; an absent dataset is a config error.
	if path != ":memory:" && path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("sqlite database %s: %w", path, err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite", dsn+sep+strings.Join(sqliteParams, "&"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if opts.MaxConns > 0 {
		conn.SetMaxOpenConns(opts.MaxConns)
		conn.SetMaxIdleConns(opts.MaxConns)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &sqlBackend{db: conn, logger: opts.Logger}, nil
}

func (b *sqlBackend) Query(ctx context.Context, query string, args ...any) (rows, error) {
	b.logQuery(ctx, query, args)
	r, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{Rows: r, logger: b.logger}, nil
}

func (b *sqlBackend) QueryRow(ctx context.Context, query string, args ...any) row {
	b.logQuery(ctx, query, args)
	return b.db.QueryRowContext(ctx, query, args...)
}

func (b *sqlBackend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

func (b *sqlBackend) Close() {
	if err := b.db.Close(); err != nil {
		b.logger.Error("close sqlite", "error", err)
	}
}

func (b *sqlBackend) Placeholder(int) string { return "?" }

func (b *sqlBackend) Driver() string { return DriverSQLite }

func (b *sqlBackend) logQuery(ctx context.Context, query string, args []any) {
	b.logger.DebugContext(ctx, "sql", "op", "query", "sql", query, "args", args)
}

// sqlRows adapts *sql.Rows to the pgx-style Close without a return value.
type sqlRows struct {
	*sql.Rows
	logger *slog.Logger
}

func (r *sqlRows) Close() {
	if err := r.Rows.Close(); err != nil {
		r.logger.Error("close rows", "error", err)
	}
}
