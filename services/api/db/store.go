package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Options tunes how New opens the data source.
type Options struct {
	MaxConns int
	Logger   *slog.Logger
	// Schema defaults to DefaultSchema when its ObservationTable is empty.
	Schema Schema
}

// Store wraps the read queries served by the API.
type Store struct {
	backend backend
	schema  Schema
	sql     queries
}

type queries struct {
	precipitation     string
	stationIDs        string
	temperatures      string
	statsFrom         string
	statsBetween      string
	verifyObservation string
	verifyStation     string
}

// New opens the data source named by databaseURL and checks that the declared
// schema is readable.
func New(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Schema.ObservationTable == "" {
		opts.Schema = DefaultSchema
	}

	driver, dsn, err := ParseSource(databaseURL)
	if err != nil {
		return nil, err
	}

	var b backend
	switch driver {
	case DriverPostgres:
		b, err = openPostgres(ctx, dsn, opts)
	default:
		b, err = openSQLite(ctx, dsn, opts)
	}
	if err != nil {
		return nil, err
	}

	store := newStore(b, opts.Schema)
	if err := store.verify(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newStore(b backend, schema Schema) *Store {
	return &Store{backend: b, schema: schema, sql: buildQueries(schema, b.Placeholder)}
}

func buildQueries(s Schema, ph func(int) string) queries {
	date := s.dateText()
	temp := s.temperatureReal()
	stats := fmt.Sprintf("SELECT MIN(%s), AVG(%s), MAX(%s) FROM %s", temp, temp, temp, s.ObservationTable)

	return queries{
		precipitation: fmt.Sprintf(
			"SELECT %s, %s FROM %s WHERE %s BETWEEN %s AND %s",
			date, s.PrecipitationColumn, s.ObservationTable, date, ph(1), ph(2),
		),
		stationIDs: fmt.Sprintf("SELECT %s FROM %s", s.StationIDColumn, s.StationTable),
		temperatures: fmt.Sprintf(
			"SELECT %s, %s FROM %s WHERE %s >= %s AND %s <= %s",
			date, temp, s.ObservationTable, date, ph(1), date, ph(2),
		),
		statsFrom:    fmt.Sprintf("%s WHERE %s >= %s", stats, date, ph(1)),
		statsBetween: fmt.Sprintf("%s WHERE %s >= %s AND %s <= %s", stats, date, ph(1), date, ph(2)),
		verifyObservation: fmt.Sprintf(
			"SELECT %s FROM %s LIMIT 0",
			strings.Join([]string{s.StationColumn, s.DateColumn, s.PrecipitationColumn, s.TemperatureColumn}, ", "),
			s.ObservationTable,
		),
		verifyStation: fmt.Sprintf("SELECT %s FROM %s LIMIT 0", s.StationIDColumn, s.StationTable),
	}
}

// verify binds the declared schema to the live database: a missing table or
// column fails here instead of on the first request.
func (s *Store) verify(ctx context.Context) error {
	for _, q := range []string{s.sql.verifyObservation, s.sql.verifyStation} {
		rows, err := s.backend.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("schema check %q: %w", q, err)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("schema check %q: %w", q, err)
		}
	}
	return nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.backend != nil {
		s.backend.Close()
	}
}

// Ping reports whether the data source is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Driver names the backend in use, either DriverPostgres or DriverSQLite.
func (s *Store) Driver() string {
	return s.backend.Driver()
}

// Precipitation maps each observation date within [start, end] to its
// precipitation. When several rows share a date the one read last wins.
func (s *Store) Precipitation(ctx context.Context, start, end string) (map[string]*float64, error) {
	rows, err := s.backend.Query(ctx, s.sql.precipitation, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*float64)
	for rows.Next() {
		var date string
		var prcp *float64
		if err := rows.Scan(&date, &prcp); err != nil {
			return nil, err
		}
		out[date] = prcp
	}
	return out, rows.Err()
}

// StationIDs returns every station identifier in query order. A NULL id is
// kept as nil.
func (s *Store) StationIDs(ctx context.Context) ([]*string, error) {
	rows, err := s.backend.Query(ctx, s.sql.stationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]*string, 0)
	for rows.Next() {
		var id *string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Temperatures returns the temperature of each observation dated within
// [start, end]. The dates only filter; they are not returned. Unmeasured
// temperatures are nil.
func (s *Store) Temperatures(ctx context.Context, start, end string) ([]*float64, error) {
	rows, err := s.backend.Query(ctx, s.sql.temperatures, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	temps := make([]*float64, 0)
	for rows.Next() {
		var date string
		var tobs *float64
		if err := rows.Scan(&date, &tobs); err != nil {
			return nil, err
		}
		temps = append(temps, tobs)
	}
	return temps, rows.Err()
}

// TemperatureStats aggregates temperature over observations dated on or after
// start, and on or before end when end is non-nil. An empty match, including
// end < start, yields nil aggregates rather than an error.
func (s *Store) TemperatureStats(ctx context.Context, start string, end *string) (TemperatureStats, error) {
	var r row
	if end == nil {
		r = s.backend.QueryRow(ctx, s.sql.statsFrom, start)
	} else {
		r = s.backend.QueryRow(ctx, s.sql.statsBetween, start, *end)
	}

	var stats TemperatureStats
	if err := r.Scan(&stats.Min, &stats.Avg, &stats.Max); err != nil {
		return TemperatureStats{}, err
	}
	return stats, nil
}
