// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

const (
	// DefaultDBPath is used when no database path is configured
	DefaultDBPath = "data/vran.sqlite"
	// DefaultTableName is used when no table name is configured
	DefaultTableName = "vranov"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ObservationRepository defines the interface for observation persistence operations
type ObservationRepository interface {
	Save(ctx context.Context, values []entities.Value) (bool, error)
	SaveObservation(ctx context.Context, obs entities.Observation) (bool, error)
	GetObservationByTime(ctx context.Context, t int64) (entities.Observation, error)
	GetObservations(ctx context.Context, since time.Time) ([]entities.Observation, error)
	GetLastUpdateTime(ctx context.Context) (time.Time, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// SQLiteObservationRepository implements ObservationRepository using SQLite
type SQLiteObservationRepository struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
	DBPath string
}

// NewSQLiteObservationRepository opens the database file and creates the
// observation table if it doesn't exist
func NewSQLiteObservationRepository(ctx context.Context, dbPath, table string, logger *zap.Logger) (*SQLiteObservationRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if table == "" {
		table = DefaultTableName
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", entities.ErrStorage, table)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %w", entities.ErrStorage, err)
		}
	}

	logger.Info("opening database", zap.String("path", dbPath), zap.String("table", table))
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", entities.ErrStorage, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to open database: %w", entities.ErrStorage, err)
	}

	r := &SQLiteObservationRepository{
		db:     db,
		table:  table,
		logger: logger,
		DBPath: dbPath,
	}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteObservationRepository) migrate(ctx context.Context) error {
	// The unique index turns the save into an atomic insert-if-absent,
	// also on tables created before the index existed.
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY,
		time INTEGER,
		surface FLOAT,
		volume FLOAT,
		inflow FLOAT,
		drain FLOAT,
		rainfall FLOAT,
		temperature FLOAT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_time ON %[1]s(time);`, r.table)

	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("%w: failed to create table %s: %w", entities.ErrStorage, r.table, err)
	}
	r.logger.Debug("schema ready", zap.String("table", r.table))
	return nil
}

// Close closes the database connection
func (r *SQLiteObservationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save stores one extracted value sequence unless a row with the same time
// exists. It reports whether a new row was written.
func (r *SQLiteObservationRepository) Save(ctx context.Context, values []entities.Value) (bool, error) {
	obs, err := entities.NewObservation(values)
	if err != nil {
		return false, err
	}
	return r.SaveObservation(ctx, obs)
}

// SaveObservation stores an observation unless a row with the same time exists
func (r *SQLiteObservationRepository) SaveObservation(ctx context.Context, obs entities.Observation) (bool, error) {
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (time, surface, volume, inflow, drain, rainfall, temperature)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(time) DO NOTHING`, r.table)

	res, err := r.db.ExecContext(ctx, insertSQL,
		obs.Time,
		obs.Surface,
		obs.Volume,
		obs.Inflow,
		obs.Drain,
		obs.Rainfall,
		obs.Temperature,
	)
	if err != nil {
		return false, fmt.Errorf("%w: failed to insert observation at %d: %w", entities.ErrStorage, obs.Time, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to read insert result: %w", entities.ErrStorage, err)
	}

	if n == 0 {
		r.logger.Info("observation already stored", zap.Int64("time", obs.Time))
		return false, nil
	}
	r.logger.Info("saved observation",
		zap.Int64("time", obs.Time),
		zap.Float64("surface", obs.Surface),
		zap.Float64("volume", obs.Volume))
	return true, nil
}

// GetObservationByTime retrieves the observation recorded at t
func (r *SQLiteObservationRepository) GetObservationByTime(ctx context.Context, t int64) (entities.Observation, error) {
	query := fmt.Sprintf(`
		SELECT id, time, surface, volume, inflow, drain, rainfall, temperature
		FROM %s
		WHERE time = ?`, r.table)

	obs, err := scanObservation(r.db.QueryRowContext(ctx, query, t))
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Observation{}, fmt.Errorf("%w: time %d", entities.ErrNotFound, t)
	}
	if err != nil {
		return entities.Observation{}, fmt.Errorf("%w: failed to query observation at %d: %w", entities.ErrStorage, t, err)
	}
	return obs, nil
}

// GetObservations retrieves all observations recorded at or after since, oldest first
func (r *SQLiteObservationRepository) GetObservations(ctx context.Context, since time.Time) ([]entities.Observation, error) {
	query := fmt.Sprintf(`
		SELECT id, time, surface, volume, inflow, drain, rainfall, temperature
		FROM %s
		WHERE time >= ?
		ORDER BY time`, r.table)

	rows, err := r.db.QueryContext(ctx, query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query observations: %w", entities.ErrStorage, err)
	}
	defer rows.Close()

	var result []entities.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %w", entities.ErrStorage, err)
		}
		result = append(result, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error during row iteration: %w", entities.ErrStorage, err)
	}

	return result, nil
}

// GetLastUpdateTime returns the time of the newest observation, or the zero time for an empty table
func (r *SQLiteObservationRepository) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	var latest sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(time) FROM %s", r.table)
	if err := r.db.QueryRowContext(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to get last update time: %w", entities.ErrStorage, err)
	}

	if !latest.Valid {
		return time.Time{}, nil
	}
	return time.Unix(latest.Int64, 0), nil
}

// Count returns the number of stored observations
func (r *SQLiteObservationRepository) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count observations: %w", entities.ErrStorage, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (entities.Observation, error) {
	var obs entities.Observation
	err := row.Scan(
		&obs.ID,
		&obs.Time,
		&obs.Surface,
		&obs.Volume,
		&obs.Inflow,
		&obs.Drain,
		&obs.Rainfall,
		&obs.Temperature,
	)
	return obs, err
}
