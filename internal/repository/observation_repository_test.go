package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

func newTestRepository(t *testing.T) *SQLiteObservationRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test-vran.sqlite")
	repo, err := NewSQLiteObservationRepository(context.Background(), dbPath, "vranov", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func observationValues(ts int64) []entities.Value {
	return []entities.Value{
		entities.EpochValue(ts),
		entities.FloatValue(138.45),
		entities.FloatValue(52.87),
		entities.FloatValue(3.12),
		entities.FloatValue(2.98),
		entities.FloatValue(0.4),
		entities.FloatValue(4.7),
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	inserted, err := repo.Save(ctx, observationValues(1675254600))
	require.NoError(t, err)
	assert.True(t, inserted)

	obs, err := repo.GetObservationByTime(ctx, 1675254600)
	require.NoError(t, err)
	assert.NotZero(t, obs.ID)
	assert.Equal(t, observationValues(1675254600), obs.Values())
}

func TestSaveIsIdempotentOnTime(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	inserted, err := repo.Save(ctx, observationValues(1675254600))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same time, different readings: the first row wins
	again := observationValues(1675254600)
	again[1] = entities.FloatValue(1.0)
	inserted, err = repo.Save(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	obs, err := repo.GetObservationByTime(ctx, 1675254600)
	require.NoError(t, err)
	assert.Equal(t, 138.45, obs.Surface)
}

func TestSaveNewTimeAddsRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := int64(1675254600)
	for i := int64(0); i < 3; i++ {
		_, err := repo.Save(ctx, observationValues(base+i*3600))
		require.NoError(t, err)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	inserted, err := repo.Save(ctx, observationValues(base+3*3600))
	require.NoError(t, err)
	assert.True(t, inserted)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSaveRejectsMalformedTuple(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Save(ctx, observationValues(1675254600)[:5])
	assert.ErrorIs(t, err, entities.ErrDataShape)

	swapped := observationValues(1675254600)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	_, err = repo.Save(ctx, swapped)
	assert.ErrorIs(t, err, entities.ErrDataShape)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetObservationByTimeNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetObservationByTime(context.Background(), 42)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestGetObservationsAndLastUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	last, err := repo.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	times := []int64{1675254600, 1675258200, 1675261800}
	// insert out of order to check the ORDER BY
	for _, ts := range []int64{times[2], times[0], times[1]} {
		_, err := repo.Save(ctx, observationValues(ts))
		require.NoError(t, err)
	}

	observations, err := repo.GetObservations(ctx, time.Unix(times[1], 0))
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, times[1], observations[0].Time)
	assert.Equal(t, times[2], observations[1].Time)

	last, err = repo.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, times[2], last.Unix())
}

func TestReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "vran.sqlite")

	repo, err := NewSQLiteObservationRepository(ctx, dbPath, "vranov", nil)
	require.NoError(t, err)
	_, err = repo.Save(ctx, observationValues(1675254600))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteObservationRepository(ctx, dbPath, "vranov", nil)
	require.NoError(t, err)
	defer repo.Close()

	inserted, err := repo.Save(ctx, observationValues(1675254600))
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExistingTableWithoutIndex(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.sqlite")

	// A table created by an older version has no unique index on time
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE vranov (id INTEGER PRIMARY KEY, time INTEGER, surface FLOAT, volume FLOAT, inflow FLOAT, drain FLOAT, rainfall FLOAT, temperature FLOAT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO vranov (time, surface, volume, inflow, drain, rainfall, temperature) VALUES (1675254600, 1, 2, 3, 4, 5, 6)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewSQLiteObservationRepository(ctx, dbPath, "vranov", nil)
	require.NoError(t, err)
	defer repo.Close()

	inserted, err := repo.Save(ctx, observationValues(1675254600))
	require.NoError(t, err)
	assert.False(t, inserted)

	obs, err := repo.GetObservationByTime(ctx, 1675254600)
	require.NoError(t, err)
	assert.Equal(t, 1.0, obs.Surface)
}

func TestInvalidTableName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vran.sqlite")

	_, err := NewSQLiteObservationRepository(context.Background(), dbPath, "vranov; DROP TABLE x", nil)
	assert.ErrorIs(t, err, entities.ErrStorage)
}
