package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annwhocodes/ResQMap/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteDB_AddAndGetReport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created := time.Date(2025, 5, 16, 8, 30, 0, 0, time.UTC)
	report := &models.Report{
		ID:          "r1",
		Type:        models.HazardTypeFlood,
		Severity:    models.SeverityHigh,
		Latitude:    19.072,
		Longitude:   72.877,
		Description: "Road flooded, impassable",
		Reporter:    "volunteer-7",
		CreatedAt:   created,
	}

	require.NoError(t, db.AddReport(ctx, report))

	got, err := db.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.HazardTypeFlood, got.Type)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.Equal(t, 19.072, got.Latitude)
	assert.Equal(t, "Road flooded, impassable", got.Description)
	assert.Equal(t, "volunteer-7", got.Reporter)
	assert.True(t, created.Equal(got.CreatedAt), "created_at round trip: %s", got.CreatedAt)
}

func TestSQLiteDB_GetReport_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDB_DuplicateAdd(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := &models.Report{ID: "dup", Type: models.HazardTypeFire, Severity: models.SeverityLow, CreatedAt: time.Now()}
	require.NoError(t, db.AddReport(ctx, r))
	assert.Error(t, db.AddReport(ctx, r))
}

func TestSQLiteDB_ListReports_WithFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reports := []*models.Report{
		{ID: "old", Type: models.HazardTypeFlood, Severity: models.SeverityLow, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "fl1", Type: models.HazardTypeFlood, Severity: models.SeverityHigh, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "fi1", Type: models.HazardTypeFire, Severity: models.SeverityMedium, CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "fl2", Type: models.HazardTypeFlood, Severity: models.SeverityMedium, CreatedAt: now},
	}
	for _, r := range reports {
		require.NoError(t, db.AddReport(ctx, r))
	}

	all, err := db.ListReports(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "fl2", all[0].ID, "newest first")
	assert.Equal(t, "old", all[3].ID)

	since := now.Add(-7 * 24 * time.Hour)
	recent, err := db.ListReports(ctx, Filter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	flood := models.HazardTypeFlood
	floods, err := db.ListReports(ctx, Filter{Type: &flood})
	require.NoError(t, err)
	assert.Len(t, floods, 3)

	limited, err := db.ListReports(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteDB_ListReports_Empty(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.ListReports(context.Background(), Filter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
