package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/models"
)

func TestActivityLogRepositoryFilters(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	adminID := uint(9)
	entries := []models.ActivityLog{
		{UniversityID: 1, ActorID: &adminID, ActorRole: "admin", Action: models.ActivityNoteHardDeleted, EntityType: "note", EntityID: 4},
		{UniversityID: 1, Action: models.ActivityNoteAutoDeactivated, EntityType: "note", EntityID: 5},
		{UniversityID: 2, ActorID: &adminID, ActorRole: "admin", Action: models.ActivityNoteReactivated, EntityType: "note", EntityID: 4},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	listed, total, err := repo.List(ctx, ActivityLogFilter{UniversityID: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, listed, 2)

	listed, total, err = repo.List(ctx, ActivityLogFilter{UniversityID: 1, ActorID: &adminID, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, models.ActivityNoteHardDeleted, listed[0].Action)

	listed, total, err = repo.List(ctx, ActivityLogFilter{EntityType: "note", EntityID: 4, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, listed, 2)
}

func TestActivityLogRepositoryTimeRange(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		entry := models.ActivityLog{
			UniversityID: 1,
			ActorRole:    "system",
			Action:       models.ActivityNoteAutoDeactivated,
			EntityType:   "note",
			EntityID:     uint(i + 1),
			CreatedAt:    base.AddDate(0, 0, i),
		}
		require.NoError(t, repo.Create(ctx, &entry))
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 3)
	listed, total, err := repo.List(ctx, ActivityLogFilter{UniversityID: 1, From: &from, To: &to, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, uint(3), listed[0].EntityID)
	require.Equal(t, uint(2), listed[1].EntityID)

	listed, total, err = repo.List(ctx, ActivityLogFilter{UniversityID: 1, Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, listed, 1)
	require.Equal(t, uint(1), listed[0].EntityID)

	listed, total, err = repo.List(ctx, ActivityLogFilter{UniversityID: 2})
	require.NoError(t, err)
	require.Zero(t, total)
	require.NotNil(t, listed)
}
