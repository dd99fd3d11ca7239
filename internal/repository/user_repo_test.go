package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/models"
)

func TestUserRepositoryScoreFloorsAtZero(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, 1, "ada")
	updated, err := repo.AdjustScore(ctx, user.ID, 5, true)
	require.NoError(t, err)
	require.Equal(t, 5, updated.Score)
	require.Equal(t, 5, updated.MonthlyScore)

	updated, err = repo.AdjustScore(ctx, user.ID, -20, true)
	require.NoError(t, err)
	require.Zero(t, updated.Score)
	require.Zero(t, updated.MonthlyScore)

	updated, err = repo.AdjustStat(ctx, user.ID, StatComments, -1)
	require.NoError(t, err)
	require.Zero(t, updated.Stats.Comments)

	_, err = repo.AdjustStat(ctx, user.ID, StatField("karma"), 1)
	require.Error(t, err)
}

func TestUserRepositorySetLevelCompareAndSet(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, 1, "ada")
	moved, err := repo.SetLevel(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	require.True(t, moved)

	moved, err = repo.SetLevel(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	require.False(t, moved)
}

func TestUserRepositoryBadgesAppendOnly(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, 1, "ada")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	awarded, err := repo.AwardBadge(ctx, user.ID, "first_note", at)
	require.NoError(t, err)
	require.True(t, awarded)

	awarded, err = repo.AwardBadge(ctx, user.ID, "first_note", at.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, awarded)

	badges, err := repo.ListBadges(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	require.True(t, badges[0].AwardedAt.Equal(at))
}

func TestUserRepositoryMonthlyResetIdempotent(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, 1, "a")
	b := seedUser(t, db, 1, "b")
	_, err := repo.AdjustScore(ctx, a.ID, 10, true)
	require.NoError(t, err)
	_, err = repo.AdjustScore(ctx, b.ID, 4, true)
	require.NoError(t, err)

	affected, applied, err := repo.ResetMonthlyScores(ctx, "2024-06", time.Now())
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, int64(2), affected)

	_, err = repo.AdjustScore(ctx, a.ID, 3, true)
	require.NoError(t, err)

	affected, applied, err = repo.ResetMonthlyScores(ctx, "2024-06", time.Now())
	require.NoError(t, err)
	require.False(t, applied)
	require.Zero(t, affected)

	stored, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 13, stored.Score)
	require.Equal(t, 3, stored.MonthlyScore)
}

func TestUserRepositoryLeaderboardScopedAndOrdered(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	low := seedUser(t, db, 1, "low")
	high := seedUser(t, db, 1, "high")
	foreign := seedUser(t, db, 2, "foreign")
	for user, score := range map[uint]int{low.ID: 5, high.ID: 50, foreign.ID: 500} {
		_, err := repo.AdjustScore(ctx, user, score, false)
		require.NoError(t, err)
	}
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", low.ID).UpdateColumn("monthly_score", 7).Error)

	users, err := repo.Leaderboard(ctx, LeaderboardFilter{UniversityID: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []uint{high.ID, low.ID}, []uint{users[0].ID, users[1].ID})

	users, err = repo.Leaderboard(ctx, LeaderboardFilter{UniversityID: 1, Monthly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, low.ID, users[0].ID)
}

func TestUserRepositoryNotificationPreference(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, 1, "ada")
	enabled, err := repo.NotificationsEnabled(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, enabled)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("notifications_enabled", false).Error)
	enabled, err = repo.NotificationsEnabled(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, enabled)
}
