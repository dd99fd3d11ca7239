package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
)

func likeBy(id uint) models.NotificationActor {
	return models.NotificationActor{UserID: id, Name: fmt.Sprintf("user-%d", id)}
}

func TestNotificationLikesAggregateWhileUnread(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")

	for _, actor := range []uint{11, 12, 13, 14} {
		require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(actor), 5, owner.ID))
	}

	list, err := env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, int64(1), list.UnreadCount)

	item := list.Items[0]
	require.Equal(t, 4, item.Count)
	require.Equal(t, "Your note was liked by 4 people", item.Message)
	require.Len(t, item.LastActors, models.NotificationMaxActors)
	require.Equal(t, uint(14), item.LastActors[0].UserID)
	require.Equal(t, uint(12), item.LastActors[2].UserID)

	require.Len(t, env.transport.forUser(owner.ID), 4)

	_, err = env.notifications.MarkRead(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(15), 5, owner.ID))

	list, err = env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	require.Equal(t, int64(1), list.UnreadCount)
	require.Equal(t, "user-15 liked your note", list.Items[0].Message)
}

func TestNotificationMarkUnreadConflictsWithOpenAggregate(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")

	require.NoError(t, env.notifications.NotifyComment(ctx, likeBy(2), "first", 5, owner.ID))
	list, err := env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	first := list.Items[0]

	_, err = env.notifications.MarkRead(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	require.NoError(t, env.notifications.NotifyComment(ctx, likeBy(3), "second", 5, owner.ID))

	_, err = env.notifications.MarkUnread(ctx, owner.ID, first.ID)
	require.ErrorIs(t, err, ErrConflict)

	unchanged, err := env.notifications.MarkRead(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	require.True(t, unchanged.IsRead)
}

func TestNotificationScopedToOwner(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")
	other := env.student(t, 1, "other")

	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(9), 5, owner.ID))
	list, err := env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	id := list.Items[0].ID

	_, err = env.notifications.MarkRead(ctx, other.ID, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, env.notifications.Delete(ctx, other.ID, id), ErrNotFound)

	require.NoError(t, env.notifications.Delete(ctx, owner.ID, id))
	require.ErrorIs(t, env.notifications.Delete(ctx, owner.ID, id), ErrNotFound)
}

func TestNotificationSkipsSelfAndDisabledRecipients(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")
	quiet := env.student(t, 1, "quiet")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", quiet.ID).Update("notifications_enabled", false).Error)

	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(owner.ID), 5, owner.ID))
	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(owner.ID), 6, quiet.ID))
	require.NoError(t, env.notifications.NotifyBadge(ctx, quiet.ID, Badges[0]))

	for _, userID := range []uint{owner.ID, quiet.ID} {
		list, err := env.notifications.List(ctx, userID, 1, 10)
		require.NoError(t, err)
		require.Empty(t, list.Items)
		require.Empty(t, env.transport.forUser(userID))
	}
}

func TestNotificationBadgeAndLevelMessages(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")

	require.NoError(t, env.notifications.NotifyBadge(ctx, owner.ID, Badges[0]))
	require.NoError(t, env.notifications.NotifyLevelUp(ctx, owner.ID, Levels[1]))

	events := env.transport.forUser(owner.ID)
	require.Len(t, events, 2)
	require.Equal(t, EventNotification, events[0].Event)

	badge := events[0].Payload.(dto.NotificationResponse)
	require.Equal(t, "You earned the First Note badge 📝", badge.Message)
	require.Equal(t, "first_note", badge.BadgeID)

	level := events[1].Payload.(dto.NotificationResponse)
	require.Equal(t, "You reached level 2: Learner", level.Message)
}

func TestNotificationBulkOperations(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")

	for note := uint(1); note <= 3; note++ {
		require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(50), note, owner.ID))
	}

	read, err := env.notifications.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), read)

	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(51), 1, owner.ID))

	removed, err := env.notifications.DeleteRead(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	removed, err = env.notifications.DeleteAll(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestNotificationPurgeExpired(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")

	for note := uint(1); note <= 3; note++ {
		require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(50), note, owner.ID))
	}
	list, err := env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)

	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	staleRead, staleUnread := list.Items[0].ID, list.Items[1].ID
	require.NoError(t, env.db.Model(&models.Notification{}).Where("id = ?", staleRead).
		Updates(map[string]interface{}{"is_read": true, "last_updated": old}).Error)
	require.NoError(t, env.db.Model(&models.Notification{}).Where("id = ?", staleUnread).
		Updates(map[string]interface{}{"created_at": old}).Error)

	removed, err := env.notifications.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	list, err = env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, uint(1), *list.Items[0].RelatedNoteID)
}

func TestNotificationDeliveryFailureKeepsOperationsSucceeding(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := t.Context()
	owner := env.student(t, 1, "owner")
	reader := env.student(t, 1, "reader")
	note := env.createNote(t, owner, "CS101")
	env.transport.failWith(errors.New("socket closed"))

	require.NoError(t, env.notifications.NotifyLike(ctx, likeBy(41), note.ID, owner.ID))
	require.NoError(t, env.notifications.NotifyComment(ctx, likeBy(42), "see slide 4", note.ID, owner.ID))

	result, err := env.reactionSvc.React(ctx, reader, models.NoteTarget(note.ID), models.ReactionLike, dto.ReactionRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Likes)

	_, err = env.commentSvc.Create(ctx, reader, note.ID, dto.CommentCreateRequest{Text: "thanks"})
	require.NoError(t, err)

	list, err := env.notifications.List(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, item := range list.Items {
		counts[item.Type] = item.Count
	}
	require.Equal(t, 2, counts[models.NotificationLike])
	require.Equal(t, 2, counts[models.NotificationComment])
	// every aggregate was still attempted on the transport
	require.GreaterOrEqual(t, len(env.transport.forUser(owner.ID)), 4)

	require.Equal(t, PointsNoteUpload+PointsLikeReceive, env.user(t, owner.ID).Score)
	require.Equal(t, PointsComment, env.user(t, reader.ID).Score)
}
