package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/observability"
	"github.com/noah-isme/unishare-api/internal/repository"
)

const (
	LeaderboardPeriodAll     = "all"
	LeaderboardPeriodMonthly = "monthly"

	defaultLeaderboardLimit = 10
)

// AchievementNotifier receives badge awards and level increases.
type AchievementNotifier interface {
	NotifyBadge(ctx context.Context, userID uint, badge BadgeDefinition) error
	NotifyLevelUp(ctx context.Context, userID uint, level Level) error
}

// GamificationService maintains scores, levels, stats and badges.
type GamificationService interface {
	AddPoints(ctx context.Context, userID uint, points int) error
	RemovePoints(ctx context.Context, userID uint, points int) error
	UpdateStat(ctx context.Context, userID uint, field repository.StatField, delta int) (models.User, error)
	CheckAndAwardBadges(ctx context.Context, userID uint) ([]BadgeDefinition, error)

	OnNoteUpload(ctx context.Context, userID uint)
	OnNoteRemoved(ctx context.Context, userID uint)
	OnCommentPost(ctx context.Context, userID uint)
	OnCommentRemoved(ctx context.Context, userID uint)
	OnLikeReceived(ctx context.Context, userID uint)
	OnLikeRemoved(ctx context.Context, userID uint)

	ResetMonthlyScores(ctx context.Context) (int64, error)

	UserScore(ctx context.Context, universityID, userID uint) (dto.UserScoreResponse, error)
	UserBadges(ctx context.Context, universityID, userID uint) ([]dto.BadgeStatusResponse, error)
	Leaderboard(ctx context.Context, universityID uint, query dto.LeaderboardQuery) (dto.LeaderboardResponse, error)
}

type gamificationService struct {
	users    repository.UserRepository
	notifier AchievementNotifier
	cache    *redis.Client
	cacheTTL time.Duration
	location *time.Location
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewGamificationService constructs the gamification engine. notifier and cache are optional.
// location is the timezone that decides which calendar month a monthly reset belongs to;
// nil means UTC.
func NewGamificationService(users repository.UserRepository, notifier AchievementNotifier, cache *redis.Client, cacheTTL time.Duration, location *time.Location, logger zerolog.Logger) GamificationService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if location == nil {
		location = time.UTC
	}
	return &gamificationService{
		users:    users,
		notifier: notifier,
		cache:    cache,
		cacheTTL: cacheTTL,
		location: location,
		logger:   logger.With().Str("component", "gamification_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/unishare-api/internal/service/gamification"),
		now:      time.Now,
	}
}

// AddPoints credits both the all-time and the monthly score and re-derives the level.
func (s *gamificationService) AddPoints(ctx context.Context, userID uint, points int) error {
	if points <= 0 {
		return invalidInput("points must be positive, got %d", points)
	}

	user, err := s.users.AdjustScore(ctx, userID, points, true)
	if err != nil {
		return translateStoreError(err, "add points")
	}

	return s.syncLevel(ctx, user)
}

// RemovePoints debits the all-time score only. The monthly score keeps what was earned this period.
func (s *gamificationService) RemovePoints(ctx context.Context, userID uint, points int) error {
	if points <= 0 {
		return invalidInput("points must be positive, got %d", points)
	}

	user, err := s.users.AdjustScore(ctx, userID, -points, false)
	if err != nil {
		return translateStoreError(err, "remove points")
	}

	return s.syncLevel(ctx, user)
}

func (s *gamificationService) syncLevel(ctx context.Context, user models.User) error {
	level := LevelForScore(user.Score)
	if level.Number == user.Level {
		return nil
	}

	changed, err := s.users.SetLevel(ctx, user.ID, user.Level, level.Number)
	if err != nil {
		return translateStoreError(err, "set level")
	}
	if !changed || level.Number < user.Level || s.notifier == nil {
		return nil
	}

	if err := s.notifier.NotifyLevelUp(ctx, user.ID, level); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Int("level", level.Number).Msg("failed to notify level up")
	}
	return nil
}

func (s *gamificationService) UpdateStat(ctx context.Context, userID uint, field repository.StatField, delta int) (models.User, error) {
	user, err := s.users.AdjustStat(ctx, userID, field, delta)
	if err != nil {
		return models.User{}, translateStoreError(err, "update stat")
	}
	return user, nil
}

// CheckAndAwardBadges grants every catalogue badge the user's stats now satisfy and returns
// the ones awarded by this call. Badges are never revoked.
func (s *gamificationService) CheckAndAwardBadges(ctx context.Context, userID uint) ([]BadgeDefinition, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "load user")
	}

	var awarded []BadgeDefinition
	for _, badge := range Badges {
		if !badge.Earned(user.Stats) {
			continue
		}

		created, err := s.users.AwardBadge(ctx, userID, badge.ID, s.now().UTC())
		if err != nil {
			return awarded, translateStoreError(err, "award badge")
		}
		if !created {
			continue
		}

		awarded = append(awarded, badge)
		observability.BadgesAwardedTotal().WithLabelValues(badge.ID).Inc()
		s.logger.Info().Uint("user_id", userID).Str("badge", badge.ID).Msg("badge awarded")

		if s.notifier != nil {
			if err := s.notifier.NotifyBadge(ctx, userID, badge); err != nil {
				s.logger.Warn().Err(err).Uint("user_id", userID).Str("badge", badge.ID).Msg("failed to notify badge")
			}
		}
	}

	return awarded, nil
}

func (s *gamificationService) OnNoteUpload(ctx context.Context, userID uint) {
	s.runHook(ctx, "note_upload", userID, PointsNoteUpload, repository.StatNotes, 1)
}

func (s *gamificationService) OnNoteRemoved(ctx context.Context, userID uint) {
	s.runHook(ctx, "note_removed", userID, -PointsNoteUpload, repository.StatNotes, -1)
}

func (s *gamificationService) OnCommentPost(ctx context.Context, userID uint) {
	s.runHook(ctx, "comment_post", userID, PointsComment, repository.StatComments, 1)
}

func (s *gamificationService) OnCommentRemoved(ctx context.Context, userID uint) {
	s.runHook(ctx, "comment_removed", userID, -PointsComment, repository.StatComments, -1)
}

func (s *gamificationService) OnLikeReceived(ctx context.Context, userID uint) {
	s.runHook(ctx, "like_received", userID, PointsLikeReceive, repository.StatLikesReceived, 1)
}

func (s *gamificationService) OnLikeRemoved(ctx context.Context, userID uint) {
	s.runHook(ctx, "like_removed", userID, -PointsLikeReceive, repository.StatLikesReceived, -1)
}

// runHook applies points, the stat counter and, for gains, the badge check. Steps are
// independent: a failed step is logged and the remaining steps still run.
func (s *gamificationService) runHook(ctx context.Context, hook string, userID uint, points int, field repository.StatField, delta int) {
	ctx, span := s.tracer.Start(ctx, "gamification."+hook, trace.WithAttributes(
		attribute.Int64("gamification.user_id", int64(userID)),
		attribute.Int("gamification.points", points),
	))
	defer span.End()

	logger := s.logger.With().Str("hook", hook).Uint("user_id", userID).Logger()

	var err error
	if points >= 0 {
		err = s.AddPoints(ctx, userID, points)
	} else {
		err = s.RemovePoints(ctx, userID, -points)
	}
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("failed to apply points")
	}

	if _, err := s.UpdateStat(ctx, userID, field, delta); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("stat", string(field)).Msg("failed to update stat")
	}

	if delta > 0 {
		if _, err := s.CheckAndAwardBadges(ctx, userID); err != nil {
			span.RecordError(err)
			logger.Error().Err(err).Msg("failed to check badges")
		}
	}
}

// ResetMonthlyScores zeroes all monthly scores once per calendar month of the configured
// location.
func (s *gamificationService) ResetMonthlyScores(ctx context.Context) (int64, error) {
	now := s.now()
	period := now.In(s.location).Format("2006-01")

	affected, applied, err := s.users.ResetMonthlyScores(ctx, period, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("reset monthly scores: %w", err)
	}

	if !applied {
		s.logger.Info().Str("period", period).Msg("monthly scores already reset for period")
		return 0, nil
	}

	s.logger.Info().Str("period", period).Int64("users", affected).Msg("monthly scores reset")
	return affected, nil
}

func (s *gamificationService) UserScore(ctx context.Context, universityID, userID uint) (dto.UserScoreResponse, error) {
	user, err := s.scopedUser(ctx, universityID, userID)
	if err != nil {
		return dto.UserScoreResponse{}, err
	}

	level := LevelForScore(user.Score)
	response := dto.UserScoreResponse{
		UserID:        user.ID,
		Name:          user.Name,
		Score:         user.Score,
		MonthlyScore:  user.MonthlyScore,
		Level:         levelResponse(level),
		Notes:         user.Stats.Notes,
		Comments:      user.Stats.Comments,
		LikesReceived: user.Stats.LikesReceived,
	}
	if next, ok := NextLevel(level.Number); ok {
		nextResponse := levelResponse(next)
		response.NextLevel = &nextResponse
		response.PointsToNext = next.MinScore - user.Score
	}

	return response, nil
}

func (s *gamificationService) UserBadges(ctx context.Context, universityID, userID uint) ([]dto.BadgeStatusResponse, error) {
	user, err := s.scopedUser(ctx, universityID, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.users.ListBadges(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "list badges")
	}
	awardedAt := make(map[string]time.Time, len(owned))
	for _, badge := range owned {
		awardedAt[badge.BadgeID] = badge.AwardedAt
	}

	out := make([]dto.BadgeStatusResponse, 0, len(Badges))
	for _, badge := range Badges {
		status := dto.BadgeStatusResponse{
			ID:          badge.ID,
			Name:        badge.Name,
			Description: badge.Description,
			Icon:        badge.Icon,
			Progress:    badge.Progress(user.Stats),
		}
		if at, ok := awardedAt[badge.ID]; ok {
			at := at
			status.Earned = true
			status.AwardedAt = &at
			status.Progress = 100
		}
		out = append(out, status)
	}

	return out, nil
}

func (s *gamificationService) Leaderboard(ctx context.Context, universityID uint, query dto.LeaderboardQuery) (dto.LeaderboardResponse, error) {
	period := query.Period
	if period == "" {
		period = LeaderboardPeriodAll
	}
	if period != LeaderboardPeriodAll && period != LeaderboardPeriodMonthly {
		return dto.LeaderboardResponse{}, invalidInput("unknown leaderboard period %q", period)
	}
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardLimit
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("leaderboard:v1:%d:%s:%d", universityID, period, limit)
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.LeaderboardResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	monthly := period == LeaderboardPeriodMonthly
	users, err := s.users.Leaderboard(ctx, repository.LeaderboardFilter{
		UniversityID: universityID,
		Monthly:      monthly,
		Limit:        limit,
	})
	if err != nil {
		return dto.LeaderboardResponse{}, translateStoreError(err, "leaderboard")
	}

	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		score := user.Score
		if monthly {
			score = user.MonthlyScore
		}
		entries = append(entries, dto.LeaderboardEntry{
			Rank:   i + 1,
			UserID: user.ID,
			Name:   user.Name,
			Score:  score,
			Level:  user.Level,
		})
	}

	response := dto.LeaderboardResponse{
		UniversityID: universityID,
		Period:       period,
		Entries:      entries,
		GeneratedAt:  s.now().UTC(),
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache leaderboard")
			}
		}
	}

	return response, nil
}

func (s *gamificationService) scopedUser(ctx context.Context, universityID, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, translateStoreError(err, "load user")
	}
	if universityID != 0 && user.UniversityID != universityID {
		return models.User{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, nil
}

func levelResponse(level Level) dto.LevelResponse {
	return dto.LevelResponse{Number: level.Number, Name: level.Name, MinScore: level.MinScore}
}
