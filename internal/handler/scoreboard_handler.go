package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/utils"
)

// ScoreboardReader is the read side of the gamification engine.
type ScoreboardReader interface {
	UserScore(ctx context.Context, universityID, userID uint) (dto.UserScoreResponse, error)
	UserBadges(ctx context.Context, universityID, userID uint) ([]dto.BadgeStatusResponse, error)
	Leaderboard(ctx context.Context, universityID uint, query dto.LeaderboardQuery) (dto.LeaderboardResponse, error)
}

// ScoreboardHandler exposes scores, badges and leaderboards within the caller's university.
type ScoreboardHandler struct {
	service   ScoreboardReader
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScoreboardHandler constructs the handler.
func NewScoreboardHandler(service ScoreboardReader, validate *validator.Validate, logger zerolog.Logger) *ScoreboardHandler {
	return &ScoreboardHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "scoreboard_handler").Logger(),
	}
}

// Register wires the scoreboard routes.
func (h *ScoreboardHandler) Register(router fiber.Router) {
	router.Get("/leaderboard", h.leaderboard)
	router.Get("/user/:id", h.userScore)
	router.Get("/user/:id/badges", h.userBadges)
}

func (h *ScoreboardHandler) userScore(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	score, err := h.service.UserScore(requestContext(c), actor.UniversityID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load score")
	}

	return utils.SendSuccess(c, "user score", score)
}

func (h *ScoreboardHandler) userBadges(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	badges, err := h.service.UserBadges(requestContext(c), actor.UniversityID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load badges")
	}

	return utils.SendSuccess(c, "user badges", badges)
}

func (h *ScoreboardHandler) leaderboard(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var query dto.LeaderboardQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := h.validator.Struct(query); err != nil {
		return respondError(c, h.logger, err, "invalid query")
	}

	board, err := h.service.Leaderboard(requestContext(c), actor.UniversityID, query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load leaderboard")
	}

	return utils.SendSuccess(c, "leaderboard", board)
}
