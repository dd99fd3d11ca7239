package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/service"
	"github.com/noah-isme/unishare-api/internal/utils"
)

// ReactionHandler exposes like, dislike and report endpoints for notes and comments.
type ReactionHandler struct {
	service service.ReactionService
	logger  zerolog.Logger
}

// NewReactionHandler constructs the handler.
func NewReactionHandler(service service.ReactionService, logger zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{
		service: service,
		logger:  logger.With().Str("component", "reaction_handler").Logger(),
	}
}

// Register binds /:targetType/:id/{like,dislike,report,my-reaction} for both target types.
func (h *ReactionHandler) Register(router fiber.Router) {
	for _, targetType := range []string{"notes", "comments"} {
		prefix := "/" + targetType + "/:id"
		router.Post(prefix+"/like", h.react(targetType, models.ReactionLike))
		router.Post(prefix+"/dislike", h.react(targetType, models.ReactionDislike))
		router.Post(prefix+"/report", h.react(targetType, models.ReactionReport))
		router.Get(prefix+"/my-reaction", h.myReaction(targetType))
	}
}

func (h *ReactionHandler) react(targetType string, kind models.ReactionKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromContext(c)
		if !ok {
			return unauthenticated(c)
		}
		target, err := parseTarget(c, targetType)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		var payload dto.ReactionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&payload); err != nil {
				return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
			}
		}

		result, err := h.service.React(requestContext(c), actor, target, kind, payload)
		if err != nil {
			return respondError(c, h.logger, err, "failed to apply reaction")
		}

		return utils.SendSuccess(c, "reaction updated", result)
	}
}

func (h *ReactionHandler) myReaction(targetType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromContext(c)
		if !ok {
			return unauthenticated(c)
		}
		target, err := parseTarget(c, targetType)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		result, err := h.service.MyReaction(requestContext(c), actor, target)
		if err != nil {
			return respondError(c, h.logger, err, "failed to load reaction")
		}

		return utils.SendSuccess(c, "reaction", result)
	}
}

func parseTarget(c *fiber.Ctx, targetType string) (models.TargetRef, error) {
	kind, err := models.ParseTargetKind(targetType)
	if err != nil {
		return models.TargetRef{}, err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.TargetRef{}, err
	}
	return models.TargetRef{Kind: kind, ID: id}, nil
}
