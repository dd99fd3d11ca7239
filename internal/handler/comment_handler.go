package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/service"
	"github.com/noah-isme/unishare-api/internal/utils"
)

// CommentHandler exposes comment endpoints.
type CommentHandler struct {
	service service.CommentService
	logger  zerolog.Logger
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(service service.CommentService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		logger:  logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register wires /notes/:id/comments and /comments/:id on the API root.
func (h *CommentHandler) Register(router fiber.Router) {
	router.Post("/notes/:id/comments", h.create)
	router.Get("/notes/:id/comments", h.list)
	router.Delete("/comments/:id", h.delete)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	noteID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	comment, err := h.service.Create(requestContext(c), actor, noteID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create comment")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}

func (h *CommentHandler) list(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	noteID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	comments, err := h.service.List(requestContext(c), actor, noteID, page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list comments")
	}

	return utils.SendSuccess(c, "comments", comments)
}

func (h *CommentHandler) delete(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid comment id")
	}

	if err := h.service.Delete(requestContext(c), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete comment")
	}

	return utils.SendSuccess(c, "comment deleted", nil)
}
