package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/service"
	"github.com/noah-isme/unishare-api/internal/utils"
)

// NotificationHandler manages the caller's notification inbox.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes. Static segments are registered ahead of :id.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Patch("/read-all", h.markAllRead)
	router.Delete("/read", h.deleteRead)
	router.Delete("/all", h.deleteAll)
	router.Patch("/:id/read", h.markRead)
	router.Patch("/:id/unread", h.markUnread)
	router.Delete("/:id", h.delete)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	notifications, err := h.service.List(requestContext(c), actor.ID, page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list notifications")
	}

	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	return h.setRead(c, true)
}

func (h *NotificationHandler) markUnread(c *fiber.Ctx) error {
	return h.setRead(c, false)
}

func (h *NotificationHandler) setRead(c *fiber.Ctx, read bool) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	var notification dto.NotificationResponse
	if read {
		notification, err = h.service.MarkRead(requestContext(c), actor.ID, id)
	} else {
		notification, err = h.service.MarkUnread(requestContext(c), actor.ID, id)
	}
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notification")
	}

	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	affected, err := h.service.MarkAllRead(requestContext(c), actor.ID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notifications")
	}

	return utils.SendSuccess(c, "notifications marked read", dto.NotificationBulkResponse{Affected: affected})
}

func (h *NotificationHandler) delete(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	if err := h.service.Delete(requestContext(c), actor.ID, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete notification")
	}

	return utils.SendSuccess(c, "notification deleted", nil)
}

func (h *NotificationHandler) deleteRead(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	affected, err := h.service.DeleteRead(requestContext(c), actor.ID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to delete notifications")
	}

	return utils.SendSuccess(c, "read notifications deleted", dto.NotificationBulkResponse{Affected: affected})
}

func (h *NotificationHandler) deleteAll(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	affected, err := h.service.DeleteAll(requestContext(c), actor.ID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to delete notifications")
	}

	return utils.SendSuccess(c, "notifications deleted", dto.NotificationBulkResponse{Affected: affected})
}
