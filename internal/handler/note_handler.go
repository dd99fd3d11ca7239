package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/service"
	"github.com/noah-isme/unishare-api/internal/utils"
)

// NoteHandler exposes note upload, retrieval and moderation endpoints.
type NoteHandler struct {
	service service.NoteService
	logger  zerolog.Logger
}

// NewNoteHandler constructs a note handler.
func NewNoteHandler(service service.NoteService, logger zerolog.Logger) *NoteHandler {
	return &NoteHandler{
		service: service,
		logger:  logger.With().Str("component", "note_handler").Logger(),
	}
}

// Register wires the student-facing note routes.
func (h *NoteHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.softDelete)
}

// RegisterAdmin wires the moderation routes. The router is expected to enforce the admin role.
func (h *NoteHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/reported", h.listReported)
	router.Delete("/:id", h.hardDelete)
	router.Patch("/:id/reactivate", h.reactivate)
}

func (h *NoteHandler) create(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var payload dto.NoteCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	var file *multipart.FileHeader
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		if header, err := c.FormFile("file"); err == nil {
			file = header
		}
	}

	note, err := h.service.Create(requestContext(c), actor, payload, file)
	if err != nil {
		if errors.Is(err, service.ErrUploadTooLarge) {
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		}
		return respondError(c, h.logger, err, "failed to create note")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "note created", note)
}

func (h *NoteHandler) get(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	note, err := h.service.Get(requestContext(c), actor, id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load note")
	}

	return utils.SendSuccess(c, "note", note)
}

func (h *NoteHandler) softDelete(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	if err := h.service.SoftDelete(requestContext(c), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete note")
	}

	return utils.SendSuccess(c, "note deleted", nil)
}

func (h *NoteHandler) hardDelete(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	if err := h.service.HardDelete(requestContext(c), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete note")
	}

	return utils.SendSuccess(c, "note permanently deleted", nil)
}

func (h *NoteHandler) reactivate(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	note, err := h.service.Reactivate(requestContext(c), actor, id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to reactivate note")
	}

	return utils.SendSuccess(c, "note reactivated", note)
}

func (h *NoteHandler) listReported(c *fiber.Ctx) error {
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

	req := dto.ReportedNoteListRequest{
		Page:         page,
		PageSize:     pageSize,
		OnlyInactive: c.QueryBool("inactive", false),
	}

	notes, err := h.service.ListReported(requestContext(c), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reported notes")
	}

	return utils.OK(c, notes.Items, "reported notes", notes.Pagination)
}
