package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// DocumentHandler wires document upload routes.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches document endpoints to the router group.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.upload)
	router.Delete("/:id/", h.delete)
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
	documents, err := h.service.List(c.UserContext())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "documents retrieved", documents)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.DocumentUploadRequest{
		TypeDocument: c.FormValue("type_document"),
	}
	if id, err := parseFormUint(c, "patrimoine_id"); err == nil {
		payload.PatrimoineID = &id
	}
	if id, err := parseFormUint(c, "inspection_id"); err == nil {
		payload.InspectionID = &id
	}
	if id, err := parseFormUint(c, "intervention_id"); err == nil {
		payload.InterventionID = &id
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.internalError(c, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return h.internalError(c, err)
	}

	document, err := h.service.Upload(c.UserContext(), actor, payload, fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		case errors.Is(err, service.ErrDocumentTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the size limit")
		case errors.Is(err, service.ErrDocumentTypeMismatch):
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, "file content does not match the declared type")
		case errors.Is(err, service.ErrMissingAttachment):
			return utils.SendError(c, fiber.StatusBadRequest, "document must reference a patrimoine, inspection or intervention")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document uploaded", document)
}

func (h *DocumentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "only the uploader or a superuser may delete this document")
		case errors.Is(err, service.ErrDocumentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "document not found")
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "document deleted", fiber.Map{"id": id})
}

func (h *DocumentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
