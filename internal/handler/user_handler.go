package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// UserHandler wires the superuser account administration routes.
type UserHandler struct {
	service service.UserAdminService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserAdminService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches account administration endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/:id/toggle-group/", h.toggleGroup)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	users, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return utils.SendError(c, fiber.StatusForbidden, "reserved for superusers")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) toggleGroup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	group := strings.ToUpper(strings.TrimSpace(c.FormValue("group")))

	response, err := h.service.ToggleGroup(c.UserContext(), actor, id, group)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "reserved for superusers")
		case errors.Is(err, service.ErrUnknownGroup):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown group")
		case errors.Is(err, service.ErrUserNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "group membership updated", response)
}

func (h *UserHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
