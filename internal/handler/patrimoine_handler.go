package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// PatrimoineHandler wires heritage-site routes.
type PatrimoineHandler struct {
	service service.PatrimoineService
	logger  zerolog.Logger
}

// NewPatrimoineHandler constructs the handler.
func NewPatrimoineHandler(service service.PatrimoineService, logger zerolog.Logger) *PatrimoineHandler {
	return &PatrimoineHandler{
		service: service,
		logger:  logger.With().Str("component", "patrimoine_handler").Logger(),
	}
}

// Register attaches heritage-site endpoints to the router group.
func (h *PatrimoineHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id/", h.get)
	router.Post("/", h.create)
	router.Patch("/:id/", h.update)
	router.Delete("/:id/", h.delete)
}

func (h *PatrimoineHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	regionID, err := parseQueryInt(c, "region_id")
	if err != nil || regionID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid region_id")
	}

	req := dto.PatrimoineListRequest{
		Search:   c.Query("q"),
		Type:     c.Query("type"),
		Statut:   c.Query("statut"),
		RegionID: uint(regionID),
		Page:     page,
		PageSize: pageSize,
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "patrimoines retrieved", response)
}

func (h *PatrimoineHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrPatrimoineNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "patrimoine not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "patrimoine retrieved", response)
}

func (h *PatrimoineHandler) create(c *fiber.Ctx) error {
	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.PatrimoineCreateRequest{
		NomFr:                   c.FormValue("nom_fr"),
		NomAr:                   c.FormValue("nom_ar"),
		Description:             c.FormValue("description"),
		TypePatrimoine:          c.FormValue("type_patrimoine"),
		Statut:                  c.FormValue("statut"),
		ReferenceAdministrative: c.FormValue("reference_administrative"),
		GeoJSON:                 c.FormValue("geojson"),
	}
	if id, err := parseFormUint(c, "commune_id"); err == nil {
		payload.CommuneID = id
	}

	response, err := h.service.Create(c.UserContext(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "patrimoine registered", response)
}

func (h *PatrimoineHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.PatrimoineUpdateRequest{}
	if value := c.FormValue("nom_fr"); value != "" {
		payload.NomFr = &value
	}
	if value := c.FormValue("nom_ar"); value != "" {
		payload.NomAr = &value
	}
	if value := c.FormValue("description"); value != "" {
		payload.Description = &value
	}
	if value := c.FormValue("type_patrimoine"); value != "" {
		payload.TypePatrimoine = &value
	}
	if value := c.FormValue("statut"); value != "" {
		payload.Statut = &value
	}
	if value := c.FormValue("reference_administrative"); value != "" {
		payload.ReferenceAdministrative = &value
	}
	if value := c.FormValue("geojson"); value != "" {
		payload.GeoJSON = &value
	}
	if communeID, err := parseFormUint(c, "commune_id"); err == nil {
		payload.CommuneID = &communeID
	}

	response, err := h.service.Update(c.UserContext(), actor, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "patrimoine updated", response)
}

func (h *PatrimoineHandler) delete(c *fiber.Ctx) error {
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
			return utils.SendError(c, fiber.StatusForbidden, "only superusers may delete a patrimoine")
		case errors.Is(err, service.ErrPatrimoineNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "patrimoine not found")
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "patrimoine deleted", fiber.Map{"id": id})
}

func (h *PatrimoineHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrPatrimoineNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "patrimoine not found")
	case errors.Is(err, service.ErrCommuneNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "commune not found")
	case errors.Is(err, service.ErrInvalidGeometry):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid site geometry")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *PatrimoineHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
