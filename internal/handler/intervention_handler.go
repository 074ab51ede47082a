package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// InterventionHandler wires restoration-project routes.
type InterventionHandler struct {
	service service.InterventionService
	logger  zerolog.Logger
}

// NewInterventionHandler constructs the handler.
func NewInterventionHandler(service service.InterventionService, logger zerolog.Logger) *InterventionHandler {
	return &InterventionHandler{
		service: service,
		logger:  logger.With().Str("component", "intervention_handler").Logger(),
	}
}

// Register attaches intervention endpoints to the router group.
func (h *InterventionHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id/", h.get)
	router.Post("/", h.create)
	router.Patch("/:id/", h.update)
}

func (h *InterventionHandler) list(c *fiber.Ctx) error {
	interventions, err := h.service.List(c.UserContext())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "interventions retrieved", interventions)
}

func (h *InterventionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	intervention, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrInterventionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "intervention not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "intervention retrieved", intervention)
}

func (h *InterventionHandler) create(c *fiber.Ctx) error {
	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.InterventionCreateRequest{
		NomProjet:        c.FormValue("nom_projet"),
		TypeIntervention: c.FormValue("type_intervention"),
		DateDebut:        c.FormValue("date_debut"),
		DateFin:          c.FormValue("date_fin"),
		Prestataire:      c.FormValue("prestataire"),
		Description:      c.FormValue("description"),
	}
	if id, err := parseFormUint(c, "patrimoine_id"); err == nil {
		payload.PatrimoineID = id
	}

	intervention, err := h.service.Create(c.UserContext(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "intervention planned", intervention)
}

func (h *InterventionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.InterventionUpdateRequest{}
	if value := c.FormValue("nom_projet"); value != "" {
		payload.NomProjet = &value
	}
	if value := c.FormValue("statut"); value != "" {
		payload.Statut = &value
	}
	if value := c.FormValue("date_fin"); value != "" {
		payload.DateFin = &value
	}
	if value := c.FormValue("prestataire"); value != "" {
		payload.Prestataire = &value
	}
	if value := c.FormValue("description"); value != "" {
		payload.Description = &value
	}

	intervention, err := h.service.Update(c.UserContext(), actor, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "intervention updated", intervention)
}

func (h *InterventionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrInterventionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "intervention not found")
	case errors.Is(err, service.ErrPatrimoineNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "patrimoine not found")
	case errors.Is(err, service.ErrInvalidDateRange):
		return utils.SendError(c, fiber.StatusBadRequest, "date_fin must not precede date_debut")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *InterventionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
