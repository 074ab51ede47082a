package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// InspectionHandler wires inspection routes and the modification-request
// workflow.
//
// Workflow endpoints answer like the original browser flows: failures come
// back as a 303 to the relevant page with the reason in the flash parameter,
// never as an error payload.
type InspectionHandler struct {
	service service.InspectionService
	logger  zerolog.Logger
}

// NewInspectionHandler constructs the handler.
func NewInspectionHandler(service service.InspectionService, logger zerolog.Logger) *InspectionHandler {
	return &InspectionHandler{
		service: service,
		logger:  logger.With().Str("component", "inspection_handler").Logger(),
	}
}

// Register attaches inspection endpoints to the router group.
func (h *InspectionHandler) Register(inspections fiber.Router, requests fiber.Router) {
	inspections.Get("/", h.list)
	inspections.Post("/", h.create)
	inspections.Get("/:id/", h.get)
	inspections.Get("/:id/request-edit/", h.requestEditForm)
	inspections.Post("/:id/request-edit/", h.requestEdit)

	requests.Post("/:id/approve/", h.approve)
	requests.Post("/:id/reject/", h.reject)
}

func (h *InspectionHandler) list(c *fiber.Ctx) error {
	viewer, _ := currentUserFromContext(c)
	if !roles.CanView(viewer) {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.List(c.UserContext(), viewer)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "inspections retrieved", response)
}

func (h *InspectionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	viewer, _ := currentUserFromContext(c)
	if !roles.CanView(viewer) {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.Get(c.UserContext(), id, viewer)
	if err != nil {
		if errors.Is(err, service.ErrInspectionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "inspection not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "inspection retrieved", response)
}

func (h *InspectionHandler) create(c *fiber.Ctx) error {
	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.InspectionCreateRequest{
		DateInspection: c.FormValue("date_inspection"),
		Etat:           c.FormValue("etat"),
		Observations:   c.FormValue("observations"),
	}
	if id, err := parseFormUint(c, "patrimoine_id"); err == nil {
		payload.PatrimoineID = id
	}

	response, err := h.service.Create(c.UserContext(), actor, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "only inspectors may record inspections")
		case errors.Is(err, service.ErrPatrimoineNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "patrimoine not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "inspection recorded", response)
}

// requestEditForm returns the prefill values for the modification form, the
// inspection's current date, state and observations.
func (h *InspectionHandler) requestEditForm(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return redirectWithFlash(c, "/inspections/", "inspection introuvable")
	}

	viewer, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.Get(c.UserContext(), id, viewer)
	if err != nil {
		if errors.Is(err, service.ErrInspectionNotFound) {
			return redirectWithFlash(c, "/inspections/", "inspection introuvable")
		}
		return h.internalError(c, err)
	}

	if !response.CanRequestModification {
		return redirectWithFlash(c, fmt.Sprintf("/inspections/%d/", id), "seul l'inspecteur de cette inspection peut demander une modification")
	}

	return utils.SendSuccess(c, "modification form", fiber.Map{
		"date_inspection": response.Inspection.DateInspection,
		"etat":            response.Inspection.Etat,
		"observations":    response.Inspection.Observations,
	})
}

func (h *InspectionHandler) requestEdit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return redirectWithFlash(c, "/inspections/", "inspection introuvable")
	}
	detail := fmt.Sprintf("/inspections/%d/", id)

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.ModificationRequestCreate{
		DateInspection: c.FormValue("date_inspection"),
		Etat:           c.FormValue("etat"),
		Observations:   c.FormValue("observations"),
	}

	_, err = h.service.SubmitModification(c.UserContext(), actor, id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInspectionNotFound):
			return redirectWithFlash(c, "/inspections/", "inspection introuvable")
		case errors.Is(err, service.ErrNotInspectionOwner):
			return redirectWithFlash(c, detail, "seul l'inspecteur de cette inspection peut demander une modification")
		case errors.Is(err, service.ErrPendingRequestExists):
			return redirectWithFlash(c, detail, "une demande de modification est déjà en attente")
		case errors.Is(err, service.ErrInvalidProposedData), isValidationError(err):
			return redirectWithFlash(c, detail, "données proposées invalides")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("inspection_id", id).Msg("modification request failed")
			return redirectWithFlash(c, detail, "la demande n'a pas pu être enregistrée")
		}
	}

	return redirectWithFlash(c, detail, "demande de modification envoyée")
}

func (h *InspectionHandler) approve(c *fiber.Ctx) error {
	return h.review(c, "approve")
}

func (h *InspectionHandler) reject(c *fiber.Ctx) error {
	return h.review(c, "reject")
}

func (h *InspectionHandler) review(c *fiber.Ctx, action string) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return redirectWithFlash(c, "/inspections/", "demande introuvable")
	}

	actor, ok := currentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	adminNote := c.FormValue("admin_note")

	if action == "approve" {
		err = h.service.ApproveModification(c.UserContext(), actor, id, adminNote)
	} else {
		err = h.service.RejectModification(c.UserContext(), actor, id, adminNote)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return redirectWithFlash(c, "/inspections/", "réservé aux administrateurs")
		case errors.Is(err, service.ErrRequestNotFound):
			return redirectWithFlash(c, "/inspections/", "demande introuvable")
		case errors.Is(err, service.ErrRequestNotPending):
			return redirectWithFlash(c, "/inspections/", "cette demande a déjà été traitée")
		case errors.Is(err, service.ErrInvalidProposedData):
			return redirectWithFlash(c, "/inspections/", "données proposées invalides")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("request_id", id).Str("action", action).Msg("review failed")
			return redirectWithFlash(c, "/inspections/", "la demande n'a pas pu être traitée")
		}
	}

	if action == "approve" {
		return redirectWithFlash(c, "/inspections/", "demande approuvée et inspection mise à jour")
	}
	return redirectWithFlash(c, "/inspections/", "demande rejetée")
}

func (h *InspectionHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
