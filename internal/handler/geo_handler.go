package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

// GeoHandler serves the reference geography lookups backing the cascading
// region/province/commune selectors.
type GeoHandler struct {
	repo        repository.GeoRepository
	patrimoines repository.PatrimoineRepository
	logger      zerolog.Logger
}

// NewGeoHandler constructs the handler.
func NewGeoHandler(repo repository.GeoRepository, patrimoines repository.PatrimoineRepository, logger zerolog.Logger) *GeoHandler {
	return &GeoHandler{
		repo:        repo,
		patrimoines: patrimoines,
		logger:      logger.With().Str("component", "geo_handler").Logger(),
	}
}

// Register attaches the lookup endpoints to the router group.
func (h *GeoHandler) Register(router fiber.Router) {
	router.Get("/regions/", h.regions)
	router.Get("/regions/:id/provinces/", h.provinces)
	router.Get("/provinces/:id/communes/", h.communes)
	router.Get("/communes/:id/patrimoines/", h.communePatrimoines)
}

func (h *GeoHandler) regions(c *fiber.Ctx) error {
	regions, err := h.repo.ListRegions(c.UserContext())
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.SendSuccess(c, "regions retrieved", dto.NewRegionResponses(regions))
}

func (h *GeoHandler) provinces(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	provinces, err := h.repo.ListProvincesByRegion(c.UserContext(), id)
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.SendSuccess(c, "provinces retrieved", dto.NewProvinceResponses(provinces))
}

func (h *GeoHandler) communes(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	communes, err := h.repo.ListCommunesByProvince(c.UserContext(), id)
	if err != nil {
		return h.internalError(c, err)
	}
	return utils.SendSuccess(c, "communes retrieved", dto.NewCommuneResponses(communes))
}

func (h *GeoHandler) communePatrimoines(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	patrimoines, err := h.patrimoines.ListByCommune(c.UserContext(), id)
	if err != nil {
		return h.internalError(c, err)
	}

	responses := make([]dto.PatrimoineResponse, 0, len(patrimoines))
	for _, patrimoine := range patrimoines {
		responses = append(responses, dto.NewPatrimoineResponse(patrimoine))
	}
	return utils.SendSuccess(c, "patrimoines retrieved", responses)
}

func (h *GeoHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
