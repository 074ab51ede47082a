package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
	"github.com/patrimoine-ma/patrimoine-api/pkg/geometry"
)

var (
	ErrPatrimoineNotFound = errors.New("patrimoine not found")
	ErrCommuneNotFound    = errors.New("commune not found")
	ErrInvalidGeometry    = errors.New("invalid site geometry")
)

const entityPatrimoine = "patrimoine"

// PatrimoineService manages the heritage-site registry.
type PatrimoineService interface {
	List(ctx context.Context, req dto.PatrimoineListRequest) (dto.PatrimoineListResponse, error)
	Get(ctx context.Context, id uint) (dto.PatrimoineResponse, error)
	Create(ctx context.Context, actor models.User, payload dto.PatrimoineCreateRequest) (dto.PatrimoineResponse, error)
	Update(ctx context.Context, actor models.User, id uint, payload dto.PatrimoineUpdateRequest) (dto.PatrimoineResponse, error)
	Delete(ctx context.Context, actor models.User, id uint) error
}

type patrimoineService struct {
	repo      repository.PatrimoineRepository
	geoRepo   repository.GeoRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewPatrimoineService constructs the registry service.
func NewPatrimoineService(repo repository.PatrimoineRepository, geoRepo repository.GeoRepository, validate *validator.Validate, logger zerolog.Logger) PatrimoineService {
	return &patrimoineService{
		repo:      repo,
		geoRepo:   geoRepo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "patrimoine_service").Logger(),
	}
}

func (s *patrimoineService) List(ctx context.Context, req dto.PatrimoineListRequest) (dto.PatrimoineListResponse, error) {
	filter := repository.PatrimoineFilter{
		Search:   req.Search,
		Type:     req.Type,
		Statut:   req.Statut,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.RegionID > 0 {
		regionID := req.RegionID
		filter.RegionID = &regionID
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	patrimoines, total, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return dto.PatrimoineListResponse{}, err
	}

	items := make([]dto.PatrimoineResponse, 0, len(patrimoines))
	for _, patrimoine := range patrimoines {
		items = append(items, dto.NewPatrimoineResponse(patrimoine))
	}

	return dto.PatrimoineListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
		},
	}, nil
}

func (s *patrimoineService) Get(ctx context.Context, id uint) (dto.PatrimoineResponse, error) {
	patrimoine, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PatrimoineResponse{}, ErrPatrimoineNotFound
		}
		return dto.PatrimoineResponse{}, err
	}
	return dto.NewPatrimoineResponse(patrimoine), nil
}

func (s *patrimoineService) Create(ctx context.Context, actor models.User, payload dto.PatrimoineCreateRequest) (dto.PatrimoineResponse, error) {
	if !roles.CanEdit(actor) {
		return dto.PatrimoineResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.PatrimoineResponse{}, err
	}

	if _, err := s.geoRepo.GetCommune(ctx, payload.CommuneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PatrimoineResponse{}, ErrCommuneNotFound
		}
		return dto.PatrimoineResponse{}, err
	}

	polygon, centroid, err := normalizeGeometry(payload.GeoJSON)
	if err != nil {
		return dto.PatrimoineResponse{}, err
	}

	statut := payload.Statut
	if statut == "" {
		statut = models.PatrimoineStatutEnEtude
	}

	patrimoine := models.Patrimoine{
		NomFr:                   strings.TrimSpace(s.sanitizer.Sanitize(payload.NomFr)),
		NomAr:                   strings.TrimSpace(s.sanitizer.Sanitize(payload.NomAr)),
		Description:             strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		TypePatrimoine:          payload.TypePatrimoine,
		Statut:                  statut,
		ReferenceAdministrative: strings.TrimSpace(payload.ReferenceAdministrative),
		PolygonGeom:             polygon,
		CentroidGeom:            centroid,
		CommuneID:               payload.CommuneID,
		CreatedByID:             actor.ID,
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionCreate,
		EntityType: entityPatrimoine,
		NewData:    patrimoineSnapshot(patrimoine),
	})
	if err != nil {
		return dto.PatrimoineResponse{}, err
	}

	if err := s.repo.Create(ctx, &patrimoine, &audit); err != nil {
		s.logger.Error().Err(err).Str("nom_fr", patrimoine.NomFr).Msg("failed to create patrimoine")
		return dto.PatrimoineResponse{}, err
	}

	s.logger.Info().Uint("patrimoine_id", patrimoine.ID).Msg("patrimoine registered")
	return dto.NewPatrimoineResponse(patrimoine), nil
}

func (s *patrimoineService) Update(ctx context.Context, actor models.User, id uint, payload dto.PatrimoineUpdateRequest) (dto.PatrimoineResponse, error) {
	if !roles.CanEdit(actor) {
		return dto.PatrimoineResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.PatrimoineResponse{}, err
	}

	patrimoine, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PatrimoineResponse{}, ErrPatrimoineNotFound
		}
		return dto.PatrimoineResponse{}, err
	}

	before := patrimoineSnapshot(patrimoine)

	if payload.NomFr != nil {
		patrimoine.NomFr = strings.TrimSpace(s.sanitizer.Sanitize(*payload.NomFr))
	}
	if payload.NomAr != nil {
		patrimoine.NomAr = strings.TrimSpace(s.sanitizer.Sanitize(*payload.NomAr))
	}
	if payload.Description != nil {
		patrimoine.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.TypePatrimoine != nil {
		patrimoine.TypePatrimoine = *payload.TypePatrimoine
	}
	if payload.Statut != nil {
		patrimoine.Statut = *payload.Statut
	}
	if payload.ReferenceAdministrative != nil {
		patrimoine.ReferenceAdministrative = strings.TrimSpace(*payload.ReferenceAdministrative)
	}
	if payload.CommuneID != nil {
		if _, err := s.geoRepo.GetCommune(ctx, *payload.CommuneID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.PatrimoineResponse{}, ErrCommuneNotFound
			}
			return dto.PatrimoineResponse{}, err
		}
		patrimoine.CommuneID = *payload.CommuneID
	}
	if payload.GeoJSON != nil {
		polygon, centroid, err := normalizeGeometry(*payload.GeoJSON)
		if err != nil {
			return dto.PatrimoineResponse{}, err
		}
		patrimoine.PolygonGeom = polygon
		patrimoine.CentroidGeom = centroid
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionUpdate,
		EntityType: entityPatrimoine,
		EntityID:   patrimoine.ID,
		OldData:    before,
		NewData:    patrimoineSnapshot(patrimoine),
	})
	if err != nil {
		return dto.PatrimoineResponse{}, err
	}

	if err := s.repo.Update(ctx, &patrimoine, &audit); err != nil {
		s.logger.Error().Err(err).Uint("patrimoine_id", id).Msg("failed to update patrimoine")
		return dto.PatrimoineResponse{}, err
	}

	return dto.NewPatrimoineResponse(patrimoine), nil
}

// Delete is reserved to superusers; admins and inspectors can only edit.
func (s *patrimoineService) Delete(ctx context.Context, actor models.User, id uint) error {
	if !actor.IsSuperuser {
		return ErrNotAuthorized
	}

	patrimoine, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatrimoineNotFound
		}
		return err
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionDelete,
		EntityType: entityPatrimoine,
		EntityID:   patrimoine.ID,
		OldData:    patrimoineSnapshot(patrimoine),
	})
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, &audit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatrimoineNotFound
		}
		s.logger.Error().Err(err).Uint("patrimoine_id", id).Msg("failed to delete patrimoine")
		return err
	}

	s.logger.Info().Uint("patrimoine_id", id).Msg("patrimoine deleted")
	return nil
}

func normalizeGeometry(raw string) (datatypes.JSON, datatypes.JSON, error) {
	normalized, err := geometry.Normalize([]byte(raw))
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidGeometry, err)
	}

	polygon, err := normalized.PolygonJSON()
	if err != nil {
		return nil, nil, err
	}
	centroid, err := normalized.CentroidJSON()
	if err != nil {
		return nil, nil, err
	}

	return datatypes.JSON(polygon), datatypes.JSON(centroid), nil
}

func patrimoineSnapshot(patrimoine models.Patrimoine) map[string]interface{} {
	return map[string]interface{}{
		"nom_fr":                   patrimoine.NomFr,
		"nom_ar":                   patrimoine.NomAr,
		"type_patrimoine":          patrimoine.TypePatrimoine,
		"statut":                   patrimoine.Statut,
		"reference_administrative": patrimoine.ReferenceAdministrative,
		"commune_id":               patrimoine.CommuneID,
	}
}
