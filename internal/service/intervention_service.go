package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

var (
	ErrInterventionNotFound = errors.New("intervention not found")
	ErrInvalidDateRange     = errors.New("date_fin must not precede date_debut")
)

const entityIntervention = "intervention"

// InterventionService manages restoration projects on heritage sites.
type InterventionService interface {
	List(ctx context.Context) ([]dto.InterventionResponse, error)
	Get(ctx context.Context, id uint) (dto.InterventionResponse, error)
	Create(ctx context.Context, actor models.User, payload dto.InterventionCreateRequest) (dto.InterventionResponse, error)
	Update(ctx context.Context, actor models.User, id uint, payload dto.InterventionUpdateRequest) (dto.InterventionResponse, error)
}

type interventionService struct {
	repo        repository.InterventionRepository
	patrimoines repository.PatrimoineRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewInterventionService constructs the intervention service.
func NewInterventionService(repo repository.InterventionRepository, patrimoines repository.PatrimoineRepository, validate *validator.Validate, logger zerolog.Logger) InterventionService {
	return &interventionService{
		repo:        repo,
		patrimoines: patrimoines,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "intervention_service").Logger(),
	}
}

func (s *interventionService) List(ctx context.Context) ([]dto.InterventionResponse, error) {
	interventions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.InterventionResponse, 0, len(interventions))
	for _, intervention := range interventions {
		responses = append(responses, dto.NewInterventionResponse(intervention))
	}
	return responses, nil
}

func (s *interventionService) Get(ctx context.Context, id uint) (dto.InterventionResponse, error) {
	intervention, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InterventionResponse{}, ErrInterventionNotFound
		}
		return dto.InterventionResponse{}, err
	}
	return dto.NewInterventionResponse(intervention), nil
}

func (s *interventionService) Create(ctx context.Context, actor models.User, payload dto.InterventionCreateRequest) (dto.InterventionResponse, error) {
	if !roles.CanEdit(actor) {
		return dto.InterventionResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.InterventionResponse{}, err
	}

	if _, err := s.patrimoines.GetByID(ctx, payload.PatrimoineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InterventionResponse{}, ErrPatrimoineNotFound
		}
		return dto.InterventionResponse{}, err
	}

	dateDebut, err := time.Parse("2006-01-02", payload.DateDebut)
	if err != nil {
		return dto.InterventionResponse{}, err
	}

	var dateFin *time.Time
	if payload.DateFin != "" {
		parsed, err := time.Parse("2006-01-02", payload.DateFin)
		if err != nil {
			return dto.InterventionResponse{}, err
		}
		if parsed.Before(dateDebut) {
			return dto.InterventionResponse{}, ErrInvalidDateRange
		}
		dateFin = &parsed
	}

	intervention := models.Intervention{
		PatrimoineID:     payload.PatrimoineID,
		NomProjet:        strings.TrimSpace(s.sanitizer.Sanitize(payload.NomProjet)),
		TypeIntervention: payload.TypeIntervention,
		DateDebut:        dateDebut,
		DateFin:          dateFin,
		Prestataire:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Prestataire)),
		Description:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Statut:           models.InterventionStatutPlanifiee,
		CreatedByID:      actor.ID,
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionCreate,
		EntityType: entityIntervention,
		NewData:    interventionSnapshot(intervention),
	})
	if err != nil {
		return dto.InterventionResponse{}, err
	}

	if err := s.repo.Create(ctx, &intervention, &audit); err != nil {
		s.logger.Error().Err(err).Uint("patrimoine_id", payload.PatrimoineID).Msg("failed to create intervention")
		return dto.InterventionResponse{}, err
	}

	s.logger.Info().Uint("intervention_id", intervention.ID).Msg("intervention planned")
	return dto.NewInterventionResponse(intervention), nil
}

func (s *interventionService) Update(ctx context.Context, actor models.User, id uint, payload dto.InterventionUpdateRequest) (dto.InterventionResponse, error) {
	if !roles.CanEdit(actor) {
		return dto.InterventionResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.InterventionResponse{}, err
	}

	intervention, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InterventionResponse{}, ErrInterventionNotFound
		}
		return dto.InterventionResponse{}, err
	}

	before := interventionSnapshot(intervention)

	if payload.NomProjet != nil {
		intervention.NomProjet = strings.TrimSpace(s.sanitizer.Sanitize(*payload.NomProjet))
	}
	if payload.Statut != nil {
		intervention.Statut = *payload.Statut
		if *payload.Statut == models.InterventionStatutTerminee && intervention.DateValidation == nil {
			now := time.Now()
			intervention.DateValidation = &now
		}
	}
	if payload.DateFin != nil {
		parsed, err := time.Parse("2006-01-02", *payload.DateFin)
		if err != nil {
			return dto.InterventionResponse{}, err
		}
		if parsed.Before(intervention.DateDebut) {
			return dto.InterventionResponse{}, ErrInvalidDateRange
		}
		intervention.DateFin = &parsed
	}
	if payload.Prestataire != nil {
		intervention.Prestataire = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Prestataire))
	}
	if payload.Description != nil {
		intervention.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionUpdate,
		EntityType: entityIntervention,
		EntityID:   intervention.ID,
		OldData:    before,
		NewData:    interventionSnapshot(intervention),
	})
	if err != nil {
		return dto.InterventionResponse{}, err
	}

	if err := s.repo.Update(ctx, &intervention, &audit); err != nil {
		s.logger.Error().Err(err).Uint("intervention_id", id).Msg("failed to update intervention")
		return dto.InterventionResponse{}, err
	}

	return dto.NewInterventionResponse(intervention), nil
}

func interventionSnapshot(intervention models.Intervention) map[string]interface{} {
	snapshot := map[string]interface{}{
		"patrimoine_id":     intervention.PatrimoineID,
		"nom_projet":        intervention.NomProjet,
		"type_intervention": intervention.TypeIntervention,
		"date_debut":        intervention.DateDebut.Format("2006-01-02"),
		"statut":            intervention.Statut,
		"prestataire":       intervention.Prestataire,
	}
	if intervention.DateFin != nil {
		snapshot["date_fin"] = intervention.DateFin.Format("2006-01-02")
	}
	return snapshot
}
