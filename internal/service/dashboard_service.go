package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

// DashboardService aggregates registry statistics per viewer role.
type DashboardService interface {
	Summary(ctx context.Context, viewer models.User) (dto.DashboardResponse, error)
}

type dashboardService struct {
	patrimoines repository.PatrimoineRepository
	inspections repository.InspectionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewDashboardService constructs the dashboard service. A nil cache client
// disables caching.
func NewDashboardService(patrimoines repository.PatrimoineRepository, inspections repository.InspectionRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &dashboardService{
		patrimoines: patrimoines,
		inspections: inspections,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
	}
}

// Summary is cached per role: admin dashboards include the pending-request
// count, public ones do not, so the two must never share an entry.
func (s *dashboardService) Summary(ctx context.Context, viewer models.User) (dto.DashboardResponse, error) {
	role := roles.Resolve(viewer)
	cacheKey := "dashboard:" + string(role)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var response dto.DashboardResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		}
	}

	byType, err := s.patrimoines.CountByType(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	byStatut, err := s.patrimoines.CountByStatut(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	byEtat, err := s.inspections.CountByEtat(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		Role:                string(role),
		PatrimoinesByType:   byType,
		PatrimoinesByStatut: byStatut,
		InspectionsByEtat:   byEtat,
	}

	if roles.IsAdmin(viewer) {
		pending, err := s.inspections.CountPendingRequests(ctx)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		response.PendingRequests = &pending
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("dashboard cache write failed")
			}
		}
	}

	return response, nil
}
