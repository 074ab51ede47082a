package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

// Actor identifies the authenticated user performing a mutation, with the
// role resolved at request time.
type Actor struct {
	ID   uint
	Role roles.Role
}

// AuditEntry captures the details required to persist one audit record.
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   uint
	OldData    map[string]interface{}
	NewData    map[string]interface{}
}

// AuditService queries the append-only audit trail. Writes never happen
// standalone: every entry is built with BuildAuditLog and committed inside
// the owning mutation's transaction by the entity repositories.
type AuditService interface {
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

// BuildAuditLog assembles the persistence model for an entry, normalizing
// snapshot values so they stay stable and comparable across review.
func BuildAuditLog(actor Actor, entry AuditEntry) (models.AuditLog, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return models.AuditLog{}, fmt.Errorf("audit action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return models.AuditLog{}, fmt.Errorf("audit entity type is required")
	}

	return models.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Action:     strings.TrimSpace(entry.Action),
		EntityType: strings.TrimSpace(entry.EntityType),
		EntityID:   entry.EntityID,
		OldData:    NormalizeSnapshot(entry.OldData),
		NewData:    NormalizeSnapshot(entry.NewData),
	}, nil
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditEntryResponse(entry))
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pagination := dto.PaginationMeta{
		Page:       page,
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.AuditListResponse{Items: responses, Pagination: pagination}, nil
}

// NormalizeSnapshot converts snapshot values into canonical serializable
// forms: times become ISO-8601 strings, json.Number and decimals become plain
// numbers, nested structures are walked recursively.
func NormalizeSnapshot(data map[string]interface{}) datatypes.JSONMap {
	if data == nil {
		return nil
	}

	normalized := datatypes.JSONMap{}
	for key, value := range data {
		normalized[key] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case float32:
		return float64(v)
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(v))
		for key, item := range v {
			nested[key] = normalizeValue(item)
		}
		return nested
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = normalizeValue(item)
		}
		return items
	default:
		if f, ok := decimalToFloat(value); ok {
			return f
		}
		return value
	}
}

// decimalToFloat coerces the fixed-point types drivers occasionally hand back
// into plain float64 values.
func decimalToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		if v > (1<<53) || v < -(1<<53) {
			return 0, false
		}
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		if v > (1 << 53) {
			return 0, false
		}
		return float64(v), true
	default:
		return 0, false
	}
}
