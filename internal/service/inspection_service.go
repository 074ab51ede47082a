package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/observability"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

// Workflow errors. Guard and invariant violations are quiet no-ops at the
// HTTP boundary; handlers translate them into redirects.
var (
	ErrInspectionNotFound   = errors.New("inspection not found")
	ErrRequestNotFound      = errors.New("modification request not found")
	ErrNotAuthorized        = errors.New("operation not permitted for this role")
	ErrNotInspectionOwner   = errors.New("caller is not the inspection's inspector")
	ErrPendingRequestExists = errors.New("a pending modification request already exists")
	ErrRequestNotPending    = errors.New("modification request already reviewed")
	ErrInvalidProposedData  = errors.New("invalid proposed data payload")
)

const (
	entityInspection = "inspection"
	entityRequest    = "inspection_modification_request"
)

// proposedDataSchema pins down the persisted payload shape: required ISO date
// and condition state, optional observations, nothing else.
var proposedDataSchema = jsonschema.MustCompileString("proposed_data.json", `{
	"type": "object",
	"required": ["date_inspection", "etat"],
	"properties": {
		"date_inspection": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"etat": {"enum": ["BON", "MOYEN", "DEGRADE"]},
		"observations": {"type": "string"}
	},
	"additionalProperties": false
}`)

// InspectionService exposes inspection CRUD and the modification-request
// approval workflow.
type InspectionService interface {
	List(ctx context.Context, viewer models.User) (dto.InspectionListResponse, error)
	Get(ctx context.Context, id uint, viewer models.User) (dto.InspectionDetailResponse, error)
	Create(ctx context.Context, actor models.User, payload dto.InspectionCreateRequest) (dto.InspectionResponse, error)
	SubmitModification(ctx context.Context, actor models.User, inspectionID uint, payload dto.ModificationRequestCreate) (dto.ModificationRequestResponse, error)
	ApproveModification(ctx context.Context, actor models.User, requestID uint, adminNote string) error
	RejectModification(ctx context.Context, actor models.User, requestID uint, adminNote string) error
}

type inspectionService struct {
	repo        repository.InspectionRepository
	patrimoines repository.PatrimoineRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	events      WorkflowEventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewInspectionService constructs the inspection workflow service.
func NewInspectionService(repo repository.InspectionRepository, patrimoines repository.PatrimoineRepository, validate *validator.Validate, events WorkflowEventPublisher, logger zerolog.Logger) InspectionService {
	return &inspectionService{
		repo:        repo,
		patrimoines: patrimoines,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		events:      events,
		logger:      logger.With().Str("component", "inspection_service").Logger(),
		tracer:      otel.Tracer("github.com/patrimoine-ma/patrimoine-api/internal/service/inspection"),
		now:         time.Now,
	}
}

func (s *inspectionService) List(ctx context.Context, viewer models.User) (dto.InspectionListResponse, error) {
	inspections, err := s.repo.List(ctx)
	if err != nil {
		return dto.InspectionListResponse{}, err
	}

	responses := make([]dto.InspectionResponse, 0, len(inspections))
	for _, inspection := range inspections {
		responses = append(responses, dto.NewInspectionResponse(inspection))
	}

	result := dto.InspectionListResponse{
		Inspections: responses,
		CanAdd:      roles.CanAddInspection(viewer),
		IsAdmin:     roles.IsAdmin(viewer),
	}

	if result.IsAdmin {
		pending, err := s.repo.ListPendingRequests(ctx)
		if err != nil {
			return dto.InspectionListResponse{}, err
		}
		result.PendingRequests = dto.NewModificationRequestResponses(pending)
	}

	return result, nil
}

func (s *inspectionService) Get(ctx context.Context, id uint, viewer models.User) (dto.InspectionDetailResponse, error) {
	inspection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InspectionDetailResponse{}, ErrInspectionNotFound
		}
		return dto.InspectionDetailResponse{}, err
	}

	requests, err := s.repo.ListRequestsByInspection(ctx, id)
	if err != nil {
		return dto.InspectionDetailResponse{}, err
	}

	hasPending := false
	for _, request := range requests {
		if request.IsPending() {
			hasPending = true
			break
		}
	}

	return dto.InspectionDetailResponse{
		Inspection:           dto.NewInspectionResponse(inspection),
		ModificationRequests: dto.NewModificationRequestResponses(requests),
		CanRequestModification: roles.CanAddInspection(viewer) &&
			roles.IsInspectionOwner(inspection, viewer) &&
			!hasPending,
		IsAdmin: roles.IsAdmin(viewer),
	}, nil
}

func (s *inspectionService) Create(ctx context.Context, actor models.User, payload dto.InspectionCreateRequest) (dto.InspectionResponse, error) {
	if !roles.CanAddInspection(actor) {
		return dto.InspectionResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.InspectionResponse{}, err
	}

	if _, err := s.patrimoines.GetByID(ctx, payload.PatrimoineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InspectionResponse{}, ErrPatrimoineNotFound
		}
		return dto.InspectionResponse{}, err
	}

	date, err := time.Parse("2006-01-02", payload.DateInspection)
	if err != nil {
		return dto.InspectionResponse{}, err
	}

	inspection := models.Inspection{
		PatrimoineID:   payload.PatrimoineID,
		InspecteurID:   actor.ID,
		DateInspection: date,
		Etat:           payload.Etat,
		Observations:   strings.TrimSpace(s.sanitizer.Sanitize(payload.Observations)),
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionCreate,
		EntityType: entityInspection,
		NewData:    inspectionSnapshot(inspection),
	})
	if err != nil {
		return dto.InspectionResponse{}, err
	}

	if err := s.repo.Create(ctx, &inspection, &audit); err != nil {
		s.logger.Error().Err(err).Uint("patrimoine_id", payload.PatrimoineID).Msg("failed to create inspection")
		return dto.InspectionResponse{}, err
	}

	s.logger.Info().Uint("inspection_id", inspection.ID).Uint("inspecteur_id", actor.ID).Msg("inspection recorded")
	return dto.NewInspectionResponse(inspection), nil
}

// SubmitModification opens a PENDING request holding the proposed replacement
// values. The inspection itself is untouched until an admin approves.
func (s *inspectionService) SubmitModification(ctx context.Context, actor models.User, inspectionID uint, payload dto.ModificationRequestCreate) (dto.ModificationRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.submit", trace.WithAttributes(
		attribute.Int("inspection.id", int(inspectionID)),
	))
	defer span.End()

	inspection, err := s.repo.GetByID(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ModificationRequestResponse{}, ErrInspectionNotFound
		}
		return dto.ModificationRequestResponse{}, err
	}

	if !roles.IsInspectionOwner(inspection, actor) {
		return dto.ModificationRequestResponse{}, ErrNotInspectionOwner
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ModificationRequestResponse{}, err
	}

	proposed := map[string]interface{}{
		models.ProposedKeyDate:         payload.DateInspection,
		models.ProposedKeyEtat:         payload.Etat,
		models.ProposedKeyObservations: strings.TrimSpace(s.sanitizer.Sanitize(payload.Observations)),
	}
	if err := proposedDataSchema.Validate(proposed); err != nil {
		return dto.ModificationRequestResponse{}, errors.Join(ErrInvalidProposedData, err)
	}

	pending := true
	request := models.InspectionModificationRequest{
		InspectionID: inspectionID,
		RequestedBy:  actor.ID,
		RequestedAt:  s.now(),
		Status:       models.RequestStatusPending,
		Pending:      &pending,
		ProposedData: datatypes.JSONMap(proposed),
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionRequestSubmit,
		EntityType: entityRequest,
		NewData:    proposed,
	})
	if err != nil {
		return dto.ModificationRequestResponse{}, err
	}

	if err := s.repo.CreateModification(ctx, &request, &audit); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ModificationRequestResponse{}, ErrPendingRequestExists
		}
		s.logger.Error().Err(err).Uint("inspection_id", inspectionID).Msg("failed to create modification request")
		return dto.ModificationRequestResponse{}, err
	}

	observability.WorkflowTransitions().WithLabelValues("submit").Inc()
	s.events.Publish(ctx, WorkflowEvent{
		Type:         EventRequestSubmitted,
		RequestID:    request.ID,
		InspectionID: inspectionID,
		ActorID:      actor.ID,
		OccurredAt:   request.RequestedAt,
	})

	s.logger.Info().Uint("request_id", request.ID).Uint("inspection_id", inspectionID).Msg("modification request submitted")
	return dto.NewModificationRequestResponse(request), nil
}

// ApproveModification applies the proposed values onto the inspection,
// transitions the request to APPROVED and records both audit entries, all in
// a single transaction.
func (s *inspectionService) ApproveModification(ctx context.Context, actor models.User, requestID uint, adminNote string) error {
	ctx, span := s.tracer.Start(ctx, "workflow.approve", trace.WithAttributes(
		attribute.Int("request.id", int(requestID)),
	))
	defer span.End()

	if !roles.IsAdmin(actor) {
		return ErrNotAuthorized
	}

	request, err := s.loadPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	proposed, err := parseProposedValues(request.ProposedData)
	if err != nil {
		return err
	}

	inspection := request.Inspection
	reviewedAt := s.now()
	note := strings.TrimSpace(s.sanitizer.Sanitize(adminNote))
	reviewer := actorFromUser(actor)

	approveAudit, err := BuildAuditLog(reviewer, AuditEntry{
		Action:     models.ActionRequestApprove,
		EntityType: entityRequest,
		EntityID:   request.ID,
		OldData:    map[string]interface{}{"status": models.RequestStatusPending},
		NewData: map[string]interface{}{
			"status":      models.RequestStatusApproved,
			"reviewed_by": actor.ID,
			"admin_note":  note,
		},
	})
	if err != nil {
		return err
	}

	updateAudit, err := BuildAuditLog(reviewer, AuditEntry{
		Action:     models.ActionUpdate,
		EntityType: entityInspection,
		EntityID:   inspection.ID,
		OldData:    inspectionSnapshot(inspection),
		NewData: map[string]interface{}{
			models.ProposedKeyDate:         proposed.DateInspection.Format("2006-01-02"),
			models.ProposedKeyEtat:         proposed.Etat,
			models.ProposedKeyObservations: proposed.Observations,
		},
	})
	if err != nil {
		return err
	}

	err = s.repo.ReviewModification(ctx, repository.ReviewParams{
		RequestID:    request.ID,
		InspectionID: inspection.ID,
		Status:       models.RequestStatusApproved,
		ReviewerID:   actor.ID,
		ReviewedAt:   reviewedAt,
		AdminNote:    note,
		Apply:        &proposed,
		AuditEntries: []models.AuditLog{approveAudit, updateAudit},
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return ErrRequestNotPending
		}
		s.logger.Error().Err(err).Uint("request_id", request.ID).Msg("approval transaction failed")
		return err
	}

	observability.WorkflowTransitions().WithLabelValues("approve").Inc()
	s.events.Publish(ctx, WorkflowEvent{
		Type:         EventRequestApproved,
		RequestID:    request.ID,
		InspectionID: inspection.ID,
		ActorID:      actor.ID,
		OccurredAt:   reviewedAt,
	})

	s.logger.Info().Uint("request_id", request.ID).Uint("inspection_id", inspection.ID).Msg("modification request approved")
	return nil
}

// RejectModification closes the request without touching the inspection.
func (s *inspectionService) RejectModification(ctx context.Context, actor models.User, requestID uint, adminNote string) error {
	ctx, span := s.tracer.Start(ctx, "workflow.reject", trace.WithAttributes(
		attribute.Int("request.id", int(requestID)),
	))
	defer span.End()

	if !roles.IsAdmin(actor) {
		return ErrNotAuthorized
	}

	request, err := s.loadPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	reviewedAt := s.now()
	note := strings.TrimSpace(s.sanitizer.Sanitize(adminNote))

	rejectAudit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionRequestReject,
		EntityType: entityRequest,
		EntityID:   request.ID,
		OldData:    map[string]interface{}{"status": models.RequestStatusPending},
		NewData: map[string]interface{}{
			"status":      models.RequestStatusRejected,
			"reviewed_by": actor.ID,
			"admin_note":  note,
		},
	})
	if err != nil {
		return err
	}

	err = s.repo.ReviewModification(ctx, repository.ReviewParams{
		RequestID:    request.ID,
		InspectionID: request.InspectionID,
		Status:       models.RequestStatusRejected,
		ReviewerID:   actor.ID,
		ReviewedAt:   reviewedAt,
		AdminNote:    note,
		AuditEntries: []models.AuditLog{rejectAudit},
	})
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return ErrRequestNotPending
		}
		s.logger.Error().Err(err).Uint("request_id", request.ID).Msg("rejection transaction failed")
		return err
	}

	observability.WorkflowTransitions().WithLabelValues("reject").Inc()
	s.events.Publish(ctx, WorkflowEvent{
		Type:         EventRequestRejected,
		RequestID:    request.ID,
		InspectionID: request.InspectionID,
		ActorID:      actor.ID,
		OccurredAt:   reviewedAt,
	})

	s.logger.Info().Uint("request_id", request.ID).Msg("modification request rejected")
	return nil
}

func (s *inspectionService) loadPendingRequest(ctx context.Context, requestID uint) (models.InspectionModificationRequest, error) {
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InspectionModificationRequest{}, ErrRequestNotFound
		}
		return models.InspectionModificationRequest{}, err
	}

	// The transactional review re-checks this; the early return just avoids
	// building snapshots for requests that are already closed.
	if !request.IsPending() {
		return models.InspectionModificationRequest{}, ErrRequestNotPending
	}

	return request, nil
}

func actorFromUser(user models.User) Actor {
	return Actor{ID: user.ID, Role: roles.Resolve(user)}
}

func inspectionSnapshot(inspection models.Inspection) map[string]interface{} {
	return map[string]interface{}{
		models.ProposedKeyDate:         inspection.DateInspection.Format("2006-01-02"),
		models.ProposedKeyEtat:         inspection.Etat,
		models.ProposedKeyObservations: inspection.Observations,
	}
}

func parseProposedValues(data datatypes.JSONMap) (repository.ProposedValues, error) {
	rawDate, _ := data[models.ProposedKeyDate].(string)
	etat, _ := data[models.ProposedKeyEtat].(string)
	observations, _ := data[models.ProposedKeyObservations].(string)

	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return repository.ProposedValues{}, errors.Join(ErrInvalidProposedData, err)
	}

	valid := false
	for _, candidate := range models.InspectionEtats {
		if etat == candidate {
			valid = true
			break
		}
	}
	if !valid {
		return repository.ProposedValues{}, ErrInvalidProposedData
	}

	return repository.ProposedValues{
		DateInspection: date,
		Etat:           etat,
		Observations:   observations,
	}, nil
}
