package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// ErrRequestNotPending signals that a review targeted a request another
// reviewer already closed. The caller treats it as a quiet no-op.
var ErrRequestNotPending = errors.New("modification request is not pending")

// ProposedValues are the replacement fields applied to an inspection when a
// modification request is approved.
type ProposedValues struct {
	DateInspection time.Time
	Etat           string
	Observations   string
}

// ReviewParams describes one terminal transition of a modification request.
// The transition, the optional apply onto the inspection and the audit
// entries commit in a single transaction: either all of it happens or none.
type ReviewParams struct {
	RequestID    uint
	InspectionID uint
	Status       string
	ReviewerID   uint
	ReviewedAt   time.Time
	AdminNote    string
	// Apply is set only for approvals.
	Apply        *ProposedValues
	AuditEntries []models.AuditLog
}

// InspectionRepository defines persistence for inspections and their
// modification requests.
type InspectionRepository interface {
	List(ctx context.Context) ([]models.Inspection, error)
	GetByID(ctx context.Context, id uint) (models.Inspection, error)
	Create(ctx context.Context, inspection *models.Inspection, audit *models.AuditLog) error
	CountByEtat(ctx context.Context) (map[string]int64, error)

	CreateModification(ctx context.Context, request *models.InspectionModificationRequest, audit *models.AuditLog) error
	GetRequestByID(ctx context.Context, id uint) (models.InspectionModificationRequest, error)
	ListRequestsByInspection(ctx context.Context, inspectionID uint) ([]models.InspectionModificationRequest, error)
	ListPendingRequests(ctx context.Context) ([]models.InspectionModificationRequest, error)
	CountPendingRequests(ctx context.Context) (int64, error)
	ReviewModification(ctx context.Context, params ReviewParams) error
}

type inspectionRepository struct {
	db *gorm.DB
}

// NewInspectionRepository instantiates a GORM-backed repository.
func NewInspectionRepository(db *gorm.DB) InspectionRepository {
	return &inspectionRepository{db: db}
}

func (r *inspectionRepository) List(ctx context.Context) ([]models.Inspection, error) {
	var inspections []models.Inspection
	err := r.db.WithContext(ctx).
		Preload("Patrimoine").
		Preload("Inspecteur").
		Order("date_inspection DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, err
	}
	return inspections, nil
}

func (r *inspectionRepository) GetByID(ctx context.Context, id uint) (models.Inspection, error) {
	var inspection models.Inspection
	err := r.db.WithContext(ctx).
		Preload("Patrimoine").
		Preload("Inspecteur").
		First(&inspection, id).Error
	if err != nil {
		return models.Inspection{}, err
	}
	return inspection, nil
}

func (r *inspectionRepository) Create(ctx context.Context, inspection *models.Inspection, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inspection).Error; err != nil {
			return err
		}
		audit.EntityID = inspection.ID
		return tx.Create(audit).Error
	})
}

func (r *inspectionRepository) CountByEtat(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Etat  string
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Inspection{}).
		Select("etat, COUNT(*) AS total").
		Group("etat").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Etat] = r.Total
	}
	return counts, nil
}

// CreateModification inserts a new PENDING request together with its audit
// entry. The unique index over (inspection_id, pending) rejects a second open
// request; that surfaces as gorm.ErrDuplicatedKey and nothing is written.
func (r *inspectionRepository) CreateModification(ctx context.Context, request *models.InspectionModificationRequest, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		audit.EntityID = request.ID
		return tx.Create(audit).Error
	})
}

func (r *inspectionRepository) GetRequestByID(ctx context.Context, id uint) (models.InspectionModificationRequest, error) {
	var request models.InspectionModificationRequest
	err := r.db.WithContext(ctx).
		Preload("Inspection").
		Preload("Requester").
		First(&request, id).Error
	if err != nil {
		return models.InspectionModificationRequest{}, err
	}
	return request, nil
}

func (r *inspectionRepository) ListRequestsByInspection(ctx context.Context, inspectionID uint) ([]models.InspectionModificationRequest, error) {
	var requests []models.InspectionModificationRequest
	err := r.db.WithContext(ctx).
		Where("inspection_id = ?", inspectionID).
		Order("requested_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *inspectionRepository) ListPendingRequests(ctx context.Context) ([]models.InspectionModificationRequest, error) {
	var requests []models.InspectionModificationRequest
	err := r.db.WithContext(ctx).
		Preload("Inspection.Patrimoine").
		Preload("Requester").
		Where("status = ?", models.RequestStatusPending).
		Order("requested_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *inspectionRepository) CountPendingRequests(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.InspectionModificationRequest{}).
		Where("status = ?", models.RequestStatusPending).
		Count(&total).Error
	return total, err
}

// ReviewModification performs one terminal transition. The UPDATE is guarded
// on status = PENDING, so when two reviewers race only the first commit wins;
// the loser sees ErrRequestNotPending and the transaction rolls back with no
// partial application.
func (r *inspectionRepository) ReviewModification(ctx context.Context, params ReviewParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InspectionModificationRequest{}).
			Where("id = ? AND status = ?", params.RequestID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":      params.Status,
				"reviewed_by": params.ReviewerID,
				"reviewed_at": params.ReviewedAt,
				"admin_note":  params.AdminNote,
				"pending":     nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRequestNotPending
		}

		if params.Apply != nil {
			err := tx.Model(&models.Inspection{}).
				Where("id = ?", params.InspectionID).
				Updates(map[string]interface{}{
					"date_inspection": params.Apply.DateInspection,
					"etat":            params.Apply.Etat,
					"observations":    params.Apply.Observations,
					"updated_at":      params.ReviewedAt,
				}).Error
			if err != nil {
				return err
			}
		}

		if len(params.AuditEntries) > 0 {
			if err := tx.Create(&params.AuditEntries).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
