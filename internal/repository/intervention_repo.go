package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// InterventionRepository defines persistence for restoration projects.
type InterventionRepository interface {
	List(ctx context.Context) ([]models.Intervention, error)
	GetByID(ctx context.Context, id uint) (models.Intervention, error)
	Create(ctx context.Context, intervention *models.Intervention, audit *models.AuditLog) error
	Update(ctx context.Context, intervention *models.Intervention, audit *models.AuditLog) error
}

type interventionRepository struct {
	db *gorm.DB
}

// NewInterventionRepository instantiates a GORM-backed repository.
func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepository{db: db}
}

func (r *interventionRepository) List(ctx context.Context) ([]models.Intervention, error) {
	var interventions []models.Intervention
	err := r.db.WithContext(ctx).
		Preload("Patrimoine").
		Preload("CreatedBy").
		Order("date_debut DESC").
		Find(&interventions).Error
	if err != nil {
		return nil, err
	}
	return interventions, nil
}

func (r *interventionRepository) GetByID(ctx context.Context, id uint) (models.Intervention, error) {
	var intervention models.Intervention
	if err := r.db.WithContext(ctx).Preload("Patrimoine").First(&intervention, id).Error; err != nil {
		return models.Intervention{}, err
	}
	return intervention, nil
}

func (r *interventionRepository) Create(ctx context.Context, intervention *models.Intervention, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(intervention).Error; err != nil {
			return err
		}
		audit.EntityID = intervention.ID
		return tx.Create(audit).Error
	})
}

func (r *interventionRepository) Update(ctx context.Context, intervention *models.Intervention, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(intervention).Error; err != nil {
			return err
		}
		return tx.Create(audit).Error
	})
}
