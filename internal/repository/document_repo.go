package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// DocumentRepository defines persistence for uploaded documents.
type DocumentRepository interface {
	List(ctx context.Context) ([]models.Document, error)
	GetByID(ctx context.Context, id uint) (models.Document, error)
	Create(ctx context.Context, document *models.Document, audit *models.AuditLog) error
	Delete(ctx context.Context, id uint, audit *models.AuditLog) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository instantiates a GORM-backed repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) List(ctx context.Context) ([]models.Document, error) {
	var documents []models.Document
	if err := r.db.WithContext(ctx).Preload("UploadedBy").Order("uploaded_at DESC").Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return err
		}
		audit.EntityID = document.ID
		return tx.Create(audit).Error
	})
}

func (r *documentRepository) Delete(ctx context.Context, id uint, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Document{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(audit).Error
	})
}
