package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// PatrimoineFilter describes search and pagination options for heritage sites.
type PatrimoineFilter struct {
	Search   string
	Type     string
	Statut   string
	RegionID *uint
	Page     int
	PageSize int
}

// PatrimoineRepository defines persistence operations for heritage sites.
// Mutating operations take the audit entry describing them so the record and
// its trail commit in one transaction.
type PatrimoineRepository interface {
	ListWithFilter(ctx context.Context, filter PatrimoineFilter) ([]models.Patrimoine, int64, error)
	GetByID(ctx context.Context, id uint) (models.Patrimoine, error)
	ListByCommune(ctx context.Context, communeID uint) ([]models.Patrimoine, error)
	Create(ctx context.Context, patrimoine *models.Patrimoine, audit *models.AuditLog) error
	Update(ctx context.Context, patrimoine *models.Patrimoine, audit *models.AuditLog) error
	Delete(ctx context.Context, id uint, audit *models.AuditLog) error
	CountByType(ctx context.Context) (map[string]int64, error)
	CountByStatut(ctx context.Context) (map[string]int64, error)
}

type patrimoineRepository struct {
	db *gorm.DB
}

// NewPatrimoineRepository instantiates a GORM-backed repository.
func NewPatrimoineRepository(db *gorm.DB) PatrimoineRepository {
	return &patrimoineRepository{db: db}
}

func (r *patrimoineRepository) ListWithFilter(ctx context.Context, filter PatrimoineFilter) ([]models.Patrimoine, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Patrimoine{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(nom_fr) LIKE ?", pattern)
	}

	if filter.Type != "" {
		query = query.Where("type_patrimoine = ?", filter.Type)
	}

	if filter.Statut != "" {
		query = query.Where("statut = ?", filter.Statut)
	}

	if filter.RegionID != nil {
		query = query.
			Joins("JOIN communes ON communes.id = patrimoines.commune_id").
			Joins("JOIN provinces ON provinces.id = communes.province_id").
			Where("provinces.region_id = ?", *filter.RegionID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var patrimoines []models.Patrimoine
	if err := query.Preload("Commune.Province.Region").Order("patrimoines.nom_fr ASC").Find(&patrimoines).Error; err != nil {
		return nil, 0, err
	}

	return patrimoines, total, nil
}

func (r *patrimoineRepository) GetByID(ctx context.Context, id uint) (models.Patrimoine, error) {
	var patrimoine models.Patrimoine
	if err := r.db.WithContext(ctx).Preload("Commune.Province.Region").First(&patrimoine, id).Error; err != nil {
		return models.Patrimoine{}, err
	}
	return patrimoine, nil
}

func (r *patrimoineRepository) ListByCommune(ctx context.Context, communeID uint) ([]models.Patrimoine, error) {
	var patrimoines []models.Patrimoine
	if err := r.db.WithContext(ctx).Where("commune_id = ?", communeID).Order("nom_fr ASC").Find(&patrimoines).Error; err != nil {
		return nil, err
	}
	return patrimoines, nil
}

func (r *patrimoineRepository) Create(ctx context.Context, patrimoine *models.Patrimoine, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(patrimoine).Error; err != nil {
			return err
		}
		audit.EntityID = patrimoine.ID
		return tx.Create(audit).Error
	})
}

func (r *patrimoineRepository) Update(ctx context.Context, patrimoine *models.Patrimoine, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(patrimoine).Error; err != nil {
			return err
		}
		return tx.Create(audit).Error
	})
}

func (r *patrimoineRepository) Delete(ctx context.Context, id uint, audit *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Patrimoine{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(audit).Error
	})
}

func (r *patrimoineRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	return r.groupedCount(ctx, "type_patrimoine")
}

func (r *patrimoineRepository) CountByStatut(ctx context.Context) (map[string]int64, error) {
	return r.groupedCount(ctx, "statut")
}

func (r *patrimoineRepository) groupedCount(ctx context.Context, column string) (map[string]int64, error) {
	type row struct {
		Key   string
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Patrimoine{}).
		Select(column + " AS key, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Total
	}
	return counts, nil
}
