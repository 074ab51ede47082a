package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// GeoRepository serves the reference geography lookups backing the cascading
// region/province/commune selectors.
type GeoRepository interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	ListProvincesByRegion(ctx context.Context, regionID uint) ([]models.Province, error)
	ListCommunesByProvince(ctx context.Context, provinceID uint) ([]models.Commune, error)
	GetCommune(ctx context.Context, id uint) (models.Commune, error)
}

type geoRepository struct {
	db *gorm.DB
}

// NewGeoRepository instantiates a GORM-backed repository.
func NewGeoRepository(db *gorm.DB) GeoRepository {
	return &geoRepository{db: db}
}

func (r *geoRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := r.db.WithContext(ctx).Order("nom_region ASC").Find(&regions).Error; err != nil {
		return nil, err
	}
	return regions, nil
}

func (r *geoRepository) ListProvincesByRegion(ctx context.Context, regionID uint) ([]models.Province, error) {
	var provinces []models.Province
	if err := r.db.WithContext(ctx).Where("region_id = ?", regionID).Order("nom_province ASC").Find(&provinces).Error; err != nil {
		return nil, err
	}
	return provinces, nil
}

func (r *geoRepository) ListCommunesByProvince(ctx context.Context, provinceID uint) ([]models.Commune, error) {
	var communes []models.Commune
	if err := r.db.WithContext(ctx).Where("province_id = ?", provinceID).Order("nom_commune ASC").Find(&communes).Error; err != nil {
		return nil, err
	}
	return communes, nil
}

func (r *geoRepository) GetCommune(ctx context.Context, id uint) (models.Commune, error) {
	var commune models.Commune
	if err := r.db.WithContext(ctx).Preload("Province.Region").First(&commune, id).Error; err != nil {
		return models.Commune{}, err
	}
	return commune, nil
}
