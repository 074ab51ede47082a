package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
)

func setupPatrimoineService(t *testing.T, dsn string) (*gorm.DB, PatrimoineService, models.User, models.User, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Group{}, &models.User{},
		&models.Region{}, &models.Province{}, &models.Commune{},
		&models.Patrimoine{}, &models.AuditLog{},
	))

	adminGroup := models.Group{Name: models.GroupAdmin}
	require.NoError(t, db.Create(&adminGroup).Error)
	admin := models.User{Username: "admin", Email: "admin@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{adminGroup}}
	superuser := models.User{Username: "root", Email: "root@patrimoine.ma", PasswordHash: "x", IsSuperuser: true}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&superuser).Error)

	region := models.Region{NomRegion: "Casablanca-Settat"}
	require.NoError(t, db.Create(&region).Error)
	province := models.Province{NomProvince: "Casablanca", RegionID: region.ID}
	require.NoError(t, db.Create(&province).Error)
	commune := models.Commune{NomCommune: "Casablanca", ProvinceID: province.ID}
	require.NoError(t, db.Create(&commune).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewPatrimoineService(
		repository.NewPatrimoineRepository(db),
		repository.NewGeoRepository(db),
		validate, zerolog.Nop(),
	)

	return db, svc, admin, superuser, commune.ID
}

func TestPatrimoineCreateNormalizesGeometry(t *testing.T) {
	db, svc, admin, _, communeID := setupPatrimoineService(t, "file:pat_create?mode=memory&cache=shared")
	ctx := context.Background()

	payload := dto.PatrimoineCreateRequest{
		NomFr:          "Ancienne médina",
		TypePatrimoine: models.PatrimoineTypeHistorique,
		GeoJSON:        `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`,
		CommuneID:      communeID,
	}

	created, err := svc.Create(ctx, admin, payload)
	require.NoError(t, err)
	require.Equal(t, models.PatrimoineStatutEnEtude, created.Statut)
	// A single polygon is promoted to a multipolygon with a computed centroid.
	require.Contains(t, string(created.PolygonGeom), "MultiPolygon")
	require.Contains(t, string(created.CentroidGeom), "Point")
	require.Contains(t, created.FullLocation, "Casablanca")

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", models.ActionCreate).Count(&audits).Error)
	require.EqualValues(t, 1, audits)
}

func TestPatrimoineCreateRejectsBadGeometry(t *testing.T) {
	_, svc, admin, _, communeID := setupPatrimoineService(t, "file:pat_geom?mode=memory&cache=shared")
	ctx := context.Background()

	payload := dto.PatrimoineCreateRequest{
		NomFr:          "Site invalide",
		TypePatrimoine: models.PatrimoineTypeAutre,
		GeoJSON:        `{"type":"Point","coordinates":[1,1]}`,
		CommuneID:      communeID,
	}

	_, err := svc.Create(ctx, admin, payload)
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestPatrimoineDeleteSuperuserOnly(t *testing.T) {
	db, svc, admin, superuser, communeID := setupPatrimoineService(t, "file:pat_delete?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, dto.PatrimoineCreateRequest{
		NomFr:          "Phare d'El Hank",
		TypePatrimoine: models.PatrimoineTypeHistorique,
		GeoJSON:        `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`,
		CommuneID:      communeID,
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, admin, created.ID), ErrNotAuthorized)
	require.NoError(t, svc.Delete(ctx, superuser, created.ID))

	var count int64
	require.NoError(t, db.Model(&models.Patrimoine{}).Count(&count).Error)
	require.Zero(t, count)

	var deleteAudits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", models.ActionDelete).Count(&deleteAudits).Error)
	require.EqualValues(t, 1, deleteAudits)
}
