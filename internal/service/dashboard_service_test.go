package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
)

func TestDashboardAggregationAndRoleScopedCaching(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db, err := gorm.Open(sqlite.Open("file:dashboard_svc?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Group{}, &models.User{},
		&models.Region{}, &models.Province{}, &models.Commune{},
		&models.Patrimoine{}, &models.Inspection{},
		&models.InspectionModificationRequest{},
	))

	adminGroup := models.Group{Name: models.GroupAdmin}
	require.NoError(t, db.Create(&adminGroup).Error)
	admin := models.User{Username: "admin", Email: "admin@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{adminGroup}}
	visitor := models.User{Username: "visitor", Email: "visitor@patrimoine.ma", PasswordHash: "x"}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&visitor).Error)

	region := models.Region{NomRegion: "Souss-Massa"}
	require.NoError(t, db.Create(&region).Error)
	province := models.Province{NomProvince: "Taroudant", RegionID: region.ID}
	require.NoError(t, db.Create(&province).Error)
	commune := models.Commune{NomCommune: "Taroudant", ProvinceID: province.ID}
	require.NoError(t, db.Create(&commune).Error)

	sites := []models.Patrimoine{
		{NomFr: "Remparts", TypePatrimoine: models.PatrimoineTypeHistorique, Statut: models.PatrimoineStatutClasse, PolygonGeom: []byte(`{}`), CommuneID: commune.ID, CreatedByID: admin.ID},
		{NomFr: "Kasbah", TypePatrimoine: models.PatrimoineTypeHistorique, Statut: models.PatrimoineStatutEnEtude, PolygonGeom: []byte(`{}`), CommuneID: commune.ID, CreatedByID: admin.ID},
		{NomFr: "Vallée", TypePatrimoine: models.PatrimoineTypeNaturel, Statut: models.PatrimoineStatutInscrit, PolygonGeom: []byte(`{}`), CommuneID: commune.ID, CreatedByID: admin.ID},
	}
	for i := range sites {
		require.NoError(t, db.Create(&sites[i]).Error)
	}

	inspection := models.Inspection{PatrimoineID: sites[0].ID, InspecteurID: admin.ID, DateInspection: time.Now(), Etat: models.EtatBon}
	require.NoError(t, db.Create(&inspection).Error)

	open := true
	require.NoError(t, db.Create(&models.InspectionModificationRequest{
		InspectionID: inspection.ID,
		RequestedBy:  admin.ID,
		RequestedAt:  time.Now(),
		Status:       models.RequestStatusPending,
		Pending:      &open,
		ProposedData: map[string]interface{}{models.ProposedKeyEtat: models.EtatMoyen},
	}).Error)

	svc := NewDashboardService(
		repository.NewPatrimoineRepository(db),
		repository.NewInspectionRepository(db),
		redisClient, time.Minute, zerolog.Nop(),
	)

	ctx := context.Background()

	adminView, err := svc.Summary(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, "admin", adminView.Role)
	require.EqualValues(t, 2, adminView.PatrimoinesByType[models.PatrimoineTypeHistorique])
	require.EqualValues(t, 1, adminView.PatrimoinesByType[models.PatrimoineTypeNaturel])
	require.EqualValues(t, 1, adminView.InspectionsByEtat[models.EtatBon])
	require.NotNil(t, adminView.PendingRequests)
	require.EqualValues(t, 1, *adminView.PendingRequests)

	publicView, err := svc.Summary(ctx, visitor)
	require.NoError(t, err)
	require.Equal(t, "public", publicView.Role)
	require.Nil(t, publicView.PendingRequests)

	// Entries are cached per role, so the admin view keeps its pending count.
	require.True(t, mini.Exists("dashboard:admin"))
	require.True(t, mini.Exists("dashboard:public"))

	cached, err := svc.Summary(ctx, admin)
	require.NoError(t, err)
	require.NotNil(t, cached.PendingRequests)
}
