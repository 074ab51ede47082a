package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

func setupInspectionRepo(t *testing.T, dsn string) (*gorm.DB, InspectionRepository, models.Inspection) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Group{}, &models.User{},
		&models.Region{}, &models.Province{}, &models.Commune{},
		&models.Patrimoine{}, &models.Inspection{},
		&models.InspectionModificationRequest{}, &models.AuditLog{},
	))

	user := models.User{Username: "insp", Email: "insp@patrimoine.ma", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	region := models.Region{NomRegion: "Drâa-Tafilalet"}
	require.NoError(t, db.Create(&region).Error)
	province := models.Province{NomProvince: "Ouarzazate", RegionID: region.ID}
	require.NoError(t, db.Create(&province).Error)
	commune := models.Commune{NomCommune: "Aït Ben Haddou", ProvinceID: province.ID}
	require.NoError(t, db.Create(&commune).Error)

	patrimoine := models.Patrimoine{
		NomFr:          "Ksar d'Aït-Ben-Haddou",
		TypePatrimoine: models.PatrimoineTypeMondial,
		Statut:         models.PatrimoineStatutClasse,
		PolygonGeom:    []byte(`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`),
		CommuneID:      commune.ID,
		CreatedByID:    user.ID,
	}
	require.NoError(t, db.Create(&patrimoine).Error)

	inspection := models.Inspection{
		PatrimoineID:   patrimoine.ID,
		InspecteurID:   user.ID,
		DateInspection: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Etat:           models.EtatBon,
	}
	require.NoError(t, db.Create(&inspection).Error)

	return db, NewInspectionRepository(db), inspection
}

func pendingRequest(inspection models.Inspection, requestedBy uint) *models.InspectionModificationRequest {
	open := true
	return &models.InspectionModificationRequest{
		InspectionID: inspection.ID,
		RequestedBy:  requestedBy,
		RequestedAt:  time.Now().UTC(),
		Status:       models.RequestStatusPending,
		Pending:      &open,
		ProposedData: map[string]interface{}{
			models.ProposedKeyDate: "2025-03-01",
			models.ProposedKeyEtat: models.EtatMoyen,
		},
	}
}

func TestCreateModificationUniquePendingConstraint(t *testing.T) {
	db, repo, inspection := setupInspectionRepo(t, "file:repo_unique?mode=memory&cache=shared")
	ctx := context.Background()

	first := pendingRequest(inspection, inspection.InspecteurID)
	require.NoError(t, repo.CreateModification(ctx, first, &models.AuditLog{
		ActorID: inspection.InspecteurID, ActorRole: "inspecteur",
		Action: models.ActionRequestSubmit, EntityType: "inspection_modification_request",
	}))

	second := pendingRequest(inspection, inspection.InspecteurID)
	err := repo.CreateModification(ctx, second, &models.AuditLog{
		ActorID: inspection.InspecteurID, ActorRole: "inspecteur",
		Action: models.ActionRequestSubmit, EntityType: "inspection_modification_request",
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The rejected insert must not leave a stray audit entry behind.
	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&audits).Error)
	require.EqualValues(t, 1, audits)
}

func TestReviewModificationGuardsTerminalStates(t *testing.T) {
	db, repo, inspection := setupInspectionRepo(t, "file:repo_review?mode=memory&cache=shared")
	ctx := context.Background()

	request := pendingRequest(inspection, inspection.InspecteurID)
	require.NoError(t, repo.CreateModification(ctx, request, &models.AuditLog{
		ActorID: inspection.InspecteurID, ActorRole: "inspecteur",
		Action: models.ActionRequestSubmit, EntityType: "inspection_modification_request",
	}))

	reviewedAt := time.Now().UTC()
	params := ReviewParams{
		RequestID:    request.ID,
		InspectionID: inspection.ID,
		Status:       models.RequestStatusApproved,
		ReviewerID:   99,
		ReviewedAt:   reviewedAt,
		Apply: &ProposedValues{
			DateInspection: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Etat:           models.EtatMoyen,
			Observations:   "érosion",
		},
		AuditEntries: []models.AuditLog{{
			ActorID: 99, ActorRole: "admin",
			Action: models.ActionRequestApprove, EntityType: "inspection_modification_request", EntityID: request.ID,
		}},
	}
	require.NoError(t, repo.ReviewModification(ctx, params))

	var stored models.InspectionModificationRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	require.Equal(t, models.RequestStatusApproved, stored.Status)
	require.Nil(t, stored.Pending)

	var updated models.Inspection
	require.NoError(t, db.First(&updated, inspection.ID).Error)
	require.Equal(t, models.EtatMoyen, updated.Etat)
	require.Equal(t, "érosion", updated.Observations)

	// A second review of the same request loses the race and changes nothing.
	params.Status = models.RequestStatusRejected
	params.Apply = nil
	require.ErrorIs(t, repo.ReviewModification(ctx, params), ErrRequestNotPending)

	require.NoError(t, db.First(&stored, request.ID).Error)
	require.Equal(t, models.RequestStatusApproved, stored.Status)
}

func TestReviewedRequestFreesTheSlot(t *testing.T) {
	_, repo, inspection := setupInspectionRepo(t, "file:repo_slot?mode=memory&cache=shared")
	ctx := context.Background()

	first := pendingRequest(inspection, inspection.InspecteurID)
	require.NoError(t, repo.CreateModification(ctx, first, &models.AuditLog{
		ActorID: inspection.InspecteurID, ActorRole: "inspecteur",
		Action: models.ActionRequestSubmit, EntityType: "inspection_modification_request",
	}))

	require.NoError(t, repo.ReviewModification(ctx, ReviewParams{
		RequestID:    first.ID,
		InspectionID: inspection.ID,
		Status:       models.RequestStatusRejected,
		ReviewerID:   99,
		ReviewedAt:   time.Now().UTC(),
	}))

	// Pending is NULL after review, so the unique index admits a new request.
	second := pendingRequest(inspection, inspection.InspecteurID)
	require.NoError(t, repo.CreateModification(ctx, second, &models.AuditLog{
		ActorID: inspection.InspecteurID, ActorRole: "inspecteur",
		Action: models.ActionRequestSubmit, EntityType: "inspection_modification_request",
	}))

	pending, err := repo.ListPendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)

	count, err := repo.CountPendingRequests(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
