package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
)

type workflowFixture struct {
	db         *gorm.DB
	svc        InspectionService
	inspector  models.User
	outsider   models.User
	admin      models.User
	inspection models.Inspection
}

func setupWorkflow(t *testing.T, dsn string) *workflowFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Group{}, &models.User{},
		&models.Region{}, &models.Province{}, &models.Commune{},
		&models.Patrimoine{}, &models.Inspection{},
		&models.InspectionModificationRequest{}, &models.AuditLog{},
	))

	adminGroup := models.Group{Name: models.GroupAdmin}
	inspecteurGroup := models.Group{Name: models.GroupInspecteur}
	require.NoError(t, db.Create(&adminGroup).Error)
	require.NoError(t, db.Create(&inspecteurGroup).Error)

	inspector := models.User{Username: "rachid", Email: "rachid@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{inspecteurGroup}}
	outsider := models.User{Username: "sara", Email: "sara@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{inspecteurGroup}}
	admin := models.User{Username: "amina", Email: "amina@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{adminGroup}}
	require.NoError(t, db.Create(&inspector).Error)
	require.NoError(t, db.Create(&outsider).Error)
	require.NoError(t, db.Create(&admin).Error)

	region := models.Region{NomRegion: "Fès-Meknès"}
	require.NoError(t, db.Create(&region).Error)
	province := models.Province{NomProvince: "Fès", RegionID: region.ID}
	require.NoError(t, db.Create(&province).Error)
	commune := models.Commune{NomCommune: "Fès", ProvinceID: province.ID}
	require.NoError(t, db.Create(&commune).Error)

	patrimoine := models.Patrimoine{
		NomFr:          "Médina de Fès",
		TypePatrimoine: models.PatrimoineTypeMondial,
		Statut:         models.PatrimoineStatutClasse,
		PolygonGeom:    []byte(`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`),
		CommuneID:      commune.ID,
		CreatedByID:    admin.ID,
	}
	require.NoError(t, db.Create(&patrimoine).Error)

	inspection := models.Inspection{
		PatrimoineID:   patrimoine.ID,
		InspecteurID:   inspector.ID,
		DateInspection: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Etat:           models.EtatBon,
		Observations:   "façade intacte",
	}
	require.NoError(t, db.Create(&inspection).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := NewWorkflowEventPublisher(nil, "", zerolog.Nop())
	svc := NewInspectionService(
		repository.NewInspectionRepository(db),
		repository.NewPatrimoineRepository(db),
		validate, events, zerolog.Nop(),
	)

	return &workflowFixture{
		db:         db,
		svc:        svc,
		inspector:  inspector,
		outsider:   outsider,
		admin:      admin,
		inspection: inspection,
	}
}

func proposedPayload() dto.ModificationRequestCreate {
	return dto.ModificationRequestCreate{
		DateInspection: "2025-04-01",
		Etat:           models.EtatDegrade,
		Observations:   "fissures sur le mur nord",
	}
}

func TestSubmitModificationOwnerOnly(t *testing.T) {
	f := setupWorkflow(t, "file:wf_owner?mode=memory&cache=shared")
	ctx := context.Background()

	_, err := f.svc.SubmitModification(ctx, f.outsider, f.inspection.ID, proposedPayload())
	require.ErrorIs(t, err, ErrNotInspectionOwner)

	response, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, response.Status)
	require.Equal(t, models.EtatDegrade, response.ProposedData[models.ProposedKeyEtat])

	var audits []models.AuditLog
	require.NoError(t, f.db.Where("action = ?", models.ActionRequestSubmit).Find(&audits).Error)
	require.Len(t, audits, 1)
	require.Equal(t, f.inspector.ID, audits[0].ActorID)
}

func TestSubmitModificationSecondPendingRejected(t *testing.T) {
	f := setupWorkflow(t, "file:wf_dup?mode=memory&cache=shared")
	ctx := context.Background()

	_, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)

	_, err = f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.ErrorIs(t, err, ErrPendingRequestExists)

	var count int64
	require.NoError(t, f.db.Model(&models.InspectionModificationRequest{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestApproveModificationAppliesProposedValues(t *testing.T) {
	f := setupWorkflow(t, "file:wf_approve?mode=memory&cache=shared")
	ctx := context.Background()

	submitted, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.ApproveModification(ctx, f.inspector, submitted.ID, "ok"), ErrNotAuthorized)

	require.NoError(t, f.svc.ApproveModification(ctx, f.admin, submitted.ID, "validé"))

	var request models.InspectionModificationRequest
	require.NoError(t, f.db.First(&request, submitted.ID).Error)
	require.Equal(t, models.RequestStatusApproved, request.Status)
	require.Nil(t, request.Pending)
	require.NotNil(t, request.ReviewedBy)
	require.Equal(t, f.admin.ID, *request.ReviewedBy)
	require.Equal(t, "validé", request.AdminNote)

	var inspection models.Inspection
	require.NoError(t, f.db.First(&inspection, f.inspection.ID).Error)
	require.Equal(t, models.EtatDegrade, inspection.Etat)
	require.Equal(t, "fissures sur le mur nord", inspection.Observations)
	require.Equal(t, "2025-04-01", inspection.DateInspection.Format("2006-01-02"))

	var approveAudits, updateAudits int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", models.ActionRequestApprove).Count(&approveAudits).Error)
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ? AND entity_type = ?", models.ActionUpdate, "inspection").Count(&updateAudits).Error)
	require.EqualValues(t, 1, approveAudits)
	require.EqualValues(t, 1, updateAudits)
}

func TestRejectModificationLeavesInspectionUntouched(t *testing.T) {
	f := setupWorkflow(t, "file:wf_reject?mode=memory&cache=shared")
	ctx := context.Background()

	submitted, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectModification(ctx, f.admin, submitted.ID, "hors périmètre"))

	var request models.InspectionModificationRequest
	require.NoError(t, f.db.First(&request, submitted.ID).Error)
	require.Equal(t, models.RequestStatusRejected, request.Status)
	require.Nil(t, request.Pending)

	var inspection models.Inspection
	require.NoError(t, f.db.First(&inspection, f.inspection.ID).Error)
	require.Equal(t, models.EtatBon, inspection.Etat)
	require.Equal(t, "façade intacte", inspection.Observations)
}

func TestReviewClosedRequestIsNoOp(t *testing.T) {
	f := setupWorkflow(t, "file:wf_closed?mode=memory&cache=shared")
	ctx := context.Background()

	submitted, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectModification(ctx, f.admin, submitted.ID, ""))

	require.ErrorIs(t, f.svc.ApproveModification(ctx, f.admin, submitted.ID, ""), ErrRequestNotPending)

	var inspection models.Inspection
	require.NoError(t, f.db.First(&inspection, f.inspection.ID).Error)
	require.Equal(t, models.EtatBon, inspection.Etat)

	// After a rejection the inspection is free for a new request.
	_, err = f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, proposedPayload())
	require.NoError(t, err)
}

func TestSubmitModificationValidatesProposedData(t *testing.T) {
	f := setupWorkflow(t, "file:wf_invalid?mode=memory&cache=shared")
	ctx := context.Background()

	payload := proposedPayload()
	payload.Etat = "RUINE"
	_, err := f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, payload)
	require.Error(t, err)

	payload = proposedPayload()
	payload.DateInspection = "01/04/2025"
	_, err = f.svc.SubmitModification(ctx, f.inspector, f.inspection.ID, payload)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.InspectionModificationRequest{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateInspectionRequiresInspectorGroup(t *testing.T) {
	f := setupWorkflow(t, "file:wf_create?mode=memory&cache=shared")
	ctx := context.Background()

	payload := dto.InspectionCreateRequest{
		PatrimoineID:   f.inspection.PatrimoineID,
		DateInspection: "2025-05-02",
		Etat:           models.EtatMoyen,
		Observations:   "<script>alert(1)</script>toiture à surveiller",
	}

	_, err := f.svc.Create(ctx, f.admin, payload)
	require.ErrorIs(t, err, ErrNotAuthorized)

	created, err := f.svc.Create(ctx, f.inspector, payload)
	require.NoError(t, err)
	require.Equal(t, models.EtatMoyen, created.Etat)
	require.Equal(t, "toiture à surveiller", created.Observations)
}
