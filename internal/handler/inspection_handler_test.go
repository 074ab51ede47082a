package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/config"
	"github.com/patrimoine-ma/patrimoine-api/internal/handler"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/router"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
)

type workflowApp struct {
	app        *fiber.App
	db         *gorm.DB
	inspector  models.User
	admin      models.User
	inspection models.Inspection
}

func setupWorkflowApp(t *testing.T, dsn string) *workflowApp {
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

	inspector := models.User{Username: "insp", Email: "insp@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{inspecteurGroup}}
	admin := models.User{Username: "admin", Email: "admin@patrimoine.ma", PasswordHash: "x", Groups: []models.Group{adminGroup}}
	require.NoError(t, db.Create(&inspector).Error)
	require.NoError(t, db.Create(&admin).Error)

	region := models.Region{NomRegion: "Oriental"}
	require.NoError(t, db.Create(&region).Error)
	province := models.Province{NomProvince: "Oujda-Angad", RegionID: region.ID}
	require.NoError(t, db.Create(&province).Error)
	commune := models.Commune{NomCommune: "Oujda", ProvinceID: province.ID}
	require.NoError(t, db.Create(&commune).Error)

	patrimoine := models.Patrimoine{
		NomFr:          "Médina d'Oujda",
		TypePatrimoine: models.PatrimoineTypeHistorique,
		Statut:         models.PatrimoineStatutInscrit,
		PolygonGeom:    []byte(`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`),
		CommuneID:      commune.ID,
		CreatedByID:    admin.ID,
	}
	require.NoError(t, db.Create(&patrimoine).Error)

	inspection := models.Inspection{
		PatrimoineID:   patrimoine.ID,
		InspecteurID:   inspector.ID,
		DateInspection: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		Etat:           models.EtatBon,
	}
	require.NoError(t, db.Create(&inspection).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()
	userRepo := repository.NewUserRepository(db)
	events := service.NewWorkflowEventPublisher(nil, "", logger)
	inspectionService := service.NewInspectionService(
		repository.NewInspectionRepository(db),
		repository.NewPatrimoineRepository(db),
		validate, events, logger,
	)

	app := fiber.New()

	// Identity stub: X-Test-User selects the acting account, loaded with its
	// groups like the real middleware does.
	identity := func(c *fiber.Ctx) error {
		login := c.Get("X-Test-User")
		if login == "" {
			return c.Next()
		}
		user, err := userRepo.FindByLogin(c.UserContext(), login)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("current_user", user)
		return c.Next()
	}

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		InspectionHandler:  handler.NewInspectionHandler(inspectionService, logger),
		JWTMiddleware:      func(c *fiber.Ctx) error { return c.Next() },
		IdentityMiddleware: identity,
	})

	return &workflowApp{app: app, db: db, inspector: inspector, admin: admin, inspection: inspection}
}

func postForm(t *testing.T, app *fiber.App, user, path string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp
}

func requireRedirect(t *testing.T, resp *http.Response, prefix, flash string) {
	t.Helper()
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, prefix), "unexpected redirect target %q", location)
	if flash != "" {
		require.Contains(t, location, "flash="+url.QueryEscape(flash))
	}
}

func TestInspectionReadsRequireIdentity(t *testing.T) {
	f := setupWorkflowApp(t, "file:handler_view?mode=memory&cache=shared")

	req := httptest.NewRequest("GET", "/inspections/", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	req = httptest.NewRequest("GET", "/inspections/", nil)
	req.Header.Set("X-Test-User", "insp")
	resp, err = f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestRequestEditRedirectFlow(t *testing.T) {
	f := setupWorkflowApp(t, "file:handler_flow?mode=memory&cache=shared")

	form := url.Values{
		"date_inspection": {"2025-02-15"},
		"etat":            {models.EtatDegrade},
		"observations":    {"toiture endommagée"},
	}

	path := "/inspections/1/request-edit/"
	detail := "/inspections/1/"

	// Only the owning inspector may open a request.
	resp := postForm(t, f.app, "admin", path, form)
	requireRedirect(t, resp, detail, "seul l'inspecteur de cette inspection peut demander une modification")

	resp = postForm(t, f.app, "insp", path, form)
	requireRedirect(t, resp, detail, "demande de modification envoyée")

	// A second open request bounces back with a flash, nothing is written.
	resp = postForm(t, f.app, "insp", path, form)
	requireRedirect(t, resp, detail, "une demande de modification est déjà en attente")

	var count int64
	require.NoError(t, f.db.Model(&models.InspectionModificationRequest{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestReviewRedirectFlow(t *testing.T) {
	f := setupWorkflowApp(t, "file:handler_review?mode=memory&cache=shared")

	form := url.Values{
		"date_inspection": {"2025-02-15"},
		"etat":            {models.EtatMoyen},
		"observations":    {"enduit fissuré"},
	}
	resp := postForm(t, f.app, "insp", "/inspections/1/request-edit/", form)
	requireRedirect(t, resp, "/inspections/1/", "")

	var request models.InspectionModificationRequest
	require.NoError(t, f.db.First(&request).Error)

	// Inspectors may not review.
	resp = postForm(t, f.app, "insp", "/inspection-requests/1/approve/", url.Values{})
	requireRedirect(t, resp, "/inspections/", "réservé aux administrateurs")

	resp = postForm(t, f.app, "admin", "/inspection-requests/1/approve/", url.Values{"admin_note": {"ok"}})
	requireRedirect(t, resp, "/inspections/", "demande approuvée et inspection mise à jour")

	var inspection models.Inspection
	require.NoError(t, f.db.First(&inspection, f.inspection.ID).Error)
	require.Equal(t, models.EtatMoyen, inspection.Etat)

	// Reviewing a closed request is a quiet no-op redirect.
	resp = postForm(t, f.app, "admin", "/inspection-requests/1/reject/", url.Values{})
	requireRedirect(t, resp, "/inspections/", "cette demande a déjà été traitée")

	require.NoError(t, f.db.First(&inspection, f.inspection.ID).Error)
	require.Equal(t, models.EtatMoyen, inspection.Etat)
}
