package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
)

func setupUserAdminService(t *testing.T, dsn string) (*gorm.DB, repository.UserRepository, UserAdminService, models.User, models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Group{}, &models.User{}, &models.AuditLog{}))

	for _, name := range []string{models.GroupAdmin, models.GroupInspecteur} {
		require.NoError(t, db.Create(&models.Group{Name: name}).Error)
	}

	superuser := models.User{Username: "root", Email: "root@patrimoine.ma", PasswordHash: "x", IsSuperuser: true}
	target := models.User{Username: "staff", Email: "staff@patrimoine.ma", PasswordHash: "x"}
	require.NoError(t, db.Create(&superuser).Error)
	require.NoError(t, db.Create(&target).Error)

	userRepo := repository.NewUserRepository(db)
	svc := NewUserAdminService(userRepo, zerolog.Nop())

	return db, userRepo, svc, superuser, target
}

func TestUserAdminToggleGroup(t *testing.T) {
	db, userRepo, svc, superuser, target := setupUserAdminService(t, "file:useradmin_svc?mode=memory&cache=shared")
	ctx := context.Background()

	_, err := svc.ToggleGroup(ctx, target, superuser.ID, models.GroupAdmin)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.ToggleGroup(ctx, superuser, target.ID, "WIZARDS")
	require.ErrorIs(t, err, ErrUnknownGroup)

	granted, err := svc.ToggleGroup(ctx, superuser, target.ID, models.GroupInspecteur)
	require.NoError(t, err)
	require.True(t, granted.Member)

	reloaded, err := userRepo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, reloaded.InGroup(models.GroupInspecteur))

	revoked, err := svc.ToggleGroup(ctx, superuser, target.ID, models.GroupInspecteur)
	require.NoError(t, err)
	require.False(t, revoked.Member)

	var audits []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.ActionGroupToggle).Order("id ASC").Find(&audits).Error)
	require.Len(t, audits, 2)
	require.Equal(t, true, audits[0].NewData["member"])
	require.Equal(t, false, audits[1].NewData["member"])
}

func TestToggleGroupRollsBackWithoutAudit(t *testing.T) {
	db, userRepo, svc, superuser, target := setupUserAdminService(t, "file:useradmin_rollback?mode=memory&cache=shared")
	ctx := context.Background()

	// With the audit table gone the entry cannot be written; the membership
	// flip must not survive on its own.
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	_, err := svc.ToggleGroup(ctx, superuser, target.ID, models.GroupInspecteur)
	require.Error(t, err)

	reloaded, err := userRepo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.False(t, reloaded.InGroup(models.GroupInspecteur))
}
