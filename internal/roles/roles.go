// Package roles derives a user's effective role from account flags and group
// memberships and gates operations with pure predicates. Nothing in here
// touches the database: callers load the user (with groups) fresh per request
// so that membership changes take effect immediately.
package roles

import "github.com/patrimoine-ma/patrimoine-api/internal/models"

// Role is a user's single effective role.
type Role string

// Roles in precedence order. A superuser is always SUPERADMIN; a user in both
// ADMIN and INSPECTEUR resolves to ADMIN.
const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleInspecteur Role = "inspecteur"
	RolePublic     Role = "public"
)

// Resolve returns exactly one role for the user.
func Resolve(user models.User) Role {
	switch {
	case user.IsSuperuser:
		return RoleSuperadmin
	case user.InGroup(models.GroupAdmin):
		return RoleAdmin
	case user.InGroup(models.GroupInspecteur):
		return RoleInspecteur
	default:
		return RolePublic
	}
}

// CanView reports whether the user may read heritage records. Any
// authenticated account may.
func CanView(user models.User) bool {
	return user.ID != 0
}

// CanEdit reports whether the user may create or edit heritage records and
// interventions.
func CanEdit(user models.User) bool {
	return user.IsSuperuser || user.InGroup(models.GroupAdmin)
}

// CanAddInspection reports whether the user may record new inspections. Only
// INSPECTEUR group members may, superusers included only when they hold the
// group.
func CanAddInspection(user models.User) bool {
	return user.InGroup(models.GroupInspecteur)
}

// IsAdmin reports whether the user may review modification requests.
func IsAdmin(user models.User) bool {
	return user.IsSuperuser || user.InGroup(models.GroupAdmin)
}

// IsInspectionOwner reports whether the user is the inspector who created the
// inspection.
func IsInspectionOwner(inspection models.Inspection, user models.User) bool {
	return inspection.InspecteurID == user.ID
}

// CanDeleteDocument reports whether the user may delete the document: admins,
// superusers and the original uploader.
func CanDeleteDocument(document models.Document, user models.User) bool {
	return user.IsSuperuser || user.InGroup(models.GroupAdmin) || document.UploadedByID == user.ID
}
