package roles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

func userIn(superuser bool, groups ...string) models.User {
	user := models.User{ID: 1, IsSuperuser: superuser}
	for i, name := range groups {
		user.Groups = append(user.Groups, models.Group{ID: uint(i + 1), Name: name})
	}
	return user
}

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name string
		user models.User
		want Role
	}{
		{"superuser outranks groups", userIn(true, models.GroupInspecteur), RoleSuperadmin},
		{"superuser without groups", userIn(true), RoleSuperadmin},
		{"admin and inspecteur resolves to admin", userIn(false, models.GroupAdmin, models.GroupInspecteur), RoleAdmin},
		{"inspecteur only", userIn(false, models.GroupInspecteur), RoleInspecteur},
		{"no groups", userIn(false), RolePublic},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Resolve(tc.user))
		})
	}
}

func TestCanEditAndIsAdmin(t *testing.T) {
	require.True(t, CanEdit(userIn(true)))
	require.True(t, CanEdit(userIn(false, models.GroupAdmin)))
	require.False(t, CanEdit(userIn(false, models.GroupInspecteur)))

	require.True(t, IsAdmin(userIn(true)))
	require.True(t, IsAdmin(userIn(false, models.GroupAdmin)))
	require.False(t, IsAdmin(userIn(false)))
}

func TestCanAddInspectionRequiresGroup(t *testing.T) {
	require.True(t, CanAddInspection(userIn(false, models.GroupInspecteur)))
	require.False(t, CanAddInspection(userIn(false, models.GroupAdmin)))
	require.False(t, CanAddInspection(userIn(true)), "superuser without the group cannot add inspections")
}

func TestOwnershipAndDocumentDeletion(t *testing.T) {
	inspection := models.Inspection{ID: 7, InspecteurID: 3}
	owner := models.User{ID: 3}
	other := models.User{ID: 4}
	require.True(t, IsInspectionOwner(inspection, owner))
	require.False(t, IsInspectionOwner(inspection, other))

	doc := models.Document{ID: 1, UploadedByID: 9}
	require.True(t, CanDeleteDocument(doc, models.User{ID: 9}))
	require.True(t, CanDeleteDocument(doc, userIn(false, models.GroupAdmin)))
	require.True(t, CanDeleteDocument(doc, userIn(true)))
	require.False(t, CanDeleteDocument(doc, models.User{ID: 2}))
}

func TestCanView(t *testing.T) {
	require.True(t, CanView(userIn(false)))
	require.False(t, CanView(models.User{}))
}
