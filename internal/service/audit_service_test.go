package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

func TestNormalizeSnapshotCanonicalForms(t *testing.T) {
	when := time.Date(2025, 6, 15, 10, 30, 0, 0, time.FixedZone("WET", 3600))

	normalized := NormalizeSnapshot(map[string]interface{}{
		"reviewed_at": when,
		"count":       json.Number("42"),
		"ratio":       float32(0.5),
		"entity_id":   uint(7),
		"nested": map[string]interface{}{
			"archived_at": &when,
		},
		"history": []interface{}{int64(3), "BON"},
		"note":    "inchangé",
	})

	require.Equal(t, "2025-06-15T09:30:00Z", normalized["reviewed_at"])
	require.Equal(t, float64(42), normalized["count"])
	require.Equal(t, float64(0.5), normalized["ratio"])
	require.Equal(t, float64(7), normalized["entity_id"])
	require.Equal(t, "inchangé", normalized["note"])

	nested, ok := normalized["nested"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "2025-06-15T09:30:00Z", nested["archived_at"])

	history, ok := normalized["history"].([]interface{})
	require.True(t, ok)
	require.Equal(t, float64(3), history[0])
	require.Equal(t, "BON", history[1])
}

func TestNormalizeSnapshotNil(t *testing.T) {
	require.Nil(t, NormalizeSnapshot(nil))
}

func TestBuildAuditLogRequiresActionAndEntity(t *testing.T) {
	actor := Actor{ID: 5, Role: roles.RoleAdmin}

	_, err := BuildAuditLog(actor, AuditEntry{EntityType: "inspection"})
	require.Error(t, err)

	_, err = BuildAuditLog(actor, AuditEntry{Action: models.ActionCreate})
	require.Error(t, err)

	entry, err := BuildAuditLog(actor, AuditEntry{
		Action:     models.ActionCreate,
		EntityType: "inspection",
		EntityID:   12,
		NewData:    map[string]interface{}{"etat": models.EtatBon},
	})
	require.NoError(t, err)
	require.Equal(t, uint(5), entry.ActorID)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, uint(12), entry.EntityID)
	require.Equal(t, models.EtatBon, entry.NewData["etat"])
}
