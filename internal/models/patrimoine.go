package models

import (
	"time"

	"gorm.io/datatypes"
)

// Patrimoine classification types.
const (
	PatrimoineTypeMondial    = "MONDIAL"
	PatrimoineTypeNaturel    = "NATUREL"
	PatrimoineTypeHistorique = "HISTORIQUE"
	PatrimoineTypeAutre      = "AUTRE"
)

// Patrimoine protection statuses.
const (
	PatrimoineStatutClasse  = "CLASSE"
	PatrimoineStatutInscrit = "INSCRIT"
	PatrimoineStatutEnEtude = "EN_ETUDE"
	PatrimoineStatutAutre   = "AUTRE"
)

// PatrimoineTypes lists the accepted classification values.
var PatrimoineTypes = []string{PatrimoineTypeMondial, PatrimoineTypeNaturel, PatrimoineTypeHistorique, PatrimoineTypeAutre}

// PatrimoineStatuts lists the accepted protection statuses.
var PatrimoineStatuts = []string{PatrimoineStatutClasse, PatrimoineStatutInscrit, PatrimoineStatutEnEtude, PatrimoineStatutAutre}

// Patrimoine is a registered heritage site with polygon geometry.
type Patrimoine struct {
	ID                      uint           `gorm:"primaryKey" json:"id"`
	NomFr                   string         `gorm:"size:300;not null" json:"nom_fr"`
	NomAr                   string         `gorm:"size:300" json:"nom_ar"`
	Description             string         `gorm:"type:text" json:"description"`
	TypePatrimoine          string         `gorm:"size:50;not null" json:"type_patrimoine"`
	Statut                  string         `gorm:"size:50;not null;default:EN_ETUDE" json:"statut"`
	ReferenceAdministrative string         `gorm:"size:100" json:"reference_administrative"`
	PolygonGeom             datatypes.JSON `gorm:"not null" json:"polygon_geom"`
	CentroidGeom            datatypes.JSON `json:"centroid_geom"`
	CommuneID               uint           `gorm:"not null" json:"commune_id"`
	Commune                 Commune        `json:"-"`
	CreatedByID             uint           `gorm:"not null" json:"created_by"`
	CreatedBy               User           `json:"-"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}
