package dto

import (
	"encoding/json"
	"time"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// PatrimoineCreateRequest describes the payload for registering a heritage site.
type PatrimoineCreateRequest struct {
	NomFr                   string `form:"nom_fr" json:"nom_fr" validate:"required,min=2,max=300"`
	NomAr                   string `form:"nom_ar" json:"nom_ar" validate:"max=300"`
	Description             string `form:"description" json:"description"`
	TypePatrimoine          string `form:"type_patrimoine" json:"type_patrimoine" validate:"required,oneof=MONDIAL NATUREL HISTORIQUE AUTRE"`
	Statut                  string `form:"statut" json:"statut" validate:"omitempty,oneof=CLASSE INSCRIT EN_ETUDE AUTRE"`
	ReferenceAdministrative string `form:"reference_administrative" json:"reference_administrative" validate:"max=100"`
	GeoJSON                 string `form:"geojson" json:"geojson" validate:"required"`
	CommuneID               uint   `form:"commune_id" json:"commune_id" validate:"required"`
}

// PatrimoineUpdateRequest describes a partial update; geometry is optional.
type PatrimoineUpdateRequest struct {
	NomFr                   *string `form:"nom_fr" json:"nom_fr" validate:"omitempty,min=2,max=300"`
	NomAr                   *string `form:"nom_ar" json:"nom_ar" validate:"omitempty,max=300"`
	Description             *string `form:"description" json:"description"`
	TypePatrimoine          *string `form:"type_patrimoine" json:"type_patrimoine" validate:"omitempty,oneof=MONDIAL NATUREL HISTORIQUE AUTRE"`
	Statut                  *string `form:"statut" json:"statut" validate:"omitempty,oneof=CLASSE INSCRIT EN_ETUDE AUTRE"`
	ReferenceAdministrative *string `form:"reference_administrative" json:"reference_administrative" validate:"omitempty,max=100"`
	GeoJSON                 *string `form:"geojson" json:"geojson"`
	CommuneID               *uint   `form:"commune_id" json:"commune_id"`
}

// PatrimoineListRequest captures list filters.
type PatrimoineListRequest struct {
	Search   string
	Type     string
	Statut   string
	RegionID uint
	Page     int
	PageSize int
}

// PatrimoineResponse is the serialized heritage site.
type PatrimoineResponse struct {
	ID                      uint            `json:"id"`
	NomFr                   string          `json:"nom_fr"`
	NomAr                   string          `json:"nom_ar,omitempty"`
	Description             string          `json:"description,omitempty"`
	TypePatrimoine          string          `json:"type_patrimoine"`
	Statut                  string          `json:"statut"`
	ReferenceAdministrative string          `json:"reference_administrative,omitempty"`
	PolygonGeom             json.RawMessage `json:"polygon_geom,omitempty"`
	CentroidGeom            json.RawMessage `json:"centroid_geom,omitempty"`
	CommuneID               uint            `json:"commune_id"`
	FullLocation            string          `json:"full_location,omitempty"`
	CreatedBy               uint            `json:"created_by"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// PatrimoineListResponse wraps a page of heritage sites.
type PatrimoineListResponse struct {
	Items      []PatrimoineResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewPatrimoineResponse converts a model into a DTO.
func NewPatrimoineResponse(model models.Patrimoine) PatrimoineResponse {
	response := PatrimoineResponse{
		ID:                      model.ID,
		NomFr:                   model.NomFr,
		NomAr:                   model.NomAr,
		Description:             model.Description,
		TypePatrimoine:          model.TypePatrimoine,
		Statut:                  model.Statut,
		ReferenceAdministrative: model.ReferenceAdministrative,
		PolygonGeom:             json.RawMessage(model.PolygonGeom),
		CentroidGeom:            json.RawMessage(model.CentroidGeom),
		CommuneID:               model.CommuneID,
		CreatedBy:               model.CreatedByID,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
	}

	if model.Commune.ID != 0 {
		response.FullLocation = model.Commune.Province.Region.NomRegion +
			" > " + model.Commune.Province.NomProvince +
			" > " + model.Commune.NomCommune
	}

	return response
}
