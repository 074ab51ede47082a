package dto

import (
	"time"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// InterventionCreateRequest describes the payload for planning an intervention.
type InterventionCreateRequest struct {
	PatrimoineID     uint   `form:"patrimoine_id" json:"patrimoine_id" validate:"required"`
	NomProjet        string `form:"nom_projet" json:"nom_projet" validate:"required,min=2,max=300"`
	TypeIntervention string `form:"type_intervention" json:"type_intervention" validate:"required,oneof=RESTAURATION REHABILITATION AUTRE"`
	DateDebut        string `form:"date_debut" json:"date_debut" validate:"required,datetime=2006-01-02"`
	DateFin          string `form:"date_fin" json:"date_fin" validate:"omitempty,datetime=2006-01-02"`
	Prestataire      string `form:"prestataire" json:"prestataire" validate:"max=300"`
	Description      string `form:"description" json:"description"`
}

// InterventionUpdateRequest describes a partial intervention update.
type InterventionUpdateRequest struct {
	NomProjet   *string `form:"nom_projet" json:"nom_projet" validate:"omitempty,min=2,max=300"`
	Statut      *string `form:"statut" json:"statut" validate:"omitempty,oneof=PLANIFIEE EN_COURS SUSPENDUE TERMINEE ANNULEE"`
	DateFin     *string `form:"date_fin" json:"date_fin" validate:"omitempty,datetime=2006-01-02"`
	Prestataire *string `form:"prestataire" json:"prestataire" validate:"omitempty,max=300"`
	Description *string `form:"description" json:"description"`
}

// InterventionResponse is the serialized intervention.
type InterventionResponse struct {
	ID               uint      `json:"id"`
	PatrimoineID     uint      `json:"patrimoine_id"`
	PatrimoineNom    string    `json:"patrimoine_nom,omitempty"`
	NomProjet        string    `json:"nom_projet"`
	TypeIntervention string    `json:"type_intervention"`
	DateDebut        string    `json:"date_debut"`
	DateFin          string    `json:"date_fin,omitempty"`
	Prestataire      string    `json:"prestataire,omitempty"`
	Description      string    `json:"description,omitempty"`
	Statut           string    `json:"statut"`
	CreatedBy        uint      `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewInterventionResponse converts a model into a DTO.
func NewInterventionResponse(model models.Intervention) InterventionResponse {
	response := InterventionResponse{
		ID:               model.ID,
		PatrimoineID:     model.PatrimoineID,
		PatrimoineNom:    model.Patrimoine.NomFr,
		NomProjet:        model.NomProjet,
		TypeIntervention: model.TypeIntervention,
		DateDebut:        model.DateDebut.Format(dateLayout),
		Prestataire:      model.Prestataire,
		Description:      model.Description,
		Statut:           model.Statut,
		CreatedBy:        model.CreatedByID,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.DateFin != nil {
		response.DateFin = model.DateFin.Format(dateLayout)
	}

	return response
}
