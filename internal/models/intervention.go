package models

import "time"

// Intervention types.
const (
	InterventionTypeRestauration   = "RESTAURATION"
	InterventionTypeRehabilitation = "REHABILITATION"
	InterventionTypeAutre          = "AUTRE"
)

// Intervention statuses.
const (
	InterventionStatutPlanifiee = "PLANIFIEE"
	InterventionStatutEnCours   = "EN_COURS"
	InterventionStatutSuspendue = "SUSPENDUE"
	InterventionStatutTerminee  = "TERMINEE"
	InterventionStatutAnnulee   = "ANNULEE"
)

// InterventionTypes lists the accepted intervention types.
var InterventionTypes = []string{InterventionTypeRestauration, InterventionTypeRehabilitation, InterventionTypeAutre}

// InterventionStatuts lists the accepted intervention statuses.
var InterventionStatuts = []string{InterventionStatutPlanifiee, InterventionStatutEnCours, InterventionStatutSuspendue, InterventionStatutTerminee, InterventionStatutAnnulee}

// Intervention is a planned or executed restoration project on a heritage site.
type Intervention struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	PatrimoineID     uint       `gorm:"not null" json:"patrimoine_id"`
	Patrimoine       Patrimoine `json:"-"`
	NomProjet        string     `gorm:"size:300;not null" json:"nom_projet"`
	TypeIntervention string     `gorm:"size:50;not null" json:"type_intervention"`
	DateDebut        time.Time  `gorm:"not null" json:"date_debut"`
	DateFin          *time.Time `json:"date_fin"`
	Prestataire      string     `gorm:"size:300" json:"prestataire"`
	Description      string     `gorm:"type:text" json:"description"`
	Statut           string     `gorm:"size:50;not null;default:PLANIFIEE" json:"statut"`
	DateValidation   *time.Time `json:"date_validation"`
	CreatedByID      uint       `gorm:"not null" json:"created_by"`
	CreatedBy        User       `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
