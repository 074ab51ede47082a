package models

import (
	"time"

	"gorm.io/datatypes"
)

// Inspection condition states.
const (
	EtatBon     = "BON"
	EtatMoyen   = "MOYEN"
	EtatDegrade = "DEGRADE"
)

// InspectionEtats lists the accepted condition states.
var InspectionEtats = []string{EtatBon, EtatMoyen, EtatDegrade}

// Inspection is a dated condition assessment of a heritage site.
type Inspection struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	PatrimoineID   uint       `gorm:"not null" json:"patrimoine_id"`
	Patrimoine     Patrimoine `json:"-"`
	InspecteurID   uint       `gorm:"not null" json:"inspecteur_id"`
	Inspecteur     User       `json:"-"`
	DateInspection time.Time  `gorm:"not null" json:"date_inspection"`
	Etat           string     `gorm:"size:50;not null" json:"etat"`
	Observations   string     `gorm:"type:text" json:"observations"`
	ArchivedAt     *time.Time `json:"archived_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Modification request statuses. APPROVED and REJECTED are terminal.
const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

// Keys expected inside a modification request's proposed data payload.
const (
	ProposedKeyDate         = "date_inspection"
	ProposedKeyEtat         = "etat"
	ProposedKeyObservations = "observations"
)

// InspectionModificationRequest is an inspector's proposed change to an
// inspection, awaiting admin review.
//
// Pending is TRUE while the request is open and NULL once reviewed; the
// composite unique index with InspectionID therefore allows at most one open
// request per inspection, enforced by the database even under concurrent
// submissions.
type InspectionModificationRequest struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	InspectionID uint              `gorm:"not null;uniqueIndex:uniq_pending_per_inspection" json:"inspection_id"`
	Inspection   Inspection        `json:"-"`
	RequestedBy  uint              `gorm:"not null" json:"requested_by"`
	Requester    User              `gorm:"foreignKey:RequestedBy" json:"-"`
	RequestedAt  time.Time         `gorm:"not null" json:"requested_at"`
	Status       string            `gorm:"size:50;not null;default:PENDING" json:"status"`
	Pending      *bool             `gorm:"uniqueIndex:uniq_pending_per_inspection" json:"-"`
	ReviewedBy   *uint             `json:"reviewed_by"`
	Reviewer     *User             `gorm:"foreignKey:ReviewedBy" json:"-"`
	ReviewedAt   *time.Time        `json:"reviewed_at"`
	AdminNote    string            `gorm:"type:text" json:"admin_note"`
	ProposedData datatypes.JSONMap `gorm:"not null" json:"proposed_data"`
}

// IsPending reports whether the request is still open for review.
func (r InspectionModificationRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
