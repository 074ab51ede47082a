package dto

import (
	"time"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// InspectionCreateRequest describes the payload for recording an inspection.
type InspectionCreateRequest struct {
	PatrimoineID   uint   `form:"patrimoine_id" json:"patrimoine_id" validate:"required"`
	DateInspection string `form:"date_inspection" json:"date_inspection" validate:"required,datetime=2006-01-02"`
	Etat           string `form:"etat" json:"etat" validate:"required,oneof=BON MOYEN DEGRADE"`
	Observations   string `form:"observations" json:"observations"`
}

// ModificationRequestCreate carries the proposed replacement values.
type ModificationRequestCreate struct {
	DateInspection string `form:"date_inspection" json:"date_inspection" validate:"required,datetime=2006-01-02"`
	Etat           string `form:"etat" json:"etat" validate:"required,oneof=BON MOYEN DEGRADE"`
	Observations   string `form:"observations" json:"observations"`
}

// InspectionResponse is the serialized inspection.
type InspectionResponse struct {
	ID             uint       `json:"id"`
	PatrimoineID   uint       `json:"patrimoine_id"`
	PatrimoineNom  string     `json:"patrimoine_nom,omitempty"`
	InspecteurID   uint       `json:"inspecteur_id"`
	DateInspection string     `json:"date_inspection"`
	Etat           string     `json:"etat"`
	Observations   string     `json:"observations,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ModificationRequestResponse is the serialized modification request.
type ModificationRequestResponse struct {
	ID           uint                   `json:"id"`
	InspectionID uint                   `json:"inspection_id"`
	RequestedBy  uint                   `json:"requested_by"`
	RequestedAt  time.Time              `json:"requested_at"`
	Status       string                 `json:"status"`
	ReviewedBy   *uint                  `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time             `json:"reviewed_at,omitempty"`
	AdminNote    string                 `json:"admin_note,omitempty"`
	ProposedData map[string]interface{} `json:"proposed_data"`
}

// InspectionDetailResponse pairs an inspection with its request history.
type InspectionDetailResponse struct {
	Inspection             InspectionResponse            `json:"inspection"`
	ModificationRequests   []ModificationRequestResponse `json:"modification_requests"`
	CanRequestModification bool                          `json:"can_request_modification"`
	IsAdmin                bool                          `json:"is_admin"`
}

// InspectionListResponse pairs inspections with the admin review queue.
type InspectionListResponse struct {
	Inspections     []InspectionResponse          `json:"inspections"`
	PendingRequests []ModificationRequestResponse `json:"pending_requests,omitempty"`
	CanAdd          bool                          `json:"can_add"`
	IsAdmin         bool                          `json:"is_admin"`
}

// NewInspectionResponse converts a model into a DTO.
func NewInspectionResponse(model models.Inspection) InspectionResponse {
	return InspectionResponse{
		ID:             model.ID,
		PatrimoineID:   model.PatrimoineID,
		PatrimoineNom:  model.Patrimoine.NomFr,
		InspecteurID:   model.InspecteurID,
		DateInspection: model.DateInspection.Format(dateLayout),
		Etat:           model.Etat,
		Observations:   model.Observations,
		ArchivedAt:     model.ArchivedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewModificationRequestResponse converts a model into a DTO.
func NewModificationRequestResponse(model models.InspectionModificationRequest) ModificationRequestResponse {
	return ModificationRequestResponse{
		ID:           model.ID,
		InspectionID: model.InspectionID,
		RequestedBy:  model.RequestedBy,
		RequestedAt:  model.RequestedAt,
		Status:       model.Status,
		ReviewedBy:   model.ReviewedBy,
		ReviewedAt:   model.ReviewedAt,
		AdminNote:    model.AdminNote,
		ProposedData: model.ProposedData,
	}
}

// NewModificationRequestResponses converts a slice of models into DTOs.
func NewModificationRequestResponses(requests []models.InspectionModificationRequest) []ModificationRequestResponse {
	responses := make([]ModificationRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, NewModificationRequestResponse(request))
	}
	return responses
}
