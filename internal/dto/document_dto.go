package dto

import (
	"time"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// DocumentUploadRequest carries the metadata accompanying an upload.
type DocumentUploadRequest struct {
	TypeDocument   string `form:"type_document" json:"type_document" validate:"required,oneof=PDF IMAGE OFFICIEL AUTRE"`
	PatrimoineID   *uint  `form:"patrimoine_id" json:"patrimoine_id"`
	InspectionID   *uint  `form:"inspection_id" json:"inspection_id"`
	InterventionID *uint  `form:"intervention_id" json:"intervention_id"`
}

// DocumentResponse is the serialized document.
type DocumentResponse struct {
	ID             uint      `json:"id"`
	TypeDocument   string    `json:"type_document"`
	FileName       string    `json:"file_name"`
	FilePath       string    `json:"file_path"`
	FileSizeMB     float64   `json:"file_size_mb"`
	UploadedBy     uint      `json:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at"`
	PatrimoineID   *uint     `json:"patrimoine_id,omitempty"`
	InspectionID   *uint     `json:"inspection_id,omitempty"`
	InterventionID *uint     `json:"intervention_id,omitempty"`
}

// NewDocumentResponse converts a model into a DTO.
func NewDocumentResponse(model models.Document) DocumentResponse {
	return DocumentResponse{
		ID:             model.ID,
		TypeDocument:   model.TypeDocument,
		FileName:       model.FileName,
		FilePath:       model.FilePath,
		FileSizeMB:     model.FileSizeMB,
		UploadedBy:     model.UploadedByID,
		UploadedAt:     model.UploadedAt,
		PatrimoineID:   model.PatrimoineID,
		InspectionID:   model.InspectionID,
		InterventionID: model.InterventionID,
	}
}

// NewDocumentResponses converts a slice of models into DTOs.
func NewDocumentResponses(documents []models.Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		responses = append(responses, NewDocumentResponse(document))
	}
	return responses
}
