package models

import "time"

// Document types.
const (
	DocumentTypePDF      = "PDF"
	DocumentTypeImage    = "IMAGE"
	DocumentTypeOfficiel = "OFFICIEL"
	DocumentTypeAutre    = "AUTRE"
)

// Document is an uploaded file attached to a heritage site, inspection or
// intervention.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TypeDocument   string    `gorm:"size:50;not null" json:"type_document"`
	FileName       string    `gorm:"size:255;not null" json:"file_name"`
	FilePath       string    `gorm:"type:text;not null" json:"file_path"`
	FileSizeMB     float64   `gorm:"not null" json:"file_size_mb"`
	UploadedByID   uint      `gorm:"not null" json:"uploaded_by"`
	UploadedBy     User      `json:"-"`
	UploadedAt     time.Time `json:"uploaded_at"`
	PatrimoineID   *uint     `json:"patrimoine_id"`
	InspectionID   *uint     `json:"inspection_id"`
	InterventionID *uint     `json:"intervention_id"`
}
