package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/dto"
	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/observability"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentTooLarge     = errors.New("document exceeds the size limit")
	ErrMissingAttachment    = errors.New("document must reference a patrimoine, inspection or intervention")
	ErrDocumentTypeMismatch = errors.New("file content does not match the declared document type")
)

const entityDocument = "document"

// allowedMIMEs maps declared document types to the content types accepted for
// them, verified against the actual bytes rather than the file extension.
var allowedMIMEs = map[string][]string{
	models.DocumentTypePDF:      {"application/pdf"},
	models.DocumentTypeImage:    {"image/jpeg", "image/png", "image/webp", "image/tiff"},
	models.DocumentTypeOfficiel: {"application/pdf"},
	models.DocumentTypeAutre: {
		"application/pdf", "image/jpeg", "image/png", "image/webp",
		"application/zip", "text/plain; charset=utf-8",
	},
}

// FileStorage is the port documents are written through. The Cloudinary
// adapter in pkg/cloudinary satisfies it.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// DocumentService manages uploaded files attached to registry entities.
type DocumentService interface {
	List(ctx context.Context) ([]dto.DocumentResponse, error)
	Upload(ctx context.Context, actor models.User, payload dto.DocumentUploadRequest, fileName string, content []byte) (dto.DocumentResponse, error)
	Delete(ctx context.Context, actor models.User, id uint) error
}

type documentService struct {
	repo      repository.DocumentRepository
	storage   FileStorage
	validator *validator.Validate
	maxSizeMB float64
	logger    zerolog.Logger
}

// NewDocumentService constructs the document service.
func NewDocumentService(repo repository.DocumentRepository, storage FileStorage, validate *validator.Validate, maxSizeMB float64, logger zerolog.Logger) DocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &documentService{
		repo:      repo,
		storage:   storage,
		validator: validate,
		maxSizeMB: maxSizeMB,
		logger:    logger.With().Str("component", "document_service").Logger(),
	}
}

func (s *documentService) List(ctx context.Context) ([]dto.DocumentResponse, error) {
	documents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewDocumentResponses(documents), nil
}

func (s *documentService) Upload(ctx context.Context, actor models.User, payload dto.DocumentUploadRequest, fileName string, content []byte) (dto.DocumentResponse, error) {
	if !roles.CanEdit(actor) {
		return dto.DocumentResponse{}, ErrNotAuthorized
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, err
	}

	if payload.PatrimoineID == nil && payload.InspectionID == nil && payload.InterventionID == nil {
		return dto.DocumentResponse{}, ErrMissingAttachment
	}

	sizeMB := float64(len(content)) / (1024 * 1024)
	if sizeMB > s.maxSizeMB {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return dto.DocumentResponse{}, ErrDocumentTooLarge
	}

	detected := mimetype.Detect(content)
	if !mimeAllowed(payload.TypeDocument, detected.String()) {
		observability.UploadRejected().WithLabelValues("mime_mismatch").Inc()
		s.logger.Warn().Str("declared", payload.TypeDocument).Str("detected", detected.String()).Msg("upload rejected on content type")
		return dto.DocumentResponse{}, ErrDocumentTypeMismatch
	}

	start := time.Now()
	url, err := s.storage.Upload(ctx, fileName, bytes.NewReader(content))
	if err != nil {
		s.logger.Error().Err(err).Str("file_name", fileName).Msg("storage upload failed")
		return dto.DocumentResponse{}, err
	}
	observability.UploadLatency().Observe(time.Since(start).Seconds())

	document := models.Document{
		TypeDocument:   payload.TypeDocument,
		FileName:       fileName,
		FilePath:       url,
		FileSizeMB:     sizeMB,
		UploadedByID:   actor.ID,
		UploadedAt:     time.Now(),
		PatrimoineID:   payload.PatrimoineID,
		InspectionID:   payload.InspectionID,
		InterventionID: payload.InterventionID,
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionCreate,
		EntityType: entityDocument,
		NewData: map[string]interface{}{
			"type_document": document.TypeDocument,
			"file_name":     document.FileName,
			"file_size_mb":  document.FileSizeMB,
		},
	})
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	if err := s.repo.Create(ctx, &document, &audit); err != nil {
		s.logger.Error().Err(err).Str("file_name", fileName).Msg("failed to persist document")
		return dto.DocumentResponse{}, err
	}

	s.logger.Info().Uint("document_id", document.ID).Str("file_name", fileName).Msg("document uploaded")
	return dto.NewDocumentResponse(document), nil
}

// Delete is allowed for superusers and for the original uploader.
func (s *documentService) Delete(ctx context.Context, actor models.User, id uint) error {
	document, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if !roles.CanDeleteDocument(document, actor) {
		return ErrNotAuthorized
	}

	audit, err := BuildAuditLog(actorFromUser(actor), AuditEntry{
		Action:     models.ActionDelete,
		EntityType: entityDocument,
		EntityID:   document.ID,
		OldData: map[string]interface{}{
			"type_document": document.TypeDocument,
			"file_name":     document.FileName,
			"file_path":     document.FilePath,
		},
	})
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, &audit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	s.logger.Info().Uint("document_id", id).Msg("document deleted")
	return nil
}

func mimeAllowed(documentType, detected string) bool {
	for _, candidate := range allowedMIMEs[documentType] {
		if detected == candidate {
			return true
		}
	}
	return false
}
