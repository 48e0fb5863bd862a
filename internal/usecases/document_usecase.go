package usecases

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".rtf":  true,
}

func allowedMediaType(mediaType string) bool {
	switch mediaType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"application/rtf",
		"text/rtf":
		return true
	}
	return false
}

const errFileType = "Only PDF, DOC, DOCX, TXT, and RTF files are allowed"

// UploadFile is the part of multipart.File the upload path needs.
type UploadFile interface {
	io.Reader
	io.Seeker
}

type UploadInput struct {
	CompanyID    string
	OriginalName string
	ContentType  string // As declared by the client
	Size         int64
	File         UploadFile
	Language     string
}

type DocumentUsecase struct {
	documents   interfaces.DocumentStore
	storage     interfaces.FileStorage
	extractor   interfaces.TextExtractor
	events      interfaces.EventPublisher
	maxFileSize int64
	logger      *zap.Logger
}

func NewDocumentUsecase(
	documents interfaces.DocumentStore,
	storage interfaces.FileStorage,
	extractor interfaces.TextExtractor,
	events interfaces.EventPublisher,
	maxFileSize int64,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		documents:   documents,
		storage:     storage,
		extractor:   extractor,
		events:      events,
		maxFileSize: maxFileSize,
		logger:      logger.Named("documents"),
	}
}

func baseMediaType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// resolveMediaType trusts the declared type unless it is missing or generic,
// in which case the leading bytes are sniffed. The reader is rewound afterwards.
func resolveMediaType(declared string, f UploadFile) (string, error) {
	mediaType := baseMediaType(declared)
	if mediaType != "" && mediaType != "application/octet-stream" {
		return mediaType, nil
	}
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to sniff upload type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	return baseMediaType(detected.String()), nil
}

func storedFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("document-%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), ext)
}

// Upload validates the file before anything touches disk, stores it, extracts its text
// and records it. The stored file is removed again when the record cannot be written.
func (uc *DocumentUsecase) Upload(ctx context.Context, in UploadInput) (*entities.Document, error) {
	if in.File == nil {
		return nil, apperrors.Validation("No file uploaded")
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(in.OriginalName))] {
		return nil, apperrors.Validation(errFileType)
	}
	if uc.maxFileSize > 0 && in.Size > uc.maxFileSize {
		return nil, apperrors.Validation(fmt.Sprintf("File too large. Maximum size is %d bytes", uc.maxFileSize))
	}
	mediaType, err := resolveMediaType(in.ContentType, in.File)
	if err != nil {
		return nil, err
	}
	if !allowedMediaType(mediaType) {
		return nil, apperrors.Validation(errFileType)
	}

	filename := storedFilename(in.OriginalName)
	path, err := uc.storage.Save(filename, in.File)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	content := uc.extractor.Extract(path, mediaType)
	lang := entities.Language(in.Language)
	if !lang.Valid() {
		lang = entities.DetectLanguage(content)
	}

	doc := &entities.Document{
		CompanyID:    in.CompanyID,
		Filename:     filename,
		OriginalName: in.OriginalName,
		MimeType:     mediaType,
		FileSize:     in.Size,
		Content:      content,
		Language:     lang,
	}
	if err := uc.documents.Create(ctx, doc); err != nil {
		if rmErr := uc.storage.Remove(filename); rmErr != nil {
			uc.logger.Warn("Failed to remove orphaned upload", zap.String("filename", filename), zap.Error(rmErr))
		}
		return nil, err
	}

	uc.logger.Info("Document uploaded",
		zap.String("company_id", doc.CompanyID),
		zap.String("document_id", doc.ID),
		zap.String("type", mediaType),
		zap.Int64("size", doc.FileSize),
		zap.String("language", string(lang)))

	uc.events.Publish(ctx, entities.Event{
		Type:      entities.EventDocumentUploaded,
		CompanyID: doc.CompanyID,
		Data: entities.DocumentUploadedPayload{
			ID:           doc.ID,
			OriginalName: doc.OriginalName,
			Language:     doc.Language,
			CreatedAt:    doc.CreatedAt,
		},
	})
	return doc, nil
}

func (uc *DocumentUsecase) List(ctx context.Context, companyID string, f entities.DocumentFilter) ([]entities.Document, entities.Pagination, error) {
	docs, total, err := uc.documents.List(ctx, companyID, f)
	if err != nil {
		return nil, entities.Pagination{}, err
	}
	return docs, entities.NewPagination(f.Page, f.Limit, total), nil
}

func (uc *DocumentUsecase) Get(ctx context.Context, companyID, id string) (*entities.Document, error) {
	return uc.documents.Get(ctx, companyID, id)
}

func (uc *DocumentUsecase) Delete(ctx context.Context, companyID, id string) error {
	doc, err := uc.documents.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := uc.storage.Remove(doc.Filename); err != nil {
		uc.logger.Warn("Failed to remove document file", zap.String("filename", doc.Filename), zap.Error(err))
	}
	if err := uc.documents.Delete(ctx, companyID, id); err != nil {
		return err
	}

	uc.events.Publish(ctx, entities.Event{
		Type:      entities.EventDocumentDeleted,
		CompanyID: companyID,
		Data:      entities.DocumentDeletedPayload{ID: id},
	})
	return nil
}
