package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/models"
	"fra-atlas/internal/repository"
	"fra-atlas/pkg/antivirus"
	"fra-atlas/pkg/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var allowedMimeTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// UploadInput is one multipart file as received by the handler.
type UploadInput struct {
	Reader       io.Reader
	OriginalName string
	MimeType     string
	Size         int64
	UserID       *uuid.UUID
}

type UploadService struct {
	files     repository.FileStore
	ocr       *OCRService
	scanner   antivirus.Scanner
	notify    notifier
	uploadDir string
	maxBytes  int64
	logger    *zap.Logger
}

func NewUploadService(
	files repository.FileStore,
	ocr *OCRService,
	scanner antivirus.Scanner,
	publisher events.Publisher,
	uploadDir string,
	maxBytes int64,
	logger *zap.Logger,
) *UploadService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}
	if scanner == nil {
		scanner = antivirus.Disabled{}
	}

	return &UploadService{
		files:     files,
		ocr:       ocr,
		scanner:   scanner,
		notify:    notifier{publisher: publisher, logger: logger},
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the binary, records it and runs OCR. Size and type are
// checked before anything is written. When OCR fails the file record is
// left in the failed state and ErrProcessing is returned.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error) {
	if in.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, in.Size, s.maxBytes)
	}
	mimeType := normalizeMimeType(in.MimeType, in.OriginalName)
	ext, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, in.MimeType)
	}

	fileID := uuid.New()
	storedName := fileID.String() + ext
	path := filepath.Join(s.uploadDir, storedName)

	size, err := s.save(path, in.Reader)
	if err != nil {
		return nil, err
	}

	if err := s.scan(ctx, path); err != nil {
		os.Remove(path)
		return nil, err
	}

	file := &models.UploadedFile{
		ID:           fileID,
		FileName:     storedName,
		OriginalName: sanitizeUTF8(filepath.Base(in.OriginalName)),
		MimeType:     mimeType,
		FileSize:     size,
		Status:       models.FileStatusUploaded,
		UserID:       in.UserID,
	}
	if err := s.files.CreateFile(ctx, file); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	s.notify.file(ctx, events.SubjectFileUploaded, file)

	if file, err = s.advance(ctx, file, models.FileStatusProcessing); err != nil {
		return nil, err
	}

	rec, err := s.ocr.ProcessFile(ctx, path, mimeType)
	if err != nil {
		s.logger.Error("OCR failed", zap.String("file_id", file.ID.String()), zap.Error(err))
		if failed, ferr := s.advance(context.WithoutCancel(ctx), file, models.FileStatusFailed); ferr != nil {
			s.logger.Error("Failed to mark file failed", zap.Error(ferr))
		} else {
			s.notify.file(ctx, events.SubjectFileFailed, failed)
		}
		return nil, err
	}

	s.logger.Info("File uploaded",
		zap.String("file_id", file.ID.String()),
		zap.String("mime_type", mimeType),
		zap.Int64("size", size),
	)

	return &dto.UploadResponse{
		File:            dto.NewFileResponse(file),
		ExtractedRecord: *rec,
	}, nil
}

// Reprocess re-reads a stored file and overlays the reviewer's corrections.
func (s *UploadService) Reprocess(ctx context.Context, req *dto.ReprocessRequest) (*dto.ExtractedRecord, error) {
	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		return nil, NewValidationError("fileId must be a UUID")
	}
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return s.ocr.ReprocessWithCorrections(ctx, s.Path(file), file.MimeType, req.Corrections)
}

func (s *UploadService) Path(file *models.UploadedFile) string {
	return filepath.Join(s.uploadDir, file.FileName)
}

// save copies at most maxBytes+1 bytes so an understated part size still
// cannot overflow the cap.
func (s *UploadService) save(path string, r io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to save file: %w", err)
	}
	if size > s.maxBytes {
		os.Remove(path)
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.maxBytes)
	}
	return size, nil
}

func (s *UploadService) scan(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for scanning: %w", err)
	}
	defer f.Close()

	if err := s.scanner.Scan(ctx, f); err != nil {
		if errors.Is(err, antivirus.ErrInfected) {
			return fmt.Errorf("%w: %w", ErrInfectedFile, err)
		}
		return fmt.Errorf("antivirus scan failed: %w", err)
	}
	return nil
}

func (s *UploadService) advance(ctx context.Context, file *models.UploadedFile, next models.FileStatus) (*models.UploadedFile, error) {
	if !file.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrFileNotReviewable, file.Status, next)
	}
	updated, err := s.files.UpdateFileStatus(ctx, file.ID, next)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrFileNotReviewable, file.Status, next)
		}
		return nil, fmt.Errorf("failed to update file status: %w", err)
	}
	return updated, nil
}

// normalizeMimeType strips parameters and falls back to the file extension
// when the client sent no useful Content-Type.
func normalizeMimeType(contentType, fileName string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = strings.ToLower(parsed)
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(fileName)) {
		case ".pdf":
			mediaType = "application/pdf"
		case ".jpg", ".jpeg":
			mediaType = "image/jpeg"
		case ".png":
			mediaType = "image/png"
		}
	}
	if mediaType == "image/jpg" || mediaType == "image/pjpeg" {
		mediaType = "image/jpeg"
	}
	return mediaType
}
