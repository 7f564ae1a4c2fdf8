package service

import (
	"context"
	"fmt"
	"strings"

	"fra-atlas/internal/dto"

	"go.uber.org/zap"
)

// Recognizer turns a stored claim document into structured fields. The mock
// is the default; a real engine plugs in here without touching callers.
type Recognizer interface {
	ProcessFile(ctx context.Context, path, mimeType string) (*dto.ExtractedRecord, error)
}

type OCRService struct {
	recognizer Recognizer
	logger     *zap.Logger
}

func NewOCRService(recognizer Recognizer, logger *zap.Logger) *OCRService {
	return &OCRService{
		recognizer: recognizer,
		logger:     logger,
	}
}

// ProcessFile runs the recognizer on the file at path. Every recognizer
// failure is reported as ErrProcessing.
func (s *OCRService) ProcessFile(ctx context.Context, path, mimeType string) (*dto.ExtractedRecord, error) {
	rec, err := s.recognizer.ProcessFile(ctx, path, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	rec.ClaimID = strings.TrimSpace(sanitizeUTF8(rec.ClaimID))
	rec.ClaimantName = strings.TrimSpace(sanitizeUTF8(rec.ClaimantName))
	rec.Village = strings.TrimSpace(sanitizeUTF8(rec.Village))
	rec.District = strings.TrimSpace(sanitizeUTF8(rec.District))
	rec.State = strings.TrimSpace(sanitizeUTF8(rec.State))
	rec.SurveyNumber = strings.TrimSpace(sanitizeUTF8(rec.SurveyNumber))
	rec.RawText = sanitizeUTF8(rec.RawText)

	s.logger.Info("OCR extraction completed",
		zap.String("file", path),
		zap.String("mime_type", mimeType),
		zap.String("claim_id", rec.ClaimID),
		zap.Float64("confidence", rec.Confidence),
		zap.Int("text_length", len(rec.RawText)),
	)

	return rec, nil
}

// ReprocessWithCorrections re-runs extraction and overlays the reviewer's
// corrections. A corrected record is fully trusted: confidence becomes 100.
func (s *OCRService) ReprocessWithCorrections(ctx context.Context, path, mimeType string, corrections *dto.ExtractionCorrections) (*dto.ExtractedRecord, error) {
	rec, err := s.ProcessFile(ctx, path, mimeType)
	if err != nil {
		return nil, err
	}
	corrections.Apply(rec)
	rec.Confidence = 100
	return rec, nil
}
