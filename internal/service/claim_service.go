package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/models"
	"fra-atlas/internal/repository"
	"fra-atlas/pkg/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimService owns the claim lifecycle. Claim status moves freely between
// the four valid values; only unknown values are rejected.
type ClaimService struct {
	store  repository.Store
	notify notifier
	logger *zap.Logger
}

func NewClaimService(store repository.Store, publisher events.Publisher, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		store:  store,
		notify: notifier{publisher: publisher, logger: logger},
		logger: logger,
	}
}

func (s *ClaimService) List(ctx context.Context, limit int) ([]dto.ClaimResponse, error) {
	claims, err := s.store.ListClaims(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return dto.NewClaimResponses(claims), nil
}

func (s *ClaimService) Get(ctx context.Context, id uuid.UUID) (*dto.ClaimResponse, error) {
	claim, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewClaimResponse(claim)
	return &resp, nil
}

func (s *ClaimService) Create(ctx context.Context, userID *uuid.UUID, req *dto.CreateClaimRequest) (*dto.ClaimResponse, error) {
	if err := checkGeometry(req.Geometry); err != nil {
		return nil, err
	}
	status := models.ClaimStatusPending
	if req.Status != "" {
		status = models.ClaimStatus(req.Status)
	}
	claim := &models.Claim{
		ClaimID:       strings.TrimSpace(req.ClaimID),
		ClaimantName:  strings.TrimSpace(req.ClaimantName),
		Village:       strings.TrimSpace(req.Village),
		District:      req.District,
		State:         req.State,
		Area:          *req.Area,
		SurveyNumber:  req.SurveyNumber,
		Status:        status,
		OCRConfidence: req.OCRConfidence,
		RawText:       sanitizePtr(req.RawText),
		UserID:        userID,
	}
	if isGeometry(req.Geometry) {
		claim.Geometry = req.Geometry
	}

	if err := s.create(ctx, claim); err != nil {
		return nil, err
	}
	resp := dto.NewClaimResponse(claim)
	return &resp, nil
}

func (s *ClaimService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateClaimRequest) (*dto.ClaimResponse, error) {
	if err := checkGeometry(req.Geometry); err != nil {
		return nil, err
	}
	patch := req.Patch()
	patch.ClaimID = trimPtr(patch.ClaimID)
	patch.ClaimantName = trimPtr(patch.ClaimantName)
	patch.Village = trimPtr(patch.Village)
	patch.RawText = sanitizePtr(patch.RawText)
	return s.update(ctx, id, patch)
}

// AttachBoundary stores the GeoJSON geometry verbatim. Nothing about the
// shape itself is checked.
func (s *ClaimService) AttachBoundary(ctx context.Context, id uuid.UUID, req *dto.BoundaryRequest) (*dto.ClaimResponse, error) {
	if !req.HasGeometry() {
		return nil, NewValidationError("Geometry is required")
	}
	if err := checkGeometry(req.Geometry); err != nil {
		return nil, err
	}
	return s.update(ctx, id, models.ClaimPatch{Geometry: req.Geometry})
}

func (s *ClaimService) Delete(ctx context.Context, id uuid.UUID) error {
	claim, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.store.DeleteClaim(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete claim: %w", err)
	}
	if !removed {
		return repository.ErrNotFound
	}

	s.logger.Info("Claim deleted", zap.String("id", id.String()), zap.String("claim_id", claim.ClaimID))
	s.notify.claim(ctx, events.SubjectClaimDeleted, claim)
	return nil
}

// SaveReviewed creates a pending claim from a reviewed extraction. When the
// extraction came from an upload, that file must still be awaiting review;
// it is marked processed and linked to the new claim.
func (s *ClaimService) SaveReviewed(ctx context.Context, userID *uuid.UUID, req *dto.SaveExtractionRequest) (*dto.ClaimResponse, error) {
	var file *models.UploadedFile
	if req.FileID != nil {
		fileID, err := uuid.Parse(*req.FileID)
		if err != nil {
			return nil, NewValidationError("fileId must be a UUID")
		}
		if file, err = s.store.GetFile(ctx, fileID); err != nil {
			return nil, err
		}
		if !file.Status.CanTransition(models.FileStatusProcessed) {
			return nil, fmt.Errorf("%w: file %s is %s", ErrFileNotReviewable, file.ID, file.Status)
		}
	}

	claim := &models.Claim{
		ClaimID:       strings.TrimSpace(req.ClaimID),
		ClaimantName:  strings.TrimSpace(req.ClaimantName),
		Village:       strings.TrimSpace(req.Village),
		District:      req.District,
		State:         req.State,
		Area:          *req.Area,
		SurveyNumber:  req.SurveyNumber,
		Status:        models.ClaimStatusPending,
		OCRConfidence: req.Confidence,
		RawText:       sanitizePtr(req.RawText),
		UserID:        userID,
	}
	if err := s.insert(ctx, claim); err != nil {
		return nil, err
	}

	var processed *models.UploadedFile
	if file != nil {
		var err error
		if processed, err = s.claimFile(ctx, claim, file.ID); err != nil {
			return nil, err
		}
		claim.Files = []*models.UploadedFile{processed}
	}

	s.notify.claim(ctx, events.SubjectClaimCreated, claim)
	if processed != nil {
		s.notify.file(ctx, events.SubjectFileProcessed, processed)
	}

	resp := dto.NewClaimResponse(claim)
	return &resp, nil
}

// MapFeatures returns every claim with a boundary as a GeoJSON feature.
func (s *ClaimService) MapFeatures(ctx context.Context) (*dto.FeatureCollection, error) {
	claims, err := s.store.ListMappedClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mapped claims: %w", err)
	}

	features := make([]dto.Feature, 0, len(claims))
	for _, c := range claims {
		if !c.HasGeometry() {
			continue
		}
		features = append(features, dto.Feature{
			Type:     "Feature",
			ID:       c.ID.String(),
			Geometry: c.Geometry,
			Properties: dto.FeatureProperties{
				ID:           c.ID.String(),
				ClaimID:      c.ClaimID,
				ClaimantName: c.ClaimantName,
				Village:      c.Village,
				District:     c.District,
				State:        c.State,
				Area:         c.Area,
				Status:       string(c.Status),
				Confidence:   c.OCRConfidence,
			},
		})
	}

	fc := dto.NewFeatureCollection(features)
	return &fc, nil
}

func (s *ClaimService) Stats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	stats, err := s.store.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	resp := dto.NewDashboardStatsResponse(stats)
	return &resp, nil
}

// claimFile marks the file processed and links it to the freshly inserted
// claim. The status write is conditional in the store, so only one of several
// concurrent saves wins the file; a loser removes its claim again.
func (s *ClaimService) claimFile(ctx context.Context, claim *models.Claim, fileID uuid.UUID) (*models.UploadedFile, error) {
	processed, err := s.store.UpdateFileStatus(ctx, fileID, models.FileStatusProcessed)
	if err != nil {
		s.rollbackClaim(ctx, claim)
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: file %s", ErrFileNotReviewable, fileID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to mark file processed: %w", err)
	}

	if err := s.store.AttachFile(ctx, fileID, claim.ID); err != nil {
		return nil, fmt.Errorf("failed to link file to claim: %w", err)
	}
	processed.ClaimID = &claim.ID
	return processed, nil
}

func (s *ClaimService) rollbackClaim(ctx context.Context, claim *models.Claim) {
	if _, err := s.store.DeleteClaim(context.WithoutCancel(ctx), claim.ID); err != nil {
		s.logger.Error("Failed to remove claim after file rejection",
			zap.String("id", claim.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *ClaimService) create(ctx context.Context, claim *models.Claim) error {
	if err := s.insert(ctx, claim); err != nil {
		return err
	}
	s.notify.claim(ctx, events.SubjectClaimCreated, claim)
	return nil
}

func (s *ClaimService) insert(ctx context.Context, claim *models.Claim) error {
	if err := s.store.CreateClaim(ctx, claim); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateClaim, claim.ClaimID)
		}
		return fmt.Errorf("failed to create claim: %w", err)
	}

	s.logger.Info("Claim created",
		zap.String("id", claim.ID.String()),
		zap.String("claim_id", claim.ClaimID),
		zap.String("status", string(claim.Status)),
	)
	return nil
}

func (s *ClaimService) update(ctx context.Context, id uuid.UUID, patch models.ClaimPatch) (*dto.ClaimResponse, error) {
	claim, err := s.store.UpdateClaim(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, err
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClaim, *patch.ClaimID)
		}
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	s.notify.claim(ctx, events.SubjectClaimUpdated, claim)
	resp := dto.NewClaimResponse(claim)
	return &resp, nil
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeUTF8(*s)
	return &v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
