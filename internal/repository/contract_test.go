package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"fra-atlas/internal/models"

	"github.com/google/uuid"
)

// runStoreContract exercises behaviour every Store backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateRejectsDuplicateClaimID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mustCreateClaim(t, s, "FRA-2024-001", 2.5, models.ClaimStatusPending)
		err := s.CreateClaim(ctx, newClaim("FRA-2024-001", 1, models.ClaimStatusPending))
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("duplicate create: want=%v got=%v", ErrDuplicateKey, err)
		}

		claims, err := s.ListClaims(ctx, 0)
		if err != nil {
			t.Fatalf("ListClaims: %v", err)
		}
		if len(claims) != 1 {
			t.Fatalf("claims after duplicate: want=1 got=%d", len(claims))
		}
	})

	t.Run("ListNewestFirstWithLimit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := mustCreateClaim(t, s, "FRA-2024-010", 1, models.ClaimStatusPending)
		time.Sleep(2 * time.Millisecond)
		second := mustCreateClaim(t, s, "FRA-2024-011", 1, models.ClaimStatusPending)
		time.Sleep(2 * time.Millisecond)
		third := mustCreateClaim(t, s, "FRA-2024-012", 1, models.ClaimStatusPending)

		claims, err := s.ListClaims(ctx, 0)
		if err != nil {
			t.Fatalf("ListClaims: %v", err)
		}
		want := []uuid.UUID{third.ID, second.ID, first.ID}
		if len(claims) != len(want) {
			t.Fatalf("len: want=%d got=%d", len(want), len(claims))
		}
		for i, id := range want {
			if claims[i].ID != id {
				t.Fatalf("order[%d]: want=%s got=%s", i, id, claims[i].ID)
			}
		}

		limited, err := s.ListClaims(ctx, 2)
		if err != nil {
			t.Fatalf("ListClaims(2): %v", err)
		}
		if len(limited) != 2 || limited[0].ID != third.ID {
			t.Fatalf("limit 2: got %d claims", len(limited))
		}
	})

	t.Run("UpdateKeepsCreatedAtAndAdvancesUpdatedAt", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created := mustCreateClaim(t, s, "FRA-2024-020", 3, models.ClaimStatusPending)
		before, err := s.GetClaim(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetClaim: %v", err)
		}

		status := models.ClaimStatusApproved
		updated, err := s.UpdateClaim(ctx, created.ID, models.ClaimPatch{Status: &status})
		if err != nil {
			t.Fatalf("UpdateClaim: %v", err)
		}
		if updated.Status != models.ClaimStatusApproved {
			t.Fatalf("status: want=%q got=%q", models.ClaimStatusApproved, updated.Status)
		}
		if updated.ClaimantName != before.ClaimantName {
			t.Fatalf("claimantName: want=%q got=%q", before.ClaimantName, updated.ClaimantName)
		}
		if !updated.CreatedAt.Equal(before.CreatedAt) {
			t.Fatalf("createdAt changed: before=%s after=%s", before.CreatedAt, updated.CreatedAt)
		}
		if updated.UpdatedAt.Before(before.UpdatedAt) {
			t.Fatalf("updatedAt went backwards: before=%s after=%s", before.UpdatedAt, updated.UpdatedAt)
		}
	})

	t.Run("UpdateUnknownClaim", func(t *testing.T) {
		s := newStore(t)
		status := models.ClaimStatusApproved
		_, err := s.UpdateClaim(context.Background(), uuid.New(), models.ClaimPatch{Status: &status})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("want=%v got=%v", ErrNotFound, err)
		}
	})

	t.Run("UpdateClaimIDCollision", func(t *testing.T) {
		s := newStore(t)
		mustCreateClaim(t, s, "FRA-2024-030", 1, models.ClaimStatusPending)
		other := mustCreateClaim(t, s, "FRA-2024-031", 1, models.ClaimStatusPending)

		code := "FRA-2024-030"
		_, err := s.UpdateClaim(context.Background(), other.ID, models.ClaimPatch{ClaimID: &code})
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("want=%v got=%v", ErrDuplicateKey, err)
		}
	})

	t.Run("DeleteReportsRemovalAndUnlinksFiles", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		claim := mustCreateClaim(t, s, "FRA-2024-040", 1, models.ClaimStatusPending)
		file := mustCreateFile(t, s)
		if err := s.AttachFile(ctx, file.ID, claim.ID); err != nil {
			t.Fatalf("AttachFile: %v", err)
		}

		got, err := s.GetClaim(ctx, claim.ID)
		if err != nil {
			t.Fatalf("GetClaim: %v", err)
		}
		if len(got.Files) != 1 || got.Files[0].ID != file.ID {
			t.Fatalf("files: want [%s] got %d files", file.ID, len(got.Files))
		}

		removed, err := s.DeleteClaim(ctx, claim.ID)
		if err != nil || !removed {
			t.Fatalf("DeleteClaim: removed=%v err=%v", removed, err)
		}
		removed, err = s.DeleteClaim(ctx, claim.ID)
		if err != nil || removed {
			t.Fatalf("second DeleteClaim: removed=%v err=%v", removed, err)
		}
		if _, err := s.GetClaim(ctx, claim.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetClaim after delete: want=%v got=%v", ErrNotFound, err)
		}

		f, err := s.GetFile(ctx, file.ID)
		if err != nil {
			t.Fatalf("GetFile: %v", err)
		}
		if f.ClaimID != nil {
			t.Fatalf("file still linked to %s", *f.ClaimID)
		}
	})

	t.Run("DeleteUnknownLeavesStoreUnchanged", func(t *testing.T) {
		s := newStore(t)
		mustCreateClaim(t, s, "FRA-2024-050", 1, models.ClaimStatusPending)

		removed, err := s.DeleteClaim(context.Background(), uuid.New())
		if err != nil || removed {
			t.Fatalf("DeleteClaim unknown: removed=%v err=%v", removed, err)
		}
		stats, err := s.DashboardStats(context.Background())
		if err != nil {
			t.Fatalf("DashboardStats: %v", err)
		}
		if stats.TotalClaims != 1 {
			t.Fatalf("totalClaims: want=1 got=%d", stats.TotalClaims)
		}
	})

	t.Run("MappedClaimsOnlyWithGeometry", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mustCreateClaim(t, s, "FRA-2024-060", 1, models.ClaimStatusPending)
		mapped := mustCreateClaim(t, s, "FRA-2024-061", 1, models.ClaimStatusPending)

		geometry := json.RawMessage(`{ "type": "Point",  "coordinates": [73.79, 20.01], "crs": null, "type": "Point" }`)
		if _, err := s.UpdateClaim(ctx, mapped.ID, models.ClaimPatch{Geometry: geometry}); err != nil {
			t.Fatalf("UpdateClaim geometry: %v", err)
		}

		claims, err := s.ListMappedClaims(ctx)
		if err != nil {
			t.Fatalf("ListMappedClaims: %v", err)
		}
		if len(claims) != 1 || claims[0].ID != mapped.ID {
			t.Fatalf("mapped: want [%s] got %d claims", mapped.ID, len(claims))
		}
		if string(claims[0].Geometry) != string(geometry) {
			t.Fatalf("geometry: want=%s got=%s", geometry, claims[0].Geometry)
		}

		got, err := s.GetClaim(ctx, mapped.ID)
		if err != nil {
			t.Fatalf("GetClaim: %v", err)
		}
		if string(got.Geometry) != string(geometry) {
			t.Fatalf("stored geometry: want=%s got=%s", geometry, got.Geometry)
		}
	})

	t.Run("AreaAndConfidenceRoundTripExactly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, area := range []float64{1.23456, 0.000001, 1e8, 1e300} {
			c := newClaim(uuid.NewString(), area, models.ClaimStatusPending)
			confidence := 72.456
			c.OCRConfidence = &confidence
			if err := s.CreateClaim(ctx, c); err != nil {
				t.Fatalf("CreateClaim #%d area=%g: %v", i, area, err)
			}

			got, err := s.GetClaim(ctx, c.ID)
			if err != nil {
				t.Fatalf("GetClaim: %v", err)
			}
			if got.Area != area {
				t.Fatalf("area: want=%g got=%g", area, got.Area)
			}
			if got.OCRConfidence == nil || *got.OCRConfidence != confidence {
				t.Fatalf("ocrConfidence: want=%g got=%v", confidence, got.OCRConfidence)
			}
		}
	})

	t.Run("DashboardStats", func(t *testing.T) {
		s := newStore(t)
		mustCreateClaim(t, s, "FRA-2024-070", 1.25, models.ClaimStatusPending)
		mustCreateClaim(t, s, "FRA-2024-071", 2.5, models.ClaimStatusApproved)
		mustCreateClaim(t, s, "FRA-2024-072", 0.75, models.ClaimStatusRejected)
		mustCreateClaim(t, s, "FRA-2024-073", 4, models.ClaimStatusReviewRequired)

		stats, err := s.DashboardStats(context.Background())
		if err != nil {
			t.Fatalf("DashboardStats: %v", err)
		}
		if stats.TotalClaims != 4 || stats.Processed != 1 || stats.Pending != 1 {
			t.Fatalf("counts: %+v", stats)
		}
		if math.Abs(stats.TotalArea-8.5) > 1e-6 {
			t.Fatalf("totalArea: want=8.5 got=%f", stats.TotalArea)
		}
	})

	t.Run("FileStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		file := mustCreateFile(t, s)
		if file.Status != models.FileStatusUploaded {
			t.Fatalf("initial status: want=%q got=%q", models.FileStatusUploaded, file.Status)
		}
		updated, err := s.UpdateFileStatus(ctx, file.ID, models.FileStatusProcessing)
		if err != nil {
			t.Fatalf("UpdateFileStatus: %v", err)
		}
		if updated.Status != models.FileStatusProcessing {
			t.Fatalf("status: want=%q got=%q", models.FileStatusProcessing, updated.Status)
		}
		if _, err := s.UpdateFileStatus(ctx, uuid.New(), models.FileStatusFailed); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown file: want=%v got=%v", ErrNotFound, err)
		}
	})

	t.Run("FileStatusTerminalStatesAreFinal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		file := mustCreateFile(t, s)
		if _, err := s.UpdateFileStatus(ctx, file.ID, models.FileStatusProcessing); err != nil {
			t.Fatalf("to processing: %v", err)
		}
		if _, err := s.UpdateFileStatus(ctx, file.ID, models.FileStatusProcessed); err != nil {
			t.Fatalf("to processed: %v", err)
		}

		for _, next := range []models.FileStatus{
			models.FileStatusProcessed, models.FileStatusFailed, models.FileStatusProcessing, models.FileStatusUploaded,
		} {
			if _, err := s.UpdateFileStatus(ctx, file.ID, next); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("processed -> %s: want=%v got=%v", next, ErrInvalidTransition, err)
			}
		}

		stored, err := s.GetFile(ctx, file.ID)
		if err != nil {
			t.Fatalf("GetFile: %v", err)
		}
		if stored.Status != models.FileStatusProcessed {
			t.Fatalf("status: want=%q got=%q", models.FileStatusProcessed, stored.Status)
		}

		failed := mustCreateFile(t, s)
		if _, err := s.UpdateFileStatus(ctx, failed.ID, models.FileStatusFailed); err != nil {
			t.Fatalf("to failed: %v", err)
		}
		if _, err := s.UpdateFileStatus(ctx, failed.ID, models.FileStatusProcessed); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("failed -> processed: want=%v got=%v", ErrInvalidTransition, err)
		}
	})

	t.Run("Users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		user := &models.User{Username: "ranger", Password: "hash"}
		if err := s.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if err := s.CreateUser(ctx, &models.User{Username: "ranger", Password: "x"}); !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("duplicate user: want=%v got=%v", ErrDuplicateKey, err)
		}

		byName, err := s.GetUserByUsername(ctx, "ranger")
		if err != nil {
			t.Fatalf("GetUserByUsername: %v", err)
		}
		if byName.ID != user.ID {
			t.Fatalf("id: want=%s got=%s", user.ID, byName.ID)
		}
		if _, err := s.GetUserByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown user: want=%v got=%v", ErrNotFound, err)
		}
	})
}

func newClaim(code string, area float64, status models.ClaimStatus) *models.Claim {
	district := "Nashik"
	return &models.Claim{
		ClaimID:      code,
		ClaimantName: "Sita Devi",
		Village:      "Peth",
		District:     &district,
		Area:         area,
		Status:       status,
	}
}

func mustCreateClaim(t *testing.T, s Store, code string, area float64, status models.ClaimStatus) *models.Claim {
	t.Helper()
	c := newClaim(code, area, status)
	if err := s.CreateClaim(context.Background(), c); err != nil {
		t.Fatalf("CreateClaim %s: %v", code, err)
	}
	return c
}

func mustCreateFile(t *testing.T, s Store) *models.UploadedFile {
	t.Helper()
	f := &models.UploadedFile{
		FileName:     uuid.NewString() + ".pdf",
		OriginalName: "patta.pdf",
		MimeType:     "application/pdf",
		FileSize:     2048,
	}
	if err := s.CreateFile(context.Background(), f); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	return f
}
