package repository

import (
	"context"
	"errors"

	"fra-atlas/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DefaultClaimLimit bounds ListClaims when the caller passes no limit.
const DefaultClaimLimit = 50

// Store is the entity store contract. PostgresStore and MemoryStore both
// implement it; callers must not care which one they were handed.
type Store interface {
	ClaimStore
	FileStore
	UserStore
}

type ClaimStore interface {
	// ListClaims returns claims newest first, each with its files.
	ListClaims(ctx context.Context, limit int) ([]*models.Claim, error)
	// ListMappedClaims returns claims that carry boundary geometry, newest first.
	ListMappedClaims(ctx context.Context) ([]*models.Claim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	// CreateClaim assigns an id when missing and stamps CreatedAt/UpdatedAt.
	CreateClaim(ctx context.Context, claim *models.Claim) error
	UpdateClaim(ctx context.Context, id uuid.UUID, patch models.ClaimPatch) (*models.Claim, error)
	// DeleteClaim reports whether a row was removed. Files of the claim are
	// kept and unlinked.
	DeleteClaim(ctx context.Context, id uuid.UUID) (bool, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type FileStore interface {
	CreateFile(ctx context.Context, file *models.UploadedFile) error
	GetFile(ctx context.Context, id uuid.UUID) (*models.UploadedFile, error)
	// UpdateFileStatus moves a file to status atomically. It returns
	// ErrInvalidTransition when the stored status cannot move there.
	UpdateFileStatus(ctx context.Context, id uuid.UUID, status models.FileStatus) (*models.UploadedFile, error)
	AttachFile(ctx context.Context, fileID, claimID uuid.UUID) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultClaimLimit
	}
	return limit
}
