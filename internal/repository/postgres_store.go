package repository

import (
	"context"

	"fra-atlas/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore is the durable Store backed by the claims, uploaded_files
// and users tables.
type PostgresStore struct {
	claims *ClaimRepository
	files  *FileRepository
	users  *UserRepository
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	files := NewFileRepository(db, logger.Named("files"))
	return &PostgresStore{
		claims: NewClaimRepository(db, files, logger.Named("claims")),
		files:  files,
		users:  NewUserRepository(db, logger.Named("users")),
	}
}

func (s *PostgresStore) ListClaims(ctx context.Context, limit int) ([]*models.Claim, error) {
	return s.claims.List(ctx, limit)
}

func (s *PostgresStore) ListMappedClaims(ctx context.Context) ([]*models.Claim, error) {
	return s.claims.ListMapped(ctx)
}

func (s *PostgresStore) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	return s.claims.GetByID(ctx, id)
}

func (s *PostgresStore) CreateClaim(ctx context.Context, claim *models.Claim) error {
	return s.claims.Create(ctx, claim)
}

func (s *PostgresStore) UpdateClaim(ctx context.Context, id uuid.UUID, patch models.ClaimPatch) (*models.Claim, error) {
	if patch.Empty() {
		return s.claims.GetByID(ctx, id)
	}
	return s.claims.Update(ctx, id, patch)
}

func (s *PostgresStore) DeleteClaim(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.claims.Delete(ctx, id)
}

func (s *PostgresStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return s.claims.Stats(ctx)
}

func (s *PostgresStore) CreateFile(ctx context.Context, file *models.UploadedFile) error {
	return s.files.Create(ctx, file)
}

func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID) (*models.UploadedFile, error) {
	return s.files.GetByID(ctx, id)
}

func (s *PostgresStore) UpdateFileStatus(ctx context.Context, id uuid.UUID, status models.FileStatus) (*models.UploadedFile, error) {
	return s.files.UpdateStatus(ctx, id, status)
}

func (s *PostgresStore) AttachFile(ctx context.Context, fileID, claimID uuid.UUID) error {
	return s.files.Attach(ctx, fileID, claimID)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.users.Create(ctx, user)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
