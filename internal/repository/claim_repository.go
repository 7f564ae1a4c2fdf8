package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fra-atlas/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var claimColumns = []string{
	"id", "claim_id", "claimant_name", "village", "district", "state", "area", "survey_number",
	"status", "ocr_confidence", "geometry", "raw_text", "user_id", "created_at", "updated_at",
}

type ClaimRepository struct {
	db     *pgxpool.Pool
	files  *FileRepository
	logger *zap.Logger
}

func NewClaimRepository(db *pgxpool.Pool, files *FileRepository, logger *zap.Logger) *ClaimRepository {
	return &ClaimRepository{
		db:     db,
		files:  files,
		logger: logger,
	}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	if claim.Status == "" {
		claim.Status = models.ClaimStatusPending
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	claim.CreatedAt = now
	claim.UpdatedAt = now

	query := squirrel.Insert("claims").
		Columns(claimColumns...).
		Values(claim.ID, claim.ClaimID, claim.ClaimantName, claim.Village, claim.District, claim.State,
			claim.Area, claim.SurveyNumber, claim.Status, claim.OCRConfidence, geometryArg(claim.Geometry),
			claim.RawText, claim.UserID, claim.CreatedAt, claim.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("claim %q: %w", claim.ClaimID, ErrDuplicateKey)
		}
		return err
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	query := squirrel.Select(claimColumns...).
		From("claims").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	claim, err := scanClaim(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	files, err := r.files.ListByClaimIDs(ctx, []uuid.UUID{claim.ID})
	if err != nil {
		return nil, err
	}
	claim.Files = files[claim.ID]
	return claim, nil
}

func (r *ClaimRepository) List(ctx context.Context, limit int) ([]*models.Claim, error) {
	query := squirrel.Select(claimColumns...).
		From("claims").
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(limit))).
		PlaceholderFormat(squirrel.Dollar)

	claims, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := r.withFiles(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *ClaimRepository) ListMapped(ctx context.Context) ([]*models.Claim, error) {
	query := squirrel.Select(claimColumns...).
		From("claims").
		Where("geometry IS NOT NULL").
		Where("json_typeof(geometry) <> 'null'").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	return r.query(ctx, query)
}

func (r *ClaimRepository) Update(ctx context.Context, id uuid.UUID, patch models.ClaimPatch) (*models.Claim, error) {
	query := squirrel.Update("claims").
		Set("updated_at", squirrel.Expr("GREATEST(NOW(), updated_at)")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(claimColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)

	if patch.ClaimID != nil {
		query = query.Set("claim_id", *patch.ClaimID)
	}
	if patch.ClaimantName != nil {
		query = query.Set("claimant_name", *patch.ClaimantName)
	}
	if patch.Village != nil {
		query = query.Set("village", *patch.Village)
	}
	if patch.District != nil {
		query = query.Set("district", *patch.District)
	}
	if patch.State != nil {
		query = query.Set("state", *patch.State)
	}
	if patch.Area != nil {
		query = query.Set("area", *patch.Area)
	}
	if patch.SurveyNumber != nil {
		query = query.Set("survey_number", *patch.SurveyNumber)
	}
	if patch.Status != nil {
		query = query.Set("status", *patch.Status)
	}
	if patch.OCRConfidence != nil {
		query = query.Set("ocr_confidence", *patch.OCRConfidence)
	}
	if len(patch.Geometry) > 0 {
		query = query.Set("geometry", geometryArg(patch.Geometry))
	}
	if patch.RawText != nil {
		query = query.Set("raw_text", *patch.RawText)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	claim, err := scanClaim(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			return nil, fmt.Errorf("claim %q: %w", *patch.ClaimID, ErrDuplicateKey)
		}
		return nil, err
	}

	files, err := r.files.ListByClaimIDs(ctx, []uuid.UUID{claim.ID})
	if err != nil {
		return nil, err
	}
	claim.Files = files[claim.ID]
	return claim, nil
}

// Delete removes the claim; the uploaded_files foreign key unlinks its files.
func (r *ClaimRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := squirrel.Delete("claims").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClaimRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := squirrel.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE status = 'approved')",
		"COALESCE(SUM(area), 0)::float8",
		"COUNT(*) FILTER (WHERE status = 'pending')",
	).From("claims")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var stats models.DashboardStats
	if err := r.db.QueryRow(ctx, sql, args...).Scan(
		&stats.TotalClaims, &stats.Processed, &stats.TotalArea, &stats.Pending,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ClaimRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Claim, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]*models.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func (r *ClaimRepository) withFiles(ctx context.Context, claims []*models.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	files, err := r.files.ListByClaimIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range claims {
		c.Files = files[c.ID]
	}
	return nil
}

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var claim models.Claim
	var geometry []byte
	if err := row.Scan(
		&claim.ID, &claim.ClaimID, &claim.ClaimantName, &claim.Village, &claim.District, &claim.State,
		&claim.Area, &claim.SurveyNumber, &claim.Status, &claim.OCRConfidence, &geometry, &claim.RawText,
		&claim.UserID, &claim.CreatedAt, &claim.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(geometry) > 0 {
		claim.Geometry = json.RawMessage(geometry)
	}
	return &claim, nil
}

// geometryArg passes GeoJSON to the json column as text, or NULL when empty.
func geometryArg(g json.RawMessage) any {
	if len(g) == 0 {
		return nil
	}
	return string(g)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
