package repository

import (
	"context"
	"errors"
	"time"

	"fra-atlas/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var fileColumns = []string{
	"id", "file_name", "original_name", "mime_type", "file_size", "status", "claim_id", "user_id", "uploaded_at",
}

type FileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFileRepository(db *pgxpool.Pool, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		db:     db,
		logger: logger,
	}
}

func (r *FileRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.Status == "" {
		file.Status = models.FileStatusUploaded
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := squirrel.Insert("uploaded_files").
		Columns(fileColumns...).
		Values(file.ID, file.FileName, file.OriginalName, file.MimeType, file.FileSize, file.Status,
			file.ClaimID, file.UserID, file.UploadedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedFile, error) {
	query := squirrel.Select(fileColumns...).
		From("uploaded_files").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	file, err := scanFile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// UpdateStatus only writes when the current status may move to status, so
// two racing callers cannot both leave a terminal state.
func (r *FileRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FileStatus) (*models.UploadedFile, error) {
	file, err := r.update(ctx, id, squirrel.Eq{"status": status},
		squirrel.Eq{"status": models.TransitionSources(status)})
	if !errors.Is(err, ErrNotFound) {
		return file, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (r *FileRepository) Attach(ctx context.Context, fileID, claimID uuid.UUID) error {
	_, err := r.update(ctx, fileID, squirrel.Eq{"claim_id": claimID})
	return err
}

func (r *FileRepository) update(ctx context.Context, id uuid.UUID, values squirrel.Eq, conds ...squirrel.Sqlizer) (*models.UploadedFile, error) {
	where := squirrel.And{squirrel.Eq{"id": id}}
	where = append(where, conds...)

	query := squirrel.Update("uploaded_files").
		SetMap(values).
		Where(where).
		Suffix("RETURNING id, file_name, original_name, mime_type, file_size, status, claim_id, user_id, uploaded_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	file, err := scanFile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// ListByClaimIDs groups the files of the given claims by claim id.
func (r *FileRepository) ListByClaimIDs(ctx context.Context, claimIDs []uuid.UUID) (map[uuid.UUID][]*models.UploadedFile, error) {
	result := make(map[uuid.UUID][]*models.UploadedFile, len(claimIDs))
	if len(claimIDs) == 0 {
		return result, nil
	}

	query := squirrel.Select(fileColumns...).
		From("uploaded_files").
		Where(squirrel.Eq{"claim_id": claimIDs}).
		OrderBy("uploaded_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if file.ClaimID != nil {
			result[*file.ClaimID] = append(result[*file.ClaimID], file)
		}
	}
	return result, rows.Err()
}

func scanFile(row pgx.Row) (*models.UploadedFile, error) {
	var file models.UploadedFile
	if err := row.Scan(
		&file.ID, &file.FileName, &file.OriginalName, &file.MimeType, &file.FileSize, &file.Status,
		&file.ClaimID, &file.UserID, &file.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &file, nil
}
