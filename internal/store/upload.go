package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/nexo-rrhh/portal/types"
)

// DefaultRecentLimit is used when ListRecent is called without a positive limit.
const DefaultRecentLimit = 20

// UploadRepository handles persistence for upload metadata.
type UploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts a metadata row. A missing uploader yields
// ErrForeignKeyViolation and nothing is written.
func (r *UploadRepository) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	const query = `
		INSERT INTO uploads (original_name, stored_name, uploaded_by, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		upload.OriginalName,
		upload.StoredName,
		upload.UploadedBy,
		nullString(upload.Notes),
	).Scan(&upload.ID, &upload.UploadedAt); err != nil {
		return types.Upload{}, translate(err)
	}
	return upload, nil
}

// ListRecent returns the newest uploads first, joined with the uploader's
// username.
func (r *UploadRepository) ListRecent(ctx context.Context, limit int) ([]types.UploadListItem, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	const query = `
		SELECT u.id, u.original_name, u.stored_name, u.uploaded_by, u.uploaded_at, u.notes, us.username
		FROM uploads u
		JOIN users us ON us.id = u.uploaded_by
		ORDER BY u.id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []types.UploadListItem
	for rows.Next() {
		var (
			item  types.UploadListItem
			notes sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.OriginalName,
			&item.StoredName,
			&item.UploadedBy,
			&item.UploadedAt,
			&notes,
			&item.UploaderUsername,
		); err != nil {
			return nil, err
		}
		item.Notes = notes.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *UploadRepository) GetByStoredName(ctx context.Context, storedName string) (types.Upload, error) {
	const query = `
		SELECT id, original_name, stored_name, uploaded_by, uploaded_at, notes
		FROM uploads
		WHERE stored_name = $1`
	var (
		upload types.Upload
		notes  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, storedName).Scan(
		&upload.ID,
		&upload.OriginalName,
		&upload.StoredName,
		&upload.UploadedBy,
		&upload.UploadedAt,
		&notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Upload{}, ErrNotFound
		}
		return types.Upload{}, err
	}
	upload.Notes = notes.String
	return upload, nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
