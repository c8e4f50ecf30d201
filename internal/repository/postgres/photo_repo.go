package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// photoRepository implements repository.PhotoRepository for PostgreSQL.
// Engagement collections live in JSONB columns next to their
// denormalized counts. The version column backs optimistic concurrency.
type photoRepository struct {
	db *DB
}

// NewPhotoRepository creates a new PostgreSQL photo repository.
func NewPhotoRepository(db *DB) repository.PhotoRepository {
	return &photoRepository{db: db}
}

// Create creates a new photo with version 1.
func (r *photoRepository) Create(ctx context.Context, photo *domain.Photo) error {
	likes, views, comments, err := marshalEngagement(photo)
	if err != nil {
		return err
	}

	photo.Version = 1

	query := `
		INSERT INTO photos (id, filename, title, description, author, owner_id, uploaded_at,
			likes, likes_count, views, views_count, comments, comments_count, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		photo.ID,
		photo.Filename,
		photo.Title,
		photo.Description,
		photo.Author,
		photo.OwnerID,
		photo.UploadedAt,
		likes,
		photo.LikesCount,
		views,
		photo.ViewsCount,
		comments,
		photo.CommentsCount,
		photo.Version,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("photo %s already exists: %w", photo.ID, err)
		}
		return fmt.Errorf("failed to create photo: %w", err)
	}

	return nil
}

// GetByID retrieves a photo by ID, including its engagement collections.
func (r *photoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	query := `
		SELECT id, filename, title, description, author, owner_id, uploaded_at,
			likes, likes_count, views, views_count, comments, comments_count, version
		FROM photos
		WHERE id = $1
	`

	return r.scanPhoto(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *photoRepository) scanPhoto(row pgx.Row) (*domain.Photo, error) {
	photo := &domain.Photo{}
	var likes, views, comments []byte

	err := row.Scan(
		&photo.ID,
		&photo.Filename,
		&photo.Title,
		&photo.Description,
		&photo.Author,
		&photo.OwnerID,
		&photo.UploadedAt,
		&likes,
		&photo.LikesCount,
		&views,
		&photo.ViewsCount,
		&comments,
		&photo.CommentsCount,
		&photo.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to scan photo: %w", err)
	}

	if err := unmarshalEngagement(photo, likes, views, comments); err != nil {
		return nil, err
	}

	return photo, nil
}

// ListAll returns all photos ordered by upload time, newest first.
func (r *photoRepository) ListAll(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM photos`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count photos: %w", err)
	}

	query := `
		SELECT id, filename, title, description, author, owner_id, uploaded_at,
			likes, likes_count, views, views_count, comments, comments_count, version
		FROM photos
		ORDER BY uploaded_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.listPhotos(ctx, total, opts, query, opts.Limit, opts.Offset)
}

// ListByOwner returns photos uploaded by the given user, newest first.
func (r *photoRepository) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM photos WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count photos: %w", err)
	}

	query := `
		SELECT id, filename, title, description, author, owner_id, uploaded_at,
			likes, likes_count, views, views_count, comments, comments_count, version
		FROM photos
		WHERE owner_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.listPhotos(ctx, total, opts, query, ownerID, opts.Limit, opts.Offset)
}

func (r *photoRepository) listPhotos(ctx context.Context, total int64, opts repository.ListOptions, query string, args ...any) (*repository.ListResult[domain.Photo], error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*domain.Photo
	for rows.Next() {
		photo, err := r.scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return &repository.ListResult[domain.Photo]{
		Items:  photos,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// UpdateVersioned persists the photo only if its stored version still
// matches photo.Version. On success the version is incremented both in
// the row and on the passed struct. Returns domain.ErrVersionConflict
// when another writer got there first.
func (r *photoRepository) UpdateVersioned(ctx context.Context, photo *domain.Photo) error {
	likes, views, comments, err := marshalEngagement(photo)
	if err != nil {
		return err
	}

	query := `
		UPDATE photos
		SET title = $2, description = $3, author = $4,
			likes = $5, likes_count = $6, views = $7, views_count = $8,
			comments = $9, comments_count = $10, version = version + 1
		WHERE id = $1 AND version = $11
	`

	result, err := r.db.Pool.Exec(ctx, query,
		photo.ID,
		photo.Title,
		photo.Description,
		photo.Author,
		likes,
		photo.LikesCount,
		views,
		photo.ViewsCount,
		comments,
		photo.CommentsCount,
		photo.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1)`, photo.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check photo existence: %w", err)
		}
		if !exists {
			return domain.ErrPhotoNotFound
		}
		return domain.ErrVersionConflict
	}

	photo.Version++
	return nil
}

// Delete deletes a photo by ID.
func (r *photoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrPhotoNotFound
	}

	return nil
}

func marshalEngagement(photo *domain.Photo) (likes, views, comments []byte, err error) {
	if likes, err = json.Marshal(photo.Likes); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal likes: %w", err)
	}
	if views, err = json.Marshal(photo.Views); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal views: %w", err)
	}
	if comments, err = json.Marshal(photo.Comments); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal comments: %w", err)
	}
	return likes, views, comments, nil
}

func unmarshalEngagement(photo *domain.Photo, likes, views, comments []byte) error {
	if err := json.Unmarshal(likes, &photo.Likes); err != nil {
		return fmt.Errorf("failed to unmarshal likes: %w", err)
	}
	if err := json.Unmarshal(views, &photo.Views); err != nil {
		return fmt.Errorf("failed to unmarshal views: %w", err)
	}
	if err := json.Unmarshal(comments, &photo.Comments); err != nil {
		return fmt.Errorf("failed to unmarshal comments: %w", err)
	}
	return nil
}

// Ensure photoRepository implements repository.PhotoRepository.
var _ repository.PhotoRepository = (*photoRepository)(nil)
