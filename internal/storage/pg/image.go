package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
)

// =========================================================================
// Public Methods (satisfy the service.ImageStorage interface)
// =========================================================================

func (s *Storage) FileNameExists(fileName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM images WHERE file_name = $1)", fileName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check file name: %w", err)
	}
	return exists, nil
}

// CreateImage persists an image with its thumbnails in one transaction.
// The unique index on file_name serializes concurrent uploads of the same
// composed name: the loser gets a 409.
func (s *Storage) CreateImage(img domain.Image, thumbs []domain.Thumbnail) (domain.Image, []domain.Thumbnail, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created := img
	createdThumbs := make([]domain.Thumbnail, len(thumbs))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		createdTs := time.Now().UTC().Round(time.Microsecond) // database rounds to microsecond anyway
		err := tx.QueryRow(`
            INSERT INTO images(owner_id, file_path, file_name, content_type, token, url, created_at)
            VALUES($1, $2, $3, $4, $5, $6, $7)
            RETURNING id`,
			img.OwnerId, img.FilePath, img.FileName, img.ContentType, img.Token, img.Url, createdTs,
		).Scan(&created.Id)
		if err != nil {
			if isUniqueViolation(err) {
				return internal_errors.NewConflict("Image with the same name already exists")
			}
			return fmt.Errorf("failed to insert image: %w", err)
		}
		created.CreatedAt = createdTs

		for i, t := range thumbs {
			t.ImageId = created.Id
			err := tx.QueryRow(`
                INSERT INTO thumbnails(image_id, height, file_path, token, url)
                VALUES($1, $2, $3, $4, $5)
                RETURNING id`,
				t.ImageId, t.Height, t.FilePath, t.Token, t.Url,
			).Scan(&t.Id)
			if err != nil {
				return fmt.Errorf("failed to insert thumbnail: %w", err)
			}
			createdThumbs[i] = t
		}
		return nil
	})
	if err != nil {
		return domain.Image{}, nil, err
	}
	return created, createdThumbs, nil
}

func (s *Storage) Image(id domain.ImageId) (domain.Image, error) {
	return s.imageBy(s.db, "id = $1", id)
}

func (s *Storage) ImageByToken(token string) (domain.Image, error) {
	return s.imageBy(s.db, "token = $1", token)
}

func (s *Storage) ThumbnailByToken(token string) (domain.Thumbnail, error) {
	var t domain.Thumbnail
	err := s.db.QueryRow(`
        SELECT id, image_id, height, file_path, token, url
        FROM thumbnails WHERE token = $1`, token,
	).Scan(&t.Id, &t.ImageId, &t.Height, &t.FilePath, &t.Token, &t.Url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thumbnail{}, internal_errors.NewNotFound("Thumbnail not found")
		}
		return domain.Thumbnail{}, fmt.Errorf("failed to query thumbnail: %w", err)
	}
	return t, nil
}

func (s *Storage) ImagesByOwner(owner domain.UserId) ([]domain.Image, error) {
	rows, err := s.db.Query(`
        SELECT id, owner_id, file_path, file_name, content_type, token, url, created_at
        FROM images WHERE owner_id = $1
        ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.Id, &img.OwnerId, &img.FilePath, &img.FileName,
			&img.ContentType, &img.Token, &img.Url, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *Storage) ThumbnailsByImage(id domain.ImageId) ([]domain.Thumbnail, error) {
	rows, err := s.db.Query(`
        SELECT id, image_id, height, file_path, token, url
        FROM thumbnails WHERE image_id = $1
        ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query thumbnails: %w", err)
	}
	defer rows.Close()

	var thumbs []domain.Thumbnail
	for rows.Next() {
		var t domain.Thumbnail
		if err := rows.Scan(&t.Id, &t.ImageId, &t.Height, &t.FilePath, &t.Token, &t.Url); err != nil {
			return nil, fmt.Errorf("failed to scan thumbnail: %w", err)
		}
		thumbs = append(thumbs, t)
	}
	return thumbs, rows.Err()
}

// DeleteImage removes the image with its thumbnails and expiring links in
// one transaction and returns the blob paths that backed them.
func (s *Storage) DeleteImage(id domain.ImageId) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var paths []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT file_path FROM thumbnails WHERE image_id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to query thumbnail paths: %w", err)
		}
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan thumbnail path: %w", err)
			}
			paths = append(paths, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		// Children first, then the image row itself. Explicit multi-record
		// delete rather than relying on referential actions.
		if _, err := tx.Exec("DELETE FROM expiring_images WHERE image_id = $1", id); err != nil {
			return fmt.Errorf("failed to delete expiring links: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM thumbnails WHERE image_id = $1", id); err != nil {
			return fmt.Errorf("failed to delete thumbnails: %w", err)
		}

		var imagePath string
		err = tx.QueryRow("DELETE FROM images WHERE id = $1 RETURNING file_path", id).Scan(&imagePath)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NewNotFound("Image not found")
			}
			return fmt.Errorf("failed to delete image: %w", err)
		}
		paths = append(paths, imagePath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// AllFilePaths lists every blob path the database references, for the reaper.
func (s *Storage) AllFilePaths() ([]string, error) {
	rows, err := s.db.Query(`
        SELECT file_path FROM images
        UNION ALL
        SELECT file_path FROM thumbnails`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) imageBy(q Querier, where string, arg interface{}) (domain.Image, error) {
	var img domain.Image
	err := q.QueryRow(fmt.Sprintf(`
        SELECT id, owner_id, file_path, file_name, content_type, token, url, created_at
        FROM images WHERE %s`, where), arg,
	).Scan(&img.Id, &img.OwnerId, &img.FilePath, &img.FileName,
		&img.ContentType, &img.Token, &img.Url, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Image{}, internal_errors.NewNotFound("Image not found")
		}
		return domain.Image{}, fmt.Errorf("failed to query image: %w", err)
	}
	return img, nil
}
