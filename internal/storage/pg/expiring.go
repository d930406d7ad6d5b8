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

func (s *Storage) CreateExpiring(e domain.ExpiringImage) (domain.ExpiringImage, error) {
	err := s.db.QueryRow(`
        INSERT INTO expiring_images(image_id, token, url, expires_at)
        VALUES($1, $2, $3, $4) RETURNING id`,
		e.ImageId, e.Token, e.Url, e.ExpiresAt.UTC(),
	).Scan(&e.Id)
	if err != nil {
		return domain.ExpiringImage{}, fmt.Errorf("failed to insert expiring link: %w", err)
	}
	return e, nil
}

// ResolveExpiring looks up an expiring link and returns its parent image.
// The row is locked for the duration of the check, so concurrent resolves of
// an expired token serialize: the first deletes the record and returns 410,
// the rest observe 404.
func (s *Storage) ResolveExpiring(token string, now time.Time) (domain.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var img domain.Image
	var expired bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		var imageId domain.ImageId
		var expiresAt time.Time
		err := tx.QueryRow(`
            SELECT id, image_id, (expires_at at time zone 'utc')
            FROM expiring_images WHERE token = $1
            FOR UPDATE`, token,
		).Scan(&id, &imageId, &expiresAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NewNotFound("The image doesn't exist or the link has expired")
			}
			return fmt.Errorf("failed to query expiring link: %w", err)
		}

		if now.UTC().After(expiresAt) {
			// The delete must commit, so the expiry signal is raised after
			// the transaction, not as its error.
			if _, err := tx.Exec("DELETE FROM expiring_images WHERE id = $1", id); err != nil {
				return fmt.Errorf("failed to delete expired link: %w", err)
			}
			expired = true
			return nil
		}

		img, err = s.imageBy(tx, "id = $1", imageId)
		return err
	})
	if err != nil {
		return domain.Image{}, err
	}
	if expired {
		return domain.Image{}, internal_errors.NewGone("The image link has expired")
	}
	return img, nil
}

// DeleteExpiredBefore proactively reaps expired link records.
func (s *Storage) DeleteExpiredBefore(now time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM expiring_images WHERE expires_at < $1", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", err)
	}
	return result.RowsAffected()
}
