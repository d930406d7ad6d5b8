package service

import (
	"io"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
)

const (
	MinExpireSeconds = 300
	MaxExpireSeconds = 30000
)

type ExpiryService interface {
	Create(user *domain.User, imageId domain.ImageId, ttlSeconds int64) (*domain.ExpiringImage, error)
	Resolve(token string) (io.ReadCloser, string, error)
}

// ExpiringStorage persists expiring-link records. ResolveExpiring performs
// the check-then-maybe-delete atomically per token: if the record exists and
// now is past its expiry instant it deletes the record and returns a 410
// ErrorWithStatusCode, so concurrent resolves of an expired token never both
// stream bytes.
type ExpiringStorage interface {
	Image(id domain.ImageId) (domain.Image, error)
	CreateExpiring(e domain.ExpiringImage) (domain.ExpiringImage, error)
	ResolveExpiring(token string, now time.Time) (domain.Image, error)
}

type Expiry struct {
	storage ExpiringStorage
	blobs   BlobStorage
	minter  *UrlMinter
	now     func() time.Time
}

func NewExpiry(storage ExpiringStorage, blobs BlobStorage, minter *UrlMinter) ExpiryService {
	return &Expiry{storage, blobs, minter, time.Now}
}

func (s *Expiry) Create(user *domain.User, imageId domain.ImageId, ttlSeconds int64) (*domain.ExpiringImage, error) {
	img, err := s.storage.Image(imageId)
	if err != nil {
		return nil, err
	}
	if img.OwnerId != user.Id {
		return nil, internal_errors.NewForbidden("You are not authorized to view this image")
	}
	if user.Role == nil || !user.Role.AllowExpiring {
		return nil, internal_errors.NewForbidden("You are not allowed to create expiring images")
	}
	if ttlSeconds < MinExpireSeconds || ttlSeconds > MaxExpireSeconds {
		return nil, internal_errors.NewBadRequest("Time to expire must be between 300 and 30000 seconds")
	}

	token, url := s.minter.Mint(LinkExpiring)
	created, err := s.storage.CreateExpiring(domain.ExpiringImage{
		ImageId:   img.Id,
		Token:     token,
		Url:       url,
		ExpiresAt: s.now().Add(time.Duration(ttlSeconds) * time.Second),
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Resolve streams the parent image's bytes for a live token. Expired tokens
// are deleted on observation and reported with 410; unknown tokens with 404.
func (s *Expiry) Resolve(token string) (io.ReadCloser, string, error) {
	img, err := s.storage.ResolveExpiring(token, s.now())
	if err != nil {
		return nil, "", err
	}
	rc, err := s.blobs.Read(img.FilePath)
	if err != nil {
		return nil, "", err
	}
	return rc, img.ContentType, nil
}
