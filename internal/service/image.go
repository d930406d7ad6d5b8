package service

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
	"github.com/Camillus83/ImageUploadAPI/internal/thumbnail"
)

const (
	categoryImages     = "images"
	categoryThumbnails = "thumbnails"
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type ImageService interface {
	Upload(user *domain.User, filename, contentType string, data []byte) (*domain.UploadResult, error)
	ListOwned(user *domain.User) ([]domain.ImageSummary, error)
	GetDetail(user *domain.User, id domain.ImageId) (*domain.ImageSummary, error)
	Delete(user *domain.User, id domain.ImageId) error
	ServeOriginal(token string) (io.ReadCloser, string, error)
	ServeThumbnail(token string) (io.ReadCloser, string, error)
}

// ImageStorage is the metadata store behind the image service. CreateImage
// persists the image and its thumbnails in one transaction and must enforce
// global file name uniqueness: a violation is reported as a 409
// ErrorWithStatusCode so two concurrent uploads with the same composed name
// yield exactly one success.
type ImageStorage interface {
	FileNameExists(fileName string) (bool, error)
	CreateImage(img domain.Image, thumbs []domain.Thumbnail) (domain.Image, []domain.Thumbnail, error)
	Image(id domain.ImageId) (domain.Image, error)
	ImageByToken(token string) (domain.Image, error)
	ThumbnailByToken(token string) (domain.Thumbnail, error)
	ImagesByOwner(owner domain.UserId) ([]domain.Image, error)
	ThumbnailsByImage(id domain.ImageId) ([]domain.Thumbnail, error)
	// DeleteImage removes the image with its thumbnails and expiring links
	// in one transaction and returns the blob paths that backed them.
	DeleteImage(id domain.ImageId) ([]string, error)
}

type Image struct {
	storage ImageStorage
	blobs   BlobStorage
	policy  *RolePolicy
	minter  *UrlMinter
	// maxDecodedBytes caps width*height*4 of an upload before any full
	// decode runs; the byte-size cap alone does not bound decoded size.
	maxDecodedBytes int64
}

func NewImage(storage ImageStorage, blobs BlobStorage, policy *RolePolicy, minter *UrlMinter, maxDecodedBytes int64) ImageService {
	return &Image{storage, blobs, policy, minter, maxDecodedBytes}
}

// composeFileName appends the uploader's username before the extension,
// e.g. ("cat.jpg", "alice") -> "cat_alice.jpg". A collision-avoidance
// heuristic, not a uniqueness guarantee; the storage layer enforces that.
func composeFileName(filename, username string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%s%s", base, username, ext)
}

func (s *Image) Upload(user *domain.User, filename, contentType string, data []byte) (*domain.UploadResult, error) {
	if user.Role == nil {
		return nil, internal_errors.NewBadRequest("User should have a role")
	}

	composed := composeFileName(filename, user.Username)

	// Cheap pre-check so the common duplicate case fails before any bytes are
	// written. The unique index behind CreateImage settles concurrent races.
	exists, err := s.storage.FileNameExists(composed)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, internal_errors.NewConflict("Image with the same name already exists")
	}

	if !allowedContentTypes[contentType] {
		return nil, internal_errors.NewBadRequest("Only JPEG and PNG image formats are supported")
	}

	// Check decoded size before any full decode. A kilobyte-sized file can
	// declare 65535x65535 in its header and make image.Decode allocate
	// gigabytes; the request byte cap does not bound that.
	width, height, err := thumbnail.Dimensions(data)
	if err != nil {
		return nil, asValidationError(err)
	}
	if int64(width)*int64(height)*4 > s.maxDecodedBytes {
		return nil, internal_errors.NewBadRequest(
			fmt.Sprintf("Image is too large: %dx%d pixels exceeds the decoded size limit", width, height))
	}

	heights, err := s.policy.SizesFor(user.Role)
	if err != nil {
		return nil, err
	}

	// Derive every thumbnail before anything is persisted so a bad source
	// image rolls the whole upload back. Per-size derivations are independent
	// and run concurrently; indexed slots keep the result deterministic.
	derived := make([][]byte, len(heights))
	var g errgroup.Group
	for i, h := range heights {
		i, h := i, h
		g.Go(func() error {
			b, err := thumbnail.Resize(data, h)
			if err != nil {
				return err
			}
			derived[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, asValidationError(err)
	}

	imgToken, imgUrl := s.minter.Mint(LinkImage)
	var savedPaths []string
	cleanup := func() {
		for _, p := range savedPaths {
			if err := s.blobs.Delete(p); err != nil {
				logger.Log.Warn("failed to remove blob after aborted upload", "path", p, "error", err)
			}
		}
	}

	imgPath, err := s.blobs.Save(bytes.NewReader(data), categoryImages, imgToken+filepath.Ext(composed))
	if err != nil {
		return nil, err
	}
	savedPaths = append(savedPaths, imgPath)

	thumbs := make([]domain.Thumbnail, len(heights))
	for i, h := range heights {
		token, url := s.minter.Mint(LinkThumbnail)
		// Derived assets are always JPEG regardless of source format.
		path, err := s.blobs.Save(bytes.NewReader(derived[i]), categoryThumbnails, token+".jpg")
		if err != nil {
			cleanup()
			return nil, err
		}
		savedPaths = append(savedPaths, path)
		thumbs[i] = domain.Thumbnail{
			Height:   h,
			FilePath: path,
			Token:    token,
			Url:      url,
		}
	}

	img := domain.Image{
		OwnerId:     user.Id,
		FilePath:    imgPath,
		FileName:    composed,
		ContentType: contentType,
		Token:       imgToken,
		Url:         imgUrl,
	}
	created, createdThumbs, err := s.storage.CreateImage(img, thumbs)
	if err != nil {
		cleanup()
		return nil, err
	}

	result := &domain.UploadResult{Thumbnails: make(map[int]string, len(createdThumbs))}
	for _, t := range createdThumbs {
		result.Thumbnails[t.Height] = t.Url
	}
	if s.policy.ShowsOriginal(user.Role) {
		result.OriginalUrl = created.Url
	}
	return result, nil
}

func (s *Image) ListOwned(user *domain.User) ([]domain.ImageSummary, error) {
	if user.Role == nil {
		return nil, internal_errors.NewBadRequest("User should have a role")
	}

	images, err := s.storage.ImagesByOwner(user.Id)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ImageSummary, 0, len(images))
	for i := range images {
		summary, err := s.summarize(&images[i], user)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *Image) GetDetail(user *domain.User, id domain.ImageId) (*domain.ImageSummary, error) {
	img, err := s.storage.Image(id)
	if err != nil {
		return nil, err
	}
	if img.OwnerId != user.Id {
		return nil, internal_errors.NewForbidden("You are not authorized to view this image")
	}
	return s.summarize(&img, user)
}

func (s *Image) Delete(user *domain.User, id domain.ImageId) error {
	img, err := s.storage.Image(id)
	if err != nil {
		return err
	}
	if img.OwnerId != user.Id {
		return internal_errors.NewForbidden("You are not authorized to delete this image")
	}

	// Cascade is an explicit transactional multi-record delete; blob removal
	// follows, with the reaper as backstop for any leftover.
	paths, err := s.storage.DeleteImage(id)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.blobs.Delete(p); err != nil {
			logger.Log.Warn("failed to remove blob for deleted image", "path", p, "error", err)
		}
	}
	return nil
}

func (s *Image) ServeOriginal(token string) (io.ReadCloser, string, error) {
	img, err := s.storage.ImageByToken(token)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.blobs.Read(img.FilePath)
	if err != nil {
		return nil, "", err
	}
	// Originals pass through their stored content type.
	return rc, img.ContentType, nil
}

func (s *Image) ServeThumbnail(token string) (io.ReadCloser, string, error) {
	thumb, err := s.storage.ThumbnailByToken(token)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.blobs.Read(thumb.FilePath)
	if err != nil {
		return nil, "", err
	}
	return rc, "image/jpeg", nil
}

func (s *Image) summarize(img *domain.Image, user *domain.User) (*domain.ImageSummary, error) {
	thumbs, err := s.storage.ThumbnailsByImage(img.Id)
	if err != nil {
		return nil, err
	}
	thumbnails := make(map[string]string, len(thumbs))
	for _, t := range thumbs {
		thumbnails[domain.ThumbnailKey(t.Height)] = t.Url
	}

	var originalUrl *string
	if user.Role != nil && user.Role.AllowOriginal {
		url := img.Url
		originalUrl = &url
	}
	return &domain.ImageSummary{
		ImageId:     img.Id,
		Filename:    img.FileName,
		OriginalUrl: originalUrl,
		Thumbnails:  thumbnails,
	}, nil
}

// asValidationError maps thumbnail derivation failures to 400s; anything else
// passes through unchanged.
func asValidationError(err error) error {
	if _, ok := err.(*thumbnail.DecodeError); ok {
		return internal_errors.NewBadRequest(err.Error())
	}
	if err == thumbnail.ErrInvalidSize {
		return internal_errors.NewBadRequest(err.Error())
	}
	return err
}
