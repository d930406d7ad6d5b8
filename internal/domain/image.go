package domain

import (
	"fmt"
	"time"
)

type ImageId = int64

// Image is an original upload. FilePath is the blob-storage relative path,
// FileName the composed display name (globally unique), Token the opaque
// retrieval identifier embedded in Url. Url is minted once at creation and
// never regenerated.
type Image struct {
	Id          ImageId
	OwnerId     UserId
	FilePath    string
	FileName    string
	ContentType string
	Token       string
	Url         string
	CreatedAt   time.Time
}

// Thumbnail is derived from its parent Image at upload time, one per height
// granted by the uploader's role. Never regenerated afterward.
type Thumbnail struct {
	Id       int64
	ImageId  ImageId
	Height   int
	FilePath string
	Token    string
	Url      string
}

// ExpiringImage is a time-bounded link to an Image. The record self-destructs
// when a resolve observes now > ExpiresAt. Several may point at one Image.
type ExpiringImage struct {
	Id        int64
	ImageId   ImageId
	Token     string
	Url       string
	ExpiresAt time.Time
}

func (e *ExpiringImage) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// UploadResult is returned from a successful upload: one URL per derived
// thumbnail keyed by height, plus the original's URL when the role allows it.
type UploadResult struct {
	Thumbnails  map[int]string `json:"thumbnails"`
	OriginalUrl string         `json:"original_url,omitempty"`
}

// ImageSummary describes one owned image in list/detail responses.
// Thumbnail keys follow the "<height>px_url" convention.
type ImageSummary struct {
	ImageId     ImageId           `json:"image_id"`
	Filename    string            `json:"filename"`
	OriginalUrl *string           `json:"original_url"`
	Thumbnails  map[string]string `json:"thumbnails"`
}

// ThumbnailKey builds the summary map key for a given height.
func ThumbnailKey(height int) string {
	return fmt.Sprintf("%dpx_url", height)
}
