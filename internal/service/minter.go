package service

import (
	"fmt"

	"github.com/google/uuid"
)

// LinkKind selects the route a minted URL is composed under.
type LinkKind string

const (
	LinkImage     LinkKind = "image"
	LinkThumbnail LinkKind = "thumbnail"
	LinkExpiring  LinkKind = "expiring"
)

var linkRoutes = map[LinkKind]string{
	LinkImage:     "img",
	LinkThumbnail: "tmb",
	LinkExpiring:  "exp",
}

// UrlMinter produces opaque retrieval tokens and composes them into URLs
// under an explicitly configured base. Tokens are UUIDv7: time-ordered and
// unique, with negligible collision probability, but not guessable.
//
// A minted URL is persisted alongside its record and never regenerated for
// that record's lifetime.
type UrlMinter struct {
	baseUrl string
}

func NewUrlMinter(baseUrl string) *UrlMinter {
	return &UrlMinter{baseUrl: baseUrl}
}

// Mint returns a fresh token and the full retrieval URL for the given kind.
func (m *UrlMinter) Mint(kind LinkKind) (token, url string) {
	token = uuid.Must(uuid.NewV7()).String()
	return token, fmt.Sprintf("%s/%s/%s", m.baseUrl, linkRoutes[kind], token)
}
