// Package memory provides an in-process metadata store. It backs tests and
// local development; the pg package is the durable implementation.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
	"github.com/Camillus83/ImageUploadAPI/internal/service"
)

// Storage holds every record under one mutex. Uniqueness checks and the
// expiring check-then-delete happen under the lock, which gives the same
// atomicity the pg implementation gets from its unique index and
// transactional delete.
type Storage struct {
	mu sync.Mutex

	nextId    int64
	roles     map[string]domain.Role
	users     map[domain.UserId]domain.User
	images    map[domain.ImageId]domain.Image
	thumbs    map[int64]domain.Thumbnail
	expirings map[int64]domain.ExpiringImage
}

// Compile-time interface checks.
var (
	_ service.RoleStorage     = (*Storage)(nil)
	_ service.AuthStorage     = (*Storage)(nil)
	_ service.ImageStorage    = (*Storage)(nil)
	_ service.ExpiringStorage = (*Storage)(nil)
	_ service.ReaperStorage   = (*Storage)(nil)
)

func New() *Storage {
	return &Storage{
		roles:     make(map[string]domain.Role),
		users:     make(map[domain.UserId]domain.User),
		images:    make(map[domain.ImageId]domain.Image),
		thumbs:    make(map[int64]domain.Thumbnail),
		expirings: make(map[int64]domain.ExpiringImage),
	}
}

// NewSeeded returns a store with the three baseline roles, mirroring the
// pg schema seed.
func NewSeeded() *Storage {
	s := New()
	s.SaveRole(domain.Role{Name: domain.RoleBasic, ThumbnailHeight: 200})
	s.SaveRole(domain.Role{Name: domain.RolePremium, ThumbnailHeight: 400, AllowOriginal: true})
	s.SaveRole(domain.Role{Name: domain.RoleEnterprise, ThumbnailHeight: 400, AllowOriginal: true, AllowExpiring: true})
	return s
}

func (s *Storage) nextIdLocked() int64 {
	s.nextId++
	return s.nextId
}

func notFound(msg string) error {
	return internal_errors.NewNotFound(msg)
}

func conflict(msg string) error {
	return internal_errors.NewConflict(msg)
}

// ========================= roles =========================

func (s *Storage) SaveRole(role domain.Role) (domain.RoleId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role.Name]; ok {
		return 0, conflict("Role with that name already exists")
	}
	role.Id = s.nextIdLocked()
	s.roles[role.Name] = role
	return role.Id, nil
}

func (s *Storage) RoleByName(name string) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[name]
	if !ok {
		return domain.Role{}, notFound("Role not found")
	}
	return role, nil
}

// ========================= users =========================

func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return 0, conflict("User with that username already exists")
		}
	}
	user.Id = s.nextIdLocked()
	user.CreatedAt = time.Now().UTC()
	s.users[user.Id] = user
	return user.Id, nil
}

func (s *Storage) UserByName(username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, notFound("User not found")
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, notFound("User not found")
	}
	return user, nil
}

func (s *Storage) Users() ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

// ========================= images =========================

func (s *Storage) FileNameExists(fileName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fileNameExistsLocked(fileName), nil
}

func (s *Storage) fileNameExistsLocked(fileName string) bool {
	for _, img := range s.images {
		if img.FileName == fileName {
			return true
		}
	}
	return false
}

func (s *Storage) CreateImage(img domain.Image, thumbs []domain.Thumbnail) (domain.Image, []domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness check and insert happen under one lock acquisition, so two
	// concurrent uploads of the same composed name get exactly one success.
	if s.fileNameExistsLocked(img.FileName) {
		return domain.Image{}, nil, conflict("Image with the same name already exists")
	}

	img.Id = s.nextIdLocked()
	img.CreatedAt = time.Now().UTC()
	s.images[img.Id] = img

	created := make([]domain.Thumbnail, len(thumbs))
	for i, t := range thumbs {
		t.Id = s.nextIdLocked()
		t.ImageId = img.Id
		s.thumbs[t.Id] = t
		created[i] = t
	}
	return img, created, nil
}

func (s *Storage) Image(id domain.ImageId) (domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return domain.Image{}, notFound("Image not found")
	}
	return img, nil
}

func (s *Storage) ImageByToken(token string) (domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if img.Token == token {
			return img, nil
		}
	}
	return domain.Image{}, notFound("Image not found")
}

func (s *Storage) ThumbnailByToken(token string) (domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.thumbs {
		if t.Token == token {
			return t, nil
		}
	}
	return domain.Thumbnail{}, notFound("Thumbnail not found")
}

func (s *Storage) ImagesByOwner(owner domain.UserId) ([]domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var images []domain.Image
	for _, img := range s.images {
		if img.OwnerId == owner {
			images = append(images, img)
		}
	}
	// Upload order: ids are assigned monotonically.
	sort.Slice(images, func(i, j int) bool { return images[i].Id < images[j].Id })
	return images, nil
}

func (s *Storage) ThumbnailsByImage(id domain.ImageId) ([]domain.Thumbnail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var thumbs []domain.Thumbnail
	for _, t := range s.thumbs {
		if t.ImageId == id {
			thumbs = append(thumbs, t)
		}
	}
	sort.Slice(thumbs, func(i, j int) bool { return thumbs[i].Id < thumbs[j].Id })
	return thumbs, nil
}

func (s *Storage) DeleteImage(id domain.ImageId) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[id]
	if !ok {
		return nil, notFound("Image not found")
	}

	paths := []string{img.FilePath}
	delete(s.images, id)
	for tid, t := range s.thumbs {
		if t.ImageId == id {
			paths = append(paths, t.FilePath)
			delete(s.thumbs, tid)
		}
	}
	for eid, e := range s.expirings {
		if e.ImageId == id {
			delete(s.expirings, eid)
		}
	}
	return paths, nil
}

// ========================= expiring =========================

func (s *Storage) CreateExpiring(e domain.ExpiringImage) (domain.ExpiringImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[e.ImageId]; !ok {
		return domain.ExpiringImage{}, notFound("Image not found")
	}
	e.Id = s.nextIdLocked()
	s.expirings[e.Id] = e
	return e, nil
}

func (s *Storage) ResolveExpiring(token string, now time.Time) (domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.expirings {
		if e.Token != token {
			continue
		}
		if e.Expired(now) {
			// Observed past expiry: the record self-destructs.
			delete(s.expirings, id)
			return domain.Image{}, internal_errors.NewGone("The image link has expired")
		}
		img, ok := s.images[e.ImageId]
		if !ok {
			return domain.Image{}, notFound("Image not found")
		}
		return img, nil
	}
	return domain.Image{}, notFound("The image doesn't exist or the link has expired")
}

// ========================= reaper =========================

func (s *Storage) DeleteExpiredBefore(now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.expirings {
		if e.Expired(now) {
			delete(s.expirings, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Storage) AllFilePaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var paths []string
	for _, img := range s.images {
		paths = append(paths, img.FilePath)
	}
	for _, t := range s.thumbs {
		paths = append(paths, t.FilePath)
	}
	return paths, nil
}
