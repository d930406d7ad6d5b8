package service

import (
	"bytes"
	"io"
	"path"
	"sync"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
)

// --- Shared mocks for the service tests ---

func notFoundErr(msg string) error {
	return internal_errors.NewNotFound(msg)
}

// seededRoles mirrors the schema seed used by the durable storage.
var seededRoles = map[string]domain.Role{
	domain.RoleBasic:      {Id: 1, Name: domain.RoleBasic, ThumbnailHeight: 200},
	domain.RolePremium:    {Id: 2, Name: domain.RolePremium, ThumbnailHeight: 400, AllowOriginal: true},
	domain.RoleEnterprise: {Id: 3, Name: domain.RoleEnterprise, ThumbnailHeight: 400, AllowOriginal: true, AllowExpiring: true},
}

func seededRole(name string) *domain.Role {
	r, ok := seededRoles[name]
	if !ok {
		return nil
	}
	return &r
}

type MockRoleStorage struct {
	RoleByNameFunc func(name string) (domain.Role, error)
}

func (m *MockRoleStorage) RoleByName(name string) (domain.Role, error) {
	if m.RoleByNameFunc != nil {
		return m.RoleByNameFunc(name)
	}
	if r, ok := seededRoles[name]; ok {
		return r, nil
	}
	return domain.Role{}, notFoundErr("Role not found")
}

// MockBlobStorage keeps blobs in a map. Func fields override individual
// methods when a test needs a failure.
type MockBlobStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	modTimes map[string]time.Time

	SaveFunc   func(fileData io.Reader, category, filename string) (string, error)
	ReadFunc   func(filePath string) (io.ReadCloser, error)
	DeleteFunc func(filePath string) error
}

func NewMockBlobStorage() *MockBlobStorage {
	return &MockBlobStorage{
		files:    make(map[string][]byte),
		modTimes: make(map[string]time.Time),
	}
}

func (m *MockBlobStorage) Save(fileData io.Reader, category, filename string) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(fileData, category, filename)
	}
	data, err := io.ReadAll(fileData)
	if err != nil {
		return "", err
	}
	p := path.Join(category, filename)
	m.mu.Lock()
	m.files[p] = data
	m.modTimes[p] = time.Now()
	m.mu.Unlock()
	return p, nil
}

func (m *MockBlobStorage) Read(filePath string) (io.ReadCloser, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(filePath)
	}
	m.mu.Lock()
	data, ok := m.files[filePath]
	m.mu.Unlock()
	if !ok {
		return nil, notFoundErr("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStorage) Delete(filePath string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(filePath)
	}
	m.mu.Lock()
	delete(m.files, filePath)
	delete(m.modTimes, filePath)
	m.mu.Unlock()
	return nil
}

func (m *MockBlobStorage) WalkFiles() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for p := range m.files {
		paths = append(paths, p)
	}
	return paths, nil
}

func (m *MockBlobStorage) ModTime(filePath string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.modTimes[filePath]
	if !ok {
		return time.Time{}, notFoundErr("blob not found")
	}
	return t, nil
}

func (m *MockBlobStorage) SetModTime(filePath string, t time.Time) {
	m.mu.Lock()
	m.modTimes[filePath] = t
	m.mu.Unlock()
}

func (m *MockBlobStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type MockImageStorage struct {
	FileNameExistsFunc    func(fileName string) (bool, error)
	CreateImageFunc       func(img domain.Image, thumbs []domain.Thumbnail) (domain.Image, []domain.Thumbnail, error)
	ImageFunc             func(id domain.ImageId) (domain.Image, error)
	ImageByTokenFunc      func(token string) (domain.Image, error)
	ThumbnailByTokenFunc  func(token string) (domain.Thumbnail, error)
	ImagesByOwnerFunc     func(owner domain.UserId) ([]domain.Image, error)
	ThumbnailsByImageFunc func(id domain.ImageId) ([]domain.Thumbnail, error)
	DeleteImageFunc       func(id domain.ImageId) ([]string, error)
}

func (m *MockImageStorage) FileNameExists(fileName string) (bool, error) {
	if m.FileNameExistsFunc != nil {
		return m.FileNameExistsFunc(fileName)
	}
	return false, nil
}

func (m *MockImageStorage) CreateImage(img domain.Image, thumbs []domain.Thumbnail) (domain.Image, []domain.Thumbnail, error) {
	if m.CreateImageFunc != nil {
		return m.CreateImageFunc(img, thumbs)
	}
	// Default: echo back with assigned ids.
	img.Id = 1
	created := make([]domain.Thumbnail, len(thumbs))
	for i, t := range thumbs {
		t.Id = int64(i + 2)
		t.ImageId = img.Id
		created[i] = t
	}
	return img, created, nil
}

func (m *MockImageStorage) Image(id domain.ImageId) (domain.Image, error) {
	if m.ImageFunc != nil {
		return m.ImageFunc(id)
	}
	return domain.Image{}, notFoundErr("Image not found")
}

func (m *MockImageStorage) ImageByToken(token string) (domain.Image, error) {
	if m.ImageByTokenFunc != nil {
		return m.ImageByTokenFunc(token)
	}
	return domain.Image{}, notFoundErr("Image not found")
}

func (m *MockImageStorage) ThumbnailByToken(token string) (domain.Thumbnail, error) {
	if m.ThumbnailByTokenFunc != nil {
		return m.ThumbnailByTokenFunc(token)
	}
	return domain.Thumbnail{}, notFoundErr("Thumbnail not found")
}

func (m *MockImageStorage) ImagesByOwner(owner domain.UserId) ([]domain.Image, error) {
	if m.ImagesByOwnerFunc != nil {
		return m.ImagesByOwnerFunc(owner)
	}
	return nil, nil
}

func (m *MockImageStorage) ThumbnailsByImage(id domain.ImageId) ([]domain.Thumbnail, error) {
	if m.ThumbnailsByImageFunc != nil {
		return m.ThumbnailsByImageFunc(id)
	}
	return nil, nil
}

func (m *MockImageStorage) DeleteImage(id domain.ImageId) ([]string, error) {
	if m.DeleteImageFunc != nil {
		return m.DeleteImageFunc(id)
	}
	return nil, nil
}

type MockExpiringStorage struct {
	ImageFunc           func(id domain.ImageId) (domain.Image, error)
	CreateExpiringFunc  func(e domain.ExpiringImage) (domain.ExpiringImage, error)
	ResolveExpiringFunc func(token string, now time.Time) (domain.Image, error)
}

func (m *MockExpiringStorage) Image(id domain.ImageId) (domain.Image, error) {
	if m.ImageFunc != nil {
		return m.ImageFunc(id)
	}
	return domain.Image{}, notFoundErr("Image not found")
}

func (m *MockExpiringStorage) CreateExpiring(e domain.ExpiringImage) (domain.ExpiringImage, error) {
	if m.CreateExpiringFunc != nil {
		return m.CreateExpiringFunc(e)
	}
	e.Id = 1
	return e, nil
}

func (m *MockExpiringStorage) ResolveExpiring(token string, now time.Time) (domain.Image, error) {
	if m.ResolveExpiringFunc != nil {
		return m.ResolveExpiringFunc(token, now)
	}
	return domain.Image{}, notFoundErr("The image doesn't exist or the link has expired")
}

type MockAuthStorage struct {
	SaveUserFunc   func(user domain.User) (domain.UserId, error)
	UserByNameFunc func(username string) (domain.User, error)
	UsersFunc      func() ([]domain.User, error)
	RoleByNameFunc func(name string) (domain.Role, error)
}

func (m *MockAuthStorage) SaveUser(user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockAuthStorage) UserByName(username string) (domain.User, error) {
	if m.UserByNameFunc != nil {
		return m.UserByNameFunc(username)
	}
	return domain.User{}, notFoundErr("User not found")
}

func (m *MockAuthStorage) Users() ([]domain.User, error) {
	if m.UsersFunc != nil {
		return m.UsersFunc()
	}
	return nil, nil
}

func (m *MockAuthStorage) RoleByName(name string) (domain.Role, error) {
	if m.RoleByNameFunc != nil {
		return m.RoleByNameFunc(name)
	}
	if r, ok := seededRoles[name]; ok {
		return r, nil
	}
	return domain.Role{}, notFoundErr("Role not found")
}

type MockReaperStorage struct {
	DeleteExpiredBeforeFunc func(now time.Time) (int64, error)
	AllFilePathsFunc        func() ([]string, error)
}

func (m *MockReaperStorage) DeleteExpiredBefore(now time.Time) (int64, error) {
	if m.DeleteExpiredBeforeFunc != nil {
		return m.DeleteExpiredBeforeFunc(now)
	}
	return 0, nil
}

func (m *MockReaperStorage) AllFilePaths() ([]string, error) {
	if m.AllFilePathsFunc != nil {
		return m.AllFilePathsFunc()
	}
	return nil, nil
}
