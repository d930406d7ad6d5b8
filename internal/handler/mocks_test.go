package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/config"
	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
	"github.com/Camillus83/ImageUploadAPI/internal/middleware"
)

// --- Mocks for the handler tests ---

func notFoundErr(msg string) error {
	return internal_errors.NewNotFound(msg)
}

type MockAuthService struct {
	RegisterFunc func(creds domain.Credentials, roleName string) (domain.User, error)
	LoginFunc    func(creds domain.Credentials) (string, error)
	UsersFunc    func() ([]domain.User, error)
}

func (m *MockAuthService) Register(creds domain.Credentials, roleName string) (domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(creds, roleName)
	}
	return domain.User{Id: 1, Username: creds.Username, Role: &domain.Role{Name: domain.RoleBasic}, Active: true}, nil
}

func (m *MockAuthService) Login(creds domain.Credentials) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(creds)
	}
	return "test-token", nil
}

func (m *MockAuthService) Users() ([]domain.User, error) {
	if m.UsersFunc != nil {
		return m.UsersFunc()
	}
	return nil, nil
}

type MockImageService struct {
	UploadFunc         func(user *domain.User, filename, contentType string, data []byte) (*domain.UploadResult, error)
	ListOwnedFunc      func(user *domain.User) ([]domain.ImageSummary, error)
	GetDetailFunc      func(user *domain.User, id domain.ImageId) (*domain.ImageSummary, error)
	DeleteFunc         func(user *domain.User, id domain.ImageId) error
	ServeOriginalFunc  func(token string) (io.ReadCloser, string, error)
	ServeThumbnailFunc func(token string) (io.ReadCloser, string, error)
}

func (m *MockImageService) Upload(user *domain.User, filename, contentType string, data []byte) (*domain.UploadResult, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(user, filename, contentType, data)
	}
	return &domain.UploadResult{Thumbnails: map[int]string{200: "http://localhost/v1/tmb/t200"}}, nil
}

func (m *MockImageService) ListOwned(user *domain.User) ([]domain.ImageSummary, error) {
	if m.ListOwnedFunc != nil {
		return m.ListOwnedFunc(user)
	}
	return []domain.ImageSummary{}, nil
}

func (m *MockImageService) GetDetail(user *domain.User, id domain.ImageId) (*domain.ImageSummary, error) {
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(user, id)
	}
	return nil, notFoundErr("Image not found")
}

func (m *MockImageService) Delete(user *domain.User, id domain.ImageId) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(user, id)
	}
	return nil
}

func (m *MockImageService) ServeOriginal(token string) (io.ReadCloser, string, error) {
	if m.ServeOriginalFunc != nil {
		return m.ServeOriginalFunc(token)
	}
	return nil, "", notFoundErr("Image not found")
}

func (m *MockImageService) ServeThumbnail(token string) (io.ReadCloser, string, error) {
	if m.ServeThumbnailFunc != nil {
		return m.ServeThumbnailFunc(token)
	}
	return nil, "", notFoundErr("Thumbnail not found")
}

type MockExpiryService struct {
	CreateFunc  func(user *domain.User, imageId domain.ImageId, ttlSeconds int64) (*domain.ExpiringImage, error)
	ResolveFunc func(token string) (io.ReadCloser, string, error)
}

func (m *MockExpiryService) Create(user *domain.User, imageId domain.ImageId, ttlSeconds int64) (*domain.ExpiringImage, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(user, imageId, ttlSeconds)
	}
	return &domain.ExpiringImage{Id: 1, ImageId: imageId, Token: "exp-token", Url: "http://localhost/v1/exp/exp-token"}, nil
}

func (m *MockExpiryService) Resolve(token string) (io.ReadCloser, string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(token)
	}
	return nil, "", notFoundErr("The image doesn't exist or the link has expired")
}

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil // Default: healthy
}

// --- Helpers ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Public.MaxUploadSizeBytes = 32 << 20
	cfg.Public.JwtTTL = config.Duration(time.Hour)
	return cfg
}

func newTestHandler() *Handler {
	return &Handler{
		auth:   &MockAuthService{},
		images: &MockImageService{},
		expiry: &MockExpiryService{},
		health: &MockHealthChecker{},
		cfg:    testConfig(),
	}
}

func authedUser() *domain.User {
	return &domain.User{Id: 1, Username: "alice", Role: &domain.Role{Name: domain.RoleEnterprise, ThumbnailHeight: 400, AllowOriginal: true, AllowExpiring: true}, Active: true}
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserKey, user))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
