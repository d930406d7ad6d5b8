package service

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
	"github.com/Camillus83/ImageUploadAPI/internal/jwt"
)

type AuthService interface {
	Register(creds domain.Credentials, roleName string) (domain.User, error)
	Login(creds domain.Credentials) (string, error)
	Users() ([]domain.User, error)
}

// AuthStorage persists user accounts. SaveUser must enforce username
// uniqueness and report a violation as a 409 ErrorWithStatusCode.
type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByName(username string) (domain.User, error)
	Users() ([]domain.User, error)
	RoleByName(name string) (domain.Role, error)
}

type Auth struct {
	storage AuthStorage
	jwt     jwt.JwtService
}

func NewAuth(storage AuthStorage, jwt jwt.JwtService) AuthService {
	return &Auth{storage, jwt}
}

// Register creates a user with a bcrypt password hash. An empty roleName
// falls back to the baseline Basic role.
func (a *Auth) Register(creds domain.Credentials, roleName string) (domain.User, error) {
	if roleName == "" {
		roleName = domain.RoleBasic
	}
	role, err := a.storage.RoleByName(roleName)
	if err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		Username: creds.Username,
		PassHash: string(hash),
		Role:     &role,
		Active:   true,
	}
	id, err := a.storage.SaveUser(user)
	if err != nil {
		return domain.User{}, err
	}
	user.Id = id
	return user, nil
}

func (a *Auth) Login(creds domain.Credentials) (string, error) {
	user, err := a.storage.UserByName(creds.Username)
	if err != nil {
		if e, ok := err.(*internal_errors.ErrorWithStatusCode); ok && e.StatusCode == http.StatusNotFound {
			return "", badCredentials()
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		return "", badCredentials()
	}
	return a.jwt.NewToken(user)
}

func (a *Auth) Users() ([]domain.User, error) {
	return a.storage.Users()
}

func badCredentials() error {
	return internal_errors.NewUnauthorized("Bad credentials")
}
