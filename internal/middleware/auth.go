package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	jwt_internal "github.com/Camillus83/ImageUploadAPI/internal/jwt"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
	"github.com/Camillus83/ImageUploadAPI/internal/utils"
)

// UserProvider loads the full user (with role) for the id carried by the
// token. Role flags are read from storage on every request so a role change
// applies immediately, not at next login.
type UserProvider interface {
	UserById(id domain.UserId) (domain.User, error)
}

// Key to store the user in the request context
type key int

const UserKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
	users      UserProvider
}

func NewAuth(jwtService jwt_internal.JwtService, users UserProvider) *Auth {
	return &Auth{jwtService: jwtService, users: users}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errInvalidClaims:
					logger.Log.Error("invalid jwt claims")
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractUser extracts and validates the user from the JWT token in a request.
func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	// Try to get token from cookie first (for browser clients)
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		// If no cookie, try Authorization header (for API clients)
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uidFloat, ok := claims["uid"].(float64)
	if !ok {
		return nil, errInvalidClaims
	}

	user, err := a.users.UserById(int64(uidFloat))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Sentinel errors for extractUser
var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// GetUserFromContext retrieves the user from the context
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
