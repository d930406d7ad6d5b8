package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
)

type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["username"] = user.Username
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal_errors.NewUnauthorized(fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]))
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, internal_errors.NewUnauthorized("Invalid token signature")
	}

	if !token.Valid {
		return nil, internal_errors.NewUnauthorized("Invalid access token")
	}

	return token, nil
}
