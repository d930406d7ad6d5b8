package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Camillus83/ImageUploadAPI/internal/middleware/ratelimiter"
	"github.com/Camillus83/ImageUploadAPI/internal/utils"
)

func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GlobalRateLimit(rl *ratelimiter.UserRateLimiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// Possible if user was authorized with previous middleware
func GetUserIDFromContext(r *http.Request) (string, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return "", errors.New("Can't get user id")
	}
	return fmt.Sprintf("user_%d", user.Id), nil
}

// GetIP extracts the real client IP from RemoteAddr
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy)
func GetIP(r *http.Request) (string, error) {
	// Only trust RemoteAddr - can't be spoofed (comes from TCP connection)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// Fallback: if RemoteAddr doesn't have port, use it directly
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}

	return ip, nil
}
