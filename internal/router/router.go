package router

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Camillus83/ImageUploadAPI/internal/middleware"
	"github.com/Camillus83/ImageUploadAPI/internal/middleware/metrics"
	rl "github.com/Camillus83/ImageUploadAPI/internal/middleware/ratelimiter"
	"github.com/Camillus83/ImageUploadAPI/internal/setup"
)

// New creates and configures a new mux router with all the routes.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints combined in that subrouter
func New(deps *setup.Dependencies) *mux.Router {
	r := mux.NewRouter()

	// Enable gzip compression for all responses
	r.Use(handlers.CompressHandler)

	r.Use(handlers.CORS(
		handlers.AllowedOrigins(deps.Config.Public.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	))

	// Strict policy: JSON API plus raw image bytes, no scripts/styles needed
	csp := "default-src 'none'; img-src 'self'; frame-ancestors 'none'"
	r.Use(middleware.SecurityHeadersWithCSP(false, csp))

	r.Use(metrics.Middleware)

	// Add a wildcard OPTIONS handler to avoid 404s for preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := deps.Handler
	authMw := deps.AuthMiddleware

	// Probes and metrics
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ready", h.Ready).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Auth routes
	auth := v1.PathPrefix("/auth").Subrouter()

	authRegister := auth.NewRoute().Subrouter()
	authRegister.Use(middleware.RateLimit(rl.OnceInSecond(), middleware.GetIP)) // 1 per second by IP
	authRegister.Use(middleware.GlobalRateLimit(rl.Rps100()))                   // 100 global RPS
	authRegister.HandleFunc("/register", h.Register).Methods("POST")

	// Login endpoint (separate rate limiting)
	authLogin := auth.NewRoute().Subrouter()
	authLogin.Use(middleware.RateLimit(rl.OnceInSecond(), middleware.GetIP)) // 1 per second by IP
	authLogin.Use(middleware.GlobalRateLimit(rl.Rps1000()))                 // 1000 global RPS
	authLogin.HandleFunc("/login", h.Login).Methods("POST")

	// Logout (no rate limits)
	auth.HandleFunc("/logout", h.Logout).Methods("POST")

	// Retrieval endpoints are deliberately public: possession of the
	// opaque token is the capability.
	v1.HandleFunc("/img/{token}", h.ServeImage).Methods("GET")
	v1.HandleFunc("/tmb/{token}", h.ServeThumbnail).Methods("GET")
	v1.HandleFunc("/exp/{token}", h.ServeExpiring).Methods("GET")

	// Logged-in user routes
	loggedIn := v1.NewRoute().Subrouter()
	loggedIn.Use(authMw.NeedAuth())
	loggedIn.Use(middleware.RateLimit(rl.Rps100(), middleware.GetUserIDFromContext)) // 100 RPS per user

	loggedIn.HandleFunc("/images", h.ListImages).Methods("GET")
	// Upload: 10 RPS per user
	loggedIn.Handle("/images", middleware.RateLimit(rl.Rps10(), middleware.GetUserIDFromContext)(http.HandlerFunc(h.Upload))).Methods("POST")

	loggedIn.HandleFunc("/images/{id}", h.GetImage).Methods("GET")
	loggedIn.HandleFunc("/images/{id}", h.DeleteImage).Methods("DELETE")
	loggedIn.HandleFunc("/images/{id}/exp", h.CreateExpiring).Methods("POST")

	loggedIn.HandleFunc("/users", h.Users).Methods("GET")

	return r
}
