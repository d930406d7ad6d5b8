package setup

import (
	"github.com/Camillus83/ImageUploadAPI/internal/config"
	"github.com/Camillus83/ImageUploadAPI/internal/handler"
	"github.com/Camillus83/ImageUploadAPI/internal/jwt"
	"github.com/Camillus83/ImageUploadAPI/internal/middleware"
	"github.com/Camillus83/ImageUploadAPI/internal/service"
	"github.com/Camillus83/ImageUploadAPI/internal/storage/fs"
	"github.com/Camillus83/ImageUploadAPI/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Blobs          *fs.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Reaper         *service.Reaper
	Jwt            jwt.JwtService
	Config         *config.Config
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := fs.New(cfg.Public.MediaRoot)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.Private.JwtKey, cfg.Public.JwtTTL.Std())
	minter := service.NewUrlMinter(cfg.Public.BaseUrl)
	policy := service.NewRolePolicy(storage)

	auth := service.NewAuth(storage, jwtService)
	images := service.NewImage(storage, blobs, policy, minter, cfg.Public.MaxDecodedSizeBytes)
	expiry := service.NewExpiry(storage, blobs, minter)
	reaper := service.NewReaper(storage, blobs, cfg.Public.ReaperSafetyInterval.Std())

	h := handler.New(auth, images, expiry, storage, cfg)
	authMw := middleware.NewAuth(jwtService, storage)

	return &Dependencies{
		Storage:        storage,
		Blobs:          blobs,
		Handler:        h,
		AuthMiddleware: authMw,
		Reaper:         reaper,
		Jwt:            jwtService,
		Config:         cfg,
	}, nil
}
