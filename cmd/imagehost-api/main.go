package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/Camillus83/ImageUploadAPI/internal/config"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
	"github.com/Camillus83/ImageUploadAPI/internal/router"
	"github.com/Camillus83/ImageUploadAPI/internal/setup"
)

func main() {
	log.SetFlags(log.Lshortfile)

	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer deps.Storage.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps.Reaper.StartBackground(ctx, cfg.Public.ReaperInterval.Std())

	r := router.New(deps)

	logger.Log.Info("server started", "addr", cfg.Public.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.Public.ListenAddr, r))
}
