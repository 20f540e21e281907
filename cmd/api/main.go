// @title Lumi API
// @description API for hydration and protein/fiber tracker "Lumi"
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/limbo/lumi/internal/app"
	"github.com/limbo/lumi/pkg/cleanup"
	"github.com/limbo/lumi/pkg/config"
	"github.com/limbo/lumi/pkg/logging"
)

func main() {
	cfg := config.New()
	_, logCloser := logging.Setup(logging.Options{
		Level:      cfg.GetString("LOG_LEVEL"),
		File:       cfg.GetString("LOG_FILE"),
		MaxSizeMB:  cfg.GetInt("LOG_MAX_SIZE_MB", 0),
		MaxBackups: cfg.GetInt("LOG_MAX_BACKUPS", 0),
	})
	cleanup.Register(&cleanup.Job{Name: "closing log file", F: logCloser.Close})
	defer cleanup.CleanUp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := app.NewStore(ctx, cfg)
	if err != nil {
		log.Println("storage error: " + err.Error())
		return
	}
	serv, err := app.NewServer(cfg, kv)
	if err != nil {
		log.Println("configuration error: " + err.Error())
		return
	}
	if err = serv.Run(ctx, cfg.GetStringOr("API_ADDRESS", ":8080")); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
	}
}
