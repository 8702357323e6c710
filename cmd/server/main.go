package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"apsiteimport/internal/artifact"
	"apsiteimport/internal/config"
	"apsiteimport/internal/db"
	"apsiteimport/internal/middleware"
	"apsiteimport/internal/mist"
	"apsiteimport/internal/pipeline"
	"apsiteimport/internal/runlog"
	"apsiteimport/internal/web"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configPath = flag.String("config", ".", "directory containing config.yaml")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	zapConfig := zap.NewProductionConfig()
	if *verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := mist.NewClient(cfg.Mist, logger)
	artifacts := artifact.NewWriter(cfg.Results.Directory)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithSheetName(cfg.SheetName),
	}

	var runs web.RunLister
	if cfg.Database != nil {
		if err := db.Migrate(*cfg.Database); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
		pool, err := db.NewPool(ctx, *cfg.Database)
		if err != nil {
			logger.Fatal("connect database", zap.Error(err))
		}
		defer pool.Close()

		repo := runlog.NewRepository(pool)
		opts = append(opts, pipeline.WithRecorder(repo))
		runs = repo
	}

	service := pipeline.NewService(client, artifacts, opts...)
	handler := web.NewHandler(
		service,
		client,
		runs,
		filepath.Join(os.TempDir(), "apsiteimport-uploads"),
		cfg.Results.Directory,
		logger,
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      middleware.Logging(logger)(corsHandler.Handler(handler.Routes())),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
