package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"veogen/internal/adapter/repo"
	"veogen/internal/genvideo"
	"veogen/internal/http/handlers"
	"veogen/internal/http/httpapi"
	"veogen/internal/infra"
	"veogen/internal/providers/veo"
	"veogen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("api: DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	gcsClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: gcs client failed")
	}
	defer gcsClient.Close()

	store, err := storage.NewGCSStore(gcsClient, cfg.GoogleProjectID, cfg.VideoBucket, cfg.VideoBucketRegion, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}
	// Bucket existence is a session precondition: refuse to start without it.
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal().Err(err).Str("bucket", cfg.VideoBucket).Msg("api: bucket init failed")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GoogleProjectID,
		Location: cfg.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: genai client failed")
	}

	veoClient, err := veo.NewClient(genaiClient, cfg.VideoModel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: veo client failed")
	}

	poller := genvideo.NewPoller(veoClient, cfg.PollInterval, logger)
	orchestrator, err := genvideo.NewOrchestrator(genvideo.OrchestratorOptions{
		Service:      veoClient,
		Poller:       poller,
		Bucket:       cfg.VideoBucket,
		OutputPrefix: cfg.OutputPrefix,
		MaxVariants:  cfg.MaxVariants,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: orchestrator setup failed")
	}

	app := &handlers.App{
		Runs:            repo.NewRunRepository(pool),
		Orchestrator:    orchestrator,
		Publisher:       genvideo.NewPublisher(store, cfg.VideoBucket, cfg.SignedURLTTL, logger),
		Uploader:        genvideo.NewUploader(store, cfg.InputPrefix, logger),
		Objects:         store,
		Bucket:          cfg.VideoBucket,
		MaxVariants:     cfg.MaxVariants,
		Logger:          logger,
		GenerateTimeout: cfg.GenerateTimeout,
	}

	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("model", veoClient.Model()).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}
