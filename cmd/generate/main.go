package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"veogen/internal/domain"
	"veogen/internal/genvideo"
	"veogen/internal/infra"
	"veogen/internal/providers/veo"
	"veogen/internal/storage"
)

// One-shot front-end: submit a prompt or an image, wait for the batch, print
// signed download links.
func main() {
	prompt := flag.String("prompt", "", "text prompt to generate from")
	imagePath := flag.String("image", "", "path to a png/jpeg image to generate from")
	count := flag.Int("count", 1, "number of variants to generate")
	aspect := flag.String("aspect", "16:9", "aspect ratio")
	duration := flag.Int("duration", 0, "video duration in seconds (0 = model default)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if (*prompt == "") == (*imagePath == "") {
		logger.Fatal().Msg("generate: exactly one of -prompt or -image is required")
	}

	ctx := context.Background()
	if cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.GenerateTimeout)
		defer cancel()
	}

	gcsClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: gcs client failed")
	}
	defer gcsClient.Close()

	store, err := storage.NewGCSStore(gcsClient, cfg.GoogleProjectID, cfg.VideoBucket, cfg.VideoBucketRegion, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: storage setup failed")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal().Err(err).Str("bucket", cfg.VideoBucket).Msg("generate: bucket init failed")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GoogleProjectID,
		Location: cfg.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: genai client failed")
	}

	veoClient, err := veo.NewClient(genaiClient, cfg.VideoModel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: veo client failed")
	}

	poller := genvideo.NewPoller(veoClient, cfg.PollInterval, logger)
	poller.OnProgress = func(jobID string, polls int) {
		logger.Info().Str("job_id", jobID).Int("polls", polls).Msg("generate: still processing")
	}

	orchestrator, err := genvideo.NewOrchestrator(genvideo.OrchestratorOptions{
		Service:      veoClient,
		Poller:       poller,
		Bucket:       cfg.VideoBucket,
		OutputPrefix: cfg.OutputPrefix,
		MaxVariants:  cfg.MaxVariants,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: orchestrator setup failed")
	}

	template := domain.GenerationRequest{
		Prompt:          strings.TrimSpace(*prompt),
		AspectRatio:     *aspect,
		DurationSeconds: int32(*duration),
	}
	if *imagePath != "" {
		uploader := genvideo.NewUploader(store, cfg.InputPrefix, logger)
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("generate: read image failed")
		}
		mimeType := mimeForPath(*imagePath)
		uri, err := uploader.UploadImage(ctx, data, mimeType)
		if err != nil {
			logger.Fatal().Err(err).Msg("generate: image upload failed")
		}
		logger.Info().Str("uri", uri).Msg("generate: image uploaded")
		template.Prompt = ""
		template.Image = &domain.ImageInput{StorageURI: uri, MIMEType: mimeType}
	}

	batch, err := orchestrator.Generate(ctx, template, *count)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: batch failed")
	}
	for _, result := range batch.Results {
		if result.Err != nil {
			logger.Warn().Err(result.Err).Int("variant", result.Variant).Msg("generate: variant failed")
		}
	}

	publisher := genvideo.NewPublisher(store, cfg.VideoBucket, cfg.SignedURLTTL, logger)
	links := publisher.Publish(ctx, batch.VideoURIs())
	for _, link := range links {
		if link.Err != nil {
			logger.Warn().Err(link.Err).Str("uri", link.VideoURI).Msg("generate: link failed")
			continue
		}
		fmt.Printf("%s\n  %s\n  expires %s\n", link.VideoURI, link.SignedURL, link.ExpiresAt.Format("15:04:05 MST"))
	}
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}
