package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/outpost/internal/archive"
	"github.com/jonathan/outpost/internal/config"
	"github.com/jonathan/outpost/internal/db"
	"github.com/jonathan/outpost/internal/enrich"
	"github.com/jonathan/outpost/internal/pipeline"
	"github.com/jonathan/outpost/internal/scrape"
	"github.com/jonathan/outpost/internal/search"
	"github.com/jonathan/outpost/internal/secrets"
)

// app bundles the wired components shared by the serve, work, and process
// commands.
type app struct {
	cfg config.Config
	db  *db.DB
}

// newApp loads configuration and connects to the database.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required (env or config file)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: database}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// newProcessor wires the run processor: search, optional archive, secret
// resolution from environment then database, website capture, and paced
// Gemini enrichment.
func (a *app) newProcessor(ctx context.Context) *pipeline.Processor {
	searchClient := search.NewClient()
	searchClient.ResultCount = a.cfg.SearchResultCount

	resolver := secrets.NewResolver(
		secrets.EnvSource{},
		secrets.SourceFunc(a.db.GetSecret),
	)

	processor := &pipeline.Processor{
		Store:   a.db,
		Search:  searchClient,
		Secrets: resolver,
		Capture: scrape.NewCapturer(a.cfg.UseBrowser, a.cfg.Verbose),
		Pacer:   enrich.NewPacer(time.Duration(a.cfg.EnrichDelayMS) * time.Millisecond),
		Verbose: a.cfg.Verbose,
		NewEnricher: func(ctx context.Context, apiKey string) (pipeline.Enricher, error) {
			return enrich.NewEngine(ctx, apiKey)
		},
	}

	a.configureArchive(ctx, processor)
	return processor
}

func (a *app) configureArchive(ctx context.Context, processor *pipeline.Processor) {
	if a.cfg.ArchiveConfigured() {
		writer, err := archive.New(archive.Config{
			Endpoint:  a.cfg.ArchiveEndpoint,
			AccessKey: a.cfg.ArchiveAccessKey,
			SecretKey: a.cfg.ArchiveSecretKey,
			Bucket:    a.cfg.ArchiveBucket,
			Region:    a.cfg.ArchiveRegion,
			UseSSL:    a.cfg.ArchiveUseSSL,
		})
		if err != nil {
			log.Printf("Archive disabled: %v", err)
		} else if err := writer.EnsureBucket(ctx); err != nil {
			log.Printf("Archive disabled: %v", err)
		} else {
			processor.Archive = writer
		}
	}
}

// newWorker builds the notification-driven worker around a processor.
func (a *app) newWorker(ctx context.Context) *pipeline.Worker {
	return &pipeline.Worker{
		DB:          a.db,
		Processor:   a.newProcessor(ctx),
		Concurrency: a.cfg.WorkerConcurrency,
	}
}
