// Package bootstrap provides dependency initialization for animgen.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/animgen/internal/config"
	"github.com/maauso/animgen/internal/generation"
	"github.com/maauso/animgen/internal/media"
	"github.com/maauso/animgen/internal/session"
	"github.com/maauso/animgen/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Controller *session.Controller
	Media      *media.Manager
	Generator  *generation.HTTPClient
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := generation.NewClient(cfg.ServiceURL,
		generation.WithAPIKey(cfg.ServiceAPIKey),
		generation.WithTimeout(cfg.ServiceTimeout),
		generation.WithMaxBodyBytes(cfg.MaxVideoBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}

	manager := media.NewManager(store, logger)

	return &Dependencies{
		Controller: session.NewController(client, manager, logger),
		Media:      manager,
		Generator:  client,
	}, nil
}

// Close ends the session and releases every handle still live.
func (d *Dependencies) Close(ctx context.Context) error {
	if err := d.Controller.Close(ctx); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := d.Media.ReleaseAll(ctx); err != nil {
		return fmt.Errorf("release media: %w", err)
	}
	return nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", localStore.Dir()),
	)
	return localStore, nil
}
