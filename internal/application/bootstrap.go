// Package application wires configuration into a running engine. It picks
// the file resolver, opens the configured source driver and builds the
// Service shared by the server and the CLI.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/rankview/internal/config"
	"github.com/JonMunkholm/rankview/internal/core"
	_ "github.com/JonMunkholm/rankview/internal/core/sources" // Register all drivers
	"github.com/JonMunkholm/rankview/internal/dbfiles"
)

// Resolver returns the S3 mirror when a bucket is configured and the local
// directory tree otherwise.
func Resolver(ctx context.Context, cfg *config.Config) (core.FileResolver, error) {
	if !cfg.S3.Enabled() {
		return dbfiles.NewLocal(cfg.Source.Root), nil
	}
	files, err := dbfiles.NewS3(ctx, dbfiles.S3Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		PathStyle:       cfg.S3.PathStyle,
		Prefix:          cfg.S3.Prefix,
		CacheDir:        cfg.S3.CacheDir,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		SessionToken:    cfg.S3.SessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 resolver: %w", err)
	}
	return files, nil
}

// OpenSource opens the configured driver.
func OpenSource(ctx context.Context, cfg *config.Config) (core.Source, error) {
	params := core.OpenParams{
		DatabaseURL:     cfg.Source.DatabaseURL,
		MaxConns:        cfg.Source.MaxConns,
		MinConns:        cfg.Source.MinConns,
		MaxConnLifetime: cfg.Source.MaxConnLifetime,
		MaxConnIdleTime: cfg.Source.MaxConnIdleTime,
	}
	if cfg.Source.Driver == "sqlite" {
		files, err := Resolver(ctx, cfg)
		if err != nil {
			return nil, err
		}
		params.Files = files
	}
	return core.OpenSource(ctx, cfg.Source.Driver, params)
}

// NewService opens the source and builds a Service around it. metrics may
// be nil.
func NewService(ctx context.Context, cfg *config.Config, metrics core.MetricsRecorder, logger *slog.Logger) (*core.Service, error) {
	src, err := OpenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("source opened", "driver", cfg.Source.Driver, "s3", cfg.S3.Enabled())

	return core.NewService(src, core.Options{
		Limiter:     core.NewLoadLimiter(cfg.Load.MaxConcurrent, cfg.Load.MaxWaitTime),
		Metrics:     metrics,
		Logger:      logger,
		LoadTimeout: cfg.Load.Timeout,
	}), nil
}

// LoadInitial loads cfg.Load.Initial when it is set.
func LoadInitial(ctx context.Context, cfg *config.Config, svc *core.Service) error {
	if cfg.Load.Initial == "" {
		return nil
	}
	sel, err := core.ParseSelection(cfg.Load.Initial)
	if err != nil {
		return err
	}
	_, err = svc.Load(ctx, sel)
	return err
}
