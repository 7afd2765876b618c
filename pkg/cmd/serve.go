package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/cache"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/config"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/images"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/logging"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/repository"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/server"
)

const shutdownTimeout = 10 * time.Second

var ServeCmd = &cobra.Command{
	Use:   ServeCmdName,
	Short: ServeCmdShort,
	Long:  ServeCmdLong,
	RunE:  serveCmdFunc,
}

func init() {
	flags := ServeCmd.Flags()
	flags.String("addr", "", "listen address (default :8080 or :$PORT)")
	flags.String("database-url", "", "mysql:// or sqlite:// database URL")
	flags.String("image-dir", "", "directory for uploaded images when S3 is not configured")
	flags.String("cache", "", "listing cache driver (none, memory, redis)")
	flags.String("redis-url", "", "redis URL for the listing cache")
	flags.String("allowed-origins", "", "comma separated CORS origins")
	flags.Float64("rate-limit", 0, "public POST requests per second per client")
	_ = settings.BindPFlag(config.KeyServerAddress, flags.Lookup("addr"))
	_ = settings.BindPFlag(config.KeyDatabaseURL, flags.Lookup("database-url"))
	_ = settings.BindPFlag(config.KeyImageDir, flags.Lookup("image-dir"))
	_ = settings.BindPFlag(config.KeyCacheDriver, flags.Lookup("cache"))
	_ = settings.BindPFlag(config.KeyCacheRedisURL, flags.Lookup("redis-url"))
	_ = settings.BindPFlag(config.KeyAllowedOrigins, flags.Lookup("allowed-origins"))
	_ = settings.BindPFlag(config.KeyRateLimit, flags.Lookup("rate-limit"))
}

func serveCmdFunc(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(settings)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	logger.Info("starting serve cmd", "addr", cfg.Server.Address, "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := repository.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.EnsureSchema(ctx, db, dialect); err != nil {
		return err
	}
	logger.Info("database ready", "dialect", dialect)

	uploader, imageDir, err := newUploader(cfg)
	if err != nil {
		return err
	}
	listingCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	if closer, ok := listingCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	hash, err := cfg.Admin.Hash()
	if err != nil {
		return err
	}
	if hash == nil {
		logger.Warn("no admin password configured, admin login is disabled")
	}

	serve := server.NewHTTPServer(cfg.Server.Address, server.Options{
		Store:             repository.New(db),
		Images:            uploader,
		Cache:             listingCache,
		Logger:            logger,
		AdminPasswordHash: hash,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimit:         cfg.Server.RateLimit,
		RateBurst:         cfg.Server.RateBurst,
		ImageDir:          imageDir,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := serve.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", cfg.Server.Address, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return serve.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Environment,
		Level:       cfg.Log.Level,
	})
}

// newUploader picks S3 when a bucket is configured and the local image
// directory otherwise. The directory is returned only when it must be served.
func newUploader(cfg *config.Config) (images.Uploader, string, error) {
	if s3 := cfg.Images.S3; s3.Enabled() {
		u, err := images.NewS3Uploader(images.S3Config{
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			PublicBaseURL:   s3.PublicBaseURL,
		})
		return u, "", err
	}
	return images.NewDiskUploader(cfg.Images.Dir, cfg.Images.URLPrefix), cfg.Images.Dir, nil
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		return cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL)
	case config.CacheMemory:
		return cache.NewMemory(cfg.Cache.TTL), nil
	}
	return cache.Noop{}, nil
}
