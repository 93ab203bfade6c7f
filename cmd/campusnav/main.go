package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/config"
	"github.com/kailas-cloud/campusnav/internal/db"
	dbBadger "github.com/kailas-cloud/campusnav/internal/db/badger"
	dbRedis "github.com/kailas-cloud/campusnav/internal/db/redis"
	logpkg "github.com/kailas-cloud/campusnav/internal/logger"
	"github.com/kailas-cloud/campusnav/internal/metrics"
	buildingrepo "github.com/kailas-cloud/campusnav/internal/repository/building"
	sqliterepo "github.com/kailas-cloud/campusnav/internal/repository/building/sqlite"
	"github.com/kailas-cloud/campusnav/internal/seed"
	"github.com/kailas-cloud/campusnav/internal/storage"
	chiTransport "github.com/kailas-cloud/campusnav/internal/transport/chi"
	buildinguc "github.com/kailas-cloud/campusnav/internal/usecase/building"
	healthuc "github.com/kailas-cloud/campusnav/internal/usecase/health"
	imageuc "github.com/kailas-cloud/campusnav/internal/usecase/image"
	searchuc "github.com/kailas-cloud/campusnav/internal/usecase/search"
	"github.com/kailas-cloud/campusnav/internal/version"
)

// buildingStore is what the server needs from either repository backend.
type buildingStore interface {
	buildinguc.Repository
	seed.Repository
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting campusnav API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("images_driver", cfg.Images.Driver),
	)

	ctx := context.Background()

	repo, pinger, closeDB := openBuildingStore(ctx, cfg, logger)
	defer closeDB()
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Pass nil interface (not typed nil pointer!) when images are disabled.
	// Go gotcha: (*storage.Local)(nil) wrapped in imageuc.Storage != nil.
	var (
		imageStorage  imageuc.Storage
		storageHealth healthuc.StorageChecker
		imagesHandler http.Handler
	)
	switch cfg.Images.Driver {
	case config.ImagesLocal:
		local, err := storage.NewLocal(storage.LocalConfig{Dir: cfg.Images.LocalDir, BaseURL: cfg.Images.BaseURL})
		if err != nil {
			logger.Fatal("Failed to create local image storage", zap.Error(err))
		}
		imageStorage, storageHealth, imagesHandler = local, local, local.Handler()
	case config.ImagesS3:
		s3cfg := cfg.Images.S3
		bucket, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
			PublicURL:       s3cfg.PublicURL,
		})
		if err != nil {
			logger.Fatal("Failed to create S3 image storage", zap.Error(err))
		}
		imageStorage, storageHealth = bucket, bucket
	default:
		logger.Info("Image uploads disabled")
	}

	// Create use case services
	buildingSvc := buildinguc.New(repo, imageuc.NewRemover(imageStorage)).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	imageSvc := imageuc.New(buildingSvc, imageStorage, metrics.ImageObserver{}, imageuc.Config{
		MaxBytes:        cfg.Images.MaxBytes,
		MaxDimension:    cfg.Images.MaxDimension,
		ThumbnailWidth:  cfg.Images.ThumbnailWidth,
		ThumbnailHeight: cfg.Images.ThumbnailHeight,
		JPEGQuality:     cfg.Images.JPEGQuality,
	})
	searchSvc := searchuc.New(buildingSvc, nil, metrics.SearchObserver{})
	healthSvc := healthuc.New(pinger, storageHealth)

	if cfg.Seed.Enabled {
		runSeed(ctx, cfg.Seed, repo, logger)
	}

	server := chiTransport.NewServer(buildingSvc, imageSvc, searchSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logger,
		Images:      imagesHandler,
		ImagesPath:  cfg.Images.BaseURL,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openBuildingStore creates the repository for the configured driver.
// The returned pinger backs the health check.
func openBuildingStore(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
) (buildingStore, healthuc.DBPinger, func()) {
	if cfg.Database.Driver == config.DriverSQLite {
		repo, err := sqliterepo.Open(ctx, cfg.Database.Path)
		if err != nil {
			logger.Fatal("Failed to open sqlite database", zap.Error(err))
		}
		return repo, repo, repo.Close
	}

	var (
		store db.Store
		err   error
	)
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Flavor:   cfg.Database.Driver,
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
	case config.DriverBadger:
		store, err = dbBadger.Open(dbBadger.Config{Path: cfg.Database.Path}, logger)
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	// Wait for database to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		logger.Fatal("Database not ready", zap.Error(err))
	}
	return buildingrepo.New(store, cfg.Storage.KeyPrefix), store, store.Close
}

// runSeed loads the configured dataset. Failures are logged, the server still starts.
func runSeed(ctx context.Context, cfg config.SeedConfig, repo seed.Repository, logger *zap.Logger) {
	mode, err := seed.ParseMode(cfg.Mode)
	if err != nil {
		logger.Error("Invalid seed mode", zap.Error(err))
		return
	}

	dataset, err := seed.LoadFile(cfg.File)
	if err != nil {
		logger.Error("Failed to load seed dataset", zap.String("file", cfg.File), zap.Error(err))
		return
	}

	report, err := seed.New(repo, cfg.Workers, logger, metrics.SeedObserver{}).Run(ctx, dataset, mode)
	if err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		return
	}
	logger.Info("Seeded buildings",
		zap.String("mode", string(mode)),
		zap.Int("removed", report.Removed),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
}
