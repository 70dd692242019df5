package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"liftdocs/internal/config"
	"liftdocs/internal/database"
	"liftdocs/internal/database/migration"
	handlers "liftdocs/internal/http/handler"
	"liftdocs/internal/http/middleware"
	"liftdocs/internal/otel"
	"liftdocs/internal/repository"
	"liftdocs/internal/repository/mongodb"
	"liftdocs/internal/repository/postgres"
	"liftdocs/internal/service"
	"liftdocs/internal/storage"
	"liftdocs/pkg/logger"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logg)
	if err != nil {
		logg.Fatal("failed to initialize tracing", zap.Error(err))
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		logg.Fatal("failed to initialize blob storage", zap.Error(err))
	}

	repo, ping, closeRepo, err := newRepository(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize repository", zap.Error(err))
	}

	docSvc := service.NewDocumentService(store, repo, logg)

	reg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logg.Fatal("failed to register metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Uploads are copied chunk by chunk instead of being buffered whole.
		StreamRequestBody: true,
		BodyLimit:         cfg.UploadLimitMB * 1024 * 1024,
	})

	// Register global middleware
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logg))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, docSvc, ping, reg)

	addr := ":" + cfg.Port
	go func() {
		if err := app.Listen(addr); err != nil {
			logg.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logg.Info("server started",
		zap.String("addr", addr),
		zap.String("repository_backend", cfg.RepositoryBackend),
		zap.String("storage_backend", cfg.StorageBackend),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logg.Error("server shutdown", zap.Error(err))
	}
	closeRepo()
	if err := shutdownTracing(context.Background()); err != nil {
		logg.Error("tracing shutdown", zap.Error(err))
	}
	logg.Info("server stopped")
}

// newBlobStore selects the payload backend from configuration.
func newBlobStore(cfg *config.AppConfig) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageFS:
		return storage.NewFS(cfg.StorageDir)
	case config.StorageS3:
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newRepository selects the metadata backend. It returns the repository, the
// readiness ping used by /health, and a close function for shutdown.
func newRepository(ctx context.Context, cfg *config.AppConfig, logg *zap.Logger) (repository.DocumentRepository, handlers.Pinger, func(), error) {
	switch cfg.RepositoryBackend {
	case config.RepositoryMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo := mongodb.NewDocumentMongo(client.Database(cfg.Mongo.Database).Collection("documents"))

		idxCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout())
		defer cancel()
		if err := repo.EnsureIndexes(idxCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}

		ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logg.Error("mongo disconnect", zap.Error(err))
			}
		}
		return repo, ping, closeFn, nil

	case config.RepositoryPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, logg); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		ping := func(ctx context.Context) error { return db.PingContext(ctx) }
		closeFn := func() {
			if err := db.Close(); err != nil {
				logg.Error("postgres close", zap.Error(err))
			}
		}
		return postgres.NewDocumentPostgres(db), ping, closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown repository backend %q", cfg.RepositoryBackend)
	}
}
