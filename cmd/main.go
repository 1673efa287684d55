package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/hunterianlab/modules-platform/docs"
	"github.com/hunterianlab/modules-platform/internal/handlers"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/internal/repositories"
	"github.com/hunterianlab/modules-platform/internal/services"
	"github.com/hunterianlab/modules-platform/internal/storage"
	authMiddleware "github.com/hunterianlab/modules-platform/libs/auth/middleware"
	authService "github.com/hunterianlab/modules-platform/libs/auth/service"
	"github.com/hunterianlab/modules-platform/libs/config"
	"github.com/hunterianlab/modules-platform/libs/logger"
	loggerMiddleware "github.com/hunterianlab/modules-platform/libs/logger/middleware"
	sharedMiddleware "github.com/hunterianlab/modules-platform/libs/middlewares"
	"github.com/hunterianlab/modules-platform/libs/monitoring"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Training Modules API
// @version 1.0
// @description API for authoring training modules: modules, staged units, quiz questions and blobs

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin access token as "Bearer <token>"
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting modules service")

	monitoring.Init()

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Approved admins
	admins, err := services.LoadAdminsFile(cfg.AdminsFile)
	if err != nil {
		logger.Logger.Fatal("Failed to load admins", zap.Error(err))
	}
	logger.Logger.Info("Loaded approved admins", zap.Int("count", len(admins)))

	// Initialize blob storage
	blobStorage, err := newBlobStorage(cfg.Blob)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	tokenGenerator := authService.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	moduleRepo := repositories.NewModuleRepository(db)
	blobRepo := repositories.NewBlobRepository(db)

	// Initialize services
	blobService := services.NewBlobService(blobRepo, blobStorage, logger.Logger)
	moduleService := services.NewModuleService(moduleRepo, logger.Logger)
	sessionRegistry := services.NewSessionRegistry(cfg.Session.TTL, logger.Logger)
	stagingService := services.NewStagingService(sessionRegistry, moduleRepo, blobService, logger.Logger)
	adminService := services.NewAdminService(admins, tokenGenerator, logger.Logger)

	sweeper, err := sessionRegistry.StartSweeper(cfg.Session.SweepSchedule)
	if err != nil {
		logger.Logger.Fatal("Failed to start session sweeper", zap.Error(err))
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(adminService, logger.Logger)
	moduleHandler := handlers.NewModuleHandler(moduleService, logger.Logger)
	sessionHandler := handlers.NewSessionHandler(stagingService, logger.Logger)
	blobHandler := handlers.NewBlobHandler(blobService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(monitoring.MetricsMiddleware)
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(300, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(cfg.Server.MaxUploadBytes))

	r.Handle("/metrics", monitoring.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Login is rate limited harder than the rest of the API
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			authHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthMiddleware(tokenGenerator, models.RoleAdmin))
			moduleHandler.RegisterRoutes(r)
			sessionHandler.RegisterRoutes(r)
			blobHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Minute, // Long timeout for video uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-sweeper.Stop().Done()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// newBlobStorage builds the configured blob backend
func newBlobStorage(cfg config.BlobConfig) (services.BlobStorage, error) {
	switch cfg.Backend {
	case config.BlobBackendMinio:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		minioStorage, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return minioStorage, nil
	default:
		if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
		return storage.NewLocalStorage(cfg.BasePath), nil
	}
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "modules_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
