package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/patrimoine-ma/patrimoine-api/internal/config"
	"github.com/patrimoine-ma/patrimoine-api/internal/database"
	"github.com/patrimoine-ma/patrimoine-api/internal/handler"
	"github.com/patrimoine-ma/patrimoine-api/internal/middleware"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/router"
	"github.com/patrimoine-ma/patrimoine-api/internal/service"
	cloud "github.com/patrimoine-ma/patrimoine-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if cfg.SeedEnabled {
		if err := database.Seed(db); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, dashboard caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, workflow events disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	geoRepo := repository.NewGeoRepository(db)
	patrimoineRepo := repository.NewPatrimoineRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	events := service.NewWorkflowEventPublisher(natsConn, "patrimoine.workflow", logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	auditService := service.NewAuditService(auditRepo, logger)
	patrimoineService := service.NewPatrimoineService(patrimoineRepo, geoRepo, validate, logger)
	inspectionService := service.NewInspectionService(inspectionRepo, patrimoineRepo, validate, events, logger)
	interventionService := service.NewInterventionService(interventionRepo, patrimoineRepo, validate, logger)
	documentService := service.NewDocumentService(documentRepo, uploader, validate, cfg.UploadMaxSizeMB, logger)
	dashboardService := service.NewDashboardService(patrimoineRepo, inspectionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	userAdminService := service.NewUserAdminService(userRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		PatrimoineHandler:   handler.NewPatrimoineHandler(patrimoineService, logger),
		InspectionHandler:   handler.NewInspectionHandler(inspectionService, logger),
		InterventionHandler: handler.NewInterventionHandler(interventionService, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		UserHandler:         handler.NewUserHandler(userAdminService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		GeoHandler:          handler.NewGeoHandler(geoRepo, patrimoineRepo, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		IdentityMiddleware:  middleware.LoadIdentity(userRepo),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
