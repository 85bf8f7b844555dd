package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/cache"
	"github.com/GTDGit/market_admin/internal/config"
	"github.com/GTDGit/market_admin/internal/database"
	"github.com/GTDGit/market_admin/internal/handler"
	"github.com/GTDGit/market_admin/internal/middleware"
	"github.com/GTDGit/market_admin/internal/repository"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/sse"
	"github.com/GTDGit/market_admin/internal/worker"
	"github.com/GTDGit/market_admin/pkg/geocode"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// main is the entrypoint of the marketplace admin API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting market admin api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Redis-backed state
	sessions := cache.NewSessionCache(redisClient, cfg.JWTTTL)
	drafts := cache.NewDraftCache(redisClient, cfg.Product.DraftTTL)
	views := cache.NewListViewCache(redisClient, cfg.Product.ListViewTTL)
	submitGuard := cache.NewSubmitGuard(redisClient, cfg.Product.SubmitLockTTL)

	// 4. Outbound clients
	marketClient := marketplace.NewClient(marketplace.Config{
		BaseURL:      cfg.Marketplace.BaseURL,
		ServiceToken: cfg.Marketplace.ServiceToken,
		Timeout:      cfg.Marketplace.Timeout,
	})
	geocoder := geocode.NewClient(geocode.Config{
		APIKey:  cfg.Geocode.APIKey,
		BaseURL: cfg.Geocode.BaseURL,
		Timeout: cfg.Marketplace.Timeout,
	})
	if cfg.Geocode.APIKey == "" {
		log.Warn().Msg("GEOCODE_API_KEY not set - current-location addresses are disabled")
	}

	// 5. Context for workers and graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Initialize repositories
	adminRepo := repository.NewAdminUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// 7. Initialize services
	hub := sse.NewHub()
	auditSvc := service.NewAuditService(auditRepo, sse.NewHubNotifier(hub))
	adminAuthSvc := service.NewAdminAuthService(adminRepo, sessions, cfg.JWTSecret, cfg.JWTTTL)
	if err := adminAuthSvc.EnsureBootstrapAdmin(cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		log.Error().Err(err).Msg("failed to create bootstrap admin")
	}

	moderationSvc, err := service.NewModerationService(ctx, cfg.Moderation)
	if err != nil {
		log.Error().Err(err).Msg("image moderation initialization failed")
		fmt.Fprintf(os.Stderr, "image moderation initialization failed: %v\n", err)
		os.Exit(1)
	}

	taxonomySvc := service.NewTaxonomyService(marketClient, auditSvc)
	listingSvc := service.NewListingService(marketClient, views)
	locationSvc := service.NewLocationService(marketClient, geocoder, auditSvc)
	productSvc, err := service.NewProductService(marketClient, drafts, submitGuard, listingSvc, moderationSvc, auditSvc, cfg.Product)
	if err != nil {
		log.Error().Err(err).Msg("invalid product configuration")
		fmt.Fprintf(os.Stderr, "invalid product configuration: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("variant", string(productSvc.Variant())).Msg("product form configured")

	// 8. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    handler.PingFunc(redisClient.Ping),
		}),
		Auth:      handler.NewAuthHandler(adminAuthSvc, middleware.NewInvalidAuthRateLimiter(ctx)),
		Category:  handler.NewCategoryHandler(taxonomySvc),
		Attribute: handler.NewAttributeHandler(taxonomySvc),
		Product:   handler.NewProductHandler(productSvc, listingSvc, cfg.Product.MaxImageBytes),
		Address:   handler.NewAddressHandler(locationSvc),
		Audit:     handler.NewAuditHandler(auditSvc),
		SSE:       handler.NewSSEHandler(hub),
	}

	// 9. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)

	// 10. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Product.MaxImages+1) * cfg.Product.MaxImageBytes
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, middleware.MarketplaceSession(sessions))

	// 11. Start workers
	go worker.NewAuditPruneWorker(auditSvc, cfg.Worker.AuditRetention, cfg.Worker.AuditPruneInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Category  *handler.CategoryHandler
	Attribute *handler.AttributeHandler
	Product   *handler.ProductHandler
	Address   *handler.AddressHandler
	Audit     *handler.AuditHandler
	SSE       *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, session gin.HandlerFunc) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public admin routes
	router.POST("/v1/admin/auth/login", handlers.Auth.Login)

	// EventSource cannot set headers, so the token may come as ?token=
	router.GET("/v1/admin/sse", jwtMiddleware.HandleQuery(), handlers.SSE.Stream)

	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle(), session)
	{
		// Marketplace session
		admin.PUT("/auth/marketplace-token", handlers.Auth.SetMarketplaceToken)
		admin.DELETE("/auth/marketplace-token", handlers.Auth.ClearMarketplaceToken)

		// Categories
		admin.GET("/categories", handlers.Category.ListCategories)
		admin.POST("/categories", handlers.Category.CreateCategory)
		admin.PUT("/categories/:id", handlers.Category.UpdateCategory)
		admin.POST("/categories/:id/status", handlers.Category.SetCategoryStatus)

		// Subcategories
		admin.GET("/categories/:id/subcategories", handlers.Category.ListSubcategories)
		admin.POST("/categories/:id/subcategories", handlers.Category.CreateSubcategory)
		admin.PUT("/subcategories/:id", handlers.Category.UpdateSubcategory)
		admin.POST("/subcategories/:id/status", handlers.Category.SetSubcategoryStatus)

		// Attribute keys and values
		admin.GET("/subcategories/:id/attributes", handlers.Attribute.ListKeys)
		admin.POST("/subcategories/:id/attributes", handlers.Attribute.CreateKey)
		admin.PUT("/attributes/:id", handlers.Attribute.UpdateKey)
		admin.POST("/attributes/:id/status", handlers.Attribute.SetKeyStatus)
		admin.POST("/attributes/:id/values", handlers.Attribute.AddValue)
		admin.PUT("/attribute-values/:id", handlers.Attribute.UpdateValue)
		admin.DELETE("/attribute-values/:id", handlers.Attribute.DeleteValue)

		// Products
		admin.GET("/products", handlers.Product.List)
		admin.GET("/products/view", handlers.Product.View)
		admin.PATCH("/products/view", handlers.Product.ApplyView)
		admin.POST("/products/drafts", handlers.Product.CreateDraft)
		admin.GET("/products/drafts/:id", handlers.Product.GetDraft)
		admin.PATCH("/products/drafts/:id", handlers.Product.UpdateDraft)
		admin.DELETE("/products/drafts/:id", handlers.Product.DeleteDraft)
		admin.POST("/products", handlers.Product.Create)
		admin.PUT("/products/:id", handlers.Product.Update)

		// Addresses
		admin.GET("/addresses", handlers.Address.List)
		admin.POST("/addresses/place", handlers.Address.AddFromPlace)
		admin.POST("/addresses/current-location", handlers.Address.AddFromCurrentLocation)

		// Audit trail
		admin.GET("/audit", handlers.Audit.List)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
