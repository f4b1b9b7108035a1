package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/velomarket/marketplace-auth/internal/api/handler"
	"github.com/velomarket/marketplace-auth/internal/api/middleware"
	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
	"github.com/velomarket/marketplace-auth/internal/core/service"
	"github.com/velomarket/marketplace-auth/internal/infrastructure/config"
	mongodb "github.com/velomarket/marketplace-auth/internal/infrastructure/db/mongo"
	redisdb "github.com/velomarket/marketplace-auth/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, audit ports.AuditRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	bannerRepo := mongodb.NewBannerRepository(db)

	tokenService := service.NewTokenService(cfg.JWTSecret, service.WithTTL(cfg.TokenTTL))
	authService := service.NewAuthService(userRepo, tokenService, log)
	limiter := redisdb.NewLoginLimiter(rdb)

	authHandler := handler.NewAuthHandler(authService, limiter, audit, log)
	userHandler := handler.NewUserHandler(userRepo, log)
	productHandler := handler.NewProductHandler(productRepo)
	bannerHandler := handler.NewBannerHandler(bannerRepo)

	authn := middleware.Authenticate(authService)
	optional := middleware.OptionalAuthenticate(authService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authn)
	e.POST("/auth/refresh", authHandler.Refresh, authn)
	e.POST("/auth/logout", authHandler.Logout, authn)

	// --- User routes ---
	e.GET("/users/:id", userHandler.Get, authn,
		middleware.RequireOwnerOrAdmin(middleware.OwnerFromParam("id")))
	e.PUT("/users/:id/status", userHandler.UpdateStatus, authn,
		middleware.RequireRole(domain.RoleAdmin))

	// --- Product routes ---
	e.GET("/products/:id", productHandler.Get)
	e.POST("/products", productHandler.Create, authn,
		middleware.RequireAnyRole(domain.RoleMerchant, domain.RoleAdmin))
	e.PUT("/products/:id", productHandler.Update, authn,
		middleware.RequireProductOwner(productRepo))
	e.DELETE("/products/:id", productHandler.Delete, authn,
		middleware.RequireProductOwner(productRepo))

	// --- Banner routes ---
	e.GET("/banners", bannerHandler.List, optional)
	e.POST("/banners", bannerHandler.Create, authn,
		middleware.RequireRole(domain.RoleAdmin))

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
