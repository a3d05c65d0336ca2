package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"inventario/internal/config"
	"inventario/internal/flatfile"
	"inventario/internal/metrics"
	custommiddleware "inventario/internal/middleware"
	"inventario/internal/repository"
	"inventario/internal/service"
	"inventario/internal/session"
	"inventario/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// Deps are the long-lived clients the server takes ownership of
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	Fs      afero.Fs
	Metrics *metrics.Metrics
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.SecureHeaders(cfg.IsProduction(), logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))
	router.Use(custommiddleware.IPRateLimit(cfg.RateLimit.Global, time.Minute))
	router.Use(deps.Metrics.Middleware)

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pingStores(r.Context(), deps.DB, deps.Redis); err != nil {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "down",
				"error":  err.Error(),
			})
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", deps.Metrics.Handler())

	// Initialize repositories
	userRepo := repository.NewUserRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.DB)
	customerRepo := repository.NewCustomerRepository(deps.DB)
	purchaseRepo := repository.NewPurchaseRepository(deps.DB)
	cartRepo := repository.NewCartRepository(deps.Redis, cfg.Session.TTL)

	store, err := flatfile.NewStore(deps.Fs, cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	// Initialize services
	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo)
	customerService := service.NewCustomerService(customerRepo)
	checkoutService := service.NewCheckoutService(productRepo, purchaseRepo, deps.Metrics, logger)
	cartService := service.NewCartService(cartRepo, productRepo, checkoutService, logger)
	statsService := service.NewStatsService(productRepo, userRepo, purchaseRepo)

	sessions := session.NewManager(deps.Redis, cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.TTL, cfg.IsProduction())

	// Credential endpoints share a Redis window across instances
	credentialLimiter := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "rate_limit:credentials",
	}, logger)

	// Register routes
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.SessionMiddleware(sessions, logger))
		r.Use(custommiddleware.LoggingMiddleware(logger))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, custommiddleware.CatalogPath, http.StatusSeeOther)
		})

		transport.NewUserHandler(userService, cartService, statsService, sessions, logger).RegisterRoutes(r, credentialLimiter)
		transport.NewProductHandler(productService, checkoutService, logger).RegisterRoutes(r)
		transport.NewCustomerHandler(customerService, logger).RegisterRoutes(r)
		transport.NewCartHandler(cartService, checkoutService, logger).RegisterRoutes(r)
		transport.NewExportHandler(productService, store, logger).RegisterRoutes(r)
		transport.NewInfoHandler().RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "inventario"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     deps.DB,
		redis:  deps.Redis,
	}

	return server, nil
}

// Ping reports whether both backing stores answer
func (s *Server) Ping(ctx context.Context) error {
	return pingStores(ctx, s.db, s.redis)
}

func pingStores(ctx context.Context, db *sql.DB, rdb *redis.Client) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
