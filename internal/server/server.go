package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"liquorstock/internal/config"
	custommiddleware "liquorstock/internal/middleware"
	"liquorstock/internal/repository"
	"liquorstock/internal/service"
	"liquorstock/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, healthFn func() map[string]string) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Rate limiting backed by redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": healthFn(),
		})
	})

	// Initialize repositories
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	productService := service.NewProductService(productRepo)
	purchaseService := service.NewPurchaseService(txManager, productRepo, batchRepo, purchaseRepo)
	saleService := service.NewSaleService(txManager, productRepo, batchRepo, saleRepo)
	inventoryService := service.NewInventoryService(reportRepo)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	purchaseHandler := transport.NewPurchaseHandler(purchaseService, logger)
	saleHandler := transport.NewSaleHandler(saleService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, cfg.Inventory.ExpiryHorizonDays, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware)
	purchaseHandler.RegisterRoutes(router, authMiddleware)
	saleHandler.RegisterRoutes(router, authMiddleware)
	inventoryHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
