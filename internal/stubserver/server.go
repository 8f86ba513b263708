// Package stubserver is a local double of the remote marketplace API and
// the identity provider's token endpoints. It mirrors the external
// contracts the client depends on so the client can be developed and
// tested without the hosted services.
package stubserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pricewatch-dev/pricewatch/internal/auth"
	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/models"
)

const tokenTTL = 24 * time.Hour

// Server represents the stub HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
}

// New creates a new stub server instance
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT signing. Without a configured secret the stub generates
	// an ephemeral one, which invalidates persisted tokens on restart.
	secret := cfg.Server.JWTSecret
	if secret == "" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = hex.EncodeToString(secretBytes)
		zlog.Warn().Msg("No JWT_SECRET configured - using an ephemeral secret")
	}
	auth.InitializeJWT(secret)

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
	}
	server.setupRouter()

	return server, nil
}

// initDatabase opens the sqlite database backing the stub
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Server.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	// Identity endpoints (no auth required)
	s.router.POST("/identity/register", s.register)
	s.router.POST("/identity/login", s.login)
	s.router.POST("/identity/federated", s.federatedSignIn)

	// Public marketplace reads
	s.router.GET("/product", s.listProducts)
	s.router.GET("/product/:id", s.getProduct)
	s.router.GET("/offers", s.listOffers)
	s.router.GET("/advertisements", s.listAdvertisements)
	s.router.GET("/reviews", s.listReviews)

	// Authenticated routes (bearer token required)
	authed := s.router.Group("/")
	authed.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		authed.PATCH("/identity/profile", s.updateProfile)

		authed.GET("/users/role/:email", s.getUserRole)

		authed.GET("/watchlist", s.listWatchlist)
		authed.POST("/watchlist", s.addWatchItem)
		authed.DELETE("/watchlist/:id", s.removeWatchItem)

		authed.POST("/reviews", s.createReview)

		authed.GET("/payments", s.listPayments)
		authed.POST("/payments", s.recordPayment)
		authed.POST("/create-payment-intent", s.createPaymentIntent)

		// Vendor-only submissions
		vendor := authed.Group("/")
		vendor.Use(RequireRole(models.RoleVendor, s.logger))
		{
			vendor.POST("/productAdd", s.addProduct)
			vendor.POST("/offers", s.createOffer)
			vendor.POST("/advertisements", s.createAdvertisement)
		}

		// Admin-only user management
		admin := authed.Group("/")
		admin.Use(RequireRole(models.RoleAdmin, s.logger))
		{
			admin.GET("/users", s.listUsers)
			admin.PATCH("/users/role/:email", s.setUserRole)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "pricewatch-stub",
	})
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// DB exposes the backing database for test seeding
func (s *Server) DB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server and blocks until a shutdown signal
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting stub server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}
