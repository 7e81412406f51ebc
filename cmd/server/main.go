package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookery/backend/internal/advisor"
	"github.com/bookery/backend/internal/auth"
	"github.com/bookery/backend/internal/cache"
	"github.com/bookery/backend/internal/config"
	"github.com/bookery/backend/internal/database"
	"github.com/bookery/backend/internal/handlers"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/metrics"
	"github.com/bookery/backend/internal/middleware"
	"github.com/bookery/backend/internal/recommend"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("Bookery server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	// Initialize database and run migrations
	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment == "development"); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional; response caching degrades to pass-through without it
	if cfg.RedisHost != "" {
		if _, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); err != nil {
			logger.Log.Warn("Redis unavailable, continuing without response cache", zap.Error(err))
		}
	}

	metrics.Initialize()

	// Advisor bridge; without an API key the client fails fast and every
	// advisor-backed operation serves its local fallback
	var bridge *advisor.Bridge
	if cfg.Advisor.APIKey != "" {
		client := advisor.NewGroqClient(cfg.Advisor.Model, cfg.Advisor.APIKey,
			cfg.Advisor.MaxTokens, cfg.Advisor.Temperature)
		bridge = advisor.NewBridge(client, cfg.Advisor.Workers, cfg.Advisor.QueueSize, cfg.Advisor.Timeout)
		bridge.Start()
		defer bridge.Stop()
	} else {
		logger.Log.Warn("GROQ_API_KEY not set, advisor features will use fallbacks")
	}

	authService := auth.NewService([]byte(cfg.JWTSecret), cfg.TokenLifetime)

	var adviser recommend.Adviser
	if bridge != nil {
		adviser = bridge
	}
	engine := recommend.NewService(
		recommend.NewGormCatalog(database.DB),
		recommend.NewGormReviews(database.DB),
		adviser,
	)

	h := handlers.NewHandlers(authService, engine)
	if bridge != nil {
		h.SetAdvisorBridge(bridge)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		// Authentication routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		// Public catalog reads, cached briefly when Redis is up
		books := api.Group("/books")
		{
			books.GET("", middleware.ResponseCacheMiddleware(30*time.Second), h.ListBooks)
			books.GET("/search", h.SearchBooks)
			books.GET("/:book_id", h.GetBook)
			books.GET("/:book_id/reviews", h.ListReviews)
			books.GET("/:book_id/summary", middleware.ResponseCacheMiddleware(60*time.Second), h.BookReviewSummary)

			// Catalog and review mutations require auth
			protected := books.Group("")
			protected.Use(h.AuthMiddleware())
			protected.Use(middleware.CacheInvalidationMiddleware("response:/api/v1/books*"))
			protected.POST("", h.CreateBook)
			protected.PUT("/:book_id", h.UpdateBook)
			protected.DELETE("/:book_id", middleware.RequireAdmin(), h.DeleteBook)
			protected.POST("/:book_id/generate-summary", h.GenerateBookSummary)
			protected.POST("/:book_id/reviews", h.CreateReview)
		}

		reviews := api.Group("/reviews")
		{
			reviews.Use(h.AuthMiddleware())
			reviews.Use(middleware.CacheInvalidationMiddleware("response:/api/v1/books*"))
			reviews.PUT("/:review_id", h.UpdateReview)
			reviews.DELETE("/:review_id", h.DeleteReview)
		}

		recs := api.Group("/recommendations")
		{
			recs.Use(h.AuthMiddleware())
			recs.GET("/by-genre", h.RecommendByGenre)
			recs.GET("/popular", middleware.ResponseCacheMiddleware(30*time.Second), h.RecommendPopular)
			recs.GET("/similar/:book_id", h.RecommendSimilar)
			recs.GET("/for-me", h.RecommendForMe)
			recs.POST("/advised", h.RecommendAdvised)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Bookery backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
