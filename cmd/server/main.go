package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sudo-init-do/skillswap/internal/admin"
	"github.com/sudo-init-do/skillswap/internal/alerts"
	"github.com/sudo-init-do/skillswap/internal/auth"
	"github.com/sudo-init-do/skillswap/internal/db"
	mware "github.com/sudo-init-do/skillswap/internal/middleware"
	"github.com/sudo-init-do/skillswap/internal/profile"
	"github.com/sudo-init-do/skillswap/internal/recommend"
	"github.com/sudo-init-do/skillswap/internal/swap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	// Initialize database connection
	db.Init()

	// Background notification workers
	alerts.Init()
	defer alerts.Close()
	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		log.Printf("mailer not configured: %v", err)
	}

	// Domain wiring
	stores := swap.NewPostgresStores(db.Conn)
	sink := alerts.NewSink()

	requestSvc := swap.NewRequestService(stores.Requests, stores.Interactions, stores.Progress, sink)
	interactionSvc := swap.NewInteractionService(stores.Interactions, stores.Requests, sink)
	progressSvc := swap.NewProgressService(stores.Progress, stores.Requests, stores.Interactions)
	swapHandler := swap.NewHandler(requestSvc, interactionSvc, progressSvc)

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	cache := recommend.NewCache(rdb, recommend.DefaultTTL)

	directory := profile.NewDirectory(db.Conn)
	engine := recommend.NewEngine(stores.Requests, directory, cache)
	recommendHandler := recommend.NewHandler(engine, stores.Requests)
	profile.SetRankingInvalidator(engine)

	e := echo.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "skillswap"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", profile.GetPublicProfile)
	e.GET("/swaps", swapHandler.ListOpenSwaps)
	e.GET("/swaps/:id", swapHandler.GetSwap)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.PATCH("/user/profile", profile.UpdateProfile)

	api.POST("/swaps", swapHandler.CreateSwap)
	api.GET("/swaps/me", swapHandler.ListMySwaps)
	api.GET("/swaps/recommended", recommendHandler.Recommended)
	api.PATCH("/swaps/:id", swapHandler.EditSwap)
	api.DELETE("/swaps/:id", swapHandler.DeleteSwap)
	api.POST("/swaps/:id/cancel", swapHandler.CancelSwap)
	api.POST("/swaps/:id/complete", swapHandler.CompleteSwap)

	api.POST("/swaps/:id/interactions", swapHandler.PlaceInteraction)
	api.POST("/interactions/:id/approve", swapHandler.ApproveInteraction)
	api.POST("/interactions/:id/reject", swapHandler.RejectInteraction)

	api.POST("/swaps/:id/progress", swapHandler.PostProgress)
	api.GET("/swaps/:id/progress", swapHandler.ListProgress)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.GET("/swaps", admin.ListSwaps)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
