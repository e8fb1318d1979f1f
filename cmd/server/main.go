package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"fundbox/internal/goals"
	"fundbox/internal/handlers"
	appMiddleware "fundbox/internal/middleware"
	"fundbox/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Firebase: admin routes stay disabled without valid credentials
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}
	authClient, err := services.InitFirebase(context.Background(), credPath)
	if err != nil {
		logrus.WithError(err).Warn("firebase initialization failed, admin routes will reject requests")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer cache.Close()
	} else {
		logrus.Warn("REDIS_URL not set, goal progress caching disabled")
	}

	yookassa := services.NewYooKassaService()
	midtransClient := services.NewMidtransService()
	payments := services.NewPaymentService(db, yookassa, midtransClient)
	goalResolver := goals.NewResolver(goals.NewGormStore(db))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	donationHandler := handlers.NewDonationHandler(db, payments)
	webhookHandler := handlers.NewWebhookHandler(db, yookassa, midtransClient)
	goalHandler := handlers.NewGoalHandler(goalResolver, cache)

	// Public API
	e.POST("/api/donations", donationHandler.CreateDonation)
	e.GET("/api/organizations/:id/goal-progress", goalHandler.GoalProgress)

	// Gateway callbacks
	e.POST("/webhooks/yookassa", webhookHandler.YooKassa)
	e.POST("/webhooks/midtrans", webhookHandler.Midtrans)

	// Admin API
	admin := e.Group("/api/admin")
	admin.Use(appMiddleware.RequireAuth(authClient))
	admin.GET("/organizations/:id/donations", donationHandler.ListDonations)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.WithField("port", port).Info("server starting")
	e.Logger.Fatal(e.Start(":" + port))
}
