package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalwatch/config"
	"vitalwatch/controllers"
	"vitalwatch/database"
	"vitalwatch/events"
	"vitalwatch/metrics"
	"vitalwatch/repositories"
	"vitalwatch/routes"
	"vitalwatch/services"
	"vitalwatch/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	setupLogger(cfg)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	defer database.Disconnect()

	clients := config.GetClients(cfg)
	if clients.Redis != nil {
		defer clients.Redis.Close()
	}

	// Repositories
	alertRepo := repositories.NewAlertRepository(db)
	attemptRepo := repositories.NewAttemptRepository(db)
	readingRepo := repositories.NewReadingRepository(db)
	userRepo := repositories.NewUserRepository(db)

	createIndexes(alertRepo, attemptRepo, readingRepo, userRepo)

	// Infrastructure
	bus := events.NewRedisBus(clients.Redis)
	sink := metrics.NewRedisRecorder(clients.Redis)

	hub := websocket.NewHub()
	go hub.Run()

	// Transport gateways
	pushGateway := services.NewPushService(clients.FCM)
	smsGateway := services.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	emailGateway := services.NewEmailService(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPFromName)

	// Pipeline services
	deliveryService := services.NewDeliveryService(pushGateway, smsGateway, emailGateway, attemptRepo, sink)
	preferenceService := services.NewPreferenceService(userRepo)
	circleService := services.NewCircleService(userRepo, preferenceService, deliveryService)
	alertService := services.NewAlertService(alertRepo, bus, hub, circleService)
	anomalyService := services.NewAnomalyService()
	vitalsService := services.NewVitalsService(readingRepo, userRepo, anomalyService, alertService)

	wsController := controllers.NewWSController(hub)
	preferenceController := controllers.NewPreferenceController(userRepo)

	router := routes.SetupRoutes(cfg, clients, vitalsService, alertService, wsController, preferenceController)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Info("VitalWatch server starting on port ", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	logrus.Info("Server shutdown complete")
}

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

func createIndexes(repos ...indexer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, repo := range repos {
		if err := repo.CreateIndexes(ctx); err != nil {
			logrus.Warnf("Failed to create indexes: %v", err)
		}
	}
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if cfg.Environment == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
