package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tourbot/config"
	"tourbot/handlers"
	"tourbot/middleware"
	"tourbot/routes"
	"tourbot/services/assistant"
	"tourbot/services/dialogue"
	"tourbot/services/intelligence"
	"tourbot/services/ittour"
	"tourbot/services/places"
	"tourbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	utils.InitCache()
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, utils.GetCacheClient(), time.Minute)

	countries, err := places.LoadTable(filepath.Join(config.AppConfig.DataDir, "country_map.json"))
	if err != nil {
		logger.Fatal("main: failed to load country table", zap.Error(err))
	}
	cities, err := places.LoadTable(filepath.Join(config.AppConfig.DataDir, "from_city_map.json"))
	if err != nil {
		logger.Fatal("main: failed to load departure city table", zap.Error(err))
	}
	logger.Info("main: reference tables loaded", zap.Int("countries", countries.Len()), zap.Int("cities", cities.Len()))

	if config.AppConfig.ITTourAPIToken == "" {
		logger.Warn("main: ITTOUR_API_TOKEN is empty, searches will be rejected upstream")
	}

	// services.
	extractor, closeExtractor := intelligence.NewExtractorFromConfig(context.Background(), config.AppConfig, utils.GetCacheClient())
	defer func() { _ = closeExtractor() }()

	searchClient := ittour.NewClient(nil,
		config.AppConfig.ITTourBaseURL,
		config.AppConfig.ITTourAPIToken,
		config.AppConfig.AcceptLanguage,
		config.AppConfig.SearchTimeout,
	)
	searcher := ittour.NewCachedSearcher(searchClient, utils.GetCacheClient(), config.AppConfig.SearchCacheTTL)

	tracker := dialogue.NewTracker(countries, cities, config.SearchDefaults())
	bot := assistant.New(dialogue.NewMemoryStore(), tracker, extractor, searcher, config.AppConfig.TopFromCityNames())

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(gin.Logger())

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewChatHandler(bot),
		handlers.NewLogsHandler(config.AppConfig.LogFile),
		config.AppConfig.WebhookSecret,
		config.AppConfig.AdminToken,
	)
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if client := utils.GetCacheClient(); client != nil {
		_ = client.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
