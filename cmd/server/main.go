package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/application"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/health"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/logger"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/config"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
	transferEvents "github.com/Kilat-Pet-Delivery/service-transfer/internal/events"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/sms"
)

const serviceName = "service-transfer"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.WaypointModel{},
			&repository.ProviderModel{},
			&repository.VehicleModel{},
			&repository.BookingModel{},
			&repository.BookingStopModel{},
			&repository.PricingSettingsModel{},
			&repository.ProviderPricingOverrideModel{},
			&repository.OperatorContactModel{},
			&repository.NotificationLogModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	waypointRepo := repository.NewGormWaypointRepository(db)
	logRepo := repository.NewGormNotificationLogRepository(db)
	contactRepo := repository.NewGormContactRepository(db)

	var settingsRepo pricing.SettingsStore = repository.NewGormPricingRepository(db)
	if cfg.CacheEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, pricing settings will not be cached", zap.Error(err))
		} else {
			settingsRepo = repository.NewCachedPricingRepository(settingsRepo, rdb, cfg.SettingsCacheTTL, log)
		}
	}

	// Initialize SMS sender and notification dispatcher
	sender, err := sms.NewSender(ctx, cfg.SMS, log)
	if err != nil {
		log.Fatal("failed to create sms sender", zap.Error(err))
	}
	credential := cfg.SMS.TwilioFromNumber
	if cfg.SMS.Provider == sms.ProviderSNS {
		credential = cfg.SMS.AWSSenderID
	}
	dispatcher := application.NewNotificationDispatcher(
		sender,
		contactRepo,
		logRepo,
		notification.NewPhoneNormalizer(cfg.Notification.CountryCode),
		application.DispatcherConfig{
			Workers:    cfg.Notification.Workers,
			QueueSize:  cfg.Notification.QueueSize,
			Templates:  cfg.Notification.Templates,
			Credential: credential,
		},
		log,
	)
	dispatcher.Start()

	// Initialize application services
	pricingService := application.NewPricingService(
		waypointRepo,
		settingsRepo,
		route.NewCalculator(cfg.Route),
		pricing.NewEngine(cfg.Pricing),
		cfg.ProviderPercent,
		log,
	)
	bookingService := application.NewBookingService(
		bookingRepo,
		waypointRepo,
		pricingService,
		logRepo,
		kafkaProducer,
		dispatcher,
		application.BookingConfig{
			PriceCheckEnabled:     cfg.Booking.PriceCheckEnabled,
			PriceTolerancePercent: cfg.Booking.PriceTolerancePercent,
			PublishTimeout:        cfg.Booking.PublishTimeout,
		},
		log,
	)
	waypointService := application.NewWaypointService(waypointRepo, log)

	// Initialize and start provider command consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "transfer-service"
	commandConsumer := transferEvents.NewProviderCommandConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = commandConsumer.Close() }()

	go func() {
		log.Info("starting provider command consumer")
		if err := commandConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("provider command consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewQuoteHandler(pricingService, waypointService).RegisterRoutes(&router.RouterGroup)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminBookingHandler(bookingService, pricingService).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// No new bookings can arrive now; drain pending notifications.
	dispatcher.Stop()

	log.Info(serviceName + " stopped")
}
