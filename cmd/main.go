package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/checkout"
	"github.com/victorcamacaro253/farmacia-web/internal/handler"
	mid "github.com/victorcamacaro253/farmacia-web/internal/middleware"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/internal/search"
	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/config"
	"github.com/victorcamacaro253/farmacia-web/pkg/database"
	"github.com/victorcamacaro253/farmacia-web/pkg/events"
	"github.com/victorcamacaro253/farmacia-web/pkg/jwtutil"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("farmacia-web")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	// `farmacia-web admin-token <subject>` prints a staff token for the /api/admin routes
	if len(os.Args) == 3 && os.Args[1] == "admin-token" {
		token, err := jwtutil.NewJWTUtil(&appConfig.JWT).GenerateAdminToken(os.Args[2])
		if err != nil {
			log.Fatal("Failed to issue admin token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	log.Info("Starting farmacia-web",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	store, closeStore, err := openStore(appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeStore()
	store = storage.Observe(store, prometheus.ObserveStorageOperation(appConfig.Storage.Driver))

	// Catalog
	var cat *catalog.Catalog
	if appConfig.Catalog.Path != "" {
		cat, err = catalog.LoadFile(appConfig.Catalog.Path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		log.Fatal("Failed to load catalog", zap.Error(err))
	}
	categories, products, branches := cat.Counts()
	prometheus.SetCatalogSize(categories, products, branches)
	log.Info("Catalog loaded",
		zap.Int("categories", categories),
		zap.Int("products", products),
		zap.Int("branches", branches))

	// Order events
	var publisher events.Publisher
	if len(appConfig.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(appConfig.Events.Brokers, appConfig.Events.PublishTimeout)
		log.Info("Publishing order events to Kafka", zap.Strings("brokers", appConfig.Events.Brokers))
	} else {
		publisher = events.NewLogPublisher(log)
		log.Info("No Kafka brokers configured, order events are only logged")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close event publisher", zap.Error(err))
		}
	}()

	orders := order.New(store, cat.SeedOrders(), prometheus.RecordDiscardedState)
	notifier := order.NewNotifier(publisher, appConfig.Events)
	provider := storefront.NewProvider(cat, store, orders, storefront.DefaultStripes, prometheus.RecordDiscardedState)
	checkoutService := checkout.NewService(orders, cat, notifier, appConfig.Checkout)
	searches := search.NewCoordinator(cat, appConfig.Search.Delay)

	h := handler.New(provider, checkoutService, searches, notifier)
	tokens := jwtutil.NewJWTUtil(&appConfig.JWT)
	clientMW := mid.ClientIdentity(tokens, appConfig.JWT.CookieName, appConfig.Server.Env == "production")

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowCredentials: true,
		ExposeHeaders:    []string{mid.ClientTokenHeader, echo.HeaderXRequestID},
	}))
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", prometheus.HandlerFunc())

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	handler.RegisterRoutes(e, h, clientMW, mid.AdminAuth(tokens))

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

// openStore connects the configured backend and returns a func releasing it
func openStore(appConfig *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch appConfig.Storage.Driver {
	case "postgres":
		db, err := database.InitDB(&appConfig.DB, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateModels(db, storage.Models()...); err != nil {
			return nil, nil, err
		}
		log.Info("Database connection established")
		return storage.NewGormStore(db), closeDB(db, log), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		log.Info("Redis connection established", zap.String("addr", appConfig.Redis.Addr))
		return storage.NewRedisStore(client), func() {
			if err := client.Close(); err != nil {
				log.Error("Failed to close redis client", zap.Error(err))
			}
		}, nil

	default:
		log.Warn("Using in-memory storage, client state is lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func closeDB(db *gorm.DB, log *zap.Logger) func() {
	return func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}
}
