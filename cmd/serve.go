package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-svc/access"
	"storefront-svc/cache"
	"storefront-svc/config"
	"storefront-svc/database"
	"storefront-svc/handlers"
	"storefront-svc/kafka"
	"storefront-svc/logger"
	"storefront-svc/middleware"
	"storefront-svc/notify"
	"storefront-svc/repository"
	"storefront-svc/services"
	"storefront-svc/session"
	"storefront-svc/shipping"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "storefront"

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.InitDB(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if migrateOnStart {
		if err := database.Migrate(cmd.Context(), db); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	redisClient, err := cache.InitRedis(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		shutdownTracing, err = middleware.InitTracing(serviceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	var (
		producer  sarama.SyncProducer
		publisher services.EventPublisher
	)
	if cfg.Kafka.Enabled {
		producer, err = kafka.InitProducer(cfg.Kafka, log)
		if err != nil {
			// Orders can be placed without the event stream
			log.Error("Failed to initialize Kafka producer", zap.Error(err))
		} else {
			publisher = kafka.NewOrderEventPublisher(producer, cfg.Kafka.Topic, cfg.Kafka.Timeout, log)
		}
	}

	products := repository.NewPostgresProductRepository(db)
	carts := repository.NewPostgresCartRepository(db)
	orders := repository.NewPostgresOrderStore(db)

	dispatcher := notify.NewDispatcher(notify.NewSMTPSender(cfg.Mail), cfg.Mail.Seller, cfg.Mail.Timeout, log)
	checkout := services.NewCheckoutService(orders, dispatcher, publisher, log)
	cartService := services.NewCartService(carts, products)
	registry := access.NewRegistry(checkout)

	carrier := shipping.NewNovaPoshtaClient(cfg.CarrierAPIKey, cfg.Carrier)
	lookup := shipping.NewLookupCache(carrier, cache.NewJSONCache(redisClient, "np"), cfg.Carrier.CacheTTL, log)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/metrics", middleware.PrometheusHandler())

	app := router.Group("/")
	app.Use(middleware.SessionMiddleware(session.NewRedisStore(redisClient, cfg.Session.TTL), cfg.Session))
	if cfg.Auth.JWTSecret != "" {
		app.Use(middleware.Identity(cfg.Auth.JWTSecret, log))
	}

	handlers.RegisterRoutes(app, handlers.Routes{
		Catalog:  handlers.NewCatalogHandler(services.NewCatalogService(products), log),
		Cart:     handlers.NewCartHandler(cartService, log),
		Checkout: handlers.NewCheckoutHandler(cartService, services.NewInventoryGuard(products), checkout, registry, log),
		Orders:   handlers.NewOrdersHandler(registry, log),
		Shipping: handlers.NewShippingHandler(lookup),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Storefront started", zap.String("addr", cfg.Server.Addr))

	gracefulShutdown(srv, db, redisClient, producer, shutdownTracing, log)
	return nil
}

// gracefulShutdown handles SIGINT/SIGTERM and releases every dependency in
// reverse order of use.
func gracefulShutdown(
	srv *http.Server,
	db *sql.DB,
	redisClient *redis.Client,
	producer sarama.SyncProducer,
	shutdownTracing func(context.Context) error,
	log *zap.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received. Exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	} else {
		log.Info("HTTP server stopped gracefully")
	}

	if err := db.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}

	log.Info("Storefront exited gracefully")
}
