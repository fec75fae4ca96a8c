package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-storefront/config"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/download"
	"github.com/fekuna/omnipos-storefront/internal/migration"
	"github.com/fekuna/omnipos-storefront/internal/server"
	"github.com/fekuna/omnipos-storefront/pkg/broker"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/i18n"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/fekuna/omnipos-storefront/pkg/middleware"
	"github.com/fekuna/omnipos-storefront/pkg/search"

	cartH "github.com/fekuna/omnipos-storefront/internal/cart/handler"
	cartRepoPkg "github.com/fekuna/omnipos-storefront/internal/cart/repository"
	cartUCPkg "github.com/fekuna/omnipos-storefront/internal/cart/usecase"

	catH "github.com/fekuna/omnipos-storefront/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-storefront/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-storefront/internal/category/usecase"

	checkoutH "github.com/fekuna/omnipos-storefront/internal/checkout/handler"
	checkoutUCPkg "github.com/fekuna/omnipos-storefront/internal/checkout/usecase"

	downloadH "github.com/fekuna/omnipos-storefront/internal/download/handler"
	downloadRepoPkg "github.com/fekuna/omnipos-storefront/internal/download/repository"
	downloadUCPkg "github.com/fekuna/omnipos-storefront/internal/download/usecase"

	invH "github.com/fekuna/omnipos-storefront/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-storefront/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-storefront/internal/inventory/usecase"

	notifyListenerPkg "github.com/fekuna/omnipos-storefront/internal/notification/listener"
	"github.com/fekuna/omnipos-storefront/internal/notification/mailer"

	orderH "github.com/fekuna/omnipos-storefront/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-storefront/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-storefront/internal/order/usecase"

	outboxRepoPkg "github.com/fekuna/omnipos-storefront/internal/outbox/repository"
	"github.com/fekuna/omnipos-storefront/internal/outbox/relay"

	pickupH "github.com/fekuna/omnipos-storefront/internal/pickup/handler"
	pickupRepoPkg "github.com/fekuna/omnipos-storefront/internal/pickup/repository"
	pickupUCPkg "github.com/fekuna/omnipos-storefront/internal/pickup/usecase"

	prodH "github.com/fekuna/omnipos-storefront/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-storefront/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-storefront/internal/product/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	i18n.Init()
	if path := os.Getenv("I18N_OVERRIDE_FILE"); path != "" {
		if err := i18n.Load(path); err != nil {
			log.Printf("Failed to load locale override %s: %v", path, err)
		}
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := migration.Apply(context.Background(), db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
	}

	txManager := postgres.NewTxManager(db)

	// 4. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	cartRepo := cartRepoPkg.NewPGRepository(db)
	pickupRepo := pickupRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	downloadRepo := downloadRepoPkg.NewPGRepository(db)
	outboxRepo := outboxRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, caching and idempotency disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5.5 Initialize Kafka
	kafkaProducer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers})
	defer kafkaProducer.Close()

	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Configured Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 5.8 Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 5.9 Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry, "storefront")

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, invRepo, txManager, redisClient, esClient, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, txManager, redisClient, prodUC, appLogger)
	cartUC := cartUCPkg.NewCartUseCase(cartRepo, prodRepo, txManager, appLogger)
	pickupUC := pickupUCPkg.NewPickupUseCase(pickupRepo, appLogger)

	signer := download.NewSigner(cfg.JWT.DownloadSecretKey, cfg.Server.PublicBaseURL)
	downloadUC := downloadUCPkg.NewDownloadUseCase(downloadRepo, signer, downloadUCPkg.Options{
		TTL:          cfg.Downloads.TTL,
		MaxDownloads: cfg.Downloads.MaxDownloads,
		MediaRoot:    cfg.Downloads.MediaRoot,
	}, appMetrics, appLogger)

	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, txManager, invUC, downloadUC, cartRepo, outboxRepo, prodUC, cfg.Kafka.Topic, appLogger)
	checkoutUC := checkoutUCPkg.NewCheckoutUseCase(cartUC, pickupUC, orderUC, checkout.Pricing{
		TaxRate:               cfg.Checkout.TaxRate,
		FlatShipping:          cfg.Checkout.FlatShipping,
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
	}, redisClient, appMetrics, appLogger)

	// 6.5 Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxRelay := relay.NewRelay(outboxRepo, txManager, kafkaProducer, cfg.Outbox.Interval, cfg.Outbox.BatchSize, appLogger)
	go outboxRelay.Start(ctx)

	mail := mailer.New(&mailer.Config{
		Driver:   cfg.Mail.Driver,
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, appLogger)
	orderListener := notifyListenerPkg.NewOrderListener(kafkaConsumer, mail, redisClient, appLogger)
	go orderListener.Start(ctx)

	// 7. Initialize Handlers
	verifier := auth.NewVerifier(cfg.JWT.SecretKey)

	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	cartHandler := cartH.NewCartHandler(cartUC, appLogger)
	pickupHandler := pickupH.NewPickupHandler(pickupUC, appLogger)
	checkoutHandler := checkoutH.NewCheckoutHandler(checkoutUC, appLogger)
	orderHandler := orderH.NewOrderHandler(orderUC, appLogger)
	downloadHandler := downloadH.NewDownloadHandler(downloadUC, appLogger)

	// 8. Start gRPC Server
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ObservabilityInterceptor(appLogger, appMetrics),
			middleware.ContextInterceptor(verifier),
		),
	)

	catHandler.Register(grpcServer)
	prodHandler.Register(grpcServer)
	invHandler.Register(grpcServer)
	cartHandler.Register(grpcServer)
	pickupHandler.Register(grpcServer)
	checkoutHandler.Register(grpcServer)
	orderHandler.Register(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 9. Start HTTP Server
	if cfg.Server.AppEnv != "development" && cfg.Server.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := server.NewEngine(server.Config{
		AllowOrigins:  cfg.Server.AllowOrigins,
		SecureCookies: strings.HasPrefix(cfg.Server.PublicBaseURL, "https://"),
	}, server.Deps{
		Verifier:  verifier,
		Logger:    appLogger,
		Metrics:   appMetrics,
		Gatherer:  registry,
		Ping:      db.PingContext,
		Checkout:  checkoutHandler,
		Orders:    orderHandler,
		Downloads: downloadHandler,
	})
	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
