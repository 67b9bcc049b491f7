package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aapiden/storefront/internal/auth"
	"github.com/aapiden/storefront/internal/cache"
	"github.com/aapiden/storefront/internal/config"
	"github.com/aapiden/storefront/internal/health"
	h "github.com/aapiden/storefront/internal/http"
	"github.com/aapiden/storefront/internal/logger"
	"github.com/aapiden/storefront/internal/pricing"
	"github.com/aapiden/storefront/internal/publisher"
	"github.com/aapiden/storefront/internal/repository"
	"github.com/aapiden/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", "error", err)
		}
	}()
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	if err := repository.RunMigrations(mongoDB); err != nil {
		return err
	}
	log.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	productCache := cache.NewRedisCache(redisClient)

	stores := service.Stores{
		Orders:       repository.NewOrderRepository(mongoDB),
		Products:     repository.NewProductRepository(mongoDB),
		ProductTypes: repository.NewProductTypeRepository(mongoDB),
		Users:        repository.NewUserRepository(mongoDB),
		Reviews:      repository.NewReviewRepository(mongoDB),
	}
	outbox := repository.NewOutboxRepository(mongoDB)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	tariff := pricing.NewTariff(cfg.ShippingFirstKgRate, cfg.ShippingAdditionalKgRate)
	notifier := service.NewOutboxNotifier(outbox, cfg.AdminEmailSender, log)

	handlers := h.Handlers{
		Orders: h.NewOrdersHandler(
			service.NewOrderService(repository.NewMongoTransactor(mongoDB), stores, productCache, notifier, tariff, log),
			cfg.RequestTimeout),
		Catalog:   h.NewCatalogHandler(service.NewCatalogService(stores, productCache, cfg.HostName, log), cfg.RequestTimeout),
		Users:     h.NewUsersHandler(service.NewUserService(stores, tokens, log), cfg.RequestTimeout),
		Reviews:   h.NewReviewsHandler(service.NewReviewService(stores, log), cfg.RequestTimeout),
		Dashboard: h.NewDashboardHandler(service.NewDashboardService(stores, log), cfg.RequestTimeout),
	}

	writer := publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.NotificationsTopic)
	defer writer.Close()
	poller := publisher.NewOutboxPoller(outbox, writer, log)

	monitor := health.NewMonitor(log,
		health.Check{Name: "mongo", Ping: func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }},
		health.Check{Name: "redis", Ping: productCache.Ping},
	)
	grpcServer := health.NewGRPCServer(monitor)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(handlers, tokens, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("storefront HTTP listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("health gRPC listening", "port", cfg.GRPCPort)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down storefront")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("storefront stopped")
	return nil
}
