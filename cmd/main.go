package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arzan03/medistore/internal/cache"
	"github.com/arzan03/medistore/internal/config"
	"github.com/arzan03/medistore/internal/db"
	"github.com/arzan03/medistore/internal/events"
	"github.com/arzan03/medistore/internal/handlers"
	"github.com/arzan03/medistore/internal/logger"
	"github.com/arzan03/medistore/internal/services"
	"github.com/arzan03/medistore/internal/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	l := logger.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		l.Fatal().Err(err).Msg("Failed to create indexes")
	}

	images, err := storage.NewImageStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, l)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to initialize MinIO")
	}

	var closers []io.Closer

	var medicineCache services.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := rc.Ping(ctx); err != nil {
			l.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, caching disabled")
			_ = rc.Close()
		} else {
			medicineCache = rc
			closers = append(closers, rc)
		}
	}

	var publisher services.EventPublisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			l.Warn().Err(err).Msg("RabbitMQ unavailable, order events disabled")
		} else {
			publisher = p
			closers = append(closers, p)
		}
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	users := db.NewUserRepository(database)
	medicines := db.NewMedicineRepository(database)
	orders := db.NewOrderRepository(database)

	app := handlers.NewApp(l)
	handlers.SetupRoutes(app, handlers.Services{
		Users:                services.NewUserService(users, images, tokens, cfg.AdminEmails, l),
		Medicines:            services.NewMedicineService(medicines, images, medicineCache, l),
		Orders:               services.NewOrderService(orders, medicines, medicineCache, publisher, l),
		Tokens:               tokens,
		RestrictOrderListing: cfg.RestrictOrderListing,
	})

	go func() {
		l.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			l.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	l.Info().Msg("Shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		l.Error().Err(err).Msg("Server shutdown failed")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(closeCtx); err != nil {
		l.Error().Err(err).Msg("MongoDB disconnect failed")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			l.Error().Err(err).Msg("Close failed")
		}
	}
}
