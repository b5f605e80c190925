package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/config"
	"demeter/background-worker-service/internal/app/background-worker/handler"
	"demeter/background-worker-service/internal/app/background-worker/processor"
	"demeter/background-worker-service/internal/app/background-worker/repository"
	"demeter/background-worker-service/internal/app/background-worker/service"
	"demeter/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем структурированное логирование
	logger.Init("background-worker-service", cfg.LogLevel)

	if cfg.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.LogstashAddr, "background-worker-service", cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	logger.Info().Msg("Starting Background Worker Service...")

	// Контекст фоновых задач: отменяется при завершении сервиса
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL: таблица refresh_tokens auth-service
	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("Successfully connected to PostgreSQL")

	// Redis: суточные счётчики классификаций
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	// MongoDB: журнал аудита classification-service
	mongoClient, err := connectMongoDB(cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()
	logger.Info().Msg("Successfully connected to MongoDB")

	// Инициализируем репозитории
	tokenRepo := repository.NewTokenRepository(pool)
	auditRepo := repository.NewAuditLogRepository(mongoClient.Database(cfg.Mongo.Database))
	statsRepo := repository.NewStatsRepository(redisClient, cfg.Redis.StatsTTL)

	// Проверяем доступность таблицы refresh_tokens до запуска расписаний
	if pending, err := tokenRepo.CountExpired(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to query refresh_tokens table, sweep will retry by schedule")
	} else {
		logger.Info().Int64("pending", pending).Msg("Expired refresh tokens pending sweep")
	}

	// Инициализируем сервисы
	housekeepingSvc := service.NewHousekeepingService(tokenRepo, auditRepo, cfg.Cron.AuditRetentionDays)
	statsSvc := service.NewStatsService(statsRepo)

	// Kafka consumer: события классификаций
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		statsSvc,
	)
	kafkaConsumer.Start(ctx)
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Msg("Kafka consumer started")

	// Cron: чистка токенов и обрезка журнала аудита
	cronScheduler := processor.NewCronScheduler(housekeepingSvc)
	if err := cronScheduler.Start(ctx, cfg.Cron.TokenSweep, cfg.Cron.AuditRetention); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}

	// HTTP сервер: healthcheck, счётчики и метрики
	healthHandler := handler.NewHealthCheckHandler(pool, redisClient, mongoClient)
	statsHandler := handler.NewStatsHandler(statsSvc)

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	statsHandler.RegisterRoutes(mux)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	logger.Info().Msg("Background Worker Service is running")
	logger.Info().Msg("Waiting for CLASSIFICATION_CREATED events from Kafka...")

	// Ожидаем сигнала завершения (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Background Worker Service...")

	// Останавливаем фоновые задачи и приём сообщений
	cancel()
	kafkaConsumer.Stop()
	cronScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.Info().Msg("Background Worker Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	// Воркеру достаточно маленького пула: одна чистка в час
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Пробуем подключиться с повторными попытками
	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
	}

	return pool, nil
}

// connectRedis устанавливает соединение с Redis с повторными попытками
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	var err error
	for i := 0; i < 10; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to Redis, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts: %w", err)
}

// connectMongoDB устанавливает соединение с MongoDB с повторными попытками
func connectMongoDB(cfg config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		client, err = mongo.Connect(ctx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()

			if err == nil {
				return client, nil
			}
		}

		logger.Warn().Int("attempt", i+1).Err(err).Msg("Failed to connect to MongoDB, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
