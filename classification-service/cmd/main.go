package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"demeter/classification-service/internal/app/classification/config"
	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/handler"
	"demeter/classification-service/internal/app/classification/infrastructure"
	http2 "demeter/classification-service/internal/app/classification/infrastructure/http"
	"demeter/classification-service/internal/app/classification/infrastructure/messaging"
	"demeter/classification-service/internal/app/classification/repository"
	"demeter/classification-service/internal/app/classification/service"
	"demeter/classification-service/internal/app/classification/util"
	"demeter/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем структурированное логирование
	logger.Init("classification-service", cfg.LogLevel)

	if cfg.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.LogstashAddr, "classification-service", cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	// GORM для таблицы классификаций
	db, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	logger.Info().Msg("Successfully connected to PostgreSQL database")

	// Создаём таблицу классификаций, если её ещё нет
	if err := db.AutoMigrate(&entity.Classification{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database schema")
	}

	// Отдельный pgx пул для чтения пользователей, ролей и разрешений
	// из схемы auth-service
	authDB, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to auth schema")
	}
	defer authDB.Close()

	// Подключаемся к Redis: кэш списков и denylist access токенов
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	logger.Info().Msg("Successfully connected to Redis")

	// MongoDB хранит журнал аудита административных действий
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

	// Kafka producer отправляет события классификаций для background worker
	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("Successfully initialized Kafka producer")

	// Каталог загрузок должен существовать до первого запроса
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create uploads directory")
	}

	storage := util.NewDiskImageStorage(cfg.Uploads.Dir)
	tokenVerifier := util.NewTokenVerifier(cfg.JWT.Secret)

	// Инициализируем репозитории
	classificationRepo := repository.NewClassificationRepository(db)
	accessRepo := repository.NewAccessRepository(authDB)
	auditRepo := repository.NewAuditLogRepository(mongoClient.Database(cfg.Mongo.Database))
	cacheRepo := repository.NewRedisListCache(redisClient, cfg.Redis.ListCacheTTL)
	denylistRepo := repository.NewRedisDenylistRepository(redisClient)

	// Выбираем классификатор по конфигурации
	classifier := buildClassifier(cfg.Classifier)

	// Инициализируем сервисы
	classificationService := service.NewClassificationService(
		classificationRepo,
		auditRepo,
		cacheRepo,
		storage,
		classifier,
		kafkaProducer,
	)
	accessService := service.NewAccessService(accessRepo, denylistRepo, tokenVerifier)

	// Инициализируем обработчики
	classificationHandler := handler.NewClassificationHandler(classificationService)
	authMiddleware := handler.NewAuthMiddleware(accessService)

	// Настраиваем маршруты
	router := handler.SetupRoutes(classificationHandler, authMiddleware, cfg.CORS.AllowedOrigins, cfg.Uploads.Dir)

	// Создаем HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Ожидаем сигнала завершения (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Даем серверу 30 секунд на завершение текущих запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server stopped gracefully")
}

// buildClassifier собирает классификатор по конфигурации: mock, чистый
// ML или ML с подстраховкой mock-ом
func buildClassifier(cfg config.ClassifierConfig) infrastructure.Classifier {
	mock := service.NewMockClassifier()

	if cfg.Mode != "ml" {
		logger.Info().Msg("Using mock classifier")
		return mock
	}

	ml := http2.NewMLClient(cfg.MLBaseURL, cfg.MLTimeout)

	if cfg.FallbackToMock {
		logger.Info().Str("ml_base_url", cfg.MLBaseURL).Msg("Using ML classifier with mock fallback")
		return service.NewFallbackClassifier(ml, mock)
	}

	logger.Info().Str("ml_base_url", cfg.MLBaseURL).Msg("Using ML classifier")
	return ml
}

// connectGorm устанавливает GORM-соединение с PostgreSQL
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(25)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	// Пул только читает субъектов запросов, большой ему не нужен
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
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

// connectRedis создает и настраивает Redis клиент
func connectRedis(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return client
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
