package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(
	classificationHandler *ClassificationHandler,
	authMiddleware *AuthMiddleware,
	corsOrigins []string,
	uploadsDir string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("classification-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "classification-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Загруженные изображения раздаются статикой
	router.Static("/uploads", uploadsDir)

	v1 := router.Group("/api/v1")

	// Классификации текущего пользователя
	classifications := v1.Group("/classifications")
	classifications.Use(authMiddleware.Authenticate())
	{
		classifications.POST("", authMiddleware.RequirePermission(entity.PermCreateOwn), classificationHandler.Create)
		classifications.GET("", authMiddleware.RequirePermission(entity.PermReadOwn), classificationHandler.List)
		classifications.GET("/:id", authMiddleware.RequirePermission(entity.PermReadOwn), classificationHandler.GetByID)
		classifications.PATCH("/:id", authMiddleware.RequirePermission(entity.PermUpdateOwn), classificationHandler.Update)
		classifications.DELETE("/:id", authMiddleware.RequirePermission(entity.PermDeleteOwn), classificationHandler.Delete)
	}

	// Admin эндпоинты - только для администраторов
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/classifications", authMiddleware.RequirePermission(entity.PermReadAll), classificationHandler.AdminList)
		admin.DELETE("/classifications/:id", authMiddleware.RequirePermission(entity.PermDeleteAll), classificationHandler.AdminDelete)
		admin.POST("/classifications/:id/restore", authMiddleware.RequirePermission(entity.PermRestoreAll), classificationHandler.AdminRestore)
		admin.GET("/audit-logs", authMiddleware.RequirePermission(entity.PermReadAll), classificationHandler.ListAuditLogs)
	}

	return router
}
