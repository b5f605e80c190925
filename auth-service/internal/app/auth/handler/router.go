package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	roleHandler *RoleHandler,
	authMiddleware *AuthMiddleware,
	corsOrigins []string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("auth-service"))

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
			"service": "auth-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Публичные эндпоинты (без аутентификации)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		// Защищенные эндпоинты (требуют аутентификации)
		protected := auth.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("/logout", authHandler.Logout)
			protected.POST("/logout-all", authHandler.LogoutAll)
			protected.GET("/sessions", authHandler.ListSessions)
		}
	}

	// Личный кабинет текущего пользователя
	users := v1.Group("/users")
	users.Use(authMiddleware.Authenticate())
	{
		users.GET("/me", userHandler.GetMe)
		users.PATCH("/me", userHandler.UpdateMe)
		users.DELETE("/me", userHandler.DeleteMe)
	}

	// Admin эндпоинты - только для администраторов
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.GetByID)
		admin.PATCH("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
		admin.POST("/users/:id/roles", userHandler.AssignRole)
		admin.DELETE("/users/:id/roles/:role_id", userHandler.RemoveRole)

		admin.GET("/roles", roleHandler.ListRoles)
		admin.POST("/roles", roleHandler.CreateRole)
		admin.GET("/roles/:id", roleHandler.GetRole)
		admin.PATCH("/roles/:id", roleHandler.UpdateRole)
		admin.DELETE("/roles/:id", roleHandler.DeleteRole)
		admin.GET("/roles/:id/permissions", roleHandler.GetRolePermissions)
		admin.POST("/roles/:id/permissions", roleHandler.AssignPermissions)
		admin.DELETE("/roles/:id/permissions", roleHandler.RemovePermissions)

		admin.GET("/permissions", roleHandler.ListPermissions)
		admin.POST("/permissions", roleHandler.CreatePermission)
		admin.DELETE("/permissions/:id", roleHandler.DeletePermission)
	}

	return router
}
