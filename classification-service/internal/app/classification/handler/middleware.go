package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/service"
	"demeter/classification-service/internal/app/classification/util"
)

type AuthMiddleware struct {
	accessService service.AccessServiceInterface
}

func NewAuthMiddleware(accessService service.AccessServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{
		accessService: accessService,
	}
}

// unauthorized отвечает 401 с заголовком WWW-Authenticate, как того
// требует RFC 6750 для bearer-схемы
func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthorized",
		"message": message,
	})
}

// Authenticate проверяет access токен auth-service и загружает субъекта
// запроса. Роли и разрешения читаются из базы на каждый запрос, поэтому
// их смена действует сразу, без ожидания истечения токена.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		token := parts[1]

		claims, err := m.accessService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, util.ErrExpiredToken):
				unauthorized(c, "Token has expired")
			case errors.Is(err, util.ErrWrongTokenType):
				unauthorized(c, "Invalid token type")
			case errors.Is(err, service.ErrTokenDenylisted):
				unauthorized(c, "Token has been revoked")
			case errors.Is(err, util.ErrInvalidToken):
				unauthorized(c, "Invalid token")
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal Server Error",
					"message": "Failed to validate token",
				})
			}
			c.Abort()
			return
		}

		principal, err := m.accessService.LoadPrincipal(c.Request.Context(), claims.UserID())
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				unauthorized(c, "User not found")
			case errors.Is(err, service.ErrUserInactive):
				c.JSON(http.StatusForbidden, gin.H{
					"error":   "Forbidden",
					"message": "User account is inactive",
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal Server Error",
					"message": "Failed to load user",
				})
			}
			c.Abort()
			return
		}

		c.Set("principal", principal)
		c.Set("user_id", principal.UserID)

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if principal.HasRole(role) {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}

		if !principal.HasPermission(permission) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Permission required: " + permission,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// principalFromContext достаёт субъекта запроса, сохранённого Authenticate
func principalFromContext(c *gin.Context) (*entity.Principal, bool) {
	value, exists := c.Get("principal")
	if !exists {
		return nil, false
	}

	principal, ok := value.(*entity.Principal)
	return principal, ok
}
