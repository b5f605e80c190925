package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/service"
	"demeter/pkg/metrics"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   newValidator(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid request body",
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Conflict",
				"message": "User with this email already exists",
			})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Validation failed",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to register user",
			})
		}
		return
	}

	metrics.AuthRegistrations.Inc()
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid request body",
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	meta := entity.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, meta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			unauthorized(c, "Invalid email or password")
		case errors.Is(err, service.ErrUserInactive):
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "User account is inactive",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to login",
			})
		}
		return
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req entity.RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid request body",
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			metrics.AuthTokenRefreshes.WithLabelValues("failed").Inc()
			unauthorized(c, "Invalid or expired refresh token")
		case errors.Is(err, service.ErrRefreshTokenRevoked):
			metrics.AuthTokenRefreshes.WithLabelValues("failed").Inc()
			unauthorized(c, "Refresh token has been revoked")
		case errors.Is(err, service.ErrUserInactive):
			metrics.AuthTokenRefreshes.WithLabelValues("failed").Inc()
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "User account is inactive",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to refresh token",
			})
		}
		return
	}

	metrics.AuthTokenRefreshes.WithLabelValues("success").Inc()
	metrics.AuthTokensIssued.WithLabelValues("access").Inc()

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	accessToken := c.GetString("access_token")

	// Тело запроса необязательно: без него отзывается только access токен
	var req entity.LogoutRequest
	c.ShouldBindJSON(&req)

	count, err := h.authService.Logout(c.Request.Context(), userID, accessToken, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			// Несуществующий или уже отозванный токен - replay либо
			// повторный выход, отвечаем как на невалидные учётные данные
			unauthorized(c, "Invalid refresh token")
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to logout",
			})
		}
		return
	}

	if count > 0 {
		reason := "logout"
		if req.All {
			reason = "logout_all"
		}
		metrics.AuthTokensRevoked.WithLabelValues(reason).Add(float64(count))
	}

	c.JSON(http.StatusOK, entity.LogoutResponse{
		Message:       "Successfully logged out",
		TokensRevoked: count,
	})
}

// LogoutAll отзывает все refresh токены пользователя и заносит текущий
// access токен в denylist
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	accessToken := c.GetString("access_token")

	count, err := h.authService.Logout(c.Request.Context(), userID, accessToken, &entity.LogoutRequest{All: true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to logout",
		})
		return
	}

	if count > 0 {
		metrics.AuthTokensRevoked.WithLabelValues("logout_all").Add(float64(count))
	}

	c.JSON(http.StatusOK, entity.LogoutResponse{
		Message:       "Successfully logged out from all sessions",
		TokensRevoked: count,
	})
}

func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	onlyValid := c.DefaultQuery("active", "true") != "false"

	sessions, err := h.authService.ListSessions(c.Request.Context(), userID, onlyValid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list sessions",
		})
		return
	}

	c.JSON(http.StatusOK, entity.SessionListResponse{
		Sessions: sessions,
		Total:    len(sessions),
	})
}
