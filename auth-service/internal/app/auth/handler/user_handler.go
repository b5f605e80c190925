package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/service"
	"demeter/pkg/metrics"
)

type UserHandler struct {
	userService service.UserServiceInterface
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserServiceInterface) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   newValidator(),
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to get user info",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.UpdateMeRequest
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

	user, tokensRevoked, err := h.userService.UpdateMe(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
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
				"message": "Failed to update user",
			})
		}
		return
	}

	if tokensRevoked > 0 {
		metrics.AuthTokensRevoked.WithLabelValues("password_change").Add(float64(tokensRevoked))
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	count, err := h.userService.DeleteMe(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to delete account",
		})
		return
	}

	if count > 0 {
		metrics.AuthTokensRevoked.WithLabelValues("account_delete").Add(float64(count))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Account deleted",
		"tokens_revoked": count,
	})
}

// ==================== Admin handlers ====================

func (h *UserHandler) List(c *gin.Context) {
	skip, err := parseQueryInt(c, "skip", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid skip parameter",
		})
		return
	}

	limit, err := parseQueryInt(c, "limit", 100)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid limit parameter",
		})
		return
	}

	resp, err := h.userService.List(c.Request.Context(), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to get user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req entity.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid request body",
		})
		return
	}

	user, err := h.userService.AdminUpdate(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to update user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	count, err := h.userService.AdminDelete(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to delete user",
		})
		return
	}

	if count > 0 {
		metrics.AuthTokensRevoked.WithLabelValues("account_delete").Add(float64(count))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "User deleted",
		"tokens_revoked": count,
	})
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req entity.AssignRoleRequest
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

	// Кто назначил роль, фиксируется в user_roles.assigned_by
	var assignedBy *uuid.UUID
	if adminID, ok := userIDFromContext(c); ok {
		assignedBy = &adminID
	}

	if err := h.userService.AssignRole(c.Request.Context(), userID, req.RoleID, assignedBy); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
		case errors.Is(err, service.ErrRoleNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "Role not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to assign role",
			})
		}
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Role assigned",
	})
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	roleID, err := strconv.Atoi(c.Param("role_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid role ID",
		})
		return
	}

	if err := h.userService.RemoveRole(c.Request.Context(), userID, roleID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "User not found",
			})
		case errors.Is(err, service.ErrRoleNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not Found",
				"message": "Role not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to remove role",
			})
		}
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Role removed",
	})
}

// parseUserID читает uuid из path-параметра id, при ошибке отвечает 400
func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid user ID",
		})
		return uuid.Nil, false
	}

	return userID, true
}

// parseQueryInt читает целочисленный query-параметр с значением по умолчанию
func parseQueryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}

	return strconv.Atoi(raw)
}
