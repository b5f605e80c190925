package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/infrastructure"
	"demeter/classification-service/internal/app/classification/service"
	"demeter/classification-service/internal/app/classification/util"
)

type ClassificationHandler struct {
	classificationService service.ClassificationServiceInterface
	validator             *validator.Validate
}

func NewClassificationHandler(classificationService service.ClassificationServiceInterface) *ClassificationHandler {
	return &ClassificationHandler{
		classificationService: classificationService,
		validator:             newValidator(),
	}
}

// Create принимает multipart-форму с полем image и необязательным полем
// notes, классифицирует изображение и возвращает созданную запись
func (h *ClassificationHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Image file is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	upload := &service.ImageUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   file,
	}

	classification, err := h.classificationService.Create(c.Request.Context(), principal, upload, c.PostForm("notes"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUnsupportedImageFormat):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": "Only .jpg, .jpeg and .png images are supported",
			})
		case errors.Is(err, util.ErrImageTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "Payload Too Large",
				"message": "Image exceeds the maximum allowed size",
			})
		case errors.Is(err, infrastructure.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": "Image cannot be processed",
			})
		case errors.Is(err, infrastructure.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Classifier rate limit exceeded, try again later",
			})
		case errors.Is(err, infrastructure.ErrClassifierUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service Unavailable",
				"message": "Classification is temporarily unavailable",
			})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Validation failed",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to create classification",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, classification)
}

// List возвращает страницу собственных классификаций пользователя
func (h *ClassificationHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	resp, err := h.classificationService.ListOwn(c.Request.Context(), principal, skip, limit, c.Query("grain_type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list classifications",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ClassificationHandler) GetByID(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	id, ok := parseClassificationID(c)
	if !ok {
		return
	}

	classification, err := h.classificationService.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		if errors.Is(err, service.ErrClassificationNotFound) {
			respondNotFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to get classification",
		})
		return
	}

	c.JSON(http.StatusOK, classification)
}

// Update изменяет заметки собственной классификации
func (h *ClassificationHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	id, ok := parseClassificationID(c)
	if !ok {
		return
	}

	var req entity.UpdateClassificationRequest
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

	classification, err := h.classificationService.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassificationNotFound):
			respondNotFound(c)
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Validation failed",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to update classification",
			})
		}
		return
	}

	c.JSON(http.StatusOK, classification)
}

// Delete помечает собственную классификацию удалённой
func (h *ClassificationHandler) Delete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	id, ok := parseClassificationID(c)
	if !ok {
		return
	}

	if err := h.classificationService.Delete(c.Request.Context(), principal, id); err != nil {
		if errors.Is(err, service.ErrClassificationNotFound) {
			respondNotFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to delete classification",
		})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Classification deleted",
	})
}

// ==================== Admin handlers ====================

// AdminList возвращает страницу классификаций всех пользователей с
// фильтрами по пользователю, типу зерна и включением удалённых
func (h *ClassificationHandler) AdminList(c *gin.Context) {
	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": "Invalid user_id parameter",
			})
			return
		}
		userID = &parsed
	}

	includeDeleted := c.DefaultQuery("include_deleted", "false") == "true"

	resp, err := h.classificationService.ListAll(c.Request.Context(), skip, limit, userID, c.Query("grain_type"), includeDeleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list classifications",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AdminDelete удаляет любую классификацию. С параметром hard=true запись
// и изображение удаляются безвозвратно.
func (h *ClassificationHandler) AdminDelete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	id, ok := parseClassificationID(c)
	if !ok {
		return
	}

	hard := c.DefaultQuery("hard", "false") == "true"

	meta := entity.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	if err := h.classificationService.AdminDelete(c.Request.Context(), principal, id, hard, meta); err != nil {
		if errors.Is(err, service.ErrClassificationNotFound) {
			respondNotFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to delete classification",
		})
		return
	}

	message := "Classification deleted"
	if hard {
		message = "Classification permanently deleted"
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: message,
	})
}

// AdminRestore снимает пометку удаления с классификации
func (h *ClassificationHandler) AdminRestore(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	id, ok := parseClassificationID(c)
	if !ok {
		return
	}

	meta := entity.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	classification, err := h.classificationService.AdminRestore(c.Request.Context(), principal, id, meta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassificationNotFound):
			respondNotFound(c)
		case errors.Is(err, service.ErrNotDeleted):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Conflict",
				"message": "Classification is not deleted",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal Server Error",
				"message": "Failed to restore classification",
			})
		}
		return
	}

	c.JSON(http.StatusOK, classification)
}

// ListAuditLogs возвращает страницу журнала административных действий
func (h *ClassificationHandler) ListAuditLogs(c *gin.Context) {
	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	resp, err := h.classificationService.ListAuditLogs(c.Request.Context(), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list audit logs",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseClassificationID читает uuid из path-параметра id, при ошибке отвечает 400
func parseClassificationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid classification ID",
		})
		return uuid.Nil, false
	}

	return id, true
}

// parsePagination читает skip и limit, при ошибке отвечает 400
func parsePagination(c *gin.Context) (int, int, bool) {
	skip, err := parseQueryInt(c, "skip", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid skip parameter",
		})
		return 0, 0, false
	}

	limit, err := parseQueryInt(c, "limit", 100)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Invalid limit parameter",
		})
		return 0, 0, false
	}

	return skip, limit, true
}

// parseQueryInt читает целочисленный query-параметр с значением по умолчанию
func parseQueryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}

	return strconv.Atoi(raw)
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": "Classification not found",
	})
}
