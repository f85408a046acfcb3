package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/engine"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/entity"
)

// ValidationService is the part of the engine the API serves
type ValidationService interface {
	IsReady() bool
	GetRegisteredValidators() []port.ValidatorInfo
	ValidateProject(ctx context.Context, data map[string]interface{}, projectID string) (*entity.ValidationResult, error)
	ValidateChapter(ctx context.Context, data map[string]interface{}, vctx map[string]interface{}) (*entity.ValidationResult, error)
	GetValidationStatus(validationID string) (entity.ValidationStatus, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	service ValidationService
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service ValidationService, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ProjectRequest is the body of POST /api/v1/validations/project
type ProjectRequest struct {
	ProjectID string                 `json:"project_id"`
	Data      map[string]interface{} `json:"data" binding:"required"`
}

// ChapterRequest is the body of POST /api/v1/validations/chapter
type ChapterRequest struct {
	Context map[string]interface{} `json:"context" binding:"required"`
	Data    map[string]interface{} `json:"data" binding:"required"`
}

// StatusResponse reports an in-flight validation
type StatusResponse struct {
	ValidationID string                  `json:"validation_id"`
	Status       entity.ValidationStatus `json:"status"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Ready:     h.service.IsReady(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListValidators handles GET /api/v1/validators
func (h *Handlers) ListValidators(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.service.GetRegisteredValidators(),
	})
}

// ValidateProject handles POST /api/v1/validations/project
func (h *Handlers) ValidateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.service.ValidateProject(c.Request.Context(), req.Data, req.ProjectID)
	if err != nil {
		h.engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ValidateChapter handles POST /api/v1/validations/chapter
func (h *Handlers) ValidateChapter(c *gin.Context) {
	var req ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.service.ValidateChapter(c.Request.Context(), req.Data, req.Context)
	if err != nil {
		h.engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetValidationStatus handles GET /api/v1/validations/:id
func (h *Handlers) GetValidationStatus(c *gin.Context) {
	id := c.Param("id")

	status, err := h.service.GetValidationStatus(id)
	if err != nil {
		h.engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    StatusResponse{ValidationID: id, Status: status},
	})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Warn("Invalid request body",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body: " + err.Error(),
	})
}

// engineError maps engine errors to status codes: unknown ids are 404,
// engine misuse is 409, anything else 500
func (h *Handlers) engineError(c *gin.Context, err error) {
	var misuse *engine.ValidationError
	code := http.StatusInternalServerError
	switch {
	case engine.IsNotFound(err):
		code = http.StatusNotFound
	case errors.As(err, &misuse):
		code = http.StatusConflict
	default:
		h.logger.Error("Validation request failed", zap.Error(err))
	}

	c.JSON(code, Response{
		Success: false,
		Error:   err.Error(),
	})
}
