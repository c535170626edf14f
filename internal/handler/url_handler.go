package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/priy-am/url-shortener-service/internal/model"
	"github.com/priy-am/url-shortener-service/internal/repository"
	"github.com/priy-am/url-shortener-service/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type URLHandler struct {
	service *service.URLService
	baseURL string
	logger  *zap.Logger
}

func NewURLHandler(service *service.URLService, baseURL string) *URLHandler {
	return &URLHandler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.L().With(zap.String("component", "URLHandler")),
	}
}

// CreateShortURL handles POST /api/url/shorten.
func (h *URLHandler) CreateShortURL(c *gin.Context) {
	var req model.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "longUrl is required",
			Code:  "INVALID_JSON",
		})
		return
	}

	mapping, err := h.service.Shorten(c.Request.Context(), req.LongURL)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(mapping))
}

// Redirect handles GET /api/url/:code. Each successful resolution counts a
// visit, so the response must not be served from any intermediary cache.
func (h *URLHandler) Redirect(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Short URL not found",
			Code:  "URL_NOT_FOUND",
		})
		return
	}

	mapping, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Redirect(http.StatusFound, mapping.LongURL)
}

// Stats handles GET /api/url/:code/stats. Read-only: does not count a visit.
func (h *URLHandler) Stats(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	mapping, err := h.service.Stats(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(mapping))
}

// AdminListURLs handles GET /api/url/admin/urls. Authentication happens in
// the admin middleware before this runs.
func (h *URLHandler) AdminListURLs(c *gin.Context) {
	mappings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]model.MappingResponse, 0, len(mappings))
	for i := range mappings {
		responses = append(responses, h.toResponse(&mappings[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// Health handles GET /healthz.
func (h *URLHandler) Health(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *URLHandler) toResponse(mapping *model.UrlMapping) model.MappingResponse {
	return model.MappingResponse{
		Code:      mapping.Code,
		ShortURL:  h.baseURL + "/api/url/" + mapping.Code,
		LongURL:   mapping.LongURL,
		Clicks:    mapping.Clicks,
		CreatedAt: mapping.CreatedAt,
	}
}

func (h *URLHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid URL format",
			Code:  "INVALID_URL",
		})
	case errors.Is(err, repository.ErrURLNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Short URL not found",
			Code:  "URL_NOT_FOUND",
		})
	case errors.Is(err, service.ErrCodeGenerationMax):
		h.logger.Error("Code generation max attempts reached", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Service temporarily unavailable",
			Code:  "CODE_GENERATION_FAILED",
		})
	case errors.Is(err, repository.ErrDatabaseError):
		h.logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Database error",
			Code:  "DB_ERROR",
		})
	default:
		h.logger.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
