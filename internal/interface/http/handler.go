package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
	"github.com/yanqian/wanderwise/internal/domain/scheduling"
	"github.com/yanqian/wanderwise/internal/domain/vibe"
	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	recommenderSvc recommender.Service
	schedulingSvc  scheduling.Service
	vibeSvc        vibe.Service
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(recommenderSvc recommender.Service, schedulingSvc scheduling.Service, vibeSvc vibe.Service, logger *slog.Logger) *Handler {
	return &Handler{
		recommenderSvc: recommenderSvc,
		schedulingSvc:  schedulingSvc,
		vibeSvc:        vibeSvc,
		logger:         logger.With("component", "http.handler"),
	}
}

// Recommend runs the structured recommendation pipeline.
func (h *Handler) Recommend(c *gin.Context) {
	var req recommender.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.recommenderSvc.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, recommendError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the most recent answered queries.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.recommenderSvc.History(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": entries})
}

// Schedule finds a free calendar slot and books a follow-up call.
// Booking rejections are reported in the body, not as transport errors.
func (h *Handler) Schedule(c *gin.Context) {
	var req scheduling.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.schedulingSvc.Schedule(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "schedule_failed"
		switch {
		case apperrors.IsCode(err, apperrors.CodeInvalidInput):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, apperrors.CodeConfig):
			code = "config_error"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// InterpretVibe turns a mood tag into a one-line suggestion.
func (h *Handler) InterpretVibe(c *gin.Context) {
	var req vibe.InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.vibeSvc.Interpret(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, vibeError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QuickPrompts returns cached or freshly generated conversation starters.
func (h *Handler) QuickPrompts(c *gin.Context) {
	var req vibe.InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.vibeSvc.QuickPrompts(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, vibeError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func recommendError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeValidation):
		// Request-side schema failures carry the detail; anything the
		// model produced that fails validation is hidden from callers.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && strings.HasPrefix(appErr.Message, "request ") {
			return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
		}
		return NewHTTPError(http.StatusBadGateway, "recommendation_failed", "couldn't fetch recommendations, please try again", err)
	case apperrors.IsCode(err, apperrors.CodeConfig):
		return NewHTTPError(http.StatusInternalServerError, "config_error", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeLLM):
		return NewHTTPError(http.StatusBadGateway, "recommendation_failed", "couldn't fetch recommendations, please try again", err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "recommendation_failed", errMessage(err), err)
	}
}

func vibeError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeConfig):
		return NewHTTPError(http.StatusInternalServerError, "config_error", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeLLM):
		return NewHTTPError(http.StatusBadGateway, "vibe_failed", errMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "vibe_failed", errMessage(err), err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
