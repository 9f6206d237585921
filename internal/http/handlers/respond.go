package handlers

import (
	"net/http"

	"github.com/geocoder89/bankly/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Status    int         `json:"status"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get(middlewares.CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			Status:    status,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// RespondMessage writes the bare {message} body used by auth rejections and deletes.
func RespondMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

func RespondStatusMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"status": status, "message": message})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
