package handlers

import (
	"net/http"

	"github.com/clinicbook/api/internal/http/flash"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
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
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RedirectWithFlash is the form-flow failure/success path: stash the
// message, bounce, leave no partial state behind.
func RedirectWithFlash(ctx *gin.Context, target, level, message string) {
	flash.Set(ctx, level, message)
	ctx.Redirect(http.StatusFound, target)
}

// withFlash merges a pending flash message into a JSON page payload.
func withFlash(ctx *gin.Context, payload gin.H) gin.H {
	if m, ok := flash.Take(ctx); ok {
		payload["flash"] = m
	}

	return payload
}
