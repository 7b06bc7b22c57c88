package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error kinds surfaced to clients. The body shape is always
// {"error": <kind>, "message": <text>}.
const (
	KindValidation         = "ValidationError"
	KindConflict           = "Conflict"
	KindInvalidCredentials = "InvalidCredentials"
	KindNotFound           = "NotFound"
	KindInternal           = "InternalServerError"
)

func RespondError(ctx *gin.Context, status int, kind, message string) {
	ctx.JSON(status, gin.H{
		"error":   kind,
		"message": message,
	})
}

func RespondValidation(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, KindValidation, message)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, KindConflict, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, KindNotFound, message)
}

func RespondInvalidCredentials(ctx *gin.Context) {
	// identical body whichever factor was wrong
	RespondError(ctx, http.StatusUnauthorized, KindInvalidCredentials, "Invalid email or password")
}

// RespondInternal logs the real error server-side and returns a generic body.
func RespondInternal(ctx *gin.Context, err error) {
	reqID, _ := ctx.Get("request_id")

	slog.Default().ErrorContext(ctx.Request.Context(), "internal_error",
		"err", err,
		"path", ctx.Request.URL.Path,
		"request_id", reqID,
	)

	RespondError(ctx, http.StatusInternalServerError, KindInternal, "Something went wrong")
}
