package httpadapter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const msgInternal = "An unexpected error occurred. Please try again later."

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts c with the envelope for err. Unclassified errors become
// a generic 500; the cause only reaches the log.
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = &domain.Error{Kind: domain.KindInternal, Code: domain.CodeInternal, Message: msgInternal, Err: err}
	}

	status := statusFor(de.Kind)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request.Context()).Error("request failed",
			"kind", de.Kind.String(),
			"code", de.Code,
			"error", err,
		)
	}

	c.AbortWithStatusJSON(status, errorResponse{
		Success: false,
		Error:   de.Message,
		Code:    de.Code,
	})
}
