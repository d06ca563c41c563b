package conversation

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
	"github.com/lumi-hq/lumi-inbox/backend/pkg/utils"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inbox.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inbox.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, inbox.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err. Only reads advertise Retry-After; a timed
// out transition may already have been applied.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, read bool) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable && read {
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("inbox operation failed", zap.Error(err))
		utils.RespondError(w, status, "internal error")
		return
	}
	utils.RespondError(w, status, err.Error())
}
