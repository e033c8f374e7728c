package httphandler

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors map to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrReviewNotFound),
		errors.Is(err, model.ErrCommentNotFound),
		errors.Is(err, model.ErrBucketNotFound),
		errors.Is(err, model.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrReviewExists),
		errors.Is(err, model.ErrReviewClosed),
		errors.Is(err, model.ErrReconcileInProgress),
		errors.Is(err, model.ErrMarkerDisplayed),
		errors.Is(err, model.ErrMarkerNotDisplayed):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidElementTree):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes the response for an error returned by the
// workspace. Server errors are logged with msg and attrs; their details are
// not exposed to the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
