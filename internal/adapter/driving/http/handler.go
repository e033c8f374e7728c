// Package httphandler is the JSON HTTP driving adapter used by editor plugins.
package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/reviewmarks/internal/application"
	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	workspace *application.Workspace
	importer  *application.ImportService // nil disables the import endpoint
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. importer may
// be nil.
func NewHandler(
	workspace *application.Workspace,
	importer *application.ImportService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		workspace: workspace,
		importer:  importer,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request ID, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("GET /api/v1/reviews", h.ListReviews)
	mux.HandleFunc("POST /api/v1/reviews", h.CreateReview)
	mux.HandleFunc("DELETE /api/v1/reviews/{review}", h.DeleteReview)
	mux.HandleFunc("POST /api/v1/reviews/{review}/open", h.OpenReview)
	mux.HandleFunc("POST /api/v1/reviews/{review}/close", h.CloseReview)

	mux.HandleFunc("GET /api/v1/reviews/{review}/comments", h.ListComments)
	mux.HandleFunc("POST /api/v1/reviews/{review}/comments", h.CreateComment)
	mux.HandleFunc("GET /api/v1/reviews/{review}/comments/{author}/{id}", h.GetComment)
	mux.HandleFunc("PATCH /api/v1/reviews/{review}/comments/{author}/{id}", h.UpdateComment)
	mux.HandleFunc("DELETE /api/v1/reviews/{review}/comments/{author}/{id}", h.DeleteComment)
	mux.HandleFunc("POST /api/v1/reviews/{review}/comments/{author}/{id}/replies", h.AddReply)

	mux.HandleFunc("GET /api/v1/reviews/{review}/tree", h.Tree)

	mux.HandleFunc("GET /api/v1/annotations", h.ListAnnotations)
	mux.HandleFunc("PUT /api/v1/annotations", h.SyncAnnotations)
	mux.HandleFunc("PATCH /api/v1/annotations", h.MoveAnnotation)
	mux.HandleFunc("DELETE /api/v1/annotations", h.CloseDocument)

	mux.HandleFunc("POST /api/v1/imports", h.ImportPullRequest)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Time:        time.Now().UTC().Format(time.RFC3339),
		OpenReviews: len(h.workspace.OpenReviews()),
	})
}

// ListReviews returns every persisted review, open or closed.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.workspace.ListReviews(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to list reviews")
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateReview creates a review and opens it.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.workspace.CreateReview(r.Context(), model.Review{
		ID:             req.ID,
		Description:    req.Description,
		Reference:      req.Reference,
		PersonInCharge: req.PersonInCharge,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to create review", "review_id", req.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

// DeleteReview removes a review with its comments and file tree.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")

	if err := h.workspace.DeleteReview(r.Context(), reviewID); err != nil {
		h.writeServiceError(w, err, "failed to delete review", "review_id", reviewID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// OpenReview loads a review into the workspace.
func (h *Handler) OpenReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")

	review, err := h.workspace.OpenReview(r.Context(), reviewID)
	if err != nil {
		h.writeServiceError(w, err, "failed to open review", "review_id", reviewID)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

// CloseReview unloads a review from the workspace.
func (h *Handler) CloseReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")

	if err := h.workspace.CloseReview(r.Context(), reviewID); err != nil {
		h.writeServiceError(w, err, "failed to close review", "review_id", reviewID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportPullRequest creates a review from a GitHub pull request's inline comments.
func (h *Handler) ImportPullRequest(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeError(w, http.StatusNotImplemented, "pull request import is not configured")
		return
	}

	var req ImportRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.importer.ImportPullRequest(r.Context(), req.Repo, req.Number, req.ReviewID)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logger.Error("failed to import pull request", "repo", req.Repo, "number", req.Number, "error", err)
			writeError(w, http.StatusBadGateway, "pull request import failed")
			return
		}
		h.writeServiceError(w, err, "failed to import pull request")
		return
	}

	writeJSON(w, http.StatusCreated, ImportResponse{
		Review:   toReviewResponse(result.Review),
		Comments: result.Comments,
		Replies:  result.Replies,
	})
}

// commentKey extracts the comment triple from the request path.
func commentKey(r *http.Request) (model.CommentKey, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 0 {
		return model.CommentKey{}, false
	}
	return model.CommentKey{
		ReviewID: r.PathValue("review"),
		Author:   r.PathValue("author"),
		ID:       id,
	}, true
}
