package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// documentParam returns the required document query parameter.
func documentParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	document := r.URL.Query().Get("document")
	if document == "" {
		writeError(w, http.StatusBadRequest, "document is required")
		return "", false
	}
	return document, true
}

// ListAnnotations returns the markers displayed on a document.
func (h *Handler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	document, ok := documentParam(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toAnnotationResponses(h.workspace.Annotations(document)))
}

// SyncAnnotations replaces the desired annotation set of a document. Only the
// difference against the displayed markers is applied.
func (h *Handler) SyncAnnotations(w http.ResponseWriter, r *http.Request) {
	document, ok := documentParam(w, r)
	if !ok {
		return
	}

	var req []AnnotationRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	desired := make(map[model.CommentKey]model.Position, len(req))
	for _, a := range req {
		key := model.CommentKey{ReviewID: a.ReviewID, Author: a.Author, ID: a.ID}
		if _, dup := desired[key]; dup {
			writeError(w, http.StatusBadRequest, "duplicate annotation for comment "+key.String())
			return
		}
		desired[key] = model.Position{Offset: a.Offset, Length: a.Length}
	}

	result, err := h.workspace.SyncAnnotations(document, desired)
	if err != nil {
		h.writeServiceError(w, err, "failed to sync annotations", "document", document)
		return
	}

	writeJSON(w, http.StatusOK, toReconcileResponse(document, result))
}

// MoveAnnotation repositions the marker of one comment.
func (h *Handler) MoveAnnotation(w http.ResponseWriter, r *http.Request) {
	document, ok := documentParam(w, r)
	if !ok {
		return
	}

	var req AnnotationRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := model.CommentKey{ReviewID: req.ReviewID, Author: req.Author, ID: req.ID}
	result, err := h.workspace.MoveAnnotation(document, key, model.Position{Offset: req.Offset, Length: req.Length})
	if err != nil {
		h.writeServiceError(w, err, "failed to move annotation", "document", document, "key", key.String())
		return
	}

	writeJSON(w, http.StatusOK, toReconcileResponse(document, result))
}

// CloseDocument removes every marker of a document.
func (h *Handler) CloseDocument(w http.ResponseWriter, r *http.Request) {
	document, ok := documentParam(w, r)
	if !ok {
		return
	}

	removed := h.workspace.CloseDocument(document)

	writeJSON(w, http.StatusOK, ReconcileResponse{
		Document: document,
		Added:    []AnnotationResponse{},
		Removed:  toAnnotationResponses(removed),
	})
}
