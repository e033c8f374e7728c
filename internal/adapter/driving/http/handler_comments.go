package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/reviewmarks/internal/application"
	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// ListComments returns the comments of an open review, optionally limited to
// those under the path query parameter.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")

	comments, err := h.workspace.Comments(reviewID, r.URL.Query().Get("path"))
	if err != nil {
		h.writeServiceError(w, err, "failed to list comments", "review_id", reviewID)
		return
	}

	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, toCommentResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateComment adds a comment to an open review. The ID is assigned by the
// workspace.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")

	var req CreateCommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.workspace.AddComment(r.Context(), application.CommentDraft{
		ReviewID:  reviewID,
		Author:    req.Author,
		Recipient: req.Recipient,
		Priority:  model.Priority(req.Priority),
		Status:    model.CommentStatus(req.Status),
		Body:      req.Body,
		Path:      req.Path,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to add comment", "review_id", reviewID, "author", req.Author)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// GetComment returns a single comment with its replies.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	key, ok := commentKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	comment, err := h.workspace.Comment(key)
	if err != nil {
		h.writeServiceError(w, err, "failed to get comment", "key", key.String())
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

// UpdateComment changes the mutable attributes of a comment.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	key, ok := commentKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req UpdateCommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := application.CommentPatch{
		Recipient: req.Recipient,
		Body:      req.Body,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		s := model.CommentStatus(*req.Status)
		patch.Status = &s
	}

	comment, err := h.workspace.UpdateComment(r.Context(), key, patch)
	if err != nil {
		h.writeServiceError(w, err, "failed to update comment", "key", key.String())
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

// DeleteComment removes a comment and its replies.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	key, ok := commentKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	last, err := h.workspace.DeleteComment(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, err, "failed to delete comment", "key", key.String())
		return
	}

	writeJSON(w, http.StatusOK, DeleteCommentResponse{LastOfAuthor: last})
}

// AddReply appends a reply to a comment's discussion.
func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	key, ok := commentKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req AddReplyRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.workspace.AddReply(r.Context(), key, model.Reply{Author: req.Author, Body: req.Body})
	if err != nil {
		h.writeServiceError(w, err, "failed to add reply", "key", key.String())
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// Tree returns a merged file tree node and its children. Without a path the
// review root is returned. Without a kind the first node found among
// folder, project, and file is used.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("review")
	path := r.URL.Query().Get("path")
	kind := model.ElementKind(r.URL.Query().Get("kind"))

	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "kind must be one of: review project folder file")
		return
	}

	candidates := []model.ElementKind{kind}
	switch {
	case kind != "":
	case path == "":
		candidates = []model.ElementKind{model.ElementKindReview}
	default:
		candidates = []model.ElementKind{model.ElementKindFolder, model.ElementKindProject, model.ElementKindFile}
	}

	var (
		node application.TreeNode
		err  error
	)
	for _, k := range candidates {
		node, err = h.workspace.Node(application.NodeKey{ReviewID: reviewID, Path: path, Kind: k})
		if err == nil {
			break
		}
	}
	if err != nil {
		h.writeServiceError(w, err, "failed to look up tree node", "review_id", reviewID, "path", path)
		return
	}

	children, err := h.workspace.Children(node.Key)
	if err != nil {
		h.writeServiceError(w, err, "failed to list tree children", "review_id", reviewID, "path", path)
		return
	}

	resp := TreeResponse{
		Node:     toTreeNodeResponse(node),
		Children: make([]TreeNodeResponse, 0, len(children)),
	}
	for _, c := range children {
		resp.Children = append(resp.Children, toTreeNodeResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}
