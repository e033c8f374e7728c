package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/reviewmarks/internal/adapter/driving/web"
	"github.com/ericfisherdev/reviewmarks/internal/application"
	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// excerptLength bounds the plain-text preview in comment responses.
const excerptLength = 120

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Time        string `json:"time"`
	OpenReviews int    `json:"open_reviews"`
}

// ReviewResponse is the JSON representation of a review.
type ReviewResponse struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Reference      string `json:"reference"`
	PersonInCharge string `json:"person_in_charge"`
	IsOpen         bool   `json:"is_open"`
	CreatedAt      string `json:"created_at"`
}

// CommentResponse is the JSON representation of a review comment.
type CommentResponse struct {
	ReviewID   string          `json:"review_id"`
	Author     string          `json:"author"`
	ID         int             `json:"id"`
	Key        string          `json:"key"`
	Recipient  string          `json:"recipient"`
	Priority   string          `json:"priority"`
	Status     string          `json:"status"`
	Path       string          `json:"path"`
	Body       string          `json:"body"`
	BodyHTML   string          `json:"body_html"`
	Excerpt    string          `json:"excerpt"`
	CreatedAt  string          `json:"created_at"`
	ModifiedAt string          `json:"modified_at"`
	Replies    []ReplyResponse `json:"replies"`
}

// ReplyResponse is one entry of a comment's discussion.
type ReplyResponse struct {
	Author    string `json:"author"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html"`
	CreatedAt string `json:"created_at"`
}

// DeleteCommentResponse reports whether the deleted comment was the author's last.
type DeleteCommentResponse struct {
	LastOfAuthor bool `json:"last_of_author"`
}

// TreeNodeResponse is the JSON representation of a merged file tree node.
type TreeNodeResponse struct {
	ReviewID     string   `json:"review_id"`
	Path         string   `json:"path"`
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	Sources      []string `json:"sources"`
	CommentCount int      `json:"comment_count"`
	HasChildren  bool     `json:"has_children"`
}

// TreeResponse is a node together with its merged children.
type TreeResponse struct {
	Node     TreeNodeResponse   `json:"node"`
	Children []TreeNodeResponse `json:"children"`
}

// AnnotationResponse is a comment key bound to a live marker.
type AnnotationResponse struct {
	ReviewID string `json:"review_id"`
	Author   string `json:"author"`
	ID       int    `json:"id"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	MarkerID string `json:"marker_id"`
}

// ReconcileResponse lists the markers created and destroyed by a change.
type ReconcileResponse struct {
	Document string               `json:"document"`
	Added    []AnnotationResponse `json:"added"`
	Removed  []AnnotationResponse `json:"removed"`
}

// ImportResponse summarizes a pull request import.
type ImportResponse struct {
	Review   ReviewResponse `json:"review"`
	Comments int            `json:"comments"`
	Replies  int            `json:"replies"`
}

// toReviewResponse converts a domain Review to its JSON response representation.
func toReviewResponse(r model.Review) ReviewResponse {
	return ReviewResponse{
		ID:             r.ID,
		Description:    r.Description,
		Reference:      r.Reference,
		PersonInCharge: r.PersonInCharge,
		IsOpen:         r.IsOpen,
		CreatedAt:      formatTime(r.CreatedAt),
	}
}

// toCommentResponse converts a domain Comment to its JSON representation,
// rendering markdown bodies to sanitized HTML.
func toCommentResponse(c model.Comment) CommentResponse {
	replies := make([]ReplyResponse, 0, len(c.Replies))
	for _, r := range c.Replies {
		replies = append(replies, ReplyResponse{
			Author:    r.Author,
			Body:      r.Body,
			BodyHTML:  web.RenderCommentBody(r.Body),
			CreatedAt: formatTime(r.CreatedAt),
		})
	}

	return CommentResponse{
		ReviewID:   c.ReviewID,
		Author:     c.Author,
		ID:         c.ID,
		Key:        c.Key().String(),
		Recipient:  c.Recipient,
		Priority:   string(c.Priority),
		Status:     string(c.Status),
		Path:       c.Path,
		Body:       c.Body,
		BodyHTML:   web.RenderCommentBody(c.Body),
		Excerpt:    web.Excerpt(c.Body, excerptLength),
		CreatedAt:  formatTime(c.CreatedAt),
		ModifiedAt: formatTime(c.ModifiedAt),
		Replies:    replies,
	}
}

func toTreeNodeResponse(n application.TreeNode) TreeNodeResponse {
	sources := n.Sources
	if sources == nil {
		sources = []string{}
	}

	return TreeNodeResponse{
		ReviewID:     n.Key.ReviewID,
		Path:         n.Key.Path,
		Kind:         string(n.Key.Kind),
		Name:         n.Name,
		Sources:      sources,
		CommentCount: n.CommentCount,
		HasChildren:  n.HasChildren,
	}
}

func toAnnotationResponses(annotations []application.Annotation) []AnnotationResponse {
	out := make([]AnnotationResponse, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, AnnotationResponse{
			ReviewID: a.Key.ReviewID,
			Author:   a.Key.Author,
			ID:       a.Key.ID,
			Offset:   a.Position.Offset,
			Length:   a.Position.Length,
			MarkerID: string(a.MarkerID),
		})
	}
	return out
}

func toReconcileResponse(document string, result application.ReconcileResult) ReconcileResponse {
	return ReconcileResponse{
		Document: document,
		Added:    toAnnotationResponses(result.Added),
		Removed:  toAnnotationResponses(result.Removed),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
