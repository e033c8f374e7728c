package driven

import (
	"context"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// ReviewStore defines the driven port for persisting reviews, their comments,
// and comment replies.
type ReviewStore interface {
	CreateReview(ctx context.Context, review model.Review) error
	// GetReview returns nil, nil when no review has the given ID.
	GetReview(ctx context.Context, reviewID string) (*model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	SetReviewOpen(ctx context.Context, reviewID string, open bool) error
	// DeleteReview removes the review along with its comments, replies, and
	// file tree elements.
	DeleteReview(ctx context.Context, reviewID string) error

	UpsertComment(ctx context.Context, comment model.Comment) error
	AppendReply(ctx context.Context, key model.CommentKey, reply model.Reply) error
	DeleteComment(ctx context.Context, key model.CommentKey) error
	// GetCommentsByReview returns comments ordered by author then ID, each with
	// its replies populated in insertion order.
	GetCommentsByReview(ctx context.Context, reviewID string) ([]model.Comment, error)
}
