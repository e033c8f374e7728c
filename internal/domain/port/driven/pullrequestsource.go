package driven

import (
	"context"
	"time"
)

// PullRequestComment is an inline review comment fetched from a code host.
type PullRequestComment struct {
	ID          int64
	Author      string
	Body        string
	Path        string
	InReplyToID *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PullRequestSource defines the driven port for reading review discussions
// from a code host.
type PullRequestSource interface {
	FetchReviewComments(ctx context.Context, repoFullName string, prNumber int) ([]PullRequestComment, error)
}
