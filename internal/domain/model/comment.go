package model

import (
	"fmt"
	"time"
)

// CommentKey identifies a comment. The triple is immutable once assigned.
type CommentKey struct {
	ReviewID string
	Author   string
	ID       int // Sequence number, unique per (ReviewID, Author).
}

// String renders the key as review/author/id.
func (k CommentKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.ReviewID, k.Author, k.ID)
}

// Comment is a review comment anchored to a file path.
type Comment struct {
	ReviewID   string
	Author     string
	ID         int
	Recipient  string
	Priority   Priority
	Status     CommentStatus
	Body       string
	Path       string // Workspace-relative path, "project/folder/file".
	CreatedAt  time.Time
	ModifiedAt time.Time
	Replies    []Reply
}

// Key returns the identifying triple of the comment.
func (c Comment) Key() CommentKey {
	return CommentKey{ReviewID: c.ReviewID, Author: c.Author, ID: c.ID}
}

// Reply is an entry in a comment's discussion. Replies are append-only and
// ordered by their position in Comment.Replies.
type Reply struct {
	Author    string
	Body      string
	CreatedAt time.Time
}
