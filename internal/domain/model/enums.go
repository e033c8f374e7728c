package model

// Priority ranks how urgently a comment should be addressed.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// CommentStatus is the resolution state of a comment.
type CommentStatus string

const (
	CommentStatusOpen     CommentStatus = "open"
	CommentStatusResolved CommentStatus = "resolved"
	CommentStatusRejected CommentStatus = "rejected"
	CommentStatusDeferred CommentStatus = "deferred"
)

// ParsePriority returns the Priority for s, or false if s is not a known value.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// ParseCommentStatus returns the CommentStatus for s, or false if s is not a known value.
func ParseCommentStatus(s string) (CommentStatus, bool) {
	switch st := CommentStatus(s); st {
	case CommentStatusOpen, CommentStatusResolved, CommentStatusRejected, CommentStatusDeferred:
		return st, true
	}
	return "", false
}
