package model

import "errors"

// Not-found lookups.
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNodeNotFound    = errors.New("tree node not found")
)

// Precondition violations. These indicate a caller bug rather than a runtime
// condition and abort the operation without partial recovery.
var (
	ErrBucketNotFound      = errors.New("comment bucket not found")
	ErrReviewExists        = errors.New("review already exists")
	ErrReviewClosed        = errors.New("review is not open")
	ErrReconcileInProgress = errors.New("annotation reconciliation already in progress")
	ErrMarkerNotDisplayed  = errors.New("no marker displayed for comment")
	ErrMarkerDisplayed     = errors.New("marker already displayed for comment")
	ErrInvalidElementTree  = errors.New("invalid element tree")
)
