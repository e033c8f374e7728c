package application

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// bucketKey partitions comments by review and author. Sequence numbers are
// assigned and checked per bucket.
type bucketKey struct {
	reviewID string
	author   string
}

// bucket holds one author's comments in a review, sorted by ascending ID.
type bucket []model.Comment

func (b bucket) search(id int) (int, bool) {
	i := sort.Search(len(b), func(i int) bool { return b[i].ID >= id })
	return i, i < len(b) && b[i].ID == id
}

// CommentStore is the in-memory index of open reviews and their comments. It
// is the single source of truth for which comments exist and for the next
// free comment ID.
//
// CommentStore is not safe for concurrent use; Workspace guards it.
type CommentStore struct {
	reviews map[string]model.Review
	buckets map[bucketKey]bucket
	authors map[string][]string // reviewID -> authors with a bucket, in creation order
}

// NewCommentStore creates an empty CommentStore.
func NewCommentStore() *CommentStore {
	s := &CommentStore{}
	s.Clear()
	return s
}

// Clear resets the store to empty.
func (s *CommentStore) Clear() {
	s.reviews = make(map[string]model.Review)
	s.buckets = make(map[bucketKey]bucket)
	s.authors = make(map[string][]string)
}

// AddReview inserts review unless its ID is already present. It returns false,
// leaving the store unchanged, if the review exists.
func (s *CommentStore) AddReview(review model.Review) bool {
	if _, ok := s.reviews[review.ID]; ok {
		return false
	}
	s.reviews[review.ID] = review
	return true
}

// RemoveReview removes the review and every comment under it, bucket by bucket.
func (s *CommentStore) RemoveReview(reviewID string) {
	for _, author := range slices.Clone(s.authors[reviewID]) {
		key := bucketKey{reviewID: reviewID, author: author}
		for _, c := range slices.Clone(s.buckets[key]) {
			// Cannot fail: the bucket and comment were just enumerated.
			_, _ = s.RemoveComment(c.Key())
		}
	}
	delete(s.authors, reviewID)
	delete(s.reviews, reviewID)
}

// ContainsReview reports whether a review with the given ID is present.
func (s *CommentStore) ContainsReview(reviewID string) bool {
	_, ok := s.reviews[reviewID]
	return ok
}

// Review returns the review with the given ID.
func (s *CommentStore) Review(reviewID string) (model.Review, bool) {
	r, ok := s.reviews[reviewID]
	return r, ok
}

// Reviews returns all reviews ordered by ID.
func (s *CommentStore) Reviews() []model.Review {
	out := make([]model.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddComment inserts comment into its (review, author) bucket, creating the
// bucket if needed. The ID must come from NextCommentID; inserting a triple
// that already exists replaces the stored comment.
func (s *CommentStore) AddComment(comment model.Comment) {
	key := bucketKey{reviewID: comment.ReviewID, author: comment.Author}
	b, ok := s.buckets[key]
	if !ok {
		s.authors[comment.ReviewID] = append(s.authors[comment.ReviewID], comment.Author)
	}
	comment.Replies = slices.Clone(comment.Replies)

	i, found := b.search(comment.ID)
	if found {
		b[i] = comment
	} else {
		b = slices.Insert(b, i, comment)
	}
	s.buckets[key] = b
}

// RemoveComment removes one comment. It returns true when the comment was the
// last one in its bucket and the bucket itself was dropped.
func (s *CommentStore) RemoveComment(key model.CommentKey) (bool, error) {
	bk := bucketKey{reviewID: key.ReviewID, author: key.Author}
	b, ok := s.buckets[bk]
	if !ok {
		return false, fmt.Errorf("remove comment %s: %w", key, model.ErrBucketNotFound)
	}

	i, found := b.search(key.ID)
	if !found {
		return false, fmt.Errorf("remove comment %s: %w", key, model.ErrCommentNotFound)
	}

	b = slices.Delete(b, i, i+1)
	if len(b) > 0 {
		s.buckets[bk] = b
		return false, nil
	}

	delete(s.buckets, bk)
	s.authors[key.ReviewID] = slices.DeleteFunc(s.authors[key.ReviewID], func(a string) bool {
		return a == key.Author
	})
	if len(s.authors[key.ReviewID]) == 0 {
		delete(s.authors, key.ReviewID)
	}
	return true, nil
}

// NextCommentID returns the highest ID in the (review, author) bucket plus one,
// or 0 if the bucket is absent. It is derived from current state on each call,
// so an ID freed at the top of the bucket is handed out again.
func (s *CommentStore) NextCommentID(reviewID, author string) int {
	b := s.buckets[bucketKey{reviewID: reviewID, author: author}]
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1].ID + 1
}

// Comment returns the comment identified by key.
func (s *CommentStore) Comment(key model.CommentKey) (model.Comment, error) {
	b := s.buckets[bucketKey{reviewID: key.ReviewID, author: key.Author}]
	i, found := b.search(key.ID)
	if !found {
		return model.Comment{}, fmt.Errorf("get comment %s: %w", key, model.ErrCommentNotFound)
	}
	return cloneComment(b[i]), nil
}

// UpdateComment replaces the attributes of an existing comment. The
// identifying triple selects the comment and is never changed.
func (s *CommentStore) UpdateComment(comment model.Comment) error {
	key := comment.Key()
	b := s.buckets[bucketKey{reviewID: key.ReviewID, author: key.Author}]
	i, found := b.search(key.ID)
	if !found {
		return fmt.Errorf("update comment %s: %w", key, model.ErrCommentNotFound)
	}
	comment.Replies = slices.Clone(comment.Replies)
	b[i] = comment
	return nil
}

// AddReply appends reply to the comment identified by key.
func (s *CommentStore) AddReply(key model.CommentKey, reply model.Reply) error {
	b := s.buckets[bucketKey{reviewID: key.ReviewID, author: key.Author}]
	i, found := b.search(key.ID)
	if !found {
		return fmt.Errorf("add reply to %s: %w", key, model.ErrCommentNotFound)
	}
	b[i].Replies = append(b[i].Replies, reply)
	return nil
}

// Authors returns the authors that have at least one comment in the review.
func (s *CommentStore) Authors(reviewID string) []string {
	return slices.Clone(s.authors[reviewID])
}

// Comments returns all comments of a review. Buckets are concatenated in
// author creation order; within a bucket comments ascend by ID.
func (s *CommentStore) Comments(reviewID string) []model.Comment {
	var out []model.Comment
	for _, author := range s.authors[reviewID] {
		for _, c := range s.buckets[bucketKey{reviewID: reviewID, author: author}] {
			out = append(out, cloneComment(c))
		}
	}
	return out
}

// CommentsUnder returns the comments of a review whose path lies under path:
// "proj/src" matches "proj/src/A.txt" and "proj/src/sub/B.txt" but not
// "proj/srcOther/C.txt". An empty path matches every comment.
func (s *CommentStore) CommentsUnder(reviewID, path string) []model.Comment {
	var out []model.Comment
	for _, c := range s.Comments(reviewID) {
		if PathHasPrefix(c.Path, path) {
			out = append(out, c)
		}
	}
	return out
}

// PathHasPrefix reports whether path equals prefix or starts with prefix
// followed by a path separator.
func PathHasPrefix(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	if strings.HasSuffix(prefix, model.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	return strings.HasPrefix(path, prefix+model.PathSeparator)
}

// AllComments returns every comment in the store, grouped by review ID.
func (s *CommentStore) AllComments() []model.Comment {
	var out []model.Comment
	for _, reviewID := range slices.Sorted(maps.Keys(s.authors)) {
		out = append(out, s.Comments(reviewID)...)
	}
	return out
}

func cloneComment(c model.Comment) model.Comment {
	c.Replies = slices.Clone(c.Replies)
	return c
}
