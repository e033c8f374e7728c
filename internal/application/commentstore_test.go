package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// --- Helper functions ---

func makeComment(reviewID, author string, id int, path string) model.Comment {
	return model.Comment{
		ReviewID: reviewID,
		Author:   author,
		ID:       id,
		Path:     path,
		Body:     "body",
		Priority: model.PriorityMedium,
		Status:   model.CommentStatusOpen,
	}
}

func addNext(s *CommentStore, reviewID, author, path string) model.Comment {
	c := makeComment(reviewID, author, s.NextCommentID(reviewID, author), path)
	s.AddComment(c)
	return c
}

func commentIDs(comments []model.Comment) []int {
	ids := make([]int, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}

// --- Reviews ---

func TestCommentStore_AddReviewTwiceIsNoOp(t *testing.T) {
	s := NewCommentStore()
	review := model.Review{ID: "r1", Description: "first"}

	assert.True(t, s.AddReview(review))
	assert.False(t, s.AddReview(model.Review{ID: "r1", Description: "second"}))

	got, ok := s.Review("r1")
	require.True(t, ok)
	assert.Equal(t, "first", got.Description, "existing review must not be overwritten")
	assert.Len(t, s.Reviews(), 1)
}

func TestCommentStore_RemoveReviewCascades(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	s.AddReview(model.Review{ID: "r2"})
	addNext(s, "r1", "alice", "p/a.go")
	addNext(s, "r1", "bob", "p/b.go")
	addNext(s, "r2", "alice", "p/a.go")

	s.RemoveReview("r1")

	assert.False(t, s.ContainsReview("r1"))
	assert.Empty(t, s.Comments("r1"))
	assert.Empty(t, s.Authors("r1"))
	assert.Equal(t, 0, s.NextCommentID("r1", "alice"))
	assert.Len(t, s.Comments("r2"), 1)
}

func TestCommentStore_ReviewsSortedByID(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "b"})
	s.AddReview(model.Review{ID: "a"})

	reviews := s.Reviews()
	require.Len(t, reviews, 2)
	assert.Equal(t, "a", reviews[0].ID)
	assert.Equal(t, "b", reviews[1].ID)
}

// --- IDs ---

func TestCommentStore_NextCommentIDIsDense(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})

	for range 5 {
		addNext(s, "r1", "alice", "p/a.go")
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, commentIDs(s.Comments("r1")))
	assert.Equal(t, 5, s.NextCommentID("r1", "alice"))
	assert.Equal(t, 0, s.NextCommentID("r1", "bob"), "other author's bucket is independent")
}

func TestCommentStore_NextCommentIDReusesFreedMax(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	for range 3 {
		addNext(s, "r1", "alice", "p/a.go")
	}

	_, err := s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, s.NextCommentID("r1", "alice"))
}

func TestCommentStore_NextCommentIDKeepsGapBelowMax(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	for range 3 {
		addNext(s, "r1", "alice", "p/a.go")
	}

	_, err := s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, s.NextCommentID("r1", "alice"))
}

// --- Removal ---

func TestCommentStore_RemoveCommentReportsEmptyBucket(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	first := addNext(s, "r1", "alice", "p/a.go")
	addNext(s, "r1", "alice", "p/a.go")
	addNext(s, "r1", "alice", "p/a.go")

	last, err := s.RemoveComment(first.Key())
	require.NoError(t, err)
	assert.False(t, last, "two comments remain")

	last, err = s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 1})
	require.NoError(t, err)
	assert.False(t, last, "one comment remains")

	last, err = s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 2})
	require.NoError(t, err)
	assert.True(t, last)
	assert.Empty(t, s.Authors("r1"))
}

func TestCommentStore_RemoveCommentMissingBucket(t *testing.T) {
	s := NewCommentStore()

	_, err := s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "nobody", ID: 0})
	assert.ErrorIs(t, err, model.ErrBucketNotFound)
}

func TestCommentStore_RemoveCommentMissingID(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	addNext(s, "r1", "alice", "p/a.go")

	_, err := s.RemoveComment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 7})
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

// --- Lookup ---

func TestCommentStore_CommentNotFound(t *testing.T) {
	s := NewCommentStore()

	_, err := s.Comment(model.CommentKey{ReviewID: "r1", Author: "alice", ID: 0})
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestCommentStore_DuplicateTripleOverwrites(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	c := makeComment("r1", "alice", 0, "p/a.go")
	s.AddComment(c)

	c.Body = "replaced"
	s.AddComment(c)

	comments := s.Comments("r1")
	require.Len(t, comments, 1)
	assert.Equal(t, "replaced", comments[0].Body)
}

func TestCommentStore_CommentsAscendWithinBucket(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	s.AddComment(makeComment("r1", "alice", 2, "p/a.go"))
	s.AddComment(makeComment("r1", "alice", 0, "p/a.go"))
	s.AddComment(makeComment("r1", "alice", 1, "p/a.go"))

	assert.Equal(t, []int{0, 1, 2}, commentIDs(s.Comments("r1")))
}

func TestCommentStore_CommentsUnderPath(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	addNext(s, "r1", "alice", "proj/src/A.txt")
	addNext(s, "r1", "alice", "proj/src/sub/B.txt")
	addNext(s, "r1", "bob", "proj/srcOther/C.txt")
	addNext(s, "r1", "bob", "proj/README.md")

	got := s.CommentsUnder("r1", "proj/src")

	var paths []string
	for _, c := range got {
		paths = append(paths, c.Path)
	}
	assert.ElementsMatch(t, []string{"proj/src/A.txt", "proj/src/sub/B.txt"}, paths)

	assert.Len(t, s.CommentsUnder("r1", ""), 4)
	assert.Len(t, s.CommentsUnder("r1", "proj/src/A.txt"), 1)
	assert.Len(t, s.CommentsUnder("r1", "proj/"), 4)
}

func TestCommentStore_ReturnedCommentsAreCopies(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	c := addNext(s, "r1", "alice", "p/a.go")
	require.NoError(t, s.AddReply(c.Key(), model.Reply{Author: "bob", Body: "ok"}))

	got, err := s.Comment(c.Key())
	require.NoError(t, err)
	got.Replies[0].Body = "mutated"

	again, err := s.Comment(c.Key())
	require.NoError(t, err)
	assert.Equal(t, "ok", again.Replies[0].Body)
}

func TestCommentStore_UpdateKeepsReplies(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	c := addNext(s, "r1", "alice", "p/a.go")
	require.NoError(t, s.AddReply(c.Key(), model.Reply{Author: "bob", Body: "first"}))
	require.NoError(t, s.AddReply(c.Key(), model.Reply{Author: "alice", Body: "second"}))

	current, err := s.Comment(c.Key())
	require.NoError(t, err)
	current.Status = model.CommentStatusResolved
	require.NoError(t, s.UpdateComment(current))

	got, err := s.Comment(c.Key())
	require.NoError(t, err)
	assert.Equal(t, model.CommentStatusResolved, got.Status)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, "first", got.Replies[0].Body)
	assert.Equal(t, "second", got.Replies[1].Body)
}

func TestCommentStore_UpdateMissing(t *testing.T) {
	s := NewCommentStore()

	err := s.UpdateComment(makeComment("r1", "alice", 0, ""))
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
	assert.ErrorIs(t, s.AddReply(model.CommentKey{ReviewID: "r1", Author: "a"}, model.Reply{}), model.ErrCommentNotFound)
}

func TestCommentStore_AllCommentsAndClear(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r1"})
	s.AddReview(model.Review{ID: "r2"})
	addNext(s, "r1", "alice", "p/a.go")
	addNext(s, "r2", "bob", "p/b.go")

	assert.Len(t, s.AllComments(), 2)

	s.Clear()
	assert.Empty(t, s.AllComments())
	assert.Empty(t, s.Reviews())
	assert.False(t, s.ContainsReview("r1"))
}

func TestCommentStore_AllCommentsIncludesUnregisteredReviews(t *testing.T) {
	s := NewCommentStore()
	s.AddReview(model.Review{ID: "r2"})
	s.AddComment(makeComment("r2", "bob", 0, "p/b.go"))
	s.AddComment(makeComment("r1", "alice", 0, "p/a.go"))

	require.Len(t, s.Comments("r1"), 1)

	all := s.AllComments()
	require.Len(t, all, 2)
	assert.Equal(t, "r1", all[0].ReviewID, "grouped by review ID")
	assert.Equal(t, "r2", all[1].ReviewID)
}

func TestPathHasPrefix(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"proj/src/A.txt", "proj/src", true},
		{"proj/src", "proj/src", true},
		{"proj/srcOther/C.txt", "proj/src", false},
		{"proj/srcOther/C.txt", "proj/", true},
		{"anything", "", true},
		{"proj", "proj/src", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, PathHasPrefix(tt.path, tt.prefix))
		})
	}
}
