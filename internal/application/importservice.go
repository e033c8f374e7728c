package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// ImportResult summarizes a pull request import.
type ImportResult struct {
	Review   model.Review
	Comments int
	Replies  int
}

// ImportService turns a pull request's inline review discussion into a review.
type ImportService struct {
	source    driven.PullRequestSource
	workspace *Workspace
	logger    *slog.Logger
}

// NewImportService creates a new ImportService with the required dependencies.
func NewImportService(source driven.PullRequestSource, workspace *Workspace, logger *slog.Logger) *ImportService {
	return &ImportService{
		source:    source,
		workspace: workspace,
		logger:    logger,
	}
}

// importThread groups a root pull request comment with its replies.
type importThread struct {
	root    driven.PullRequestComment
	replies []driven.PullRequestComment
}

// ImportPullRequest creates review reviewID from the inline comments of
// repoFullName#prNumber. Root comments become review comments whose IDs are
// assigned per author in creation order; replies attach to their root.
func (s *ImportService) ImportPullRequest(ctx context.Context, repoFullName string, prNumber int, reviewID string) (ImportResult, error) {
	prComments, err := s.source.FetchReviewComments(ctx, repoFullName, prNumber)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch review comments for %s#%d: %w", repoFullName, prNumber, err)
	}

	review, err := s.workspace.CreateReview(ctx, model.Review{
		ID:          reviewID,
		Description: fmt.Sprintf("Imported from %s#%d", repoFullName, prNumber),
		Reference:   fmt.Sprintf("https://github.com/%s/pull/%d", repoFullName, prNumber),
	})
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Review: review}
	if err := s.addThreads(ctx, reviewID, groupImportThreads(prComments), &result); err != nil {
		// Remove the partial review so the import can be retried under the same ID.
		if delErr := s.workspace.DeleteReview(context.WithoutCancel(ctx), reviewID); delErr != nil {
			s.logger.Error("failed to remove partially imported review", "review_id", reviewID, "error", delErr)
		}
		return ImportResult{}, fmt.Errorf("import %s#%d into %q: %w", repoFullName, prNumber, reviewID, err)
	}

	s.logger.Info("pull request imported",
		"repo", repoFullName,
		"number", prNumber,
		"review_id", reviewID,
		"comments", result.Comments,
		"replies", result.Replies,
	)
	return result, nil
}

func (s *ImportService) addThreads(ctx context.Context, reviewID string, threads []importThread, result *ImportResult) error {
	for _, thread := range threads {
		comment, err := s.workspace.AddComment(ctx, CommentDraft{
			ReviewID:  reviewID,
			Author:    thread.root.Author,
			Body:      thread.root.Body,
			Path:      thread.root.Path,
			CreatedAt: thread.root.CreatedAt,
		})
		if err != nil {
			return err
		}
		result.Comments++

		for _, r := range thread.replies {
			reply := model.Reply{Author: r.Author, Body: r.Body, CreatedAt: r.CreatedAt.UTC()}
			if _, err := s.workspace.AddReply(ctx, comment.Key(), reply); err != nil {
				return err
			}
			result.Replies++
		}
	}
	return nil
}

// groupImportThreads groups comments by InReplyToID. Replies whose root is
// missing become their own thread. Threads are ordered by root creation time
// and replies within a thread by their own creation time.
func groupImportThreads(comments []driven.PullRequestComment) []importThread {
	threads := make(map[int64]*importThread)
	var order []int64

	for _, c := range comments {
		if c.InReplyToID == nil {
			threads[c.ID] = &importThread{root: c}
			order = append(order, c.ID)
		}
	}

	for _, c := range comments {
		if c.InReplyToID == nil {
			continue
		}
		if t, ok := threads[*c.InReplyToID]; ok {
			t.replies = append(t.replies, c)
			continue
		}
		threads[c.ID] = &importThread{root: c}
		order = append(order, c.ID)
	}

	out := make([]importThread, 0, len(order))
	for _, id := range order {
		t := threads[id]
		sort.SliceStable(t.replies, func(i, j int) bool {
			return t.replies[i].CreatedAt.Before(t.replies[j].CreatedAt)
		})
		out = append(out, *t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].root.CreatedAt.Before(out[j].root.CreatedAt)
	})
	return out
}
