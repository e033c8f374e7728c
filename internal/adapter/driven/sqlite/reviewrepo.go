package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// CreateReview inserts a new review. It fails if the ID is already taken.
func (r *ReviewRepo) CreateReview(ctx context.Context, review model.Review) error {
	const query = `
		INSERT INTO reviews (id, description, reference, person_in_charge, is_open, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		review.ID, review.Description, review.Reference, review.PersonInCharge,
		boolToInt(review.IsOpen), formatTime(review.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create review %s: %w", review.ID, err)
	}

	return nil
}

// GetReview retrieves a review by ID. Returns nil, nil if not found.
func (r *ReviewRepo) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	const query = `
		SELECT id, description, reference, person_in_charge, is_open, created_at
		FROM reviews WHERE id = ?
	`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", reviewID, err)
	}

	return review, nil
}

// ListReviews returns all reviews ordered by ID.
func (r *ReviewRepo) ListReviews(ctx context.Context) ([]model.Review, error) {
	const query = `
		SELECT id, description, reference, person_in_charge, is_open, created_at
		FROM reviews ORDER BY id ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// SetReviewOpen records whether a review is loaded in the workspace.
func (r *ReviewRepo) SetReviewOpen(ctx context.Context, reviewID string, open bool) error {
	const query = `UPDATE reviews SET is_open = ? WHERE id = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, boolToInt(open), reviewID)
	if err != nil {
		return fmt.Errorf("set review %s open=%t: %w", reviewID, open, err)
	}

	return requireAffected(res, model.ErrReviewNotFound, reviewID)
}

// DeleteReview removes a review. Comments, replies, and elements are removed
// by ON DELETE CASCADE.
func (r *ReviewRepo) DeleteReview(ctx context.Context, reviewID string) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, reviewID)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", reviewID, err)
	}

	return requireAffected(res, model.ErrReviewNotFound, reviewID)
}

// UpsertComment inserts or updates a comment by its key. Existing replies are
// left untouched.
func (r *ReviewRepo) UpsertComment(ctx context.Context, comment model.Comment) error {
	const query = `
		INSERT INTO comments (
			review_id, author, seq, recipient, priority, status, body, path,
			created_at, modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(review_id, author, seq) DO UPDATE SET
			recipient = excluded.recipient,
			priority = excluded.priority,
			status = excluded.status,
			body = excluded.body,
			path = excluded.path,
			modified_at = excluded.modified_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		comment.ReviewID, comment.Author, comment.ID, comment.Recipient,
		string(comment.Priority), string(comment.Status), comment.Body, comment.Path,
		formatTime(comment.CreatedAt), formatTime(comment.ModifiedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert comment %s: %w", comment.Key(), err)
	}

	return nil
}

// AppendReply adds a reply to the end of a comment's discussion.
func (r *ReviewRepo) AppendReply(ctx context.Context, key model.CommentKey, reply model.Reply) error {
	const query = `
		INSERT INTO replies (review_id, author, seq, reply_author, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		key.ReviewID, key.Author, key.ID, reply.Author, reply.Body, formatTime(reply.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append reply to comment %s: %w", key, err)
	}

	return nil
}

// DeleteComment removes a comment and its replies.
func (r *ReviewRepo) DeleteComment(ctx context.Context, key model.CommentKey) error {
	const query = `DELETE FROM comments WHERE review_id = ? AND author = ? AND seq = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, key.ReviewID, key.Author, key.ID)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", key, err)
	}

	return requireAffected(res, model.ErrCommentNotFound, key.String())
}

// GetCommentsByReview returns all comments for a review ordered by author and
// sequence number, with replies in insertion order.
func (r *ReviewRepo) GetCommentsByReview(ctx context.Context, reviewID string) ([]model.Comment, error) {
	const query = `
		SELECT review_id, author, seq, recipient, priority, status, body, path,
			created_at, modified_at
		FROM comments
		WHERE review_id = ?
		ORDER BY author ASC, seq ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query comments for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	index := make(map[model.CommentKey]int)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		index[c.Key()] = len(comments)
		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}

	if len(comments) == 0 {
		return comments, nil
	}

	if err := r.attachReplies(ctx, reviewID, comments, index); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *ReviewRepo) attachReplies(ctx context.Context, reviewID string, comments []model.Comment, index map[model.CommentKey]int) error {
	const query = `
		SELECT author, seq, reply_author, body, created_at
		FROM replies
		WHERE review_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, reviewID)
	if err != nil {
		return fmt.Errorf("query replies for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			author, replyAuthor, body, createdAt string
			seq                                  int
		)
		if err := rows.Scan(&author, &seq, &replyAuthor, &body, &createdAt); err != nil {
			return fmt.Errorf("scan reply row: %w", err)
		}

		created, err := parseTime(createdAt)
		if err != nil {
			return fmt.Errorf("parse reply created_at: %w", err)
		}

		i, ok := index[model.CommentKey{ReviewID: reviewID, Author: author, ID: seq}]
		if !ok {
			continue
		}
		comments[i].Replies = append(comments[i].Replies, model.Reply{
			Author:    replyAuthor,
			Body:      body,
			CreatedAt: created,
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reply rows: %w", err)
	}

	return nil
}

func scanReview(s scanner) (*model.Review, error) {
	var (
		review    model.Review
		isOpen    int
		createdAt string
	)

	if err := s.Scan(
		&review.ID, &review.Description, &review.Reference, &review.PersonInCharge,
		&isOpen, &createdAt,
	); err != nil {
		return nil, err
	}

	review.IsOpen = isOpen != 0

	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	review.CreatedAt = created

	return &review, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var (
		c                     model.Comment
		priority, status      string
		createdAt, modifiedAt string
	)

	if err := s.Scan(
		&c.ReviewID, &c.Author, &c.ID, &c.Recipient, &priority, &status,
		&c.Body, &c.Path, &createdAt, &modifiedAt,
	); err != nil {
		return nil, err
	}

	c.Priority = model.Priority(priority)
	c.Status = model.CommentStatus(status)

	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	c.CreatedAt = created

	modified, err := parseTime(modifiedAt)
	if err != nil {
		return nil, fmt.Errorf("parse modified_at: %w", err)
	}
	c.ModifiedAt = modified

	return &c, nil
}

// requireAffected maps a zero-row write to notFound.
func requireAffected(res sql.Result, notFound error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, notFound)
	}
	return nil
}
