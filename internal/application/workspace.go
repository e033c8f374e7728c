package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// DefaultSource names the backing source of file tree elements created for
// comments entered through the workspace.
const DefaultSource = "workspace"

// CommentDraft carries the caller-supplied attributes of a new comment. The
// ID is assigned by the workspace, and so are the timestamps when CreatedAt
// is zero.
type CommentDraft struct {
	ReviewID  string
	Author    string
	Recipient string
	Priority  model.Priority
	Status    model.CommentStatus
	Body      string
	Path      string
	CreatedAt time.Time
}

// CommentPatch holds optional attribute changes. Nil fields are left unchanged.
type CommentPatch struct {
	Recipient *string
	Priority  *model.Priority
	Status    *model.CommentStatus
	Body      *string
}

// TreeNode is a snapshot of one aggregation node for display.
type TreeNode struct {
	Key          NodeKey
	Name         string
	Sources      []string // Backing sources merged into the node.
	CommentCount int      // Comments whose path lies under the node.
	HasChildren  bool
}

// Workspace is the composition of one CommentStore, one NodeAggregator, and
// one AnnotationReconciler per editor document. A single mutex serializes all
// access so the core components can be shared by concurrent HTTP handlers.
type Workspace struct {
	mu sync.Mutex

	reviewStore  driven.ReviewStore
	elementStore driven.ElementStore
	surfaces     driven.MarkerSurfaceProvider
	logger       *slog.Logger
	now          func() time.Time

	comments  *CommentStore
	nodes     *NodeAggregator
	projects  map[string][]*model.Element
	documents map[string]*AnnotationReconciler
}

// NewWorkspace creates a Workspace with the required dependencies.
func NewWorkspace(
	reviewStore driven.ReviewStore,
	elementStore driven.ElementStore,
	surfaces driven.MarkerSurfaceProvider,
	logger *slog.Logger,
) *Workspace {
	return &Workspace{
		reviewStore:  reviewStore,
		elementStore: elementStore,
		surfaces:     surfaces,
		logger:       logger,
		now:          time.Now,
		comments:     NewCommentStore(),
		nodes:        NewNodeAggregator(),
		projects:     make(map[string][]*model.Element),
		documents:    make(map[string]*AnnotationReconciler),
	}
}

// ListReviews returns every persisted review, open or not.
func (w *Workspace) ListReviews(ctx context.Context) ([]model.Review, error) {
	return w.reviewStore.ListReviews(ctx)
}

// CreateReview persists a new review and opens it.
func (w *Workspace) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := w.reviewStore.GetReview(ctx, review.ID)
	if err != nil {
		return model.Review{}, err
	}
	if existing != nil || w.comments.ContainsReview(review.ID) {
		return model.Review{}, fmt.Errorf("create review %q: %w", review.ID, model.ErrReviewExists)
	}

	review.IsOpen = true
	if review.CreatedAt.IsZero() {
		review.CreatedAt = w.now().UTC()
	}
	if err := w.reviewStore.CreateReview(ctx, review); err != nil {
		return model.Review{}, err
	}

	w.comments.AddReview(review)
	w.nodes.Root(review.ID, nil)
	w.logger.Info("review created", "review_id", review.ID)
	return review, nil
}

// OpenReview loads a persisted review, its comments, and its file tree into
// the in-memory index. Opening an open review returns it unchanged.
func (w *Workspace) OpenReview(ctx context.Context, reviewID string) (model.Review, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if r, ok := w.comments.Review(reviewID); ok {
		return r, nil
	}

	review, err := w.reviewStore.GetReview(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if review == nil {
		return model.Review{}, fmt.Errorf("open review %q: %w", reviewID, model.ErrReviewNotFound)
	}

	comments, err := w.reviewStore.GetCommentsByReview(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	projects, err := w.elementStore.GetProjects(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if !review.IsOpen {
		if err := w.reviewStore.SetReviewOpen(ctx, reviewID, true); err != nil {
			return model.Review{}, err
		}
	}

	review.IsOpen = true
	w.comments.AddReview(*review)
	for _, c := range comments {
		w.comments.AddComment(c)
	}
	w.loadTree(reviewID, projects)

	w.logger.Info("review opened",
		"review_id", reviewID,
		"comments", len(comments),
		"projects", len(projects),
	)
	return *review, nil
}

// RestoreOpenReviews loads every review persisted as open. It is called once
// at startup and returns the number of reviews loaded.
func (w *Workspace) RestoreOpenReviews(ctx context.Context) (int, error) {
	reviews, err := w.reviewStore.ListReviews(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore open reviews: %w", err)
	}

	restored := 0
	for _, r := range reviews {
		if !r.IsOpen {
			continue
		}
		if _, err := w.OpenReview(ctx, r.ID); err != nil {
			return restored, fmt.Errorf("restore review %q: %w", r.ID, err)
		}
		restored++
	}
	return restored, nil
}

// CloseReview unloads a review from the index and marks it closed.
func (w *Workspace) CloseReview(ctx context.Context, reviewID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.comments.ContainsReview(reviewID) {
		return fmt.Errorf("close review %q: %w", reviewID, model.ErrReviewClosed)
	}
	if err := w.reviewStore.SetReviewOpen(ctx, reviewID, false); err != nil {
		return err
	}
	w.unload(reviewID)
	w.logger.Info("review closed", "review_id", reviewID)
	return nil
}

// DeleteReview removes a review from storage and from the index.
func (w *Workspace) DeleteReview(ctx context.Context, reviewID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing, err := w.reviewStore.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("delete review %q: %w", reviewID, model.ErrReviewNotFound)
	}
	if err := w.reviewStore.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	w.unload(reviewID)
	w.logger.Info("review deleted", "review_id", reviewID)
	return nil
}

// AddComment assigns the next free ID in the (review, author) bucket, adds
// the comment's path to the file tree, persists the comment, and indexes it.
// Nothing is stored or indexed when any step fails.
func (w *Workspace) AddComment(ctx context.Context, draft CommentDraft) (model.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.comments.ContainsReview(draft.ReviewID) {
		return model.Comment{}, fmt.Errorf("add comment to %q: %w", draft.ReviewID, model.ErrReviewClosed)
	}

	path := model.CleanPath(draft.Path)
	if path == "" && draft.Path != "" {
		return model.Comment{}, fmt.Errorf("add comment path %q: %w", draft.Path, model.ErrInvalidElementTree)
	}

	created := draft.CreatedAt.UTC()
	if draft.CreatedAt.IsZero() {
		created = w.now().UTC()
	}
	comment := model.Comment{
		ReviewID:   draft.ReviewID,
		Author:     draft.Author,
		ID:         w.comments.NextCommentID(draft.ReviewID, draft.Author),
		Recipient:  draft.Recipient,
		Priority:   draft.Priority,
		Status:     draft.Status,
		Body:       draft.Body,
		Path:       path,
		CreatedAt:  created,
		ModifiedAt: created,
	}
	if comment.Priority == "" {
		comment.Priority = model.PriorityMedium
	}
	if comment.Status == "" {
		comment.Status = model.CommentStatusOpen
	}

	if comment.Path != "" {
		if err := w.ensurePath(ctx, comment.ReviewID, comment.Path); err != nil {
			return model.Comment{}, err
		}
	}
	if err := w.reviewStore.UpsertComment(ctx, comment); err != nil {
		return model.Comment{}, err
	}
	w.comments.AddComment(comment)

	w.logger.Debug("comment added", "key", comment.Key().String(), "path", comment.Path)
	return comment, nil
}

// UpdateComment applies patch to an existing comment.
func (w *Workspace) UpdateComment(ctx context.Context, key model.CommentKey, patch CommentPatch) (model.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	comment, err := w.comments.Comment(key)
	if err != nil {
		return model.Comment{}, err
	}
	if patch.Recipient != nil {
		comment.Recipient = *patch.Recipient
	}
	if patch.Priority != nil {
		comment.Priority = *patch.Priority
	}
	if patch.Status != nil {
		comment.Status = *patch.Status
	}
	if patch.Body != nil {
		comment.Body = *patch.Body
	}
	comment.ModifiedAt = w.now().UTC()

	if err := w.reviewStore.UpsertComment(ctx, comment); err != nil {
		return model.Comment{}, err
	}
	if err := w.comments.UpdateComment(comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// AddReply appends a reply to an existing comment.
func (w *Workspace) AddReply(ctx context.Context, key model.CommentKey, reply model.Reply) (model.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.comments.Comment(key); err != nil {
		return model.Comment{}, err
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = w.now().UTC()
	}
	if err := w.reviewStore.AppendReply(ctx, key, reply); err != nil {
		return model.Comment{}, err
	}
	if err := w.comments.AddReply(key, reply); err != nil {
		return model.Comment{}, err
	}
	return w.comments.Comment(key)
}

// DeleteComment removes a comment. It reports whether the comment was the
// last one of its author in the review.
func (w *Workspace) DeleteComment(ctx context.Context, key model.CommentKey) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.comments.Comment(key); err != nil {
		return false, err
	}
	if err := w.reviewStore.DeleteComment(ctx, key); err != nil {
		return false, err
	}
	bucketRemoved, err := w.comments.RemoveComment(key)
	if err != nil {
		return false, err
	}
	w.dropMarkers(func(k model.CommentKey) bool { return k == key })
	w.logger.Debug("comment deleted", "key", key.String(), "bucket_removed", bucketRemoved)
	return bucketRemoved, nil
}

// Comment returns one comment of an open review.
func (w *Workspace) Comment(key model.CommentKey) (model.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.comments.Comment(key)
}

// Comments returns the comments of an open review under path. An empty path
// returns all of the review's comments.
func (w *Workspace) Comments(reviewID, path string) ([]model.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.comments.ContainsReview(reviewID) {
		return nil, fmt.Errorf("list comments of %q: %w", reviewID, model.ErrReviewClosed)
	}
	if path == "" {
		return w.comments.Comments(reviewID), nil
	}
	return w.comments.CommentsUnder(reviewID, path), nil
}

// OpenReviews returns the reviews currently loaded in the index.
func (w *Workspace) OpenReviews() []model.Review {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.comments.Reviews()
}

// Node returns the tree node with the given identity.
func (w *Workspace) Node(key NodeKey) (TreeNode, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, ok := w.nodes.Lookup(key)
	if !ok {
		return TreeNode{}, fmt.Errorf("lookup %s node %q in %q: %w", key.Kind, key.Path, key.ReviewID, model.ErrNodeNotFound)
	}
	return w.snapshot(node), nil
}

// Children returns the merged child nodes of the node with the given identity.
// The review root of an open review has key {reviewID, "", review}.
func (w *Workspace) Children(key NodeKey) ([]TreeNode, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, ok := w.nodes.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("children of %s node %q in %q: %w", key.Kind, key.Path, key.ReviewID, model.ErrNodeNotFound)
	}
	children := w.nodes.ChildNodes(node)
	out := make([]TreeNode, 0, len(children))
	for _, child := range children {
		out = append(out, w.snapshot(child))
	}
	return out, nil
}

// SyncAnnotations reconciles the markers of document against desired.
func (w *Workspace) SyncAnnotations(document string, desired map[model.CommentKey]model.Position) (ReconcileResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	result, err := w.reconciler(document).Reconcile(desired)
	if err != nil {
		return ReconcileResult{}, err
	}
	if len(result.Added) > 0 || len(result.Removed) > 0 {
		w.logger.Debug("annotations reconciled",
			"document", document,
			"added", len(result.Added),
			"removed", len(result.Removed),
		)
	}
	return result, nil
}

// MoveAnnotation repositions the marker of key by removing and re-adding it.
func (w *Workspace) MoveAnnotation(document string, key model.CommentKey, pos model.Position) (ReconcileResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r := w.reconciler(document)
	removed, err := r.Remove(key)
	if err != nil {
		return ReconcileResult{}, err
	}
	added, err := r.Add(key, pos)
	if err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{Added: []Annotation{added}, Removed: []Annotation{removed}}, nil
}

// Annotations returns the displayed annotations of document ordered by key.
func (w *Workspace) Annotations(document string) []Annotation {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.documents[document]
	if !ok {
		return []Annotation{}
	}
	return r.Annotations()
}

// CloseDocument removes every marker of document and forgets its reconciler.
func (w *Workspace) CloseDocument(document string) []Annotation {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.documents[document]
	if !ok {
		return nil
	}
	removed := r.ClearAll()
	delete(w.documents, document)
	w.surfaces.Release(document)
	return removed
}

func (w *Workspace) reconciler(document string) *AnnotationReconciler {
	r, ok := w.documents[document]
	if !ok {
		r = NewAnnotationReconciler(w.surfaces.Surface(document))
		w.documents[document] = r
	}
	return r
}

func (w *Workspace) unload(reviewID string) {
	w.dropMarkers(func(k model.CommentKey) bool { return k.ReviewID == reviewID })
	w.comments.RemoveReview(reviewID)
	w.nodes.RemoveReview(reviewID)
	delete(w.projects, reviewID)
}

// dropMarkers removes the markers of every key matching match from all
// documents. Comment IDs are reused, so markers must not outlive their
// comment.
func (w *Workspace) dropMarkers(match func(model.CommentKey) bool) {
	for document, r := range w.documents {
		for key := range r.Displayed() {
			if !match(key) {
				continue
			}
			if _, err := r.Remove(key); err != nil {
				w.logger.Error("failed to remove marker", "document", document, "key", key.String(), "error", err)
			}
		}
	}
}

// loadTree registers every element of a review's projects with the aggregator.
func (w *Workspace) loadTree(reviewID string, projects []*model.Element) {
	w.nodes.RemoveReview(reviewID)
	w.projects[reviewID] = projects
	w.nodes.Root(reviewID, projects)

	var walk func(e *model.Element)
	walk = func(e *model.Element) {
		w.nodes.CreateOrGet(e, reviewID)
		for _, c := range e.StructuralChildren() {
			walk(c)
		}
	}
	for _, p := range projects {
		walk(p)
	}
}

// ensurePath adds the element chain of a cleaned comment path. The first
// segment is always a project, so a single-segment path is a project node.
func (w *Workspace) ensurePath(ctx context.Context, reviewID, path string) error {
	key := NodeKey{ReviewID: reviewID, Path: path, Kind: model.ElementKindFile}
	if !strings.Contains(path, model.PathSeparator) {
		key.Kind = model.ElementKindProject
	}
	if _, ok := w.nodes.Lookup(key); ok {
		return nil
	}
	if _, err := w.elementStore.EnsurePath(ctx, reviewID, DefaultSource, path, model.ElementKindFile); err != nil {
		return err
	}
	projects, err := w.elementStore.GetProjects(ctx, reviewID)
	if err != nil {
		return err
	}
	w.loadTree(reviewID, projects)
	return nil
}

func (w *Workspace) snapshot(node *AggregationNode) TreeNode {
	var sources []string
	seen := make(map[string]bool)
	for _, e := range node.Elements() {
		if !seen[e.Source] {
			seen[e.Source] = true
			sources = append(sources, e.Source)
		}
	}

	var count int
	if node.Kind() == model.ElementKindReview {
		count = len(w.comments.Comments(node.ReviewID()))
	} else {
		count = len(w.comments.CommentsUnder(node.ReviewID(), node.Path()))
	}

	return TreeNode{
		Key:          node.Key(),
		Name:         node.Name(),
		Sources:      sources,
		CommentCount: count,
		HasChildren:  len(node.Children()) > 0,
	}
}
