package application

import (
	"fmt"
	"sort"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// ReconcilerState is the lifecycle state of an AnnotationReconciler.
type ReconcilerState int

const (
	// ReconcilerIdle means no reconciliation is running.
	ReconcilerIdle ReconcilerState = iota
	// ReconcilerReconciling means a desired set is being applied.
	ReconcilerReconciling
)

func (s ReconcilerState) String() string {
	if s == ReconcilerReconciling {
		return "reconciling"
	}
	return "idle"
}

// Annotation is a comment key bound to a materialized marker.
type Annotation struct {
	Key      model.CommentKey
	Position model.Position
	MarkerID model.MarkerID
}

// ReconcileResult lists the markers a reconciliation created and destroyed.
// Both slices are ordered by comment key.
type ReconcileResult struct {
	Added   []Annotation
	Removed []Annotation
}

// AnnotationReconciler keeps the markers of one editor document in line with
// a desired key -> position mapping, touching only the difference.
//
// AnnotationReconciler is not safe for concurrent use; Workspace guards it.
type AnnotationReconciler struct {
	surface   driven.MarkerSurface
	displayed map[model.CommentKey]Annotation
	state     ReconcilerState
}

// NewAnnotationReconciler creates a reconciler that materializes markers on surface.
func NewAnnotationReconciler(surface driven.MarkerSurface) *AnnotationReconciler {
	return &AnnotationReconciler{
		surface:   surface,
		displayed: make(map[model.CommentKey]Annotation),
	}
}

// State returns the current lifecycle state.
func (r *AnnotationReconciler) State() ReconcilerState {
	return r.state
}

// Reconcile adds a marker for every desired key not yet displayed and removes
// the marker of every displayed key no longer desired. Keys present on both
// sides are left alone even when their desired position moved; callers that
// need repositioning go through Remove then Add.
func (r *AnnotationReconciler) Reconcile(desired map[model.CommentKey]model.Position) (ReconcileResult, error) {
	if r.state == ReconcilerReconciling {
		return ReconcileResult{}, fmt.Errorf("reconcile: %w", model.ErrReconcileInProgress)
	}
	r.state = ReconcilerReconciling
	defer func() { r.state = ReconcilerIdle }()

	var result ReconcileResult

	for _, key := range sortedKeys(desired) {
		if _, ok := r.displayed[key]; ok {
			continue
		}
		result.Added = append(result.Added, r.add(key, desired[key]))
	}

	for _, key := range sortedKeys(r.displayed) {
		if _, ok := desired[key]; ok {
			continue
		}
		result.Removed = append(result.Removed, r.remove(key))
	}

	return result, nil
}

// Add materializes a marker for key at pos.
func (r *AnnotationReconciler) Add(key model.CommentKey, pos model.Position) (Annotation, error) {
	if r.state == ReconcilerReconciling {
		return Annotation{}, fmt.Errorf("add marker %s: %w", key, model.ErrReconcileInProgress)
	}
	if _, ok := r.displayed[key]; ok {
		return Annotation{}, fmt.Errorf("add marker %s: %w", key, model.ErrMarkerDisplayed)
	}
	return r.add(key, pos), nil
}

// Remove destroys the marker displayed for key.
func (r *AnnotationReconciler) Remove(key model.CommentKey) (Annotation, error) {
	if r.state == ReconcilerReconciling {
		return Annotation{}, fmt.Errorf("remove marker %s: %w", key, model.ErrReconcileInProgress)
	}
	if _, ok := r.displayed[key]; !ok {
		return Annotation{}, fmt.Errorf("remove marker %s: %w", key, model.ErrMarkerNotDisplayed)
	}
	return r.remove(key), nil
}

// ClearAll removes every displayed marker. It is used when the document
// context is torn down.
func (r *AnnotationReconciler) ClearAll() []Annotation {
	var removed []Annotation
	for _, key := range sortedKeys(r.displayed) {
		removed = append(removed, r.remove(key))
	}
	return removed
}

// Displayed returns a snapshot of the displayed key -> position mapping.
func (r *AnnotationReconciler) Displayed() map[model.CommentKey]model.Position {
	out := make(map[model.CommentKey]model.Position, len(r.displayed))
	for key, a := range r.displayed {
		out[key] = a.Position
	}
	return out
}

// Annotations returns the displayed annotations ordered by comment key.
func (r *AnnotationReconciler) Annotations() []Annotation {
	out := make([]Annotation, 0, len(r.displayed))
	for _, key := range sortedKeys(r.displayed) {
		out = append(out, r.displayed[key])
	}
	return out
}

func (r *AnnotationReconciler) add(key model.CommentKey, pos model.Position) Annotation {
	a := Annotation{Key: key, Position: pos, MarkerID: r.surface.AddMarker(key, pos)}
	r.displayed[key] = a
	return a
}

func (r *AnnotationReconciler) remove(key model.CommentKey) Annotation {
	a := r.displayed[key]
	r.surface.RemoveMarker(a.MarkerID)
	delete(r.displayed, key)
	return a
}

func sortedKeys[V any](m map[model.CommentKey]V) []model.CommentKey {
	keys := make([]model.CommentKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

func lessKey(a, b model.CommentKey) bool {
	if a.ReviewID != b.ReviewID {
		return a.ReviewID < b.ReviewID
	}
	if a.Author != b.Author {
		return a.Author < b.Author
	}
	return a.ID < b.ID
}
