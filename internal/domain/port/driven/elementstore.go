package driven

import (
	"context"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// ElementStore defines the driven port for a review's file tree.
type ElementStore interface {
	// EnsurePath creates any missing project, folder, and file elements for
	// path under the given source and returns the deepest element. The first
	// path segment is the project; the last is a file when kind is
	// ElementKindFile, otherwise a folder.
	EnsurePath(ctx context.Context, reviewID, source, path string, kind model.ElementKind) (*model.Element, error)
	// GetProjects returns the top-level project elements of a review, one per
	// source that contributed them, with their subtrees linked.
	GetProjects(ctx context.Context, reviewID string) ([]*model.Element, error)
}
