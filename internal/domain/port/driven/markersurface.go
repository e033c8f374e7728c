package driven

import "github.com/ericfisherdev/reviewmarks/internal/domain/model"

// MarkerSurface is the editor's live annotation surface for one document.
// The reconciler invokes it but does not own the markers it creates.
type MarkerSurface interface {
	AddMarker(key model.CommentKey, pos model.Position) model.MarkerID
	RemoveMarker(id model.MarkerID)
}

// MarkerSurfaceProvider hands out the surface for a document.
type MarkerSurfaceProvider interface {
	Surface(document string) MarkerSurface
	// Release discards the surface once its document context is torn down.
	Release(document string)
}
