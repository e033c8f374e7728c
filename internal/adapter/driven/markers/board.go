// Package markers provides an in-process marker surface for documents that
// have no attached editor. Markers are kept in memory and listed on demand.
package markers

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.MarkerSurfaceProvider = (*Board)(nil)
	_ driven.MarkerSurface         = (*surface)(nil)
)

// Marker is a live annotation on a document.
type Marker struct {
	ID       model.MarkerID
	Key      model.CommentKey
	Position model.Position
}

// Board hands out one surface per document.
type Board struct {
	mu       sync.Mutex
	surfaces map[string]*surface
	logger   *slog.Logger
}

// NewBoard creates an empty Board.
func NewBoard(logger *slog.Logger) *Board {
	return &Board{
		surfaces: make(map[string]*surface),
		logger:   logger,
	}
}

// Surface returns the surface for document, creating it on first use.
func (b *Board) Surface(document string) driven.MarkerSurface {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.surfaces[document]
	if !ok {
		s = &surface{markers: make(map[model.MarkerID]Marker)}
		b.surfaces[document] = s
		b.logger.Debug("marker surface created", "document", document)
	}
	return s
}

// Release drops the surface for document along with any markers left on it.
func (b *Board) Release(document string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.surfaces[document]; ok {
		b.logger.Debug("marker surface released", "document", document, "markers", s.len())
		delete(b.surfaces, document)
	}
}

// Markers lists the markers on document ordered by offset, then key.
func (b *Board) Markers(document string) []Marker {
	b.mu.Lock()
	s, ok := b.surfaces[document]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return s.list()
}

// Documents lists the documents that currently hold a surface.
func (b *Board) Documents() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs := make([]string, 0, len(b.surfaces))
	for d := range b.surfaces {
		docs = append(docs, d)
	}
	slices.Sort(docs)
	return docs
}

type surface struct {
	mu      sync.Mutex
	markers map[model.MarkerID]Marker
}

func (s *surface) AddMarker(key model.CommentKey, pos model.Position) model.MarkerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.MarkerID(uuid.New().String())
	s.markers[id] = Marker{ID: id, Key: key, Position: pos}
	return id
}

func (s *surface) RemoveMarker(id model.MarkerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.markers, id)
}

func (s *surface) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.markers)
}

func (s *surface) list() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Marker) int {
		if c := cmp.Compare(a.Position.Offset, b.Position.Offset); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Key.ReviewID, b.Key.ReviewID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Key.Author, b.Key.Author); c != 0 {
			return c
		}
		return cmp.Compare(a.Key.ID, b.Key.ID)
	})
	return out
}
