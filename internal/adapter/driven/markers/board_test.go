package markers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

func newTestBoard() *Board {
	return NewBoard(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBoard_SurfaceIsPerDocument(t *testing.T) {
	b := newTestBoard()

	a1 := b.Surface("a.go")
	a2 := b.Surface("a.go")
	other := b.Surface("b.go")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, other)
	assert.Equal(t, []string{"a.go", "b.go"}, b.Documents())
}

func TestBoard_AddAndRemoveMarkers(t *testing.T) {
	b := newTestBoard()
	s := b.Surface("a.go")
	k1 := model.CommentKey{ReviewID: "r1", Author: "alice", ID: 0}
	k2 := model.CommentKey{ReviewID: "r1", Author: "bob", ID: 0}

	id1 := s.AddMarker(k1, model.Position{Offset: 30, Length: 2})
	id2 := s.AddMarker(k2, model.Position{Offset: 10, Length: 5})
	require.NotEqual(t, id1, id2)

	markers := b.Markers("a.go")
	require.Len(t, markers, 2)
	assert.Equal(t, k2, markers[0].Key, "ordered by offset")
	assert.Equal(t, id2, markers[0].ID)
	assert.Equal(t, k1, markers[1].Key)

	s.RemoveMarker(id2)
	markers = b.Markers("a.go")
	require.Len(t, markers, 1)
	assert.Equal(t, id1, markers[0].ID)

	// Removing an unknown marker is harmless.
	s.RemoveMarker("missing")
	assert.Len(t, b.Markers("a.go"), 1)
}

func TestBoard_Release(t *testing.T) {
	b := newTestBoard()
	b.Surface("a.go").AddMarker(model.CommentKey{ReviewID: "r1", Author: "alice"}, model.Position{})

	b.Release("a.go")
	b.Release("never-opened.go")

	assert.Empty(t, b.Markers("a.go"))
	assert.Empty(t, b.Documents())
	assert.Empty(t, b.Surface("a.go").(*surface).list(), "a new surface starts empty")
}
