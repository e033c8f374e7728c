package model

// Position is a character range in a live editor document.
type Position struct {
	Offset int
	Length int
}

// MarkerID is an opaque handle to a marker materialized by a MarkerSurface.
type MarkerID string
