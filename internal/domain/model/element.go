package model

import "strings"

// ElementKind discriminates the variants of Element.
type ElementKind string

const (
	ElementKindReview  ElementKind = "review"
	ElementKindProject ElementKind = "project"
	ElementKindFolder  ElementKind = "folder"
	ElementKindFile    ElementKind = "file"
)

// PathSeparator joins element names into a workspace path.
const PathSeparator = "/"

// Element is one node of a review's file tree as contributed by a single
// backing source. The same logical project, folder, or file may appear once
// per source; NodeAggregator merges those into one display node.
type Element struct {
	ID       int64
	ReviewID string
	Kind     ElementKind
	Name     string
	Source   string // Backing document that contributed this element.
	Parent   *Element
	Children []*Element
}

// AllowedChildKinds lists the kinds an element of kind k contributes as
// structural children. Review roots have externally supplied children.
func (k ElementKind) AllowedChildKinds() []ElementKind {
	switch k {
	case ElementKindProject:
		return []ElementKind{ElementKindProject, ElementKindFolder, ElementKindFile}
	case ElementKindFolder:
		return []ElementKind{ElementKindFolder, ElementKindFile}
	default:
		return nil
	}
}

// Valid reports whether k is one of the known element kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case ElementKindReview, ElementKindProject, ElementKindFolder, ElementKindFile:
		return true
	}
	return false
}

// IsRootMarker reports whether e terminates an ancestor walk.
func (e *Element) IsRootMarker() bool {
	return e == nil || e.Kind == ElementKindReview
}

// Path joins the names of e and its ancestors up to, but excluding, the
// review-root marker. A review root's path is the empty string.
func (e *Element) Path() string {
	if e.IsRootMarker() {
		return ""
	}
	var names []string
	for cur := e; !cur.IsRootMarker(); cur = cur.Parent {
		names = append(names, cur.Name)
	}
	path := names[len(names)-1]
	for i := len(names) - 2; i >= 0; i-- {
		path += PathSeparator + names[i]
	}
	return path
}

// CleanPath drops empty segments, so "a//b/" and "/a/b" both become "a/b".
// A path made only of separators cleans to the empty string.
func CleanPath(path string) string {
	segments := strings.FieldsFunc(path, func(r rune) bool { return string(r) == PathSeparator })
	return strings.Join(segments, PathSeparator)
}

// AddChild links child under e and returns child.
func (e *Element) AddChild(child *Element) *Element {
	child.Parent = e
	e.Children = append(e.Children, child)
	return child
}

// StructuralChildren returns the children of e whose kind e contributes to the
// display tree.
func (e *Element) StructuralChildren() []*Element {
	allowed := e.Kind.AllowedChildKinds()
	if len(allowed) == 0 {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		for _, k := range allowed {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
