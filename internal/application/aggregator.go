package application

import (
	"slices"
	"sort"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// NodeKey is the identity of an aggregation node.
type NodeKey struct {
	ReviewID string
	Path     string
	Kind     model.ElementKind
}

// AggregationNode merges every element of one review that shares a path and
// kind into a single display node.
type AggregationNode struct {
	key      NodeKey
	elements []*model.Element
	// roots holds the externally supplied projects of a review-root node.
	roots []*model.Element
}

// Key returns the node's identity.
func (n *AggregationNode) Key() NodeKey { return n.key }

// ReviewID returns the review the node belongs to.
func (n *AggregationNode) ReviewID() string { return n.key.ReviewID }

// Path returns the node's workspace path; empty for a review root.
func (n *AggregationNode) Path() string { return n.key.Path }

// Kind returns the element kind shared by the node's elements.
func (n *AggregationNode) Kind() model.ElementKind { return n.key.Kind }

// Name returns the last path segment, or the review ID for a review root.
func (n *AggregationNode) Name() string {
	if n.key.Kind == model.ElementKindReview {
		return n.key.ReviewID
	}
	return n.elements[0].Name
}

// Elements returns the underlying elements in the order they were added.
func (n *AggregationNode) Elements() []*model.Element {
	return slices.Clone(n.elements)
}

// Equal reports whether n and other denote the same logical node. Kind takes
// part only through path computation.
func (n *AggregationNode) Equal(other *AggregationNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.key.ReviewID == other.key.ReviewID && n.key.Path == other.key.Path
}

// Add attaches element to the node. Adding an element twice is a no-op.
func (n *AggregationNode) Add(element *model.Element) {
	if slices.Contains(n.elements, element) {
		return
	}
	n.elements = append(n.elements, element)
}

// Remove detaches element and reports whether the node is now empty. An empty
// node should be discarded by the caller.
func (n *AggregationNode) Remove(element *model.Element) bool {
	n.elements = slices.DeleteFunc(n.elements, func(e *model.Element) bool { return e == element })
	return n.IsEmpty()
}

// IsEmpty reports whether no element backs the node.
func (n *AggregationNode) IsEmpty() bool {
	if n.key.Kind == model.ElementKindReview {
		return false
	}
	return len(n.elements) == 0
}

// Children returns the identities of the structural children of every
// underlying element. Children shared by several elements appear once per
// element; they collapse when resolved through NodeAggregator.CreateOrGet.
func (n *AggregationNode) Children() []NodeKey {
	var out []NodeKey
	for _, child := range n.childElements() {
		out = append(out, NodeKey{ReviewID: n.key.ReviewID, Path: child.Path(), Kind: child.Kind})
	}
	return out
}

func (n *AggregationNode) childElements() []*model.Element {
	if n.key.Kind == model.ElementKindReview {
		return n.roots
	}
	var out []*model.Element
	for _, e := range n.elements {
		out = append(out, e.StructuralChildren()...)
	}
	return out
}

// NodeAggregator owns the aggregation nodes of all loaded reviews.
//
// NodeAggregator is not safe for concurrent use; Workspace guards it.
type NodeAggregator struct {
	nodes map[NodeKey]*AggregationNode
}

// NewNodeAggregator creates an empty NodeAggregator.
func NewNodeAggregator() *NodeAggregator {
	return &NodeAggregator{nodes: make(map[NodeKey]*AggregationNode)}
}

// CreateOrGet returns the node for element's identity within reviewID,
// creating it on first sight, and attaches element to it.
func (a *NodeAggregator) CreateOrGet(element *model.Element, reviewID string) *AggregationNode {
	key := NodeKey{ReviewID: reviewID, Path: element.Path(), Kind: element.Kind}
	node, ok := a.nodes[key]
	if !ok {
		node = &AggregationNode{key: key}
		a.nodes[key] = node
	}
	node.Add(element)
	return node
}

// Root returns the review-root node of reviewID with its children set to
// projects. The root's path is always empty.
func (a *NodeAggregator) Root(reviewID string, projects []*model.Element) *AggregationNode {
	key := NodeKey{ReviewID: reviewID, Kind: model.ElementKindReview}
	node, ok := a.nodes[key]
	if !ok {
		node = &AggregationNode{key: key}
		a.nodes[key] = node
	}
	node.roots = slices.Clone(projects)
	return node
}

// Lookup returns the node with the given identity.
func (a *NodeAggregator) Lookup(key NodeKey) (*AggregationNode, bool) {
	node, ok := a.nodes[key]
	return node, ok
}

// ChildNodes resolves the children of node into nodes, collapsing children
// that share an identity. Nodes are ordered folders and projects first, then
// by path.
func (a *NodeAggregator) ChildNodes(node *AggregationNode) []*AggregationNode {
	seen := make(map[NodeKey]bool)
	var out []*AggregationNode
	for _, child := range node.childElements() {
		n := a.CreateOrGet(child, node.key.ReviewID)
		if seen[n.key] {
			continue
		}
		seen[n.key] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i].key.Kind == model.ElementKindFile, out[j].key.Kind == model.ElementKindFile
		if fi != fj {
			return !fi
		}
		return out[i].key.Path < out[j].key.Path
	})
	return out
}

// RemoveElement detaches element from its node and discards the node when it
// becomes empty. It reports whether the node was discarded.
func (a *NodeAggregator) RemoveElement(element *model.Element, reviewID string) bool {
	key := NodeKey{ReviewID: reviewID, Path: element.Path(), Kind: element.Kind}
	node, ok := a.nodes[key]
	if !ok {
		return false
	}
	if !node.Remove(element) {
		return false
	}
	a.Discard(key)
	return true
}

// Discard drops the node with the given identity.
func (a *NodeAggregator) Discard(key NodeKey) {
	delete(a.nodes, key)
}

// RemoveReview drops every node belonging to reviewID.
func (a *NodeAggregator) RemoveReview(reviewID string) {
	for key := range a.nodes {
		if key.ReviewID == reviewID {
			delete(a.nodes, key)
		}
	}
}

// Len returns the number of live nodes.
func (a *NodeAggregator) Len() int {
	return len(a.nodes)
}
