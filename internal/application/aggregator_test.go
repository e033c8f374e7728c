package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewmarks/internal/domain/model"
)

// buildProject builds project -> src -> {files...} for one source.
func buildProject(source, project string, files ...string) (*model.Element, *model.Element) {
	p := &model.Element{Kind: model.ElementKindProject, Name: project, Source: source}
	src := p.AddChild(&model.Element{Kind: model.ElementKindFolder, Name: "src", Source: source})
	for _, f := range files {
		src.AddChild(&model.Element{Kind: model.ElementKindFile, Name: f, Source: source})
	}
	return p, src
}

func TestElementPath(t *testing.T) {
	root := &model.Element{Kind: model.ElementKindReview, Name: "r1"}
	p := root.AddChild(&model.Element{Kind: model.ElementKindProject, Name: "proj"})
	folder := p.AddChild(&model.Element{Kind: model.ElementKindFolder, Name: "src"})
	file := folder.AddChild(&model.Element{Kind: model.ElementKindFile, Name: "A.txt"})

	assert.Equal(t, "", root.Path())
	assert.Equal(t, "proj", p.Path())
	assert.Equal(t, "proj/src", folder.Path())
	assert.Equal(t, "proj/src/A.txt", file.Path())
}

func TestNodeAggregator_SharedIdentityMergesElements(t *testing.T) {
	a := NewNodeAggregator()
	_, srcA := buildProject("a.xml", "proj", "A.txt", "B.txt")
	_, srcB := buildProject("b.xml", "proj", "B.txt", "C.txt")

	n1 := a.CreateOrGet(srcA, "r1")
	n2 := a.CreateOrGet(srcB, "r1")

	assert.Same(t, n1, n2)
	assert.True(t, n1.Equal(n2))
	assert.Len(t, n1.Elements(), 2)
	assert.Equal(t, 1, a.Len())

	// Union keeps duplicates at the parent level.
	children := n1.Children()
	assert.Len(t, children, 4)

	// Duplicates collapse when resolved.
	nodes := a.ChildNodes(n1)
	require.Len(t, nodes, 3)
	assert.Equal(t, "proj/src/A.txt", nodes[0].Path())
	assert.Equal(t, "proj/src/B.txt", nodes[1].Path())
	assert.Len(t, nodes[1].Elements(), 2)
	assert.Equal(t, "proj/src/C.txt", nodes[2].Path())
}

func TestNodeAggregator_DifferentReviewsStayApart(t *testing.T) {
	a := NewNodeAggregator()
	_, srcA := buildProject("a.xml", "proj")
	_, srcB := buildProject("a.xml", "proj")

	n1 := a.CreateOrGet(srcA, "r1")
	n2 := a.CreateOrGet(srcB, "r2")

	assert.NotSame(t, n1, n2)
	assert.False(t, n1.Equal(n2))
}

func TestAggregationNode_EqualIgnoresKind(t *testing.T) {
	a := NewNodeAggregator()
	folder := &model.Element{Kind: model.ElementKindFolder, Name: "x"}
	file := &model.Element{Kind: model.ElementKindFile, Name: "x"}

	n1 := a.CreateOrGet(folder, "r1")
	n2 := a.CreateOrGet(file, "r1")

	assert.NotSame(t, n1, n2)
	assert.True(t, n1.Equal(n2))
}

func TestAggregationNode_AddIsIdempotent(t *testing.T) {
	a := NewNodeAggregator()
	p, _ := buildProject("a.xml", "proj")

	n := a.CreateOrGet(p, "r1")
	a.CreateOrGet(p, "r1")

	assert.Len(t, n.Elements(), 1)
}

func TestNodeAggregator_RemoveElementDiscardsEmptyNode(t *testing.T) {
	a := NewNodeAggregator()
	pA, _ := buildProject("a.xml", "proj")
	pB, _ := buildProject("b.xml", "proj")
	n := a.CreateOrGet(pA, "r1")
	a.CreateOrGet(pB, "r1")

	assert.False(t, a.RemoveElement(pA, "r1"))
	assert.Len(t, n.Elements(), 1)

	assert.True(t, a.RemoveElement(pB, "r1"))
	_, ok := a.Lookup(n.Key())
	assert.False(t, ok)
}

func TestNodeAggregator_RootChildrenAreSupplied(t *testing.T) {
	a := NewNodeAggregator()
	pA, _ := buildProject("a.xml", "proj")
	pB, _ := buildProject("b.xml", "proj")
	other, _ := buildProject("a.xml", "lib")

	root := a.Root("r1", []*model.Element{pA, pB, other})

	assert.Equal(t, "", root.Path())
	assert.Equal(t, model.ElementKindReview, root.Kind())
	assert.Equal(t, "r1", root.Name())
	assert.Len(t, root.Children(), 3)
	assert.False(t, root.IsEmpty())

	nodes := a.ChildNodes(root)
	require.Len(t, nodes, 2)
	assert.Equal(t, "lib", nodes[0].Path())
	assert.Equal(t, "proj", nodes[1].Path())
	assert.Len(t, nodes[1].Elements(), 2)
}

func TestNodeAggregator_ChildKindsPerVariant(t *testing.T) {
	a := NewNodeAggregator()
	p := &model.Element{Kind: model.ElementKindProject, Name: "proj"}
	sub := p.AddChild(&model.Element{Kind: model.ElementKindProject, Name: "sub"})
	p.AddChild(&model.Element{Kind: model.ElementKindFile, Name: "go.mod"})
	folder := p.AddChild(&model.Element{Kind: model.ElementKindFolder, Name: "cmd"})
	// A folder never contributes projects.
	folder.AddChild(&model.Element{Kind: model.ElementKindProject, Name: "stray"})
	file := folder.AddChild(&model.Element{Kind: model.ElementKindFile, Name: "main.go"})

	assert.Len(t, a.CreateOrGet(p, "r1").Children(), 3)
	assert.Len(t, a.CreateOrGet(folder, "r1").Children(), 1)
	assert.Empty(t, a.CreateOrGet(file, "r1").Children())
	assert.Empty(t, a.CreateOrGet(sub, "r1").Children())

	// Folders and projects sort ahead of files.
	nodes := a.ChildNodes(a.CreateOrGet(p, "r1"))
	require.Len(t, nodes, 3)
	assert.Equal(t, model.ElementKindFolder, nodes[0].Kind())
	assert.Equal(t, model.ElementKindProject, nodes[1].Kind())
	assert.Equal(t, model.ElementKindFile, nodes[2].Kind())
}

func TestNodeAggregator_RemoveReview(t *testing.T) {
	a := NewNodeAggregator()
	_, src := buildProject("a.xml", "proj", "A.txt")
	a.Root("r1", nil)
	a.CreateOrGet(src, "r1")
	a.CreateOrGet(src, "r2")

	a.RemoveReview("r1")

	assert.Equal(t, 1, a.Len())
	_, ok := a.Lookup(NodeKey{ReviewID: "r2", Path: "proj/src", Kind: model.ElementKindFolder})
	assert.True(t, ok)
}
