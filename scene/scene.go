package scene

import (
	"roomwalk/core"
)

// Scene is the root of everything drawn: the node tree, the background
// colour and the lights.
type Scene struct {
	Root        *Node
	Background  core.Color
	Ambient     *AmbientLight
	Directional []*DirectionalLight
}

func NewScene(background core.Color) *Scene {
	return &Scene{
		Root:       NewNode("Scene"),
		Background: background,
	}
}

func (s *Scene) Add(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) Remove(node *Node) {
	s.Root.RemoveChild(node)
}

// ChildCount is the number of direct children of the root.
func (s *Scene) ChildCount() int {
	return len(s.Root.Children)
}

// Contains reports whether node is reachable from the root.
func (s *Scene) Contains(node *Node) bool {
	return node == s.Root || node.IsDescendantOf(s.Root)
}

// VisibleMeshNodes returns every node with a mesh whose whole ancestor chain
// is visible.
func (s *Scene) VisibleMeshNodes() []*Node {
	var visible []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			visible = append(visible, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}
