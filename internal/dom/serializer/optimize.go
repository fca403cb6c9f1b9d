// internal/dom/serializer/optimize.go
package serializer

import (
	"github.com/xkilldash9x/pagelens/internal/dom"
)

// optimizeTree prunes invisible, childless, non-scrollable wrapper nodes
// left over from simplification. Unlike the later stages, which skip nodes
// but keep visiting them, this pass deletes: a dropped node takes its
// (already empty or dropped) subtree with it.
func (s *Serializer) optimizeTree(node *SimplifiedNode) *SimplifiedNode {
	if node == nil {
		return nil
	}

	optimized := node.Children[:0]
	for _, child := range node.Children {
		if oc := s.optimizeTree(child); oc != nil {
			optimized = append(optimized, oc)
		}
	}
	node.Children = optimized

	switch {
	case node.Node.IsVisible():
		return node
	case node.Node.IsActuallyScrollable():
		return node
	case node.Node.Kind == dom.KindText:
		return node
	case len(node.Children) > 0:
		return node
	case node.Node.IsFileInput():
		// Hidden-but-functional exception, kept unconditionally.
		return node
	}
	return nil
}
