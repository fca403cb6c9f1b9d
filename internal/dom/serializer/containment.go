// internal/dom/serializer/containment.go
package serializer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// formControlTags always need individual interaction and are never
// collapsed into a containing link or button.
var formControlTags = map[string]struct{}{
	"input": {}, "select": {}, "textarea": {}, "label": {},
}

// interactiveRoles mark nodes as independently interactive even when fully
// covered by a propagating ancestor.
var interactiveRoles = map[string]struct{}{
	"button": {}, "link": {}, "checkbox": {}, "radio": {},
	"tab": {}, "menuitem": {}, "option": {},
}

// applyBoundingBoxFiltering propagates the bounding box of container
// elements (links, buttons, combo-like roles) to all descendants and marks
// descendants that are redundant because a container almost entirely covers
// them. Marked nodes are skipped by the indexer and renderer but their
// subtrees are still visited.
func (s *Serializer) applyBoundingBoxFiltering(node *SimplifiedNode) *SimplifiedNode {
	if node == nil {
		return nil
	}
	s.filterTreeRecursive(node, nil, 0)

	if excluded := countExcludedNodes(node); excluded > 0 {
		s.logger.Debug("bounding-box filtering excluded nodes", zap.Int("count", excluded))
	}
	return node
}

func (s *Serializer) filterTreeRecursive(node *SimplifiedNode, active *propagatingBounds, depth int) {
	if active != nil && s.shouldExcludeChild(node, active) {
		node.ExcludedByParent = true
		// An excluded node can still start a new propagation scope below.
	}

	// A propagating match with a live rectangle supersedes the inherited
	// bounds for this node's descendants, even when the node itself was
	// just excluded.
	var newBounds *propagatingBounds
	tag := node.Node.Tag
	if isPropagatingElement(tag, node.Node.Role()) {
		if layout := node.Node.Layout; layout != nil && layout.Bounds != nil {
			newBounds = &propagatingBounds{
				tag:    tag,
				bounds: *layout.Bounds,
				nodeID: node.Node.NodeID,
				depth:  depth,
			}
		}
	}

	propagate := active
	if newBounds != nil {
		propagate = newBounds
	}
	for _, child := range node.Children {
		s.filterTreeRecursive(child, propagate, depth+1)
	}
}

// shouldExcludeChild decides whether a candidate node collapses into the
// active propagating bounds. Exclusion requires near-total geometric
// containment and none of the exception rules protecting independently
// interactive children.
func (s *Serializer) shouldExcludeChild(node *SimplifiedNode, active *propagatingBounds) bool {
	// Text content is always preserved.
	if node.Node.Kind == dom.KindText {
		return false
	}

	layout := node.Node.Layout
	if layout == nil || layout.Bounds == nil {
		return false // no rectangle, containment undecidable
	}
	if !layout.Bounds.ContainedIn(active.bounds, s.cfg.ContainmentThreshold) {
		return false
	}

	tag := node.Node.Tag
	if _, formControl := formControlTags[tag]; formControl {
		return false
	}
	// A nested propagating element may stop event propagation itself
	// (button inside button).
	if isPropagatingElement(tag, node.Node.Role()) {
		return false
	}
	if node.Node.HasAttr("onclick") {
		return false
	}
	if strings.TrimSpace(node.Node.Attr("aria-label")) != "" {
		return false
	}
	if _, interactive := interactiveRoles[node.Node.Role()]; interactive {
		return false
	}

	return true
}

func countExcludedNodes(node *SimplifiedNode) int {
	count := 0
	if node.ExcludedByParent {
		count++
	}
	for _, child := range node.Children {
		count += countExcludedNodes(child)
	}
	return count
}
