// internal/dom/paintorder/paintorder.go

// Package paintorder provides the default occlusion annotator consumed by
// the serializer. It walks the simplified tree once and flags nodes whose
// painted area is fully covered by a later-painted sibling, so the indexer
// does not expose targets the user cannot see or hit.
package paintorder

import (
	"github.com/xkilldash9x/pagelens/internal/dom"
	"github.com/xkilldash9x/pagelens/internal/dom/serializer"
)

// coverageThreshold is the containment ratio at which a sibling counts as
// fully covering a node.
const coverageThreshold = 0.99

// Remover implements serializer.OcclusionAnnotator.
type Remover struct{}

// New returns the default annotator.
func New() *Remover { return &Remover{} }

// Annotate mutates IgnoredByPaintOrder in place across the whole tree.
// Text nodes are never flagged; their content stays readable even under
// overlays.
func (r *Remover) Annotate(root *serializer.SimplifiedNode) {
	if root == nil {
		return
	}
	r.annotateChildren(root)
}

func (r *Remover) annotateChildren(node *serializer.SimplifiedNode) {
	children := node.Children
	for i, child := range children {
		if child.Node.Kind == dom.KindText {
			continue
		}
		bounds, order, ok := paintGeometry(child.Node)
		if !ok {
			continue
		}
		for j, sibling := range children {
			if i == j {
				continue
			}
			coverBounds, coverOrder, ok := paintGeometry(sibling.Node)
			if !ok || coverOrder <= order {
				continue
			}
			if bounds.ContainedIn(coverBounds, coverageThreshold) {
				markSubtree(child, coverBounds)
				break
			}
		}
	}
	for _, child := range children {
		r.annotateChildren(child)
	}
}

// markSubtree flags the occluded node and every descendant whose own
// rectangle also lies under the covering area. Descendants overflowing the
// cover (e.g. dropdown panels) stay visible.
func markSubtree(node *serializer.SimplifiedNode, cover dom.Rect) {
	node.IgnoredByPaintOrder = true
	for _, child := range node.Children {
		if child.Node.Kind == dom.KindText {
			continue
		}
		layout := child.Node.Layout
		if layout == nil || layout.Bounds == nil {
			continue
		}
		if layout.Bounds.ContainedIn(cover, coverageThreshold) {
			markSubtree(child, cover)
		}
	}
}

func paintGeometry(node *dom.Node) (dom.Rect, int64, bool) {
	layout := node.Layout
	if layout == nil || layout.Bounds == nil || layout.PaintOrder == 0 || layout.Bounds.Area() == 0 {
		return dom.Rect{}, 0, false
	}
	return *layout.Bounds, layout.PaintOrder, true
}
