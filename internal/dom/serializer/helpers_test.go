// internal/dom/serializer/helpers_test.go
package serializer

import (
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagelens/internal/dom"
	"github.com/xkilldash9x/pagelens/internal/dom/clickable"
)

// nextTestID hands out process-unique node identifiers so hand-built
// fixtures never collide in the serializer's per-node caches.
var nextTestID atomic.Int64

func mintTestID() int64 { return nextTestID.Add(1) }

func newTestSerializer(t *testing.T, cfg Config) *Serializer {
	t.Helper()
	return New(zaptest.NewLogger(t), cfg, clickable.New(), nil)
}

// element builds a visible element node with the given attributes.
func element(tag string, attrs map[string]string, children ...*dom.Node) *dom.Node {
	id := mintTestID()
	return &dom.Node{
		Kind:       dom.KindElement,
		BackendID:  id,
		NodeID:     id,
		Tag:        tag,
		Attributes: attrs,
		Layout:     &dom.Layout{Visible: true, Bounds: &dom.Rect{X: 0, Y: 0, Width: 100, Height: 20}},
		Children:   children,
	}
}

// hiddenElement builds an element with no visible layout box.
func hiddenElement(tag string, attrs map[string]string, children ...*dom.Node) *dom.Node {
	node := element(tag, attrs, children...)
	node.Layout = nil
	return node
}

func text(value string) *dom.Node {
	id := mintTestID()
	return &dom.Node{
		Kind:      dom.KindText,
		BackendID: id,
		NodeID:    id,
		Value:     value,
		Layout:    &dom.Layout{Visible: true},
	}
}

// withBounds overrides the element's layout rectangle in place and returns
// the node for chaining.
func withBounds(node *dom.Node, r dom.Rect) *dom.Node {
	if node.Layout == nil {
		node.Layout = &dom.Layout{Visible: true}
	}
	node.Layout.Bounds = &r
	return node
}

// simplify runs stage one only, for tests that inspect the intermediate
// tree before later stages mutate flags.
func simplify(t *testing.T, cfg Config, root *dom.Node) *SimplifiedNode {
	t.Helper()
	return newTestSerializer(t, cfg).createSimplifiedTree(root)
}

// findSimplified returns the first simplified node wrapping an element with
// the given tag, depth-first.
func findSimplified(node *SimplifiedNode, tag string) *SimplifiedNode {
	if node == nil {
		return nil
	}
	if node.Node.Kind == dom.KindElement && node.Node.Tag == tag {
		return node
	}
	for _, child := range node.Children {
		if found := findSimplified(child, tag); found != nil {
			return found
		}
	}
	return nil
}
