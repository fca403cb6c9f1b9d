// internal/dom/node.go
package dom

import (
	"fmt"
	"strings"
)

// NodeKind discriminates the four node variants a captured page tree can
// contain. Every stage of the serializer pipeline matches on it exhaustively.
type NodeKind int

const (
	KindDocument NodeKind = iota
	KindFragment          // shadow root
	KindElement
	KindText
)

// String returns a short name for logging.
func (k NodeKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindFragment:
		return "fragment"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AXProperty is a single named accessibility property (e.g. "valuetext",
// "expanded"). Values arrive from the instrumentation layer as strings or
// booleans; anything else is carried opaquely and stringified on use.
type AXProperty struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// AXNode is the accessibility sub-record of an element.
type AXNode struct {
	Role       string       `json:"role,omitempty"`
	Properties []AXProperty `json:"properties,omitempty"`
	// ChildIDs links to AX children; a non-empty list marks controls the
	// browser decomposes into sub-widgets (select, audio, video, details).
	ChildIDs []int64 `json:"childIds,omitempty"`
}

// Property returns the stringified value of a named AX property and whether
// it was present with a non-empty value.
func (ax *AXNode) Property(name string) (string, bool) {
	if ax == nil {
		return "", false
	}
	for _, prop := range ax.Properties {
		if prop.Name != name || prop.Value == nil {
			continue
		}
		s := strings.TrimSpace(stringifyAXValue(prop.Value))
		if s == "" {
			return "", false
		}
		return s, true
	}
	return "", false
}

func stringifyAXValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Layout is the paint/layout snapshot of a node. A nil Layout means the node
// never generated a layout box in the captured frame.
type Layout struct {
	Visible bool  `json:"visible"`
	Bounds  *Rect `json:"bounds,omitempty"`
	// Scrollable mirrors the instrumentation layer's own scrollability
	// signal; IsActuallyScrollable below recomputes it from geometry.
	Scrollable   bool    `json:"scrollable,omitempty"`
	ScrollTop    float64 `json:"scrollTop,omitempty"`
	ScrollLeft   float64 `json:"scrollLeft,omitempty"`
	ScrollWidth  float64 `json:"scrollWidth,omitempty"`
	ScrollHeight float64 `json:"scrollHeight,omitempty"`
	ClientWidth  float64 `json:"clientWidth,omitempty"`
	ClientHeight float64 `json:"clientHeight,omitempty"`
	PaintOrder   int64   `json:"paintOrder,omitempty"`
}

// Node is one node of the captured page tree. It is immutable for the
// duration of a pipeline run; the serializer only reads and indexes it.
type Node struct {
	Kind NodeKind `json:"kind"`
	// BackendID is assigned by the browser instrumentation layer and is
	// stable for the lifetime of the live element. It is the external
	// address of the node and is never reassigned by this module.
	BackendID int64 `json:"backendId"`
	// NodeID is the per-snapshot ordinal, used only for cache keys.
	NodeID int64 `json:"nodeId"`

	Tag        string            `json:"tag,omitempty"`   // lower-case, elements only
	Value      string            `json:"value,omitempty"` // text nodes only
	Attributes map[string]string `json:"attributes,omitempty"`

	AX     *AXNode `json:"ax,omitempty"`
	Layout *Layout `json:"layout,omitempty"`

	// ShadowRootType is "open" or "closed" on fragment nodes.
	ShadowRootType string `json:"shadowRootType,omitempty"`

	Children    []*Node `json:"children,omitempty"`
	ShadowRoots []*Node `json:"shadowRoots,omitempty"`
	// ContentDocument is the embedded document of iframe/frame elements.
	ContentDocument *Node `json:"contentDocument,omitempty"`
}

// Attr returns the named HTML attribute, or "" if absent.
func (n *Node) Attr(name string) string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes[name]
}

// HasAttr reports whether the named HTML attribute is present at all.
func (n *Node) HasAttr(name string) bool {
	if n.Attributes == nil {
		return false
	}
	_, ok := n.Attributes[name]
	return ok
}

// Role returns the explicit role attribute, or "" if absent.
func (n *Node) Role() string { return n.Attr("role") }

// ChildrenAndShadowRoots returns regular children followed by shadow roots,
// the traversal order used by the simplifier.
func (n *Node) ChildrenAndShadowRoots() []*Node {
	if len(n.ShadowRoots) == 0 {
		return n.Children
	}
	out := make([]*Node, 0, len(n.Children)+len(n.ShadowRoots))
	out = append(out, n.Children...)
	out = append(out, n.ShadowRoots...)
	return out
}

// IsVisible reports whether the node has a live layout snapshot that marks
// it visible. A missing snapshot means not visible, never an error.
func (n *Node) IsVisible() bool {
	return n.Layout != nil && n.Layout.Visible
}

// IsScrollable mirrors the instrumentation layer's scrollability flag.
func (n *Node) IsScrollable() bool {
	return n.Layout != nil && n.Layout.Scrollable
}

// IsActuallyScrollable recomputes scrollability from scroll geometry: the
// content overflows the client box by more than a rounding pixel.
func (n *Node) IsActuallyScrollable() bool {
	l := n.Layout
	if l == nil || (l.ClientWidth <= 0 && l.ClientHeight <= 0) {
		return false
	}
	return l.ScrollHeight > l.ClientHeight+1 || l.ScrollWidth > l.ClientWidth+1
}

// ShouldShowScrollInfo reports whether the renderer should append the
// "pages above/below" summary for this node.
func (n *Node) ShouldShowScrollInfo() bool {
	return n.IsActuallyScrollable()
}

// ScrollInfoText summarizes the vertical scroll position in viewport pages,
// e.g. "0.5 pages above, 2.1 pages below". Returns "" when the node carries
// no usable scroll geometry.
func (n *Node) ScrollInfoText() string {
	l := n.Layout
	if l == nil || l.ClientHeight <= 0 || l.ScrollHeight <= l.ClientHeight {
		return ""
	}
	above := l.ScrollTop / l.ClientHeight
	below := (l.ScrollHeight - l.ScrollTop - l.ClientHeight) / l.ClientHeight
	if below < 0 {
		below = 0
	}
	return fmt.Sprintf("%.1f pages above, %.1f pages below", above, below)
}

// IsFileInput reports the hidden-but-functional file picker pattern: file
// inputs are routinely hidden with opacity:0 behind custom-styled buttons
// and must survive visibility filtering.
func (n *Node) IsFileInput() bool {
	return n.Kind == KindElement && n.Tag == "input" && n.Attr("type") == "file"
}
