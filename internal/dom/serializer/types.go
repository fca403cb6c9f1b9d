// internal/dom/serializer/types.go
package serializer

import (
	"github.com/xkilldash9x/pagelens/internal/dom"
)

// SimplifiedNode wraps exactly one raw node by reference and owns its
// simplified children. It is created once per run by the simplifier; the
// later stages only flip its flags.
type SimplifiedNode struct {
	Node     *dom.Node
	Children []*SimplifiedNode

	IsShadowHost        bool
	IsCompoundComponent bool
	IsInteractive       bool
	IsNew               bool
	ExcludedByParent    bool
	IgnoredByPaintOrder bool
	// ShouldDisplay marks structural wrappers that stay in the tree for
	// geometry purposes but emit no line of their own when false.
	ShouldDisplay bool

	// CompoundChildren are virtual sub-widget descriptors synthesized for
	// complex native controls. They are rendered inline as an attribute,
	// never traversed.
	CompoundChildren []CompoundChild
}

func newSimplifiedNode(node *dom.Node) *SimplifiedNode {
	return &SimplifiedNode{Node: node, ShouldDisplay: true}
}

// CompoundChild describes one virtual sub-widget of a compound control,
// e.g. the thumb of a range slider or the options list of a select. Only
// populated fields are rendered.
type CompoundChild struct {
	Role     string
	Name     string
	ValueMin *float64
	ValueMax *float64
	// ValueNow carries the current value when one is meaningful (file
	// inputs report their selection here); nil means "not reported".
	ValueNow *string

	// Select options enrichment.
	OptionsCount int
	FirstOptions []string
	FormatHint   string
}

// SelectorMap is the address table exposed to the agent: backend identifier
// to raw node, for exactly the nodes marked interactive in one run.
type SelectorMap map[int64]*dom.Node

// BackendIDs returns the set of backend identifiers present in the map.
func (m SelectorMap) BackendIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(m))
	for id := range m {
		ids[id] = struct{}{}
	}
	return ids
}

// SerializedState is the unit returned to the caller: the filtered tree and
// the address table built for this run. The caller retains it and passes it
// back as the baseline for novelty detection on the next observation.
type SerializedState struct {
	Root        *SimplifiedNode
	SelectorMap SelectorMap
}

// propagatingBounds threads the currently enclosing interactive region
// through the containment pass. It is never stored on nodes.
type propagatingBounds struct {
	tag    string
	bounds dom.Rect
	nodeID int64
	depth  int
}

// propagatingPattern is a (tag, role) pair that starts a bounds scope. An
// empty role matches any role.
type propagatingPattern struct {
	tag  string
	role string
}

// propagatingElements lists the containers whose bounding box is inherited
// by all descendants: plain links and buttons, plus div/span/input acting
// as button or combobox through ARIA.
var propagatingElements = []propagatingPattern{
	{tag: "a"},
	{tag: "button"},
	{tag: "div", role: "button"},
	{tag: "div", role: "combobox"},
	{tag: "span", role: "button"},
	{tag: "span", role: "combobox"},
	{tag: "input", role: "combobox"},
}

func isPropagatingElement(tag, role string) bool {
	for _, p := range propagatingElements {
		if p.tag == tag && (p.role == "" || p.role == role) {
			return true
		}
	}
	return false
}
