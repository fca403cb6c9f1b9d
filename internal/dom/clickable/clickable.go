// internal/dom/clickable/clickable.go

// Package clickable provides the default clickability oracle consumed by
// the serializer: a pure predicate deciding whether a raw node is a target
// the agent can act on. Callers with richer signals (event listeners,
// computed cursor styles) can supply their own implementation.
package clickable

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// interactiveTags are natively interactive HTML elements.
var interactiveTags = map[string]struct{}{
	"button": {}, "select": {}, "textarea": {}, "option": {},
	"summary": {}, "label": {}, "embed": {}, "audio": {}, "video": {},
}

// interactiveRoles are ARIA (and AX) roles implying interactivity.
var interactiveRoles = map[string]struct{}{
	"button": {}, "link": {}, "checkbox": {}, "radio": {}, "switch": {},
	"tab": {}, "menuitem": {}, "menuitemcheckbox": {}, "menuitemradio": {},
	"option": {}, "combobox": {}, "listbox": {}, "slider": {},
	"spinbutton": {}, "searchbox": {}, "textbox": {},
}

// Detector implements serializer.InteractiveDetector with attribute and
// accessibility heuristics only; it never touches the live page.
type Detector struct{}

// New returns the default detector.
func New() *Detector { return &Detector{} }

// IsInteractive reports whether node is an actionable target.
func (d *Detector) IsInteractive(node *dom.Node) bool {
	if node == nil || node.Kind != dom.KindElement {
		return false
	}
	if node.HasAttr("disabled") || strings.EqualFold(node.Attr("aria-disabled"), "true") {
		return false
	}

	switch node.Tag {
	case "a":
		// Anchors without an href are just styling hooks.
		return node.HasAttr("href") || hasInteractionAttrs(node)
	case "input":
		return node.Attr("type") != "hidden"
	case "iframe", "frame", "body", "html":
		return false
	}
	if _, ok := interactiveTags[node.Tag]; ok {
		return true
	}

	if _, ok := interactiveRoles[node.Role()]; ok {
		return true
	}
	if node.AX != nil {
		if _, ok := interactiveRoles[node.AX.Role]; ok {
			return true
		}
	}

	return hasInteractionAttrs(node)
}

// hasInteractionAttrs checks the attribute signals that make an otherwise
// inert element actionable.
func hasInteractionAttrs(node *dom.Node) bool {
	if node.HasAttr("onclick") || node.HasAttr("onmousedown") || node.HasAttr("onkeydown") {
		return true
	}
	if node.HasAttr("contenteditable") && !strings.EqualFold(node.Attr("contenteditable"), "false") {
		return true
	}
	if tabindex := node.Attr("tabindex"); tabindex != "" {
		if idx, err := strconv.Atoi(tabindex); err == nil && idx >= 0 {
			return true
		}
	}
	return false
}
