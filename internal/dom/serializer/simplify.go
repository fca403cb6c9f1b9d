// internal/dom/serializer/simplify.go
package serializer

import (
	"strings"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// excludeAttrBase is the legacy opt-out attribute; a session-specific
// variant excludeAttrBase+"-<session>" takes precedence when configured.
const excludeAttrBase = "data-pagelens-exclude"

// disabledElements never carry content the agent can act on.
var disabledElements = map[string]struct{}{
	"style": {}, "script": {}, "head": {}, "meta": {}, "link": {}, "title": {},
}

// svgChildElements are decorative SVG internals, skipped entirely. The svg
// root itself survives and is collapsed by the renderer.
var svgChildElements = map[string]struct{}{
	"path": {}, "rect": {}, "g": {}, "circle": {}, "ellipse": {}, "line": {},
	"polyline": {}, "polygon": {}, "use": {}, "defs": {}, "clippath": {},
	"mask": {}, "pattern": {}, "image": {}, "text": {}, "tspan": {},
}

// createSimplifiedTree copies only semantically relevant nodes into a
// parallel lightweight tree, flattening shadow roots and iframe documents
// into the main hierarchy.
func (s *Serializer) createSimplifiedTree(node *dom.Node) *SimplifiedNode {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case dom.KindDocument:
		// Documents are transparent: unwrap to the first non-empty child
		// among children and shadow roots combined.
		for _, child := range node.ChildrenAndShadowRoots() {
			if simplified := s.createSimplifiedTree(child); simplified != nil {
				return simplified
			}
		}
		return nil

	case dom.KindFragment:
		// Shadow roots always produce a wrapper, even with no surviving
		// children: shadow content frequently hosts the only interactive
		// substance of single-page applications.
		simplified := newSimplifiedNode(node)
		for _, child := range node.ChildrenAndShadowRoots() {
			if sc := s.createSimplifiedTree(child); sc != nil {
				simplified.Children = append(simplified.Children, sc)
			}
		}
		return simplified

	case dom.KindElement:
		return s.simplifyElement(node)

	case dom.KindText:
		if node.IsVisible() && len(strings.TrimSpace(node.Value)) > 1 {
			return newSimplifiedNode(node)
		}
		return nil
	}

	return nil
}

func (s *Serializer) simplifyElement(node *dom.Node) *SimplifiedNode {
	if _, disabled := disabledElements[node.Tag]; disabled {
		return nil
	}
	if _, svgChild := svgChildElements[node.Tag]; svgChild {
		return nil
	}
	if s.isExcludedByAttribute(node) {
		return nil
	}

	// Frames with an embedded document are flattened: the frame element
	// keeps the embedded document's top-level children directly, and the
	// frame boundary is only marked later for display.
	if (node.Tag == "iframe" || node.Tag == "frame") && node.ContentDocument != nil {
		simplified := newSimplifiedNode(node)
		for _, child := range node.ContentDocument.Children {
			if sc := s.createSimplifiedTree(child); sc != nil {
				simplified.Children = append(simplified.Children, sc)
			}
		}
		return simplified
	}

	isVisible := node.IsVisible()
	isScrollable := node.IsActuallyScrollable()
	hasShadowContent := len(node.ChildrenAndShadowRoots()) > 0
	isShadowHost := false
	for _, child := range node.ChildrenAndShadowRoots() {
		if child.Kind == dom.KindFragment {
			isShadowHost = true
			break
		}
	}

	// Elements carrying aria-* or pseudo-* attributes participate in
	// accessibility or validation even when laid out invisible.
	if !isVisible {
		for name := range node.Attributes {
			if strings.HasPrefix(name, "aria-") || strings.HasPrefix(name, "pseudo") {
				isVisible = true
				break
			}
		}
	}
	// Hidden-but-functional file pickers.
	if !isVisible && node.IsFileInput() {
		isVisible = true
	}

	if !isVisible && !isScrollable && !hasShadowContent && !isShadowHost {
		return nil
	}

	simplified := newSimplifiedNode(node)
	simplified.IsShadowHost = isShadowHost
	for _, child := range node.ChildrenAndShadowRoots() {
		if sc := s.createSimplifiedTree(child); sc != nil {
			simplified.Children = append(simplified.Children, sc)
		}
	}

	// Synthesize virtual sub-widgets once, up front.
	s.addCompoundComponents(simplified, node)

	// Shadow hosts with surviving children are kept regardless of their
	// own visibility.
	if isShadowHost && len(simplified.Children) > 0 {
		return simplified
	}
	if isVisible || isScrollable || len(simplified.Children) > 0 {
		return simplified
	}
	return nil
}

// isExcludedByAttribute honors the session-specific opt-out attribute first,
// then the legacy one; the value must case-insensitively equal "true".
func (s *Serializer) isExcludedByAttribute(node *dom.Node) bool {
	var value string
	if s.cfg.SessionID != "" {
		value = node.Attr(excludeAttrBase + "-" + s.cfg.SessionID)
	}
	if value == "" {
		value = node.Attr(excludeAttrBase)
	}
	return strings.EqualFold(value, "true")
}
