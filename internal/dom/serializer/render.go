// internal/dom/serializer/render.go
package serializer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// Render walks the final tree depth-first and emits the indented,
// marker-annotated textual protocol: one line per emitted node, tab
// indentation per nesting level, and the curated attribute string built
// from includeAttributes. Deterministic given identical tree and allow-list.
func Render(node *SimplifiedNode, includeAttributes []string) string {
	return strings.Join(renderNode(node, includeAttributes, 0), "\n")
}

func renderNode(node *SimplifiedNode, includeAttributes []string, depth int) []string {
	if node == nil {
		return nil
	}

	// Excluded nodes are transparent: no line of their own, children stay
	// at the same depth.
	if node.ExcludedByParent {
		return renderChildren(node, includeAttributes, depth)
	}

	var lines []string
	indent := strings.Repeat("\t", depth)
	nextDepth := depth

	switch node.Node.Kind {
	case dom.KindElement:
		// Structural wrappers kept only for geometry are transparent too.
		if !node.ShouldDisplay {
			return renderChildren(node, includeAttributes, depth)
		}

		if node.Node.Tag == "svg" {
			return renderSVG(node, includeAttributes, indent)
		}

		isAnyScrollable := node.Node.IsActuallyScrollable() || node.Node.IsScrollable()
		showScroll := node.Node.ShouldShowScrollInfo()
		isFrame := node.Node.Tag == "iframe" || node.Node.Tag == "frame"

		if node.IsInteractive || isAnyScrollable || isFrame {
			nextDepth++

			attrs := buildAttributesString(node.Node, includeAttributes, "")
			if compound := compoundAttribute(node.CompoundChildren); compound != "" {
				if attrs != "" {
					attrs += " " + compound
				} else {
					attrs = compound
				}
			}

			var line strings.Builder
			line.WriteString(indent)
			line.WriteString(shadowPrefix(node))
			switch {
			case showScroll && !node.IsInteractive:
				line.WriteString("|SCROLL|<" + node.Node.Tag)
			case node.IsInteractive:
				if node.IsNew {
					line.WriteString("*")
				}
				if showScroll {
					line.WriteString("|SCROLL[")
				} else {
					line.WriteString("[")
				}
				line.WriteString(strconv.FormatInt(node.Node.BackendID, 10))
				line.WriteString("]<" + node.Node.Tag)
			case node.Node.Tag == "iframe":
				line.WriteString("|IFRAME|<" + node.Node.Tag)
			case node.Node.Tag == "frame":
				line.WriteString("|FRAME|<" + node.Node.Tag)
			default:
				line.WriteString("<" + node.Node.Tag)
			}
			if attrs != "" {
				line.WriteString(" " + attrs)
			}
			line.WriteString(" />")
			if showScroll {
				if scrollInfo := node.Node.ScrollInfoText(); scrollInfo != "" {
					line.WriteString(" (" + scrollInfo + ")")
				}
			}
			lines = append(lines, line.String())
		}

	case dom.KindFragment:
		if strings.EqualFold(node.Node.ShadowRootType, "closed") {
			lines = append(lines, indent+"Closed Shadow")
		} else {
			lines = append(lines, indent+"Open Shadow")
		}
		nextDepth++
		lines = append(lines, renderChildren(node, includeAttributes, nextDepth)...)
		if len(node.Children) > 0 {
			lines = append(lines, indent+"Shadow End")
		}
		return lines

	case dom.KindText:
		if node.Node.IsVisible() {
			if text := strings.TrimSpace(node.Node.Value); len(text) > 1 {
				lines = append(lines, indent+text)
			}
		}
	}

	lines = append(lines, renderChildren(node, includeAttributes, nextDepth)...)
	return lines
}

func renderChildren(node *SimplifiedNode, includeAttributes []string, depth int) []string {
	var lines []string
	for _, child := range node.Children {
		lines = append(lines, renderNode(child, includeAttributes, depth)...)
	}
	return lines
}

// renderSVG emits a single self-closing line; SVG children are never
// visited, their internals carry no interaction value.
func renderSVG(node *SimplifiedNode, includeAttributes []string, indent string) []string {
	var line strings.Builder
	line.WriteString(indent)
	line.WriteString(shadowPrefix(node))
	if node.IsInteractive {
		if node.IsNew {
			line.WriteString("*")
		}
		line.WriteString("[" + strconv.FormatInt(node.Node.BackendID, 10) + "]")
	}
	line.WriteString("<svg")
	if attrs := buildAttributesString(node.Node, includeAttributes, ""); attrs != "" {
		line.WriteString(" " + attrs)
	}
	line.WriteString(" /> <!-- SVG content collapsed -->")
	return []string{line.String()}
}

// shadowPrefix returns the shadow-host marker; closed wins when any shadow
// fragment child reports a closed root type.
func shadowPrefix(node *SimplifiedNode) string {
	if !node.IsShadowHost {
		return ""
	}
	for _, child := range node.Children {
		if child.Node.Kind == dom.KindFragment && strings.EqualFold(child.Node.ShadowRootType, "closed") {
			return "|SHADOW(closed)|"
		}
	}
	return "|SHADOW(open)|"
}

// compoundAttribute renders the synthesized sub-widget descriptors as one
// composite attribute, one parenthesized group per descriptor, listing only
// populated fields in a fixed order.
func compoundAttribute(children []CompoundChild) string {
	var groups []string
	for _, child := range children {
		var parts []string
		if child.Name != "" {
			parts = append(parts, "name="+child.Name)
		}
		if child.Role != "" {
			parts = append(parts, "role="+child.Role)
		}
		if child.ValueMin != nil {
			parts = append(parts, "min="+formatFloat(*child.ValueMin))
		}
		if child.ValueMax != nil {
			parts = append(parts, "max="+formatFloat(*child.ValueMax))
		}
		if child.ValueNow != nil {
			parts = append(parts, "current="+*child.ValueNow)
		}
		if child.OptionsCount > 0 {
			parts = append(parts, "count="+strconv.Itoa(child.OptionsCount))
		}
		if len(child.FirstOptions) > 0 {
			limit := min(len(child.FirstOptions), maxDisplayedOptions)
			parts = append(parts, "options="+strings.Join(child.FirstOptions[:limit], "|"))
		}
		if child.FormatHint != "" {
			parts = append(parts, "format="+child.FormatHint)
		}
		if len(parts) > 0 {
			groups = append(groups, fmt.Sprintf("(%s)", strings.Join(parts, ",")))
		}
	}
	if len(groups) == 0 {
		return ""
	}
	return "compound_components=" + strings.Join(groups, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
