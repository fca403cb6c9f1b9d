// internal/dom/serializer/compound.go
package serializer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// compoundInputTypes are the input types the browser decomposes into
// sub-widgets the DOM never shows.
var compoundInputTypes = map[string]struct{}{
	"date": {}, "time": {}, "datetime-local": {}, "month": {}, "week": {},
	"range": {}, "number": {}, "color": {}, "file": {},
}

func floatPtr(f float64) *float64 { return &f }

// addCompoundComponents attaches virtual sub-widget descriptors to complex
// native controls so the agent understands which buttons, sliders, and
// lists the control contains even though no DOM node backs them.
func (s *Serializer) addCompoundComponents(simplified *SimplifiedNode, node *dom.Node) {
	switch node.Tag {
	case "input":
		inputType := node.Attr("type")
		if _, ok := compoundInputTypes[inputType]; !ok {
			return
		}
		s.addInputComponents(simplified, node, inputType)
	case "select", "details", "audio", "video":
		// Only controls the accessibility tree decomposes into children.
		if node.AX == nil || len(node.AX.ChildIDs) == 0 {
			return
		}
		switch node.Tag {
		case "select":
			s.addSelectComponents(simplified, node)
		case "details":
			simplified.CompoundChildren = append(simplified.CompoundChildren,
				CompoundChild{Role: "button", Name: "Toggle Disclosure"},
				CompoundChild{Role: "region", Name: "Content Area"},
			)
			simplified.IsCompoundComponent = true
		case "audio":
			simplified.CompoundChildren = append(simplified.CompoundChildren, mediaComponents(false)...)
			simplified.IsCompoundComponent = true
		case "video":
			simplified.CompoundChildren = append(simplified.CompoundChildren, mediaComponents(true)...)
			simplified.IsCompoundComponent = true
		}
	}
}

func (s *Serializer) addInputComponents(simplified *SimplifiedNode, node *dom.Node, inputType string) {
	switch inputType {
	case "date", "time", "datetime-local", "month", "week":
		// Deliberately no synthetic children: listing Day/Month/Year
		// sub-fields suggests a segmented-entry format, while these inputs
		// always take a single ISO 8601 value. The renderer communicates
		// the format through injected format/placeholder attributes.
		return

	case "range":
		simplified.CompoundChildren = append(simplified.CompoundChildren, CompoundChild{
			Role:     "slider",
			Name:     "Value",
			ValueMin: floatPtr(parseNumber(node.Attr("min"), 0.0)),
			ValueMax: floatPtr(parseNumber(node.Attr("max"), 100.0)),
		})

	case "number":
		simplified.CompoundChildren = append(simplified.CompoundChildren,
			CompoundChild{Role: "button", Name: "Increment"},
			CompoundChild{Role: "button", Name: "Decrement"},
			CompoundChild{
				Role:     "textbox",
				Name:     "Value",
				ValueMin: parseOptionalNumber(node.Attr("min")),
				ValueMax: parseOptionalNumber(node.Attr("max")),
			},
		)

	case "color":
		simplified.CompoundChildren = append(simplified.CompoundChildren,
			CompoundChild{Role: "textbox", Name: "Hex Value"},
			CompoundChild{Role: "button", Name: "Color Picker"},
		)

	case "file":
		name := "File Selected"
		if node.HasAttr("multiple") {
			name = "Files Selected"
		}
		current := fileInputCurrentValue(node)
		simplified.CompoundChildren = append(simplified.CompoundChildren,
			CompoundChild{Role: "button", Name: "Browse Files"},
			CompoundChild{Role: "textbox", Name: name, ValueNow: &current},
		)
	}
	simplified.IsCompoundComponent = true
}

// fileInputCurrentValue reads the current file selection from the AX
// record: valuetext if meaningful, else value with any path stripped to a
// filename, else the literal "None".
func fileInputCurrentValue(node *dom.Node) string {
	if v, ok := node.AX.Property("valuetext"); ok {
		lowered := strings.ToLower(v)
		if lowered != "no file chosen" && lowered != "no file selected" {
			return v
		}
		return "None"
	}
	if v, ok := node.AX.Property("value"); ok {
		if i := strings.LastIndexAny(v, `\/`); i >= 0 {
			v = v[i+1:]
		}
		if v != "" {
			return v
		}
	}
	return "None"
}

func mediaComponents(video bool) []CompoundChild {
	components := []CompoundChild{
		{Role: "button", Name: "Play/Pause"},
		{Role: "slider", Name: "Progress", ValueMin: floatPtr(0), ValueMax: floatPtr(100)},
		{Role: "button", Name: "Mute"},
		{Role: "slider", Name: "Volume", ValueMin: floatPtr(0), ValueMax: floatPtr(100)},
	}
	if video {
		components = append(components, CompoundChild{Role: "button", Name: "Fullscreen"})
	}
	return components
}

func (s *Serializer) addSelectComponents(simplified *SimplifiedNode, node *dom.Node) {
	components := []CompoundChild{{Role: "button", Name: "Dropdown Toggle"}}

	options := CompoundChild{Role: "listbox", Name: "Options"}
	if info := extractSelectOptions(node); info != nil {
		options.OptionsCount = info.count
		options.FirstOptions = info.firstOptions
		options.FormatHint = info.formatHint
	}
	components = append(components, options)

	simplified.CompoundChildren = append(simplified.CompoundChildren, components...)
	simplified.IsCompoundComponent = true
}

type selectOption struct {
	text  string
	value string
}

type selectOptionsInfo struct {
	count        int
	firstOptions []string
	formatHint   string
}

const (
	maxDisplayedOptions = 4
	maxOptionTextLen    = 30
	formatHintSample    = 5
)

// extractSelectOptions collects option elements (descending through
// optgroup and other wrappers), keeps up to four display strings plus a
// remainder marker, and infers a format hint from the option values.
func extractSelectOptions(selectNode *dom.Node) *selectOptionsInfo {
	if len(selectNode.Children) == 0 {
		return nil
	}

	var options []selectOption
	var collect func(n *dom.Node)
	collect = func(n *dom.Node) {
		if n.Kind == dom.KindElement && n.Tag == "option" {
			value := strings.TrimSpace(n.Attr("value"))
			text := directTextContent(n)
			if value == "" {
				value = text
			}
			if text != "" || value != "" {
				options = append(options, selectOption{text: text, value: value})
			}
			return
		}
		// optgroup and any other wrapper: keep descending.
		for _, child := range n.Children {
			collect(child)
		}
	}
	for _, child := range selectNode.Children {
		collect(child)
	}
	if len(options) == 0 {
		return nil
	}

	var first []string
	for _, opt := range options[:min(len(options), maxDisplayedOptions)] {
		display := opt.text
		if display == "" {
			display = opt.value
		}
		if display != "" {
			first = append(first, capText(display, maxOptionTextLen))
		}
	}
	if len(options) > maxDisplayedOptions {
		first = append(first, fmt.Sprintf("... %d more options...", len(options)-maxDisplayedOptions))
	}

	values := make([]string, 0, min(len(options), formatHintSample))
	for _, opt := range options[:min(len(options), formatHintSample)] {
		values = append(values, opt.value)
	}

	return &selectOptionsInfo{
		count:        len(options),
		firstOptions: first,
		formatHint:   inferFormatHint(values, len(options)),
	}
}

// directTextContent joins the trimmed direct child text nodes of n,
// skipping nested elements to avoid duplicating their text.
func directTextContent(n *dom.Node) string {
	var parts []string
	for _, child := range n.Children {
		if child.Kind == dom.KindText {
			if t := strings.TrimSpace(child.Value); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// inferFormatHint applies ordered pattern checks over the first option
// values; the first matching rule wins and none stack.
func inferFormatHint(values []string, totalOptions int) string {
	if totalOptions < 2 {
		return ""
	}
	switch {
	case allNonEmpty(values, isAllDigits):
		return "numeric"
	case allNonEmpty(values, isTwoLetterUpper):
		return "country/state codes"
	case allNonEmpty(values, func(v string) bool { return strings.ContainsAny(v, "/-") }):
		return "date/path format"
	case anyValue(values, func(v string) bool { return strings.Contains(v, "@") }):
		return "email addresses"
	}
	return ""
}

// allNonEmpty reports whether pred holds for every non-empty value.
func allNonEmpty(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		if !pred(v) {
			return false
		}
	}
	return true
}

func anyValue(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if pred(v) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func isTwoLetterUpper(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
