// internal/dom/serializer/attributes.go
package serializer

import (
	"strings"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// maxAttributeValueLen caps every rendered attribute value.
const maxAttributeValueLen = 100

// iso8601Formats maps HTML5 date/time input types to the value format the
// browser actually accepts. The browser may display locale formats, but the
// programmatic value is always ISO 8601.
var iso8601Formats = map[string]string{
	"date":           "YYYY-MM-DD",
	"time":           "HH:MM",
	"datetime-local": "YYYY-MM-DDTHH:MM",
	"month":          "YYYY-MM",
	"week":           "YYYY-W##",
}

// protectedAttrs are never dropped as duplicates; each serves a distinct
// purpose even when values coincide.
var protectedAttrs = map[string]struct{}{
	"format": {}, "expected_format": {}, "placeholder": {},
	"value": {}, "aria-label": {}, "title": {},
}

// orderedAttrs is a string map that remembers first-insertion order so the
// rendered attribute string is deterministic.
type orderedAttrs struct {
	keys   []string
	values map[string]string
}

func newOrderedAttrs() *orderedAttrs {
	return &orderedAttrs{values: make(map[string]string)}
}

func (a *orderedAttrs) set(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

func (a *orderedAttrs) get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a *orderedAttrs) has(key string) bool {
	_, ok := a.values[key]
	return ok
}

func (a *orderedAttrs) delete(key string) {
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

func (a *orderedAttrs) len() int { return len(a.keys) }

// buildAttributesString assembles the curated per-element attribute string:
// allow-listed HTML attributes, injected format hints for date-like inputs,
// accessibility properties, the live value for form controls, and the dedup
// and noise-removal rules, capped and joined as key=value pairs.
func buildAttributesString(node *dom.Node, includeAttributes []string, text string) string {
	attrs := newOrderedAttrs()

	// Allow-listed HTML attributes with non-empty trimmed values, in
	// allow-list order for determinism.
	for _, key := range includeAttributes {
		if value := strings.TrimSpace(node.Attr(key)); value != "" {
			attrs.set(key, value)
		}
	}

	if node.Tag == "input" {
		injectInputFormatHints(node, includeAttributes, attrs)
	}

	// Accessibility properties not already present from HTML. Booleans are
	// lower-cased strings; a property that fails to stringify is skipped
	// without aborting the node.
	if node.AX != nil {
		included := make(map[string]struct{}, len(includeAttributes))
		for _, key := range includeAttributes {
			included[key] = struct{}{}
		}
		for _, prop := range node.AX.Properties {
			if _, ok := included[prop.Name]; !ok || prop.Value == nil {
				continue
			}
			if value, ok := node.AX.Property(prop.Name); ok {
				attrs.set(prop.Name, value)
			}
		}
	}

	// Form controls show the live value from the accessibility record,
	// preferring valuetext over value: the AX state reflects actual user
	// input while the DOM attribute may be stale.
	if node.Tag == "input" || node.Tag == "textarea" || node.Tag == "select" {
		if v, ok := node.AX.Property("valuetext"); ok {
			attrs.set("value", v)
		} else if v, ok := node.AX.Property("value"); ok {
			attrs.set("value", v)
		}
	}

	if attrs.len() == 0 {
		return ""
	}

	dropDuplicateValues(attrs, includeAttributes)
	dropRedundantAttrs(node, attrs, text)

	if attrs.len() == 0 {
		return ""
	}

	pairs := make([]string, 0, attrs.len())
	for _, key := range attrs.keys {
		value := capText(attrs.values[key], maxAttributeValueLen)
		if value == "" {
			pairs = append(pairs, key+"=''")
		} else {
			pairs = append(pairs, key+"="+value)
		}
	}
	return strings.Join(pairs, " ")
}

// injectInputFormatHints force-injects format/placeholder attributes for
// date-like inputs so the agent cannot miss the required value format, and
// detects third-party datepicker conventions on freeform text inputs.
func injectInputFormatHints(node *dom.Node, includeAttributes []string, attrs *orderedAttrs) {
	inputType := strings.ToLower(node.Attr("type"))

	if format, ok := iso8601Formats[inputType]; ok {
		attrs.set("format", format)
	}

	placeholderAllowed := false
	for _, key := range includeAttributes {
		if key == "placeholder" {
			placeholderAllowed = true
			break
		}
	}
	if !placeholderAllowed || attrs.has("placeholder") {
		return
	}

	if format, ok := iso8601Formats[inputType]; ok {
		attrs.set("placeholder", format)
		return
	}

	switch inputType {
	case "tel":
		if !attrs.has("pattern") {
			attrs.set("placeholder", "123-456-7890")
		}
	case "text", "":
		// AngularJS UI Bootstrap is the most specific indicator and wins.
		if node.HasAttr("uib-datepicker-popup") {
			if format := node.Attr("uib-datepicker-popup"); format != "" {
				attrs.set("expected_format", format)
				attrs.set("format", format)
			}
			return
		}
		class := strings.ToLower(node.Attr("class"))
		isClassDatepicker := strings.Contains(class, "datepicker") ||
			strings.Contains(class, "datetimepicker") ||
			strings.Contains(class, "daterangepicker")
		if isClassDatepicker || node.HasAttr("data-datepicker") {
			format := node.Attr("data-date-format")
			if format == "" {
				format = "mm/dd/yyyy"
			}
			attrs.set("placeholder", format)
			attrs.set("format", format)
		}
	}
}

// dropDuplicateValues removes later allow-listed keys that repeat an
// earlier key's exact value, for values longer than 5 characters, except
// for the protected set.
func dropDuplicateValues(attrs *orderedAttrs, includeAttributes []string) {
	var orderedKeys []string
	for _, key := range includeAttributes {
		if attrs.has(key) {
			orderedKeys = append(orderedKeys, key)
		}
	}
	if len(orderedKeys) < 2 {
		return
	}

	seen := make(map[string]struct{})
	for _, key := range orderedKeys {
		value, _ := attrs.get(key)
		if len(value) <= 5 {
			continue
		}
		_, protected := protectedAttrs[key]
		if _, dup := seen[value]; dup && !protected {
			attrs.delete(key)
			continue
		}
		seen[value] = struct{}{}
	}
}

// dropRedundantAttrs strips attributes that restate what the element line
// already conveys.
func dropRedundantAttrs(node *dom.Node, attrs *orderedAttrs, text string) {
	// role implied by the tag name.
	if node.AX != nil && node.AX.Role != "" && node.Tag == node.AX.Role {
		attrs.delete("role")
	}
	// <button type="button"> and friends.
	if v, ok := attrs.get("type"); ok && strings.EqualFold(v, node.Tag) {
		attrs.delete("type")
	}
	// invalid is only informative when true.
	if v, ok := attrs.get("invalid"); ok && strings.EqualFold(v, "false") {
		attrs.delete("invalid")
	}
	for _, attr := range []string{"required"} {
		if v, ok := attrs.get(attr); ok {
			switch strings.ToLower(v) {
			case "false", "0", "no":
				attrs.delete(attr)
			}
		}
	}
	// Prefer the accessibility-derived expanded state.
	if attrs.has("expanded") && attrs.has("aria-expanded") {
		attrs.delete("aria-expanded")
	}
	// Labels that merely repeat the rendered text.
	trimmedText := strings.ToLower(strings.TrimSpace(text))
	for _, attr := range []string{"aria-label", "placeholder", "title"} {
		if v, ok := attrs.get(attr); ok && strings.ToLower(strings.TrimSpace(v)) == trimmedText && trimmedText != "" {
			attrs.delete(attr)
		}
	}
}
