// internal/dom/serializer/attributes_test.go
package serializer

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

var testIncludeAttributes = []string{
	"title", "type", "name", "role", "value", "placeholder", "alt",
	"aria-label", "aria-expanded", "href", "pattern", "format",
	"expected_format", "invalid", "required", "expanded",
}

func TestBuildAttributes_AllowListOrderAndFiltering(t *testing.T) {
	node := element("a", map[string]string{
		"href":       "/profile",
		"title":      "Your profile",
		"data-junk":  "ignored",
		"aria-label": "Profile",
		"class":      "nav-item", // not allow-listed
	})

	got := buildAttributesString(node, testIncludeAttributes, "")
	// Allow-list order, not markup or map order.
	assert.Equal(t, "title=Your profile aria-label=Profile href=/profile", got)
}

func TestBuildAttributes_EmptyResults(t *testing.T) {
	assert.Equal(t, "", buildAttributesString(element("div", nil), testIncludeAttributes, ""))
	assert.Equal(t, "", buildAttributesString(
		element("div", map[string]string{"data-x": "1", "class": "y"}), testIncludeAttributes, ""))
	assert.Equal(t, "", buildAttributesString(
		element("div", map[string]string{"title": "   "}), testIncludeAttributes, ""),
		"whitespace-only values are dropped")
}

func TestBuildAttributes_ValueCapping(t *testing.T) {
	long := strings.Repeat("z", 150)
	node := element("div", map[string]string{"title": long})
	got := buildAttributesString(node, testIncludeAttributes, "")
	assert.Equal(t, "title="+strings.Repeat("z", 100)+"...", got)
}

func TestBuildAttributes_ISOFormatInjection(t *testing.T) {
	tests := []struct {
		inputType string
		format    string
	}{
		{"date", "YYYY-MM-DD"},
		{"time", "HH:MM"},
		{"datetime-local", "YYYY-MM-DDTHH:MM"},
		{"month", "YYYY-MM"},
		{"week", "YYYY-W##"},
	}
	for _, tt := range tests {
		t.Run(tt.inputType, func(t *testing.T) {
			node := element("input", map[string]string{"type": tt.inputType})
			got := buildAttributesString(node, testIncludeAttributes, "")
			assert.Contains(t, got, "format="+tt.format)
			assert.Contains(t, got, "placeholder="+tt.format,
				"date-like inputs get the format as a placeholder too")
		})
	}
}

func TestBuildAttributes_PlaceholderInjectionRules(t *testing.T) {
	t.Run("ExistingPlaceholderWins", func(t *testing.T) {
		node := element("input", map[string]string{"type": "date", "placeholder": "pick a day"})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "placeholder=pick a day")
		assert.Contains(t, got, "format=YYYY-MM-DD", "format is still force-injected")
	})

	t.Run("PlaceholderNotInAllowListNotInjected", func(t *testing.T) {
		noPlaceholder := make([]string, 0, len(testIncludeAttributes))
		for _, k := range testIncludeAttributes {
			if k != "placeholder" {
				noPlaceholder = append(noPlaceholder, k)
			}
		}
		node := element("input", map[string]string{"type": "tel"})
		got := buildAttributesString(node, noPlaceholder, "")
		assert.NotContains(t, got, "placeholder=")
	})

	t.Run("TelWithoutPattern", func(t *testing.T) {
		node := element("input", map[string]string{"type": "tel"})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "placeholder=123-456-7890")
	})

	t.Run("TelWithPatternLeftAlone", func(t *testing.T) {
		node := element("input", map[string]string{"type": "tel", "pattern": `\d{10}`})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.NotContains(t, got, "placeholder=")
	})
}

func TestBuildAttributes_DatepickerDetection(t *testing.T) {
	t.Run("AngularUIBootstrapWins", func(t *testing.T) {
		node := element("input", map[string]string{
			"type":                  "text",
			"uib-datepicker-popup":  "dd-MMMM-yyyy",
			"class":                 "datepicker", // would match too, but uib is more specific
			"data-date-format":      "ignored",
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "expected_format=dd-MMMM-yyyy")
		assert.Contains(t, got, "format=dd-MMMM-yyyy")
	})

	t.Run("ClassBasedDatepickerWithExplicitFormat", func(t *testing.T) {
		node := element("input", map[string]string{
			"type":             "text",
			"class":            "form-control datetimepicker",
			"data-date-format": "dd/mm/yyyy",
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "placeholder=dd/mm/yyyy")
		assert.Contains(t, got, "format=dd/mm/yyyy")
	})

	t.Run("ClassBasedDatepickerDefaultFormat", func(t *testing.T) {
		node := element("input", map[string]string{
			"class": "daterangepicker", // untyped input counts as text
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "placeholder=mm/dd/yyyy")
	})

	t.Run("DataDatepickerAttribute", func(t *testing.T) {
		node := element("input", map[string]string{
			"type": "text", "data-datepicker": "",
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "format=mm/dd/yyyy")
	})

	t.Run("PlainTextInputUntouched", func(t *testing.T) {
		node := element("input", map[string]string{"type": "text", "name": "q"})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Equal(t, "name=q", got)
	})
}

func TestBuildAttributes_AXProperties(t *testing.T) {
	node := element("button", map[string]string{"name": "menu"})
	node.AX = &dom.AXNode{
		Role: "button",
		Properties: []dom.AXProperty{
			{Name: "expanded", Value: true},
			{Name: "keyshortcuts", Value: "Ctrl+M"}, // not allow-listed
			{Name: "invalid", Value: nil},           // undecodable, skipped
		},
	}
	got := buildAttributesString(node, testIncludeAttributes, "")
	assert.Equal(t, "name=menu expanded=true", got)
}

func TestBuildAttributes_LiveValueFromAX(t *testing.T) {
	t.Run("ValuetextPreferred", func(t *testing.T) {
		node := element("input", map[string]string{"type": "text", "value": "stale"})
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{
			{Name: "valuetext", Value: "typed by user"},
			{Name: "value", Value: "typed"},
		}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "value=typed by user")
		assert.NotContains(t, got, "value=stale")
	})

	t.Run("ValueFallback", func(t *testing.T) {
		node := element("textarea", nil)
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{{Name: "value", Value: "draft text"}}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "value=draft text")
	})

	t.Run("NonFormControlIgnoresAXValue", func(t *testing.T) {
		node := element("div", nil)
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{{Name: "valuetext", Value: "whatever"}}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.NotContains(t, got, "value=")
	})
}

func TestBuildAttributes_DuplicateValueDropping(t *testing.T) {
	t.Run("LaterDuplicateDropped", func(t *testing.T) {
		node := element("img", map[string]string{
			"title": "Company logotype",
			"alt":   "Company logotype",
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Equal(t, "title=Company logotype", got)
	})

	t.Run("ShortDuplicatesKept", func(t *testing.T) {
		node := element("img", map[string]string{"title": "logo", "alt": "logo"})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Equal(t, "title=logo alt=logo", got, "values of 5 characters or fewer never dedup")
	})

	t.Run("ProtectedKeysExempt", func(t *testing.T) {
		node := element("input", map[string]string{
			"title":       "Enter your email",
			"placeholder": "Enter your email",
		})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "title=Enter your email")
		assert.Contains(t, got, "placeholder=Enter your email")
	})
}

func TestBuildAttributes_RedundancyRules(t *testing.T) {
	t.Run("RoleMatchingTagDropped", func(t *testing.T) {
		node := element("button", map[string]string{"role": "button"})
		node.AX = &dom.AXNode{Role: "button"}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.NotContains(t, got, "role=")
	})

	t.Run("RoleKeptWhenAXDisagrees", func(t *testing.T) {
		node := element("div", map[string]string{"role": "button"})
		node.AX = &dom.AXNode{Role: "button"}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "role=button", "div!=button so role is informative")
	})

	t.Run("TypeMatchingTagDropped", func(t *testing.T) {
		node := element("button", map[string]string{"type": "button", "name": "save"})
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Equal(t, "name=save", got)
	})

	t.Run("InvalidFalseDropped", func(t *testing.T) {
		node := element("input", map[string]string{"type": "text", "name": "a"})
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{{Name: "invalid", Value: "false"}}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.NotContains(t, got, "invalid=")
	})

	t.Run("InvalidTrueKept", func(t *testing.T) {
		node := element("input", map[string]string{"type": "text"})
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{{Name: "invalid", Value: "true"}}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "invalid=true")
	})

	t.Run("RequiredFalsyDropped", func(t *testing.T) {
		for _, v := range []string{"false", "0", "no"} {
			node := element("input", map[string]string{"type": "text", "required": v})
			got := buildAttributesString(node, testIncludeAttributes, "")
			assert.NotContains(t, got, "required=", "required=%s is noise", v)
		}
	})

	t.Run("AriaExpandedYieldsToExpanded", func(t *testing.T) {
		node := element("button", map[string]string{"aria-expanded": "true"})
		node.AX = &dom.AXNode{Properties: []dom.AXProperty{{Name: "expanded", Value: true}}}
		got := buildAttributesString(node, testIncludeAttributes, "")
		assert.Contains(t, got, "expanded=true")
		assert.NotContains(t, got, "aria-expanded=")
	})

	t.Run("LabelRepeatingTextDropped", func(t *testing.T) {
		node := element("button", map[string]string{"aria-label": "Submit Order"})
		got := buildAttributesString(node, testIncludeAttributes, "submit order")
		assert.NotContains(t, got, "aria-label=")
	})

	t.Run("LabelDifferingFromTextKept", func(t *testing.T) {
		node := element("button", map[string]string{"aria-label": "Close dialog"})
		got := buildAttributesString(node, testIncludeAttributes, "X")
		assert.Contains(t, got, "aria-label=Close dialog")
	})
}

// FuzzBuildAttributesString asserts the builder never panics and stays
// deterministic, whatever attribute soup arrives.
func FuzzBuildAttributesString(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte("title=a type=b"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)

		attrs := make(map[string]string)
		if err := consumer.FuzzMap(&attrs); err != nil {
			return
		}
		tag, err := consumer.GetString()
		if err != nil {
			return
		}

		node := &dom.Node{
			Kind:       dom.KindElement,
			BackendID:  1,
			NodeID:     1,
			Tag:        strings.ToLower(tag),
			Attributes: attrs,
		}

		first := buildAttributesString(node, testIncludeAttributes, "")
		second := buildAttributesString(node, testIncludeAttributes, "")
		assert.Equal(t, first, second, "output must not depend on map iteration order")
	})
}
