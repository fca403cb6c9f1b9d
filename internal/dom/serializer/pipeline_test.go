// internal/dom/serializer/pipeline_test.go
package serializer_test

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagelens/internal/config"
	"github.com/xkilldash9x/pagelens/internal/dom"
	"github.com/xkilldash9x/pagelens/internal/dom/clickable"
	"github.com/xkilldash9x/pagelens/internal/dom/paintorder"
	"github.com/xkilldash9x/pagelens/internal/dom/serializer"
)

func newPipeline(t *testing.T, cfg serializer.Config) *serializer.Serializer {
	t.Helper()
	return serializer.New(zaptest.NewLogger(t), cfg, clickable.New(), paintorder.New())
}

// addressTokens extracts every backend id referenced by an [id] token in the
// rendered text, new-marked or not.
var addressTokens = regexp.MustCompile(`\*?(?:\|SCROLL)?\[(\d+)\]<`)

func renderedIDs(t *testing.T, text string) map[int64]struct{} {
	t.Helper()
	ids := make(map[int64]struct{})
	for _, match := range addressTokens.FindAllStringSubmatch(text, -1) {
		id, err := strconv.ParseInt(match[1], 10, 64)
		require.NoError(t, err)
		ids[id] = struct{}{}
	}
	return ids
}

const loginPage = `<html><head><title>Login</title></head><body>
	<h1>Welcome back</h1>
	<form action="/session">
		<input type="text" name="user" placeholder="Username">
		<input type="password" name="pass">
		<button type="submit">Sign in</button>
	</form>
	<a href="/reset">Forgot password?</a>
	<input type="hidden" name="csrf" value="tok123">
</body></html>`

func TestPipeline_EndToEnd(t *testing.T) {
	root, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)

	ser := newPipeline(t, serializer.Config{})
	state, timing := ser.Serialize(root, nil)
	require.NotNil(t, state)
	require.NotNil(t, state.Root)

	text := serializer.Render(state.Root, config.DefaultIncludeAttributes)

	// The visible interactive targets are addressed, the hidden csrf input
	// is not, and the heading text survives as plain content.
	assert.Contains(t, text, "Welcome back")
	assert.Contains(t, text, "]<input type=text name=user placeholder=Username />")
	assert.Contains(t, text, "]<input type=password name=pass />")
	assert.Contains(t, text, "]<button type=submit />")
	assert.Contains(t, text, "]<a href=/reset />")
	assert.NotContains(t, text, "csrf")

	assert.Len(t, state.SelectorMap, 4)

	for _, key := range []string{
		"create_simplified_tree", "calculate_paint_order", "optimize_tree",
		"bbox_filtering", "assign_interactive_indices", "serialize_total",
	} {
		assert.Contains(t, timing, key)
	}
}

// Every address printed in the text must resolve through the selector map,
// and every selector map entry must be printable.
func TestPipeline_AddressTableMatchesRendering(t *testing.T) {
	root, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)

	state, _ := newPipeline(t, serializer.Config{}).Serialize(root, nil)
	text := serializer.Render(state.Root, config.DefaultIncludeAttributes)

	printed := renderedIDs(t, text)
	require.NotEmpty(t, printed)
	assert.Len(t, printed, len(state.SelectorMap))
	for id := range printed {
		node, ok := state.SelectorMap[id]
		require.True(t, ok, "rendered address %d missing from selector map", id)
		require.NotNil(t, node)
		assert.Equal(t, id, node.BackendID)
	}
}

func TestPipeline_SecondObservationMarksNothingNew(t *testing.T) {
	first, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)
	second, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)

	ser := newPipeline(t, serializer.Config{})
	firstState, _ := ser.Serialize(first, nil)
	secondState, _ := ser.Serialize(second, firstState)

	text := serializer.Render(secondState.Root, config.DefaultIncludeAttributes)
	assert.NotContains(t, text, "*[",
		"identical page with identical backend ids has nothing new")
}

func TestPipeline_AddedElementIsMarkedNew(t *testing.T) {
	first, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)
	ser := newPipeline(t, serializer.Config{})
	firstState, _ := ser.Serialize(first, nil)

	// The same page grows a dialog; its elements get ids the baseline never
	// saw, while the original ids stay stable.
	second, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)
	dialogBtn := &dom.Node{
		Kind:       dom.KindElement,
		BackendID:  90001,
		NodeID:     90001,
		Tag:        "button",
		Attributes: map[string]string{"aria-label": "Dismiss"},
		Layout:     &dom.Layout{Visible: true, Bounds: &dom.Rect{X: 500, Y: 200, Width: 40, Height: 40}},
	}
	body := findTag(second, "body")
	require.NotNil(t, body)
	body.Children = append(body.Children, dialogBtn)

	secondState, _ := ser.Serialize(second, firstState)
	text := serializer.Render(secondState.Root, config.DefaultIncludeAttributes)

	assert.Contains(t, text, "*[90001]<button aria-label=Dismiss />")
	// Pre-existing elements carry no marker.
	assert.Equal(t, 1, strings.Count(text, "*["))
}

func TestPipeline_FirstRunWithoutBaselineHasNoNewMarkers(t *testing.T) {
	root, err := dom.ParseHTMLString(loginPage)
	require.NoError(t, err)

	state, _ := newPipeline(t, serializer.Config{}).Serialize(root, nil)
	text := serializer.Render(state.Root, config.DefaultIncludeAttributes)
	assert.NotContains(t, text, "*[")
}

func TestPipeline_HiddenFileInputSurvivesEndToEnd(t *testing.T) {
	page := `<body>
		<button onclick="pick()">Upload a file</button>
		<input type="file" name="doc" hidden>
	</body>`
	root, err := dom.ParseHTMLString(page)
	require.NoError(t, err)

	state, _ := newPipeline(t, serializer.Config{}).Serialize(root, nil)
	text := serializer.Render(state.Root, config.DefaultIncludeAttributes)

	assert.Contains(t, text, "]<input type=file name=doc")
	assert.Contains(t, text, "compound_components=(name=Browse Files,role=button),(name=File Selected,role=textbox,current=None)")

	var fileInput *dom.Node
	for _, node := range state.SelectorMap {
		if node.IsFileInput() {
			fileInput = node
		}
	}
	require.NotNil(t, fileInput, "the hidden picker must be addressable")
	assert.False(t, fileInput.IsVisible())
}

func TestPipeline_CompoundControlsAlwaysNew(t *testing.T) {
	page := `<body><input type="range" min="10" max="50" name="volume"></body>`
	first, err := dom.ParseHTMLString(page)
	require.NoError(t, err)
	second, err := dom.ParseHTMLString(page)
	require.NoError(t, err)

	ser := newPipeline(t, serializer.Config{})
	firstState, _ := ser.Serialize(first, nil)
	secondState, _ := ser.Serialize(second, firstState)

	text := serializer.Render(secondState.Root, config.DefaultIncludeAttributes)
	assert.Contains(t, text, "*[")
	assert.Contains(t, text, "compound_components=(name=Value,role=slider,min=10,max=50)")
}

func TestPipeline_SessionExclusionEndToEnd(t *testing.T) {
	page := `<body>
		<button>Keep me</button>
		<div data-pagelens-exclude-sess42="true"><button>Drop me</button></div>
	</body>`
	root, err := dom.ParseHTMLString(page)
	require.NoError(t, err)

	state, _ := newPipeline(t, serializer.Config{SessionID: "sess42"}).Serialize(root, nil)
	text := serializer.Render(state.Root, config.DefaultIncludeAttributes)

	assert.Contains(t, text, "Keep me")
	assert.NotContains(t, text, "Drop me")
	assert.Len(t, state.SelectorMap, 1)
}

func TestPipeline_OcclusionRemovesCoveredSiblings(t *testing.T) {
	// A modal overlay paints over the page button; the covered button loses
	// its address, the overlay's own button keeps one.
	pageButton := visibleElement(1, "button", nil, dom.Rect{X: 10, Y: 10, Width: 100, Height: 30}, 1)
	overlayButton := visibleElement(3, "button", map[string]string{"aria-label": "Accept"},
		dom.Rect{X: 300, Y: 300, Width: 100, Height: 30}, 11)
	overlay := visibleElement(2, "div", map[string]string{"role": "dialog"},
		dom.Rect{X: 0, Y: 0, Width: 1280, Height: 900}, 10)
	overlay.Children = []*dom.Node{overlayButton}
	body := visibleElement(4, "body", nil, dom.Rect{X: 0, Y: 0, Width: 1280, Height: 900}, 0)
	body.Children = []*dom.Node{pageButton, overlay}

	state, _ := newPipeline(t, serializer.Config{}).Serialize(body, nil)

	assert.NotContains(t, state.SelectorMap, int64(1), "the covered button is not a reachable target")
	assert.Contains(t, state.SelectorMap, int64(3))
}

func TestPipeline_OcclusionCanBeDisabled(t *testing.T) {
	pageButton := visibleElement(1, "button", nil, dom.Rect{X: 10, Y: 10, Width: 100, Height: 30}, 1)
	overlay := visibleElement(2, "div", nil, dom.Rect{X: 0, Y: 0, Width: 1280, Height: 900}, 10)
	overlay.Children = []*dom.Node{visibleElement(3, "span", nil, dom.Rect{}, 0), textNode(4, "overlay text")}
	body := visibleElement(5, "body", nil, dom.Rect{X: 0, Y: 0, Width: 1280, Height: 900}, 0)
	body.Children = []*dom.Node{pageButton, overlay}

	disabled := false
	state, _ := newPipeline(t, serializer.Config{PaintOrderFiltering: &disabled}).Serialize(body, nil)
	assert.Contains(t, state.SelectorMap, int64(1))
}

func TestPipeline_ContainmentCanBeDisabled(t *testing.T) {
	// A focusable span fully inside its button is a redundant target; with
	// the containment stage off it gets its own address again.
	run := func(cfg serializer.Config) serializer.SelectorMap {
		icon := visibleElement(2, "span", map[string]string{"tabindex": "0"},
			dom.Rect{X: 4, Y: 4, Width: 20, Height: 20}, 0)
		icon.Children = []*dom.Node{textNode(3, "icon glyph")}
		button := visibleElement(1, "button", nil, dom.Rect{X: 0, Y: 0, Width: 120, Height: 40}, 0)
		button.Children = []*dom.Node{icon}

		state, _ := newPipeline(t, cfg).Serialize(button, nil)
		return state.SelectorMap
	}

	withFiltering := run(serializer.Config{})
	assert.Contains(t, withFiltering, int64(1))
	assert.NotContains(t, withFiltering, int64(2),
		"the focusable span collapses into the button")

	disabled := false
	withoutFiltering := run(serializer.Config{BBoxFiltering: &disabled})
	assert.Contains(t, withoutFiltering, int64(2))
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg serializer.Config
	cfg.SetDefaults()
	require.NotNil(t, cfg.BBoxFiltering)
	require.NotNil(t, cfg.PaintOrderFiltering)
	assert.True(t, *cfg.BBoxFiltering)
	assert.True(t, *cfg.PaintOrderFiltering)
	assert.Equal(t, serializer.DefaultContainmentThreshold, cfg.ContainmentThreshold)

	// Out-of-range thresholds snap back to the default.
	cfg = serializer.Config{ContainmentThreshold: 1.5}
	cfg.SetDefaults()
	assert.Equal(t, serializer.DefaultContainmentThreshold, cfg.ContainmentThreshold)

	// Explicit choices survive.
	off := false
	cfg = serializer.Config{BBoxFiltering: &off, ContainmentThreshold: 0.8}
	cfg.SetDefaults()
	assert.False(t, *cfg.BBoxFiltering)
	assert.Equal(t, 0.8, cfg.ContainmentThreshold)
}

// -- fixture helpers --

func findTag(node *dom.Node, tag string) *dom.Node {
	if node == nil {
		return nil
	}
	if node.Kind == dom.KindElement && node.Tag == tag {
		return node
	}
	for _, child := range node.Children {
		if found := findTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func visibleElement(id int64, tag string, attrs map[string]string, bounds dom.Rect, paintOrder int64) *dom.Node {
	layout := &dom.Layout{Visible: true, PaintOrder: paintOrder}
	if bounds != (dom.Rect{}) {
		layout.Bounds = &bounds
	}
	return &dom.Node{
		Kind:       dom.KindElement,
		BackendID:  id,
		NodeID:     id,
		Tag:        tag,
		Attributes: attrs,
		Layout:     layout,
	}
}

func textNode(id int64, value string) *dom.Node {
	return &dom.Node{
		Kind:      dom.KindText,
		BackendID: id,
		NodeID:    id,
		Value:     value,
		Layout:    &dom.Layout{Visible: true},
	}
}
