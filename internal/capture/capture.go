// internal/capture/capture.go

// Package capture acquires raw page snapshots over the Chrome DevTools
// Protocol and adapts them into the node model the serializer consumes. It
// merges three CDP views of the page: the pierced DOM tree (structure,
// attributes, shadow roots, frame documents), the DOM snapshot (layout
// geometry, computed visibility, paint order), and the accessibility tree.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagelens/internal/config"
	"github.com/xkilldash9x/pagelens/internal/dom"
)

// computedStyles are the style properties requested from the DOM snapshot;
// they are what visibility is derived from.
var computedStyles = []string{"display", "visibility", "opacity"}

// Capturer drives a headless browser to produce snapshot trees.
type Capturer struct {
	logger *zap.Logger
	cfg    config.CaptureConfig
}

// New creates a capturer.
func New(logger *zap.Logger, cfg config.CaptureConfig) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.SetDefaults()
	return &Capturer{logger: logger.Named("capture"), cfg: cfg}
}

// Capture navigates to url and returns one immutable snapshot of the
// rendered page. sessionID is recorded on the snapshot so the serializer
// honors the matching session-scoped exclusion attribute.
func (c *Capturer) Capture(ctx context.Context, url, sessionID string) (*dom.Snapshot, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.WindowSize(c.cfg.ViewportWidth, c.cfg.ViewportHeight),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, c.cfg.NavigationTimeout)
	defer cancelNav()

	var title string
	var root *cdp.Node
	var layouts map[cdp.BackendNodeID]*dom.Layout
	var axNodes map[cdp.BackendNodeID]*dom.AXNode

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(c.cfg.PostLoadWait),
		chromedp.Title(&title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			root, err = cdpdom.GetDocument().WithDepth(-1).WithPierce(true).Do(ctx)
			if err != nil {
				return fmt.Errorf("fetching DOM tree: %w", err)
			}
			layouts, err = c.collectLayouts(ctx)
			if err != nil {
				return fmt.Errorf("capturing layout snapshot: %w", err)
			}
			axNodes, err = c.collectAXTree(ctx)
			if err != nil {
				// Accessibility data is enriching, not load-bearing;
				// missing data degrades the output rather than the run.
				c.logger.Warn("Accessibility tree unavailable", zap.Error(err))
				axNodes = nil
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", url, err)
	}

	node := convertNode(root, layouts, axNodes)
	if node == nil {
		return nil, fmt.Errorf("page %s produced an empty tree", url)
	}

	c.logger.Info("Captured snapshot",
		zap.String("url", url),
		zap.String("title", title),
		zap.Int("layoutNodes", len(layouts)),
	)
	return &dom.Snapshot{
		URL:        url,
		Title:      title,
		CapturedAt: time.Now().UTC().Format(time.RFC3339),
		SessionID:  sessionID,
		Root:       node,
	}, nil
}

// collectLayouts flattens the DOM snapshot's layout table into per-backend-id
// layout records.
func (c *Capturer) collectLayouts(ctx context.Context) (map[cdp.BackendNodeID]*dom.Layout, error) {
	documents, stringTable, err := domsnapshot.CaptureSnapshot(computedStyles).
		WithIncludePaintOrder(true).
		WithIncludeDOMRects(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	layouts := make(map[cdp.BackendNodeID]*dom.Layout)
	for _, doc := range documents {
		if doc.Nodes == nil || doc.Layout == nil {
			continue
		}
		for i, nodeIndex := range doc.Layout.NodeIndex {
			if nodeIndex < 0 || int(nodeIndex) >= len(doc.Nodes.BackendNodeID) {
				continue
			}
			backendID := doc.Nodes.BackendNodeID[nodeIndex]
			layout := &dom.Layout{Visible: true}

			if i < len(doc.Layout.Bounds) {
				if rect := toRect(doc.Layout.Bounds[i]); rect != nil {
					layout.Bounds = rect
				}
			}
			if i < len(doc.Layout.PaintOrders) {
				layout.PaintOrder = doc.Layout.PaintOrders[i]
			}
			if i < len(doc.Layout.Styles) {
				styles := make([]domsnapshot.StringIndex, len(doc.Layout.Styles[i]))
				for j, s := range doc.Layout.Styles[i] {
					styles[j] = domsnapshot.StringIndex(s)
				}
				layout.Visible = stylesVisible(styles, stringTable)
			}
			if layout.Bounds == nil || layout.Bounds.Area() == 0 {
				layout.Visible = false
			}
			if i < len(doc.Layout.ClientRects) {
				if rect := toRect(doc.Layout.ClientRects[i]); rect != nil {
					layout.ClientWidth = rect.Width
					layout.ClientHeight = rect.Height
				}
			}
			if i < len(doc.Layout.ScrollRects) {
				if rect := toRect(doc.Layout.ScrollRects[i]); rect != nil {
					layout.ScrollWidth = rect.Width
					layout.ScrollHeight = rect.Height
					// The scroll rect origin is the negated scroll offset.
					layout.ScrollLeft = max(0, -rect.X)
					layout.ScrollTop = max(0, -rect.Y)
				}
			}
			layout.Scrollable = layout.ScrollHeight > layout.ClientHeight+1 ||
				layout.ScrollWidth > layout.ClientWidth+1

			layouts[backendID] = layout
		}
	}
	return layouts, nil
}

// collectAXTree indexes the full accessibility tree by backing DOM node.
func (c *Capturer) collectAXTree(ctx context.Context) (map[cdp.BackendNodeID]*dom.AXNode, error) {
	nodes, err := accessibility.GetFullAXTree().Do(ctx)
	if err != nil {
		return nil, err
	}

	axNodes := make(map[cdp.BackendNodeID]*dom.AXNode, len(nodes))
	for _, n := range nodes {
		if n == nil || n.BackendDOMNodeID == 0 || n.Ignored {
			continue
		}
		ax := &dom.AXNode{Role: axValueString(n.Role)}
		for _, prop := range n.Properties {
			if prop == nil || prop.Value == nil {
				continue
			}
			// A property whose value fails to decode is skipped; it must
			// not abort the node.
			value := axValueAny(prop.Value)
			if value == nil {
				continue
			}
			ax.Properties = append(ax.Properties, dom.AXProperty{
				Name:  string(prop.Name),
				Value: value,
			})
		}
		for i, childID := range n.ChildIDs {
			if id, err := strconv.ParseInt(string(childID), 10, 64); err == nil {
				ax.ChildIDs = append(ax.ChildIDs, id)
			} else {
				ax.ChildIDs = append(ax.ChildIDs, int64(i))
			}
		}
		axNodes[n.BackendDOMNodeID] = ax
	}
	return axNodes, nil
}

// convertNode maps a pierced CDP node (plus the layout and AX indexes) into
// the serializer's node model.
func convertNode(n *cdp.Node, layouts map[cdp.BackendNodeID]*dom.Layout, axNodes map[cdp.BackendNodeID]*dom.AXNode) *dom.Node {
	if n == nil {
		return nil
	}

	var kind dom.NodeKind
	switch n.NodeType {
	case cdp.NodeTypeDocument:
		kind = dom.KindDocument
	case cdp.NodeTypeDocumentFragment:
		kind = dom.KindFragment
	case cdp.NodeTypeElement:
		kind = dom.KindElement
	case cdp.NodeTypeText:
		kind = dom.KindText
	default:
		return nil
	}

	node := &dom.Node{
		Kind:      kind,
		BackendID: int64(n.BackendNodeID),
		NodeID:    int64(n.NodeID),
	}
	switch kind {
	case dom.KindElement:
		node.Tag = strings.ToLower(n.NodeName)
		if len(n.Attributes) > 1 {
			node.Attributes = make(map[string]string, len(n.Attributes)/2)
			for i := 0; i+1 < len(n.Attributes); i += 2 {
				node.Attributes[n.Attributes[i]] = n.Attributes[i+1]
			}
		}
	case dom.KindText:
		node.Value = n.NodeValue
	case dom.KindFragment:
		node.ShadowRootType = strings.ToLower(string(n.ShadowRootType))
	}

	if layout, ok := layouts[n.BackendNodeID]; ok {
		node.Layout = layout
	}
	if ax, ok := axNodes[n.BackendNodeID]; ok {
		node.AX = ax
	}

	for _, child := range n.Children {
		if converted := convertNode(child, layouts, axNodes); converted != nil {
			node.Children = append(node.Children, converted)
		}
	}
	for _, shadowRoot := range n.ShadowRoots {
		if converted := convertNode(shadowRoot, layouts, axNodes); converted != nil {
			node.ShadowRoots = append(node.ShadowRoots, converted)
		}
	}
	if n.ContentDocument != nil {
		node.ContentDocument = convertNode(n.ContentDocument, layouts, axNodes)
	}
	return node
}

func toRect(r domsnapshot.Rectangle) *dom.Rect {
	if len(r) < 4 {
		return nil
	}
	return &dom.Rect{X: r[0], Y: r[1], Width: r[2], Height: r[3]}
}

// stylesVisible derives visibility from the requested computed styles,
// which arrive as indexes into the snapshot string table in the same order
// as computedStyles.
func stylesVisible(styleIndexes []domsnapshot.StringIndex, stringTable []string) bool {
	lookup := func(i int) string {
		if i >= len(styleIndexes) {
			return ""
		}
		idx := int(styleIndexes[i])
		if idx < 0 || idx >= len(stringTable) {
			return ""
		}
		return stringTable[idx]
	}
	display, visibility, opacity := lookup(0), lookup(1), lookup(2)
	if display == "none" || visibility == "hidden" || visibility == "collapse" {
		return false
	}
	if opacity != "" {
		if f, err := strconv.ParseFloat(opacity, 64); err == nil && f == 0 {
			return false
		}
	}
	return true
}

func axValueString(v *accessibility.Value) string {
	value := axValueAny(v)
	switch t := value.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func axValueAny(v *accessibility.Value) any {
	if v == nil || len(v.Value) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(v.Value, &out); err != nil {
		return nil
	}
	return out
}
