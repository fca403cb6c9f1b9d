// internal/dom/htmlparse.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML builds a node tree from static HTML markup. It exists for
// fixtures and offline runs: with no live browser there is no real paint
// geometry, so every laid-out element gets a plain visible snapshot and
// backend identifiers are minted sequentially. Elements carrying the
// `hidden` attribute (and `<input type="hidden">`) are marked not visible.
func ParseHTML(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	var nextID int64 = 1
	root := convertHTMLNode(doc, &nextID)
	if root == nil {
		return nil, fmt.Errorf("html document produced no nodes")
	}
	return root, nil
}

// ParseHTMLString is a convenience wrapper around ParseHTML.
func ParseHTMLString(markup string) (*Node, error) {
	return ParseHTML(strings.NewReader(markup))
}

func convertHTMLNode(n *html.Node, nextID *int64) *Node {
	switch n.Type {
	case html.DocumentNode:
		id := mintID(nextID)
		node := &Node{Kind: KindDocument, BackendID: id, NodeID: id}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertHTMLNode(c, nextID); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	case html.ElementNode:
		id := mintID(nextID)
		node := &Node{
			Kind:       KindElement,
			BackendID:  id,
			NodeID:     id,
			Tag:        strings.ToLower(n.Data),
			Attributes: make(map[string]string, len(n.Attr)),
		}
		for _, attr := range n.Attr {
			node.Attributes[attr.Key] = attr.Val
		}
		node.Layout = &Layout{Visible: htmlElementVisible(node)}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertHTMLNode(c, nextID); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		id := mintID(nextID)
		return &Node{
			Kind:      KindText,
			BackendID: id,
			NodeID:    id,
			Value:     n.Data,
			Layout:    &Layout{Visible: true},
		}
	default:
		// Comments and doctypes carry nothing the pipeline can use.
		return nil
	}
}

func htmlElementVisible(n *Node) bool {
	if n.HasAttr("hidden") {
		return false
	}
	if n.Tag == "input" && n.Attr("type") == "hidden" {
		return false
	}
	return true
}

func mintID(next *int64) int64 {
	id := *next
	*next++
	return id
}
