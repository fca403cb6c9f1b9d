// internal/dom/serializer/index.go
package serializer

// assignInteractiveIndices decides which nodes are exposed as addressable
// interactive elements, records them in the selector map under their backend
// identifier, and flags nodes absent from the previous observation. Nodes
// excluded by a parent or ignored by paint order are skipped but their
// subtrees are still visited.
func (s *Serializer) assignInteractiveIndices(node *SimplifiedNode) {
	if node == nil {
		return
	}

	if !node.ExcludedByParent && !node.IgnoredByPaintOrder {
		isInteractive := s.isInteractiveCached(node.Node)
		isVisible := node.Node.IsVisible()
		isScrollable := node.Node.IsActuallyScrollable()

		makeInteractive := false
		if isScrollable {
			// A scrollable container becomes addressable only when it
			// offers no finer-grained targets of its own; otherwise the
			// panel and its contents would be double-exposed.
			makeInteractive = !s.hasInteractiveDescendants(node)
		} else if isInteractive && (isVisible || node.Node.IsFileInput()) {
			makeInteractive = true
		}

		if makeInteractive {
			node.IsInteractive = true
			s.selectorMap[node.Node.BackendID] = node.Node
			// The counter is liveness bookkeeping only; the backend
			// identifier is the address the agent uses.
			s.interactiveCounter++

			if node.IsCompoundComponent {
				// Synthesized children change run to run, so compound
				// controls are always surfaced as new.
				node.IsNew = true
			} else if s.previousMap != nil {
				if _, existed := s.previousMap[node.Node.BackendID]; !existed {
					node.IsNew = true
				}
			}
		}
	}

	for _, child := range node.Children {
		s.assignInteractiveIndices(child)
	}
}

// hasInteractiveDescendants reports whether any descendant of node (not the
// node itself) is interactive.
func (s *Serializer) hasInteractiveDescendants(node *SimplifiedNode) bool {
	for _, child := range node.Children {
		if s.isInteractiveCached(child.Node) {
			return true
		}
		if s.hasInteractiveDescendants(child) {
			return true
		}
	}
	return false
}
