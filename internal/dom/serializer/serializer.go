// internal/dom/serializer/serializer.go

// Package serializer converts a captured page tree into a compact, indexed
// textual form an LLM-driven agent can read and act on. The pipeline runs
// six stages strictly forward: simplification, occlusion annotation,
// structural optimization, bounding-box containment collapsing, interactive
// index assignment with cross-run diffing, and text rendering.
package serializer

import (
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagelens/internal/dom"
)

// DefaultContainmentThreshold is the containment ratio at which a child is
// considered fully covered by a propagating ancestor.
const DefaultContainmentThreshold = 0.99

// InteractiveDetector is the clickability oracle: a pure predicate over raw
// nodes. The serializer calls it at most once per node per run.
type InteractiveDetector interface {
	IsInteractive(node *dom.Node) bool
}

// OcclusionAnnotator marks simplified nodes whose painted pixels are fully
// covered by later-stacked siblings by setting IgnoredByPaintOrder in place.
type OcclusionAnnotator interface {
	Annotate(root *SimplifiedNode)
}

// Config holds the per-serializer policy switches.
type Config struct {
	// BBoxFiltering toggles the containment-collapse stage. Pointer so an
	// unset value means "enabled" rather than "disabled".
	BBoxFiltering *bool `mapstructure:"bboxFiltering"`
	// ContainmentThreshold is the coverage ratio in (0,1] above which a
	// contained child is collapsed into its propagating ancestor.
	ContainmentThreshold float64 `mapstructure:"containmentThreshold"`
	// PaintOrderFiltering toggles the occlusion stage.
	PaintOrderFiltering *bool `mapstructure:"paintOrderFiltering"`
	// SessionID parametrizes the session-specific exclusion attribute
	// data-pagelens-exclude-<session>.
	SessionID string `mapstructure:"sessionId"`
}

// SetDefaults applies default values for anything unset.
func (c *Config) SetDefaults() {
	if c.BBoxFiltering == nil {
		enabled := true
		c.BBoxFiltering = &enabled
	}
	if c.PaintOrderFiltering == nil {
		enabled := true
		c.PaintOrderFiltering = &enabled
	}
	if c.ContainmentThreshold <= 0 || c.ContainmentThreshold > 1 {
		c.ContainmentThreshold = DefaultContainmentThreshold
	}
}

// Serializer runs the pipeline over one snapshot tree. All mutable state is
// scoped to the instance and reset at the start of Serialize, so a single
// instance must not be shared across overlapping runs; independent snapshots
// processed concurrently need one instance each.
type Serializer struct {
	logger   *zap.Logger
	cfg      Config
	detector InteractiveDetector
	occluder OcclusionAnnotator

	// Run-scoped state, reset by Serialize.
	interactiveCounter int
	selectorMap        SelectorMap
	previousMap        SelectorMap
	clickableCache     map[int64]bool
	timing             map[string]time.Duration
}

// New creates a serializer. A nil logger falls back to a no-op logger; the
// detector and annotator are required collaborators.
func New(logger *zap.Logger, cfg Config, detector InteractiveDetector, occluder OcclusionAnnotator) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.SetDefaults()
	return &Serializer{
		logger:   logger.Named("serializer"),
		cfg:      cfg,
		detector: detector,
		occluder: occluder,
	}
}

// Serialize runs the full pipeline over root. previous, when non-nil, is the
// prior observation's result and is only read to flag nodes that did not
// exist last time. It returns the filtered tree with its address table and a
// per-stage timing map (diagnostic only).
func (s *Serializer) Serialize(root *dom.Node, previous *SerializedState) (*SerializedState, map[string]time.Duration) {
	startTotal := time.Now()

	// Reset run state.
	s.interactiveCounter = 1
	s.selectorMap = make(SelectorMap)
	s.clickableCache = make(map[int64]bool)
	s.timing = make(map[string]time.Duration)
	s.previousMap = nil
	if previous != nil {
		s.previousMap = previous.SelectorMap
	}

	// Stage 1: simplified tree (includes compound component synthesis).
	start := time.Now()
	simplified := s.createSimplifiedTree(root)
	s.timing["create_simplified_tree"] = time.Since(start)

	// Stage 2: occlusion annotation. Must run on the full candidate set,
	// before structural pruning removes geometric context.
	start = time.Now()
	if *s.cfg.PaintOrderFiltering && simplified != nil && s.occluder != nil {
		s.occluder.Annotate(simplified)
	}
	s.timing["calculate_paint_order"] = time.Since(start)

	// Stage 3: structural optimization.
	start = time.Now()
	optimized := s.optimizeTree(simplified)
	s.timing["optimize_tree"] = time.Since(start)

	// Stage 4: bounding-box containment collapsing.
	filtered := optimized
	if *s.cfg.BBoxFiltering && optimized != nil {
		start = time.Now()
		filtered = s.applyBoundingBoxFiltering(optimized)
		s.timing["bbox_filtering"] = time.Since(start)
	}

	// Stage 5: interactive index assignment and novelty marking.
	start = time.Now()
	s.assignInteractiveIndices(filtered)
	s.timing["assign_interactive_indices"] = time.Since(start)

	s.timing["serialize_total"] = time.Since(startTotal)

	return &SerializedState{Root: filtered, SelectorMap: s.selectorMap}, s.timing
}

// isInteractiveCached memoizes the clickability oracle per node identity.
func (s *Serializer) isInteractiveCached(node *dom.Node) bool {
	if result, ok := s.clickableCache[node.NodeID]; ok {
		return result
	}
	start := time.Now()
	result := s.detector != nil && s.detector.IsInteractive(node)
	s.timing["clickable_detection_time"] += time.Since(start)
	s.clickableCache[node.NodeID] = result
	return result
}
