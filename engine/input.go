package engine

import (
	"github.com/teranos/wander/physics"
	"github.com/teranos/wander/trail"
	"github.com/teranos/wander/viewport"
)

// Input is a request applied at the next tick boundary. Inputs are drained
// in arrival order before the trail grows, so a visit batch and the active
// title that frames it land in the same tick.
type Input interface {
	isInput()
}

// VisitInput appends visits to the engine's accumulated history.
type VisitInput struct {
	Visits []trail.Visit
}

// NeighborsInput merges per-ref neighbor lists into the engine's similarity
// map. Each key replaces its previous list wholesale.
type NeighborsInput struct {
	Similar trail.SimilarityMap
}

// ActiveInput sets the active title the next growth attaches under. An empty
// title clears it, falling back to the root.
type ActiveInput struct {
	Title string
}

// SelectInput reports a user clicking a rendered node. The engine invokes
// the select callback and nothing else; the owner decides whether the
// selection becomes the new active title.
type SelectInput struct {
	NodeID trail.NodeID
}

// PanInput is a user drag in screen pixels.
type PanInput struct {
	DX, DY float64
}

// ZoomInput is a user wheel zoom about a screen point.
type ZoomInput struct {
	X, Y   float64
	Factor float64
}

// ResetViewInput returns the camera to scale 1 on the root.
type ResetViewInput struct{}

// FitDepthInput zooms so the current tree depth fits the viewport.
type FitDepthInput struct{}

// GlideInput pans the camera to a node set. Unresolvable handles are
// dropped; an empty resolution falls back to the root. A nil DelayMS uses
// the configured default.
type GlideInput struct {
	Nodes   []trail.NodeID
	DelayMS *int
}

// RetryInput clears an engine fault so ticking resumes.
type RetryInput struct{}

// TuneInput hot-swaps physics and viewport settings between ticks.
type TuneInput struct {
	Physics  physics.Tuning
	Viewport viewport.Config
}

func (VisitInput) isInput()     {}
func (NeighborsInput) isInput() {}
func (ActiveInput) isInput()    {}
func (SelectInput) isInput()    {}
func (PanInput) isInput()       {}
func (ZoomInput) isInput()      {}
func (ResetViewInput) isInput() {}
func (FitDepthInput) isInput()  {}
func (GlideInput) isInput()     {}
func (RetryInput) isInput()     {}
func (TuneInput) isInput()      {}
