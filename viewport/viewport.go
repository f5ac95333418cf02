// Package viewport owns the pan/zoom transform over a trail and the
// programmatic camera moves that frame it: centering the root, zooming to fit
// the tree's depth, and gliding to freshly grown nodes. All scheduling is
// tick-relative; the engine goroutine drives Tick and no timers run
// elsewhere. User pan/zoom always wins: it mutates the transform directly
// and cancels whatever programmatic move is pending or in flight.
package viewport

import (
	"time"

	"github.com/teranos/wander/internal/util"
	"github.com/teranos/wander/trail"
)

// Config carries the viewport's geometry and motion knobs. The engine maps
// am's viewport section into this.
type Config struct {
	// Width and Height are the logical viewport size in pixels
	Width  float64
	Height float64
	// MinZoom and MaxZoom bound every computed and user-driven scale
	MinZoom float64
	MaxZoom float64
	// EdgeLength is the per-generation height estimate used by FitDepth
	EdgeLength float64
	// FitPadding is the margin FitDepth keeps above and below the tree
	FitPadding float64
	// GlideDuration is the fixed length of every programmatic move; 0 snaps
	GlideDuration time.Duration
	// GlideDelay is the default wait before a glide begins
	GlideDelay time.Duration
}

// DefaultConfig mirrors the shipped am defaults.
func DefaultConfig() Config {
	return Config{
		Width:         1280,
		Height:        800,
		MinZoom:       0.2,
		MaxZoom:       2.5,
		EdgeLength:    120,
		FitPadding:    80,
		GlideDuration: 750 * time.Millisecond,
		GlideDelay:    time.Second,
	}
}

// pendingMove is a scheduled programmatic transition that has not begun.
// The destination is resolved when the delay elapses, so a glide lands on
// where the nodes are then, not where they were when it was requested.
type pendingMove struct {
	at      time.Time
	resolve func() Transform
}

// activeMove is a transition mid-flight.
type activeMove struct {
	from, to Transform
	start    time.Time
	duration time.Duration
}

// Controller holds the transform and at most one pending plus one active
// programmatic move. It is not safe for concurrent use; the tick loop owns
// it.
type Controller struct {
	cfg       Config
	transform Transform
	pending   *pendingMove
	active    *activeMove
}

// NewController returns a controller at the identity transform.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, transform: Identity()}
}

// Transform returns the current pan/zoom state.
func (c *Controller) Transform() Transform {
	return c.transform
}

// SetConfig replaces the geometry and motion knobs. The current transform is
// left alone; new bounds apply to future zooms and moves.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg
}

// Size returns the configured viewport dimensions.
func (c *Controller) Size() (w, h float64) {
	return c.cfg.Width, c.cfg.Height
}

// DefaultGlideDelay returns the configured wait before a glide begins.
func (c *Controller) DefaultGlideDelay() time.Duration {
	return c.cfg.GlideDelay
}

// InMotion reports whether a programmatic move is pending or in flight.
func (c *Controller) InMotion() bool {
	return c.pending != nil || c.active != nil
}

// Tick advances transitions. A pending move whose delay has elapsed resolves
// its destination and starts; an active move eases toward its target and
// snaps onto it when its duration runs out.
func (c *Controller) Tick(now time.Time) {
	if c.pending != nil && !now.Before(c.pending.at) {
		c.active = &activeMove{
			from:     c.transform,
			to:       c.pending.resolve(),
			start:    now,
			duration: c.cfg.GlideDuration,
		}
		c.pending = nil
	}
	if c.active == nil {
		return
	}
	elapsed := now.Sub(c.active.start)
	if c.active.duration <= 0 || elapsed >= c.active.duration {
		c.transform = c.active.to
		c.active = nil
		return
	}
	p := easeInOutCubic(float64(elapsed) / float64(c.active.duration))
	c.transform = lerpTransform(c.active.from, c.active.to, p)
}

// CenterOnRoot schedules an immediate move putting the root at the viewport
// center at scale 1.
func (c *Controller) CenterOnRoot(root *trail.Node, now time.Time) {
	if root == nil {
		return
	}
	c.schedule(now, 0, func() Transform {
		return c.centeredOn(root.Pos, 1)
	})
}

// ScaleForDepth computes the zoom that fits a tree of the given depth inside
// the viewport height with the configured padding. A single-generation tree
// stays at scale 1.
func (c *Controller) ScaleForDepth(depth int) float64 {
	if depth <= 0 {
		return 1
	}
	estimated := float64(depth) * c.cfg.EdgeLength
	return util.Clamp((c.cfg.Height-2*c.cfg.FitPadding)/estimated, c.cfg.MinZoom, c.cfg.MaxZoom)
}

// FitDepth schedules an immediate move centering the root at the depth-fit
// scale.
func (c *Controller) FitDepth(root *trail.Node, depth int, now time.Time) {
	if root == nil {
		return
	}
	c.schedule(now, 0, func() Transform {
		return c.centeredOn(root.Pos, c.ScaleForDepth(depth))
	})
}

// GlideToCenter schedules a pan that brings the node set's representative
// point to the viewport center after the delay, preserving the scale in
// effect when the pan begins. An empty set is a no-op.
func (c *Controller) GlideToCenter(nodes []*trail.Node, delay time.Duration, now time.Time) {
	if len(nodes) == 0 {
		return
	}
	c.schedule(now, delay, func() Transform {
		return c.centeredOn(centerPoint(nodes), c.transform.Scale)
	})
}

// Reset schedules an immediate move back to scale 1, centered on the root
// when one exists and on the bare viewport otherwise.
func (c *Controller) Reset(root *trail.Node, now time.Time) {
	c.schedule(now, 0, func() Transform {
		if root == nil {
			return Identity()
		}
		return c.centeredOn(root.Pos, 1)
	})
}

// Pan applies a user drag. Cancels any programmatic move.
func (c *Controller) Pan(dx, dy float64) {
	c.CancelMoves()
	c.transform.X += dx
	c.transform.Y += dy
}

// ZoomAt applies a user wheel zoom about a screen point, keeping the world
// point under the cursor fixed. Cancels any programmatic move.
func (c *Controller) ZoomAt(focus trail.Vec2, factor float64) {
	c.CancelMoves()
	next := util.Clamp(c.transform.Scale*factor, c.cfg.MinZoom, c.cfg.MaxZoom)
	ratio := next / c.transform.Scale
	c.transform.X = focus.X - (focus.X-c.transform.X)*ratio
	c.transform.Y = focus.Y - (focus.Y-c.transform.Y)*ratio
	c.transform.Scale = next
}

// CancelMoves drops the pending and active programmatic moves, leaving the
// transform wherever it is.
func (c *Controller) CancelMoves() {
	c.pending = nil
	c.active = nil
}

// schedule queues a programmatic move, superseding whatever was pending.
// An active move keeps playing until the new one engages.
func (c *Controller) schedule(now time.Time, delay time.Duration, resolve func() Transform) {
	c.pending = &pendingMove{at: now.Add(delay), resolve: resolve}
}

// centeredOn builds the transform placing a world point at the viewport
// center at the given scale.
func (c *Controller) centeredOn(p trail.Vec2, scale float64) Transform {
	return Transform{
		X:     c.cfg.Width/2 - p.X*scale,
		Y:     c.cfg.Height/2 - p.Y*scale,
		Scale: scale,
	}
}
