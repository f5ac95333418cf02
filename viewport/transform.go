package viewport

import (
	"github.com/teranos/wander/trail"
)

// Transform maps trail coordinates onto the viewport:
// screen = world*Scale + (X, Y).
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity is the untransformed viewport at scale 1.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Apply maps a world point to screen coordinates.
func (t Transform) Apply(p trail.Vec2) trail.Vec2 {
	return trail.Vec2{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

func lerpTransform(a, b Transform, p float64) Transform {
	return Transform{
		X:     a.X + (b.X-a.X)*p,
		Y:     a.Y + (b.Y-a.Y)*p,
		Scale: a.Scale + (b.Scale-a.Scale)*p,
	}
}

// easeInOutCubic shapes transition progress: slow in, fast middle, slow out.
func easeInOutCubic(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	q := -2*p + 2
	return 1 - q*q*q/2
}

// centerPoint picks the representative point of a node set: a single node's
// position, the middle element for odd counts, the midpoint of the two
// middle elements for even counts.
func centerPoint(nodes []*trail.Node) trail.Vec2 {
	n := len(nodes)
	switch {
	case n == 1:
		return nodes[0].Pos
	case n%2 == 1:
		return nodes[n/2].Pos
	default:
		return nodes[n/2-1].Pos.Add(nodes[n/2].Pos).Scale(0.5)
	}
}
