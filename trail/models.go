package trail

import (
	"math"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// NodeID is a handle into the store's node arena.
type NodeID int

// NoNode is the absent-handle value, used as the root's parent.
const NoNode NodeID = -1

// Vec2 is a 2D position or velocity.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v scaled by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Len returns the magnitude of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Node is one visited record in the trail.
// Title is the sole global dedup key; Ref carries the external record id
// when the collaborator supplied one. Instance distinguishes same-title
// nodes recreated across sessions.
type Node struct {
	ID       NodeID
	Ref      string
	Title    string
	Image    string
	Pos      Vec2
	Vel      Vec2
	Radius   float64
	Parent   NodeID // NoNode only for the root
	Children []NodeID
	Depth    int
	Resting  bool
	Instance string
}

// Link is a non-owning edge from a parent node to the child created with it.
// Score is the similarity weight when the neighbor carried one.
// InitialAngle is captured at most once, only when both endpoints are
// simultaneously resting; the angular restoring force pulls the edge back
// toward it ever after.
type Link struct {
	Source       NodeID
	Target       NodeID
	Score        *float64
	InitialAngle *float64
}

// Visit is one entry of the visited-record history consumed by the builder.
type Visit struct {
	Ref   string `json:"ref,omitempty" validate:"omitempty,max=256"`
	Title string `json:"title" validate:"required,max=512"`
	Image string `json:"image,omitempty" validate:"omitempty,max=1024"`
}

// Neighbor is a discovered related record, attachable under a visit's node.
type Neighbor struct {
	Ref   string   `json:"ref,omitempty" validate:"omitempty,max=256"`
	Title string   `json:"title" validate:"required,max=512"`
	Image string   `json:"image,omitempty" validate:"omitempty,max=1024"`
	Score *float64 `json:"score,omitempty"`
}

// SimilarityMap maps a visit's ref id to its ordered neighbor list.
type SimilarityMap map[string][]Neighbor

// newInstanceID returns a short base58 tag with UUID entropy.
func newInstanceID() string {
	u := uuid.New()
	return base58.Encode(u[:])
}
