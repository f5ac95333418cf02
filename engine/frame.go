package engine

import (
	"time"

	"github.com/teranos/wander/trail"
	"github.com/teranos/wander/viewport"
)

// Frame is the per-tick snapshot published to subscribers. Views are copies;
// holding a Frame after the tick is safe.
type Frame struct {
	Seq        uint64             `json:"seq"`
	At         time.Time          `json:"at"`
	Nodes      []NodeView         `json:"nodes"`
	Links      []LinkView         `json:"links"`
	Transform  viewport.Transform `json:"transform"`
	AllResting bool               `json:"all_resting"`
	Fault      string             `json:"fault,omitempty"`
}

// NodeView is the wire shape of one node.
type NodeView struct {
	ID       trail.NodeID `json:"id"`
	Instance string       `json:"instance"`
	Ref      string       `json:"ref,omitempty"`
	Title    string       `json:"title"`
	Image    string       `json:"image,omitempty"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Radius   float64      `json:"radius"`
	Depth    int          `json:"depth"`
	Parent   trail.NodeID `json:"parent"`
	Resting  bool         `json:"resting"`
}

// LinkView is the wire shape of one edge.
type LinkView struct {
	Source trail.NodeID `json:"source"`
	Target trail.NodeID `json:"target"`
	Score  *float64     `json:"score,omitempty"`
}

func viewOfNode(n *trail.Node) NodeView {
	return NodeView{
		ID:       n.ID,
		Instance: n.Instance,
		Ref:      n.Ref,
		Title:    n.Title,
		Image:    n.Image,
		X:        n.Pos.X,
		Y:        n.Pos.Y,
		Radius:   n.Radius,
		Depth:    n.Depth,
		Parent:   n.Parent,
		Resting:  n.Resting,
	}
}

func viewOfLink(l *trail.Link) LinkView {
	return LinkView{Source: l.Source, Target: l.Target, Score: l.Score}
}
