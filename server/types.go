package server

import (
	"time"

	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/internal/util"
	"github.com/teranos/wander/trail"
)

// Server limits and timeouts.
const (
	// MaxClientMessageQueueSize is the per-client outbound buffer. A client
	// that falls this far behind the frame stream is evicted.
	MaxClientMessageQueueSize = 256

	// ShutdownTimeout bounds how long Stop waits for pumps and broadcasters
	// to drain before giving up.
	ShutdownTimeout = 10 * time.Second

	// portScanRange is how many ports past the fallback Start probes when
	// the requested port is taken.
	portScanRange = 10
)

// ServerState tracks the lifecycle for health reporting and shutdown
// ordering.
type ServerState int32

const (
	StateRunning ServerState = iota
	StateDraining
	StateStopped
)

func (s ServerState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ClientMessage is the single inbound envelope for WebSocket messages.
// Type selects the operation; the remaining fields are per-type payloads
// and are ignored where they don't apply.
type ClientMessage struct {
	Type string `json:"type"`

	// visit
	Visits []trail.Visit `json:"visits,omitempty"`

	// neighbors
	Similar trail.SimilarityMap `json:"similar,omitempty"`

	// active
	Title string `json:"title,omitempty"`

	// select. Pointer so node id 0, the root, is distinguishable from an
	// absent field.
	NodeID *int `json:"node_id,omitempty"`

	// pan
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// zoom
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Factor float64 `json:"factor,omitempty"`

	// glide
	Nodes   []int `json:"nodes,omitempty"`
	DelayMS *int  `json:"delay_ms,omitempty"`

	// tune
	Section string  `json:"section,omitempty"`
	Key     string  `json:"key,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Theme   string  `json:"theme,omitempty"`

	// set_verbosity
	Verbosity int `json:"verbosity,omitempty"`
}

// FrameMessage wraps an engine frame for the wire. The embedded frame
// fields marshal inline next to the type discriminator.
type FrameMessage struct {
	Type string `json:"type"`
	engine.Frame
}

// NewFrameMessage wraps a frame snapshot for broadcast.
func NewFrameMessage(f engine.Frame) FrameMessage {
	return FrameMessage{Type: "frame", Frame: f}
}

// EngineStatusMessage carries periodic engine and host telemetry.
type EngineStatusMessage struct {
	Type          string       `json:"type"`
	Stats         engine.Stats `json:"stats"`
	Clients       int          `json:"clients"`
	ServerState   string       `json:"server_state"`
	MemoryUsedGB  float64      `json:"memory_used_gb"`
	MemoryTotalGB float64      `json:"memory_total_gb"`
	MemoryPercent float64      `json:"memory_percent"`
	Timestamp     int64        `json:"timestamp"`
}

// SelectedMessage reports the node the engine resolved for a select
// request. Adapters decide whether the title becomes the new active
// concept and feed it back as an active message.
type SelectedMessage struct {
	Type      string          `json:"type"`
	Node      engine.NodeView `json:"node"`
	Timestamp int64           `json:"timestamp"`
}

// ConfigMessage pushes the effective config after a tune lands, so every
// connected adapter converges on the same settings.
type ConfigMessage struct {
	Type      string                 `json:"type"`
	Config    map[string]interface{} `json:"config"`
	Timestamp int64                  `json:"timestamp"`
}

// ErrorMessage reports a rejected input or handler failure back to the
// client that sent it.
type ErrorMessage struct {
	Type      string   `json:"type"`
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// VersionMessage is sent once on connect, before the pumps start.
type VersionMessage struct {
	Type       string `json:"type"`
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Timestamp  int64  `json:"timestamp"`
}

// cachedEngineStatus is the last broadcast status, kept for change
// detection so idle sessions don't repeat identical telemetry. Tick
// counters advance every tick and are excluded on purpose.
type cachedEngineStatus struct {
	nodes         int
	links         int
	maxDepth      int
	settled       bool
	fault         string
	clients       int
	memoryPercent float64
}

// statusHasChanged compares the fields a UI badge would show, with a
// tolerance on memory so sampling jitter alone doesn't count.
func (c *cachedEngineStatus) statusHasChanged(next cachedEngineStatus) bool {
	if c == nil {
		return true
	}
	if c.nodes != next.nodes || c.links != next.links || c.maxDepth != next.maxDepth {
		return true
	}
	if c.settled != next.settled || c.fault != next.fault || c.clients != next.clients {
		return true
	}
	return util.AbsFloat64(c.memoryPercent-next.memoryPercent) > 1.0
}
