// Package engine ticks a wander session. One goroutine owns the trail store,
// the physics, and the viewport; inputs from transports queue on a channel
// and apply at tick boundaries, so none of the owned state needs locking.
// Every tick drains inputs, grows the trail when history changed, steps the
// simulation, advances camera moves, and publishes a Frame snapshot to
// subscribers. A panic inside a tick flips the engine into a fault state
// instead of killing the loop; frames keep flowing with the fault attached
// until a retry clears it.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/logger"
	"github.com/teranos/wander/physics"
	"github.com/teranos/wander/trail"
	"github.com/teranos/wander/viewport"
)

// subscriberBuffer is the per-subscriber frame channel capacity. A consumer
// that falls this far behind starts losing frames, never blocking the tick.
const subscriberBuffer = 4

// Stats is the inspection snapshot served by /api/engine.
type Stats struct {
	Nodes          int       `json:"nodes"`
	Links          int       `json:"links"`
	MaxDepth       int       `json:"max_depth"`
	RootTitle      string    `json:"root_title,omitempty"`
	Ticks          uint64    `json:"ticks"`
	LastTickAt     time.Time `json:"last_tick_at"`
	TickIntervalMS int64     `json:"tick_interval_ms"`
	Settled        bool      `json:"settled"`
	Fault          string    `json:"fault,omitempty"`
	ViewportWidth  float64   `json:"viewport_width"`
	ViewportHeight float64   `json:"viewport_height"`
	PendingInputs  int       `json:"pending_inputs"`
	Subscribers    int       `json:"subscribers"`
	FramesDropped  int64     `json:"frames_dropped"`
	InputsDropped  int64     `json:"inputs_dropped"`
	InputsRejected int64     `json:"inputs_rejected"`
}

// Engine drives one wander session.
type Engine struct {
	store   *trail.Store
	builder *trail.Builder
	phys    *physics.Engine
	vp      *viewport.Controller

	inputs   chan Input
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	verbosity int
	log       *zap.SugaredLogger
	pulseLog  *zap.SugaredLogger

	// onSelect runs on the engine goroutine during input drain; it must not
	// block. Set before Start.
	onSelect func(NodeView)

	// accumulated collaborator state, engine goroutine only
	visits  []trail.Visit
	similar trail.SimilarityMap
	active  string
	dirty   bool

	seq     uint64
	settled bool
	fault   string

	subsMu  sync.Mutex
	subs    map[uint64]chan Frame
	nextSub uint64

	framesDropped  atomic.Int64
	inputsDropped  atomic.Int64
	inputsRejected atomic.Int64

	mu    sync.Mutex
	stats Stats
}

// New builds an engine from the loaded config.
func New(cfg *am.Config, verbosity int, log *zap.SugaredLogger) *Engine {
	return NewWithContext(context.Background(), cfg, verbosity, log)
}

// NewWithContext builds an engine whose loop stops when the parent context
// ends.
func NewWithContext(ctx context.Context, cfg *am.Config, verbosity int, log *zap.SugaredLogger) *Engine {
	engineCtx, cancel := context.WithCancel(ctx)
	store := trail.NewStore()

	e := &Engine{
		store:     store,
		builder:   trail.NewBuilder(store, verbosity, log),
		phys:      physics.New(PhysicsTuning(cfg)),
		vp:        viewport.NewController(ViewportConfig(cfg)),
		inputs:    make(chan Input, cfg.Engine.InputBuffer),
		interval:  cfg.TickInterval(),
		ctx:       engineCtx,
		cancel:    cancel,
		verbosity: verbosity,
		log:       log.Named("engine"),
		pulseLog:  logger.AddPulseSymbol(log.Named("engine")),
		similar:   make(trail.SimilarityMap),
		subs:      make(map[uint64]chan Frame),
	}
	vw, vh := e.vp.Size()
	e.stats = Stats{
		TickIntervalMS: e.interval.Milliseconds(),
		ViewportWidth:  vw,
		ViewportHeight: vh,
	}
	return e
}

// SetOnSelect registers the node-select callback. Call before Start.
func (e *Engine) SetOnSelect(fn func(NodeView)) {
	e.onSelect = fn
}

// Start begins the tick loop. With engine.fps 0 there is no loop; drive the
// engine with TickOnce instead.
func (e *Engine) Start() {
	if e.interval <= 0 {
		e.pulseLog.Infow("Engine in manual stepping mode")
		return
	}
	e.wg.Add(1)
	go e.run()
	e.pulseLog.Infow("Engine started",
		"interval", e.interval,
		"input_buffer", cap(e.inputs))
}

// Stop ends the tick loop, cancels pending camera moves, and closes all
// subscriber channels.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
	e.vp.CancelMoves()

	e.subsMu.Lock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.subsMu.Unlock()

	e.pulseLog.Infow("Engine stopped", "ticks", e.seq)
}

// Enqueue queues an input for the next tick. Malformed visit or neighbor
// payloads are rejected here, before they can join the accumulated history
// the builder replays every growth. Returns ErrServiceUnavailable when the
// buffer is full; the input is dropped, never blocked on.
func (e *Engine) Enqueue(in Input) error {
	switch in := in.(type) {
	case VisitInput:
		if err := trail.ValidateVisits(in.Visits); err != nil {
			e.inputsRejected.Add(1)
			return err
		}
	case NeighborsInput:
		if err := trail.ValidateSimilarityMap(in.Similar); err != nil {
			e.inputsRejected.Add(1)
			return err
		}
	}

	select {
	case e.inputs <- in:
		return nil
	default:
		e.inputsDropped.Add(1)
		return errors.Wrap(errors.ErrServiceUnavailable, "engine input buffer full")
	}
}

// Subscribe registers a frame consumer. The returned cancel removes it and
// closes the channel; Stop closes all remaining subscribers.
func (e *Engine) Subscribe() (<-chan Frame, func()) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan Frame, subscriberBuffer)
	e.subs[id] = ch

	return ch, func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

// Stats returns the last tick's inspection snapshot.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// TickOnce advances one tick synchronously. For manual stepping and tests;
// never call while the Start loop is running.
func (e *Engine) TickOnce(now time.Time) {
	e.safeTick(now)
}

func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case tickTime := <-ticker.C:
			e.safeTick(tickTime)
		}
	}
}

// safeTick keeps a panicking tick from killing the loop: the engine enters
// a fault state and keeps publishing frames until a retry clears it.
func (e *Engine) safeTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.fault = fmt.Sprintf("%v", r)
			e.log.Errorw("engine tick panicked",
				"panic", r,
				"tick", e.seq,
				"stack", string(debug.Stack()))
			e.seq++
			e.publish(e.snapshot(now))
			e.updateStats(now)
		}
	}()

	start := time.Now()
	e.tick(now)
	if dur := time.Since(start); e.interval > 0 && dur > e.interval {
		e.log.Warnw("tick overran interval",
			"duration_ms", dur.Milliseconds(),
			"interval_ms", e.interval.Milliseconds(),
			"nodes", e.store.NodeCount())
	}
}

func (e *Engine) tick(now time.Time) {
	e.drainInputs(now)

	if e.fault == "" {
		if e.dirty {
			e.growTrail(now)
			e.dirty = false
		}
		wasSettled := e.settled
		e.settled = e.phys.Step(e.store, now)
		e.vp.Tick(now)

		if e.settled != wasSettled && e.store.NodeCount() > 0 &&
			logger.ShouldOutput(e.verbosity, logger.OutputEngineStats) {
			if e.settled {
				e.log.Infow("trail settled", "nodes", e.store.NodeCount(), "tick", e.seq)
			} else {
				e.log.Infow("trail moving", "nodes", e.store.NodeCount(), "tick", e.seq)
			}
		}
	}

	e.seq++
	e.publish(e.snapshot(now))
	e.updateStats(now)
}

func (e *Engine) drainInputs(now time.Time) {
	for {
		select {
		case in := <-e.inputs:
			e.apply(in, now)
		default:
			return
		}
	}
}

func (e *Engine) apply(in Input, now time.Time) {
	switch in := in.(type) {
	case VisitInput:
		e.visits = append(e.visits, in.Visits...)
		e.dirty = true
	case NeighborsInput:
		for ref, neighbors := range in.Similar {
			e.similar[ref] = neighbors
		}
		e.dirty = true
	case ActiveInput:
		e.active = in.Title
		e.dirty = true
	case SelectInput:
		e.handleSelect(in.NodeID)
	case PanInput:
		e.vp.Pan(in.DX, in.DY)
	case ZoomInput:
		e.vp.ZoomAt(trail.Vec2{X: in.X, Y: in.Y}, in.Factor)
	case ResetViewInput:
		e.vp.Reset(e.store.Root(), now)
	case FitDepthInput:
		e.vp.FitDepth(e.store.Root(), e.store.MaxDepth(), now)
	case GlideInput:
		e.handleGlide(in, now)
	case RetryInput:
		if e.fault != "" {
			e.fault = ""
			e.pulseLog.Infow("Engine fault cleared, resuming", "tick", e.seq)
		}
	case TuneInput:
		e.phys.SetTuning(in.Physics)
		e.vp.SetConfig(in.Viewport)
		if logger.ShouldOutput(e.verbosity, logger.OutputConfig) {
			e.log.Infow("tuning applied",
				"spring_length", in.Physics.SpringLength,
				"damping", in.Physics.Damping,
				"wind_amplitude", in.Physics.WindAmplitude)
		}
	}
}

func (e *Engine) handleSelect(id trail.NodeID) {
	node := e.store.Node(id)
	if node == nil {
		e.log.Warnw("select for unknown node", "node_id", id)
		return
	}
	if e.onSelect != nil {
		e.onSelect(viewOfNode(node))
	}
}

func (e *Engine) handleGlide(in GlideInput, now time.Time) {
	nodes := make([]*trail.Node, 0, len(in.Nodes))
	for _, id := range in.Nodes {
		if n := e.store.Node(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		root := e.store.Root()
		if root == nil {
			return
		}
		nodes = append(nodes, root)
	}

	delay := e.vp.DefaultGlideDelay()
	if in.DelayMS != nil {
		delay = time.Duration(*in.DelayMS) * time.Millisecond
	}
	e.vp.GlideToCenter(nodes, delay, now)
}

// growTrail reruns the builder over the accumulated inputs and schedules at
// most one camera move for the growth: first growth centers the root, a
// depth increase refits the zoom, and everything else glides to the new
// nodes. One move per growth keeps the no-queue transition rule from eating
// its own triggers.
func (e *Engine) growTrail(now time.Time) {
	wasEmpty := e.store.NodeCount() == 0
	prevDepth := e.store.MaxDepth()

	created, err := e.builder.Grow(e.visits, e.similar, e.active)
	if err != nil {
		e.inputsRejected.Add(1)
		e.log.Warnw("trail input rejected", "error", err)
		return
	}
	if len(created) == 0 {
		return
	}

	nodes := make([]*trail.Node, 0, len(created))
	for _, id := range created {
		nodes = append(nodes, e.store.Node(id))
	}

	root := e.store.Root()
	switch {
	case wasEmpty:
		e.vp.CenterOnRoot(root, now)
	case e.store.MaxDepth() > prevDepth:
		e.vp.FitDepth(root, e.store.MaxDepth(), now)
	default:
		e.vp.GlideToCenter(nodes, e.vp.DefaultGlideDelay(), now)
	}
}

func (e *Engine) snapshot(now time.Time) Frame {
	nodes := e.store.Nodes()
	links := e.store.Links()

	f := Frame{
		Seq:        e.seq,
		At:         now,
		Nodes:      make([]NodeView, 0, len(nodes)),
		Links:      make([]LinkView, 0, len(links)),
		Transform:  e.vp.Transform(),
		AllResting: e.settled,
		Fault:      e.fault,
	}
	for _, n := range nodes {
		f.Nodes = append(f.Nodes, viewOfNode(n))
	}
	for _, l := range links {
		f.Links = append(f.Links, viewOfLink(l))
	}
	return f
}

func (e *Engine) publish(f Frame) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- f:
		default:
			e.framesDropped.Add(1)
		}
	}
}

func (e *Engine) updateStats(now time.Time) {
	e.subsMu.Lock()
	subscribers := len(e.subs)
	e.subsMu.Unlock()

	rootTitle := ""
	if root := e.store.Root(); root != nil {
		rootTitle = root.Title
	}
	vw, vh := e.vp.Size()

	e.mu.Lock()
	e.stats = Stats{
		Nodes:          e.store.NodeCount(),
		Links:          e.store.LinkCount(),
		MaxDepth:       e.store.MaxDepth(),
		RootTitle:      rootTitle,
		Ticks:          e.seq,
		LastTickAt:     now,
		TickIntervalMS: e.interval.Milliseconds(),
		Settled:        e.settled,
		Fault:          e.fault,
		ViewportWidth:  vw,
		ViewportHeight: vh,
		PendingInputs:  len(e.inputs),
		Subscribers:    subscribers,
		FramesDropped:  e.framesDropped.Load(),
		InputsDropped:  e.inputsDropped.Load(),
		InputsRejected: e.inputsRejected.Load(),
	}
	e.mu.Unlock()
}
