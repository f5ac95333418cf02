// Package server exposes a running engine to browser adapters. A WebSocket
// hub fans frame snapshots out to connected clients and routes their input
// messages into the engine's queue; a small HTTP API serves health, trail,
// and config inspection. The hub goroutine owns the client set, a single
// broadcast worker owns every send into client channels, and per-client
// read/write pumps own the sockets, so no two goroutines ever write the
// same channel or connection.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/logger"
)

// Server is the WebSocket hub and HTTP API around one engine.
type Server struct {
	cfg *am.Config
	eng *engine.Engine

	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	broadcastReq chan *broadcastRequest

	mu        sync.RWMutex
	lastFrame *engine.Frame

	limiterMu sync.Mutex
	limiter   *rate.Limiter

	// reloadMu serializes config reloads; the global config loader is not
	// safe for concurrent reset-and-load.
	reloadMu sync.Mutex

	verbosity atomic.Int32
	log       *zap.SugaredLogger
	metrics   *Collector

	httpServer *http.Server
	port       int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state          atomic.Int32
	broadcastDrops atomic.Int64
}

// NewServer builds a server around an engine. The engine's select callback
// is claimed here: selections broadcast to every client, and adapters
// decide what becomes active.
func NewServer(cfg *am.Config, eng *engine.Engine, verbosity int, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:          cfg,
		eng:          eng,
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcastReq: make(chan *broadcastRequest, 64),
		log:          log.Named("server"),
		metrics:      NewCollector("wander"),
		ctx:          ctx,
		cancel:       cancel,
	}
	s.verbosity.Store(int32(verbosity))
	s.state.Store(int32(StateRunning))
	s.setBroadcastFPS(cfg.Server.BroadcastFPS)

	eng.SetOnSelect(s.onEngineSelect)

	return s
}

// Run is the hub loop. It owns the client set and every send into client
// channels: registers, unregisters, and broadcast requests all serialize
// here, so a delivery can never race a channel close.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case req := <-s.broadcastReq:
			s.handleBroadcastRequest(req)
		}
	}
}

// handleClientRegister admits a client, enforcing the configured limit,
// and replays the cached last frame so a reconnecting adapter paints
// immediately instead of waiting for the next tick.
func (s *Server) handleClientRegister(client *Client) {
	maxClients := s.config().Server.MaxClients

	s.mu.Lock()
	if maxClients > 0 && len(s.clients) >= maxClients {
		s.mu.Unlock()
		s.log.Warnw("Client rejected, at capacity",
			"client_id", client.id,
			"max_clients", maxClients)
		client.close()
		return
	}
	s.clients[client] = true
	count := len(s.clients)
	lastFrame := s.lastFrame
	s.mu.Unlock()

	s.metrics.ClientsConnected.Set(float64(count))
	if s.shouldOutput(logger.OutputClientStatus) {
		s.log.Infow("Client connected",
			"client_id", client.id,
			"clients", count)
	}

	if lastFrame != nil {
		s.offerBroadcast(&broadcastRequest{
			reqType:  broadcastFrame,
			frame:    lastFrame,
			clientID: client.id,
		})
	}
}

// handleClientUnregister removes a departed client and closes its
// channels.
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	count := len(s.clients)
	s.mu.Unlock()

	client.close()
	s.metrics.ClientsConnected.Set(float64(count))
	if s.shouldOutput(logger.OutputClientStatus) {
		s.log.Infow("Client disconnected",
			"client_id", client.id,
			"clients", count)
	}
}

// removeSlowClient evicts a client whose send buffer stayed full. Runs on
// the hub goroutine, the sole writer into client channels, so closing
// here cannot race a send.
func (s *Server) removeSlowClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	count := len(s.clients)
	s.mu.Unlock()

	client.close()
	s.metrics.ClientsConnected.Set(float64(count))
	if s.shouldOutput(logger.OutputClientStatus) {
		s.log.Warnw("Client evicted, send buffer full",
			"client_id", client.id,
			"clients", count)
	}
}

// onEngineSelect runs on the engine goroutine and must not block: the
// selection is offered to the broadcast queue and dropped if it is full.
func (s *Server) onEngineSelect(node engine.NodeView) {
	s.offerBroadcast(&broadcastRequest{
		reqType: broadcastMessage,
		msg: SelectedMessage{
			Type:      "selected",
			Node:      node,
			Timestamp: nowUnixMilli(),
		},
	})
}

// ClientCount reports connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// hasClients lets periodic broadcasters skip work on idle servers.
func (s *Server) hasClients() bool {
	return s.ClientCount() > 0
}

// LastFrame returns the most recently broadcast frame, or false when no
// tick has published yet.
func (s *Server) LastFrame() (engine.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastFrame == nil {
		return engine.Frame{}, false
	}
	return *s.lastFrame, true
}

// config returns the current config snapshot.
func (s *Server) config() *am.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ReloadConfig swaps in a freshly loaded config and refreshes the frame
// throttle. The serve command's file watcher calls this alongside the
// engine retune.
func (s *Server) ReloadConfig(cfg *am.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.setBroadcastFPS(cfg.Server.BroadcastFPS)
}

// applyConfigReload re-reads the config after a tune persisted, retunes
// the engine, and pushes the effective settings to every client. Tune
// writes are marked as the server's own, so the file watcher won't fire
// for them; this is the reload path instead.
func (s *Server) applyConfigReload() {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	am.Reset()
	cfg, err := am.Load()
	if err != nil {
		s.log.Errorw("Config reload after tune failed", "error", err)
		return
	}
	s.ReloadConfig(cfg)
	if err := s.eng.Enqueue(engine.TuneFromConfig(cfg)); err != nil {
		s.log.Warnw("Engine tune not accepted", "error", err)
	}
	s.broadcastToAll(ConfigMessage{
		Type:      "config",
		Config:    am.GetConfigSummary(),
		Timestamp: nowUnixMilli(),
	})
}

// SetVerbosity adjusts output gating at runtime.
func (s *Server) SetVerbosity(v int) {
	s.verbosity.Store(int32(v))
}

// Verbosity returns the current verbosity level.
func (s *Server) Verbosity() int {
	return int(s.verbosity.Load())
}

func (s *Server) shouldOutput(cat logger.OutputCategory) bool {
	return logger.ShouldOutput(int(s.verbosity.Load()), cat)
}

// setBroadcastFPS swaps the frame throttle. Zero or negative removes the
// cap entirely.
func (s *Server) setBroadcastFPS(fps int) {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if fps <= 0 {
		s.limiter = nil
		return
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		return
	}
	s.limiter.SetLimit(rate.Limit(fps))
}

// allowFrame asks the throttle whether this frame goes out. Denied frames
// are skipped, not queued: frames are snapshots and the next allowed one
// supersedes anything withheld.
func (s *Server) allowFrame() bool {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}
