package server

import (
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/logger"
)

// Broadcast request kinds handled by the hub loop.
const (
	broadcastFrame   = "frame"
	broadcastMessage = "message"
)

// broadcastRequest asks the hub to deliver something to clients. A
// non-empty clientID targets a single client; otherwise the request fans
// out to everyone.
type broadcastRequest struct {
	reqType  string
	frame    *engine.Frame
	msg      interface{}
	clientID string
}

// offerBroadcast queues a request without blocking. Callers on hot paths,
// the engine's select callback included, drop rather than stall when the
// queue is full; the next frame carries the fresher picture anyway.
func (s *Server) offerBroadcast(req *broadcastRequest) bool {
	select {
	case s.broadcastReq <- req:
		return true
	default:
		s.broadcastDrops.Add(1)
		s.metrics.BroadcastDrops.Inc()
		return false
	}
}

// handleBroadcastRequest dispatches one queued request. Runs on the hub
// goroutine only.
func (s *Server) handleBroadcastRequest(req *broadcastRequest) {
	switch req.reqType {
	case broadcastFrame:
		if req.frame != nil {
			s.deliverFrame(req)
		}
	case broadcastMessage:
		if req.msg != nil {
			s.deliverMessage(req)
		}
	}
}

// deliverFrame pushes a frame into each targeted client's frame channel.
// A client whose buffer is full is evicted: frames arrive continuously,
// so a persistently full buffer means the consumer is gone or wedged.
func (s *Server) deliverFrame(req *broadcastRequest) int {
	targets := s.snapshotClients(req.clientID)

	sent := 0
	var slow []*Client
	for _, client := range targets {
		select {
		case client.sendFrame <- *req.frame:
			sent++
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		s.broadcastDrops.Add(1)
		s.metrics.BroadcastDrops.Inc()
		s.removeSlowClient(client)
	}

	if sent > 0 && s.shouldOutput(logger.OutputFrames) {
		s.log.Debugw("Frame broadcast",
			"seq", req.frame.Seq,
			"nodes", len(req.frame.Nodes),
			"sent", sent)
	}
	return sent
}

// deliverMessage pushes a status or control message into each targeted
// client's message channel. Full buffers skip silently: messages are
// advisory, and the frame stream is the liveness signal.
func (s *Server) deliverMessage(req *broadcastRequest) int {
	targets := s.snapshotClients(req.clientID)

	sent := 0
	for _, client := range targets {
		select {
		case client.sendMsg <- req.msg:
			sent++
		default:
		}
	}
	return sent
}

// snapshotClients copies the matching clients out from under the lock so
// delivery never holds it.
func (s *Server) snapshotClients(clientID string) []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	targets := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		if clientID != "" && client.id != clientID {
			continue
		}
		targets = append(targets, client)
	}
	return targets
}

// broadcastToAll queues a message for every client.
func (s *Server) broadcastToAll(msg interface{}) {
	s.offerBroadcast(&broadcastRequest{reqType: broadcastMessage, msg: msg})
}

// runFrameBroadcaster bridges the engine's frame stream into the hub.
// Every frame refreshes the cache that reconnecting clients and the trail
// API read; the throttle only decides whether this one goes out now.
func (s *Server) runFrameBroadcaster() {
	frames, cancel := s.eng.Subscribe()
	defer cancel()

	var prevAt time.Time
	var prevFault string
	for {
		select {
		case <-s.ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}

			frame := f
			s.mu.Lock()
			s.lastFrame = &frame
			s.mu.Unlock()

			s.metrics.TrailNodes.Set(float64(len(f.Nodes)))
			s.metrics.TrailLinks.Set(float64(len(f.Links)))
			if f.Fault != "" && prevFault == "" {
				s.metrics.EngineFaults.Inc()
			}
			prevFault = f.Fault

			if !s.allowFrame() {
				continue
			}
			if !prevAt.IsZero() {
				s.metrics.FrameInterval.Observe(f.At.Sub(prevAt).Seconds())
			}
			prevAt = f.At

			s.metrics.FramesBroadcast.Inc()
			s.offerBroadcast(&broadcastRequest{reqType: broadcastFrame, frame: &frame})
		}
	}
}

// runStatusBroadcaster periodically reports engine stats and host memory
// to connected clients. Disabled when the configured interval is zero;
// unchanged status is not resent.
func (s *Server) runStatusBroadcaster() {
	seconds := s.config().Engine.StatusIntervalSeconds
	if seconds <= 0 {
		s.log.Debugw("Status broadcaster disabled", "interval_seconds", seconds)
		return
	}

	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()

	var last *cachedEngineStatus
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.hasClients() {
				continue
			}

			msg := s.collectStatus()
			next := cachedEngineStatus{
				nodes:         msg.Stats.Nodes,
				links:         msg.Stats.Links,
				maxDepth:      msg.Stats.MaxDepth,
				settled:       msg.Stats.Settled,
				fault:         msg.Stats.Fault,
				clients:       msg.Clients,
				memoryPercent: msg.MemoryPercent,
			}
			if !last.statusHasChanged(next) {
				continue
			}
			last = &next

			s.broadcastToAll(msg)
			if s.shouldOutput(logger.OutputEngineStats) {
				s.log.Debugw("Engine status broadcast",
					"nodes", next.nodes,
					"links", next.links,
					"settled", next.settled,
					"clients", next.clients)
			}
		}
	}
}

// collectStatus samples the engine and host memory. Memory probes that
// fail report zeros rather than blocking the broadcast.
func (s *Server) collectStatus() EngineStatusMessage {
	msg := EngineStatusMessage{
		Type:        "engine_status",
		Stats:       s.eng.Stats(),
		Clients:     s.ClientCount(),
		ServerState: s.getState().String(),
		Timestamp:   nowUnixMilli(),
	}

	if v, err := mem.VirtualMemory(); err == nil {
		used := v.Total - v.Available
		msg.MemoryUsedGB = float64(used) / 1024 / 1024 / 1024
		msg.MemoryTotalGB = float64(v.Total) / 1024 / 1024 / 1024
		if v.Total > 0 {
			msg.MemoryPercent = float64(used) / float64(v.Total) * 100
		}
	}
	return msg
}

func nowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
