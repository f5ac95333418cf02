package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/logger"
	"github.com/teranos/wander/trail"
)

// WebSocket timing, from the gorilla chat conventions.
const (
	// writeWait is the deadline for a single write to complete.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// deadline kills it.
	pongWait = 60 * time.Second

	// pingPeriod spaces protocol pings inside the pong window.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound messages. Visit batches are small; a
	// larger payload is a misbehaving client.
	maxMessageSize = 256 * 1024
)

// Client is one connected WebSocket adapter. The read pump owns the
// socket's read side, the write pump owns its write side, and the hub
// owns both send channels.
type Client struct {
	server *Server
	conn   *websocket.Conn
	id     string

	sendFrame chan engine.Frame
	sendMsg   chan interface{}

	closeOnce sync.Once
}

// close shuts both send channels and the socket. Hub goroutine only;
// closing from anywhere else could race a delivery.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.sendFrame)
		close(c.sendMsg)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump consumes inbound messages until the connection dies, then
// unregisters. Malformed JSON is answered with an error message; the
// connection stays up.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError(errors.Wrap(errors.ErrInvalidRequest, "malformed message"))
			continue
		}
		c.routeMessage(msg, raw)
	}
}

// handleReadError distinguishes normal disconnects from protocol
// failures.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived) {
		c.server.log.Warnw("Client read error",
			"client_id", c.id,
			"error", err)
		return
	}
	if c.server.shouldOutput(logger.OutputClientStatus) {
		c.server.log.Debugw("Client closed connection", "client_id", c.id)
	}
}

// routeMessage dispatches one inbound message by type. Unknown types are
// logged and ignored so older adapters don't break newer servers.
func (c *Client) routeMessage(msg ClientMessage, raw []byte) {
	c.server.metrics.WSMessages.WithLabelValues(msg.Type).Inc()
	if c.server.shouldOutput(logger.OutputWSMessages) {
		c.server.log.Debugw("WS message",
			"client_id", c.id,
			"msg_type", msg.Type)
	}
	if c.server.shouldOutput(logger.OutputMessageBody) {
		c.server.log.Debugw("WS message body", "body", string(raw))
	}

	switch msg.Type {
	case "visit":
		c.handleVisit(msg)
	case "neighbors":
		c.handleNeighbors(msg)
	case "active":
		c.enqueue(engine.ActiveInput{Title: msg.Title})
	case "select":
		c.handleSelect(msg)
	case "pan":
		c.enqueue(engine.PanInput{DX: msg.DX, DY: msg.DY})
	case "zoom":
		c.handleZoom(msg)
	case "reset_view":
		c.enqueue(engine.ResetViewInput{})
	case "fit_depth":
		c.enqueue(engine.FitDepthInput{})
	case "glide":
		c.handleGlide(msg)
	case "retry":
		c.enqueue(engine.RetryInput{})
	case "tune":
		c.handleTune(msg)
	case "set_verbosity":
		c.handleSetVerbosity(msg)
	case "ping":
		// Application-level liveness check; protocol pings are handled
		// by the pumps.
	default:
		if c.server.shouldOutput(logger.OutputWSMessages) {
			c.server.log.Debugw("Unknown message type",
				"client_id", c.id,
				"msg_type", msg.Type)
		}
	}
}

// enqueue hands an input to the engine, reporting rejections back to
// this client.
func (c *Client) enqueue(in engine.Input) {
	if err := c.server.eng.Enqueue(in); err != nil {
		c.sendError(err)
	}
}

func (c *Client) handleVisit(msg ClientMessage) {
	if len(msg.Visits) == 0 {
		c.sendError(errors.Wrap(errors.ErrInvalidRequest, "visit message carries no visits"))
		return
	}
	c.enqueue(engine.VisitInput{Visits: msg.Visits})
}

func (c *Client) handleNeighbors(msg ClientMessage) {
	if len(msg.Similar) == 0 {
		c.sendError(errors.Wrap(errors.ErrInvalidRequest, "neighbors message carries no similarity entries"))
		return
	}
	c.enqueue(engine.NeighborsInput{Similar: msg.Similar})
}

func (c *Client) handleSelect(msg ClientMessage) {
	if msg.NodeID == nil {
		c.sendError(errors.Wrap(errors.ErrInvalidRequest, "select requires node_id"))
		return
	}
	c.enqueue(engine.SelectInput{NodeID: trail.NodeID(*msg.NodeID)})
}

func (c *Client) handleZoom(msg ClientMessage) {
	if msg.Factor <= 0 {
		c.sendError(errors.Wrap(errors.ErrInvalidRequest, "zoom factor must be positive"))
		return
	}
	c.enqueue(engine.ZoomInput{X: msg.X, Y: msg.Y, Factor: msg.Factor})
}

func (c *Client) handleGlide(msg ClientMessage) {
	if len(msg.Nodes) == 0 {
		c.sendError(errors.Wrap(errors.ErrInvalidRequest, "glide requires nodes"))
		return
	}
	nodes := make([]trail.NodeID, len(msg.Nodes))
	for i, id := range msg.Nodes {
		nodes[i] = trail.NodeID(id)
	}
	c.enqueue(engine.GlideInput{Nodes: nodes, DelayMS: msg.DelayMS})
}

// handleTune persists one setting, then reloads config and retunes the
// engine. Persisting marks the write as the server's own, so the file
// watcher stays quiet and the reload happens here.
func (c *Client) handleTune(msg ClientMessage) {
	var err error
	switch msg.Section {
	case "physics":
		err = am.UpdatePhysicsSetting(msg.Key, msg.Value)
	case "viewport":
		err = am.UpdateViewportSetting(msg.Key, msg.Value)
	case "server":
		switch msg.Key {
		case "log_theme":
			err = am.UpdateServerLogTheme(msg.Theme)
			if err == nil {
				logger.SetTheme(msg.Theme)
			}
		case "broadcast_fps":
			fps := int(msg.Value)
			err = am.UpdateServerBroadcastFPS(fps)
			if err == nil {
				c.server.setBroadcastFPS(fps)
			}
		default:
			err = errors.Wrapf(errors.ErrInvalidRequest, "unknown server tune key %q", msg.Key)
		}
	default:
		err = errors.Wrapf(errors.ErrInvalidRequest, "unknown tune section %q", msg.Section)
	}

	if err != nil {
		c.sendError(err)
		return
	}
	c.server.applyConfigReload()
}

func (c *Client) handleSetVerbosity(msg ClientMessage) {
	c.server.SetVerbosity(msg.Verbosity)
	c.server.log.Infow("Verbosity changed",
		"client_id", c.id,
		"verbosity", msg.Verbosity,
		"level", logger.LevelName(msg.Verbosity))
}

// sendError routes an error back to this client through the hub, keeping
// channel sends on the hub goroutine.
func (c *Client) sendError(err error) {
	c.server.offerBroadcast(&broadcastRequest{
		reqType: broadcastMessage,
		msg: ErrorMessage{
			Type:      "error",
			Error:     err.Error(),
			Details:   errors.GetAllDetails(err),
			Timestamp: nowUnixMilli(),
		},
		clientID: c.id,
	})
}

// writePump owns the socket's write side: frames, advisory messages, and
// protocol pings all leave from here. A failed frame write ends the
// connection; a failed advisory write does not, the next frame write
// will notice a dead socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.sendFrame:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(NewFrameMessage(frame)); err != nil {
				if c.server.shouldOutput(logger.OutputClientStatus) {
					c.server.log.Debugw("Frame write failed",
						"client_id", c.id,
						"error", err)
				}
				return
			}
		case msg, ok := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				if c.server.shouldOutput(logger.OutputClientStatus) {
					c.server.log.Debugw("Message write failed",
						"client_id", c.id,
						"error", err)
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
