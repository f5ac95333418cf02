package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/teranos/wander/am"
)

// upgrader builds the WebSocket upgrader with origin checking bound to
// this server's config.
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin validates the Origin header against the configured allow
// list. Non-browser clients send no origin and are allowed through.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config().GetServerAllowedOrigins() {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// isPortAvailable probes a TCP port by briefly binding it.
func isPortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// findAvailablePort tries the requested port first, then scans a short
// range starting at the fallback port. The browser adapter discovers the
// actual port from the startup log line.
func findAvailablePort(requested int) (int, error) {
	if isPortAvailable(requested) {
		return requested, nil
	}
	for port := am.FallbackServerPort; port < am.FallbackServerPort+portScanRange; port++ {
		if port == requested {
			continue
		}
		if isPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port: tried %d and %d-%d",
		requested, am.FallbackServerPort, am.FallbackServerPort+portScanRange-1)
}
