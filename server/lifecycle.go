package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/teranos/wander/errors"
)

func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(state ServerState) {
	s.state.Store(int32(state))
}

// Start resolves a port, launches the hub and broadcasters, and serves
// HTTP until Stop or a listener failure. Blocks; run it on its own
// goroutine when the caller has more to do.
func (s *Server) Start(port int) error {
	actual, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "server start failed")
	}
	if actual != port {
		s.log.Warnw("Requested port busy, using fallback",
			"requested", port,
			"port", actual)
	}
	s.port = actual

	for _, loop := range []func(){s.Run, s.runFrameBroadcaster, s.runStatusBroadcaster} {
		loop := loop
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			loop()
		}()
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actual),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actual),
		"ws", fmt.Sprintf("ws://localhost:%d/ws", actual))

	err = s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "server listen failed")
}

// Port reports the bound port once Start has resolved it.
func (s *Server) Port() int {
	return s.port
}

// Stop drains the server: client sockets close first so their pumps
// unregister while the hub still runs, then the workers wind down, then
// the HTTP listener. Safe to call once; later calls are no-ops.
func (s *Server) Stop() {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		return
	}
	s.log.Infow("Server draining", "clients", s.ClientCount())

	for _, client := range s.snapshotClients("") {
		if client.conn != nil {
			client.conn.Close()
		}
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		s.log.Warnw("Shutdown timed out waiting for workers")
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Warnw("HTTP shutdown error", "error", err)
		}
	}

	s.setState(StateStopped)
	if drops := s.broadcastDrops.Load(); drops > 0 {
		s.log.Infow("Server stopped", "broadcast_drops", drops)
	} else {
		s.log.Infow("Server stopped")
	}
}
