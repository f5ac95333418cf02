package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wander/engine"
)

// seedClient puts a mock client straight into the map, bypassing the hub,
// so delivery paths can be exercised synchronously.
func seedClient(srv *Server, client *Client) {
	srv.mu.Lock()
	srv.clients[client] = true
	srv.mu.Unlock()
}

func TestDeliverFrameFansOut(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	a := newMockClient("a", 4)
	b := newMockClient("b", 4)
	seedClient(srv, a)
	seedClient(srv, b)

	frame := engine.Frame{Seq: 12}
	sent := srv.deliverFrame(&broadcastRequest{reqType: broadcastFrame, frame: &frame})
	assert.Equal(t, 2, sent)

	assert.Equal(t, uint64(12), (<-a.sendFrame).Seq)
	assert.Equal(t, uint64(12), (<-b.sendFrame).Seq)
}

func TestDeliverFrameTargetsOneClient(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	a := newMockClient("a", 4)
	b := newMockClient("b", 4)
	seedClient(srv, a)
	seedClient(srv, b)

	frame := engine.Frame{Seq: 5}
	sent := srv.deliverFrame(&broadcastRequest{reqType: broadcastFrame, frame: &frame, clientID: "b"})
	assert.Equal(t, 1, sent)

	assert.Equal(t, uint64(5), (<-b.sendFrame).Seq)
	assert.Empty(t, a.sendFrame, "untargeted client should receive nothing")
}

func TestSlowClientEvicted(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	slow := newMockClient("slow", 1)
	healthy := newMockClient("healthy", 8)
	seedClient(srv, slow)
	seedClient(srv, healthy)

	// The slow client's single-slot buffer fills on the first frame; the
	// second finds it full and evicts.
	for seq := uint64(1); seq <= 2; seq++ {
		frame := engine.Frame{Seq: seq}
		srv.deliverFrame(&broadcastRequest{reqType: broadcastFrame, frame: &frame})
	}

	assert.Equal(t, 1, srv.ClientCount(), "slow client should be evicted")
	assert.Positive(t, srv.broadcastDrops.Load())

	// Eviction closed the slow client's channels; the buffered frame
	// drains first, then the channel reports closed.
	<-slow.sendFrame
	_, ok := <-slow.sendFrame
	assert.False(t, ok)

	// The healthy client got both frames.
	assert.Equal(t, uint64(1), (<-healthy.sendFrame).Seq)
	assert.Equal(t, uint64(2), (<-healthy.sendFrame).Seq)
}

func TestDeliverMessageSkipsFullBuffers(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	full := newMockClient("full", 0)
	seedClient(srv, full)

	sent := srv.deliverMessage(&broadcastRequest{
		reqType: broadcastMessage,
		msg:     ErrorMessage{Type: "error"},
	})
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, srv.ClientCount(), "messages never evict, frames do")
}

func TestOfferBroadcastDropsWhenQueueFull(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	// No hub is draining the queue; fill it to the brim.
	for i := 0; i < cap(srv.broadcastReq); i++ {
		require.True(t, srv.offerBroadcast(&broadcastRequest{reqType: broadcastMessage, msg: "x"}))
	}
	assert.False(t, srv.offerBroadcast(&broadcastRequest{reqType: broadcastMessage, msg: "x"}))
	assert.Positive(t, srv.broadcastDrops.Load())
}

func TestStatusChangeDetection(t *testing.T) {
	var last *cachedEngineStatus
	next := cachedEngineStatus{nodes: 3, links: 2, settled: true, memoryPercent: 40}

	assert.True(t, last.statusHasChanged(next), "first status always broadcasts")

	last = &next
	same := next
	same.memoryPercent = 40.5
	assert.False(t, last.statusHasChanged(same), "memory jitter under tolerance is not a change")

	grown := next
	grown.nodes = 4
	assert.True(t, last.statusHasChanged(grown))

	faulted := next
	faulted.fault = "tick panic"
	assert.True(t, last.statusHasChanged(faulted))

	hot := next
	hot.memoryPercent = 45
	assert.True(t, last.statusHasChanged(hot))
}

func TestCollectStatus(t *testing.T) {
	srv, eng := newTestServer(t, testConfig(t))
	eng.TickOnce(time.Now())

	msg := srv.collectStatus()
	assert.Equal(t, "engine_status", msg.Type)
	assert.Equal(t, "running", msg.ServerState)
	assert.Equal(t, uint64(1), msg.Stats.Ticks)
	assert.GreaterOrEqual(t, msg.MemoryTotalGB, msg.MemoryUsedGB)
	assert.NotZero(t, msg.Timestamp)
}

func TestFrameBroadcasterCachesAndDelivers(t *testing.T) {
	srv, eng := newTestServer(t, testConfig(t))
	go srv.Run()
	go srv.runFrameBroadcaster()
	defer srv.cancel()

	client := newMockClient("viewer", 8)
	srv.register <- client
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	// Tick until the broadcaster's subscription is live and a frame has
	// been cached.
	require.Eventually(t, func() bool {
		eng.TickOnce(time.Now())
		_, ok := srv.LastFrame()
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case f := <-client.sendFrame:
		assert.NotZero(t, f.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered to registered client")
	}
}

func TestBroadcastThrottle(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	srv.setBroadcastFPS(1)
	assert.True(t, srv.allowFrame(), "first frame passes the throttle")
	assert.False(t, srv.allowFrame(), "second frame inside the same second is withheld")

	srv.setBroadcastFPS(0)
	assert.True(t, srv.allowFrame(), "no throttle when fps is zero")
	assert.True(t, srv.allowFrame())
}
