package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/logger"
)

// captureSink records enqueued inputs, or fails every one when err is set.
type captureSink struct {
	mu     sync.Mutex
	inputs []engine.Input
	err    error
}

func (s *captureSink) Enqueue(in engine.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, in)
	return nil
}

func (s *captureSink) snapshot() []engine.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	return sc
}

func waitDone(t *testing.T, r *Replayer) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not finish in time")
	}
}

func TestReplayerPlaysStepsInOrder(t *testing.T) {
	sc := mustParse(t, `
delay_ms = 0

[[step]]
visit = '1 "Golden Gate Bridge"'

[[step]]
active = "Fort Point"
visit = '2 "Fort Point"'

[[step]]
neighbors_of = "2"
neighbors = ['3 "Crissy Field" 0.9']
`)

	sink := &captureSink{}
	r := NewReplayer(sink, sc, am.FeedConfig{DefaultDelayMS: 600}, 0, logger.Logger.Named("test"))
	r.Start()
	waitDone(t, r)
	r.Stop()

	inputs := sink.snapshot()
	require.Len(t, inputs, 4)

	visit, ok := inputs[0].(engine.VisitInput)
	require.True(t, ok)
	assert.Equal(t, "Golden Gate Bridge", visit.Visits[0].Title)

	active, ok := inputs[1].(engine.ActiveInput)
	require.True(t, ok, "active title precedes the visit of its own step")
	assert.Equal(t, "Fort Point", active.Title)

	visit, ok = inputs[2].(engine.VisitInput)
	require.True(t, ok)
	assert.Equal(t, "Fort Point", visit.Visits[0].Title)

	neighbors, ok := inputs[3].(engine.NeighborsInput)
	require.True(t, ok)
	assert.Contains(t, neighbors.Similar, "2")

	progress := r.Progress()
	assert.Equal(t, Progress{Steps: 3, Played: 3, Errors: 0, Finished: true}, progress)
}

func TestReplayerStopEndsRunEarly(t *testing.T) {
	sc := mustParse(t, `
delay_ms = 5000

[[step]]
visit = '1 "Golden Gate Bridge"'

[[step]]
visit = '2 "Fort Point"'
`)

	sink := &captureSink{}
	r := NewReplayer(sink, sc, am.FeedConfig{DefaultDelayMS: 600}, 0, logger.Logger.Named("test"))
	r.Start()

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) >= 1
	}, time.Second, 5*time.Millisecond)
	r.Stop()

	select {
	case <-r.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}

	progress := r.Progress()
	assert.Equal(t, 1, progress.Played, "second step sits behind the delay")
	assert.False(t, progress.Finished)
}

func TestReplayerCountsSinkErrors(t *testing.T) {
	sc := mustParse(t, `
delay_ms = 0

[[step]]
visit = '1 "Golden Gate Bridge"'

[[step]]
visit = '2 "Fort Point"'
`)

	sink := &captureSink{err: errors.Wrap(errors.ErrServiceUnavailable, "engine input buffer full")}
	r := NewReplayer(sink, sc, am.FeedConfig{}, 0, logger.Logger.Named("test"))
	r.Start()
	waitDone(t, r)

	progress := r.Progress()
	assert.Equal(t, 2, progress.Played, "playback pushes on past a full buffer")
	assert.Equal(t, 2, progress.Errors)
	assert.True(t, progress.Finished)
}

func TestReplayerStepDelayCascade(t *testing.T) {
	stepDelay := 50 * time.Millisecond
	scenarioDelay := 100 * time.Millisecond

	tests := []struct {
		name     string
		step     Step
		scenario *Scenario
		want     time.Duration
	}{
		{
			name:     "step delay wins",
			step:     Step{Delay: &stepDelay},
			scenario: &Scenario{DefaultDelay: &scenarioDelay},
			want:     stepDelay,
		},
		{
			name:     "scenario default fills in",
			step:     Step{},
			scenario: &Scenario{DefaultDelay: &scenarioDelay},
			want:     scenarioDelay,
		},
		{
			name:     "feed config is the last resort",
			step:     Step{},
			scenario: &Scenario{},
			want:     600 * time.Millisecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReplayer(&captureSink{}, tt.scenario, am.FeedConfig{DefaultDelayMS: 600}, 0, logger.Logger.Named("test"))
			assert.Equal(t, tt.want, r.stepDelay(tt.step))
		})
	}
}

func TestReplayerFeedsEngine(t *testing.T) {
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)

	sc := mustParse(t, `
delay_ms = 0

[[step]]
visit = '1 "Golden Gate Bridge"'

[[step]]
active = "Fort Point"
visit = '2 "Fort Point"'

[[step]]
neighbors_of = "2"
neighbors = [
  '3 "Crissy Field" 0.9',
  '4 "The Presidio" presidio.jpg 0.7',
]
`)

	eng := engine.New(cfg, 0, logger.Logger.Named("test"))
	r := NewReplayer(eng, sc, cfg.Feed, 0, logger.Logger.Named("test"))
	r.Start()
	waitDone(t, r)
	r.Stop()

	eng.TickOnce(time.Now())

	stats := eng.Stats()
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Links)
	assert.Equal(t, 2, stats.MaxDepth, "neighbors hang under the active Fort Point node")
	assert.Equal(t, "Golden Gate Bridge", stats.RootTitle)
}
