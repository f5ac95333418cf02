package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/logger"
)

// Sink receives the inputs a replayer produces. *engine.Engine satisfies it.
type Sink interface {
	Enqueue(engine.Input) error
}

// Progress is a snapshot of a replay in flight.
type Progress struct {
	Steps    int  `json:"steps"`
	Played   int  `json:"played"`
	Errors   int  `json:"errors"`
	Finished bool `json:"finished"`
}

// Replayer plays a scenario's steps into a sink on its own schedule. Each
// step's inputs are enqueued together, then the replayer sleeps the step's
// delay before the next one.
type Replayer struct {
	sink     Sink
	scenario *Scenario

	// defaultDelay applies to steps with no delay of their own when the
	// scenario also has none.
	defaultDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu       sync.Mutex
	played   int
	errs     int
	finished bool

	verbosity int
	log       *zap.SugaredLogger
	feedLog   *zap.SugaredLogger
}

// NewReplayer creates a replayer for one scenario.
func NewReplayer(sink Sink, sc *Scenario, cfg am.FeedConfig, verbosity int, log *zap.SugaredLogger) *Replayer {
	return NewReplayerWithContext(context.Background(), sink, sc, cfg, verbosity, log)
}

// NewReplayerWithContext creates a replayer whose run stops when the parent
// context is canceled.
func NewReplayerWithContext(parent context.Context, sink Sink, sc *Scenario, cfg am.FeedConfig, verbosity int, log *zap.SugaredLogger) *Replayer {
	ctx, cancel := context.WithCancel(parent)
	return &Replayer{
		sink:         sink,
		scenario:     sc,
		defaultDelay: time.Duration(cfg.DefaultDelayMS) * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		verbosity:    verbosity,
		log:          log,
		feedLog:      logger.AddFeedSymbol(log),
	}
}

// Start begins playback on its own goroutine.
func (r *Replayer) Start() {
	r.wg.Add(1)
	go r.run()
	r.feedLog.Infow("Replay started",
		"scenario", r.scenario.Name,
		"steps", len(r.scenario.Steps))
}

// Stop cancels playback and waits for the goroutine to exit. Safe to call
// after the scenario finished on its own.
func (r *Replayer) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Done is closed when playback finishes or is stopped.
func (r *Replayer) Done() <-chan struct{} {
	return r.done
}

// Progress reports how far playback has gotten.
func (r *Replayer) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Progress{
		Steps:    len(r.scenario.Steps),
		Played:   r.played,
		Errors:   r.errs,
		Finished: r.finished,
	}
}

func (r *Replayer) run() {
	defer r.wg.Done()
	defer close(r.done)

	total := len(r.scenario.Steps)
	for i, step := range r.scenario.Steps {
		select {
		case <-r.ctx.Done():
			r.feedLog.Infow("Replay stopped early",
				"scenario", r.scenario.Name,
				"played", i,
				"steps", total)
			return
		default:
		}

		r.playStep(step)
		r.mu.Lock()
		r.played = i + 1
		r.mu.Unlock()

		if logger.ShouldOutput(r.verbosity, logger.OutputProgress) {
			r.feedLog.Infow("Replayed step",
				"scenario", r.scenario.Name,
				"step", i+1,
				"steps", total)
		}

		if i == total-1 {
			break
		}
		if delay := r.stepDelay(step); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-r.ctx.Done():
				timer.Stop()
				r.feedLog.Infow("Replay stopped early",
					"scenario", r.scenario.Name,
					"played", i+1,
					"steps", total)
				return
			case <-timer.C:
			}
		}
	}

	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	r.feedLog.Infow("Replay finished",
		"scenario", r.scenario.Name,
		"steps", total)
}

// playStep enqueues one step's inputs in growth order: active title first so
// the visit that follows attaches under it.
func (r *Replayer) playStep(step Step) {
	if step.Active != "" {
		r.enqueue(engine.ActiveInput{Title: step.Active})
	}
	if len(step.Visits) > 0 {
		r.enqueue(engine.VisitInput{Visits: step.Visits})
	}
	if len(step.Similar) > 0 {
		r.enqueue(engine.NeighborsInput{Similar: step.Similar})
	}
}

func (r *Replayer) enqueue(in engine.Input) {
	if err := r.sink.Enqueue(in); err != nil {
		r.mu.Lock()
		r.errs++
		r.mu.Unlock()
		r.log.Warnw("Replay input not accepted", "error", err)
	}
}

// stepDelay resolves the pause after a step: the step's own delay, then the
// scenario default, then the feed config default.
func (r *Replayer) stepDelay(step Step) time.Duration {
	if step.Delay != nil {
		return *step.Delay
	}
	if r.scenario.DefaultDelay != nil {
		return *r.scenario.DefaultDelay
	}
	return r.defaultDelay
}
