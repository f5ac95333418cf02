package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/feed"
	"github.com/teranos/wander/logger"
	"github.com/teranos/wander/sym"
)

// PlayCmd replays a scenario through a headless engine
var PlayCmd = &cobra.Command{
	Use:   "play <scenario>",
	Short: sym.Feed + " Replay a visit scenario through an engine",
	Long: `Replay a scripted visit scenario through an in-process engine, with
no server and no clients, then print what grew. Useful for checking a
scenario file and for watching trail growth at high verbosity.

The scenario resolves against feed.scenario_dir unless a path is
given.

Examples:
  wander play tour                 # ~/.wander/scenarios/tour.toml
  wander play ./demo/bridge.toml   # explicit path
  wander play tour -vv             # show every attachment decision`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

// settleWait bounds how long play waits for the trail to stop moving
// after the last step.
const settleWait = 10 * time.Second

func runPlay(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	logger.SetTheme(cfg.GetServerLogTheme())

	path, err := feed.FindScenario(args[0], cfg.Feed.ScenarioDir)
	if err != nil {
		return err
	}
	sc, err := feed.Load(path)
	if err != nil {
		return err
	}

	pterm.Info.Printf("Playing %q: %d steps from %s\n", sc.Name, len(sc.Steps), path)

	eng := engine.New(cfg, verbosity, logger.Logger)
	eng.Start()
	defer eng.Stop()

	// With engine.fps 0 there is no tick loop; drive it here so the
	// scenario still lands. The ticker joins before the deferred Stop.
	if cfg.TickInterval() == 0 {
		manualStop := make(chan struct{})
		manualDone := make(chan struct{})
		go func() {
			defer close(manualDone)
			ticker := time.NewTicker(16 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-manualStop:
					return
				case now := <-ticker.C:
					eng.TickOnce(now)
				}
			}
		}()
		defer func() {
			close(manualStop)
			<-manualDone
		}()
	}

	replayer := feed.NewReplayer(eng, sc, cfg.Feed, verbosity, logger.Logger)
	replayer.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-replayer.Done():
	case <-sigChan:
		pterm.Warning.Println("\nInterrupted, stopping replay...")
		replayer.Stop()
	}

	waitForSettle(eng)

	progress := replayer.Progress()
	stats := eng.Stats()

	if progress.Errors > 0 {
		pterm.Warning.Printf("Replayed %d/%d steps with %d rejected inputs\n",
			progress.Played, progress.Steps, progress.Errors)
	} else {
		pterm.Success.Printf("Replayed %d/%d steps\n", progress.Played, progress.Steps)
	}
	pterm.Info.Printf("Trail: %d nodes, %d links, depth %d, root %q\n",
		stats.Nodes, stats.Links, stats.MaxDepth, stats.RootTitle)
	if !stats.Settled {
		pterm.Info.Println("Trail still in motion at exit")
	}

	return nil
}

// waitForSettle gives the engine time to drain queued inputs and let the
// physics come to rest, so the summary reflects the finished trail.
func waitForSettle(eng *engine.Engine) {
	deadline := time.Now().Add(settleWait)
	for time.Now().Before(deadline) {
		stats := eng.Stats()
		if stats.PendingInputs == 0 && stats.Settled {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
