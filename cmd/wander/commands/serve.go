package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/feed"
	"github.com/teranos/wander/logger"
	"github.com/teranos/wander/server"
	"github.com/teranos/wander/sym"
)

// ServeCmd starts the wander visualization server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   sym.Pulse + " Start the wander visualization server",
	Long: `Launch the wander server: the engine ticks the trail, physics, and
camera on its own goroutine while browser adapters connect over
WebSocket to paint frames and send visits back.

The config file is watched; physics and viewport changes apply to the
running engine without a restart.`,
	RunE: runServe,
}

var (
	servePort     int
	serveScenario string
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	ServeCmd.Flags().StringVar(&serveScenario, "scenario", "", "Replay a scenario into the running engine")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to Info verbosity for the server; it is a foreground process.
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	logger.SetTheme(cfg.GetServerLogTheme())

	port := servePort
	if port == 0 {
		port = am.GetServerPort()
	}

	printStartupBanner(verbosity, cfg, port)

	eng := engine.New(cfg, verbosity, logger.Logger)
	srv := server.NewServer(cfg, eng, verbosity, logger.Logger)
	eng.Start()

	// Hot reload: file edits retune the running engine. UI tune writes
	// mark themselves and reload through the server instead.
	if watcher, werr := am.NewConfigWatcher(am.GetUIConfigPath()); werr == nil {
		watcher.OnReload(func(newCfg *am.Config) error {
			srv.ReloadConfig(newCfg)
			return eng.Enqueue(engine.TuneFromConfig(newCfg))
		})
		watcher.Start()
		am.SetGlobalWatcher(watcher)
		defer watcher.Stop()
	} else if logger.ShouldOutput(verbosity, logger.OutputConfig) {
		logger.Debugw("Config watcher not started", "error", werr)
	}

	var replayer *feed.Replayer
	if serveScenario != "" {
		path, ferr := feed.FindScenario(serveScenario, cfg.Feed.ScenarioDir)
		if ferr != nil {
			return ferr
		}
		sc, ferr := feed.Load(path)
		if ferr != nil {
			return ferr
		}
		pterm.Info.Printf("Replaying scenario %q (%d steps)\n", sc.Name, len(sc.Steps))
		replayer = feed.NewReplayer(eng, sc, cfg.Feed, verbosity, logger.Logger)
		replayer.Start()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed")
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan struct{})
		go func() {
			if replayer != nil {
				replayer.Stop()
			}
			srv.Stop()
			eng.Stop()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}
