package commands

import (
	"fmt"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/logger"
	"github.com/teranos/wander/sym"
	"github.com/teranos/wander/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *am.Config, port int) {
	// ANSI escape codes
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	magenta := "\033[35m"
	white := "\033[37m"
	bgBlack := "\033[40m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔═══════════════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                                   ║\n")
	fmt.Printf("   ║            %s%s%s██     ██  ▄███▄  ███  ██%s            ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║            %s%s%s██     ██ ██   ██ ████ ██%s            ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║            %s%s%s██  ▄  ██ ███████ ██ ████%s            ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║            %s%s%s██ ███ ██ ██   ██ ██  ███%s            ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║            %s%s%s ███▀███  ██   ██ ██   ██%s            ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║                                                   ║\n")
	fmt.Printf("   ║             %s%s%s█████▄  ██████ █████▄ %s              ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║             %s%s%s██   ██ ██     ██   ██%s              ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║             %s%s%s██   ██ █████  █████▀ %s              ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║             %s%s%s██   ██ ██     ██  ██ %s              ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║             %s%s%s█████▀  ██████ ██   ██%s              ║\n", white, bold, bgBlack, reset+cyan+bold)
	fmt.Printf("   ║                                                   ║\n")
	fmt.Printf("   ║   %s%s%s Trail  %s%s%s Sway  %s%s%s Lens  %s%s%s Feed              ║\n",
		blue, sym.Trail, reset+cyan+bold, yellow, sym.Sway, reset+cyan+bold, green, sym.Lens, reset+cyan+bold, magenta, sym.Feed, reset+cyan+bold)
	fmt.Printf("   ║                                                   ║\n")
	fmt.Printf("   ╚═══════════════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ Wander Info ───────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuildTime)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Trail:     ws://localhost:%d/ws\n", green, reset, port)
	if cfg.Feed.ScenarioDir != "" {
		fmt.Printf("%s│%s Scenarios: %s\n", green, reset, cfg.Feed.ScenarioDir)
	}
	if verbosity >= 2 {
		fmt.Printf("%s│%s Theme:     %s\n", green, reset, cfg.GetServerLogTheme())
	}
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%s✨ Connect a viewer to the trail socket to watch it wander%s\n", yellow, bold, reset)
	fmt.Printf("%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}
