package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/wander/cmd/wander/commands"
	"github.com/teranos/wander/logger"
)

var rootCmd = &cobra.Command{
	Use:   "wander",
	Short: "wander - Live visit-trail visualization",
	Long: `wander - Live visit-trail visualization.

wander grows a tree out of the pages you visit and keeps it moving:
each visit attaches under the concept you came from, similar concepts
hang alongside, and a physics pass sways the whole trail while a
camera follows the growth. Browser adapters connect over WebSocket
and paint the frames.

Available commands:
  serve   - Start the visualization server
  play    - Replay a visit scenario through an engine
  am      - Manage wander configuration ("I am")
  version - Show version information

Examples:
  wander serve                   # Start the server on the configured port
  wander serve --scenario tour   # Start and replay a scenario into it
  wander play tour               # Replay a scenario headless
  wander am show                 # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		// Skip for commands with plain stdout output (like 'am show')
		if cmd.Name() != "show" && cmd.Name() != "get" {
			if err := logger.Initialize(false); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.PlayCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
