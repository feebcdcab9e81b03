package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "glassgear",
	Short: "Wearable device control plane and tooling",
	Long: `glassgear - control plane for the Glass Gear wearable.

The simulate command runs the full device loop (audio pipeline, photo
uploader, power and button state machines) against simulated drivers
and serves the device link over a websocket. The client commands
(monitor, snap, ota) attach to a running device over that link.

Examples:
  # Run a simulated device
  glassgear simulate --listen :8931

  # Watch its audio, photo, and battery streams
  glassgear monitor --addr ws://localhost:8931/link

  # Grab one photo
  glassgear snap --addr ws://localhost:8931/link -o shot.jpg`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// newSlog builds the process logger honoring the verbose flag.
func newSlog() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
