package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repeater-cli",
	Short: "Record, replay and save short voice notes",
	Long: `repeater-cli - record a clip from the microphone, play it back and
save it into the shared Music/Repeater collection.

Configuration is read from $REPEATER_CONFIG or the OS config directory
(repeater/config.yaml), then overridden by REPEATER_* environment variables.

Examples:
  # Start an interactive session
  repeater-cli session

  # List saved recordings
  repeater-cli library list`,
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
