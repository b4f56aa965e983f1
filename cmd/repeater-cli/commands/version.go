package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"repeater/internal/config"
)

// version is set with -ldflags "-X repeater/cmd/repeater-cli/commands.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "repeater %s\n", version)
		if IsVerbose() {
			fmt.Fprintf(out, "  go:      %s\n", runtime.Version())
			if cfg, err := config.Load(); err == nil {
				fmt.Fprintf(out, "  library: %s\n", cfg.Storage.LibraryRoot)
				fmt.Fprintf(out, "  input:   %s:%s\n", cfg.Audio.InputFormat, cfg.Audio.InputDevice)
			} else {
				fmt.Fprintf(out, "  config:  (unavailable: %v)\n", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
