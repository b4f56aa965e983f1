package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/spf13/cobra"

	"repeater/internal/bootstrap"
	"repeater/internal/config"
	"repeater/internal/domain"
)

var libraryJSON bool

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Saved recordings",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recordings, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := bootstrap.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level)
		library, err := bootstrap.OpenLibrary(cfg, logger)
		if err != nil {
			return err
		}
		defer library.Close()

		entries, err := library.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list recordings: %w", err)
		}
		if libraryJSON {
			return writeEntriesJSON(cmd.OutOrStdout(), entries)
		}
		writeEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	libraryListCmd.Flags().BoolVar(&libraryJSON, "json", false, "print entries as JSON")
	libraryCmd.AddCommand(libraryListCmd)
	rootCmd.AddCommand(libraryCmd)
}

func writeEntries(w io.Writer, entries []domain.MediaEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, helpStyle.Render("No recordings saved yet"))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d recording(s)", len(entries))))
	for _, entry := range entries {
		fmt.Fprintf(w, "%s  %s  %s\n",
			entry.CreatedAt.Local().Format(time.DateTime),
			path.Join(entry.RelativePath, entry.DisplayName),
			helpStyle.Render(formatSize(entry.Size)),
		)
	}
}

func writeEntriesJSON(w io.Writer, entries []domain.MediaEntry) error {
	if entries == nil {
		entries = []domain.MediaEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

