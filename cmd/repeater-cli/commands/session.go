package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"repeater/internal/bootstrap"
	"repeater/internal/domain"
)

type intent int

const (
	intentUnknown intent = iota
	intentRecord
	intentPlay
	intentSave
	intentList
	intentHelp
	intentQuit
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive record / play / save loop",
	Long: `Start an interactive session.

Commands (one per line):
  r, record   start recording, or stop the current recording
  p, play     play the last recording
  s, save     save the last recording to Music/Repeater
  l, list     list saved recordings
  h, help     show this help
  q, quit     stop everything and exit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		term := &terminalSink{w: cmd.OutOrStdout()}
		services, err := bootstrap.Build(term)
		if err != nil {
			return err
		}
		defer services.Close()

		term.println(titleStyle.Render("repeater") + " " + helpStyle.Render("r record/stop · p play · s save · q quit"))
		term.StatusChanged(services.Controller.Status())
		if err := services.Controller.EnsurePermission(); err != nil {
			return err
		}

		return runSession(cmd, services, term, cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, services bootstrap.Services, term *terminalSink, in io.Reader) error {
	controller := services.Controller
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var err error
		switch parseIntent(scanner.Text()) {
		case intentRecord:
			err = controller.ToggleRecord()
		case intentPlay:
			err = controller.Play()
		case intentSave:
			err = controller.Save()
		case intentList:
			entries, listErr := services.Library.List(cmd.Context())
			if listErr != nil {
				term.println(alertStyle.Render(listErr.Error()))
				continue
			}
			term.write(func(w io.Writer) { writeEntries(w, entries) })
		case intentHelp:
			term.println(cmd.Long)
		case intentQuit:
			return nil
		default:
			if strings.TrimSpace(scanner.Text()) != "" {
				term.println(helpStyle.Render(fmt.Sprintf("unknown command %q, try h", strings.TrimSpace(scanner.Text()))))
			}
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseIntent(line string) intent {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "r", "record", "stop":
		return intentRecord
	case "p", "play":
		return intentPlay
	case "s", "save":
		return intentSave
	case "l", "ls", "list":
		return intentList
	case "h", "?", "help":
		return intentHelp
	case "q", "quit", "exit":
		return intentQuit
	default:
		return intentUnknown
	}
}

// terminalSink prints each status change on its own line. Statuses arrive
// from the controller loop, so every write is serialized.
type terminalSink struct {
	mu   sync.Mutex
	w    io.Writer
	last domain.Status
}

func (t *terminalSink) StatusChanged(status domain.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status.Message == t.last.Message && status.State == t.last.State {
		return
	}
	t.last = status
	if IsVerbose() {
		fmt.Fprintf(t.w, "%s %s\n", renderStatus(status), helpStyle.Render("("+string(status.Reason)+")"))
		return
	}
	fmt.Fprintln(t.w, renderStatus(status))
}

func (t *terminalSink) println(line string) {
	t.write(func(w io.Writer) { fmt.Fprintln(w, line) })
}

func (t *terminalSink) write(fn func(w io.Writer)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.w)
}
