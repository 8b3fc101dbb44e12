package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kcaldas/devconsole/pkg/console"
)

func newEmitCommand(opts *globalOptions) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "emit <debug|error|object> [text...]",
		Short: "Log an entry into the stored console",
		Long: `Log an entry into the stored console.

Without text, every non-blank line piped on stdin becomes its own entry.
Object payloads are parsed as JSON when possible and kept as text otherwise.`,
		Example: `  devconsole emit debug "cache warmed"
  devconsole emit error "payment failed" --title "API Error"
  devconsole emit object '{"user":"John"}' --title "Current User"
  tail -n 5 app.log | devconsole emit debug`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"debug", "error", "object"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, opts, args[0], args[1:], title)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "entry title")
	return cmd
}

func runEmit(cmd *cobra.Command, opts *globalOptions, level string, text []string, title string) error {
	emit, err := emitterFor(level)
	if err != nil {
		return err
	}

	var messages []string
	if len(text) > 0 {
		messages = []string{strings.Join(text, " ")}
	} else if hasStdinInput(cmd.InOrStdin()) {
		if messages, err = readStdinLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return errors.New("nothing to emit: pass text or pipe lines on stdin")
	}

	p, unmount, err := opts.mountPersistent(cmd.Context())
	if err != nil {
		return err
	}
	for _, m := range messages {
		emit(m, title)
	}
	enabled := p.Config().Enabled
	// unmount saves before we report
	unmount()

	if !enabled {
		fmt.Fprintln(cmd.ErrOrStderr(), "Capture is disabled; nothing was logged")
		return nil
	}
	noun := "entries"
	if len(messages) == 1 {
		noun = "entry"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %d %s\n", len(messages), noun)
	return nil
}

func emitterFor(level string) (func(message, title string), error) {
	switch strings.ToLower(level) {
	case "debug":
		return func(m, t string) { console.Debug(m, t) }, nil
	case "error":
		return func(m, t string) { console.ErrorString(m, t) }, nil
	case "object":
		return func(m, t string) { console.Object(parsePayload(m), t) }, nil
	}
	return nil, fmt.Errorf("unknown level %q: expected debug, error or object", level)
}

func parsePayload(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
