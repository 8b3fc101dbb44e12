package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/kcaldas/devconsole/pkg/view"
)

func newShowCommand(opts *globalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render one stored entry with its stack trace or payload",
		Long:  "Render one stored entry. The id may be abbreviated to any unique prefix, as printed by list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, unmount, err := opts.mountPersistent(cmd.Context())
			if err != nil {
				return err
			}
			defer unmount()

			e, err := findEntry(p.State().Logs, args[0])
			if err != nil {
				return err
			}

			md := view.Markdown(e)
			out := cmd.OutOrStdout()
			if raw || !isTerminal(out) {
				fmt.Fprint(out, md)
				return nil
			}
			fmt.Fprint(out, renderMarkdown(md))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

// findEntry returns the entry whose id equals or uniquely starts with prefix
func findEntry(logs []types.Entry, prefix string) (types.Entry, error) {
	var matches []types.Entry
	for _, e := range logs {
		if e.ID == prefix {
			return e, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return types.Entry{}, fmt.Errorf("no entry with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return types.Entry{}, fmt.Errorf("id prefix %q is ambiguous (%d entries)", prefix, len(matches))
	}
}

func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logging.LogError(logging.GetGlobalLogger(), "Failed to create markdown renderer", err)
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		logging.LogError(logging.GetGlobalLogger(), "Failed to render markdown", err)
		return md
	}
	return rendered
}
