package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/kcaldas/devconsole/pkg/view"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	var (
		level  string
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := view.NormalizeFilter(level)
			if !ok {
				return fmt.Errorf("unknown level %q: expected ALL, DEBUG, ERROR or OBJECT", level)
			}

			p, unmount, err := opts.mountPersistent(cmd.Context())
			if err != nil {
				return err
			}
			defer unmount()

			logs := view.Filter(p.State().Logs, filter, search)
			if limit > 0 && len(logs) > limit {
				logs = logs[len(logs)-limit:]
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No logs")
				return nil
			}
			for _, e := range logs {
				fmt.Fprintln(out, listLine(e))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", view.FilterAll, "only show ALL, DEBUG, ERROR or OBJECT entries")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive text to match in message or title")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only show the newest N matching entries")
	return cmd
}

func listLine(e types.Entry) string {
	return fmt.Sprintf("%s %s %-6s %s  [%s]", view.FormatTime(e), e.Level.Icon(), e.Level, view.Headline(e), shortID(e.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
