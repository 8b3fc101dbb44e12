package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, unmount, err := opts.mountPersistent(cmd.Context())
			if err != nil {
				return err
			}
			n := len(p.State().Logs)
			p.Clear()
			unmount()

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
			return nil
		},
	}
}
