package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored entries to logs_<timestamp>.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, unmount, err := opts.mountPersistent(cmd.Context())
			if err != nil {
				return err
			}
			defer unmount()

			path, err := p.ExportFile(outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(p.State().Logs), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the export to")
	return cmd
}
