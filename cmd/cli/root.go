package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kcaldas/devconsole/cmd/di"
	"github.com/kcaldas/devconsole/pkg/config"
	"github.com/kcaldas/devconsole/pkg/console"
	"github.com/kcaldas/devconsole/pkg/logging"
	"github.com/kcaldas/devconsole/pkg/provider"
	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/kcaldas/devconsole/pkg/version"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configPath string
	driver     string
	dataDir    string
	verbose    bool
	quiet      bool
}

// settings resolves the effective settings: file, then env, then flags
func (o *globalOptions) settings() (config.Settings, error) {
	s, err := config.Load(o.configPath)
	if err != nil {
		return s, err
	}
	if o.driver != "" {
		s.Driver = o.driver
		s.Persistence = types.Ptr(true)
	}
	if o.dataDir != "" {
		s.DataDir = o.dataDir
	}
	if _, err := s.Patch(); err != nil {
		return s, err
	}
	return s, nil
}

// mountPersistent mounts a provider over the stored entries and waits until
// they have been restored. The returned function unmounts it.
func (o *globalOptions) mountPersistent(ctx context.Context) (*provider.Provider, func(), error) {
	s, err := o.settings()
	if err != nil {
		return nil, nil, err
	}
	s.Persistence = types.Ptr(true)

	p, cleanup, err := di.InjectProvider(s)
	if err != nil {
		return nil, nil, err
	}
	if err := p.WaitLoaded(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load stored logs: %w", err)
	}
	return p, cleanup, nil
}

// NewRootCommand builds the devconsole command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	var demo bool

	rootCmd := &cobra.Command{
		Use:   "devconsole",
		Short: "In-app developer log console",
		Long: `devconsole captures debug messages, errors and objects, keeps them in a bounded
list and optionally persists them across sessions.

Run without a subcommand to open the interactive panel.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var logger logging.Logger
			if opts.quiet {
				logger = logging.NewQuietLogger()
			} else if opts.verbose {
				logger = logging.NewVerboseLogger()
			} else if cmd == cmd.Root() {
				// the panel owns the terminal, so diagnostics go to a file
				logger = logging.NewFileLoggerFromEnv("devconsole-debug.log")
			} else {
				logger = logging.NewDefaultLogger()
			}
			logging.SetGlobalLogger(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(opts, demo)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default ~/.devconsole/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "storage driver: localStorage, indexedDB (sqlite) or pebble; enables persistence")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "dir", "", "directory for stored logs (default ~/.devconsole)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output (debug level)")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "quiet output (errors only)")
	rootCmd.Flags().BoolVar(&demo, "demo", false, "emit sample logs on start")

	rootCmd.AddCommand(
		newEmitCommand(opts),
		newListCommand(opts),
		newShowCommand(opts),
		newExportCommand(opts),
		newClearCommand(opts),
		newVersionCommand(),
	)
	return rootCmd
}

func runPanel(opts *globalOptions, demo bool) error {
	s, err := opts.settings()
	if err != nil {
		return err
	}
	if demo {
		emitDemo()
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	app, cleanup, err := di.InjectTUI(s, di.ExportDir(wd))
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Run()
}

// emitDemo logs a few sample entries through the facade. They are buffered
// until the panel's provider mounts.
func emitDemo() {
	console.Debug("Logger initialized")
	console.Debug("Basic debug message")
	console.Error(errors.New("Sample error with stack trace"))
	console.Object(map[string]any{
		"id":     123,
		"status": "active",
		"meta":   map[string]any{"source": "demo"},
	}, "Test Object")
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo())
		},
	}
}
