package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/commands"
	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/opts"
	"github.com/walteh/ctxmigrate/pkg/config"
	"github.com/walteh/ctxmigrate/pkg/status"
)

// rootFlags holds the persistent flags
type rootFlags struct {
	configFile string
	debug      bool
}

// newRootCmd builds the command tree. Options are loaded once flags are
// parsed, before any subcommand runs.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "ctxmigrate",
		Short: "Move TypeScript agent helpers from an ambient parameter pair to a RunContext handle",
		Long: `ctxmigrate rewrites TypeScript source that threads "supabase: any, wheelId: string"
through every helper so that the helpers take a single "ctx: RunContext<WheelContext>".

The rewrite is an ordered list of pattern rules. Each run prints what every rule
did, including rules that matched nothing, so formatting drift is visible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := setupLogging(cmd, flags.debug)

			loaded, err := newRootOpts(cmd.Context(), level, flags)
			if err != nil {
				return err
			}
			*rootOpts = *loaded
			return nil
		},
	}

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		commands.NewRewriteCmd(rootOpts),
		commands.NewBatchCmd(rootOpts),
		commands.NewRulesCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.yaml, .yml, .hcl or .json); built-in defaults when empty")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// setupLogging puts a zerolog logger on the command context. Structured
// logs stay quiet unless --debug is set; the console report covers the rest.
func setupLogging(cmd *cobra.Command, debug bool) zerolog.Level {
	level := zerolog.ErrorLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return level
}

// newRootOpts loads the configuration and creates shared dependencies
func newRootOpts(ctx context.Context, level zerolog.Level, flags *rootFlags) (*opts.RootOpts, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(ctx, flags.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	return &opts.RootOpts{
		Config:    cfg,
		StatusMgr: status.New(""),
		Level:     level,
	}, nil
}
