package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/opts"
	"github.com/walteh/ctxmigrate/pkg/operation"
	"github.com/walteh/ctxmigrate/pkg/status"
)

const (
	// DefaultInput is the backup of the agent entry point
	DefaultInput = "supabase/functions/ai-assistant-v2/index.ts.backup"
	// DefaultOutput sits next to DefaultInput
	DefaultOutput = "supabase/functions/ai-assistant-v2/index-refactored.ts"
)

func NewRewriteCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		dryRun bool
		backup bool
	)

	cmd := &cobra.Command{
		Use:   "rewrite [input] [output]",
		Short: "Rewrite one file to the RunContext convention",
		Long: `Rewrite reads input, applies every rule in order and writes output.
It will:
1. Open the input (a path, "-" for stdin, or github://owner/repo/path@ref)
2. Apply the rule set and print one line per rule
3. Write the output atomically ("-" for stdout), or print a diff with --dry-run
4. Print the manual steps left to do

Input defaults to ` + DefaultInput + `
and output to ` + DefaultOutput + `.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "rewrite").Logger().WithContext(ctx)

			input, output := DefaultInput, DefaultOutput
			if len(args) > 0 {
				input = args[0]
			}
			if len(args) > 1 {
				output = args[1]
			}

			// keep stdout clean for the rewritten text
			console := cmd.OutOrStdout()
			if output == status.Stdout {
				console = cmd.ErrOrStderr()
			}
			opts.StatusMgr.SetStdout(cmd.OutOrStdout())
			logger := opts.Logger(console)
			logger.Header("rewrite")

			op, err := operation.NewRewriteOperation(operation.Options{
				Source:      input,
				Destination: output,
				Config:      opts.Config,
				DryRun:      dryRun,
				Backup:      backup,
				StatusMgr:   opts.StatusMgr,
				Logger:      logger,
				Diff:        cmd.OutOrStdout(),
			})
			if err != nil {
				return errors.Errorf("preparing rewrite: %w", err)
			}

			if err := operation.NewRunner(false, 0).Run(ctx, op); err != nil {
				return errors.Errorf("rewriting %s: %w", input, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print a unified diff instead of writing")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep a .bak copy of an output that is about to change")

	return cmd
}
