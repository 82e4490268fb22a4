package commands

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/opts"
	"github.com/walteh/ctxmigrate/pkg/operation"
)

func NewBatchCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		glob        string
		suffix      string
		dryRun      bool
		backup      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Rewrite every file a glob matches",
		Long: `Batch rewrites every file matching --glob into a sibling file named with --suffix.
index.ts.backup becomes index` + operation.DefaultSuffix + `.ts. Files already named with the
suffix are skipped, so running batch twice does not rewrite its own output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "batch").Logger().WithContext(ctx)

			logger := opts.Logger(cmd.OutOrStdout())
			logger.Header("batch " + glob)

			batch, err := operation.NewBatchOperation(operation.Options{
				Config:    opts.Config,
				DryRun:    dryRun,
				Backup:    backup,
				StatusMgr: opts.StatusMgr,
				Logger:    logger,
				Diff:      cmd.OutOrStdout(),
			}, glob, suffix, operation.NewRunner(concurrency != 1, concurrency))
			if err != nil {
				return errors.Errorf("preparing batch: %w", err)
			}

			if err := batch.Execute(ctx); err != nil {
				return errors.Errorf("batch %q: %w", glob, err)
			}

			logger.Successf("%d files processed", len(batch.Operations()))
			return nil
		},
	}

	cmd.Flags().StringVar(&glob, "glob", "", "doublestar pattern of files to rewrite, e.g. 'supabase/functions/**/index.ts.backup'")
	cmd.Flags().StringVar(&suffix, "suffix", operation.DefaultSuffix, "suffix added before the extension of each output")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print unified diffs instead of writing")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep .bak copies of outputs that are about to change")
	cmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "files rewritten at once; 1 runs in order")
	_ = cmd.MarkFlagRequired("glob")

	return cmd
}
