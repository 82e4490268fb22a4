/*
Package operation runs rewrites.

🎯 Purpose:
  - Reads one source through pkg/provider
  - Applies the rule set with pkg/text
  - Reports every rule through pkg/log
  - Hands the result to pkg/status, or prints a diff on a dry run

🔄 Flow:

	provider.Open ──► text.Engine.Rewrite ──► log.Logger.LogRule (per rule)
	                                     │
	                                     ├──► status.Manager.Commit ──► Notice + follow-ups
	                                     └──► Diff (dry run)

A BatchOperation expands a doublestar glob into sibling targets
(index.ts.backup becomes index-refactored.ts) and runs one RewriteOperation
per target through a Runner. In async mode each rewrite logs into its own
buffer, so the console shows whole blocks per file.

🔍 Example:

	op, err := operation.NewRewriteOperation(operation.Options{
		Source:      "supabase/functions/ai-assistant-v2/index.ts.backup",
		Destination: "supabase/functions/ai-assistant-v2/index-refactored.ts",
		Logger:      log.New(os.Stdout, zerolog.InfoLevel),
	})
	if err != nil {
		return err
	}
	return operation.NewRunner(false, 0).Run(ctx, op)
*/
package operation
