/*
Package status writes rewrite output and tracks what each write did.

	            +-------------+
	            |   Status    |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+             +-----+-----+
	|   Files   |             |  Tracked  |
	| atomic +  |             |  status + |
	|  .bak     |             |  progress |
	+-----------+             +-----------+

🎯 Purpose:
- Writes destinations atomically (temp file in the same directory, then rename)
- Backs up a differing destination to <path>.bak on request
- Classifies each destination as new, modified or unchanged
- Reports progress for batch runs

Nothing is written when rewriting fails, so an I/O error never leaves a
partial destination behind. The "-" destination writes to standard output.

🔍 Example:

	mgr := status.New("")
	info, err := mgr.Commit(ctx, "index-refactored.ts", out, true)
	if err != nil {
		return err
	}
	fmt.Println(info.Status) // new, modified or unchanged
*/
package status
