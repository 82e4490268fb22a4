/*
Package provider opens the source text a rewrite reads.

	            +-------------+
	            |  Provider   |
	            |  (Source)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+             +-----+-----+
	|  GitHub   |             |   File    |
	| github:// |             | path / -  |
	+-----------+             +-----------+

🎯 Purpose:
- Maps a location's scheme to a registered Provider
- Reads local files and standard input ("-")
- Reads single files from GitHub (package provider/github)

Providers are registered from init functions, so the GitHub provider is only
available once its package is imported.

🔍 Example:

	rc, err := provider.Open(ctx, "github://walteh/yearwheel/index.ts@main")
	if err != nil {
		return err
	}
	defer rc.Close()
*/
package provider
