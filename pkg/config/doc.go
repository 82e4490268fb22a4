/*
Package config describes the migration a rewrite performs.

	            +-------------+
	            |   Config    |
	            | (Handle +   |
	            |  Ambient)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Names the ambient parameter pair that is collapsed into one handle
- Names the handle and its generic context type
- Lists the closed world of helper functions whose call sites change
- Lists the manual follow-ups printed after a run

An empty config reproduces the built-in WheelContext migration. Missing
fields fall back to defaults in Validate; an explicit empty functions list
disables call-site rewriting.

🔍 Example:

	# ctxmigrate.hcl
	context_type = "WheelContext"

	ambient {
		name = "supabase"
		type = "any"
	}
	ambient {
		name = "wheelId"
		type = "string"
	}

	functions = concat(default_functions, ["archiveRing"])
*/
package config
