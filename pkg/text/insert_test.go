package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const destructure = "const { supabase, wheelId } = ctx.context"

func TestStructuralInsert(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		locator     Locator
		content     string
		want        string
		wantApplied int
		wantSkipped int
		wantDiags   []string
		wantLines   []int
	}{
		{
			name:        "inserts_after_opening_line",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H, args: A) {\n  doWork()\n}\n",
			want:        "async function f(ctx: H, args: A) {\n  " + destructure + "\n  doWork()\n}\n",
			wantApplied: 1,
		},
		{
			name:        "guard_already_present",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H) {\n  " + destructure + "\n  doWork()\n}\n",
			want:        "async function f(ctx: H) {\n  " + destructure + "\n  doWork()\n}\n",
			wantSkipped: 1,
		},
		{
			name:        "single_line_body",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H) { doWork() }\n",
			want:        "async function f(ctx: H) { doWork() }\n",
			wantSkipped: 1,
			wantDiags:   []string{"block spans a single line"},
			wantLines:   []int{1},
		},
		{
			name:        "code_after_opening_brace",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "// header\nasync function f(ctx: H) { doWork()\n}\n",
			want:        "// header\nasync function f(ctx: H) { doWork()\n}\n",
			wantSkipped: 1,
			wantDiags:   []string{"first line of block does not end with '{'"},
			wantLines:   []int{2},
		},
		{
			name:        "object_return_type",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H): Promise<{ ok: boolean }> {\n  return { ok: true }\n}\n",
			want:        "async function f(ctx: H): Promise<{ ok: boolean }> {\n  " + destructure + "\n  return { ok: true }\n}\n",
			wantApplied: 1,
		},
		{
			name:        "bare_object_return_type",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H): { ok: boolean } {\n  return { ok: true }\n}\n",
			want:        "async function f(ctx: H): { ok: boolean } {\n  " + destructure + "\n  return { ok: true }\n}\n",
			wantApplied: 1,
		},
		{
			name:        "multi_line_parameters_with_strings",
			pattern:     `async function (\w+)\(\s*ctx: H`,
			content:     "async function f(\n  ctx: H,\n  label = \")\",\n) {\n    work()\n}\n",
			want:        "async function f(\n  ctx: H,\n  label = \")\",\n) {\n    " + destructure + "\n    work()\n}\n",
			wantApplied: 1,
		},
		{
			name:        "empty_body",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H) {\n}\n",
			want:        "async function f(ctx: H) {\n  " + destructure + "\n}\n",
			wantApplied: 1,
		},
		{
			name:    "nested_functions",
			pattern: `async function (\w+)\(ctx: H`,
			content: "async function outer(ctx: H) {\n  async function inner(ctx: H) {\n    work()\n  }\n}\n",
			want: "async function outer(ctx: H) {\n  " + destructure +
				"\n  async function inner(ctx: H) {\n    " + destructure +
				"\n    work()\n  }\n}\n",
			wantApplied: 2,
		},
		{
			name:        "crlf_line_endings",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H) {\r\n  work()\r\n}\r\n",
			want:        "async function f(ctx: H) {\r\n  " + destructure + "\r\n  work()\r\n}\r\n",
			wantApplied: 1,
		},
		{
			name:        "declaration_without_body",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "declare async function f(ctx: H);\n",
			want:        "declare async function f(ctx: H);\n",
			wantSkipped: 1,
			wantDiags:   []string{"no block found after match"},
			wantLines:   []int{1},
		},
		{
			name:        "capture_block_opening_on_next_line",
			pattern:     `(async function \w+\(ctx: H\)\s*\{(?s:.*?)\n\})`,
			locator:     CaptureBlock(1),
			content:     "async function f(ctx: H)\n{\n  work()\n}\n",
			want:        "async function f(ctx: H)\n{\n  work()\n}\n",
			wantSkipped: 1,
			wantDiags:   []string{"first line of block does not end with '{'"},
			wantLines:   []int{1},
		},
		{
			name:        "brace_block_opening_on_next_line",
			pattern:     `async function (\w+)\(ctx: H`,
			content:     "async function f(ctx: H)\n{\n  work()\n}\n",
			want:        "async function f(ctx: H)\n{\n  " + destructure + "\n  work()\n}\n",
			wantApplied: 1,
		},
		{
			name:        "capture_block_declaration_line",
			pattern:     `(async function \w+\(ctx: H\) \{(?s:.*?)\n\})`,
			locator:     CaptureBlock(1),
			content:     "async function f(ctx: H) {\n  work()\n}\n",
			want:        "async function f(ctx: H) {\n  " + destructure + "\n  work()\n}\n",
			wantApplied: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := StructuralInsert(tt.pattern, destructure, destructure, tt.locator)
			require.NoError(t, err)
			assert.Equal(t, KindStructuralInsert, action.Kind())

			got, report := action.Apply(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantApplied+tt.wantSkipped, report.Matches, "matches")
			assert.Equal(t, tt.wantApplied, report.Applied, "applied")
			assert.Equal(t, tt.wantSkipped, report.Skipped, "skipped")

			var msgs []string
			var lines []int
			for _, d := range report.Diagnostics {
				msgs = append(msgs, d.Message)
				lines = append(lines, d.Line)
			}
			assert.Equal(t, tt.wantDiags, msgs, "diagnostics")
			assert.Equal(t, tt.wantLines, lines, "diagnostic lines")

			again, second := action.Apply(got)
			assert.Equal(t, got, again, "second application should be a no-op")
			assert.Zero(t, second.Applied)
		})
	}
}

func TestStructuralInsert_Errors(t *testing.T) {
	_, err := StructuralInsert(`(`, destructure, destructure, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling pattern")

	_, err = StructuralInsert(`f`, "  ", destructure, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert line is required")

	_, err = StructuralInsert(`f`, "a\nb", destructure, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single line")
}

func TestMatchClose(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		open   int
		want   int
		wantOK bool
	}{
		{name: "simple", src: "(a)", open: 0, want: 2, wantOK: true},
		{name: "nested", src: "f(a(b), [c], {d})", open: 1, want: 16, wantOK: true},
		{name: "string_with_paren", src: `(")" + ')')`, open: 0, want: 10, wantOK: true},
		{name: "template_hole", src: "(`${g(1)} )` + x)", open: 0, want: 16, wantOK: true},
		{name: "line_comment", src: "( // )\n)", open: 0, want: 7, wantOK: true},
		{name: "block_comment", src: "( /* ) */ )", open: 0, want: 10, wantOK: true},
		{name: "mismatched", src: "(]", open: 0, want: 1, wantOK: false},
		{name: "unterminated", src: "(a", open: 0, want: 2, wantOK: false},
		{name: "not_a_delimiter", src: "a", open: 0, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchClose(tt.src, tt.open)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
