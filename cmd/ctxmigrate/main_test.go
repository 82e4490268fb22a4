// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/commands"
	"github.com/walteh/ctxmigrate/pkg/ruleset"
)

const input = `async function createActivity(supabase: any, wheelId: string, args: Args) {
  doWork()
}

async function archiveRing(supabase: any, wheelId: string) {
  return done()
}

await createActivity(supabase, wheelId, input)
await archiveRing(supabase, wheelId)
`

const output = `async function createActivity(ctx: RunContext<WheelContext>, args: Args) {
  const { supabase, wheelId } = ctx.context
  doWork()
}

async function archiveRing(ctx: RunContext<WheelContext>) {
  const { supabase, wheelId } = ctx.context
  return done()
}

await createActivity(ctx, input)
await archiveRing(supabase, wheelId)
`

// 🧪 run executes the command tree with args and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableStyling()
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRewriteCmd(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		args        func(dir string) []string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, dir, stdout, stderr string)
	}{
		{
			name: "explicit_paths",
			args: func(dir string) []string {
				return []string{"rewrite", filepath.Join(dir, "index.ts.backup"), filepath.Join(dir, "out.ts")}
			},
			validate: func(t *testing.T, dir, stdout, stderr string) {
				assert.Equal(t, output, readFile(t, filepath.Join(dir, "out.ts")))
				assert.Contains(t, stdout, "ctxmigrate • rewrite")
				assert.Contains(t, stdout, ruleset.SignatureArgs)
				assert.Contains(t, stdout, "Refactored "+filepath.Join(dir, "index.ts.backup")+" -> "+filepath.Join(dir, "out.ts"))
				assert.Contains(t, stdout, "Next steps:")
			},
		},
		{
			name: "dry_run",
			args: func(dir string) []string {
				return []string{"rewrite", "--dry-run", filepath.Join(dir, "index.ts.backup"), filepath.Join(dir, "out.ts")}
			},
			validate: func(t *testing.T, dir, stdout, stderr string) {
				assert.NoFileExists(t, filepath.Join(dir, "out.ts"))
				assert.Contains(t, stdout, "+await createActivity(ctx, input)")
			},
		},
		{
			name: "stdout",
			args: func(dir string) []string {
				return []string{"rewrite", filepath.Join(dir, "index.ts.backup"), "-"}
			},
			validate: func(t *testing.T, dir, stdout, stderr string) {
				assert.Equal(t, output, stdout, "only the rewritten text goes to stdout")
				assert.Contains(t, stderr, ruleset.CallSites, "the report goes to stderr")
			},
		},
		{
			name: "config_extends_functions",
			config: `
functions:
  - createActivity
  - archiveRing
`,
			args: func(dir string) []string {
				return []string{"rewrite", "-c", filepath.Join(dir, "ctxmigrate.yaml"), filepath.Join(dir, "index.ts.backup"), "-"}
			},
			validate: func(t *testing.T, dir, stdout, stderr string) {
				assert.Contains(t, stdout, "await archiveRing(ctx)\n")
			},
		},
		{
			name:   "bad_config",
			config: "unknown_key: 1\n",
			args: func(dir string) []string {
				return []string{"rewrite", "--config", filepath.Join(dir, "ctxmigrate.yaml"), filepath.Join(dir, "index.ts.backup")}
			},
			wantErr:     true,
			errContains: "loading config",
		},
		{
			name: "missing_input",
			args: func(dir string) []string {
				return []string{"rewrite", filepath.Join(dir, "nope.ts"), filepath.Join(dir, "out.ts")}
			},
			wantErr:     true,
			errContains: "opening",
		},
		{
			name: "too_many_args",
			args: func(dir string) []string {
				return []string{"rewrite", "a", "b", "c"}
			},
			wantErr:     true,
			errContains: "accepts at most 2 arg(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "index.ts.backup"), input)
			if tt.config != "" {
				writeFile(t, filepath.Join(dir, "ctxmigrate.yaml"), tt.config)
			}

			stdout, stderr, err := run(t, tt.args(dir)...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err, "stderr: %s", stderr)
			tt.validate(t, dir, stdout, stderr)
		})
	}
}

func TestRewriteCmd_DefaultPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, commands.DefaultInput), input)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, _, err = run(t, "rewrite")
	require.NoError(t, err)
	assert.Equal(t, output, readFile(t, filepath.Join(dir, commands.DefaultOutput)))
}

func TestBatchCmd(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"one", "two"} {
		writeFile(t, filepath.Join(dir, fn, "index.ts.backup"), input)
	}

	stdout, _, err := run(t, "batch", "--glob", filepath.Join(dir, "**", "index.ts.backup"), "--concurrency", "2")
	require.NoError(t, err)

	for _, fn := range []string{"one", "two"} {
		assert.Equal(t, output, readFile(t, filepath.Join(dir, fn, "index-refactored.ts")))
	}
	assert.Contains(t, stdout, "2 files processed")

	_, _, err = run(t, "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "glob" not set`)
}

func TestRulesCmd(t *testing.T) {
	stdout, _, err := run(t, "rules")
	require.NoError(t, err)

	assert.Contains(t, stdout, "(supabase, wheelId) -> ctx: RunContext<WheelContext>")
	assert.Contains(t, stdout, "Targets")
	assert.Contains(t, stdout, "createActivity, ", "the call-site rule lists its callees")

	// every rule listed, in order
	last := -1
	for _, name := range []string{
		ruleset.ContextShape,
		ruleset.SignatureArgs,
		ruleset.SignatureParam,
		ruleset.SignaturePair,
		ruleset.BodyDestructure,
		ruleset.ExecuteCallbacks,
		ruleset.CallSites,
		ruleset.AgentGenericNew,
		ruleset.AgentGenericCreate,
	} {
		idx := strings.Index(stdout, name+" ")
		require.GreaterOrEqual(t, idx, 0, "rule %s should be listed", name)
		assert.Greater(t, idx, last, "rule %s should come after the previous one", name)
		last = idx
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ctxmigrate version info")

	stdout, _, err = run(t, "version", "--json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
