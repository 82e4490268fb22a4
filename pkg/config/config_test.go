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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "yaml_full",
			file: "ctxmigrate.yaml",
			config: `
context_type: BoardContext
handle_name: run
handle_type: Run
ambient:
  - name: db
    type: Client
  - name: boardId
    type: string
functions:
  - createCard
  - moveCard
follow_ups:
  - Run the tests
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "BoardContext", cfg.ContextType, "context type should match")
				assert.Equal(t, "run", cfg.HandleName, "handle name should match")
				assert.Equal(t, "Run<BoardContext>", cfg.Handle(), "handle should combine type and context")
				assert.Equal(t, []Param{{Name: "db", Type: "Client"}, {Name: "boardId", Type: "string"}}, cfg.Ambient)
				assert.Equal(t, []string{"createCard", "moveCard"}, cfg.Functions)
				assert.Equal(t, []string{"Run the tests"}, cfg.FollowUps)
			},
		},
		{
			name:   "yaml_empty_uses_defaults",
			file:   "ctxmigrate.yml",
			config: "{}\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "RunContext<WheelContext>", cfg.Handle(), "handle should default")
				assert.Equal(t, "ctx", cfg.HandleName, "handle name should default")
				assert.Equal(t, DefaultAmbient, cfg.Ambient)
				assert.Equal(t, DefaultFunctions, cfg.Functions)
				assert.Equal(t, DefaultFollowUps, cfg.FollowUps)
			},
		},
		{
			name: "yaml_explicit_empty_functions",
			file: "ctxmigrate.yaml",
			config: `
functions: []
`,
			check: func(t *testing.T, cfg *Config) {
				assert.NotNil(t, cfg.Functions, "explicit empty list should be kept")
				assert.Empty(t, cfg.Functions, "no call sites should be rewritten")
			},
		},
		{
			name: "yaml_unknown_field",
			file: "ctxmigrate.yaml",
			config: `
context: WheelContext
`,
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name: "hcl_concat_defaults",
			file: "ctxmigrate.hcl",
			config: `
handle_name = "run"

ambient {
  name = "db"
  type = "any"
}

ambient {
  name = "boardId"
  type = "string"
}

functions = concat(default_functions, ["archiveRing"])
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "run", cfg.HandleName, "handle name should match")
				assert.Equal(t, "db", cfg.Ambient[0].Name, "first ambient should match")
				assert.Len(t, cfg.Functions, len(DefaultFunctions)+1, "defaults plus one")
				assert.Equal(t, "archiveRing", cfg.Functions[len(cfg.Functions)-1])
				assert.Equal(t, DefaultFollowUps, cfg.FollowUps)
			},
		},
		{
			name:        "hcl_syntax_error",
			file:        "ctxmigrate.hcl",
			config:      `context_type = `,
			wantErr:     true,
			errContains: "parsing HCL",
		},
		{
			name:        "hcl_unknown_attribute",
			file:        "ctxmigrate.hcl",
			config:      `destination = "x"`,
			wantErr:     true,
			errContains: "decoding HCL",
		},
		{
			name:   "json",
			file:   "ctxmigrate.json",
			config: `{"context_type": "BoardContext", "functions": ["createCard"]}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "BoardContext", cfg.ContextType)
				assert.Equal(t, []string{"createCard"}, cfg.Functions)
				assert.Equal(t, DefaultAmbient, cfg.Ambient)
			},
		},
		{
			name:        "json_unknown_field",
			file:        "ctxmigrate.json",
			config:      `{"contextType": "BoardContext"}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:        "unsupported_extension",
			file:        "ctxmigrate.toml",
			config:      `context_type = "x"`,
			wantErr:     true,
			errContains: "no parser found",
		},
		{
			name: "invalid_after_parse",
			file: "ctxmigrate.yaml",
			config: `
ambient:
  - name: supabase
    type: any
`,
			wantErr:     true,
			errContains: "validating config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp config file
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			err := os.WriteFile(path, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			// Load config
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
			cfg, err := Load(ctx, path)

			if tt.wantErr {
				require.Error(t, err, "loading config should fail")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "loading config should succeed")
			require.NotNil(t, cfg, "config should not be nil")
			assert.Equal(t, path, cfg.Location(), "location should be recorded")
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{
			name: "defaults",
			cfg:  Config{},
		},
		{
			name:        "bad_context_type",
			cfg:         Config{ContextType: "Wheel Context"},
			errContains: `context_type "Wheel Context" is not an identifier`,
		},
		{
			name:        "bad_handle_name",
			cfg:         Config{HandleName: "1ctx"},
			errContains: "handle_name",
		},
		{
			name:        "three_ambient",
			cfg:         Config{Ambient: []Param{{"a", "any"}, {"b", "any"}, {"c", "any"}}},
			errContains: "exactly 2 parameters, got 3",
		},
		{
			name:        "ambient_missing_type",
			cfg:         Config{Ambient: []Param{{"a", "any"}, {"b", " "}}},
			errContains: "ambient[1].type is required",
		},
		{
			name:        "ambient_bad_name",
			cfg:         Config{Ambient: []Param{{"a-b", "any"}, {"b", "any"}}},
			errContains: "ambient[0].name",
		},
		{
			name:        "ambient_duplicate",
			cfg:         Config{Ambient: []Param{{"a", "any"}, {"a", "string"}}},
			errContains: "distinct names",
		},
		{
			name:        "bad_function",
			cfg:         Config{Functions: []string{"ok", "not ok"}},
			errContains: `functions[1] "not ok"`,
		},
		{
			name: "dollar_identifiers",
			cfg:  Config{HandleName: "$ctx", Functions: []string{"$get"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "RunContext<WheelContext>", cfg.Handle())
	assert.Empty(t, cfg.Location(), "defaults have no location")
	assert.Equal(t, "(supabase, wheelId) -> ctx: RunContext<WheelContext> [14 functions]", cfg.String())

	// defaults must not alias the package-level slices
	cfg.Functions[0] = "changed"
	assert.Equal(t, "createActivity", DefaultFunctions[0])
}

func TestGetParser(t *testing.T) {
	assert.IsType(t, &YAMLParser{}, GetParser("a.yaml"))
	assert.IsType(t, &YAMLParser{}, GetParser("a.yml"))
	assert.IsType(t, &HCLParser{}, GetParser("a.hcl"))
	assert.IsType(t, &JSONParser{}, GetParser("a.JSON"))
	assert.Nil(t, GetParser("a.toml"))
}
