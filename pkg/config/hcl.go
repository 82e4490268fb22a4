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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// evalContext exposes the built-in defaults so a config can extend rather
// than restate them, e.g. functions = concat(default_functions, ["archiveRing"])
func evalContext() *hcl.EvalContext {
	fns := make([]cty.Value, 0, len(DefaultFunctions))
	for _, fn := range DefaultFunctions {
		fns = append(fns, cty.StringVal(fn))
	}
	follow := make([]cty.Value, 0, len(DefaultFollowUps))
	for _, f := range DefaultFollowUps {
		follow = append(follow, cty.StringVal(f))
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"default_functions":  cty.ListVal(fns),
			"default_follow_ups": cty.ListVal(follow),
		},
		Functions: map[string]function.Function{
			"concat": stdlib.ConcatFunc,
		},
	}
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Define HCL schema
	type hclConfig struct {
		ContextType string `hcl:"context_type,optional"`
		HandleName  string `hcl:"handle_name,optional"`
		HandleType  string `hcl:"handle_type,optional"`
		Ambient     []struct {
			Name string `hcl:"name"`
			Type string `hcl:"type"`
		} `hcl:"ambient,block"`
		Functions []string `hcl:"functions,optional"`
		FollowUps []string `hcl:"follow_ups,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		ContextType: hclCfg.ContextType,
		HandleName:  hclCfg.HandleName,
		HandleType:  hclCfg.HandleType,
		Functions:   hclCfg.Functions,
		FollowUps:   hclCfg.FollowUps,
	}
	for _, a := range hclCfg.Ambient {
		cfg.Ambient = append(cfg.Ambient, Param{Name: a.Name, Type: a.Type})
	}

	return cfg, nil
}
