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
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Defaults for the RunContext migration
const (
	DefaultContextType = "WheelContext"
	DefaultHandleName  = "ctx"
	DefaultHandleType  = "RunContext"
)

// DefaultFunctions is the closed-world list of helpers whose call sites are
// rewritten
var DefaultFunctions = []string{
	"createActivity", "createRing", "createGroup", "createLabel",
	"updateActivity", "updateRing", "updateGroup", "updateLabel",
	"deleteActivity", "deleteRing", "deleteGroup", "deleteLabel",
	"getCurrentRingsAndGroups", "getCurrentDate",
}

// DefaultAmbient is the parameter pair collapsed into the handle
var DefaultAmbient = []Param{
	{Name: "supabase", Type: "any"},
	{Name: "wheelId", Type: "string"},
}

// DefaultFollowUps are the manual steps left after a rewrite
var DefaultFollowUps = []string{
	"Import RunContext from the agents SDK where WheelContext is declared",
	"Add the destructuring line by hand to every function reported as skipped",
	"Build the RunContext where the orchestrator agent is run and pass it instead of the ambient pair",
	"Review and test the output",
}

// 🧩 Param is one typed parameter of the ambient pair
type Param struct {
	Name string `json:"name" yaml:"name" hcl:"name"`
	Type string `json:"type" yaml:"type" hcl:"type"`
}

// 📚 Config represents the complete configuration
type Config struct {
	ContextType string   `json:"context_type,omitempty" yaml:"context_type,omitempty"` // Context interface name, e.g. WheelContext
	HandleName  string   `json:"handle_name,omitempty" yaml:"handle_name,omitempty"`   // Name of the handle parameter
	HandleType  string   `json:"handle_type,omitempty" yaml:"handle_type,omitempty"`   // Generic wrapper of the context type
	Ambient     []Param  `json:"ambient,omitempty" yaml:"ambient,omitempty"`           // The two parameters replaced by the handle
	Functions   []string `json:"functions,omitempty" yaml:"functions,omitempty"`       // Closed-world list of rewritten callees
	FollowUps   []string `json:"follow_ups,omitempty" yaml:"follow_ups,omitempty"`     // Manual steps printed after a run

	location string
}

// Default returns the configuration reproducing the built-in rule set
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	// Set defaults
	if cfg.ContextType == "" {
		cfg.ContextType = DefaultContextType
	}
	if cfg.HandleName == "" {
		cfg.HandleName = DefaultHandleName
	}
	if cfg.HandleType == "" {
		cfg.HandleType = DefaultHandleType
	}
	if len(cfg.Ambient) == 0 {
		cfg.Ambient = append([]Param(nil), DefaultAmbient...)
	}
	if cfg.Functions == nil {
		cfg.Functions = append([]string(nil), DefaultFunctions...)
	}
	if cfg.FollowUps == nil {
		cfg.FollowUps = append([]string(nil), DefaultFollowUps...)
	}

	// Check fields
	for field, name := range map[string]string{
		"context_type": cfg.ContextType,
		"handle_name":  cfg.HandleName,
		"handle_type":  cfg.HandleType,
	} {
		if !identifier.MatchString(name) {
			return errors.Errorf("%s %q is not an identifier", field, name)
		}
	}
	if len(cfg.Ambient) != 2 {
		return errors.Errorf("ambient must list exactly 2 parameters, got %d", len(cfg.Ambient))
	}
	for i, p := range cfg.Ambient {
		if !identifier.MatchString(p.Name) {
			return errors.Errorf("ambient[%d].name %q is not an identifier", i, p.Name)
		}
		if strings.TrimSpace(p.Type) == "" {
			return errors.Errorf("ambient[%d].type is required", i)
		}
	}
	if cfg.Ambient[0].Name == cfg.Ambient[1].Name {
		return errors.Errorf("ambient parameters must have distinct names")
	}
	for i, fn := range cfg.Functions {
		if !identifier.MatchString(fn) {
			return errors.Errorf("functions[%d] %q is not an identifier", i, fn)
		}
	}

	return nil
}

// Handle returns the handle's type expression, e.g. RunContext<WheelContext>
func (cfg *Config) Handle() string {
	return cfg.HandleType + "<" + cfg.ContextType + ">"
}

// Location returns the file the config was loaded from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	names := make([]string, 0, len(cfg.Ambient))
	for _, p := range cfg.Ambient {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("(%s) -> %s: %s [%d functions]", strings.Join(names, ", "), cfg.HandleName, cfg.Handle(), len(cfg.Functions))
}
