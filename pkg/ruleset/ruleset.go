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

// Package ruleset declares the ordered rules that move TypeScript helpers
// from an explicit ambient parameter pair to a single RunContext handle.
package ruleset

import (
	"fmt"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/pkg/config"
	"github.com/walteh/ctxmigrate/pkg/text"
)

// Rule names, in application order
const (
	ContextShape       = "context-shape"
	SignatureArgs      = "signature-args"
	SignatureParam     = "signature-param"
	SignaturePair      = "signature-pair"
	BodyDestructure    = "body-destructure"
	ExecuteCallbacks   = "execute-callbacks"
	CallSites          = "call-sites"
	AgentGenericNew    = "agent-generic-new"
	AgentGenericCreate = "agent-generic-create"
)

// lastSuggestions is the field appended to the context declaration
const lastSuggestions = `  lastSuggestions?: Array<{
    name: string
    startDate: string
    endDate: string
    ring: string
    group: string
  }>
`

type builder struct {
	cfg *config.Config

	first, second config.Param

	handle     string // e.g. RunContext<WheelContext>
	handleName string
}

// New builds the rule set for cfg. Order is part of the contract: the
// signature variants run most specific first, and the body insert only sees
// declarations the signature rules produced.
func New(cfg *config.Config) (text.RuleSet, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	b := &builder{
		cfg:        cfg,
		first:      cfg.Ambient[0],
		second:     cfg.Ambient[1],
		handle:     cfg.Handle(),
		handleName: cfg.HandleName,
	}

	steps := []struct {
		name        string
		description string
		build       func() (text.Action, error)
	}{
		{ContextShape, "append lastSuggestions to the verbatim " + cfg.ContextType + " declaration", b.contextShape},
		{SignatureArgs, "collapse the ambient pair in declarations ending with args, keeping layout", b.signatureArgs},
		{SignatureParam, "collapse the ambient pair in declarations with one more parameter", b.signatureParam},
		{SignaturePair, "collapse any remaining leading ambient pair", b.signaturePair},
		{BodyDestructure, "restore the ambient names at the top of each rewritten body", b.bodyDestructure},
		{ExecuteCallbacks, "replace the destructured ambient pair in tool execute callbacks", b.executeCallbacks},
		{CallSites, fmt.Sprintf("pass %s instead of the ambient pair to %d known helpers", b.handleName, len(cfg.Functions)), b.callSites},
		{AgentGenericNew, "type new Agent constructions with " + cfg.ContextType, b.agentNew},
		{AgentGenericCreate, "type Agent.create constructions with " + cfg.ContextType, b.agentCreate},
	}

	rules := make(text.RuleSet, 0, len(steps))
	for _, s := range steps {
		action, err := s.build()
		if err != nil {
			return nil, errors.Errorf("building rule %s: %w", s.name, err)
		}
		rules = append(rules, text.Rule{Name: s.name, Description: s.description, Action: action})
	}
	return rules, nil
}

// tmpl escapes s for use inside a regexp replacement template
func tmpl(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// param renders "name: type" as a pattern
func param(p config.Param) string {
	return regexp.QuoteMeta(p.Name) + `: ` + regexp.QuoteMeta(p.Type)
}

func (b *builder) handleParam() string {
	return tmpl(b.handleName + ": " + b.handle)
}

// DestructureLine is the statement inserted at the top of rewritten bodies
func DestructureLine(cfg *config.Config) string {
	return fmt.Sprintf("const { %s, %s } = %s.context", cfg.Ambient[0].Name, cfg.Ambient[1].Name, cfg.HandleName)
}

func (b *builder) contextShape() (text.Action, error) {
	fields := fmt.Sprintf("  %s: %s\n  %s: %s\n  userId: string\n  currentYear: number\n",
		b.first.Name, b.first.Type, b.second.Name, b.second.Type)
	head := "interface " + b.cfg.ContextType + " {\n"
	return text.Literal(head+fields+"}", head+fields+lastSuggestions+"}")
}

func (b *builder) signatureArgs() (text.Action, error) {
	pattern := `async function (\w+)\((\s*)` + param(b.first) + `,\s*` + param(b.second) + `,(\s*)args: ([^)]+)\)`
	return text.Substitute(pattern, `async function ${1}(${2}`+b.handleParam()+`,${3}args: ${4})`)
}

func (b *builder) signatureParam() (text.Action, error) {
	pattern := `async function (\w+)\(` + param(b.first) + `, ` + param(b.second) + `, (\w+: \w+)\)`
	return text.Substitute(pattern, `async function ${1}(`+b.handleParam()+`, ${2})`)
}

// signaturePair needs the second type to end at "," or ")" so that
// "string | null" or "stringId" are not taken for the ambient pair
func (b *builder) signaturePair() (text.Action, error) {
	pattern := `async function (\w+)\(\s*` + param(b.first) + `,\s*` + param(b.second) + `\s*([,)])`
	return text.Substitute(pattern, `async function ${1}(`+b.handleParam()+`${2}`)
}

func (b *builder) bodyDestructure() (text.Action, error) {
	pattern := `async function (\w+)\(\s*` + regexp.QuoteMeta(b.handleName+": "+b.handle)
	line := DestructureLine(b.cfg)
	return text.StructuralInsert(pattern, line, line, text.BraceBlock())
}

func (b *builder) executeCallbacks() (text.Action, error) {
	pattern := `execute: async \((\w+), \{ ` + regexp.QuoteMeta(b.first.Name) + `, ` + regexp.QuoteMeta(b.second.Name) + ` \}\)`
	return text.Substitute(pattern, `execute: async (${1}, `+b.handleParam()+`)`)
}

func (b *builder) callSites() (text.Action, error) {
	pair := regexp.QuoteMeta(b.first.Name) + `, ` + regexp.QuoteMeta(b.second.Name)
	return text.ParameterizedRewrite(b.cfg.Functions,
		text.CallForm{From: pair + `, (?P<rest>[^)]+)`, To: tmpl(b.handleName) + `, ${rest}`},
		text.CallForm{From: pair, To: tmpl(b.handleName)},
	)
}

func (b *builder) agentNew() (text.Action, error) {
	return text.Substitute(`const (\w+Agent) = new Agent\(\{`, `const ${1} = new Agent<`+tmpl(b.cfg.ContextType)+`>({`)
}

func (b *builder) agentCreate() (text.Action, error) {
	return text.Substitute(`const (\w+Agent) = Agent\.create\(\{`, `const ${1} = Agent.create<`+tmpl(b.cfg.ContextType)+`>({`)
}

// FollowUps returns the manual steps left after a run: the configured list,
// then one entry per rule that matched nothing and per skipped insert.
func FollowUps(cfg *config.Config, result *text.Result) []string {
	if cfg == nil {
		cfg = config.Default()
	}
	out := append([]string(nil), cfg.FollowUps...)
	if result == nil {
		return out
	}
	for _, name := range result.ZeroMatchRules() {
		out = append(out, fmt.Sprintf("Rule %s matched nothing; check the input for drifted formatting", name))
	}
	for _, d := range result.Diagnostics() {
		out = append(out, fmt.Sprintf("Line %d: %s (%s)", d.Line, d.Message, d.Rule))
	}
	return out
}
