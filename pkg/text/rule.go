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

package text

import (
	"context"
	"io"
)

// 🏷️ ActionKind identifies what a rule does with its matches
type ActionKind int

const (
	KindSubstitute           ActionKind = iota // regexp replace with a template
	KindLiteral                                // exact text replace
	KindStructuralInsert                       // insert a line into a located block
	KindParameterizedRewrite                   // call-site rewrite for a closed set of names
)

// String returns a string representation of ActionKind
func (k ActionKind) String() string {
	switch k {
	case KindSubstitute:
		return "substitute"
	case KindLiteral:
		return "literal"
	case KindStructuralInsert:
		return "structural-insert"
	case KindParameterizedRewrite:
		return "parameterized-rewrite"
	default:
		return "unknown"
	}
}

// Action transforms text. Apply must be a pure function of its input and the
// action's own parameters.
type Action interface {
	Kind() ActionKind
	Apply(src string) (string, RuleReport)
}

// Targeted is implemented by actions limited to a closed set of names
type Targeted interface {
	Targets() []string
}

// Rule is one named step of a rewrite pipeline
type Rule struct {
	// Name identifies the rule in reports
	Name string

	// Description is a human readable summary
	Description string

	// Action is the transformation to apply
	Action Action
}

// RuleSet is an ordered list of rules. Order is part of its meaning: later
// rules see the text produced by earlier ones.
type RuleSet []Rule

// Names returns the rule names in order
func (rs RuleSet) Names() []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	return names
}

// Diagnostic reports a match an action refused to rewrite
type Diagnostic struct {
	Rule    string // Rule that produced the diagnostic
	Line    int    // 1-based line of the match in the rule's input
	Message string // What was wrong
}

// RuleReport contains the outcome of applying one rule
type RuleReport struct {
	// Rule is the name of the rule
	Rule string

	// Kind is the rule's action kind
	Kind ActionKind

	// Matches is the number of pattern matches found
	Matches int

	// Applied is the number of edits made
	Applied int

	// Skipped is the number of matches left alone
	Skipped int

	// Diagnostics explains skipped matches that violated an input precondition
	Diagnostics []Diagnostic
}

// ZeroMatch reports whether the rule found nothing to act on
func (r RuleReport) ZeroMatch() bool {
	return r.Matches == 0
}

// Result contains the results of a rewrite
type Result struct {
	// WasModified indicates if any rule changed the text
	WasModified bool

	// ReplacementCount is the number of edits made across all rules
	ReplacementCount int

	// OriginalContent is the content before rewriting
	OriginalContent []byte

	// ModifiedContent is the content after rewriting
	ModifiedContent []byte

	// Reports holds one report per rule, in rule order
	Reports []RuleReport
}

// ZeroMatchRules returns the names of rules that matched nothing
func (r *Result) ZeroMatchRules() []string {
	var names []string
	for _, rep := range r.Reports {
		if rep.ZeroMatch() {
			names = append(names, rep.Rule)
		}
	}
	return names
}

// Diagnostics returns every diagnostic of every rule, in rule order
func (r *Result) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	for _, rep := range r.Reports {
		diags = append(diags, rep.Diagnostics...)
	}
	return diags
}

// Rewriter defines the interface for rule based rewriting
type Rewriter interface {
	// Rewrite applies a rule set to the content
	// Returns a Result containing the rewritten content and per-rule reports
	Rewrite(ctx context.Context, content io.Reader, rules RuleSet) (*Result, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules RuleSet) error
}
