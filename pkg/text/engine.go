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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Engine implements Rewriter by applying each rule in order to the output of
// the previous one
type Engine struct{}

// NewEngine creates a new Engine
func NewEngine() *Engine {
	return &Engine{}
}

// Apply runs the rules over src and returns the final text with one report
// per rule. A rule that matches nothing leaves the text as it was.
func (e *Engine) Apply(src string, rules RuleSet) (string, []RuleReport) {
	reports := make([]RuleReport, 0, len(rules))
	current := src
	for _, rule := range rules {
		next, report := rule.Action.Apply(current)
		report.Rule = rule.Name
		report.Kind = rule.Action.Kind()
		for i := range report.Diagnostics {
			report.Diagnostics[i].Rule = rule.Name
		}
		reports = append(reports, report)
		current = next
	}
	return current, reports
}

// Rewrite implements Rewriter.Rewrite
func (e *Engine) Rewrite(ctx context.Context, content io.Reader, rules RuleSet) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := e.ValidateRules(rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	modified, reports := e.Apply(string(originalContent), rules)

	result := &Result{
		OriginalContent: originalContent,
		ModifiedContent: []byte(modified),
		WasModified:     modified != string(originalContent),
		Reports:         reports,
	}

	for _, rep := range reports {
		result.ReplacementCount += rep.Applied

		evt := logger.Debug()
		if rep.ZeroMatch() {
			evt = logger.Warn()
		}
		evt.Str("rule", rep.Rule).
			Str("kind", rep.Kind.String()).
			Int("matches", rep.Matches).
			Int("applied", rep.Applied).
			Int("skipped", rep.Skipped).
			Int("diagnostics", len(rep.Diagnostics)).
			Msg("rule applied")
	}

	return result, nil
}

// ValidateRules implements Rewriter.ValidateRules
func (e *Engine) ValidateRules(rules RuleSet) error {
	seen := make(map[string]int, len(rules))
	for i, rule := range rules {
		if rule.Name == "" {
			return errors.Errorf("rule %d: name is required", i)
		}
		if rule.Action == nil {
			return errors.Errorf("rule %d (%s): action is required", i, rule.Name)
		}
		if prev, ok := seen[rule.Name]; ok {
			return errors.Errorf("rule %d: name %q already used by rule %d", i, rule.Name, prev)
		}
		seen[rule.Name] = i
	}
	return nil
}
