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
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔄 substitute replaces every match of a pattern with an expanded template
type substitute struct {
	re       *regexp.Regexp
	template string
}

// Substitute creates an action replacing each match of pattern with template.
// The template may reference capture groups as $1 or ${name}.
func Substitute(pattern, template string) (Action, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return &substitute{re: re, template: template}, nil
}

func (s *substitute) Kind() ActionKind {
	return KindSubstitute
}

func (s *substitute) Apply(src string) (string, RuleReport) {
	out, matches, applied := expandAll(s.re, s.template, src)
	return out, RuleReport{
		Matches: matches,
		Applied: applied,
		Skipped: matches - applied,
	}
}

// expandAll behaves like ReplaceAllString but also counts matches and the
// matches whose replacement differs from the matched text.
func expandAll(re *regexp.Regexp, template, src string) (string, int, int) {
	idx := re.FindAllStringSubmatchIndex(src, -1)
	if len(idx) == 0 {
		return src, 0, 0
	}

	var b strings.Builder
	b.Grow(len(src))
	last, applied := 0, 0
	for _, m := range idx {
		b.WriteString(src[last:m[0]])
		repl := re.ExpandString(nil, template, src, m)
		if string(repl) != src[m[0]:m[1]] {
			applied++
		}
		b.Write(repl)
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String(), len(idx), applied
}

// 📌 literal replaces exact occurrences of an anchor text
type literal struct {
	anchor      string
	replacement string
}

// Literal creates an action replacing every verbatim occurrence of anchor.
// Any drift in the anchor's whitespace or ordering means no match.
func Literal(anchor, replacement string) (Action, error) {
	if anchor == "" {
		return nil, errors.Errorf("literal anchor is required")
	}
	return &literal{anchor: anchor, replacement: replacement}, nil
}

func (l *literal) Kind() ActionKind {
	return KindLiteral
}

func (l *literal) Apply(src string) (string, RuleReport) {
	n := strings.Count(src, l.anchor)
	if n == 0 {
		return src, RuleReport{}
	}
	report := RuleReport{Matches: n, Applied: n}
	if l.anchor == l.replacement {
		report.Applied, report.Skipped = 0, n
	}
	return strings.ReplaceAll(src, l.anchor, l.replacement), report
}

// CallForm is one argument-list shape of a parameterized rewrite.
//
// From is a regexp fragment matched against the whole argument list (the text
// between the call's parentheses); To is the replacement template for it.
// Both may use named groups, e.g. From `a, b, (?P<rest>[^)]+)`, To `c, ${rest}`.
type CallForm struct {
	From string
	To   string
}

// 🎯 parameterized rewrites call sites, but only for a closed set of callee names
type parameterized struct {
	targets []string
	forms   []*regexp.Regexp
	tmpls   []string
}

// ParameterizedRewrite creates an action rewriting calls to the listed names
// only. Calls to any other name are left as they are, even when their
// arguments have the same shape.
func ParameterizedRewrite(targets []string, forms ...CallForm) (Action, error) {
	p := &parameterized{targets: append([]string(nil), targets...)}
	if len(targets) == 0 {
		return p, nil
	}
	if len(forms) == 0 {
		return nil, errors.Errorf("at least one call form is required")
	}

	quoted := make([]string, 0, len(targets))
	for _, name := range targets {
		if name == "" {
			return nil, errors.Errorf("empty target name")
		}
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	callee := `\b(?P<callee>` + strings.Join(quoted, "|") + `)\(`

	for i, f := range forms {
		re, err := regexp.Compile(callee + f.From + `\)`)
		if err != nil {
			return nil, errors.Errorf("compiling call form %d: %w", i, err)
		}
		p.forms = append(p.forms, re)
		p.tmpls = append(p.tmpls, "${callee}("+f.To+")")
	}
	return p, nil
}

func (p *parameterized) Kind() ActionKind {
	return KindParameterizedRewrite
}

// Targets returns the closed set of names this action rewrites
func (p *parameterized) Targets() []string {
	return append([]string(nil), p.targets...)
}

func (p *parameterized) Apply(src string) (string, RuleReport) {
	var report RuleReport
	for i, re := range p.forms {
		out, matches, applied := expandAll(re, p.tmpls[i], src)
		report.Matches += matches
		report.Applied += applied
		report.Skipped += matches - applied
		src = out
	}
	return src, report
}
