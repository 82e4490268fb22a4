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
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔍 Locator finds the block a structural insert works on.
//
// m holds the submatch indexes of the rule's pattern, as returned by
// regexp.FindStringSubmatchIndex. The returned block is src[start:end].
type Locator interface {
	Locate(src string, m []int) (start, end int, ok bool)
}

type captureBlock int

// CaptureBlock locates the block as capture group n of the rule's pattern.
// The pattern alone decides where the block starts and ends.
func CaptureBlock(n int) Locator {
	return captureBlock(n)
}

func (g captureBlock) Locate(src string, m []int) (int, int, bool) {
	i := int(g) * 2
	if i+1 >= len(m) || m[i] < 0 {
		return 0, 0, false
	}
	return m[i], m[i+1], true
}

type braceBlock struct{}

// BraceBlock locates a function body by scanning delimiters from the match:
// the first '(' after the match start opens the parameter list, an optional
// return type follows its ')', and the next balanced {...} is the body.
func BraceBlock() Locator {
	return braceBlock{}
}

func (braceBlock) Locate(src string, m []int) (int, int, bool) {
	open := strings.IndexByte(src[m[0]:], '(')
	if open < 0 {
		return 0, 0, false
	}
	closeParen, ok := matchClose(src, m[0]+open)
	if !ok {
		return 0, 0, false
	}

	// a '{' right after one of these starts an object type, not the body
	const typeContext = ":|&<,("

	prev := byte(')')
	for i := closeParen + 1; i < len(src); {
		if j := skipLiteral(src, i); j != i {
			i = j
			continue
		}
		c := src[i]
		switch c {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		case ';':
			// overload or declaration without a body
			return 0, 0, false
		case '{':
			end, ok := matchClose(src, i)
			if !ok {
				return 0, 0, false
			}
			if strings.IndexByte(typeContext, prev) < 0 {
				return i, end + 1, true
			}
			i, prev = end+1, '}'
			continue
		case '(', '[':
			end, ok := matchClose(src, i)
			if !ok {
				return 0, 0, false
			}
			i, prev = end+1, src[end]
			continue
		}
		prev = c
		i++
	}
	return 0, 0, false
}

// ➕ structuralInsert adds a line as the second line of each located block
type structuralInsert struct {
	re      *regexp.Regexp
	line    string
	guard   string
	locator Locator
}

// StructuralInsert creates an action that, for every match of pattern, locates
// a block and inserts line right after the block's first line.
//
// The block's first line must end with the opening '{'. Blocks on a single
// line, blocks with code after the '{' and blocks that already contain guard
// are skipped; the first two produce a Diagnostic. The inserted line takes the
// indentation of the block's first non-blank body line.
func StructuralInsert(pattern, line, guard string, locator Locator) (Action, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling pattern %q: %w", pattern, err)
	}
	if strings.TrimSpace(line) == "" {
		return nil, errors.Errorf("insert line is required")
	}
	if strings.Contains(line, "\n") {
		return nil, errors.Errorf("insert line must be a single line")
	}
	if locator == nil {
		locator = BraceBlock()
	}
	return &structuralInsert{re: re, line: strings.TrimSpace(line), guard: guard, locator: locator}, nil
}

func (s *structuralInsert) Kind() ActionKind {
	return KindStructuralInsert
}

type insertion struct {
	at   int
	text string
}

func (s *structuralInsert) Apply(src string) (string, RuleReport) {
	matches := s.re.FindAllStringSubmatchIndex(src, -1)
	report := RuleReport{Matches: len(matches)}

	var inserts []insertion
	seen := make(map[int]bool)
	for _, m := range matches {
		start, end, ok := s.locator.Locate(src, m)
		if !ok {
			report.Skipped++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Line:    lineOf(src, m[0]),
				Message: "no block found after match",
			})
			continue
		}

		block := src[start:end]
		if s.guard != "" && strings.Contains(block, s.guard) {
			report.Skipped++
			continue
		}

		at, text, err := s.plan(block)
		if err != nil {
			report.Skipped++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Line:    lineOf(src, m[0]),
				Message: err.Error(),
			})
			continue
		}
		if seen[start+at] {
			report.Skipped++
			continue
		}
		seen[start+at] = true
		inserts = append(inserts, insertion{at: start + at, text: text})
		report.Applied++
	}

	if len(inserts) == 0 {
		return src, report
	}

	sort.Slice(inserts, func(i, j int) bool { return inserts[i].at < inserts[j].at })

	var b strings.Builder
	b.Grow(len(src) + len(inserts)*(len(s.line)+8))
	last := 0
	for _, ins := range inserts {
		b.WriteString(src[last:ins.at])
		b.WriteString(ins.text)
		last = ins.at
	}
	b.WriteString(src[last:])
	return b.String(), report
}

// plan checks the block's shape and returns the offset within block where
// the new line goes and the full text to insert there.
func (s *structuralInsert) plan(block string) (int, string, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return 0, "", errors.Errorf("block spans a single line")
	}

	first := strings.TrimRight(lines[0], " \t\r")
	if !strings.HasSuffix(first, "{") {
		return 0, "", errors.Errorf("first line of block does not end with '{'")
	}

	eol := "\n"
	if strings.HasSuffix(lines[0], "\r") {
		eol = "\r\n"
	}

	return len(lines[0]) + 1, bodyIndent(lines) + s.line + eol, nil
}

// bodyIndent picks the indentation for a line inserted after lines[0]
func bodyIndent(lines []string) string {
	last := len(lines) - 1
	for i := 1; i <= last; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		indent := leadingSpace(lines[i])
		if i == last && strings.HasPrefix(trimmed, "}") {
			return indent + "  "
		}
		return indent
	}
	return leadingSpace(lines[last]) + "  "
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
