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

import "strings"

// The scanner below understands just enough of a C-like language to pair
// delimiters: quoted strings, template literals with ${} holes, and line and
// block comments are skipped. It is not a parser.
//
// TODO(walteh): regex literals such as /[)]/ are read as code and can unbalance
// the delimiter stack.

func closerOf(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

// matchClose returns the index of the delimiter closing the one at src[open]
func matchClose(src string, open int) (int, bool) {
	if open < 0 || open >= len(src) || closerOf(src[open]) == 0 {
		return open, false
	}
	stack := []byte{closerOf(src[open])}
	for i := open + 1; i < len(src); {
		if j := skipLiteral(src, i); j != i {
			i = j
			continue
		}
		switch c := src[i]; c {
		case '(', '[', '{':
			stack = append(stack, closerOf(c))
		case ')', ']', '}':
			if c != stack[len(stack)-1] {
				return i, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
		i++
	}
	return len(src), false
}

// skipLiteral returns the index just past the string, template or comment
// starting at src[i], or i when none starts there.
func skipLiteral(src string, i int) int {
	switch src[i] {
	case '\'', '"':
		return skipQuoted(src, i)
	case '`':
		return skipTemplate(src, i)
	case '/':
		if i+1 >= len(src) {
			return i
		}
		switch src[i+1] {
		case '/':
			if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
				return i + nl
			}
			return len(src)
		case '*':
			if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				return i + 2 + end + 2
			}
			return len(src)
		}
	}
	return i
}

func skipQuoted(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			// unterminated
			return j
		}
	}
	return len(src)
}

func skipTemplate(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '`':
			return j + 1
		case '$':
			if j+1 < len(src) && src[j+1] == '{' {
				end, ok := matchClose(src, j+1)
				if !ok {
					return len(src)
				}
				j = end
			}
		}
	}
	return len(src)
}

// lineOf returns the 1-based line number of offset
func lineOf(src string, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return strings.Count(src[:offset], "\n") + 1
}
