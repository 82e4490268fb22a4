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

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/pkg/text"
)

// 🎨 Display configuration
const (
	ruleIndent  = 4  // spaces to indent rule entries
	nameWidth   = 22 // Width for rule name
	kindWidth   = 22 // Width for action kind
	statusWidth = 15 // Width for status text
)

// 📦 FileOperation represents one rewrite for logging
type FileOperation struct {
	Source      string // Where the text was read from
	Destination string // Where the text goes
	Rules       int    // Number of rules in the set
	DryRun      bool   // Whether nothing is written
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *FileOperation
	reports   []text.RuleReport
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// Zerolog returns the structured logger behind the console
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Buffered returns a logger that holds its console output until flush is
// called. Concurrent rewrites use it so each file prints as one block.
func (l *Logger) Buffered() (*Logger, func() error) {
	buf := &bytes.Buffer{}
	child := &Logger{zlog: l.zlog, console: buf}
	return child, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		_, err := l.console.Write(buf.Bytes())
		buf.Reset()
		return err
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// 📝 formatRule formats one rule report for display
func (l *Logger) formatRule(rep text.RuleReport) string {
	// Determine symbol, color and status
	var symbol rune
	var symbolColor color.Attribute
	var status string
	switch {
	case rep.ZeroMatch():
		symbol = '✗'
		symbolColor = color.FgRed
		status = "no match"
	case rep.Applied > 0:
		symbol = '✓'
		symbolColor = color.FgGreen
		status = fmt.Sprintf("%d applied", rep.Applied)
	default:
		symbol = '•'
		symbolColor = color.FgCyan
		status = "up to date"
	}

	var extra []string
	if rep.Skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d skipped", rep.Skipped))
	}
	if n := len(rep.Diagnostics); n > 0 {
		extra = append(extra, color.New(color.FgYellow).Sprint(plural(n, "diagnostic")))
	}

	// Format kind with color
	var kindColor color.Attribute
	switch rep.Kind {
	case text.KindStructuralInsert:
		kindColor = color.FgMagenta
	case text.KindParameterizedRewrite:
		kindColor = color.FgCyan
	default:
		kindColor = color.FgBlue
	}

	// Build the line
	return strings.TrimRight(fmt.Sprintf("%s%s %s %s %s %s",
		fmt.Sprintf("%*s", ruleIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, rep.Rule),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, rep.Kind.String())),
		fmt.Sprintf("%-*s", statusWidth, status),
		strings.Join(extra, ", ")), " ")
}

// 📝 LogRule logs the outcome of one rule
func (l *Logger) LogRule(ctx context.Context, rep text.RuleReport) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reports = append(l.reports, rep)

	fmt.Fprintln(l.console, l.formatRule(rep))
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(l.console, "%*s%s %s\n", ruleIndent+2, "",
			color.New(color.Faint).Sprintf("line %d:", d.Line), d.Message)
	}

	evt := l.zlog.Debug()
	if rep.ZeroMatch() {
		evt = l.zlog.Warn()
	}
	evt.Str("rule", rep.Rule).
		Str("kind", rep.Kind.String()).
		Int("matches", rep.Matches).
		Int("applied", rep.Applied).
		Int("skipped", rep.Skipped).
		Int("diagnostics", len(rep.Diagnostics)).
		Msg("rule report")
}

// 📝 StartFileOperation starts a new rewrite
func (l *Logger) StartFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.reports = nil

	verb := "rewriting"
	if op.DryRun {
		verb = "checking"
	}
	fmt.Fprintf(l.console, "[%s %s]\n", verb,
		color.New(color.FgCyan).Sprint(op.Destination))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(plural(op.Rules, "rule")))

	l.zlog.Info().
		Str("source", op.Source).
		Str("destination", op.Destination).
		Int("rules", op.Rules).
		Bool("dry_run", op.DryRun).
		Msg("starting rewrite")
}

// 📝 EndFileOperation ends the current rewrite
func (l *Logger) EndFileOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	applied, zero := 0, 0
	for _, r := range l.reports {
		applied += r.Applied
		if r.ZeroMatch() {
			zero++
		}
	}
	l.zlog.Info().
		Str("source", l.currentOp.Source).
		Int("applied", applied).
		Int("zero_match", zero).
		Msg("rewrite complete")

	l.currentOp = nil
	l.reports = nil
}

// 📝 Notice prints where the rewritten text went
func (l *Logger) Notice(src, dst string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "Refactored %s -> %s\n", src, dst)
	l.zlog.Info().Str("source", src).Str("destination", dst).Msg("refactored")
}

// 📝 FollowUps prints the numbered list of manual steps left after a rewrite
func (l *Logger) FollowUps(steps []string) error {
	if len(steps) == 0 {
		return nil
	}

	items := make([]pterm.BulletListItem, 0, len(steps))
	for i, s := range steps {
		items = append(items, pterm.BulletListItem{
			Level:  0,
			Text:   s,
			Bullet: strconv.Itoa(i+1) + ".",
		})
	}
	list, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return errors.Errorf("rendering follow-ups: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, color.New(color.Bold).Sprint("Next steps:"))
	fmt.Fprint(l.console, list)
	return nil
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	toolText := color.New(color.Bold, color.FgCyan).Sprint("ctxmigrate")
	fmt.Fprintf(l.console, "\n%s %s\n\n", toolText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
