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

package operation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/pkg/config"
	"github.com/walteh/ctxmigrate/pkg/log"
	"github.com/walteh/ctxmigrate/pkg/provider"
	"github.com/walteh/ctxmigrate/pkg/ruleset"
	"github.com/walteh/ctxmigrate/pkg/status"
	"github.com/walteh/ctxmigrate/pkg/text"
)

// 🎯 Operation is one unit of work the runner executes
type Operation interface {
	Execute(ctx context.Context) error
}

// 🔧 Options contains everything a rewrite needs
type Options struct {
	// Source is a provider location: a path, "-" for stdin, or github://...
	Source string
	// Destination is a path, or "-" for stdout
	Destination string

	// Config builds Rules when Rules is nil; nil means the defaults
	Config *config.Config
	// Rules overrides the rule set built from Config
	Rules text.RuleSet

	// DryRun prints a unified diff instead of writing
	DryRun bool
	// Backup keeps a .bak copy of a destination that is about to change
	Backup bool
	// SkipFollowUps leaves the follow-up list to the caller
	SkipFollowUps bool

	StatusMgr *status.Manager
	Logger    *log.Logger
	// Diff receives the dry-run diff
	Diff io.Writer
}

// 📦 RewriteOperation reads one source, applies the rule set, reports each
// rule and writes the result
type RewriteOperation struct {
	opts      Options
	engine    *text.Engine
	formatter status.FileFormatter

	result *text.Result
	info   status.FileInfo
}

// 🏭 NewRewriteOperation checks opts and builds the rule set
func NewRewriteOperation(opts Options) (*RewriteOperation, error) {
	if opts.Source == "" {
		return nil, errors.Errorf("source is required")
	}
	if opts.Destination == "" {
		return nil, errors.Errorf("destination is required")
	}
	if opts.Logger == nil {
		return nil, errors.Errorf("logger is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.StatusMgr == nil {
		opts.StatusMgr = status.New("")
	}
	if opts.DryRun && opts.Diff == nil {
		return nil, errors.Errorf("dry run needs a diff writer")
	}

	engine := text.NewEngine()

	if opts.Rules == nil {
		rules, err := ruleset.New(opts.Config)
		if err != nil {
			return nil, errors.Errorf("building rule set: %w", err)
		}
		opts.Rules = rules
	}
	if err := engine.ValidateRules(opts.Rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	return &RewriteOperation{
		opts:      opts,
		engine:    engine,
		formatter: status.NewDefaultFileFormatter(),
	}, nil
}

// Result returns the rewrite result once Execute has run
func (op *RewriteOperation) Result() *text.Result {
	return op.result
}

// FileInfo returns what Commit reported for the destination
func (op *RewriteOperation) FileInfo() status.FileInfo {
	return op.info
}

// 🏃 Execute runs the rewrite
func (op *RewriteOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx).With().
		Str("source", op.opts.Source).
		Str("destination", op.opts.Destination).
		Logger()
	ctx = logger.WithContext(ctx)

	p, err := provider.Resolve(ctx, op.opts.Source)
	if err != nil {
		return errors.Errorf("resolving source: %w", err)
	}
	src := p.Describe(op.opts.Source)

	rc, err := p.Open(ctx, op.opts.Source)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer rc.Close()

	op.opts.Logger.StartFileOperation(ctx, log.FileOperation{
		Source:      src,
		Destination: op.opts.Destination,
		Rules:       len(op.opts.Rules),
		DryRun:      op.opts.DryRun,
	})
	defer op.opts.Logger.EndFileOperation(ctx)

	result, err := op.engine.Rewrite(ctx, rc, op.opts.Rules)
	if err != nil {
		return errors.Errorf("rewriting %s: %w", src, err)
	}
	op.result = result

	for _, rep := range result.Reports {
		op.opts.Logger.LogRule(ctx, rep)
	}
	if zero := result.ZeroMatchRules(); len(zero) > 0 {
		op.opts.Logger.Warningf("%d of %d rules matched nothing: %s",
			len(zero), len(result.Reports), strings.Join(zero, ", "))
	}

	if op.opts.DryRun {
		return op.dryRun(ctx, src)
	}

	info, err := op.opts.StatusMgr.Commit(ctx, op.opts.Destination, result.ModifiedContent, op.opts.Backup)
	if err != nil {
		return errors.Errorf("writing %s: %w", op.opts.Destination, err)
	}
	op.info = info

	if op.opts.Destination == status.Stdout {
		return nil
	}

	logger.Debug().Str("status", info.Status.String()).Str("backup", info.Backup).Msg("destination committed")
	op.opts.Logger.Notice(src, op.opts.Destination)
	op.opts.Logger.Info(op.formatter.FormatFileOperation(op.opts.Destination, info.Status))

	if op.opts.SkipFollowUps {
		return nil
	}
	if err := op.opts.Logger.FollowUps(ruleset.FollowUps(op.opts.Config, result)); err != nil {
		return errors.Errorf("printing follow-ups: %w", err)
	}
	return nil
}

func (op *RewriteOperation) dryRun(ctx context.Context, src string) error {
	st, err := op.opts.StatusMgr.Status(ctx, op.opts.Destination, op.result.ModifiedContent)
	if err != nil {
		return errors.Errorf("checking %s: %w", op.opts.Destination, err)
	}
	op.info = status.FileInfo{Path: op.opts.Destination, Status: st, Size: int64(len(op.result.ModifiedContent))}

	diff, err := Diff(src, op.opts.Destination, op.result)
	if err != nil {
		return errors.Errorf("rendering diff: %w", err)
	}
	if diff == "" {
		op.opts.Logger.Infof("no changes for %s", op.opts.Destination)
		return nil
	}
	if _, err := fmt.Fprint(op.opts.Diff, diff); err != nil {
		return errors.Errorf("writing diff: %w", err)
	}
	return nil
}

// 🔍 Diff renders the change a result makes as a unified diff, or "" when
// the text is unchanged
func Diff(from, to string, result *text.Result) (string, error) {
	if !result.WasModified {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(result.OriginalContent)),
		B:        difflib.SplitLines(string(result.ModifiedContent)),
		FromFile: from,
		ToFile:   to,
		Context:  3,
	})
}
