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
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/pkg/config"
	"github.com/walteh/ctxmigrate/pkg/status"
)

// BackupExt is stripped from a source name before the suffix is added, so
// index.ts.backup becomes index-refactored.ts
const BackupExt = ".backup"

// DefaultSuffix is the batch destination suffix
const DefaultSuffix = "-refactored"

// 📦 Target is one source/destination pair in a batch
type Target struct {
	Source      string
	Destination string
}

// SiblingPath returns the destination written next to source
func SiblingPath(source, suffix string) string {
	base := strings.TrimSuffix(source, BackupExt)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}

// 🔍 Expand lists the targets for every file matching pattern. Files that
// are already the output of a previous run are left out.
func Expand(ctx context.Context, pattern, suffix string) ([]Target, error) {
	if suffix == "" {
		return nil, errors.Errorf("suffix is required")
	}
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, errors.Errorf("invalid glob pattern %q", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("expanding %q: %w", pattern, err)
	}
	sort.Strings(matches)

	logger := zerolog.Ctx(ctx)
	targets := make([]Target, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(strings.TrimSuffix(m, filepath.Ext(m)), suffix) {
			logger.Debug().Str("file", m).Msg("skipping previous output")
			continue
		}
		targets = append(targets, Target{Source: m, Destination: SiblingPath(m, suffix)})
	}
	if len(targets) == 0 {
		return nil, errors.Errorf("no files match %q", pattern)
	}
	return targets, nil
}

// 📦 BatchOperation rewrites every file a glob matches into a sibling file
type BatchOperation struct {
	opts    Options
	pattern string
	suffix  string
	runner  *Runner

	mu  sync.Mutex
	ops []*RewriteOperation
}

// 🏭 NewBatchOperation creates a batch over pattern. opts.Source and
// opts.Destination are ignored; each target fills them in.
func NewBatchOperation(opts Options, pattern, suffix string, runner *Runner) (*BatchOperation, error) {
	if pattern == "" {
		return nil, errors.Errorf("glob pattern is required")
	}
	if opts.Logger == nil {
		return nil, errors.Errorf("logger is required")
	}
	if opts.DryRun && opts.Diff == nil {
		return nil, errors.Errorf("dry run needs a diff writer")
	}
	if runner == nil {
		runner = NewRunner(false, 0)
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	return &BatchOperation{
		opts:    opts,
		pattern: pattern,
		suffix:  suffix,
		runner:  runner,
	}, nil
}

// Operations returns the rewrites of the last Execute, in target order
func (b *BatchOperation) Operations() []*RewriteOperation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ops
}

// 🏃 Execute expands the pattern and runs one rewrite per target
func (b *BatchOperation) Execute(ctx context.Context) error {
	targets, err := Expand(ctx, b.pattern, b.suffix)
	if err != nil {
		return errors.Errorf("expanding batch: %w", err)
	}

	ops := make([]Operation, 0, len(targets))
	rewrites := make([]*RewriteOperation, 0, len(targets))
	flushes := make([]func() error, 0, len(targets))
	for _, t := range targets {
		opts := b.opts
		opts.Source = t.Source
		opts.Destination = t.Destination
		opts.SkipFollowUps = true

		child, flushLog := b.opts.Logger.Buffered()
		opts.Logger = child

		var diff bytes.Buffer
		if opts.DryRun {
			opts.Diff = &diff
		}
		flush := func() error {
			if err := flushLog(); err != nil {
				return err
			}
			if diff.Len() == 0 {
				return nil
			}
			_, err := diff.WriteTo(b.opts.Diff)
			return err
		}

		op, err := NewRewriteOperation(opts)
		if err != nil {
			return errors.Errorf("preparing %s: %w", t.Source, err)
		}
		ops = append(ops, op)
		rewrites = append(rewrites, op)
		flushes = append(flushes, flush)
	}

	b.mu.Lock()
	b.ops = rewrites
	b.mu.Unlock()

	mgr := b.opts.StatusMgr
	if mgr != nil {
		mgr.StartOperation(ctx, len(ops))
		defer mgr.FinishOperation(ctx)
	}

	var (
		countMu   sync.Mutex
		completed int
		flushErr  error
	)
	err = b.runner.RunAll(ctx, ops, func(i int) {
		countMu.Lock()
		defer countMu.Unlock()
		completed++
		if err := flushes[i](); err != nil && flushErr == nil {
			flushErr = err
		}
		if mgr != nil {
			mgr.UpdateProgress(ctx, completed)
		}
	})
	if err != nil {
		return errors.Errorf("running batch: %w", err)
	}
	if flushErr != nil {
		return errors.Errorf("printing batch output: %w", flushErr)
	}

	if b.opts.DryRun {
		return nil
	}
	if err := b.summary(ctx, targets); err != nil {
		return err
	}
	return b.followUps()
}

// summary prints how many destinations of this batch were new, modified or
// already up to date
func (b *BatchOperation) summary(ctx context.Context, targets []Target) error {
	mgr := b.opts.StatusMgr
	if mgr == nil {
		return nil
	}
	files, err := mgr.ListFiles(ctx)
	if err != nil {
		return errors.Errorf("listing files: %w", err)
	}

	ours := make(map[string]bool, len(targets))
	for _, t := range targets {
		ours[t.Destination] = true
	}
	counts := map[status.FileStatus]int{}
	for _, f := range files {
		if ours[f.Path] {
			counts[f.Status]++
		}
	}
	b.opts.Logger.Infof("%d new, %d modified, %d unchanged",
		counts[status.StatusNew], counts[status.StatusModified], counts[status.StatusUnchanged])
	return nil
}

// followUps prints the configured steps once plus what each file left over
func (b *BatchOperation) followUps() error {
	steps := append([]string(nil), b.opts.Config.FollowUps...)
	for _, op := range b.Operations() {
		res := op.Result()
		if res == nil {
			continue
		}
		for _, name := range res.ZeroMatchRules() {
			steps = append(steps, fmt.Sprintf("%s: rule %s matched nothing", op.opts.Source, name))
		}
		for _, d := range res.Diagnostics() {
			steps = append(steps, fmt.Sprintf("%s:%d: %s (%s)", op.opts.Source, d.Line, d.Message, d.Rule))
		}
	}
	return b.opts.Logger.FollowUps(steps)
}
