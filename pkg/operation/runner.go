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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes operations
type Runner struct {
	async bool
	limit int
}

// 🏗️ NewRunner creates a new runner. In async mode at most limit operations
// run at once; limit <= 0 means no limit.
func NewRunner(async bool, limit int) *Runner {
	return &Runner{
		async: async,
		limit: limit,
	}
}

// 🏃 Run executes a single operation
func (r *Runner) Run(ctx context.Context, op Operation) error {
	return r.RunAll(ctx, []Operation{op}, nil)
}

// 🏃 RunAll executes ops, calling done after each one that succeeds. The
// first failure stops the run.
func (r *Runner) RunAll(ctx context.Context, ops []Operation, done func(i int)) error {
	zerolog.Ctx(ctx).Debug().Int("operations", len(ops)).Bool("async", r.async).Msg("running operations")

	if r.async {
		return r.runAsync(ctx, ops, done)
	}
	return r.runSync(ctx, ops, done)
}

// 🔄 runSync runs operations one after another
func (r *Runner) runSync(ctx context.Context, ops []Operation, done func(i int)) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		if err := op.Execute(ctx); err != nil {
			return errors.Errorf("executing operation %d: %w", i, err)
		}
		if done != nil {
			done(i)
		}
	}
	return nil
}

// ⚡ runAsync runs operations concurrently
func (r *Runner) runAsync(ctx context.Context, ops []Operation, done func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Errorf("operation cancelled: %w", err)
			}
			if err := op.Execute(gctx); err != nil {
				return errors.Errorf("executing operation %d: %w", i, err)
			}
			if done != nil {
				done(i)
			}
			return nil
		})
	}

	return g.Wait()
}
