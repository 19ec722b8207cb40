/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package logstream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Run is a function executing in the background with its logs redirected
// into a Stream.
type Run[T any] struct {
	g      errgroup.Group
	result T
	err    error
}

// Start runs fn on a background goroutine. The context handed to fn carries a
// clog logger writing into s at level, and s is always closed when fn
// returns or panics.
func Start[T any](ctx context.Context, s *Stream, level slog.Level, fn func(context.Context) (T, error)) *Run[T] {
	logger := clog.New(slog.NewTextHandler(s, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	ctx = clog.WithLogger(ctx, logger)

	r := &Run[T]{}
	r.g.Go(func() error {
		defer s.Close()
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("run panicked: %v", p)
			}
			if r.err != nil {
				logger.Errorf("Run failed: %v", r.err)
			}
		}()
		r.result, r.err = fn(ctx)
		return nil
	})
	return r
}

// Wait blocks until the background function has returned and yields its
// result or fault.
func (r *Run[T]) Wait() (T, error) {
	_ = r.g.Wait()
	return r.result, r.err
}
