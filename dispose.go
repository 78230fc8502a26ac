package arbor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AsyncCloser is implemented by instances whose release completes
// asynchronously. The returned channel delivers the release result; a nil
// channel means the release already finished.
type AsyncCloser interface {
	CloseAsync(ctx context.Context) <-chan error
}

// disposable reports whether v can be released by a scope.
func disposable(v any) bool {
	switch v.(type) {
	case io.Closer, AsyncCloser:
		return true
	}
	return false
}

// ledger records disposable instances in creation order. Appends may come
// from any goroutine; draining is done once by the closing scope.
type ledger struct {
	mu      sync.Mutex
	entries []any
}

func (l *ledger) push(v any) {
	l.mu.Lock()
	l.entries = append(l.entries, v)
	l.mu.Unlock()
}

func (l *ledger) drain() []any {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries
	l.entries = nil
	return entries
}

// releaseSync prefers Close and otherwise blocks on CloseAsync.
func releaseSync(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	if ac, ok := v.(AsyncCloser); ok {
		return await(context.Background(), ac.CloseAsync(context.Background()))
	}
	return nil
}

// releaseAsync prefers CloseAsync and otherwise calls Close inline.
func releaseAsync(ctx context.Context, v any) error {
	if ac, ok := v.(AsyncCloser); ok {
		return await(ctx, ac.CloseAsync(ctx))
	}
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func await(ctx context.Context, done <-chan error) error {
	if done == nil {
		return nil
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// teardown releases entries last-in-first-out, continuing past failures.
// Every failure is logged and the aggregate is returned.
func teardown(entries []any, path string, release func(any) error, log *zap.Logger, m *metrics) error {
	var errs error
	for i := len(entries) - 1; i >= 0; i-- {
		inst := entries[i]
		err := release(inst)
		m.released(path, err)
		if err != nil {
			log.Error("release failed",
				zap.String("path", path),
				zap.String("type", fmt.Sprintf("%T", inst)),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("releasing %T: %w", inst, err))
		}
	}
	return errs
}
