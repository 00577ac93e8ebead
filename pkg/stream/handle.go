package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agentstation/dsplugin/pkg/errors"
)

// Handle is a stream owned by its consumer. It yields exactly what the inner
// stream yields while active. Close moves it to the closed state and fires
// the paired signal; this happens once, and the closed state is terminal.
//
// Acquire a handle and defer Close immediately, so the signal fires on every
// exit path of the consumer, including errors and panics.
type Handle[T any] struct {
	inner  Stream[T]
	sender *Sender

	once   sync.Once
	closed atomic.Bool
}

// Wrap takes ownership of inner and sender. sender may be nil, in which case
// closing the handle notifies nobody.
func Wrap[T any](inner Stream[T], sender *Sender) *Handle[T] {
	return &Handle[T]{inner: inner, sender: sender}
}

// Next forwards to the inner stream. Items, end of stream and item-level
// errors pass through unchanged. After Close it returns errors.ErrClosed and
// the inner stream is never polled again.
func (h *Handle[T]) Next(ctx context.Context) (T, error) {
	if h.closed.Load() {
		var zero T
		return zero, errors.ErrClosed
	}
	return h.inner.Next(ctx)
}

// Close releases the handle and fires its signal. It is safe to call more
// than once and from any goroutine; it always returns nil.
func (h *Handle[T]) Close() error {
	h.once.Do(func() {
		h.closed.Store(true)
		h.sender.Fire()
	})
	return nil
}

// Closed reports whether Close has been called.
func (h *Handle[T]) Closed() bool {
	return h.closed.Load()
}
