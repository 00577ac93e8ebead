package stream

import (
	"context"
	"sync"
)

// Sender is the firing end of a one-shot Signal.
type Sender struct {
	once sync.Once
	ch   chan struct{}
}

// Receiver is the observing end of a one-shot Signal.
type Receiver struct {
	ch <-chan struct{}
}

// NewSignal returns the two ends of a one-shot signal. The signal carries no
// value; firing it closes a channel, so every observer of the receiver sees
// it and firing again has no effect.
func NewSignal() (*Sender, *Receiver) {
	ch := make(chan struct{})
	return &Sender{ch: ch}, &Receiver{ch: ch}
}

// Fire delivers the signal. Only the first call has an effect. Firing a nil
// sender, or firing after nobody watches the receiver any more, is a no-op.
func (s *Sender) Fire() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.ch)
	})
}

// Done returns a channel that is closed when the signal fires.
func (r *Receiver) Done() <-chan struct{} {
	return r.ch
}

// Fired reports whether the signal has fired.
func (r *Receiver) Fired() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal fires or ctx is done.
func (r *Receiver) Wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
