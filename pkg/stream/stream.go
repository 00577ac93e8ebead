// Package stream provides pull-based item streams and the disconnect-aware
// stream handle used by the plugin streaming services.
//
// A Stream is polled by exactly one consumer through Next. Next blocks until
// an item is ready, the stream is exhausted (io.EOF), or the context is done.
// Any other error is an item-level error: it is delivered in place of an item
// and the consumer may keep polling.
//
// A Handle wraps a Stream together with the sending end of a one-shot Signal.
// Closing the handle is the only way to fire the signal, and it fires exactly
// once no matter how many times Close runs or on which exit path:
//
//	h := stream.WithDisconnect(packets, func() {
//	    log.Info().Str("path", path).Msg("client disconnected")
//	})
//	defer h.Close()
//
//	for {
//	    pkt, err := h.Next(ctx)
//	    if errors.Is(err, io.EOF) {
//	        return nil
//	    }
//	    ...
//	}
package stream

import (
	"context"
	"errors"
	"io"
)

// Stream produces a sequence of items for a single consumer.
type Stream[T any] interface {
	// Next returns the next item. It returns io.EOF once the stream is
	// exhausted and ctx.Err() if the context ends while waiting.
	Next(ctx context.Context) (T, error)
}

// Func adapts a function to the Stream interface.
type Func[T any] func(ctx context.Context) (T, error)

// Next calls f(ctx).
func (f Func[T]) Next(ctx context.Context) (T, error) {
	return f(ctx)
}

// FromSlice returns a finite stream over items.
func FromSlice[T any](items []T) Stream[T] {
	i := 0
	return Func[T](func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if i >= len(items) {
			return zero, io.EOF
		}
		item := items[i]
		i++
		return item, nil
	})
}

// Empty returns a stream that is already exhausted.
func Empty[T any]() Stream[T] {
	return Func[T](func(context.Context) (T, error) {
		var zero T
		return zero, io.EOF
	})
}

// Generate returns a lazy stream whose items are produced by fn on demand.
// The stream is infinite unless fn returns io.EOF, and it cannot be restarted.
func Generate[T any](fn func(ctx context.Context) (T, error)) Stream[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	})
}

// Collect polls s until it ends, the context is done, an item-level error
// occurs, or limit items have been read (limit <= 0 means no limit). It
// returns the items read so far together with the error that stopped it;
// reaching the end of the stream or the limit is not an error.
func Collect[T any](ctx context.Context, s Stream[T], limit int) ([]T, error) {
	var items []T
	for limit <= 0 || len(items) < limit {
		item, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}
