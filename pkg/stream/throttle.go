package stream

import (
	"context"
	"time"
)

// Throttle paces inner so that consecutive items are at least interval
// apart. The first item is not delayed. Waiting is a timer-gated suspension
// point that returns ctx.Err() if the context ends first; the position in
// inner is not lost when that happens.
func Throttle[T any](inner Stream[T], interval time.Duration) Stream[T] {
	if interval <= 0 {
		return inner
	}
	var last time.Time
	return Func[T](func(ctx context.Context) (T, error) {
		if !last.IsZero() {
			if wait := interval - time.Since(last); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					var zero T
					return zero, ctx.Err()
				}
			}
		}
		item, err := inner.Next(ctx)
		last = time.Now()
		return item, err
	})
}

// Counter returns an infinite stream 0, 1, 2, ... advancing by step.
func Counter(step uint32) Stream[uint32] {
	var x uint32
	return Generate(func(context.Context) (uint32, error) {
		v := x
		x += step
		return v, nil
	})
}
