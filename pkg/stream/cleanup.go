package stream

import (
	"fmt"

	"github.com/agentstation/dsplugin/pkg/logging"
)

// OnClose starts the cleanup task for a signal: a goroutine that waits for
// rcv to fire, runs teardown once, and exits. A panic in teardown is
// recovered and logged, never propagated. The returned channel is closed
// after teardown has finished; callers that do not care may ignore it.
//
// There is no way to stop the task other than firing the signal, and no
// timeout is applied to teardown.
func OnClose(rcv *Receiver, teardown func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-rcv.Done()
		runTeardown(teardown)
	}()
	return done
}

func runTeardown(teardown func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("panic", fmt.Sprint(r)).
				Msg("Stream teardown panicked")
		}
	}()
	if teardown != nil {
		teardown()
	}
}

// WithDisconnect wraps inner in a Handle whose Close runs teardown on a
// separate cleanup task.
func WithDisconnect[T any](inner Stream[T], teardown func()) *Handle[T] {
	h, _ := WithDisconnectDone(inner, teardown)
	return h
}

// WithDisconnectDone is WithDisconnect that also returns the cleanup task's
// completion channel.
func WithDisconnectDone[T any](inner Stream[T], teardown func()) (*Handle[T], <-chan struct{}) {
	sender, rcv := NewSignal()
	done := OnClose(rcv, teardown)
	return Wrap(inner, sender), done
}
