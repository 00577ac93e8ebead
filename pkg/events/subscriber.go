package events

// Subscriber receives events from a Broker. Send must not block for long;
// transports queue internally.
type Subscriber interface {
	Send(Event) error
	Close() error
}
