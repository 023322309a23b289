package swimcore

import "context"

// Transport is the network collaborator a Node drives each tick. Sends are
// best-effort: a Transport may drop a datagram silently and Send need not
// report that. Recv only reports failures that are not ordinary "nothing
// arrived right now" — those are expressed by delivering zero messages.
type Transport interface {
	// Send hands one already-encoded message to to. It does not block on
	// delivery and a returned error means the local send attempt itself
	// failed (e.g. socket closed), not that the peer didn't receive it.
	Send(ctx context.Context, from, to Address, payload []byte) error

	// RecvInto drains whatever inbound datagrams are currently buffered
	// for addr into queue and returns it. It must not block waiting for
	// new arrivals.
	RecvInto(addr Address, queue [][]byte) ([][]byte, error)
}

// Clock is the time source a Node consults once per tick. Its unit is the
// simulation tick, not wall-clock time.
type Clock interface {
	Now() int32
}

// Logger is the audit sink for the two observable membership events plus
// free-form diagnostics. Implementations must not block the caller for
// long; a Node's tick is expected to run to completion without
// suspension.
type Logger interface {
	LogNodeAdded(self, peer Address)
	LogNodeRemoved(self, peer Address)
	Log(self Address, message string)
}

// NopLogger discards every event. Useful as a zero-value default and in
// tests that don't care about the audit trail.
type NopLogger struct{}

func (NopLogger) LogNodeAdded(Address, Address)   {}
func (NopLogger) LogNodeRemoved(Address, Address) {}
func (NopLogger) Log(Address, string)             {}
