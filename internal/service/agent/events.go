package agent

type (
	// Event is anything the client hands to its observer: a connection
	// lifecycle event below, or a decoded agentwire.Event that survived
	// correlation filtering.
	Event interface{}

	// Connected is emitted once the transport is open.
	Connected struct {
		Address string
	}

	// Disconnected is emitted on remote close or local disconnect.
	Disconnected struct{}

	// Errored is emitted on transport or dial failure. The connection is no
	// longer usable; reconnection is an explicit Connect call.
	Errored struct {
		Message string
	}

	// Handler observes the client's outbound event stream. It is invoked
	// from the read goroutine; implementations must not block.
	Handler func(event Event)
)
