package conversation

// EventKind classifies an inbound chat event. Keyboard selections arrive
// as plain text; the engine validates them against the stored candidates,
// so the transport does not need to distinguish typed from tapped input.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
)

// Event is one inbound chat event, as delivered by the transport.
type Event struct {
	Key  string
	Kind EventKind
	Text string
}

// Reply is one outbound message. Options, when present, are offered to
// the user as a one-time selection keyboard.
type Reply struct {
	Text    string
	Options []string
}
