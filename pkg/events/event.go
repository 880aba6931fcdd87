package events

// Event defines the contract for everything pushed to clients.
type Event interface {
	// EventType returns the wire name of the event (e.g. "beat_detected").
	EventType() string
}

// Topic carrying every outbound event from the measurement loop.
const TopicOutbound = "ppg.outbound"

const metadataEventType = "event_type"
