package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeInstanceCreated       = "instance.created"
	TypeInstanceDeleted       = "instance.deleted"
	TypeCloseAllStarted       = "closeall.started"
	TypeCloseAllFinished      = "closeall.finished"
	TypeCoordinatorTerminated = "coordinator.terminated"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Instance Lifecycle Events
// -----------------------------------------------------------------------------

// InstanceCreatedEvent is emitted after the tool opens an instance.
type InstanceCreatedEvent struct {
	baseEvent
	InstanceID string
	Source     string
	Index      int // Position in the requested source order
}

// NewInstanceCreatedEvent creates an InstanceCreatedEvent.
func NewInstanceCreatedEvent(instanceID, source string, index int) InstanceCreatedEvent {
	return InstanceCreatedEvent{
		baseEvent:  newBaseEvent(TypeInstanceCreated),
		InstanceID: instanceID,
		Source:     source,
		Index:      index,
	}
}

// InstanceDeletedEvent is emitted whenever the tool reports a deletion,
// including deletions of instances the coordinator does not track.
type InstanceDeletedEvent struct {
	baseEvent
	InstanceID string
	Tracked    bool // Whether the instance belongs to the coordinator's set
	Live       int  // Process-wide live count observed after the deletion
}

// NewInstanceDeletedEvent creates an InstanceDeletedEvent.
func NewInstanceDeletedEvent(instanceID string, tracked bool, live int) InstanceDeletedEvent {
	return InstanceDeletedEvent{
		baseEvent:  newBaseEvent(TypeInstanceDeleted),
		InstanceID: instanceID,
		Tracked:    tracked,
		Live:       live,
	}
}

// -----------------------------------------------------------------------------
// Close-All Events
// -----------------------------------------------------------------------------

// CloseAllStartedEvent is emitted before a close-all pass issues deletions.
type CloseAllStartedEvent struct {
	baseEvent
	Pending int // Instances that will receive a deletion request
}

// NewCloseAllStartedEvent creates a CloseAllStartedEvent.
func NewCloseAllStartedEvent(pending int) CloseAllStartedEvent {
	return CloseAllStartedEvent{
		baseEvent: newBaseEvent(TypeCloseAllStarted),
		Pending:   pending,
	}
}

// CloseAllFinishedEvent is emitted after every deletion in a pass was attempted.
type CloseAllFinishedEvent struct {
	baseEvent
	Attempted int
	Failed    int
}

// NewCloseAllFinishedEvent creates a CloseAllFinishedEvent.
func NewCloseAllFinishedEvent(attempted, failed int) CloseAllFinishedEvent {
	return CloseAllFinishedEvent{
		baseEvent: newBaseEvent(TypeCloseAllFinished),
		Attempted: attempted,
		Failed:    failed,
	}
}

// CoordinatorTerminatedEvent is emitted once, when the live count reaches zero.
type CoordinatorTerminatedEvent struct {
	baseEvent
	ExitCode int
}

// NewCoordinatorTerminatedEvent creates a CoordinatorTerminatedEvent.
func NewCoordinatorTerminatedEvent(exitCode int) CoordinatorTerminatedEvent {
	return CoordinatorTerminatedEvent{
		baseEvent: newBaseEvent(TypeCoordinatorTerminated),
		ExitCode:  exitCode,
	}
}
