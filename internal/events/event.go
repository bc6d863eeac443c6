package events

import "time"

// Event represents a domain event that can be published and consumed.
type Event interface {
	// GetType returns the type of the event.
	GetType() string
	// GetWorldID returns the world this event is associated with.
	GetWorldID() string
	// GetTimestamp returns when the event occurred.
	GetTimestamp() time.Time
	// GetPayload returns the event-specific data.
	GetPayload() interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type      string      `json:"type"`
	WorldID   string      `json:"worldId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (e *BaseEvent) GetType() string { return e.Type }

func (e *BaseEvent) GetWorldID() string { return e.WorldID }

func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func (e *BaseEvent) GetPayload() interface{} { return e.Payload }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType, worldID string, payload interface{}) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		WorldID:   worldID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
