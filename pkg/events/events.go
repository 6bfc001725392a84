package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of an event
type EventType string

const (
	// UpdateExtensions is published when extension state or layout changed
	// and views listing extensions should refresh.
	UpdateExtensions EventType = "extensions.updated"
	// UpdateDocuments is published when the set of stored profiles or layouts
	// changed and menus listing them should rebuild.
	UpdateDocuments EventType = "documents.updated"
)

// Event represents a notification published to subscribers
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID
func NewEvent(eventType EventType, source string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: at,
	}
}

func (e Event) String() string {
	if e.Source == "" {
		return string(e.Type)
	}
	return string(e.Type) + " (" + e.Source + ")"
}
