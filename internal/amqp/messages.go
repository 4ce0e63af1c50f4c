package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger queue.
const (
	EventRecordCreated = "record_created"
	EventImageCleanup  = "image_cleanup"
)

// Event is a lightweight ledger event. Consumers fetch whatever detail they
// need from the database; the message carries identity only.
type Event struct {
	Kind       string    `json:"kind"`
	RecordKind string    `json:"record_kind,omitempty"`
	RecordID   string    `json:"record_id,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecordCreatedEvent(recordKind, recordID string) *Event {
	return &Event{
		Kind:       EventRecordCreated,
		RecordKind: recordKind,
		RecordID:   recordID,
		Timestamp:  time.Now(),
	}
}

func NewImageCleanupEvent(imageURL string) *Event {
	return &Event{
		Kind:      EventImageCleanup,
		ImageURL:  imageURL,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
