package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeDocumentProcessed = "DOCUMENT_PROCESSED"
	TypeDocumentFailed    = "DOCUMENT_FAILED"
	TypeAnswerGenerated   = "ANSWER_GENERATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_PROCESSED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to the bus. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

// Payload carries the type and timestamp so subscribers can rebuild the event.
func (e BaseEvent) Payload() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Data)+2)
	for k, v := range e.Data {
		out[k] = v
	}
	out["type"] = e.Type
	out["occurred_at"] = e.OccurredAt.UTC().Format(time.RFC3339Nano)
	return out
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// FromPayload rebuilds an event published by BaseEvent.Payload. fallbackType
// is used when the payload has no type.
func FromPayload(payload map[string]interface{}, fallbackType string) BaseEvent {
	ev := BaseEvent{Type: fallbackType, Data: map[string]interface{}{}, OccurredAt: time.Now()}
	for k, v := range payload {
		switch k {
		case "type":
			if s, ok := v.(string); ok && s != "" {
				ev.Type = s
			}
		case "occurred_at":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					ev.OccurredAt = t
				}
			}
		default:
			ev.Data[k] = v
		}
	}
	return ev
}

func DocumentProcessed(userID, documentID uuid.UUID, provider string, chunks int) Event {
	return BaseEvent{
		Type: TypeDocumentProcessed,
		Data: map[string]interface{}{
			"user_id":     userID.String(),
			"document_id": documentID.String(),
			"provider":    provider,
			"chunks":      chunks,
		},
		OccurredAt: time.Now(),
	}
}

func DocumentFailed(userID, documentID uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"user_id":     userID.String(),
			"document_id": documentID.String(),
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

func AnswerGenerated(userID, sessionID, messageID uuid.UUID, category string, overall float64, sources int) Event {
	return BaseEvent{
		Type: TypeAnswerGenerated,
		Data: map[string]interface{}{
			"user_id":    userID.String(),
			"session_id": sessionID.String(),
			"message_id": messageID.String(),
			"category":   category,
			"overall":    overall,
			"sources":    sources,
		},
		OccurredAt: time.Now(),
	}
}
