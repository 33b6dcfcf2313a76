package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of domain event.
type EventType string

const (
	// EventEntityDeleted is published once per top-level delete after the
	// cascade transaction committed.
	EventEntityDeleted EventType = "ENTITY_DELETED"
	// EventBlobsReleased carries storage keys whose metadata rows are gone.
	EventBlobsReleased EventType = "BLOBS_RELEASED"
)

// DomainEvent is an immutable notification emitted after a commit. Events
// are dispatched in-process and never persisted.
type DomainEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	PartitionID   int64     `json:"partition_id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   int64     `json:"aggregate_id"`
	Payload       []byte    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEvent builds an event with a fresh time-ordered id.
func NewEvent(t EventType, p Partition, aggregateType string, aggregateID int64, payload []byte) *DomainEvent {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &DomainEvent{
		EventID:       id.String(),
		EventType:     t,
		PartitionID:   p.ID(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

// EntityDeletedPayload summarizes one cascade.
type EntityDeletedPayload struct {
	Removed map[string]int `json:"removed"`
}

// ToJSON converts payload to JSON bytes.
func (p EntityDeletedPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// BlobsReleasedPayload lists storage keys to remove from the blob store.
type BlobsReleasedPayload struct {
	Keys []string `json:"keys"`
}

// ToJSON converts payload to JSON bytes.
func (p BlobsReleasedPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// DecodeBlobsReleased reads the payload of an EventBlobsReleased event.
func DecodeBlobsReleased(e *DomainEvent) (BlobsReleasedPayload, error) {
	var p BlobsReleasedPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeEntityDeleted reads the payload of an EventEntityDeleted event.
func DecodeEntityDeleted(e *DomainEvent) (EntityDeletedPayload, error) {
	var p EntityDeletedPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
