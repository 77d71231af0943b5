package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/TriviaCast_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata map[string]interface{}

// Event represents a generic event in the system
type Event struct {
	Version   string      `json:"version"` // Event schema version (e.g., "1.0")
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Metadata  Metadata    `json:"metadata,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	return e.Metadata[key]
}

// Lifecycle event types
const (
	GameRanked           Type = domain.EventGameRanked
	GameResultsPublished Type = domain.EventGameResultsPublished
	GamePublishFailed    Type = domain.EventGamePublishFailed
)

// Metadata keys
const (
	MetadataKeyTrigger = "trigger"
)

// NewGameRankedEvent is published once per game, by the caller whose ranking committed
func NewGameRankedEvent(result *domain.RankResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GameRanked,
		Payload: domain.GameRankedPayload{
			GameID:            result.GameID.String(),
			EntriesRanked:     result.EntriesRanked,
			PrizesDistributed: result.PrizesDistributed,
			TotalDistributed:  result.TotalDistributed,
		},
		Timestamp: time.Now().Unix(),
	}
}

// NewGameResultsPublishedEvent is published after the distribution is confirmed
func NewGameResultsPublishedEvent(gameID uuid.UUID, onchainID, txHash string, winners int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GameResultsPublished,
		Payload: domain.GameResultsPublishedPayload{
			GameID:    gameID.String(),
			OnchainID: onchainID,
			TxHash:    txHash,
			Winners:   winners,
		},
		Timestamp: time.Now().Unix(),
	}
}

// NewGamePublishFailedEvent reports a chain failure during publication
func NewGamePublishFailedEvent(gameID uuid.UUID, onchainID string, cause error) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GamePublishFailed,
		Payload: domain.GamePublishFailedPayload{
			GameID:    gameID.String(),
			OnchainID: onchainID,
			Error:     cause.Error(),
		},
		Timestamp: time.Now().Unix(),
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish runs every subscriber synchronously and joins their errors
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}
	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
