package metrics

import (
	"context"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/event"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// EventMetricsCollector subscribes to lifecycle events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all lifecycle events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.GameRanked,
		event.GameResultsPublished,
		event.GamePublishFailed,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent updates counters for one event. Undecodable payloads are logged and skipped.
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.GameRanked:
		payload, err := event.DecodePayload[domain.GameRankedPayload](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadUndecodable, "type", evt.Type, "error", err)
			return nil
		}
		GamesRanked.Inc()
		PrizeUnitsDistributed.Add(float64(payload.TotalDistributed))

	case event.GameResultsPublished:
		GamesPublished.Inc()

	case event.GamePublishFailed:
		PublishFailures.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
