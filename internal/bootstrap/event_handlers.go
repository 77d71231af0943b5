package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/TriviaCast_Go/internal/alert"
	"github.com/osse101/TriviaCast_Go/internal/config"
	"github.com/osse101/TriviaCast_Go/internal/event"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
)

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus event.Bus
	Config   *config.Config
}

// RegisterEventHandlers subscribes the metrics collector and, when a webhook
// is configured, the Discord alerter to lifecycle events.
func RegisterEventHandlers(deps EventHandlerDependencies) error {
	metricsCollector := metrics.NewEventMetricsCollector()
	metricsCollector.Register(deps.EventBus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	if deps.Config.DiscordWebhookURL == "" {
		slog.Info(LogMsgDiscordAlertsDisabled)
		return nil
	}

	alerter, err := alert.NewDiscordAlerter(deps.Config.DiscordWebhookURL)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedCreateDiscordAlerter, err)
	}
	alerter.Register(deps.EventBus)
	slog.Info(LogMsgDiscordAlertsRegistered)

	return nil
}
