// Package alert posts lifecycle events that need operator attention to a Discord webhook.
package alert

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/event"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// Embed colors
const (
	ColorSuccess = 0x2ecc71
	ColorFailure = 0xe74c3c
)

const (
	webhookPathPrefix = "/api/webhooks/"

	LogMsgAlertFailed = "Failed to post Discord alert"
	LogMsgAlertSent   = "Discord alert posted"
)

// ErrInvalidWebhookURL is returned for URLs that are not Discord webhook URLs
var ErrInvalidWebhookURL = errors.New("invalid discord webhook url")

// DiscordAlerter posts publish outcomes to a Discord channel webhook
type DiscordAlerter struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

// NewDiscordAlerter parses a https://discord.com/api/webhooks/{id}/{token} URL
func NewDiscordAlerter(webhookURL string) (*DiscordAlerter, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	// webhook execution needs no bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordAlerter{session: session, webhookID: id, token: token}, nil
}

// ParseWebhookURL extracts the webhook ID and token
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return "", "", ErrInvalidWebhookURL
	}
	idx := strings.Index(u.Path, webhookPathPrefix)
	if idx < 0 {
		return "", "", ErrInvalidWebhookURL
	}
	parts := strings.Split(strings.Trim(u.Path[idx+len(webhookPathPrefix):], "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidWebhookURL
	}
	return parts[0], parts[1], nil
}

// Register subscribes to publication outcomes
func (a *DiscordAlerter) Register(bus event.Bus) {
	bus.Subscribe(event.GameResultsPublished, a.HandleEvent)
	bus.Subscribe(event.GamePublishFailed, a.HandleEvent)
}

// HandleEvent posts one embed per event. Delivery is best effort: failures are
// logged, not returned, so the bus does not replay the event to other subscribers.
func (a *DiscordAlerter) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	embed, err := buildEmbed(evt)
	if err != nil {
		log.Warn(LogMsgAlertFailed, "type", evt.Type, "error", err)
		return nil
	}

	_, err = a.session.WebhookExecute(a.webhookID, a.token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Warn(LogMsgAlertFailed, "type", evt.Type, "error", err)
		return nil
	}

	log.Debug(LogMsgAlertSent, "type", evt.Type)
	return nil
}

func buildEmbed(evt event.Event) (*discordgo.MessageEmbed, error) {
	ts := time.Unix(evt.Timestamp, 0).UTC().Format(time.RFC3339)

	switch evt.Type {
	case event.GameResultsPublished:
		p, err := event.DecodePayload[domain.GameResultsPublishedPayload](evt.Payload)
		if err != nil {
			return nil, err
		}
		return &discordgo.MessageEmbed{
			Title:     "Prizes distributed",
			Color:     ColorSuccess,
			Timestamp: ts,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Game", Value: p.GameID},
				{Name: "On-chain ID", Value: p.OnchainID, Inline: true},
				{Name: "Winners", Value: fmt.Sprint(p.Winners), Inline: true},
				{Name: "Transaction", Value: p.TxHash},
			},
		}, nil

	case event.GamePublishFailed:
		p, err := event.DecodePayload[domain.GamePublishFailedPayload](evt.Payload)
		if err != nil {
			return nil, err
		}
		return &discordgo.MessageEmbed{
			Title:       "Prize distribution failed",
			Description: p.Error,
			Color:       ColorFailure,
			Timestamp:   ts,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Game", Value: p.GameID},
				{Name: "On-chain ID", Value: p.OnchainID, Inline: true},
			},
		}, nil
	}

	return nil, fmt.Errorf("no alert for event type %s", evt.Type)
}
