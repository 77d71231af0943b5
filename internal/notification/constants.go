package notification

import "time"

// Farcaster mini-app notification limits
const (
	// MaxTokensPerRequest is the most tokens one notification request may carry
	MaxTokensPerRequest = 100
	MaxTitleLength      = 32
	MaxBodyLength       = 128
	MaxIDLength         = 128
)

// Delivery defaults
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxElapsed     = 2 * time.Minute
	DefaultInitialBackoff = 500 * time.Millisecond
)

// Message templates
const (
	TitleWinner       = "You won!"
	TitleParticipant  = "Results are in"
	BodyWinnerFormat  = "You placed #%d in %s and won %s %s."
	BodyResultsFormat = "Final results for %s are live. See where you placed!"
)

// Log messages
const (
	LogMsgNotificationsQueued   = "Result notifications queued"
	LogMsgNotificationQueueFull = "Notification queue full, batch dropped"
	LogMsgNotificationSent      = "Notification batch delivered"
	LogMsgNotificationFailed    = "Notification batch failed"
	LogMsgTokensInvalid         = "Notification tokens rejected as invalid"
)

// JobNameDeliver identifies delivery jobs in worker logs
const JobNameDeliver = "notification_delivery"
