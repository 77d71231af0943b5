package domain

// User is a Farcaster account known to the app
type User struct {
	FID                  int64   `json:"fid"`
	Username             string  `json:"username"`
	WalletAddress        *string `json:"wallet_address,omitempty"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	NotificationURL      *string `json:"-"`
	NotificationToken    *string `json:"-"`
}

// CanBeNotified reports whether the user granted mini-app notifications
func (u *User) CanBeNotified() bool {
	return u.NotificationsEnabled &&
		u.NotificationURL != nil && *u.NotificationURL != "" &&
		u.NotificationToken != nil && *u.NotificationToken != ""
}

// RecipientKind distinguishes winner notifications from participation notices
type RecipientKind string

const (
	RecipientWinner      RecipientKind = "winner"
	RecipientParticipant RecipientKind = "participant"
)

// Recipient is a user to notify about a game's results
type Recipient struct {
	User  User          `json:"user"`
	Kind  RecipientKind `json:"kind"`
	Rank  int           `json:"rank"`
	Prize int64         `json:"prize"`
}
