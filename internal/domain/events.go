package domain

// Lifecycle event types
const (
	EventGameRanked           = "game.ranked"
	EventGameResultsPublished = "game.results_published"
	EventGamePublishFailed    = "game.publish_failed"
)

// GameRankedPayload is published after a ranking commits
type GameRankedPayload struct {
	GameID            string `json:"game_id"`
	EntriesRanked     int    `json:"entries_ranked"`
	PrizesDistributed int    `json:"prizes_distributed"`
	TotalDistributed  int64  `json:"total_distributed"`
}

// GameResultsPublishedPayload is published after the distribution is confirmed
type GameResultsPublishedPayload struct {
	GameID    string `json:"game_id"`
	OnchainID string `json:"onchain_id"`
	TxHash    string `json:"tx_hash"`
	Winners   int    `json:"winners"`
}

// GamePublishFailedPayload is published when the chain submission fails
type GamePublishFailedPayload struct {
	GameID    string `json:"game_id"`
	OnchainID string `json:"onchain_id"`
	Error     string `json:"error"`
}
