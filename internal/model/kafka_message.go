package model

// PortfolioMessage is the record published to Kafka after a sync run.
type PortfolioMessage struct {
	Portfolio
	SyncedAt int64 `json:"syncedAt"`
}
