package crawler

import (
	"context"

	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/pkg/kafka"
)

// KafkaPublisher writes a run's messages to the producer's topic in a single write.
type KafkaPublisher struct {
	Producer *kafka.Producer
}

func (p KafkaPublisher) PublishPortfolios(ctx context.Context, key string, msgs []model.PortfolioMessage) error {
	return kafka.PublishAll(ctx, p.Producer, key, msgs)
}
