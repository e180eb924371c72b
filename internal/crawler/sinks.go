package crawler

import (
	"context"

	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/db"
	"github.com/thep200/devfolio-sync/pkg/kafka"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// OpenMirror returns the MySQL mirror when mysql.enabled is set and the
// database answers. Any failure is logged and yields a nil mirror, so the
// file sync still runs. The returned func releases the pool.
func OpenMirror(ctx context.Context, config *cfg.Config, logger log.Logger) (store.Store, func()) {
	noop := func() {}
	if !config.Mysql.Enabled {
		return nil, noop
	}

	mysql, _ := db.NewMysql(config)
	closeFn := func() { _ = mysql.Close() }
	if err := mysql.Ping(); err != nil {
		logger.Error(ctx, "MySQL mirror unavailable, continuing without it: %v", err)
		closeFn()
		return nil, noop
	}

	portfolioMd, _ := model.NewPortfolioMd(config, logger, mysql)
	if err := portfolioMd.Migrate(); err != nil {
		logger.Error(ctx, "Failed to migrate MySQL mirror, continuing without it: %v", err)
		closeFn()
		return nil, noop
	}
	return store.NewMysqlStore(portfolioMd), closeFn
}

// OpenPublisher returns a Kafka publisher when kafka.enabled is set. A
// misconfigured producer is logged and yields a nil publisher.
func OpenPublisher(ctx context.Context, config *cfg.Config, logger log.Logger) (Publisher, func()) {
	noop := func() {}
	if !config.Kafka.Enabled {
		return nil, noop
	}

	producer, err := kafka.NewProducer(config, logger, config.Kafka.Topic)
	if err != nil {
		logger.Error(ctx, "Kafka publishing disabled: %v", err)
		return nil, noop
	}
	return KafkaPublisher{Producer: producer}, func() { _ = producer.Close() }
}
