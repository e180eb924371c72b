package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/crawler"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/pkg/db"
	"github.com/thep200/devfolio-sync/pkg/kafka"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// The consumer mirrors portfolios published by sync runs into MySQL.
func main() {
	configPath := flag.String("config", "cfg/yaml", "Directory holding mode.yaml")
	flag.Parse()

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	loader.ConfigPath = *configPath
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, _ := log.NewLoggerFromConfig(config)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Setup database
	mysql, _ := db.NewMysql(config)
	defer mysql.Close()
	if err := mysql.Ping(); err != nil {
		logger.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}
	portfolioMd, _ := model.NewPortfolioMd(config, logger, mysql)
	if err := portfolioMd.Migrate(); err != nil {
		logger.Error(ctx, "Failed to prepare database: %v", err)
		os.Exit(1)
	}

	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.Topic, config.Kafka.GroupID)
	if err != nil {
		logger.Error(ctx, "Failed to create consumer: %v", err)
		os.Exit(1)
	}

	batchSize := max(config.Kafka.BatchSize, 1)
	batchTimeout := time.Duration(max(config.Kafka.BatchTimeout, 1)) * time.Second
	messages := make(chan model.PortfolioMessage, batchSize*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		processBatchedPortfolios(ctx, messages, batchSize, batchTimeout, logger, portfolioMd)
	}()

	consumer.RegisterHandler(crawler.MessageKey, func(data []byte) error {
		var msg model.PortfolioMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal portfolio message: %w", err)
		}

		select {
		case messages <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	logger.Info(ctx, "Portfolio consumer started")
	if err := consumer.Start(ctx); err != nil {
		logger.Error(ctx, "Portfolio consumer error: %v", err)
	}

	<-done
	logger.Info(ctx, "Portfolio consumer stopped")
}

// processBatchedPortfolios flushes on size or timeout, and once more on shutdown.
func processBatchedPortfolios(ctx context.Context, messages <-chan model.PortfolioMessage, batchSize int,
	batchTimeout time.Duration, logger log.Logger, portfolioMd *model.PortfolioMd) {

	var batch []model.Portfolio
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	flush := func(flushCtx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := portfolioMd.CreateBatch(flushCtx, batch); err != nil {
			logger.Error(flushCtx, "Failed to save batch of %d portfolios: %v", len(batch), err)
		} else {
			logger.Info(flushCtx, "Saved batch of %d portfolios", len(batch))
		}
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			flush(shutdownCtx)
			cancel()
			return

		case msg := <-messages:
			batch = append(batch, msg.Portfolio)
			if len(batch) >= batchSize {
				flush(ctx)
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			flush(ctx)
			timer.Reset(batchTimeout)
		}
	}
}
