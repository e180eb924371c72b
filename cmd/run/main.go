package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/crawler"
	githubapi "github.com/thep200/devfolio-sync/internal/github_api"
	"github.com/thep200/devfolio-sync/internal/limiter"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

func main() {
	mode := flag.String("mode", "", "Sync mode: refresh or readme (default from config)")
	configPath := flag.String("config", "cfg/yaml", "Directory holding mode.yaml")
	rewrite := flag.Bool("rewrite-readme", false, "Regenerate the README portfolio list (readme mode)")
	flag.Parse()

	loader, _ := cfg.NewViperLoader()
	loader.ConfigPath = *configPath
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		config.Sync.Mode = *mode
	}
	if *rewrite {
		config.Sync.RewriteReadme = true
	}

	logger, err := log.NewLoggerFromConfig(config)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Nothing is read or written before the credential is known to be there.
	if err := config.Validate(); err != nil {
		logger.Error(ctx, "Invalid configuration: %v", err)
		os.Exit(1)
	}

	if err := run(ctx, config, logger); err != nil {
		logger.Error(ctx, "Sync failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config *cfg.Config, logger log.Logger) error {
	caller, err := githubapi.NewCaller(logger, config)
	if err != nil {
		return err
	}

	throttle, err := limiter.New(config.Throttle)
	if err != nil {
		return err
	}

	deps := crawler.Deps{
		Logger:   logger,
		Config:   config,
		Store:    store.NewJSONStore(config.Sync.DataFile),
		Fetcher:  caller,
		Throttle: throttle,
	}

	mirror, closeMirror := crawler.OpenMirror(ctx, config, logger)
	defer closeMirror()
	deps.Mirror = mirror

	publisher, closePublisher := crawler.OpenPublisher(ctx, config, logger)
	defer closePublisher()
	deps.Publisher = publisher

	c, err := crawler.FactoryCrawler(config.Sync.Mode, deps)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Starting portfolio sync in %s mode", config.Sync.Mode)
	if _, err := c.Crawl(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "Successfully!")
	return nil
}
