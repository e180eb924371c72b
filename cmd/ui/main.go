package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/devfolio-sync/api"
	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/crawler"
	githubapi "github.com/thep200/devfolio-sync/internal/github_api"
	"github.com/thep200/devfolio-sync/internal/limiter"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/internal/ui"
	"github.com/thep200/devfolio-sync/pkg/db"
	applog "github.com/thep200/devfolio-sync/pkg/log"
)

func main() {
	port := flag.Int("port", 0, "Port for the UI server to listen on (default from config)")
	configPath := flag.String("config", "cfg/yaml", "Directory holding mode.yaml")
	flag.Parse()

	ctx := context.Background()
	loader, _ := cfg.NewViperLoader()
	loader.ConfigPath = *configPath
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, _ := applog.NewLoggerFromConfig(config)
	if *port == 0 {
		*port = config.Ui.Port
	}

	fileStore := store.NewJSONStore(config.Sync.DataFile)
	var st store.Store = fileStore
	if config.Ui.Source == "mysql" {
		mysql, _ := db.NewMysql(config)
		defer mysql.Close()
		if err := mysql.Ping(); err != nil {
			logger.Error(ctx, "Cannot serve from MySQL: %v", err)
			os.Exit(1)
		}
		portfolioMd, _ := model.NewPortfolioMd(config, logger, mysql)
		st = store.NewMysqlStore(portfolioMd)
	}

	server, err := ui.NewServer(logger, config, st, *port)
	if err != nil {
		logger.Error(ctx, "Failed to create server: %v", err)
		os.Exit(1)
	}

	// Runs can be triggered over HTTP only when a token is configured.
	if err := config.Validate(); err != nil {
		logger.Warn(ctx, "Sync endpoint disabled: %v", err)
	} else {
		mirror, closeMirror := crawler.OpenMirror(ctx, config, logger)
		defer closeMirror()
		publisher, closePublisher := crawler.OpenPublisher(ctx, config, logger)
		defer closePublisher()
		server.Sync = api.NewSyncAPI(logger, syncBuilder(loader, logger, fileStore, mirror, publisher))
	}

	loader.RegisterConfigChangeCallback(func(updated *cfg.Config) {
		logger.Info(ctx, "Configuration changed, new values apply to the next sync (mode=%s, batch=%d)",
			updated.Sync.Mode, updated.Sync.BatchSize)
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.Error(ctx, "Server failed to start: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during server shutdown: %v", err)
	}

	logger.Info(ctx, "Server shut down gracefully")
}

// syncBuilder reads the loader on every run so reloaded settings take effect.
func syncBuilder(loader cfg.Loader, logger applog.Logger, fileStore, mirror store.Store, publisher crawler.Publisher) api.Builder {
	return func(mode string) (crawler.Crawler, error) {
		config, err := loader.Load()
		if err != nil {
			return nil, err
		}
		caller, err := githubapi.NewCaller(logger, config)
		if err != nil {
			return nil, err
		}
		throttle, err := limiter.New(config.Throttle)
		if err != nil {
			return nil, err
		}
		return crawler.FactoryCrawler(mode, crawler.Deps{
			Logger:    logger,
			Config:    config,
			Store:     fileStore,
			Mirror:    mirror,
			Fetcher:   caller,
			Throttle:  throttle,
			Publisher: publisher,
		})
	}
}
