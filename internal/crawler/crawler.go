package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/devfolio-sync/cfg"
	crawlinfo "github.com/thep200/devfolio-sync/internal/crawl_info"
	githubapi "github.com/thep200/devfolio-sync/internal/github_api"
	"github.com/thep200/devfolio-sync/internal/limiter"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// Crawler runs one sync of the portfolio store.
type Crawler interface {
	Crawl(ctx context.Context) (*crawlinfo.Info, error)
}

// Fetcher resolves one aliased GraphQL batch.
type Fetcher interface {
	FetchUsers(ctx context.Context, q githubapi.Query) (*githubapi.BatchResult, error)
}

// Publisher fans the records a run touched out in one batch, e.g. to Kafka.
type Publisher interface {
	PublishPortfolios(ctx context.Context, key string, msgs []model.PortfolioMessage) error
}

const MessageKey = "portfolio"

// Deps is everything a crawler needs. Mirror and Publisher may be nil.
type Deps struct {
	Logger    log.Logger
	Config    *cfg.Config
	Store     store.Store
	Mirror    store.Store
	Fetcher   Fetcher
	Throttle  limiter.Throttle
	Publisher Publisher
	Now       func() time.Time
}

func (d Deps) validate() error {
	switch {
	case d.Logger == nil:
		return errors.New("crawler: logger is required")
	case d.Config == nil:
		return errors.New("crawler: config is required")
	case d.Store == nil:
		return errors.New("crawler: store is required")
	case d.Fetcher == nil:
		return errors.New("crawler: fetcher is required")
	case d.Throttle == nil:
		return errors.New("crawler: throttle is required")
	}
	if d.Config.Sync.BatchSize <= 0 {
		return fmt.Errorf("crawler: batch size must be positive, got %d", d.Config.Sync.BatchSize)
	}
	return nil
}

// pipeline holds the steps both modes share: batched fetch, merge and persist.
type pipeline struct {
	Deps
}

func newPipeline(deps Deps) (pipeline, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if err := deps.validate(); err != nil {
		return pipeline{}, err
	}
	return pipeline{Deps: deps}, nil
}

// load reads the store and drops case-insensitive duplicate usernames,
// keeping the first one.
func (p *pipeline) load(ctx context.Context, info *crawlinfo.Info) ([]model.Portfolio, error) {
	portfolios, err := p.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	seen := make(map[string]bool, len(portfolios))
	unique := make([]model.Portfolio, 0, len(portfolios))
	for _, portfolio := range portfolios {
		key := portfolio.Key()
		if key == "" {
			p.Logger.Warn(ctx, "Dropping record without username")
			continue
		}
		if seen[key] {
			p.Logger.Warn(ctx, "Dropping duplicate record for %s", portfolio.Username)
			continue
		}
		seen[key] = true
		unique = append(unique, portfolio)
	}

	info.Loaded = len(unique)
	return unique, nil
}

// fetch refreshes the records in working batch by batch. A record the API
// did not answer for keeps its previous stats and lastFetched. It returns
// the usernames that were refreshed.
func (p *pipeline) fetch(ctx context.Context, working []*model.Portfolio, info *crawlinfo.Info) (map[string]bool, error) {
	refreshed := make(map[string]bool, len(working))
	batches := chunk(working, p.Config.Sync.BatchSize)

	for i, batch := range batches {
		if err := p.Throttle.Wait(ctx); err != nil {
			return nil, err
		}

		usernames := make([]string, 0, len(batch))
		for _, portfolio := range batch {
			usernames = append(usernames, portfolio.Username)
		}

		info.Batches++
		result, err := p.Fetcher.FetchUsers(ctx, githubapi.BuildQuery(usernames))
		if err != nil {
			if errors.Is(err, githubapi.ErrUnauthorized) || ctx.Err() != nil {
				return nil, err
			}
			p.Throttle.Report(false)
			info.FailedBatches++
			info.Missing += len(batch)
			p.Logger.Warn(ctx, "Batch %d/%d failed, keeping previous data for %d users: %v", i+1, len(batches), len(batch), err)
			continue
		}

		if len(result.Errors) > 0 {
			for _, gqlErr := range result.Errors {
				p.Logger.Warn(ctx, "GraphQL error in batch %d: %s", i+1, gqlErr)
			}
		}

		now := p.Now()
		for _, portfolio := range batch {
			user, ok := result.Users[portfolio.Username]
			if !ok {
				info.Missing++
				p.Logger.Warn(ctx, "User not found: %s", portfolio.Username)
				continue
			}
			portfolio.ApplyStats(user.Name, user.Followers.TotalCount, user.Stars(), now)
			refreshed[portfolio.Key()] = true
			info.Fetched++
		}

		p.Throttle.Report(len(result.Errors) == 0)
		p.Logger.Info(ctx, "Processed batch %d/%d", i+1, len(batches))
	}

	return refreshed, nil
}

// persist writes the sorted record set, then the mirror and the publisher.
// Only the primary store is allowed to fail the run.
func (p *pipeline) persist(ctx context.Context, portfolios []model.Portfolio, touched map[string]bool, info *crawlinfo.Info) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range portfolios {
		portfolios[i].Normalize()
	}
	model.SortByUsername(portfolios)

	if err := p.Store.Save(ctx, portfolios); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	info.Written = true

	if p.Mirror != nil {
		if err := p.Mirror.Save(ctx, portfolios); err != nil {
			p.Logger.Error(ctx, "Failed to update mirror: %v", err)
		}
	}

	if p.Publisher != nil && len(touched) > 0 {
		syncedAt := p.Now().UnixMilli()
		msgs := make([]model.PortfolioMessage, 0, len(touched))
		for _, portfolio := range portfolios {
			if touched[portfolio.Key()] {
				msgs = append(msgs, model.PortfolioMessage{Portfolio: portfolio, SyncedAt: syncedAt})
			}
		}
		if err := p.Publisher.PublishPortfolios(ctx, MessageKey, msgs); err != nil {
			p.Logger.Error(ctx, "Failed to publish %d updated portfolios: %v", len(msgs), err)
		} else {
			p.Logger.Info(ctx, "Published %d updated portfolios", len(msgs))
		}
	}

	return nil
}

func (p *pipeline) finish(ctx context.Context, info *crawlinfo.Info) {
	info.Duration = p.Now().Sub(info.StartedAt)
	p.Logger.Info(ctx, "==== SYNC RESULT ====")
	p.Logger.Info(ctx, "%s", info)
}
