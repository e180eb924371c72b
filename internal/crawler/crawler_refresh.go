package crawler

import (
	"context"

	crawlinfo "github.com/thep200/devfolio-sync/internal/crawl_info"
	"github.com/thep200/devfolio-sync/internal/model"
)

// CrawlerRefresh re-fetches stored records whose refresh interval has
// elapsed. It never adds or removes records.
type CrawlerRefresh struct {
	pipeline
}

func NewCrawlerRefresh(deps Deps) (*CrawlerRefresh, error) {
	p, err := newPipeline(deps)
	if err != nil {
		return nil, err
	}
	return &CrawlerRefresh{pipeline: p}, nil
}

func (c *CrawlerRefresh) Crawl(ctx context.Context) (*crawlinfo.Info, error) {
	info := crawlinfo.New(ModeRefresh, c.Now())
	defer c.finish(ctx, info)

	portfolios, err := c.load(ctx, info)
	if err != nil {
		return info, err
	}

	now := c.Now()
	interval := refreshInterval(c.Config.Sync.RefreshIntervalDays)
	working := make([]*model.Portfolio, 0)
	for i := range portfolios {
		if portfolios[i].IsStale(now, interval) {
			working = append(working, &portfolios[i])
		}
	}
	info.Selected = len(working)

	if len(working) == 0 {
		c.Logger.Info(ctx, "All %d portfolios are fresh, nothing to update", len(portfolios))
		return info, nil
	}
	c.Logger.Info(ctx, "Updating %d portfolios...", len(working))

	refreshed, err := c.fetch(ctx, working, info)
	if err != nil {
		return info, err
	}

	if err := c.persist(ctx, portfolios, refreshed, info); err != nil {
		return info, err
	}
	c.Logger.Info(ctx, "Sync complete!")
	return info, nil
}
