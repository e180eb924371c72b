package crawler

import (
	"context"
	"fmt"
	"os"

	crawlinfo "github.com/thep200/devfolio-sync/internal/crawl_info"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/readme"
	"github.com/thep200/devfolio-sync/internal/store"
)

// CrawlerReadme makes the store follow the README list: new entries are
// created and fetched, changed links are updated and fetched, and records
// that left the list are pruned.
type CrawlerReadme struct {
	pipeline
}

func NewCrawlerReadme(deps Deps) (*CrawlerReadme, error) {
	p, err := newPipeline(deps)
	if err != nil {
		return nil, err
	}
	if deps.Config.Sync.ReadmeFile == "" {
		return nil, fmt.Errorf("crawler: sync.readmefile must be set in %s mode", ModeReadme)
	}
	return &CrawlerReadme{pipeline: p}, nil
}

func (c *CrawlerReadme) Crawl(ctx context.Context) (*crawlinfo.Info, error) {
	info := crawlinfo.New(ModeReadme, c.Now())
	defer c.finish(ctx, info)

	readmePath := c.Config.Sync.ReadmeFile
	raw, err := os.ReadFile(readmePath)
	if err != nil {
		return info, fmt.Errorf("read %s: %w", readmePath, err)
	}
	markdown := string(raw)
	if !readme.HasSection(markdown) {
		return info, fmt.Errorf("%s: %w", readmePath, readme.ErrNoSection)
	}

	entries := readme.ParsePortfolios(markdown)
	c.Logger.Info(ctx, "Found %d portfolios in %s", len(entries), readmePath)

	current, err := c.load(ctx, info)
	if err != nil {
		return info, err
	}

	portfolios, working, changed := c.reconcile(ctx, entries, current, info)
	info.Selected = len(working)

	if !changed {
		c.Logger.Info(ctx, "No new portfolios to fetch.")
		return info, c.rewriteReadme(ctx, markdown, current, info)
	}

	refreshed := map[string]bool{}
	if len(working) > 0 {
		c.Logger.Info(ctx, "Fetching data for %d portfolios...", len(working))
		// Pointers into portfolios stay valid: the slice is not grown past this point.
		ptrs := make([]*model.Portfolio, 0, len(working))
		for _, idx := range working {
			ptrs = append(ptrs, &portfolios[idx])
		}
		refreshed, err = c.fetch(ctx, ptrs, info)
		if err != nil {
			return info, err
		}
	}

	// New and relinked records are worth publishing even without fresh stats.
	touched := make(map[string]bool, len(working))
	for _, idx := range working {
		touched[portfolios[idx].Key()] = true
	}
	for key := range refreshed {
		touched[key] = true
	}

	if err := c.persist(ctx, portfolios, touched, info); err != nil {
		return info, err
	}
	c.Logger.Info(ctx, "Updated %s: %d added, %d relinked, %d pruned",
		c.Config.Sync.DataFile, info.Added, info.LinkChanged, info.Pruned)

	return info, c.rewriteReadme(ctx, markdown, portfolios, info)
}

// reconcile builds the record set the README describes. It returns the
// records in README order, the indexes that need a fetch, and whether
// anything differs from the store.
func (c *CrawlerReadme) reconcile(ctx context.Context, entries []readme.Entry, current []model.Portfolio, info *crawlinfo.Info) ([]model.Portfolio, []int, bool) {
	byKey := make(map[string]model.Portfolio, len(current))
	for _, portfolio := range current {
		byKey[portfolio.Key()] = portfolio
	}

	changed := false
	listed := make(map[string]bool, len(entries))
	portfolios := make([]model.Portfolio, 0, len(entries))
	working := make([]int, 0)

	for _, entry := range entries {
		key := model.UsernameKey(entry.Username)
		listed[key] = true

		existing, ok := byKey[key]
		if !ok {
			portfolios = append(portfolios, model.Portfolio{
				Username:      entry.Username,
				PortfolioLink: entry.PortfolioLink,
			})
			working = append(working, len(portfolios)-1)
			info.Added++
			changed = true
			continue
		}

		if existing.Username != entry.Username {
			c.Logger.Info(ctx, "Renaming %s to %s", existing.Username, entry.Username)
			existing.Username = entry.Username
			changed = true
		}
		if existing.PortfolioLink != entry.PortfolioLink {
			existing.PortfolioLink = entry.PortfolioLink
			portfolios = append(portfolios, existing)
			working = append(working, len(portfolios)-1)
			info.LinkChanged++
			changed = true
			continue
		}
		portfolios = append(portfolios, existing)
	}

	for _, portfolio := range current {
		if !listed[portfolio.Key()] {
			c.Logger.Info(ctx, "Pruning %s, no longer listed", portfolio.Username)
			info.Pruned++
			changed = true
		}
	}

	return portfolios, working, changed
}

func (c *CrawlerReadme) rewriteReadme(ctx context.Context, markdown string, portfolios []model.Portfolio, info *crawlinfo.Info) error {
	if !c.Config.Sync.RewriteReadme {
		return nil
	}

	sorted := make([]model.Portfolio, len(portfolios))
	copy(sorted, portfolios)
	model.SortByUsername(sorted)

	rendered, err := readme.RenderPortfolios(markdown, sorted)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Config.Sync.ReadmeFile, err)
	}
	if rendered == markdown {
		return nil
	}
	if err := store.WriteFileAtomic(c.Config.Sync.ReadmeFile, []byte(rendered)); err != nil {
		return err
	}
	info.ReadmeWritten = true
	c.Logger.Info(ctx, "Rewrote portfolio list in %s", c.Config.Sync.ReadmeFile)
	return nil
}
