package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/devfolio-sync/cfg"
	githubapi "github.com/thep200/devfolio-sync/internal/github_api"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	users   map[string]*githubapi.User
	errs    map[int]error
	queries []githubapi.Query
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{users: map[string]*githubapi.User{}, errs: map[int]error{}}
}

func (f *fakeFetcher) add(login, name string, followers int, stars ...int) {
	u := &githubapi.User{Login: login, Name: name}
	u.Followers.TotalCount = followers
	for _, s := range stars {
		u.Repositories.Nodes = append(u.Repositories.Nodes, struct {
			StargazerCount int `json:"stargazerCount"`
		}{StargazerCount: s})
	}
	f.users[login] = u
}

func (f *fakeFetcher) FetchUsers(_ context.Context, q githubapi.Query) (*githubapi.BatchResult, error) {
	f.queries = append(f.queries, q)
	if err, ok := f.errs[len(f.queries)-1]; ok {
		return nil, err
	}
	result := &githubapi.BatchResult{Users: map[string]*githubapi.User{}}
	for _, alias := range q.Order {
		login := q.Aliases[alias]
		if u, ok := f.users[login]; ok {
			result.Users[login] = u
		} else {
			result.Errors = append(result.Errors, githubapi.GraphQLError{Type: "NOT_FOUND", Message: "Could not resolve to a User", Path: []interface{}{alias}})
		}
	}
	return result, nil
}

type recordingThrottle struct {
	waits   int
	reports []bool
}

func (r *recordingThrottle) Wait(ctx context.Context) error {
	r.waits++
	return ctx.Err()
}

func (r *recordingThrottle) Report(ok bool) { r.reports = append(r.reports, ok) }

type recordingPublisher struct {
	keys     []string
	messages []model.PortfolioMessage
	err      error
}

func (p *recordingPublisher) PublishPortfolios(_ context.Context, key string, msgs []model.PortfolioMessage) error {
	p.keys = append(p.keys, key)
	p.messages = append(p.messages, msgs...)
	return p.err
}

type memoryStore struct {
	saved [][]model.Portfolio
}

func (m *memoryStore) Load(context.Context) ([]model.Portfolio, error) {
	if len(m.saved) == 0 {
		return []model.Portfolio{}, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memoryStore) Save(_ context.Context, portfolios []model.Portfolio) error {
	cp := make([]model.Portfolio, len(portfolios))
	copy(cp, portfolios)
	m.saved = append(m.saved, cp)
	return nil
}

type fixture struct {
	dir      string
	config   *cfg.Config
	store    *store.JSONStore
	fetcher  *fakeFetcher
	throttle *recordingThrottle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	config.Sync.DataFile = filepath.Join(dir, "data", "portfolios.json")
	config.Sync.ReadmeFile = filepath.Join(dir, "README.md")

	return &fixture{
		dir:      dir,
		config:   config,
		store:    store.NewJSONStore(config.Sync.DataFile),
		fetcher:  newFakeFetcher(),
		throttle: &recordingThrottle{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Logger:   log.NewNopLogger(),
		Config:   f.config,
		Store:    f.store,
		Fetcher:  f.fetcher,
		Throttle: f.throttle,
		Now:      func() time.Time { return testNow },
	}
}

func (f *fixture) seed(t *testing.T, portfolios ...model.Portfolio) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), portfolios))
}

func (f *fixture) load(t *testing.T) map[string]model.Portfolio {
	t.Helper()
	portfolios, err := f.store.Load(context.Background())
	require.NoError(t, err)
	byName := make(map[string]model.Portfolio, len(portfolios))
	for _, p := range portfolios {
		byName[p.Username] = p
	}
	return byName
}

func stale() int64 { return testNow.Add(-6 * 24 * time.Hour).UnixMilli() }

func TestChunk(t *testing.T) {
	items := make([]int, 45)
	batches := chunk(items, 30)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 30)
	assert.Len(t, batches[1], 15)

	assert.Nil(t, chunk([]int{}, 30))
	assert.Len(t, chunk([]int{1, 2, 3}, 3), 1)
}

func TestRefreshBatchesStaleRecords(t *testing.T) {
	f := newFixture(t)
	var seed []model.Portfolio
	for i := 0; i < 45; i++ {
		name := fmt.Sprintf("user%02d", i)
		seed = append(seed, model.Portfolio{Username: name, PortfolioLink: "https://" + name + ".dev", LastFetched: stale()})
		f.fetcher.add(name, "", i, 1, 2)
	}
	f.seed(t, seed...)

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, f.fetcher.queries, 2)
	assert.Len(t, f.fetcher.queries[0].Aliases, 30)
	assert.Len(t, f.fetcher.queries[1].Aliases, 15)
	assert.Equal(t, 2, f.throttle.waits)
	assert.Equal(t, 45, info.Selected)
	assert.Equal(t, 45, info.Fetched)
	assert.Equal(t, 2, info.Batches)

	stored := f.load(t)
	require.Len(t, stored, 45)
	for i := 0; i < 45; i++ {
		p := stored[fmt.Sprintf("user%02d", i)]
		assert.Equal(t, i, p.Followers)
		assert.Equal(t, 3, p.Stars)
		assert.Equal(t, i+3, p.Popularity)
		assert.Equal(t, testNow.UnixMilli(), p.LastFetched)
	}
}

func TestRefreshSkipsFreshRecordsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		model.Portfolio{Username: "alice", PortfolioLink: "https://a.dev", LastFetched: stale()},
		model.Portfolio{Username: "bob", PortfolioLink: "https://b.dev", Followers: 1, Stars: 1, Popularity: 2, LastFetched: testNow.UnixMilli()},
	)
	f.fetcher.add("alice", "Alice", 4, 6)
	f.fetcher.add("bob", "Bob", 100, 100)

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)

	_, err = crawler.Crawl(context.Background())
	require.NoError(t, err)
	first := f.load(t)
	require.Len(t, f.fetcher.queries, 1)
	assert.Equal(t, map[string]string{"user_0": "alice"}, f.fetcher.queries[0].Aliases)
	assert.Equal(t, 2, first["bob"].Popularity, "fresh record must not be refreshed")

	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.fetcher.queries, 1, "second run finds nothing stale")
	assert.Equal(t, 0, info.Selected)
	assert.False(t, info.Written)
	assert.Equal(t, first, f.load(t))
}

func TestRefreshMissingUserKeepsPriorStats(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		model.Portfolio{Username: "alice", Name: "Alice", PortfolioLink: "https://a.dev", Followers: 7, Stars: 3, Popularity: 10, LastFetched: stale()},
		model.Portfolio{Username: "ghost", Name: "Ghost", PortfolioLink: "https://g.dev", Followers: 2, Stars: 5, Popularity: 7, LastFetched: stale()},
	)
	f.fetcher.add("alice", "", 8, 3)

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Missing)
	assert.Equal(t, []bool{false}, f.throttle.reports, "graphql errors count as a bad batch")

	stored := f.load(t)
	require.Contains(t, stored, "ghost")
	assert.Equal(t, model.Portfolio{Username: "ghost", Name: "Ghost", PortfolioLink: "https://g.dev", Followers: 2, Stars: 5, Popularity: 7, LastFetched: stale()}, stored["ghost"])

	assert.Equal(t, "Alice", stored["alice"].Name, "empty remote name keeps the previous one")
	assert.Equal(t, 11, stored["alice"].Popularity)
}

func TestRefreshFailedBatchIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.config.Sync.BatchSize = 1
	f.seed(t,
		model.Portfolio{Username: "alice", Followers: 1, Popularity: 1, LastFetched: stale()},
		model.Portfolio{Username: "bob", LastFetched: stale()},
	)
	f.fetcher.add("alice", "", 50)
	f.fetcher.add("bob", "", 9)
	f.fetcher.errs[0] = &githubapi.StatusError{StatusCode: 502, Status: "502 Bad Gateway"}

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, info.FailedBatches)
	assert.Equal(t, []bool{false, true}, f.throttle.reports)
	stored := f.load(t)
	assert.Equal(t, 1, stored["alice"].Followers)
	assert.Equal(t, stale(), stored["alice"].LastFetched)
	assert.Equal(t, 9, stored["bob"].Followers)
}

func TestRefreshUnauthorizedWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Portfolio{Username: "alice", LastFetched: stale()})
	before, err := os.ReadFile(f.config.Sync.DataFile)
	require.NoError(t, err)
	f.fetcher.errs[0] = githubapi.ErrUnauthorized

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	_, err = crawler.Crawl(context.Background())
	assert.ErrorIs(t, err, githubapi.ErrUnauthorized)

	after, err := os.ReadFile(f.config.Sync.DataFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefreshCorruptStoreIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.config.Sync.DataFile), 0o755))
	require.NoError(t, os.WriteFile(f.config.Sync.DataFile, []byte("[{"), 0o644))

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	_, err = crawler.Crawl(context.Background())
	assert.ErrorIs(t, err, store.ErrCorrupt)
	assert.Empty(t, f.fetcher.queries)
}

func TestRefreshCancelledRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.Portfolio{Username: "alice", LastFetched: stale()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	crawler, err := NewCrawlerRefresh(f.deps())
	require.NoError(t, err)
	info, err := crawler.Crawl(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, info.Written)
}

func TestRefreshPublishesAndMirrors(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		model.Portfolio{Username: "alice", LastFetched: stale()},
		model.Portfolio{Username: "bob", LastFetched: testNow.UnixMilli()},
	)
	f.fetcher.add("alice", "Alice", 1, 1)

	publisher := &recordingPublisher{}
	mirror := &memoryStore{}
	deps := f.deps()
	deps.Publisher = publisher
	deps.Mirror = mirror

	crawler, err := NewCrawlerRefresh(deps)
	require.NoError(t, err)
	_, err = crawler.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, MessageKey, publisher.keys[0])
	assert.Equal(t, "alice", publisher.messages[0].Username)
	assert.Equal(t, 2, publisher.messages[0].Popularity)
	assert.Equal(t, testNow.UnixMilli(), publisher.messages[0].SyncedAt)

	require.Len(t, mirror.saved, 1)
	assert.Len(t, mirror.saved[0], 2)
}

func TestRefreshPublishesOneBatchAndSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		model.Portfolio{Username: "alice", LastFetched: stale()},
		model.Portfolio{Username: "bob", LastFetched: stale()},
		model.Portfolio{Username: "carol", LastFetched: testNow.UnixMilli()},
	)
	f.fetcher.add("alice", "Alice", 1, 1)
	f.fetcher.add("bob", "Bob", 2, 2)

	publisher := &recordingPublisher{err: errors.New("broker down")}
	deps := f.deps()
	deps.Publisher = publisher

	crawler, err := NewCrawlerRefresh(deps)
	require.NoError(t, err)
	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Written)

	assert.Equal(t, []string{MessageKey}, publisher.keys, "one batch per run")
	require.Len(t, publisher.messages, 2)
	assert.Equal(t, "alice", publisher.messages[0].Username)
	assert.Equal(t, "bob", publisher.messages[1].Username)
}

func TestFactoryCrawler(t *testing.T) {
	f := newFixture(t)

	c, err := FactoryCrawler("refresh", f.deps())
	require.NoError(t, err)
	assert.IsType(t, &CrawlerRefresh{}, c)

	c, err = FactoryCrawler("readme", f.deps())
	require.NoError(t, err)
	assert.IsType(t, &CrawlerReadme{}, c)

	_, err = FactoryCrawler("v9", f.deps())
	assert.Error(t, err)

	deps := f.deps()
	deps.Fetcher = nil
	_, err = FactoryCrawler("refresh", deps)
	assert.Error(t, err)
}
