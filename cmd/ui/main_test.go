package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

type capturePublisher struct {
	msgs []model.PortfolioMessage
}

func (c *capturePublisher) PublishPortfolios(_ context.Context, _ string, msgs []model.PortfolioMessage) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestSyncBuilderPublishesTouchedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"user_0":{"login":"alice","name":"Alice",` +
			`"followers":{"totalCount":2},"repositories":{"nodes":[{"stargazerCount":3}]}}}}`))
	}))
	defer srv.Close()

	dataFile := filepath.Join(t.TempDir(), "portfolios.json")
	fileStore := store.NewJSONStore(dataFile)
	require.NoError(t, fileStore.Save(context.Background(), []model.Portfolio{{Username: "alice"}}))

	loader := &cfg.MockLoader{Override: func(c *cfg.Config) {
		c.GithubApi.ApiUrl = srv.URL
		c.Sync.DataFile = dataFile
		c.Throttle.Strategy = "none"
	}}
	publisher := &capturePublisher{}

	build := syncBuilder(loader, log.NewNopLogger(), fileStore, nil, publisher)
	c, err := build("refresh")
	require.NoError(t, err)
	_, err = c.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.msgs, 1)
	assert.Equal(t, "alice", publisher.msgs[0].Username)
	assert.Equal(t, 5, publisher.msgs[0].Popularity)
}
