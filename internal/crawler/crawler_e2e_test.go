package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	githubapi "github.com/thep200/devfolio-sync/internal/github_api"
	"github.com/thep200/devfolio-sync/internal/limiter"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/pkg/log"
)

var aliasPattern = regexp.MustCompile(`(user_\d+): user\(login: "([^"]+)"\)`)

// graphqlServer answers every aliased lookup except logins listed in missing.
func graphqlServer(t *testing.T, missing map[string]bool, requests *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		if r.Header.Get("Authorization") != "Bearer mock-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		data := map[string]interface{}{}
		for _, m := range aliasPattern.FindAllStringSubmatch(req.Query, -1) {
			alias, login := m[1], m[2]
			if missing[login] {
				data[alias] = nil
				continue
			}
			data[alias] = map[string]interface{}{
				"login":     login,
				"name":      "Name of " + login,
				"followers": map[string]int{"totalCount": len(login)},
				"repositories": map[string]interface{}{
					"nodes": []map[string]int{{"stargazerCount": 2}, {"stargazerCount": 3}},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshAgainstGraphQLServer(t *testing.T) {
	var requests int32
	srv := graphqlServer(t, map[string]bool{"dev07": true}, &requests)

	f := newFixture(t)
	f.config.GithubApi.ApiUrl = srv.URL
	var seed []model.Portfolio
	for i := 0; i < 45; i++ {
		seed = append(seed, model.Portfolio{Username: fmt.Sprintf("dev%02d", i), Followers: 1, Stars: 1, LastFetched: stale()})
	}
	f.seed(t, seed...)

	caller, err := githubapi.NewCaller(log.NewNopLogger(), f.config)
	require.NoError(t, err)
	deps := f.deps()
	deps.Fetcher = caller
	deps.Throttle = limiter.Nop{}

	crawler, err := NewCrawlerRefresh(deps)
	require.NoError(t, err)
	info, err := crawler.Crawl(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, requests)
	assert.Equal(t, 44, info.Fetched)
	assert.Equal(t, 1, info.Missing)

	stored := f.load(t)
	require.Len(t, stored, 45)
	assert.Equal(t, 2, stored["dev07"].Popularity)
	assert.Equal(t, stale(), stored["dev07"].LastFetched)
	assert.Equal(t, "Name of dev08", stored["dev08"].Name)
	assert.Equal(t, 5+5, stored["dev08"].Popularity)

	portfolios, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, model.IsSortedByUsername(portfolios))
}
