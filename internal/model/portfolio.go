package model

import (
	"strings"
	"time"
)

// Portfolio is one tracked developer entry of the JSON store.
type Portfolio struct {
	Name          string `json:"name"`
	Username      string `json:"username"`
	PortfolioLink string `json:"portfolioLink"`
	Followers     int    `json:"followers"`
	Stars         int    `json:"stars"`
	Popularity    int    `json:"popularity"`
	LastFetched   int64  `json:"lastFetched"`
}

// UsernameKey is the case-insensitive identity used for merging.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (p *Portfolio) Key() string {
	return UsernameKey(p.Username)
}

// Normalize clamps negative counters and restores popularity = followers + stars.
func (p *Portfolio) Normalize() {
	if p.Followers < 0 {
		p.Followers = 0
	}
	if p.Stars < 0 {
		p.Stars = 0
	}
	if p.LastFetched < 0 {
		p.LastFetched = 0
	}
	p.Popularity = ComputePopularity(p.Followers, p.Stars)
}

// ApplyStats records a successful remote lookup. An empty name keeps the
// previous one and lastFetched never moves backwards.
func (p *Portfolio) ApplyStats(name string, followers, stars int, fetchedAt time.Time) {
	if name != "" {
		p.Name = name
	}
	p.Followers = followers
	p.Stars = stars
	if ms := fetchedAt.UnixMilli(); ms > p.LastFetched {
		p.LastFetched = ms
	}
	p.Normalize()
}

// IsStale reports whether more than interval has elapsed since the last
// successful fetch. Records never fetched are always stale.
func (p *Portfolio) IsStale(now time.Time, interval time.Duration) bool {
	if p.LastFetched <= 0 {
		return true
	}
	return now.Sub(time.UnixMilli(p.LastFetched)) > interval
}
