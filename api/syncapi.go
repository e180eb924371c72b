// Package api lets long-running processes trigger and observe sync runs.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	crawlinfo "github.com/thep200/devfolio-sync/internal/crawl_info"
	"github.com/thep200/devfolio-sync/internal/crawler"
	"github.com/thep200/devfolio-sync/pkg/log"
)

var ErrAlreadyRunning = errors.New("sync is already in progress")

// Builder returns a fresh crawler for the given mode.
type Builder func(mode string) (crawler.Crawler, error)

// SyncStats describes the current or last sync run
type SyncStats struct {
	Mode      string          `json:"mode"`
	IsRunning bool            `json:"isRunning"`
	StartTime time.Time       `json:"startTime"`
	Duration  string          `json:"duration"`
	Info      *crawlinfo.Info `json:"info,omitempty"`
	LastError string          `json:"lastError"`
}

// SyncAPI runs at most one sync at a time in the background
type SyncAPI struct {
	logger log.Logger
	build  Builder

	mu      sync.RWMutex
	running bool
	stats   *SyncStats
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSyncAPI(logger log.Logger, build Builder) *SyncAPI {
	return &SyncAPI{
		logger: logger,
		build:  build,
		stats:  &SyncStats{},
	}
}

// StartSync launches a run detached from the request that asked for it.
// The run stops when parent is cancelled or StopSync is called.
func (a *SyncAPI) StartSync(parent context.Context, mode string) error {
	c, err := a.build(mode)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	a.running = true
	a.cancel = cancel
	a.done = make(chan struct{})
	a.stats = &SyncStats{Mode: mode, IsRunning: true, StartTime: time.Now()}
	done := a.done
	a.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		info, err := c.Crawl(ctx)
		if err != nil {
			a.logger.Error(ctx, "Sync in %s mode failed: %v", mode, err)
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		a.running = false
		a.stats.IsRunning = false
		a.stats.Duration = time.Since(a.stats.StartTime).String()
		a.stats.Info = info
		if err != nil {
			a.stats.LastError = err.Error()
		}
	}()

	return nil
}

// StopSync cancels the running sync, if any. It reports whether one was running.
func (a *SyncAPI) StopSync() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running {
		return false
	}
	a.cancel()
	return true
}

// Wait blocks until the current run, if any, has finished.
func (a *SyncAPI) Wait() {
	a.mu.RLock()
	done := a.done
	a.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (a *SyncAPI) GetSyncStats() SyncStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := *a.stats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}
	return stats
}
