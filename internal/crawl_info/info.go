package crawlinfo

import (
	"fmt"
	"time"
)

// Info summarises one sync run.
type Info struct {
	Mode          string        `json:"mode"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"duration"`
	Loaded        int           `json:"loaded"`
	Selected      int           `json:"selected"`
	Fetched       int           `json:"fetched"`
	Missing       int           `json:"missing"`
	Added         int           `json:"added"`
	LinkChanged   int           `json:"linkChanged"`
	Pruned        int           `json:"pruned"`
	Batches       int           `json:"batches"`
	FailedBatches int           `json:"failedBatches"`
	Written       bool          `json:"written"`
	ReadmeWritten bool          `json:"readmeWritten"`
}

func New(mode string, startedAt time.Time) *Info {
	return &Info{Mode: mode, StartedAt: startedAt}
}

func (i *Info) String() string {
	return fmt.Sprintf(
		"mode=%s loaded=%d selected=%d fetched=%d missing=%d added=%d linkChanged=%d pruned=%d batches=%d failedBatches=%d written=%t duration=%v",
		i.Mode, i.Loaded, i.Selected, i.Fetched, i.Missing, i.Added, i.LinkChanged, i.Pruned,
		i.Batches, i.FailedBatches, i.Written, i.Duration.Round(time.Millisecond),
	)
}
