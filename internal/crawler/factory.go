package crawler

import (
	"fmt"
)

const (
	ModeRefresh = "refresh"
	ModeReadme  = "readme"
)

func FactoryCrawler(mode string, deps Deps) (Crawler, error) {
	switch mode {
	case ModeRefresh, "":
		return NewCrawlerRefresh(deps)
	case ModeReadme:
		return NewCrawlerReadme(deps)
	default:
		return nil, fmt.Errorf("[ERROR] Unsupported sync mode: %s", mode)
	}
}
