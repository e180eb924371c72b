package cfg

import "errors"

// ErrMissingToken is returned when no GitHub credential is configured.
var ErrMissingToken = errors.New("missing FETCH_TOKEN environment variable")

type (
	App struct {
		Name      string
		Version   string
		LogFormat string
		LogLevel  string
	}

	Mysql struct {
		Enabled               bool
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	GithubApi struct {
		AccessToken       string
		ApiUrl            string
		TimeoutSec        int
		RateLimitResetMin int
	}

	Sync struct {
		Mode                string
		DataFile            string
		ReadmeFile          string
		RewriteReadme       bool
		BatchSize           int
		RefreshIntervalDays int
	}

	Throttle struct {
		Strategy   string
		DelayMs    int
		MaxDelayMs int
		Burst      int
	}

	Kafka struct {
		Enabled      bool
		Brokers      []string
		Topic        string
		GroupID      string
		BatchSize    int
		BatchTimeout int
	}

	Ui struct {
		Port        int
		Source      string
		WatchConfig bool
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Sync      Sync
	Throttle  Throttle
	Kafka     Kafka
	Ui        Ui
}

// Validate checks the values a sync run cannot start without.
func (c *Config) Validate() error {
	if c.GithubApi.AccessToken == "" {
		return ErrMissingToken
	}
	if c.Sync.BatchSize <= 0 {
		return errors.New("sync.batchsize must be positive")
	}
	if c.Sync.DataFile == "" {
		return errors.New("sync.datafile must be set")
	}
	return nil
}
