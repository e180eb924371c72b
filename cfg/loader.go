package cfg

type Loader interface {
	Load() (*Config, error)
}

// Defaults returns the configuration used when a key is absent from
// both the yaml file and the environment.
func Defaults() *Config {
	return &Config{
		App: App{
			Name:      "devfolio-sync",
			Version:   "0.1.0",
			LogFormat: "console",
			LogLevel:  "info",
		},
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Port:                  "3306",
			Username:              "root",
			Database:              "devfolio",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},
		GithubApi: GithubApi{
			ApiUrl:            "https://api.github.com/graphql",
			TimeoutSec:        30,
			RateLimitResetMin: 15,
		},
		Sync: Sync{
			Mode:                "refresh",
			DataFile:            "data/portfolios.json",
			ReadmeFile:          "README.md",
			BatchSize:           30,
			RefreshIntervalDays: 5,
		},
		Throttle: Throttle{
			Strategy:   "fixed",
			DelayMs:    10000,
			MaxDelayMs: 120000,
			Burst:      1,
		},
		Kafka: Kafka{
			Topic:        "portfolios",
			GroupID:      "portfolio-mirror",
			BatchSize:    100,
			BatchTimeout: 5,
		},
		Ui: Ui{
			Port:   8080,
			Source: "file",
		},
	}
}
