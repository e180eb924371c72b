package cfg

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ViperLoader struct {
	ConfigPath string
	ConfigName string
	EnvFile    string

	v                     *viper.Viper
	mu                    sync.RWMutex
	cfg                   *Config
	configChangeCallbacks []func(*Config)
}

func NewViperLoader() (*ViperLoader, error) {
	return &ViperLoader{
		ConfigPath:            "cfg/yaml",
		ConfigName:            "mode",
		EnvFile:               ".env",
		v:                     viper.New(),
		configChangeCallbacks: make([]func(*Config), 0),
	}, nil
}

func (yl *ViperLoader) Load() (*Config, error) {
	yl.mu.RLock()
	cached := yl.cfg
	yl.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	fileFound, err := yl.loadConfig()
	if err != nil {
		return nil, err
	}

	if fileFound && yl.IsWatchChange() {
		yl.v.OnConfigChange(func(e fsnotify.Event) {
			fmt.Printf("[INFO][CONFIG] Config file changed: %s\n", e.Name)
			if errReload := yl.reloadConfig(); errReload != nil {
				fmt.Printf("[ERROR][CONFIG] Failed to reload config: %v\n", errReload)
			}
		})
		yl.v.WatchConfig()
	}

	yl.mu.RLock()
	defer yl.mu.RUnlock()
	return yl.cfg, nil
}

// IsWatchChange reports whether ui.watchconfig asked for live reloads.
// Sync runs are one-shot and leave it off.
func (yl *ViperLoader) IsWatchChange() bool {
	return yl.v.GetBool("ui.watchconfig")
}

func (yl *ViperLoader) RegisterConfigChangeCallback(callback func(*Config)) {
	yl.mu.Lock()
	yl.configChangeCallbacks = append(yl.configChangeCallbacks, callback)
	yl.mu.Unlock()
}

func (yl *ViperLoader) loadConfig() (bool, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load(yl.EnvFile)

	setDefaults(yl.v, Defaults())
	yl.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	yl.v.AutomaticEnv()
	if err := yl.v.BindEnv("githubapi.accesstoken", "FETCH_TOKEN", "GITHUB_TOKEN"); err != nil {
		return false, fmt.Errorf("[ERROR][CONFIG] failed to bind token env: %w", err)
	}

	yl.v.AddConfigPath(yl.ConfigPath)
	yl.v.SetConfigName(yl.ConfigName)
	yl.v.SetConfigType("yaml")
	fileFound := true
	if err := yl.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return false, fmt.Errorf("[ERROR][CONFIG] failed to read config file: %w", err)
		}
		fileFound = false
	}

	cfg := &Config{}
	if err := yl.v.Unmarshal(cfg); err != nil {
		return false, fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config: %w", err)
	}

	yl.mu.Lock()
	yl.cfg = cfg
	yl.mu.Unlock()

	return fileFound, nil
}

func (yl *ViperLoader) reloadConfig() error {
	cfg := &Config{}
	if err := yl.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config during reload: %w", err)
	}

	yl.mu.Lock()
	yl.cfg = cfg

	// Notify all registered callbacks
	callbacks := make([]func(*Config), len(yl.configChangeCallbacks))
	copy(callbacks, yl.configChangeCallbacks)
	yl.mu.Unlock()
	for _, callback := range callbacks {
		go callback(cfg)
	}

	fmt.Println("[INFO][CONFIG] Configuration reloaded successfully")
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.version", d.App.Version)
	v.SetDefault("app.logformat", d.App.LogFormat)
	v.SetDefault("app.loglevel", d.App.LogLevel)

	v.SetDefault("mysql.enabled", d.Mysql.Enabled)
	v.SetDefault("mysql.host", d.Mysql.Host)
	v.SetDefault("mysql.port", d.Mysql.Port)
	v.SetDefault("mysql.username", d.Mysql.Username)
	v.SetDefault("mysql.password", d.Mysql.Password)
	v.SetDefault("mysql.database", d.Mysql.Database)
	v.SetDefault("mysql.maxidleconnection", d.Mysql.MaxIdleConnection)
	v.SetDefault("mysql.maxopenconnection", d.Mysql.MaxOpenConnection)
	v.SetDefault("mysql.maxlifetimeconnection", d.Mysql.MaxLifeTimeConnection)

	v.SetDefault("githubapi.accesstoken", d.GithubApi.AccessToken)
	v.SetDefault("githubapi.apiurl", d.GithubApi.ApiUrl)
	v.SetDefault("githubapi.timeoutsec", d.GithubApi.TimeoutSec)
	v.SetDefault("githubapi.ratelimitresetmin", d.GithubApi.RateLimitResetMin)

	v.SetDefault("sync.mode", d.Sync.Mode)
	v.SetDefault("sync.datafile", d.Sync.DataFile)
	v.SetDefault("sync.readmefile", d.Sync.ReadmeFile)
	v.SetDefault("sync.rewritereadme", d.Sync.RewriteReadme)
	v.SetDefault("sync.batchsize", d.Sync.BatchSize)
	v.SetDefault("sync.refreshintervaldays", d.Sync.RefreshIntervalDays)

	v.SetDefault("throttle.strategy", d.Throttle.Strategy)
	v.SetDefault("throttle.delayms", d.Throttle.DelayMs)
	v.SetDefault("throttle.maxdelayms", d.Throttle.MaxDelayMs)
	v.SetDefault("throttle.burst", d.Throttle.Burst)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.groupid", d.Kafka.GroupID)
	v.SetDefault("kafka.batchsize", d.Kafka.BatchSize)
	v.SetDefault("kafka.batchtimeout", d.Kafka.BatchTimeout)

	v.SetDefault("ui.port", d.Ui.Port)
	v.SetDefault("ui.source", d.Ui.Source)
	v.SetDefault("ui.watchconfig", d.Ui.WatchConfig)
}
