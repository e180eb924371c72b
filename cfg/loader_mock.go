package cfg

// MockLoader serves Defaults with a fake credential, for tests and local runs.
type MockLoader struct {
	Override func(*Config)
}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	config := Defaults()
	config.GithubApi.AccessToken = "mock-token"
	config.Throttle.DelayMs = 0
	if ml.Override != nil {
		ml.Override(config)
	}
	return config, nil
}
