package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4311,
			Host: "localhost",
		},
		API: APIConfig{
			URL:            "http://localhost:4312",
			TimeoutSeconds: 10,
		},
		MarketData: MarketDataConfig{
			URL: "https://www.alphavantage.co/query",
		},
		Cache: CacheConfig{
			NewsTTLMinutes: 10,
			MaxEntries:     500,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console", "file"},
		},
	}
}
