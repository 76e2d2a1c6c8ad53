// internal/workers/estimate/calculate-renovation-estimate/config.go
package calculaterenovationestimate

import "time"

type Config struct {
	Timeout time.Duration
	// CacheTTL of zero disables result caching.
	CacheTTL time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: time.Hour,
	}
}
