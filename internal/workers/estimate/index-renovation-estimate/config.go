// internal/workers/estimate/index-renovation-estimate/config.go
package indexrenovationestimate

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
	// Refresh is passed through to the index API ("true", "false" or "wait_for").
	Refresh string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Index:   "renovation-estimates",
		Refresh: "false",
	}
}
